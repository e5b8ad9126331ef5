// Package report persists scan results: flagged content as CSV rows and
// enumerated accounts as structured JSON.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"accountscan/pkg/perspective"
	"accountscan/pkg/sherlock"
)

// FlaggedItem is one content item that met the toxicity threshold,
// with its content already truncated for reporting.
type FlaggedItem struct {
	Timestamp string             `json:"timestamp"`
	Kind      string             `json:"type"`
	Subreddit string             `json:"subreddit"`
	Content   string             `json:"content"`
	Scores    perspective.Scores `json:"scores"`
}

// WriteFlagged writes the flagged-content CSV report. Nothing is written
// for an empty list. The file appears atomically via a temp-file rename,
// so a reader never observes a partial report.
func WriteFlagged(path string, items []FlaggedItem) error {
	if len(items) == 0 {
		return nil
	}

	header := append([]string{"timestamp", "type", "subreddit", "content"}, perspective.Attributes...)
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := []string{item.Timestamp, item.Kind, item.Subreddit, item.Content}
		for _, attr := range perspective.Attributes {
			score, ok := item.Scores[attr]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(score, 'f', -1, 64))
		}
		rows = append(rows, row)
	}

	return writeAtomic(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return err
		}
		if err := w.WriteAll(rows); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	})
}

// WriteAccounts writes the enumerated-accounts JSON report. Nothing is
// written for an empty list.
func WriteAccounts(path string, accounts []sherlock.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling accounts: %w", err)
	}

	return writeAtomic(path, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

func writeAtomic(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating report directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("creating temp report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publishing report: %w", err)
	}
	return nil
}
