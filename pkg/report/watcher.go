package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

var reportExtensions = map[string]bool{
	".csv": true, ".json": true,
}

// dedupWindow suppresses repeat events for the same file; editors and
// renames can produce several write events per report.
const dedupWindow = 2 * time.Second

// WatchDirectory watches dir for newly written report files and invokes
// onReport for each, until the context is cancelled. It blocks.
func WatchDirectory(ctx context.Context, dir string, onReport func(path string)) {
	log.Infof("Watching report directory: %s", dir)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error(err)
		return
	}
	defer watcher.Close()

	fileInfo, err := os.Stat(dir)
	if err != nil {
		log.Errorf("Directory does not exist: %s", dir)
		return
	}
	if !fileInfo.IsDir() {
		log.Errorf("%s is not a directory", dir)
		return
	}

	var (
		seenMu sync.Mutex
		seen   = make(map[string]time.Time)
	)

	recentlySeen := func(name string) bool {
		seenMu.Lock()
		defer seenMu.Unlock()
		now := time.Now()
		if last, ok := seen[name]; ok && now.Sub(last) < dedupWindow {
			return true
		}
		seen[name] = now
		return false
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// Renames cover the atomic temp-file publish path
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if !isReportFile(event.Name) {
					continue
				}
				fi, err := os.Stat(event.Name)
				if err != nil || fi.IsDir() {
					continue
				}
				if recentlySeen(event.Name) {
					continue
				}
				go onReport(event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error(err)
			case <-ctx.Done():
				log.Info("Report watcher closed")
				return
			}
		}
	}()

	if err := watcher.Add(dir); err != nil {
		log.Error(err)
	}
	<-ctx.Done()
}

func isReportFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		// Skip in-progress temp files
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	return reportExtensions[ext]
}
