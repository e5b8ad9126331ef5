package perspective

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"accountscan/pkg/ratelimit"
)

func newLimiter(t *testing.T) *ratelimit.Limiter {
	t.Helper()
	limiter, err := ratelimit.NewLimiter(60000) // effectively unthrottled
	if err != nil {
		t.Fatalf("NewLimiter: %v", err)
	}
	return limiter
}

func TestClassifyExtractsSummaryScores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "api-key" {
			t.Errorf("missing api key, query = %s", r.URL.RawQuery)
		}
		var payload struct {
			Comment struct {
				Text string `json:"text"`
			} `json:"comment"`
			RequestedAttributes map[string]struct{} `json:"requestedAttributes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload.Comment.Text != "some text" {
			t.Errorf("comment text = %q", payload.Comment.Text)
		}
		if len(payload.RequestedAttributes) != 4 {
			t.Errorf("requested %d attributes, want 4", len(payload.RequestedAttributes))
		}
		w.Write([]byte(`{"attributeScores": {
			"TOXICITY": {"summaryScore": {"value": 0.91}},
			"INSULT": {"summaryScore": {"value": 0.42}}
		}}`))
	}))
	defer srv.Close()

	c := New(newLimiter(t), WithHTTPClient(srv.Client()), WithAnalyzeURL(srv.URL))
	scores, err := c.Classify(context.Background(), "some text", "api-key")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if scores["TOXICITY"] != 0.91 || scores["INSULT"] != 0.42 {
		t.Errorf("scores = %v", scores)
	}
}

func TestClassifyEmptyTextSkipsLimiter(t *testing.T) {
	// 1/min spacing: a second Wait would block for a minute, so the test
	// only passes if Classify never touches the limiter.
	limiter, err := ratelimit.NewLimiter(1)
	if err != nil {
		t.Fatalf("NewLimiter: %v", err)
	}
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("priming Wait: %v", err)
	}

	c := New(limiter)
	for _, text := range []string{"", "   ", "\n\t "} {
		start := time.Now()
		scores, err := c.Classify(context.Background(), text, "key")
		if err != nil {
			t.Fatalf("Classify(%q): %v", text, err)
		}
		if len(scores) != 0 {
			t.Errorf("Classify(%q) = %v, want empty", text, scores)
		}
		if time.Since(start) > 100*time.Millisecond {
			t.Errorf("Classify(%q) blocked on the limiter", text)
		}
	}
}

func TestClassifyNon200IsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(newLimiter(t), WithHTTPClient(srv.Client()), WithAnalyzeURL(srv.URL))
	scores, err := c.Classify(context.Background(), "text", "key")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("scores = %v, want empty", scores)
	}
	if scores == nil {
		t.Error("unavailable classification should be an empty map, not nil")
	}
}

func TestClassifyMalformedBodyIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"attributeScores": not json`))
	}))
	defer srv.Close()

	c := New(newLimiter(t), WithHTTPClient(srv.Client()), WithAnalyzeURL(srv.URL))
	scores, err := c.Classify(context.Background(), "text", "key")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("scores = %v, want empty", scores)
	}
}

func TestClassifyPropagatesCancellation(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(newLimiter(t), WithHTTPClient(srv.Client()), WithAnalyzeURL(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := c.Classify(ctx, "text", "key")
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if hits.Load() == 0 {
		t.Error("request never reached the server")
	}
}
