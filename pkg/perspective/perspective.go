// Package perspective classifies text through the Perspective API,
// extracting per-attribute toxicity scores.
package perspective

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"accountscan/pkg/logger"
	"accountscan/pkg/ratelimit"

	"github.com/sirupsen/logrus"
)

const defaultAnalyzeURL = "https://commentanalyzer.googleapis.com/v1alpha1/comments:analyze"

const requestTimeout = 10 * time.Second

// Attributes are the score attributes requested for every classification.
var Attributes = []string{"TOXICITY", "INSULT", "PROFANITY", "SEXUALLY_EXPLICIT"}

// Scores maps attribute names to summary scores in [0,1]. An empty map
// means classification was unavailable, which is distinct from a map of
// zero scores; callers must not treat the two the same.
type Scores map[string]float64

// Client issues classification requests through a shared rate limiter.
// The underlying HTTP client is meant to be shared across calls so
// connections are reused.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	logger     *logger.Logger
	analyzeURL string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the shared HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithAnalyzeURL overrides the API endpoint, used by tests.
func WithAnalyzeURL(u string) Option {
	return func(c *Client) { c.analyzeURL = u }
}

// New creates a classifier client sharing the given rate limiter.
func New(limiter *ratelimit.Limiter, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		limiter:    limiter,
		logger:     logger.NewLogger(logrus.InfoLevel),
		analyzeURL: defaultAnalyzeURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type analyzeResponse struct {
	AttributeScores map[string]struct {
		SummaryScore struct {
			Value float64 `json:"value"`
		} `json:"summaryScore"`
	} `json:"attributeScores"`
}

// Classify scores a single text blob. Empty or whitespace-only text returns
// an empty map immediately without consuming a rate-limit slot. Transport
// errors, non-200 responses, and malformed bodies also return an empty map;
// only context cancellation is returned as an error.
func (c *Client) Classify(ctx context.Context, text, apiKey string) (Scores, error) {
	if strings.TrimSpace(text) == "" {
		return Scores{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload := buildPayload(text)
	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.WithError(err).Error("Perspective payload marshal failed")
		return Scores{}, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.analyzeURL+"?key="+apiKey, bytes.NewReader(body))
	if err != nil {
		c.logger.WithError(err).Error("Perspective request build failed")
		return Scores{}, nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.WithError(err).Warn("Perspective request failed")
		return Scores{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logger.Fields{"status": resp.StatusCode}).Warn("Perspective returned non-200")
		return Scores{}, nil
	}

	var decoded analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.WithError(err).Warn("Perspective response decode failed")
		return Scores{}, nil
	}

	scores := make(Scores, len(decoded.AttributeScores))
	for attr, v := range decoded.AttributeScores {
		scores[attr] = v.SummaryScore.Value
	}
	return scores, nil
}

func buildPayload(text string) map[string]any {
	attrs := make(map[string]struct{}, len(Attributes))
	for _, a := range Attributes {
		attrs[a] = struct{}{}
	}
	return map[string]any{
		"comment":             map[string]string{"text": text},
		"languages":           []string{"en"},
		"requestedAttributes": attrs,
	}
}
