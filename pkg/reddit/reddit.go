// Package reddit fetches recent user content from the Reddit API.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"accountscan/pkg/logger"

	"github.com/sirupsen/logrus"
)

const (
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	defaultAPIBase  = "https://oauth.reddit.com"
	requestTimeout  = 10 * time.Second
)

// Credentials hold the Reddit application secrets.
type Credentials struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
}

// Complete reports whether all required secrets are present.
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// ItemKind tags the two content kinds Reddit serves for a user.
type ItemKind string

const (
	KindComment ItemKind = "comment"
	KindPost    ItemKind = "post"
)

// Item is one fetched unit of user content.
type Item struct {
	Kind      ItemKind
	Subreddit string
	Body      string
	Created   time.Time
}

// Client talks to the Reddit API.
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	tokenURL   string
	apiBase    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithBaseURLs overrides the token and API endpoints, used by tests.
func WithBaseURLs(tokenURL, apiBase string) Option {
	return func(c *Client) {
		c.tokenURL = tokenURL
		c.apiBase = apiBase
	}
}

// New creates a Reddit client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger.NewLogger(logrus.InfoLevel),
		tokenURL:   defaultTokenURL,
		apiBase:    defaultAPIBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchUserContent retrieves up to maxComments newest comments and maxPosts
// newest submissions for username, fetching the two kinds concurrently.
//
// A nil return means there is nothing to analyze: the user does not exist,
// has no content, or the API could not be reached. Failures are logged,
// never propagated. The authenticated token is revoked on every exit path.
func (c *Client) FetchUserContent(ctx context.Context, username string, maxComments, maxPosts int, creds Credentials) []Item {
	userAgent := creds.UserAgent
	if userAgent == "" {
		userAgent = fmt.Sprintf("accountscan/1.0 (by u/%s)", username)
	}

	c.logger.WithFields(logger.Fields{"username": username}).Info("Reddit: fetching user content")

	token, err := c.authenticate(ctx, creds, userAgent)
	if err != nil {
		c.logger.WithError(err).Error("Reddit authentication failed")
		return nil
	}
	defer c.revokeToken(creds, token, userAgent)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		items    []Item
		fetchErr error
	)

	fetch := func(path string, limit int, convert func(child childData) Item) {
		defer wg.Done()
		if limit <= 0 {
			return
		}
		fetched, err := c.fetchListing(ctx, token, userAgent, path, limit, convert)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			fetchErr = err
			return
		}
		items = append(items, fetched...)
	}

	wg.Add(2)
	go fetch(fmt.Sprintf("/user/%s/comments", url.PathEscape(username)), maxComments, func(d childData) Item {
		return Item{
			Kind:      KindComment,
			Subreddit: d.Subreddit,
			Body:      d.Body,
			Created:   time.Unix(int64(d.CreatedUTC), 0),
		}
	})
	go fetch(fmt.Sprintf("/user/%s/submitted", url.PathEscape(username)), maxPosts, func(d childData) Item {
		return Item{
			Kind:      KindPost,
			Subreddit: d.Subreddit,
			Body:      d.Title + "\n" + d.Selftext,
			Created:   time.Unix(int64(d.CreatedUTC), 0),
		}
	})
	wg.Wait()

	if fetchErr != nil {
		c.logger.WithError(fetchErr).Error("Reddit fetch failed")
		return nil
	}
	if len(items) == 0 {
		c.logger.WithFields(logger.Fields{"username": username}).Info("Reddit: no items to analyze")
		return nil
	}

	c.logger.WithFields(logger.Fields{
		"username": username,
		"items":    len(items),
	}).Info("Reddit: fetched user content")
	return items
}

type childData struct {
	Subreddit  string  `json:"subreddit"`
	Body       string  `json:"body"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	CreatedUTC float64 `json:"created_utc"`
}

type listing struct {
	Data struct {
		Children []struct {
			Data childData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (c *Client) fetchListing(ctx context.Context, token, userAgent, path string, limit int, convert func(childData) Item) ([]Item, error) {
	endpoint := fmt.Sprintf("%s%s?sort=new&limit=%d", c.apiBase, path, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing %s returned status %d", path, resp.StatusCode)
	}

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("decoding listing %s: %w", path, err)
	}

	items := make([]Item, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		if len(items) >= limit {
			break
		}
		items = append(items, convert(child.Data))
	}
	return items, nil
}

func (c *Client) authenticate(ctx context.Context, creds Credentials, userAgent string) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(creds.ClientID, creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned an empty token")
	}
	return body.AccessToken, nil
}

// revokeToken releases the session token. Failures only get logged; by the
// time this runs the caller already has its result. A fresh short context is
// used so revocation still happens when the scan context was cancelled.
func (c *Client) revokeToken(creds Credentials, token, userAgent string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	revokeURL := strings.Replace(c.tokenURL, "access_token", "revoke_token", 1)
	form := url.Values{"token": {token}, "token_type_hint": {"access_token"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return
	}
	req.SetBasicAuth(creds.ClientID, creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Debug("Reddit token revocation failed")
		return
	}
	resp.Body.Close()
}
