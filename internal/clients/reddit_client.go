package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	REDDIT_AUTH_URL       = "https://www.reddit.com/api/v1/access_token"
	REDDIT_API_URL        = "https://oauth.reddit.com"
	REDDIT_MAX_PAGE_LIMIT = 100
)

var errUnauthorized = errors.New("[RedditClient] unauthorized")

type RedditConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIURL       string
	// Interval is the minimum gap between two requests.
	Interval       time.Duration
	MaxElapsed     time.Duration
	InitialBackoff time.Duration
}

// RedditClient reads subreddit listings through the OAuth API with an
// application-only token.
type RedditClient struct {
	config  *clientcredentials.Config
	apiURL  string
	cfg     RedditConfig
	mu      sync.Mutex
	client  *http.Client
	lastReq time.Time
}

// Listing is one page of a subreddit listing.
type Listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Children []Thing `json:"children"`
	} `json:"data"`
}

// Thing is a listing child: kind t1 is a comment, t3 a link post.
type Thing struct {
	Kind string         `json:"kind"`
	Data map[string]any `json:"data"`
}

func NewRedditClient(cfg RedditConfig) *RedditClient {
	if cfg.TokenURL == "" {
		cfg.TokenURL = REDDIT_AUTH_URL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = REDDIT_API_URL
	}
	if cfg.Interval <= 0 {
		cfg.Interval = INITIAL_BACKOFF
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 2 * time.Minute
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = INITIAL_BACKOFF
	}

	oauthConf := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return &RedditClient{
		config: oauthConf,
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		cfg:    cfg,
		client: oauthConf.Client(context.Background()),
	}
}

// RefreshClient drops the cached token so the next request authenticates
// again.
func (rc *RedditClient) RefreshClient() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.client = rc.config.Client(context.Background())
}

// Listing fetches one page of /r/<subreddit>/<listing>, e.g. "new" for
// posts or "comments" for comments, continuing after the given fullname.
func (rc *RedditClient) Listing(ctx context.Context, subreddit, listing, after string, limit int) (*Listing, error) {
	if limit <= 0 || limit > REDDIT_MAX_PAGE_LIMIT {
		limit = REDDIT_MAX_PAGE_LIMIT
	}
	q := url.Values{
		"limit":    {strconv.Itoa(limit)},
		"raw_json": {"1"},
	}
	if after != "" {
		q.Set("after", after)
	}
	path := fmt.Sprintf("/r/%s/%s", url.PathEscape(subreddit), url.PathEscape(listing))

	var body []byte
	op := func() error {
		rc.pace()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rc.apiURL+path+"?"+q.Encode(), nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("[RedditClient] Failed to build request: %w", err))
		}
		req.Header.Set("User-Agent", USER_AGENT)

		rc.mu.Lock()
		client := rc.client
		rc.mu.Unlock()

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err = io.ReadAll(resp.Body)
			return err
		case resp.StatusCode == http.StatusUnauthorized:
			slog.Warn("[RedditClient] Token expired - Refreshing and Retrying...")
			rc.RefreshClient()
			return errUnauthorized
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: %s (%s)", ErrNotFound, path, errMsg(nil, resp)))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("[RedditClient] %s", errMsg(nil, resp))
		default:
			return backoff.Permanent(fmt.Errorf("[RedditClient] %s", errMsg(nil, resp)))
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = rc.cfg.InitialBackoff
	policy.MaxInterval = MAX_BACKOFF
	policy.MaxElapsedTime = rc.cfg.MaxElapsed

	notify := func(err error, wait time.Duration) {
		slog.Warn("[RedditClient] Retrying request",
			slog.String("path", path),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()))
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(policy, MAX_RETRIES), ctx), notify); err != nil {
		return nil, fmt.Errorf("[RedditClient] request to %s failed: %w", path, err)
	}

	var out Listing
	if err := decoder.Unmarshal(body, &out); err != nil {
		slog.Error("[RedditClient] Failed to unmarshal listing",
			slog.String("path", path),
			slog.String("error", err.Error()),
			getPreview(body))
		return nil, fmt.Errorf("[RedditClient] failed to unmarshal listing: %w", err)
	}
	return &out, nil
}

// pace keeps requests at least Interval apart.
func (rc *RedditClient) pace() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if wait := rc.cfg.Interval - time.Since(rc.lastReq); wait > 0 {
		time.Sleep(wait)
	}
	rc.lastReq = time.Now()
}
