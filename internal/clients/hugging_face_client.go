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
	"time"

	"github.com/cenkalti/backoff/v4"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/oauth2"
)

const (
	HF_DATASETS_SERVER = "https://datasets-server.huggingface.co"
	HF_MAX_PAGE_LENGTH = 100
)

// ErrNotFound is returned when the dataset server has no such dataset,
// config or split.
var ErrNotFound = errors.New("[HuggingFaceClient] not found")

// decoder keeps numbers as json.Number so ids and epochs stay exact.
var decoder = jsoniter.Config{
	EscapeHTML:             true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

type HuggingFaceConfig struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
	// MaxElapsed bounds the retries of one request.
	MaxElapsed     time.Duration
	InitialBackoff time.Duration
}

// HuggingFaceClient pulls rows from the Hugging Face datasets server.
type HuggingFaceClient struct {
	endpoint       string
	client         *http.Client
	maxElapsed     time.Duration
	initialBackoff time.Duration
}

func NewHuggingFaceClient(cfg HuggingFaceConfig) *HuggingFaceClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = HF_DATASETS_SERVER
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 2 * time.Minute
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = INITIAL_BACKOFF
	}

	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.Token,
			TokenType:   "Bearer",
		}))
		client.Timeout = cfg.Timeout
	}

	slog.Info("[HuggingFaceClient] Initializing Client",
		slog.String("endpoint", cfg.Endpoint),
		slog.Duration("timeout", cfg.Timeout),
		slog.Bool("authenticated", cfg.Token != ""))

	return &HuggingFaceClient{
		endpoint:       strings.TrimRight(cfg.Endpoint, "/"),
		client:         client,
		maxElapsed:     cfg.MaxElapsed,
		initialBackoff: cfg.InitialBackoff,
	}
}

type SplitsResponse struct {
	Splits []SplitEntry `json:"splits"`
}

type SplitEntry struct {
	Dataset string `json:"dataset"`
	Config  string `json:"config"`
	Split   string `json:"split"`
}

type RowsResponse struct {
	Features     []Feature `json:"features"`
	Rows         []RowItem `json:"rows"`
	NumRowsTotal int       `json:"num_rows_total"`
	Partial      bool      `json:"partial"`
}

type Feature struct {
	Index int         `json:"feature_idx"`
	Name  string      `json:"name"`
	Type  FeatureType `json:"type"`
}

type FeatureType struct {
	Kind  string   `json:"_type"`
	Dtype string   `json:"dtype,omitempty"`
	Names []string `json:"names,omitempty"`
}

type RowItem struct {
	Index          int            `json:"row_idx"`
	Row            map[string]any `json:"row"`
	TruncatedCells []string       `json:"truncated_cells"`
}

// ClassLabels returns the label names of every ClassLabel feature.
func (r *RowsResponse) ClassLabels() map[string][]string {
	labels := make(map[string][]string)
	for _, f := range r.Features {
		if f.Type.Kind == "ClassLabel" && len(f.Type.Names) > 0 {
			labels[f.Name] = f.Type.Names
		}
	}
	return labels
}

// Configs lists the config names the server knows for dataset.
func (h *HuggingFaceClient) Configs(ctx context.Context, dataset string) ([]string, error) {
	var out SplitsResponse
	if err := h.getJSON(ctx, "/splits", url.Values{"dataset": {dataset}}, &out); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var configs []string
	for _, s := range out.Splits {
		if !seen[s.Config] {
			seen[s.Config] = true
			configs = append(configs, s.Config)
		}
	}
	return configs, nil
}

// Rows fetches one page of at most HF_MAX_PAGE_LENGTH rows.
func (h *HuggingFaceClient) Rows(ctx context.Context, dataset, config, split string, offset, length int) (*RowsResponse, error) {
	if length <= 0 || length > HF_MAX_PAGE_LENGTH {
		length = HF_MAX_PAGE_LENGTH
	}
	q := url.Values{
		"dataset": {dataset},
		"config":  {config},
		"split":   {split},
		"offset":  {strconv.Itoa(offset)},
		"length":  {strconv.Itoa(length)},
	}

	var out RowsResponse
	if err := h.getJSON(ctx, "/rows", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *HuggingFaceClient) getJSON(ctx context.Context, path string, q url.Values, output any) error {
	endpoint := h.endpoint + path + "?" + q.Encode()

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("[HuggingFaceClient] failed to build request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", USER_AGENT)

		resp, err := h.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err = io.ReadAll(resp.Body)
			return err
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, path))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("[HuggingFaceClient] %s", errMsg(nil, resp))
		default:
			return backoff.Permanent(fmt.Errorf("[HuggingFaceClient] %s", errMsg(nil, resp)))
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = h.initialBackoff
	policy.MaxInterval = MAX_BACKOFF
	policy.MaxElapsedTime = h.maxElapsed

	notify := func(err error, wait time.Duration) {
		slog.Warn("[HuggingFaceClient] Request failed, will retry",
			slog.String("path", path),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()))
	}

	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(policy, MAX_RETRIES), ctx), notify)
	if err != nil {
		return fmt.Errorf("[HuggingFaceClient] request to %s failed: %w", path, err)
	}

	if err := decoder.Unmarshal(body, output); err != nil {
		slog.Error("[HuggingFaceClient] Failed to unmarshal response",
			slog.String("path", path),
			slog.String("error", err.Error()),
			getPreview(body),
			slog.Int("raw_response_length", len(body)))
		return fmt.Errorf("[HuggingFaceClient] failed to unmarshal response: %w", err)
	}
	return nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
