package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/valkey-io/valkey-go"
)

const (
	VALKEY_EXPORTED_PREFIX = "redditcanon:exported"
	VALKEY_RETRIES         = 3
	VALKEY_RETRY_DELAY     = 250 * time.Millisecond
	DEFAULT_REGISTRY_TTL   = 30 * 24 * time.Hour
)

type ValkeyConfig struct {
	Address  string
	Password string
	TLS      bool
	TTL      time.Duration
}

// ValkeyRegistry records which (source, type, id) keys earlier runs have
// exported, one set per source and type.
type ValkeyRegistry struct {
	Client valkey.Client
	ttl    time.Duration
}

func NewValkeyRegistry(ctx context.Context, cfg ValkeyConfig) (*ValkeyRegistry, error) {
	opts := valkey.ClientOption{
		InitAddress:      []string{cfg.Address},
		Password:         cfg.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}
	slog.Info("[ValkeyClient] Successfully connected to valkey", slog.String("address", cfg.Address))

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DEFAULT_REGISTRY_TTL
	}
	return &ValkeyRegistry{Client: client, ttl: ttl}, nil
}

func (r *ValkeyRegistry) Close() {
	r.Client.Close()
}

// Exported reports which ids are already members of the registry set.
func (r *ValkeyRegistry) Exported(ctx context.Context, source string, t models.Type, ids []string) (map[string]bool, error) {
	key := registryKey(source, t)
	build := func() []valkey.Completed {
		cmds := make([]valkey.Completed, len(ids))
		for i, id := range ids {
			cmds[i] = r.Client.B().Sismember().Key(key).Member(id).Build()
		}
		return cmds
	}

	out := make(map[string]bool)
	for i, res := range r.doMultiWithRetry(ctx, build) {
		ok, err := res.AsBool()
		if err != nil {
			return nil, fmt.Errorf("[ValkeyClient] checking %s: %w", key, err)
		}
		if ok {
			out[ids[i]] = true
		}
	}
	return out, nil
}

// MarkExported adds ids to the registry set and refreshes its expiry.
func (r *ValkeyRegistry) MarkExported(ctx context.Context, source string, t models.Type, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	key := registryKey(source, t)
	build := func() []valkey.Completed {
		return []valkey.Completed{
			r.Client.B().Sadd().Key(key).Member(ids...).Build(),
			r.Client.B().Expire().Key(key).Seconds(int64(r.ttl.Seconds())).Build(),
		}
	}
	for _, res := range r.doMultiWithRetry(ctx, build) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("[ValkeyClient] marking %s: %w", key, err)
		}
	}

	slog.Info("[ValkeyClient] Recorded exported keys",
		slog.String("key", key),
		slog.Int("count", len(ids)))
	return nil
}

func registryKey(source string, t models.Type) string {
	return fmt.Sprintf("%s:%s:%s", VALKEY_EXPORTED_PREFIX, source, t)
}

// doMultiWithRetry builds a fresh command set for every attempt, since
// valkey-go recycles commands once DoMulti has sent them.
func (r *ValkeyRegistry) doMultiWithRetry(ctx context.Context, build func() []valkey.Completed) []valkey.ValkeyResult {
	var results []valkey.ValkeyResult
	retryOnConnectionError(ctx, VALKEY_RETRIES, VALKEY_RETRY_DELAY, func() error {
		results = r.Client.DoMulti(ctx, build()...)
		for _, res := range results {
			if err := res.Error(); err != nil {
				return err
			}
		}
		return nil
	})
	return results
}

// retryOnConnectionError runs attempt until it succeeds, fails with an
// error that is not a connection error, or runs out of attempts.
func retryOnConnectionError(ctx context.Context, attempts int, delay time.Duration, attempt func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = attempt()
		if !isConnectionError(err) {
			return err
		}
		slog.Warn("[ValkeyClient] Do Multi failed",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
