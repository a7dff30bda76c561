package config

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) *IngestConfig {
	t.Helper()
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	cfg := RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cfg
}

func TestRegisterFlags_Defaults(t *testing.T) {
	cfg := parse(t)

	assert.Equal(t, "the-reddit-dataset", cfg.Profile)
	assert.Equal(t, DEFAULT_OUT_DIR, cfg.OutDir)
	assert.Equal(t, 2000, cfg.MaxPosts)
	assert.Equal(t, 2000, cfg.MaxComments)
	assert.False(t, cfg.ToDatetime)
	assert.Equal(t, BACKEND_HF, cfg.Backend)
	assert.Equal(t, 0.5, cfg.LabelThreshold)
	require.NoError(t, cfg.Validate())
}

func TestRegisterFlags_EnvThenFlags(t *testing.T) {
	t.Setenv("INGEST_MAX_POSTS", "50")
	t.Setenv("INGEST_TO_DATETIME", "true")
	t.Setenv("KAFKA_IDLE_TIMEOUT", "3s")
	t.Setenv("INGEST_MAX_COMMENTS", "lots")

	cfg := parse(t, "-max-posts", "7", "-profile", "pushshift")

	assert.Equal(t, 7, cfg.MaxPosts)
	assert.Equal(t, 2000, cfg.MaxComments)
	assert.True(t, cfg.ToDatetime)
	assert.Equal(t, 3*time.Second, cfg.KafkaIdleTimeout)
	assert.Equal(t, "pushshift", cfg.Profile)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero posts", []string{"-max-posts", "0"}, "max-posts"},
		{"negative comments", []string{"-max-comments", "-1"}, "max-comments"},
		{"empty out dir", []string{"-out-dir", ""}, "out-dir"},
		{"unknown backend", []string{"-backend", "s3"}, "backend"},
		{"jsonl without dir", []string{"-backend", "jsonl"}, "input-dir"},
		{"reddit without credentials", []string{"-backend", "reddit", "-reddit-client-id", ""}, "reddit-client-id"},
		{"threshold out of range", []string{"-label-threshold", "1.5"}, "label-threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parse(t, tt.args...).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
