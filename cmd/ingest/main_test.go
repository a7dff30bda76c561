package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/redditcanon/config"
	"github.com/spacesedan/redditcanon/internal/models"
)

func writeFile(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func ingestConfig(t *testing.T, args ...string) *config.IngestConfig {
	t.Helper()
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	cfg := config.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cfg
}

func TestRun_JSONLBackend(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFile(t, in, "comments.jsonl",
		`{"type": 0, "id": "c1", "body": "a perfectly reasonable comment body", "created_utc": 1700000000, "score": 4}`,
		`{"type": 0, "id": "c2", "body": "[deleted]", "created_utc": 1700000001}`,
		`{"type": 0, "id": "c1", "body": "the same id arriving a second time", "created_utc": 1700000002}`,
	)
	writeFile(t, in, "comments.labels.json", `{"type": ["comment", "post"]}`)
	writeFile(t, in, "posts.jsonl",
		`{"type": "post", "id": "p1", "domain": "self.datasets", "title": "Need data", "selftext": "looking for a dataset of reddit posts"}`,
		`{"type": "post", "id": "p2", "domain": "github.com", "title": "A repo", "url": "https://github.com/x/y"}`,
	)

	cfg := ingestConfig(t, "-backend", "jsonl", "-input-dir", in, "-out-dir", out, "-to-datetime")
	var summary bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &summary))

	for _, name := range []string{
		"the-reddit-dataset-dataset_comment.parquet",
		"the-reddit-dataset-dataset_post_internal.parquet",
		"the-reddit-dataset-dataset_post_external.parquet",
		"the-reddit-dataset-dataset_all.parquet",
	} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
	assert.Contains(t, summary.String(), "the-reddit-dataset-dataset_comment: 1 rows")
	assert.Contains(t, summary.String(), "the-reddit-dataset-dataset_all: 3 rows")
}

func TestRun_MissingPartitionIsFatal(t *testing.T) {
	in := t.TempDir()
	writeFile(t, in, "posts.jsonl", `{"type": "post", "id": "p1"}`)

	cfg := ingestConfig(t, "-backend", "jsonl", "-input-dir", in, "-out-dir", t.TempDir())
	err := run(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := ingestConfig(t, "-max-posts", "0")
	require.Error(t, run(context.Background(), cfg, &bytes.Buffer{}))
}

func TestResolveProfile_Overrides(t *testing.T) {
	cfg := ingestConfig(t, "-profile", "the-reddit-dataset", "-comments-config", "comments_2024", "-split", "test", "-dataset", "me/copy")

	p, err := resolveProfile(cfg)
	require.NoError(t, err)

	assert.Equal(t, "me/copy", p.Dataset)
	assert.Equal(t, "copy", p.Slug())
	part, ok := p.Partition(models.TypeComment)
	require.True(t, ok)
	assert.Equal(t, "comments_2024", part.Config)
	assert.Equal(t, "test", part.Split)
}

func TestResolveProfile_Unknown(t *testing.T) {
	_, err := resolveProfile(ingestConfig(t, "-profile", "nope"))
	require.Error(t, err)
}
