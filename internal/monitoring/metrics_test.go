package monitoring

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()
	m.Pulled("comment")
	m.Pulled("comment")
	m.Accepted("comment")
	m.Rejected("comment", "short_body")
	m.Duplicates("post", 3)
	m.TableRows("x_all", 42)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.records.WithLabelValues("comment", "pulled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.records.WithLabelValues("comment", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("comment", "short_body")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.duplicates.WithLabelValues("post")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.rows.WithLabelValues("x_all")))
}

func TestMetrics_Push(t *testing.T) {
	var path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMetrics()
	m.Accepted("post")
	m.RunDuration(2 * time.Second)

	require.NoError(t, m.Push(context.Background(), srv.URL, "", "pushshift-reddit"))
	assert.Equal(t, "/metrics/job/redditcanon_ingest/source/pushshift-reddit", path)
	assert.NotEmpty(t, body)
}

func TestMetrics_PushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewMetrics().Push(context.Background(), srv.URL, "job", "src")
	require.Error(t, err)
}
