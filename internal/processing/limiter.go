package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spacesedan/redditcanon/internal/filter"
	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/spacesedan/redditcanon/internal/streams"
)

// Recorder receives per-record outcomes. monitoring.Metrics implements it.
type Recorder interface {
	Pulled(category string)
	Accepted(category string)
	Rejected(category, reason string)
	Duplicates(category string, n int)
}

type nopRecorder struct{}

func (nopRecorder) Pulled(string)           {}
func (nopRecorder) Accepted(string)         {}
func (nopRecorder) Rejected(string, string) {}
func (nopRecorder) Duplicates(string, int)  {}

type CategoryStats struct {
	Category   models.Type
	Pulled     int
	Accepted   int
	Duplicates int
	// Skipped counts records an earlier run already exported.
	Skipped  int
	Rejected map[filter.Reason]int
	// Truncated is set when the stream failed after records were pulled.
	Truncated bool
}

func newCategoryStats(category models.Type) *CategoryStats {
	return &CategoryStats{Category: category, Rejected: make(map[filter.Reason]int)}
}

func (s *CategoryStats) RejectedTotal() int {
	total := 0
	for _, n := range s.Rejected {
		total += n
	}
	return total
}

// BuildFunc normalizes, classifies and filters one raw record.
type BuildFunc func(models.RawRecord) (*models.CanonicalRecord, filter.Reason)

// Limiter pulls from a stream until it is exhausted or Max records have
// been accepted, whichever comes first.
type Limiter struct {
	Max      int
	Recorder Recorder
}

// Drain consumes s in arrival order. A stream error before the first pull
// is returned; a later one truncates the category and is only logged.
func (l Limiter) Drain(ctx context.Context, s streams.Stream, build BuildFunc, stats *CategoryStats) ([]models.CanonicalRecord, error) {
	rec := l.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	category := string(stats.Category)

	var accepted []models.CanonicalRecord
	for len(accepted) < l.Max {
		raw, err := s.Next(ctx)
		if errors.Is(err, streams.ErrExhausted) {
			break
		}
		if err != nil {
			if stats.Pulled == 0 {
				return nil, fmt.Errorf("[Limiter] stream for %s failed before any record: %w", category, err)
			}
			slog.Error("[Limiter] Stream failed mid-run, keeping what was accepted",
				slog.String("category", category),
				slog.Int("pulled", stats.Pulled),
				slog.Int("accepted", len(accepted)),
				slog.String("error", err.Error()))
			stats.Truncated = true
			break
		}

		stats.Pulled++
		rec.Pulled(category)

		out, reason := build(raw)
		if reason != filter.Accepted {
			stats.Rejected[reason]++
			rec.Rejected(category, string(reason))
			continue
		}
		accepted = append(accepted, *out)
		stats.Accepted++
		rec.Accepted(category)
	}

	if len(accepted) >= l.Max {
		slog.Info("[Limiter] Category cap reached",
			slog.String("category", category),
			slog.Int("max", l.Max),
			slog.Int("pulled", stats.Pulled))
	}
	return accepted, nil
}
