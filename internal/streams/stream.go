// Package streams yields raw records one at a time from an upstream
// source. Streams are pull based: nothing is fetched ahead of what the
// caller asks for beyond a single page.
package streams

import (
	"context"
	"errors"

	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/spacesedan/redditcanon/internal/sources"
)

// ErrExhausted is returned by Next once the upstream has no more records.
var ErrExhausted = errors.New("[Stream] no more records")

type Stream interface {
	Next(ctx context.Context) (models.RawRecord, error)
	Close() error
}

// Opener opens the stream behind one partition of a source.
type Opener interface {
	Open(ctx context.Context, dataset string, part sources.Partition) (Stream, error)
}

// SliceStream serves records from memory. It counts pulls so callers can
// observe early termination.
type SliceStream struct {
	records []models.RawRecord
	pos     int
	err     error
	errAt   int
}

func NewSliceStream(records []models.RawRecord) *SliceStream {
	return &SliceStream{records: records, errAt: -1}
}

// FailAt makes the stream return err once n records have been served.
func (s *SliceStream) FailAt(n int, err error) *SliceStream {
	s.errAt = n
	s.err = err
	return s
}

func (s *SliceStream) Next(ctx context.Context) (models.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.RawRecord{}, err
	}
	if s.errAt >= 0 && s.pos == s.errAt {
		return models.RawRecord{}, s.err
	}
	if s.pos >= len(s.records) {
		return models.RawRecord{}, ErrExhausted
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

// Pulled is the number of records handed out so far.
func (s *SliceStream) Pulled() int { return s.pos }

func (s *SliceStream) Close() error { return nil }

// SliceOpener serves fixed records per partition name.
type SliceOpener map[string]*SliceStream

func (o SliceOpener) Open(_ context.Context, _ string, part sources.Partition) (Stream, error) {
	s, ok := o[part.Name]
	if !ok {
		return nil, errors.New("[SliceOpener] no records for partition " + part.Name)
	}
	return s, nil
}
