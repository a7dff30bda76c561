package streams

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spacesedan/redditcanon/internal/clients"
	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/spacesedan/redditcanon/internal/sources"
)

type ListingFetcher interface {
	Listing(ctx context.Context, subreddit, listing, after string, limit int) (*clients.Listing, error)
}

// RedditStream follows the after cursor of a subreddit listing.
type RedditStream struct {
	client    ListingFetcher
	subreddit string
	part      sources.Partition
	limit     int

	after string
	page  []clients.Thing
	done  bool
}

func (s *RedditStream) Next(ctx context.Context) (models.RawRecord, error) {
	for len(s.page) == 0 {
		if s.done {
			return models.RawRecord{}, ErrExhausted
		}
		if err := s.fetch(ctx); err != nil {
			return models.RawRecord{}, err
		}
	}

	thing := s.page[0]
	s.page = s.page[1:]

	fields := make(map[string]any, len(thing.Data)+1)
	for k, v := range thing.Data {
		fields[k] = v
	}
	fields[sources.REDDIT_KIND_FIELD] = thing.Kind
	return models.RawRecord{Source: "r/" + s.subreddit, Partition: s.part.Name, Fields: fields}, nil
}

func (s *RedditStream) fetch(ctx context.Context) error {
	listing, err := s.client.Listing(ctx, s.subreddit, s.part.Config, s.after, s.limit)
	if err != nil {
		return fmt.Errorf("[RedditStream] failed to fetch %s after %q: %w", s.part.Config, s.after, err)
	}

	s.page = listing.Data.Children
	s.after = listing.Data.After
	if len(s.page) == 0 || s.after == "" {
		s.done = true
	}

	slog.Debug("[RedditStream] Fetched page",
		slog.String("subreddit", s.subreddit),
		slog.String("listing", s.part.Config),
		slog.Int("things", len(s.page)),
		slog.String("after", s.after))
	return nil
}

func (s *RedditStream) Close() error { return nil }

// RedditOpener treats the dataset id as a subreddit ("r/datasets" or
// "datasets") and the partition config as the listing name.
type RedditOpener struct {
	Client   ListingFetcher
	PageSize int
}

func (o RedditOpener) Open(ctx context.Context, dataset string, part sources.Partition) (Stream, error) {
	subreddit := strings.TrimPrefix(strings.TrimPrefix(dataset, "/"), "r/")
	if subreddit == "" {
		return nil, fmt.Errorf("[RedditOpener] empty subreddit in %q", dataset)
	}

	s := &RedditStream{client: o.Client, subreddit: subreddit, part: part, limit: o.PageSize}
	if err := s.fetch(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
