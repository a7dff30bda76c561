package streams

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spacesedan/redditcanon/internal/clients"
	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/spacesedan/redditcanon/internal/sources"
)

// RowsFetcher is the part of the Hugging Face client a DatasetStream uses.
type RowsFetcher interface {
	Configs(ctx context.Context, dataset string) ([]string, error)
	Rows(ctx context.Context, dataset, config, split string, offset, length int) (*clients.RowsResponse, error)
}

// DatasetStream pages through one config/split of a hosted dataset.
type DatasetStream struct {
	client   RowsFetcher
	dataset  string
	part     sources.Partition
	pageSize int

	offset int
	total  int
	page   []clients.RowItem
	labels models.ClassLabels
	done   bool
}

func (s *DatasetStream) Next(ctx context.Context) (models.RawRecord, error) {
	for len(s.page) == 0 {
		if s.done {
			return models.RawRecord{}, ErrExhausted
		}
		if err := s.fetch(ctx); err != nil {
			return models.RawRecord{}, err
		}
	}

	item := s.page[0]
	s.page = s.page[1:]
	return models.RawRecord{
		Source:    s.dataset,
		Partition: s.part.Name,
		Fields:    item.Row,
		Labels:    s.labels,
	}, nil
}

func (s *DatasetStream) fetch(ctx context.Context) error {
	resp, err := s.client.Rows(ctx, s.dataset, s.part.Config, s.part.Split, s.offset, s.pageSize)
	if err != nil {
		return fmt.Errorf("[DatasetStream] failed to fetch rows at offset %d: %w", s.offset, err)
	}

	if labels := resp.ClassLabels(); len(labels) > 0 {
		s.labels = labels
	}
	s.total = resp.NumRowsTotal
	s.page = resp.Rows
	s.offset += len(resp.Rows)

	if len(resp.Rows) == 0 || (s.total > 0 && s.offset >= s.total) {
		s.done = true
	}

	slog.Debug("[DatasetStream] Fetched page",
		slog.String("config", s.part.Config),
		slog.Int("rows", len(resp.Rows)),
		slog.Int("offset", s.offset),
		slog.Int("total", s.total))
	return nil
}

func (s *DatasetStream) Close() error { return nil }

// DatasetOpener opens DatasetStreams and warns about configs the server
// does not list.
type DatasetOpener struct {
	Client   RowsFetcher
	PageSize int
}

func (o DatasetOpener) Open(ctx context.Context, dataset string, part sources.Partition) (Stream, error) {
	configs, err := o.Client.Configs(ctx, dataset)
	switch {
	case err != nil:
		slog.Warn("[DatasetOpener] Could not list dataset configs, using requested name",
			slog.String("dataset", dataset),
			slog.String("config", part.Config),
			slog.String("error", err.Error()))
	case !slices.Contains(configs, part.Config):
		slog.Warn("[DatasetOpener] Requested config not listed by source, using it as given",
			slog.String("dataset", dataset),
			slog.String("config", part.Config),
			slog.Any("available", configs))
	}

	pageSize := o.PageSize
	if pageSize <= 0 || pageSize > clients.HF_MAX_PAGE_LENGTH {
		pageSize = clients.HF_MAX_PAGE_LENGTH
	}

	s := &DatasetStream{
		client:   o.Client,
		dataset:  dataset,
		part:     part,
		pageSize: pageSize,
	}
	// Fetch the first page eagerly so an unreachable source fails here.
	if err := s.fetch(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
