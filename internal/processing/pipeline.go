package processing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spacesedan/redditcanon/internal/filter"
	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/spacesedan/redditcanon/internal/sources"
	"github.com/spacesedan/redditcanon/internal/streams"
	"github.com/spacesedan/redditcanon/internal/table"
)

// SentimentScorer fills comment sentiment when the source has none.
type SentimentScorer interface {
	Compound(text string) float64
}

// Registry remembers which keys earlier runs already exported.
type Registry interface {
	Exported(ctx context.Context, source string, t models.Type, ids []string) (map[string]bool, error)
}

type Options struct {
	MaxPerCategory map[models.Type]int
	// ToUTC converts created_utc to a UTC timestamp; otherwise the raw
	// value is kept as text.
	ToUTC     bool
	Rules     filter.Rules
	Sentiment SentimentScorer
	Registry  Registry
	Recorder  Recorder
}

type Pipeline struct {
	profile sources.Profile
	opener  streams.Opener
	opts    Options
	engine  *filter.Engine
	schema  table.Schema
}

type Result struct {
	// Tables holds one sub-table per kind the profile can produce, in
	// concatenation order. Empty kinds still get a table.
	Tables []*table.Table
	All    *table.Table
	Stats  []*CategoryStats
}

func NewPipeline(profile sources.Profile, opener streams.Opener, opts Options) *Pipeline {
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Pipeline{
		profile: profile,
		opener:  opener,
		opts:    opts,
		engine:  filter.NewEngine(opts.Rules),
		schema:  table.Canonical(!opts.ToUTC),
	}
}

// Run drains every partition of the profile in order and returns the
// per-kind tables plus the unified table.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	byKind := make(map[models.Kind][]models.CanonicalRecord)
	res := &Result{}

	for _, part := range p.profile.Partitions {
		records, stats, err := p.drain(ctx, part)
		if err != nil {
			return nil, err
		}
		res.Stats = append(res.Stats, stats)

		for _, r := range records {
			byKind[r.Kind] = append(byKind[r.Kind], r)
		}
	}

	slug := p.profile.Slug()
	for _, kind := range p.profile.Kinds() {
		cols := p.schema.ForKind(kind)
		res.Tables = append(res.Tables, table.Build(fmt.Sprintf("%s_%s", slug, kind), kind, cols, byKind[kind]))
	}

	all, err := p.unify(slug+"_all", res.Tables)
	if err != nil {
		return nil, err
	}
	res.All = all
	return res, nil
}

func (p *Pipeline) drain(ctx context.Context, part sources.Partition) ([]models.CanonicalRecord, *CategoryStats, error) {
	stats := newCategoryStats(part.Category)
	category := string(part.Category)

	limit := p.opts.MaxPerCategory[part.Category]
	if limit <= 0 {
		slog.Warn("[Pipeline] No cap configured for category, skipping partition",
			slog.String("category", category),
			slog.String("partition", part.Name))
		return nil, stats, nil
	}

	stream, err := p.opener.Open(ctx, p.profile.Dataset, part)
	if err != nil {
		return nil, nil, fmt.Errorf("[Pipeline] opening %s/%s: %w", p.profile.Dataset, part.Config, err)
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			slog.Warn("[Pipeline] Failed to close stream",
				slog.String("partition", part.Name),
				slog.String("error", cerr.Error()))
		}
	}()

	builder := NewBuilder(p.profile, part, p.engine, p.opts.ToUTC)
	limiter := Limiter{Max: limit, Recorder: p.opts.Recorder}
	records, err := limiter.Drain(ctx, stream, p.enrich(builder.Build), stats)
	if err != nil {
		return nil, nil, fmt.Errorf("[Pipeline] draining %s/%s: %w", p.profile.Dataset, part.Config, err)
	}

	records, dups := Dedupe(records)
	stats.Duplicates = dups
	stats.Accepted -= dups
	if dups > 0 {
		p.opts.Recorder.Duplicates(category, dups)
	}

	records, skipped, err := p.skipExported(ctx, part.Category, records)
	if err != nil {
		return nil, nil, err
	}
	stats.Skipped = skipped
	stats.Accepted -= skipped

	slog.Info("[Pipeline] Partition drained",
		slog.String("partition", part.Name),
		slog.String("category", category),
		slog.Int("pulled", stats.Pulled),
		slog.Int("accepted", len(records)),
		slog.Int("rejected", stats.RejectedTotal()),
		slog.Int("duplicates", dups),
		slog.Int("skipped", skipped))
	return records, stats, nil
}

// enrich wraps build so optional fills happen before a record is accepted
// into its accumulator.
func (p *Pipeline) enrich(build BuildFunc) BuildFunc {
	if p.opts.Sentiment == nil {
		return build
	}
	return func(raw models.RawRecord) (*models.CanonicalRecord, filter.Reason) {
		rec, reason := build(raw)
		if reason != filter.Accepted {
			return rec, reason
		}
		if rec.Type == models.TypeComment && rec.Sentiment == nil && rec.Body != nil {
			score := p.opts.Sentiment.Compound(*rec.Body)
			rec.Sentiment = &score
		}
		return rec, reason
	}
}

func (p *Pipeline) skipExported(ctx context.Context, t models.Type, records []models.CanonicalRecord) ([]models.CanonicalRecord, int, error) {
	if p.opts.Registry == nil || len(records) == 0 {
		return records, 0, nil
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	seen, err := p.opts.Registry.Exported(ctx, p.profile.Slug(), t, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("[Pipeline] checking export registry: %w", err)
	}
	fresh := records[:0:0]
	for _, r := range records {
		if !seen[r.ID] {
			fresh = append(fresh, r)
		}
	}
	skipped := len(records) - len(fresh)
	if skipped > 0 {
		slog.Info("[Pipeline] Skipped records exported by earlier runs",
			slog.String("category", string(t)),
			slog.Int("skipped", skipped))
	}
	return fresh, skipped, nil
}

func (p *Pipeline) unify(name string, tables []*table.Table) (*table.Table, error) {
	all := table.Unify(name, tables...)

	if prov := p.profile.Provenance; prov.Constant {
		var err error
		if all, err = all.WithConstant(table.ColSubredditID, prov.ID); err != nil {
			return nil, fmt.Errorf("[Pipeline] applying provenance: %w", err)
		}
		if all, err = all.WithConstant(table.ColSubredditName, prov.Name); err != nil {
			return nil, fmt.Errorf("[Pipeline] applying provenance: %w", err)
		}
	}

	all, dropped := all.Distinct(table.ColType, table.ColID)
	if dropped > 0 {
		slog.Info("[Pipeline] Dropped duplicate keys across kinds", slog.Int("dropped", dropped))
	}
	return all, nil
}

// Summary returns row counts per category.
func (r *Result) Summary() map[models.Type]int {
	out := make(map[models.Type]int)
	for _, t := range r.Tables {
		out[t.Kind.Type()] += t.Len()
	}
	return out
}
