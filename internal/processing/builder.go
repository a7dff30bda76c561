package processing

import (
	"github.com/spacesedan/redditcanon/internal/classify"
	"github.com/spacesedan/redditcanon/internal/filter"
	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/spacesedan/redditcanon/internal/normalize"
	"github.com/spacesedan/redditcanon/internal/sources"
)

// Builder turns raw records of one partition into canonical records and
// runs them through the filter.
type Builder struct {
	profile    sources.Profile
	part       sources.Partition
	classifier *classify.Classifier
	engine     *filter.Engine
	toUTC      bool
}

func NewBuilder(profile sources.Profile, part sources.Partition, engine *filter.Engine, toUTC bool) *Builder {
	return &Builder{
		profile:    profile,
		part:       part,
		classifier: profile.Classifier(part),
		engine:     engine,
		toUTC:      toUTC,
	}
}

// Build returns the canonical record or the reason it was rejected.
func (b *Builder) Build(raw models.RawRecord) (*models.CanonicalRecord, filter.Reason) {
	f := b.profile.Fields

	rawType, _ := raw.Get(f.Type)
	t, _, ok := b.classifier.Classify(rawType, raw.LabelsFor(f.Type))
	if !ok {
		return nil, filter.ReasonUnclassified
	}
	if t != b.part.Category {
		return nil, filter.ReasonWrongType
	}

	rec := &models.CanonicalRecord{
		Type: t,
		ID:   b.clean(raw, f.ID),
	}
	b.provenance(raw, rec)
	b.created(raw, rec)
	if v, ok := raw.Get(f.Score); ok {
		rec.Score = normalize.Int64Ptr(v)
	}

	switch t {
	case models.TypeComment:
		rec.Kind = models.KindComment
		rec.Permalink = models.StringPtr(b.clean(raw, f.Permalink))
		rec.Body = models.StringPtr(b.clean(raw, f.Body))
		if v, ok := raw.Get(f.Sentiment); ok {
			rec.Sentiment = normalize.Float64Ptr(v)
		}
	case models.TypePost:
		domain := b.clean(raw, f.Domain)
		rec.Kind = b.profile.Router.Route(domain)
		rec.Title = models.StringPtr(b.clean(raw, f.Title))
		if v, ok := raw.Get(f.NumComments); ok {
			rec.NumComments = normalize.Int64Ptr(v)
		}
		if rec.Kind == models.KindPostInternal {
			rec.Selftext = models.StringPtr(b.clean(raw, f.Selftext))
		} else {
			rec.URL = models.StringPtr(b.clean(raw, f.URL))
			rec.Domain = models.StringPtr(domain)
		}
	default:
		return nil, filter.ReasonUnknownKind
	}

	if reason := b.engine.Check(rec); reason != filter.Accepted {
		return nil, reason
	}
	return rec, filter.Accepted
}

func (b *Builder) clean(raw models.RawRecord, field string) string {
	v, _ := raw.Get(field)
	return normalize.Clean(v)
}

func (b *Builder) created(raw models.RawRecord, rec *models.CanonicalRecord) {
	v, ok := raw.Get(b.profile.Fields.Created)
	if !ok {
		return
	}
	if b.toUTC {
		rec.CreatedUTC = normalize.ToUTC(v)
		return
	}
	rec.CreatedRaw = models.StringPtr(normalize.Stringify(v))
}

func (b *Builder) provenance(raw models.RawRecord, rec *models.CanonicalRecord) {
	p := b.profile.Provenance
	if p.Constant {
		rec.SubredditID = models.StringPtr(p.ID)
		rec.SubredditName = models.StringPtr(p.Name)
		return
	}
	if v, ok := raw.Get(p.IDField); ok {
		rec.SubredditID = models.StringPtr(normalize.Clean(v))
	}
	if v, ok := raw.Get(p.NameField); ok {
		rec.SubredditName = models.StringPtr(normalize.Clean(v))
	}
}
