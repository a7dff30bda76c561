package models

import "time"

type Kind string

const (
	KindComment      Kind = "comment"
	KindPostInternal Kind = "post_internal"
	KindPostExternal Kind = "post_external"
)

// Kinds lists every kind in the order sub-tables are concatenated.
var Kinds = []Kind{KindComment, KindPostInternal, KindPostExternal}

type Type string

const (
	TypeComment Type = "comment"
	TypePost    Type = "post"
)

func (k Kind) Type() Type {
	if k == KindComment {
		return TypeComment
	}
	return TypePost
}

// Rank is the position of the kind in Kinds, or len(Kinds) when unknown.
func (k Kind) Rank() int {
	for i, kind := range Kinds {
		if kind == k {
			return i
		}
	}
	return len(Kinds)
}

// CanonicalRecord is the normalized output unit. Nil pointers are nulls.
type CanonicalRecord struct {
	Kind Kind
	Type Type
	ID   string

	SubredditID   *string
	SubredditName *string

	// Exactly one of CreatedUTC or CreatedRaw is populated depending on
	// whether timestamp normalization is enabled for the run.
	CreatedUTC *time.Time
	CreatedRaw *string

	Score *int64

	Permalink *string
	Body      *string
	Sentiment *float64

	Selftext *string
	Title    *string

	URL    *string
	Domain *string

	NumComments *int64
}

// Key is the natural key (type, id).
func (r CanonicalRecord) Key() string {
	return string(r.Type) + ":" + r.ID
}

func StringPtr(s string) *string { return &s }
