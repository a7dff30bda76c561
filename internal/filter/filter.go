// Package filter decides whether a normalized record is kept.
package filter

import (
	"unicode/utf8"

	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/spacesedan/redditcanon/internal/normalize"
)

// Reason explains a rejection. The empty Reason means accepted.
type Reason string

const (
	Accepted           Reason = ""
	ReasonUnclassified Reason = "unclassified"
	ReasonWrongType    Reason = "wrong_type"
	ReasonMissingID    Reason = "missing_id"
	ReasonRemoved      Reason = "removed"
	ReasonShortBody    Reason = "short_body"
	ReasonShortText    Reason = "short_selftext"
	ReasonMissingTitle Reason = "missing_title"
	ReasonShortTitle   Reason = "short_title"
	ReasonMissingURL   Reason = "missing_url"
	ReasonMissingDom   Reason = "missing_domain"
	ReasonUnknownKind  Reason = "unknown_kind"
)

type Rules struct {
	MinCommentBody   int
	MinSelftext      int
	MinExternalTitle int
}

func DefaultRules() Rules {
	return Rules{
		MinCommentBody:   20,
		MinSelftext:      20,
		MinExternalTitle: 5,
	}
}

type Engine struct {
	rules Rules
}

func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

// Check applies the rules for rec.Kind. Text fields must already be
// cleaned; lengths are counted in characters.
func (e *Engine) Check(rec *models.CanonicalRecord) Reason {
	if rec.ID == "" {
		return ReasonMissingID
	}

	switch rec.Kind {
	case models.KindComment:
		body := deref(rec.Body)
		if normalize.IsRemoved(body) {
			return ReasonRemoved
		}
		if length(body) < e.rules.MinCommentBody {
			return ReasonShortBody
		}
	case models.KindPostInternal:
		title, selftext := deref(rec.Title), deref(rec.Selftext)
		if title == "" {
			return ReasonMissingTitle
		}
		if length(selftext) < e.rules.MinSelftext {
			return ReasonShortText
		}
		if normalize.IsRemoved(title) || normalize.IsRemoved(selftext) {
			return ReasonRemoved
		}
	case models.KindPostExternal:
		title := deref(rec.Title)
		if length(title) < e.rules.MinExternalTitle {
			return ReasonShortTitle
		}
		if deref(rec.URL) == "" {
			return ReasonMissingURL
		}
		if deref(rec.Domain) == "" {
			return ReasonMissingDom
		}
		if normalize.IsRemoved(title) {
			return ReasonRemoved
		}
	default:
		return ReasonUnknownKind
	}
	return Accepted
}

func length(s string) int { return utf8.RuneCountInString(s) }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
