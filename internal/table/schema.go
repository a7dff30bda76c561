// Package table holds the column-stable tables the pipeline persists.
// Tables are built once from records and never mutated afterwards.
package table

import (
	"time"

	"github.com/spacesedan/redditcanon/internal/models"
)

type ColumnType int

const (
	String ColumnType = iota
	Int64
	Float64
	Timestamp
)

func (c ColumnType) String() string {
	switch c {
	case String:
		return "string"
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case Timestamp:
		return "timestamp"
	}
	return "unknown"
}

// Column is a named, typed cell extractor. A nil cell is the null sentinel.
type Column struct {
	Name  string
	Type  ColumnType
	value func(*models.CanonicalRecord) any
}

// NewColumn declares a column whose cells are computed later, e.g. by
// labeling. Such columns cannot be built from records.
func NewColumn(name string, typ ColumnType) Column {
	return Column{Name: name, Type: typ}
}

const (
	ColKind          = "kind"
	ColType          = "type"
	ColID            = "id"
	ColSubredditID   = "subreddit_id"
	ColSubredditName = "subreddit_name"
	ColCreatedUTC    = "created_utc"
	ColScore         = "score"
	ColPermalink     = "permalink"
	ColBody          = "body"
	ColSentiment     = "sentiment"
	ColSelftext      = "selftext"
	ColTitle         = "title"
	ColURL           = "url"
	ColDomain        = "domain"
	ColNumComments   = "num_comments"
)

// GlobalOrder is the column order of every persisted table.
var GlobalOrder = []string{
	ColKind, ColType, ColID,
	ColSubredditID, ColSubredditName,
	ColCreatedUTC, ColScore, ColPermalink,
	ColBody, ColSentiment, ColSelftext, ColTitle, ColURL, ColDomain,
	ColNumComments,
}

var common = []string{ColKind, ColType, ColID, ColSubredditID, ColSubredditName, ColCreatedUTC, ColScore}

var kindColumns = map[models.Kind][]string{
	models.KindComment:      {ColPermalink, ColBody, ColSentiment},
	models.KindPostInternal: {ColSelftext, ColTitle, ColNumComments},
	models.KindPostExternal: {ColTitle, ColURL, ColDomain, ColNumComments},
}

// Schema is the full canonical column set for one run.
type Schema struct {
	columns map[string]Column
}

// Canonical returns the schema. With rawCreated the created_utc column
// carries the source value as text instead of a UTC timestamp.
func Canonical(rawCreated bool) Schema {
	created := Column{Name: ColCreatedUTC, Type: Timestamp, value: func(r *models.CanonicalRecord) any { return timeCell(r.CreatedUTC) }}
	if rawCreated {
		created = Column{Name: ColCreatedUTC, Type: String, value: func(r *models.CanonicalRecord) any { return strCell(r.CreatedRaw) }}
	}

	cols := []Column{
		{Name: ColKind, Type: String, value: func(r *models.CanonicalRecord) any { return string(r.Kind) }},
		{Name: ColType, Type: String, value: func(r *models.CanonicalRecord) any { return string(r.Type) }},
		{Name: ColID, Type: String, value: func(r *models.CanonicalRecord) any { return r.ID }},
		{Name: ColSubredditID, Type: String, value: func(r *models.CanonicalRecord) any { return strCell(r.SubredditID) }},
		{Name: ColSubredditName, Type: String, value: func(r *models.CanonicalRecord) any { return strCell(r.SubredditName) }},
		created,
		{Name: ColScore, Type: Int64, value: func(r *models.CanonicalRecord) any { return intCell(r.Score) }},
		{Name: ColPermalink, Type: String, value: func(r *models.CanonicalRecord) any { return strCell(r.Permalink) }},
		{Name: ColBody, Type: String, value: func(r *models.CanonicalRecord) any { return strCell(r.Body) }},
		{Name: ColSentiment, Type: Float64, value: func(r *models.CanonicalRecord) any { return floatCell(r.Sentiment) }},
		{Name: ColSelftext, Type: String, value: func(r *models.CanonicalRecord) any { return strCell(r.Selftext) }},
		{Name: ColTitle, Type: String, value: func(r *models.CanonicalRecord) any { return strCell(r.Title) }},
		{Name: ColURL, Type: String, value: func(r *models.CanonicalRecord) any { return strCell(r.URL) }},
		{Name: ColDomain, Type: String, value: func(r *models.CanonicalRecord) any { return strCell(r.Domain) }},
		{Name: ColNumComments, Type: Int64, value: func(r *models.CanonicalRecord) any { return intCell(r.NumComments) }},
	}

	s := Schema{columns: make(map[string]Column, len(cols))}
	for _, c := range cols {
		s.columns[c.Name] = c
	}
	return s
}

// ForKind returns the columns of the kind's sub-table in global order.
func (s Schema) ForKind(kind models.Kind) []Column {
	wanted := make(map[string]bool)
	for _, name := range common {
		wanted[name] = true
	}
	for _, name := range kindColumns[kind] {
		wanted[name] = true
	}

	cols := make([]Column, 0, len(wanted))
	for _, name := range GlobalOrder {
		if wanted[name] {
			cols = append(cols, s.columns[name])
		}
	}
	return cols
}

// All returns every canonical column in global order.
func (s Schema) All() []Column {
	cols := make([]Column, 0, len(GlobalOrder))
	for _, name := range GlobalOrder {
		cols = append(cols, s.columns[name])
	}
	return cols
}

func rank(name string) int {
	for i, n := range GlobalOrder {
		if n == name {
			return i
		}
	}
	return len(GlobalOrder)
}

func strCell(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func intCell(i *int64) any {
	if i == nil {
		return nil
	}
	return *i
}

func floatCell(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func timeCell(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
