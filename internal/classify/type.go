// Package classify resolves a record's canonical type from whatever the
// source used to encode it, and routes posts to their kind.
package classify

import (
	"strings"

	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/spacesedan/redditcanon/internal/normalize"
)

// Strategy is one step of type resolution. It either gives a definite
// answer or reports no match so the next strategy is tried.
type Strategy interface {
	Name() string
	Resolve(raw any, labels []string) (models.Type, bool)
}

// StringLabel passes string values through unchanged.
type StringLabel struct{}

func (StringLabel) Name() string { return "string" }

func (StringLabel) Resolve(raw any, _ []string) (models.Type, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	return models.Type(s), true
}

// LabelTable resolves integer codes through the label names the source
// declared for the feature.
type LabelTable struct{}

func (LabelTable) Name() string { return "label_table" }

func (LabelTable) Resolve(raw any, labels []string) (models.Type, bool) {
	if labels == nil || !normalize.IsNumeric(raw) {
		return "", false
	}
	code, ok := normalize.Int64(raw)
	if !ok || code < 0 || code >= int64(len(labels)) {
		return "", false
	}
	return models.Type(strings.TrimSpace(labels[code])), true
}

// IntConvention maps bare integer codes with a fixed table.
type IntConvention struct {
	Codes map[int64]models.Type
}

// RedditCodes is the convention used by the Reddit dumps: 0 post, 1 comment.
func RedditCodes() IntConvention {
	return IntConvention{Codes: map[int64]models.Type{
		0: models.TypePost,
		1: models.TypeComment,
	}}
}

func (IntConvention) Name() string { return "int_convention" }

func (c IntConvention) Resolve(raw any, _ []string) (models.Type, bool) {
	if !normalize.IsNumeric(raw) {
		return "", false
	}
	code, ok := normalize.Int64(raw)
	if !ok {
		return "", false
	}
	t, ok := c.Codes[code]
	return t, ok
}

// Aliases maps source-specific type strings such as "t1" or "t3".
type Aliases map[string]models.Type

func (Aliases) Name() string { return "aliases" }

func (a Aliases) Resolve(raw any, _ []string) (models.Type, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	t, ok := a[strings.TrimSpace(s)]
	return t, ok
}

// PartitionDefault assigns the partition's category to records that carry
// no type value at all.
type PartitionDefault struct {
	Type models.Type
}

func (PartitionDefault) Name() string { return "partition_default" }

func (d PartitionDefault) Resolve(raw any, _ []string) (models.Type, bool) {
	if raw != nil || d.Type == "" {
		return "", false
	}
	return d.Type, true
}

// Classifier tries its strategies in order.
type Classifier struct {
	strategies []Strategy
}

func NewClassifier(strategies ...Strategy) *Classifier {
	return &Classifier{strategies: strategies}
}

// DefaultStrategies is string, then source labels, then the given codes.
func DefaultStrategies(codes IntConvention) []Strategy {
	return []Strategy{StringLabel{}, LabelTable{}, codes}
}

// Classify returns the resolved type and the strategy that produced it.
// An unresolved value yields ok == false and must not be guessed.
func (c *Classifier) Classify(raw any, labels []string) (models.Type, string, bool) {
	for _, s := range c.strategies {
		if t, ok := s.Resolve(raw, labels); ok {
			return t, s.Name(), true
		}
	}
	return "", "", false
}
