// Package labeling scores unified rows for machine-generated text and adds
// ai_prob and ai_label columns.
package labeling

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/spacesedan/redditcanon/internal/table"
	"github.com/spacesedan/redditcanon/internal/utils"
)

const (
	ColAIProb  = "ai_prob"
	ColAILabel = "ai_label"

	LabelAI      = "ai"
	LabelHuman   = "human"
	LabelUnknown = "unknown"

	DEFAULT_MIN_CHARS = 200
	DEFAULT_THRESHOLD = 0.5
)

// Scorer returns, for each text, the probability that it was generated.
type Scorer interface {
	Score(texts []string) ([]float64, error)
}

type Options struct {
	// Texts shorter than MinChars runes are not scored and get LabelUnknown.
	MinChars  int
	Threshold float64
	BatchSize int
}

func DefaultOptions() Options {
	return Options{
		MinChars:  DEFAULT_MIN_CHARS,
		Threshold: DEFAULT_THRESHOLD,
		BatchSize: utils.SCORE_BATCH_SIZE,
	}
}

// BuildText returns the text scored for a row: the body of a comment, or
// the title and selftext of a post separated by a blank line.
func BuildText(t *table.Table, row int) string {
	str := func(col string) string {
		s, _ := t.Value(row, col).(string)
		return s
	}

	if strings.EqualFold(str(table.ColType), string(models.TypeComment)) {
		return str(table.ColBody)
	}
	title, selftext := str(table.ColTitle), str(table.ColSelftext)
	if selftext == "" {
		return strings.TrimSpace(title)
	}
	return strings.TrimSpace(title + "\n\n" + selftext)
}

// Annotate returns a copy of t named name with ai_prob and ai_label
// appended. t itself is left untouched.
func Annotate(t *table.Table, name string, scorer Scorer, opts Options) (*table.Table, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = utils.SCORE_BATCH_SIZE
	}

	var eligible []int
	texts := make([]string, t.Len())
	for i := range texts {
		texts[i] = BuildText(t, i)
		if utf8.RuneCountInString(texts[i]) >= opts.MinChars {
			eligible = append(eligible, i)
		}
	}

	probs := make(map[int]float64, len(eligible))
	for n, batch := range utils.Batches(eligible, opts.BatchSize) {
		input := make([]string, len(batch))
		for j, row := range batch {
			input[j] = texts[row]
		}
		scores, err := scorer.Score(input)
		if err != nil {
			return nil, fmt.Errorf("[Labeling] scoring batch %d: %w", n, err)
		}
		if len(scores) != len(batch) {
			return nil, fmt.Errorf("[Labeling] scorer returned %d scores for %d texts", len(scores), len(batch))
		}
		for j, row := range batch {
			probs[row] = scores[j]
		}
		if n%20 == 0 {
			slog.Debug("[Labeling] Progress", slog.Int("scored", len(probs)), slog.Int("eligible", len(eligible)))
		}
	}

	cols := []table.Column{
		table.NewColumn(ColAIProb, table.Float64),
		table.NewColumn(ColAILabel, table.String),
	}
	out := t.Extend(name, cols, func(row int) []any {
		p, ok := probs[row]
		if !ok {
			return []any{nil, LabelUnknown}
		}
		if p >= opts.Threshold {
			return []any{p, LabelAI}
		}
		return []any{p, LabelHuman}
	})

	slog.Info("[Labeling] Annotated table",
		slog.String("table", name),
		slog.Int("rows", t.Len()),
		slog.Int("scored", len(probs)))
	return out, nil
}

// Counts tallies ai_label values of an annotated table.
func Counts(t *table.Table) map[string]int {
	out := make(map[string]int)
	for i := 0; i < t.Len(); i++ {
		if label, ok := t.Value(i, ColAILabel).(string); ok {
			out[label]++
		}
	}
	return out
}
