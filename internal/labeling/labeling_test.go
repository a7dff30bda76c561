package labeling

import (
	"errors"
	"strings"
	"testing"

	"github.com/knights-analytics/hugot/pipelines"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/spacesedan/redditcanon/internal/table"
)

type stubScorer struct {
	scores map[string]float64
	calls  [][]string
	err    error
}

func (s *stubScorer) Score(texts []string) ([]float64, error) {
	s.calls = append(s.calls, texts)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(texts))
	for i, t := range texts {
		out[i] = s.scores[t]
	}
	return out, nil
}

func unified() *table.Table {
	schema := table.Canonical(true)
	long := strings.Repeat("word ", 50)
	comments := table.Build("x_comment", models.KindComment, schema.ForKind(models.KindComment), []models.CanonicalRecord{
		{Kind: models.KindComment, Type: models.TypeComment, ID: "c1", Body: models.StringPtr("short comment body here")},
		{Kind: models.KindComment, Type: models.TypeComment, ID: "c2", Body: models.StringPtr("generated " + long)},
	})
	posts := table.Build("x_post_internal", models.KindPostInternal, schema.ForKind(models.KindPostInternal), []models.CanonicalRecord{
		{Kind: models.KindPostInternal, Type: models.TypePost, ID: "p1", Title: models.StringPtr("Title"), Selftext: models.StringPtr(long)},
	})
	return table.Unify("x_all", comments, posts)
}

func TestBuildText(t *testing.T) {
	all := unified()

	assert.Equal(t, "short comment body here", BuildText(all, 0))
	assert.True(t, strings.HasPrefix(BuildText(all, 2), "Title\n\nword"))
}

func TestAnnotate(t *testing.T) {
	all := unified()
	before := len(all.Columns)
	scorer := &stubScorer{scores: map[string]float64{
		BuildText(all, 1): 0.91,
		BuildText(all, 2): 0.12,
	}}

	out, err := Annotate(all, "x_labeled_all", scorer, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, append(all.ColumnNames(), ColAIProb, ColAILabel), out.ColumnNames())
	assert.Nil(t, out.Value(0, ColAIProb))
	assert.Equal(t, LabelUnknown, out.Value(0, ColAILabel))
	assert.Equal(t, 0.91, out.Value(1, ColAIProb))
	assert.Equal(t, LabelAI, out.Value(1, ColAILabel))
	assert.Equal(t, LabelHuman, out.Value(2, ColAILabel))
	assert.Equal(t, map[string]int{LabelAI: 1, LabelHuman: 1, LabelUnknown: 1}, Counts(out))

	require.Len(t, scorer.calls, 1)
	assert.Len(t, scorer.calls[0], 2)
	assert.Len(t, all.Columns, before)
}

func TestAnnotate_Batches(t *testing.T) {
	scorer := &stubScorer{}
	opts := DefaultOptions()
	opts.MinChars = 1
	opts.BatchSize = 2

	_, err := Annotate(unified(), "x", scorer, opts)
	require.NoError(t, err)
	assert.Len(t, scorer.calls, 2)
}

func TestAnnotate_ScorerError(t *testing.T) {
	_, err := Annotate(unified(), "x", &stubScorer{err: errors.New("onnx")}, DefaultOptions())
	require.Error(t, err)
}

func TestAIProbability(t *testing.T) {
	assert.InDelta(t, 0.8, aiProbability([]pipelines.ClassificationOutput{{Label: "Fake", Score: 0.8}}, "Fake"), 1e-6)
	assert.InDelta(t, 0.3, aiProbability([]pipelines.ClassificationOutput{{Label: "Real", Score: 0.7}}, "Fake"), 1e-6)
	assert.Equal(t, 0.0, aiProbability(nil, "Fake"))
}
