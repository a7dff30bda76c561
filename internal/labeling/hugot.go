package labeling

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

const (
	DEFAULT_DETECTOR_MODEL = "openai-community/roberta-base-openai-detector"
	DEFAULT_AI_LABEL       = "Fake"
)

type HugotConfig struct {
	// ModelPath is a local ONNX export. When it does not exist and
	// ModelName is set, the model is downloaded into ModelDir.
	ModelPath string
	ModelName string
	ModelDir  string
	// AILabel is the classifier label meaning machine generated.
	AILabel string
}

// HugotScorer runs a text classification model through onnxruntime.
type HugotScorer struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	aiLabel  string
}

func NewHugotScorer(cfg HugotConfig) (*HugotScorer, error) {
	modelPath := cfg.ModelPath
	if _, err := os.Stat(modelPath); errors.Is(err, os.ErrNotExist) && cfg.ModelName != "" {
		if err := os.MkdirAll(cfg.ModelDir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("[Labeling] creating model dir: %w", err)
		}
		slog.Info("[Labeling] Model not found, downloading...", slog.String("model", cfg.ModelName))
		modelPath, err = hugot.DownloadModel(cfg.ModelName, cfg.ModelDir, hugot.NewDownloadOptions())
		if err != nil {
			return nil, fmt.Errorf("[Labeling] downloading %s: %w", cfg.ModelName, err)
		}
		slog.Info("[Labeling] Model downloaded successfully", slog.String("path", modelPath))
	} else {
		slog.Info("[Labeling] Using existing model", slog.String("path", modelPath))
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("[Labeling] Failed to initialize Hugot session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "aiDetectorPipeline",
	})
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("[Labeling] Failed to initialize detector pipeline: %w", err)
	}

	aiLabel := cfg.AILabel
	if aiLabel == "" {
		aiLabel = DEFAULT_AI_LABEL
	}
	return &HugotScorer{session: session, pipeline: pipeline, aiLabel: aiLabel}, nil
}

func (s *HugotScorer) Score(texts []string) ([]float64, error) {
	out, err := s.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("[Labeling] running pipeline: %w", err)
	}

	scores := make([]float64, len(texts))
	for i := range texts {
		if i >= len(out.ClassificationOutputs) {
			return nil, fmt.Errorf("[Labeling] pipeline returned %d outputs for %d texts", len(out.ClassificationOutputs), len(texts))
		}
		scores[i] = aiProbability(out.ClassificationOutputs[i], s.aiLabel)
	}
	return scores, nil
}

// aiProbability reads the AI label's score. With a single-label binary
// head only the winning class is reported, so a different winner means
// the AI probability is its complement.
func aiProbability(outputs []pipelines.ClassificationOutput, aiLabel string) float64 {
	for _, o := range outputs {
		if o.Label == aiLabel {
			return float64(o.Score)
		}
	}
	if len(outputs) == 0 {
		return 0
	}
	return 1 - float64(outputs[0].Score)
}

func (s *HugotScorer) Close() error {
	return s.session.Destroy()
}
