package streams

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/spacesedan/redditcanon/internal/sources"
)

var rowDecoder = jsoniter.Config{
	EscapeHTML: true,
	UseNumber:  true,
}.Froze()

const maxLineBytes = 16 * 1024 * 1024

// JSONLStream reads one JSON object per line. Lines that are not objects
// are skipped with a warning.
type JSONLStream struct {
	source  string
	part    string
	closer  io.Closer
	scanner *bufio.Scanner
	labels  models.ClassLabels
	line    int
}

func NewJSONLStream(r io.Reader, source, partition string, labels models.ClassLabels) *JSONLStream {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	s := &JSONLStream{source: source, part: partition, scanner: sc, labels: labels}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

func (s *JSONLStream) Next(ctx context.Context) (models.RawRecord, error) {
	for {
		if err := ctx.Err(); err != nil {
			return models.RawRecord{}, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return models.RawRecord{}, fmt.Errorf("[JSONLStream] read failed after line %d: %w", s.line, err)
			}
			return models.RawRecord{}, ErrExhausted
		}
		s.line++

		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var fields map[string]any
		if err := rowDecoder.Unmarshal(line, &fields); err != nil || fields == nil {
			slog.Warn("[JSONLStream] Skipping malformed line",
				slog.String("partition", s.part),
				slog.Int("line", s.line))
			continue
		}
		return models.RawRecord{
			Source:    s.source,
			Partition: s.part,
			Fields:    fields,
			Labels:    s.labels,
		}, nil
	}
}

func (s *JSONLStream) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// JSONLOpener reads <Dir>/<config>.jsonl, with optional label names in
// <Dir>/<config>.labels.json shaped like {"type": ["comment", "post"]}.
type JSONLOpener struct {
	Dir string
}

func (o JSONLOpener) Open(_ context.Context, dataset string, part sources.Partition) (Stream, error) {
	name := part.Config
	if name == "" {
		name = part.Name
	}

	f, err := os.Open(filepath.Join(o.Dir, name+".jsonl"))
	if err != nil {
		return nil, fmt.Errorf("[JSONLOpener] failed to open partition %s: %w", part.Name, err)
	}

	labels, err := readLabels(filepath.Join(o.Dir, name+".labels.json"))
	if err != nil {
		f.Close()
		return nil, err
	}
	return NewJSONLStream(f, dataset, part.Name, labels), nil
}

func readLabels(path string) (models.ClassLabels, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[JSONLOpener] failed to read labels: %w", err)
	}
	var labels models.ClassLabels
	if err := rowDecoder.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("[JSONLOpener] failed to decode labels %s: %w", path, err)
	}
	return labels, nil
}
