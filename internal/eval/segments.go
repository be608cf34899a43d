package eval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/dataset"
	"github.com/joseph-ayodele/receipts-eval/internal/layout"
	"github.com/joseph-ayodele/receipts-eval/internal/ocr"
)

// OCR is the subset of *ocr.Extractor used here.
type OCR interface {
	Segments(ctx context.Context, path string) (ocr.Result, error)
}

// SegmentSource returns a data point's stored segments, running OCR on its
// image when none are stored yet.
type SegmentSource struct {
	Store  dataset.Store
	OCR    OCR // optional; without it missing segments are an error
	Logger *slog.Logger
}

// Load returns stored segments, or OCR output saved back to the store.
func (s *SegmentSource) Load(ctx context.Context, dp dataset.DataPoint) ([]layout.Segment, error) {
	segments, err := dataset.LoadSegments(ctx, s.Store, dp)
	if err == nil {
		return segments, nil
	}
	if !errors.Is(err, common.ErrNotFound) || s.OCR == nil {
		return nil, err
	}
	return s.Extract(ctx, dp)
}

// Extract runs OCR on the data point image and stores the result.
func (s *SegmentSource) Extract(ctx context.Context, dp dataset.DataPoint) ([]layout.Segment, error) {
	if s.OCR == nil {
		return nil, common.PreconditionErrorf("no OCR extractor configured for %s", dp)
	}
	log := common.LoggerFrom(ctx, s.Logger)
	start := time.Now()

	name, err := dataset.ImageName(ctx, s.Store, dp)
	if err != nil {
		return nil, err
	}
	path, cleanup, err := s.localCopy(ctx, dp, name)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	res, err := s.OCR.Segments(ctx, path)
	if err != nil {
		log.Error("segments.ocr.failed", "data_point", dp.String(), "error", err)
		return nil, err
	}
	if err := dataset.SaveSegments(ctx, s.Store, dp, res.Segments); err != nil {
		return nil, err
	}
	log.Info("segments.ocr.ok",
		"data_point", dp.String(),
		"words", len(res.Segments),
		"dropped", res.Dropped,
		"mean_conf", res.MeanConfidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res.Segments, nil
}

// localCopy gives the OCR tool a file path regardless of the store backend.
func (s *SegmentSource) localCopy(ctx context.Context, dp dataset.DataPoint, name string) (string, func(), error) {
	if fsStore, ok := s.Store.(*dataset.FSStore); ok {
		return fsStore.LocalPath(dp, name), func() {}, nil
	}
	data, err := s.Store.Load(ctx, dp, name)
	if err != nil {
		return "", nil, err
	}
	dir, err := os.MkdirTemp("", "receipts-eval-ocr-*")
	if err != nil {
		return "", nil, common.WrapError(err, "create ocr temp dir")
	}
	cleanup := func() { _ = os.RemoveAll(dir) }
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		cleanup()
		return "", nil, common.WrapError(err, fmt.Sprintf("stage %s for ocr", name))
	}
	return path, cleanup, nil
}
