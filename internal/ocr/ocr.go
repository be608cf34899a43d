// Package ocr turns receipt images into word segments with tesseract.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/layout"
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string
	HeicConverter string // heif-convert | magick | sips

	PSM int // page segmentation mode; 0 keeps tesseract's default
	OEM int // 1 = LSTM; leave 0 to use default

	// MinConfidence drops words whose tesseract confidence (0..100) is below it.
	MinConfidence float64
	Timeout       time.Duration
}

// ConfigFrom maps the application OCR settings.
func ConfigFrom(c common.OCRConfig) Config {
	return Config{
		Tesseract:     c.Command,
		TesseractLang: c.Language,
		TessdataDir:   c.TessdataDir,
		HeicConverter: c.HeicConverter,
		MinConfidence: c.MinConfidence,
		Timeout:       c.Timeout,
	}
}

type Result struct {
	Segments       []layout.Segment
	Dropped        int     // words under MinConfidence
	MeanConfidence float64 // over kept words, 0..1
	Duration       time.Duration
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	return newExtractor(cfg, execRunner{logger: logger}, logger)
}

func newExtractor(cfg Config, r Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	return &Extractor{cfg: cfg, runner: r, logger: logger}
}

// Segments runs OCR on one image and returns its words as page-fraction boxes.
func (e *Extractor) Segments(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	if !constants.IsImageFile(path) {
		e.logger.Error("unsupported ocr extension", "extension", ext)
		return Result{}, common.NewAppError(common.CodeOCR, fmt.Sprintf("unsupported extension: %q", ext), common.ErrInvalidInput)
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	if constants.IsHEICExt(ext) {
		out, cleanup, err := convertHEICtoPNG(ctx, e.runner, e.cfg.HeicConverter, path)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			e.logger.Error("heic conversion failed", "path", path, "error", err)
			return Result{}, common.NewAppError(common.CodeOCR, "heic conversion", err)
		}
		path = out
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.tsvArgs(path)...)
	if err != nil {
		return Result{}, common.NewAppError(common.CodeOCR, "tesseract tsv",
			fmt.Errorf("%w: %s", err, truncate(string(errb), 512)))
	}

	res, err := parseTSV(out, e.cfg.MinConfidence)
	if err != nil {
		return Result{}, common.NewAppError(common.CodeOCR, fmt.Sprintf("parse tsv of %s", path), err)
	}
	res.Duration = time.Since(start)
	e.logger.Debug("ocr.segments.ok",
		"path", path,
		"words", len(res.Segments),
		"dropped", res.Dropped,
		"mean_conf", res.MeanConfidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// tesseract <file> stdout -l <lang> [--psm N] [--oem N] [--tessdata-dir D] tsv
func (e *Extractor) tsvArgs(path string) []string {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return append(args, "tsv")
}
