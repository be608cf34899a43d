// Package export writes evaluation reports as JSON, XLSX and console tables.
package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/eval"
)

// Exporter writes report files into a directory.
type Exporter struct {
	dir    string
	logger *slog.Logger
}

func NewExporter(dir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		dir = "evaluations"
	}
	return &Exporter{dir: dir, logger: logger}
}

// FileStem is eval-<dataset>-<strategy>-<timestamp>.
func FileStem(r eval.Report) string {
	ts := r.Meta.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return fmt.Sprintf("eval-%s-%s-%s", safe(r.Meta.Dataset), safe(r.Meta.Strategy), ts.UTC().Format("20060102T150405Z"))
}

func safe(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' || r == ':' {
			return '_'
		}
		return r
	}, s)
}

// WriteJSON stores the indented report and returns its path.
func (e *Exporter) WriteJSON(r eval.Report) (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", common.WrapError(err, "encode report")
	}
	return e.write(FileStem(r)+".json", b, "export.json.ok", r)
}

// WriteXLSX stores the report workbook and returns its path.
func (e *Exporter) WriteXLSX(r eval.Report) (string, error) {
	b, err := Workbook(r)
	if err != nil {
		return "", err
	}
	return e.write(FileStem(r)+".xlsx", b, "export.xlsx.ok", r)
}

func (e *Exporter) write(name string, data []byte, event string, r eval.Report) (string, error) {
	start := time.Now()
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", common.NewAppError(common.CodeStorage, "create output dir", err)
	}
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", common.NewAppError(common.CodeStorage, fmt.Sprintf("write %s", path), err)
	}
	e.logger.Info(event,
		"run_id", r.Meta.RunID,
		"path", path,
		"bytes", len(data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return path, nil
}
