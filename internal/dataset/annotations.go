package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/common"
)

const (
	annotationTextColumn  = 4
	annotationLabelColumn = 5
)

// AnnotationsToGroundTruth converts a ';' separated BIO annotation export into
// ground truth. B-<LABEL> starts a new value, I-<LABEL> continues the last one
// and O rows are skipped.
func AnnotationsToGroundTruth(r io.Reader) (GroundTruth, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := GroundTruth{}
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, common.NewAppError(common.CodeDataset, "read annotations", err)
		}
		if len(row) == 0 {
			continue
		}

		var text, bio string
		if len(row) > annotationLabelColumn {
			text, bio = row[annotationTextColumn], row[annotationLabelColumn]
		}
		tag, label, _ := strings.Cut(bio, "-")
		if tag == "O" {
			continue
		}
		if text == "" || label == "" || (tag != "B" && tag != "I") {
			return nil, common.NewAppError(common.CodeDataset,
				fmt.Sprintf("annotation row %d is not of a known format", line), common.ErrInvalidInput)
		}

		values := result[label]
		if tag == "I" && len(values) > 0 {
			values[len(values)-1] += " " + text
			continue
		}
		result[label] = append(values, text)
	}
	return result, nil
}

// ImportResult summarizes an ImportAnnotated run.
type ImportResult struct {
	Imported int
	Skipped  int
}

// Importer copies an annotation bucket into a dataset. The bucket holds
// original/<id>.<ext> images and annotated/<id>.csv annotations.
type Importer struct {
	Store   Store
	Dataset string
	// IsTrain routes a data point to the train split. nil sends every point to eval.
	IsTrain func(id string) bool
	Logger  *slog.Logger
}

// ImportAnnotated imports every image that has an annotation file.
func (im *Importer) ImportAnnotated(ctx context.Context, bucketDir string) (ImportResult, error) {
	logger := im.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var res ImportResult

	entries, err := os.ReadDir(filepath.Join(bucketDir, "original"))
	if err != nil {
		return res, common.NewAppError(common.CodeDataset, "read original images", err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !e.Type().IsRegular() {
			continue
		}
		ext := filepath.Ext(e.Name())
		id := strings.TrimSuffix(e.Name(), ext)
		if id == "" {
			return res, common.NewAppError(common.CodeDataset, fmt.Sprintf("cannot parse id of %q", e.Name()), common.ErrInvalidInput)
		}

		annotations, err := os.ReadFile(filepath.Join(bucketDir, "annotated", id+".csv"))
		if errors.Is(err, os.ErrNotExist) {
			res.Skipped++
			logger.Debug("import.skip.unannotated", "id", id)
			continue
		}
		if err != nil {
			return res, common.WrapError(err, "read annotations")
		}

		gt, err := AnnotationsToGroundTruth(bytes.NewReader(annotations))
		if err != nil {
			return res, fmt.Errorf("%s: %w", id, err)
		}
		gtJSON, err := json.Marshal(gt)
		if err != nil {
			return res, common.WrapError(err, "encode ground truth")
		}
		image, err := os.ReadFile(filepath.Join(bucketDir, "original", e.Name()))
		if err != nil {
			return res, common.WrapError(err, "read image")
		}

		split := constants.SplitEval
		if im.IsTrain != nil && im.IsTrain(id) {
			split = constants.SplitTrain
		}
		dp := DataPoint{Dataset: im.Dataset, Split: split, ID: id}
		if err := im.Store.Save(ctx, dp, constants.ImageFileStem+strings.ToLower(ext), image); err != nil {
			return res, err
		}
		if err := im.Store.Save(ctx, dp, constants.GroundTruthFile, gtJSON); err != nil {
			return res, err
		}
		res.Imported++
		logger.Info("import.ok", "data_point", dp.String(), "labels", len(gt))
	}
	return res, nil
}
