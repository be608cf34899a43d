package dataset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/layout"
)

// LoadSegments reads the data point's OCR segments.
func LoadSegments(ctx context.Context, s Store, dp DataPoint) ([]layout.Segment, error) {
	data, err := s.Load(ctx, dp, constants.SegmentsFile)
	if err != nil {
		return nil, err
	}
	var segments []layout.Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, common.NewAppError(common.CodeDataset, fmt.Sprintf("decode segments of %s", dp), err)
	}
	return segments, nil
}

// SaveSegments stores OCR segments for the data point.
func SaveSegments(ctx context.Context, s Store, dp DataPoint, segments []layout.Segment) error {
	if segments == nil {
		segments = []layout.Segment{}
	}
	data, err := json.Marshal(segments)
	if err != nil {
		return common.WrapError(err, "encode segments")
	}
	return s.Save(ctx, dp, constants.SegmentsFile, data)
}
