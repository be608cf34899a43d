package dataset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/schema"
	"github.com/joseph-ayodele/receipts-eval/internal/score"
)

// GroundTruth holds every observed string per label name.
type GroundTruth map[string][]string

var groundTruthSchema = schema.MustCompile("ground-truth.json", map[string]any{
	"type": "object",
	"additionalProperties": map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	},
})

// ParseGroundTruth validates and decodes a ground-truth.json document.
func ParseGroundTruth(data []byte) (GroundTruth, error) {
	if _, err := schema.Validate(groundTruthSchema, data); err != nil {
		return nil, common.NewAppError(common.CodeDataset, "invalid ground truth", fmt.Errorf("%w: %v", common.ErrValidation, err))
	}
	var gt GroundTruth
	if err := json.Unmarshal(data, &gt); err != nil {
		return nil, common.NewAppError(common.CodeDataset, "decode ground truth", err)
	}
	return gt, nil
}

// Record keeps the first observed string of every known label. Known labels
// without observations are present with no value. Keys must match a label
// name exactly; anything else is dropped.
func (g GroundTruth) Record() score.Record {
	first := make(map[string]*string, len(g))
	for name, values := range g {
		if len(values) > 0 {
			first[name] = &values[0]
		}
	}
	return score.FromStrings(first)
}

// LoadGroundTruth reads the data point's ground-truth.json as a score.Record.
func LoadGroundTruth(ctx context.Context, s Store, dp DataPoint) (score.Record, error) {
	data, err := s.Load(ctx, dp, constants.GroundTruthFile)
	if err != nil {
		return nil, err
	}
	gt, err := ParseGroundTruth(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dp, err)
	}
	return gt.Record(), nil
}
