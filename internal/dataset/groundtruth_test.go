package dataset

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/common"
)

func TestParseGroundTruth(t *testing.T) {
	gt, err := ParseGroundTruth([]byte(`{"TOTAL":["25,51","25.51"],"total":["99,00"],"DATE":[],"VAT_10":["1,00"],"COMPANY":["PRISMA"],"address":["Kauppakatu 1"]}`))
	require.NoError(t, err)

	r := gt.Record()
	assert.Len(t, r, len(constants.AllLabels))

	total, ok := r.Value(constants.LabelTotal)
	assert.True(t, ok)
	assert.Equal(t, "25,51", total)

	company, ok := r.Value(constants.LabelCompany)
	assert.True(t, ok)
	assert.Equal(t, "PRISMA", company)

	_, ok = r.Value(constants.LabelDate)
	assert.False(t, ok)
	_, ok = r.Value(constants.LabelAddress)
	assert.False(t, ok)
}

func TestParseGroundTruth_Invalid(t *testing.T) {
	for _, doc := range []string{`{"TOTAL":"25,51"}`, `[]`, `{"TOTAL":[1]}`, `nope`} {
		_, err := ParseGroundTruth([]byte(doc))
		require.Error(t, err, doc)
		assert.True(t, errors.Is(err, common.ErrValidation), doc)
	}
}

func TestLoadGroundTruth(t *testing.T) {
	ctx := context.Background()
	s := newTestFSStore(t)
	dp := DataPoint{Dataset: "d", Split: "eval", ID: "x"}

	_, err := LoadGroundTruth(ctx, s, dp)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	require.NoError(t, s.Save(ctx, dp, constants.GroundTruthFile, []byte(`{"ADDRESS":["Mannerheimintie 5"]}`)))
	r, err := LoadGroundTruth(ctx, s, dp)
	require.NoError(t, err)
	v, ok := r.Value(constants.LabelAddress)
	assert.True(t, ok)
	assert.Equal(t, "Mannerheimintie 5", v)
}
