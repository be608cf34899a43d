package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/common"
)

const sampleAnnotations = `0;0.1;0.1;0.2;K;B-COMPANY
1;0.1;0.1;0.2;-;I-COMPANY
2;0.1;0.1;0.2;Supermarket;I-COMPANY
3;0.1;0.2;0.2;Kiitos;O

4;0.5;0.8;0.1;25,51;B-TOTAL
5;0.5;0.9;0.1;25,51;B-TOTAL
`

func TestAnnotationsToGroundTruth(t *testing.T) {
	gt, err := AnnotationsToGroundTruth(strings.NewReader(sampleAnnotations))
	require.NoError(t, err)
	assert.Equal(t, GroundTruth{
		"COMPANY": {"K - Supermarket"},
		"TOTAL":   {"25,51", "25,51"},
	}, gt)
}

func TestAnnotationsToGroundTruth_UnknownFormat(t *testing.T) {
	for _, doc := range []string{"0;1;2;3;text;X-TOTAL\n", "0;1;2;3;text\n", "0;1;2;3;;B-DATE\n"} {
		_, err := AnnotationsToGroundTruth(strings.NewReader(doc))
		require.Error(t, err, doc)
		assert.True(t, errors.Is(err, common.ErrInvalidInput), doc)
	}
}

func TestImporter_ImportAnnotated(t *testing.T) {
	bucket := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(bucket, "original"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(bucket, "annotated"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bucket, "original", "r1.JPG"), []byte("img1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(bucket, "original", "r2.png"), []byte("img2"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(bucket, "annotated", "r1.csv"), []byte(sampleAnnotations), 0o644))

	store := newTestFSStore(t)
	im := &Importer{Store: store, Dataset: "custom"}
	res, err := im.ImportAnnotated(context.Background(), bucket)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 1, Skipped: 1}, res)

	dp := DataPoint{Dataset: "custom", Split: constants.SplitEval, ID: "r1"}
	img, err := store.Load(context.Background(), dp, "image.jpg")
	require.NoError(t, err)
	assert.Equal(t, "img1", string(img))

	r, err := LoadGroundTruth(context.Background(), store, dp)
	require.NoError(t, err)
	v, _ := r.Value(constants.LabelCompany)
	assert.Equal(t, "K - Supermarket", v)
}

func TestImporter_TrainSplit(t *testing.T) {
	bucket := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(bucket, "original"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(bucket, "annotated"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bucket, "original", "t1.png"), []byte("img"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(bucket, "annotated", "t1.csv"), []byte(sampleAnnotations), 0o644))

	store := newTestFSStore(t)
	im := &Importer{Store: store, Dataset: "custom", IsTrain: func(string) bool { return true }}
	_, err := im.ImportAnnotated(context.Background(), bucket)
	require.NoError(t, err)

	points, err := store.List(context.Background(), "custom", constants.SplitTrain)
	require.NoError(t, err)
	assert.Len(t, points, 1)
}
