package ocr

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
)

type stubRunner struct {
	calls  [][]string
	stdout []byte
	stderr []byte
	err    error
	// onRun lets a test create converter output files.
	onRun func(name string, args []string)
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	if s.onRun != nil {
		s.onRun(name, args)
	}
	return s.stdout, s.stderr, s.err
}

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t1000\t2000\t-1\t\n" +
	"2\t1\t1\t0\t0\t0\t100\t200\t500\t40\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t100\t200\t200\t40\t96.5\tPRISMA\n" +
	"5\t1\t1\t1\t1\t2\t350\t200\t250\t40\t91.5\tHERTTONIEMI\n" +
	"5\t1\t1\t1\t1\t3\t650\t200\t20\t40\t12.0\t~\n" +
	"5\t1\t1\t1\t1\t4\t700\t200\t20\t40\t95.0\t \n"

func TestParseTSV(t *testing.T) {
	res, err := parseTSV([]byte(sampleTSV), 60)
	require.NoError(t, err)
	require.Len(t, res.Segments, 2)
	assert.Equal(t, 1, res.Dropped)

	s := res.Segments[0]
	assert.Equal(t, "PRISMA", s.Text)
	assert.InDelta(t, 0.1, s.X, 1e-9)
	assert.InDelta(t, 0.1, s.Y, 1e-9)
	assert.InDelta(t, 0.2, s.Width, 1e-9)
	assert.InDelta(t, 0.02, s.Height, 1e-9)
	assert.InDelta(t, 0.94, res.MeanConfidence, 1e-9)
}

func TestParseTSV_WordBeforePage(t *testing.T) {
	tsv := "header\n5\t1\t1\t1\t1\t1\t100\t200\t200\t40\t96.5\tPRISMA\n"
	_, err := parseTSV([]byte(tsv), 0)
	assert.Error(t, err)
}

func TestExtractor_Segments(t *testing.T) {
	r := &stubRunner{stdout: []byte(sampleTSV)}
	e := newExtractor(Config{TesseractLang: "fin", PSM: 6, TessdataDir: "/td", MinConfidence: 60}, r, nil)

	res, err := e.Segments(context.Background(), "/data/x/image.jpg")
	require.NoError(t, err)
	assert.Len(t, res.Segments, 2)

	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"tesseract", "/data/x/image.jpg", "stdout", "-l", "fin", "--psm", "6", "--tessdata-dir", "/td", "tsv"}, r.calls[0])
}

func TestExtractor_Errors(t *testing.T) {
	t.Run("unsupported extension", func(t *testing.T) {
		e := newExtractor(Config{}, &stubRunner{}, nil)
		_, err := e.Segments(context.Background(), "receipt.pdf")
		assert.True(t, errors.Is(err, common.ErrInvalidInput))
	})

	t.Run("tesseract failure", func(t *testing.T) {
		r := &stubRunner{err: errors.New("exit status 1"), stderr: []byte("Error opening data file")}
		e := newExtractor(Config{}, r, nil)
		_, err := e.Segments(context.Background(), "image.png")
		require.Error(t, err)
		assert.Equal(t, common.CodeOCR, common.CodeOf(err))
		assert.Contains(t, err.Error(), "Error opening data file")
	})
}

func TestExtractor_HEIC(t *testing.T) {
	r := &stubRunner{stdout: []byte(sampleTSV)}
	r.onRun = func(name string, args []string) {
		if name == "magick" {
			require.NoError(t, os.WriteFile(args[len(args)-1], []byte("png"), 0o644))
		}
	}
	e := newExtractor(Config{HeicConverter: "magick"}, r, nil)

	_, err := e.Segments(context.Background(), "image.heic")
	require.NoError(t, err)
	require.Len(t, r.calls, 2)
	assert.Equal(t, "magick", r.calls[0][0])
	assert.True(t, strings.HasSuffix(r.calls[1][1], "page.png"))
}

func TestExtractor_HEICUnknownConverter(t *testing.T) {
	e := newExtractor(Config{HeicConverter: "paint"}, &stubRunner{}, nil)
	_, err := e.Segments(context.Background(), "image.heic")
	assert.ErrorContains(t, err, "HEIC not supported")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...(truncated)", truncate("abcdef", 2))
}

func TestNormalizeWord(t *testing.T) {
	cases := map[string]string{
		" PRISMA ": "PRISMA",
		"12,50 ":   "12,50",
		"K\t-":     "K -",
		"-----":    "",
		"____":     "",
		"...":      "",
		"--":       "--",
		"1.5":      "1.5",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeWord(in), in)
	}
}
