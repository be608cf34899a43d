package ocr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/receipts-eval/internal/layout"
)

// tesseract TSV columns
const (
	colLevel = iota
	colPage
	colBlock
	colPar
	colLine
	colWord
	colLeft
	colTop
	colWidth
	colHeight
	colConf
	colText
	tsvColumns
)

const (
	levelPage = 1
	levelWord = 5
)

// parseTSV converts word rows into segments relative to the page row's size.
func parseTSV(out []byte, minConf float64) (Result, error) {
	var (
		res          Result
		pageW, pageH float64
		confSum      float64
	)
	for i, ln := range strings.Split(string(out), "\n") {
		ln = strings.TrimRight(ln, "\r")
		if i == 0 || ln == "" {
			continue
		} // skip header
		cols := strings.Split(ln, "\t")
		if len(cols) < tsvColumns-1 {
			continue
		}
		level, err := strconv.Atoi(cols[colLevel])
		if err != nil {
			return Result{}, fmt.Errorf("row %d: level: %w", i, err)
		}
		box, err := parseBox(cols)
		if err != nil {
			return Result{}, fmt.Errorf("row %d: %w", i, err)
		}

		switch level {
		case levelPage:
			pageW, pageH = box[2], box[3]
		case levelWord:
			if len(cols) < tsvColumns {
				continue
			}
			text := normalizeWord(cols[colText])
			conf, err := strconv.ParseFloat(cols[colConf], 64)
			if err != nil || text == "" || conf < 0 {
				continue
			}
			if conf < minConf {
				res.Dropped++
				continue
			}
			if pageW <= 0 || pageH <= 0 {
				return Result{}, errors.New("word row before page row")
			}
			res.Segments = append(res.Segments, layout.Segment{
				X:      box[0] / pageW,
				Y:      box[1] / pageH,
				Width:  box[2] / pageW,
				Height: box[3] / pageH,
				Text:   text,
			})
			confSum += conf
		}
	}
	if n := len(res.Segments); n > 0 {
		res.MeanConfidence = confSum / float64(n) / 100
	}
	return res, nil
}

func parseBox(cols []string) ([4]float64, error) {
	var box [4]float64
	for j, c := range []int{colLeft, colTop, colWidth, colHeight} {
		v, err := strconv.ParseFloat(cols[c], 64)
		if err != nil {
			return box, fmt.Errorf("box column %d: %w", c, err)
		}
		box[j] = v
	}
	return box, nil
}
