package prompt

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/dataset"
	"github.com/joseph-ayodele/receipts-eval/internal/layout"
	"github.com/joseph-ayodele/receipts-eval/internal/score"
)

// Demonstration kinds.
const (
	DemoHard   = "hard"
	DemoFormat = "format"
)

// maxPrefixWords bounds how many words a demonstration prefix may span.
const maxPrefixWords = 12

// Demonstration selects a run of labeled words from an annotated data point.
// The run starts where the words spell Prefix (case-insensitive) and is Words long.
type Demonstration struct {
	DataPointID string
	Split       string
	Prefix      string
	Words       int
	Kind        string
}

// DefaultDemonstrations point at annotated receipts of the custom dataset.
var DefaultDemonstrations = []Demonstration{
	{DataPointID: "markusy_0aa9d69d0ef00204f79ac909e98b7d8823d1f744", Prefix: "K - Supermarket Redt", Words: 12, Kind: DemoHard},
	{DataPointID: "markusy_0aa9d69d0ef00204f79ac909e98b7d8823d1f744", Prefix: "Credit / Veloitus", Words: 8, Kind: DemoHard},
	{DataPointID: "markusy_0aa9d69d0ef00204f79ac909e98b7d8823d1f744", Prefix: "valk.40L muovika 0,22", Words: 8, Kind: DemoHard},
	{DataPointID: "reaktor_daca65db56f1bc1bb4ea39ba69efffe26073b578", Prefix: "PYORATAIKURIT www.pyorata", Words: 12, Kind: DemoFormat},
	{DataPointID: "reaktor_daca65db56f1bc1bb4ea39ba69efffe26073b578", Prefix: "laskettelu suk", Words: 8, Kind: DemoFormat},
}

// DemonstrationsFrom maps configured demonstrations.
func DemonstrationsFrom(cfg []common.DemonstrationConfig) []Demonstration {
	out := make([]Demonstration, len(cfg))
	for i, d := range cfg {
		out[i] = Demonstration{DataPointID: d.ID, Split: d.Split, Prefix: d.Prefix, Words: d.Words, Kind: d.Kind}
	}
	return out
}

// ICL labels every word of the document in a layout-aware format, primed with
// demonstrations drawn from annotated receipts.
type ICL struct {
	demos  []Demonstration
	labels []iclLabel

	hard   []string
	format []qa
}

type iclLabel struct {
	name        string
	description string
}

type qa struct {
	question string
	answer   string
}

var _ Strategy = (*ICL)(nil)

func NewICL(demos []Demonstration) *ICL {
	if len(demos) == 0 {
		demos = DefaultDemonstrations
	}
	return &ICL{
		demos: demos,
		labels: []iclLabel{
			{string(constants.LabelDate), "The date (not including time) when the purchase was made."},
			{string(constants.LabelTotal), "The total amount that was paid."},
			{string(constants.LabelCompany), "The full name, including the location shop's location, of the vendor the purchase was made from."},
			{string(constants.LabelAddress), "The address where the vendor is located at. Usually includes street, postal code and city."},
			{labelOther, "Any other text segment not assignable to other labels."},
		},
	}
}

const labelOther = "OTHER"

func (s *ICL) Name() string { return StrategyICLD3IE }

// Init loads the labeled segments of every demonstration data point.
func (s *ICL) Init(ctx context.Context, store dataset.Store, datasetName string) error {
	s.hard, s.format = nil, nil
	cache := make(map[dataset.DataPoint][]layout.Segment)
	for _, d := range s.demos {
		split := d.Split
		if split == "" {
			split = constants.SplitEval
		}
		dp := dataset.DataPoint{Dataset: datasetName, Split: split, ID: d.DataPointID}
		words, ok := cache[dp]
		if !ok {
			var err error
			words, err = dataset.LoadSegments(ctx, store, dp)
			if err != nil {
				return common.NewAppError(common.CodePrecondition, fmt.Sprintf("load demonstration %s", dp), err)
			}
			cache[dp] = words
		}
		selected := selectWords(words, d.Prefix, d.Words)
		switch d.Kind {
		case DemoHard:
			var b strings.Builder
			for _, w := range selected {
				b.WriteString(formatWithBoxAndLabel(w))
			}
			s.hard = append(s.hard, b.String())
		case DemoFormat:
			var q, a strings.Builder
			for _, w := range selected {
				q.WriteString(formatWithBox(w))
				a.WriteString(formatWithLabel(w))
			}
			s.format = append(s.format, qa{question: q.String() + ", What are the labels for these texts?", answer: a.String()})
		default:
			return common.NewAppError(common.CodePrecondition, fmt.Sprintf("unknown demonstration kind %q", d.Kind), common.ErrInvalidInput)
		}
	}
	return nil
}

func (s *ICL) Prompt(lines [][]layout.Segment) string {
	names := make([]string, len(s.labels))
	descriptions := make([]string, len(s.labels))
	for i, l := range s.labels {
		names[i] = `"` + l.name + `"`
		descriptions[i] = "- " + l.name + ": " + l.description
	}
	task := strings.Join([]string{
		`Your task is to extract information from a receipt.`,
		`You will be given a list of words and their x- and y-coordinates (within 0-1000), and you should label each word.`,
		fmt.Sprintf(`There are %d labels for selection: %s.`, len(s.labels), strings.Join(names, ", ")),
	}, " ")

	hard := make([]string, len(s.hard))
	for i, h := range s.hard {
		hard[i] = "Context: " + h
	}
	format := make([]string, len(s.format))
	for i, f := range s.format {
		format[i] = "Q: " + f.question + "\nA: " + f.answer
	}

	words := flatten(lines)
	query := make([]string, len(words))
	for i, w := range words {
		query[i] = formatWithBox(w)
	}

	return strings.Join([]string{
		task + "\n\n" + strings.Join(descriptions, "\n"),
		strings.Join(hard, "\n\n"),
		strings.Join(format, "\n\n"),
		"Q: " + strings.Join(query, ",") + ", What are the labels for these texts?",
	}, "\n\n")
}

var (
	wordBlock = regexp.MustCompile(`\{(.+?)\}`)
	textLabel = regexp.MustCompile(`txt:"(.+?)",label:"(.+?)"`)
)

// ParseCompletion collects every {txt:"..",label:".."} item. Words sharing a
// label are joined with a space in completion order; OTHER is dropped.
func (s *ICL) ParseCompletion(completion string) score.Record {
	out := score.Record{}
	for _, m := range wordBlock.FindAllStringSubmatch(completion, -1) {
		tl := textLabel.FindStringSubmatch(m[1])
		if tl == nil || tl[1] == "" || tl[2] == "" || tl[2] == labelOther {
			continue
		}
		label, ok := constants.ParseLabel(tl[2])
		if !ok {
			continue
		}
		if prev, ok := out.Value(label); ok {
			out.Set(label, prev+" "+tl[1])
			continue
		}
		out.Set(label, tl[1])
	}
	return out
}

// selectWords returns every run of n words whose leading words spell prefix.
func selectWords(words []layout.Segment, prefix string, n int) []layout.Segment {
	want := strings.ToLower(prefix)
	var out []layout.Segment
	for start := range words {
		for length := 1; length < maxPrefixWords; length++ {
			slice := strings.ToLower(strings.Join(layout.Texts(words[start:min(start+length, len(words))]), " "))
			if !strings.HasPrefix(want, slice) {
				break
			}
			if slice == want {
				out = append(out, words[start:min(start+n, len(words))]...)
				break
			}
		}
	}
	return out
}

func coord(v float64) int {
	return int(math.Floor(v*1000 + 0.5))
}

func formatWithBox(w layout.Segment) string {
	return fmt.Sprintf(`{txt:"%s",box:[%d,%d]}`, w.Text, coord(w.X), coord(w.Y))
}

func formatWithBoxAndLabel(w layout.Segment) string {
	return fmt.Sprintf(`{txt:"%s",box:[%d,%d],label:"%s"}`, w.Text, coord(w.X), coord(w.Y), w.Label)
}

func formatWithLabel(w layout.Segment) string {
	return fmt.Sprintf(`{txt:"%s",label:"%s"}`, w.Text, w.Label)
}
