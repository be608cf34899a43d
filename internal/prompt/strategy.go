// Package prompt turns reading-ordered OCR lines into completion prompts and
// parses the completions back into label records.
package prompt

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/dataset"
	"github.com/joseph-ayodele/receipts-eval/internal/layout"
	"github.com/joseph-ayodele/receipts-eval/internal/score"
)

// Strategy builds prompts for one document and parses the model's answer.
type Strategy interface {
	Name() string
	// Init prepares anything the strategy needs from the dataset before the
	// first Prompt call.
	Init(ctx context.Context, store dataset.Store, datasetName string) error
	Prompt(lines [][]layout.Segment) string
	// ParseCompletion never fails; an unusable completion yields an empty record.
	ParseCompletion(completion string) score.Record
}

const (
	StrategySimple  = "simple"
	StrategyICLD3IE = "icl-d3ie"
)

var builders = map[string]func(demos []Demonstration) Strategy{
	StrategySimple:  func([]Demonstration) Strategy { return NewSimple() },
	StrategyICLD3IE: func(demos []Demonstration) Strategy { return NewICL(demos) },
}

// Names lists the registered strategy names.
func Names() []string {
	out := make([]string, 0, len(builders))
	for name := range builders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New returns the strategy registered under name.
func New(name string, demos []Demonstration) (Strategy, error) {
	build, ok := builders[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, common.NewAppError(common.CodePrecondition,
			fmt.Sprintf("unknown prompt strategy %q (want one of %s)", name, strings.Join(Names(), ", ")),
			common.ErrInvalidInput)
	}
	return build(demos), nil
}

func flatten(lines [][]layout.Segment) []layout.Segment {
	var out []layout.Segment
	for _, line := range lines {
		out = append(out, line...)
	}
	return out
}
