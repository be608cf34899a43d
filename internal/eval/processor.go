// Package eval runs a prompt strategy over dataset documents and scores the
// predictions against their ground truth.
package eval

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/dataset"
	"github.com/joseph-ayodele/receipts-eval/internal/layout"
	"github.com/joseph-ayodele/receipts-eval/internal/llm"
	"github.com/joseph-ayodele/receipts-eval/internal/prompt"
	"github.com/joseph-ayodele/receipts-eval/internal/score"
)

// Prediction is one document's parsed completion next to its ground truth.
// Err is set when the document could not be processed; such predictions are
// reported as failures and left out of the scores.
type Prediction struct {
	DataPoint  dataset.DataPoint
	Predicted  score.Record
	Target     score.Record
	Completion string
	Words      int
	Duration   time.Duration
	Err        error
}

// Processor coordinates segments -> reading lines -> prompt -> completion -> parse.
type Processor struct {
	segments  *SegmentSource
	strategy  prompt.Strategy
	completer llm.Completer
	logger    *slog.Logger
}

func NewProcessor(segments *SegmentSource, strategy prompt.Strategy, completer llm.Completer, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		segments:  segments,
		strategy:  strategy,
		completer: completer,
		logger:    logger,
	}
}

// Process predicts the labels of one data point and loads its ground truth.
func (p *Processor) Process(ctx context.Context, dp dataset.DataPoint) (Prediction, error) {
	start := time.Now()
	ctx = common.WithDocumentID(ctx, dp.ID)
	log := common.LoggerFrom(ctx, p.logger)

	target, err := dataset.LoadGroundTruth(ctx, p.segments.Store, dp)
	if err != nil {
		return Prediction{}, err
	}

	segments, err := p.segments.Load(ctx, dp)
	if err != nil {
		return Prediction{}, err
	}
	lines := layout.ReadingLines(segments)
	log.Debug("processor.prompt.start", "strategy", p.strategy.Name(), "words", len(segments), "lines", len(lines))

	completion, err := p.completer.Complete(ctx, p.strategy.Prompt(lines))
	if err != nil {
		log.Error("processor.complete.failed", "error", err)
		return Prediction{}, err
	}
	predicted := p.strategy.ParseCompletion(completion)
	if len(predicted) == 0 {
		log.Warn("processor.parse.empty", "completion_len", len(completion))
	}

	pred := Prediction{
		DataPoint:  dp,
		Predicted:  predicted,
		Target:     target,
		Completion: completion,
		Words:      len(segments),
		Duration:   time.Since(start),
	}
	log.Debug("processor.ok", "elapsed_ms", pred.Duration.Milliseconds())
	return pred, nil
}
