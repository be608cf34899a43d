package llm

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
)

type rateLimited struct {
	next    Completer
	limiter *rate.Limiter
}

// WithRateLimit paces calls to next across goroutines. A non-positive rps
// returns next unchanged.
func WithRateLimit(next Completer, rps float64, burst int) Completer {
	if rps <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *rateLimited) Complete(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", common.NewAppError(common.CodeCompletion, "rate limiter", err)
	}
	return r.next.Complete(ctx, prompt)
}
