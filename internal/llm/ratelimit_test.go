package llm

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
)

func TestWithRateLimit(t *testing.T) {
	var calls atomic.Int32
	next := CompleterFunc(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "ok", nil
	})

	unlimited := WithRateLimit(next, 0, 0)
	_, wrapped := unlimited.(*rateLimited)
	assert.False(t, wrapped)
	for i := 0; i < 3; i++ {
		_, err := unlimited.Complete(context.Background(), "p")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, calls.Load())
	calls.Store(0)

	c := WithRateLimit(next, 0.001, 1)
	out, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	// the single token is spent; waiting fails once the context is done
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Complete(ctx, "p")
	require.Error(t, err)
	assert.Equal(t, common.CodeCompletion, common.CodeOf(err))
	assert.EqualValues(t, 1, calls.Load())
}
