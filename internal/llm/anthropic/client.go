// Package anthropic implements llm.Completer with the Anthropic messages API.
package anthropic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/llm"
)

type Client struct {
	cfg      Config
	messages anthropic.MessageService
	log      *slog.Logger
}

var _ llm.Completer = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:      cfg,
		messages: anthropic.NewMessageService(cfg.options()...),
		log:      logger,
	}
}

// Complete sends prompt as a single user turn and joins the text blocks of the reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	log := common.LoggerFrom(ctx, c.log).With("req_id", uuid.New().String())

	start := time.Now()
	log.Debug("llm.complete.start",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"prompt_len", len(prompt),
	)

	msg, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.cfg.Model),
		MaxTokens:   int64(c.cfg.MaxTokens),
		Temperature: anthropic.Float(c.cfg.Temperature),
		System:      []anthropic.TextBlockParam{{Text: llm.SystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		log.Error("llm.complete.http_error",
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError(common.CodeCompletion, "messages", fmt.Errorf("%w: %v", common.ErrUpstream, err))
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		log.Error("llm.complete.no_text",
			"stop_reason", msg.StopReason,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError(common.CodeCompletion, "no text in anthropic response", common.ErrUpstream)
	}

	content := strings.TrimSpace(b.String())
	log.Info("llm.complete.ok",
		"completion_len", len(content),
		"stop_reason", msg.StopReason,
		"output_tokens", msg.Usage.OutputTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
