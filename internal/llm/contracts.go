// Package llm defines the completion provider the evaluation pipeline depends on.
package llm

import "context"

// SystemPrompt frames every completion request.
const SystemPrompt = "You extract information from receipt OCR text. Answer in exactly the format the prompt asks for and add nothing else."

// Completer turns a prompt into the model's raw completion text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
