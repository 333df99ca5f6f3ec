package llm

import (
	"context"
	"errors"
)

// Generation settings are fixed at build time, not per request.
const (
	MaxCompletionTokens = 200
	Temperature         = 0.7
)

// ErrEmptyCompletion is returned when the API answers 200 with zero choices,
// a real failure mode of hosted completion endpoints.
var ErrEmptyCompletion = errors.New("completion returned no choices")

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
