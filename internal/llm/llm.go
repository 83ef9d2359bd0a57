package llm

import (
	"context"
	"fmt"
)

// Request is a single multimodal call: one inline image plus the instruction text.
type Request struct {
	Prompt   string
	Image    []byte
	MIMEType string
}

// TokenUsage contains token usage and cost information.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Response is the full text produced by the model for a Request.
// Streamed responses are already concatenated in arrival order.
type Response struct {
	Text  string
	Model string
	Usage TokenUsage
}

// Generator sends a Request to a generative model and returns its text.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// APIError is a non-success answer from the model endpoint, normalised across transports.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model api error %d (%s): %s", e.StatusCode, e.Status, e.Message)
}

func calculateGeminiCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}
