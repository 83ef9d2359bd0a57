package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-3-flash-preview"

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.50 // $0.50 per 1M input tokens (text/image/video)
	geminiOutputPricePerMillion = 3.00 // $3.00 per 1M output tokens (including thinking)
)

// GeminiOptions configures a GeminiGenerator.
type GeminiOptions struct {
	APIKey string
	Model  string
	// BaseURL overrides the Gemini API endpoint. Empty uses the SDK default.
	BaseURL string
	// ThinkingLevel is passed through as-is ("LOW", "HIGH"). Empty leaves it unset.
	ThinkingLevel string
	GoogleSearch  bool
	// Stream selects GenerateContentStream; fragments are joined before returning.
	Stream bool
}

// GeminiGenerator calls Gemini through the official Go SDK.
type GeminiGenerator struct {
	client *genai.Client
	opts   GeminiOptions
}

// NewGeminiGenerator creates a new Gemini-based generator.
func NewGeminiGenerator(ctx context.Context, opts GeminiOptions) (*GeminiGenerator, error) {
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, opts: opts}, nil
}

func (g *GeminiGenerator) config() *genai.GenerateContentConfig {
	var cfg genai.GenerateContentConfig
	set := false
	if g.opts.ThinkingLevel != "" {
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingLevel: genai.ThinkingLevel(strings.ToUpper(g.opts.ThinkingLevel)),
		}
		set = true
	}
	if g.opts.GoogleSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
		set = true
	}
	if !set {
		return nil
	}
	return &cfg
}

// Generate implements the Generator interface.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Image, req.MIMEType),
		genai.NewPartFromText(req.Prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	start := time.Now()
	var (
		text  string
		usage *genai.GenerateContentResponseUsageMetadata
		err   error
	)
	if g.opts.Stream {
		text, usage, err = g.stream(ctx, contents)
	} else {
		text, usage, err = g.unary(ctx, contents)
	}
	if err != nil {
		return nil, err
	}

	resp := &Response{Text: text, Model: g.opts.Model}
	if usage != nil {
		resp.Usage.InputTokens = int64(usage.PromptTokenCount)
		resp.Usage.OutputTokens = int64(usage.CandidatesTokenCount)
		resp.Usage.TotalTokens = int64(usage.TotalTokenCount)
		resp.Usage.CostUSD = calculateGeminiCost(resp.Usage.InputTokens, resp.Usage.OutputTokens,
			geminiInputPricePerMillion, geminiOutputPricePerMillion)
	}

	log.Info().
		Str("model", g.opts.Model).
		Bool("stream", g.opts.Stream).
		Int64("inputTokens", resp.Usage.InputTokens).
		Int64("outputTokens", resp.Usage.OutputTokens).
		Float64("costUSD", resp.Usage.CostUSD).
		Dur("elapsed", time.Since(start)).
		Msg("vision llm call")

	return resp, nil
}

func (g *GeminiGenerator) unary(ctx context.Context, contents []*genai.Content) (string, *genai.GenerateContentResponseUsageMetadata, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.opts.Model, contents, g.config())
	if err != nil {
		return "", nil, normalizeGeminiError(err)
	}
	return result.Text(), result.UsageMetadata, nil
}

func (g *GeminiGenerator) stream(ctx context.Context, contents []*genai.Content) (string, *genai.GenerateContentResponseUsageMetadata, error) {
	var (
		sb    strings.Builder
		usage *genai.GenerateContentResponseUsageMetadata
	)
	for chunk, err := range g.client.Models.GenerateContentStream(ctx, g.opts.Model, contents, g.config()) {
		if err != nil {
			return "", nil, normalizeGeminiError(err)
		}
		if chunk == nil {
			continue
		}
		sb.WriteString(chunk.Text())
		if chunk.UsageMetadata != nil {
			usage = chunk.UsageMetadata
		}
	}
	return sb.String(), usage, nil
}

// normalizeGeminiError converts SDK API errors into *APIError and leaves
// everything else (context errors, transport errors) wrapped as-is.
func normalizeGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &APIError{StatusCode: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message}
	}
	return fmt.Errorf("gemini call failed: %w", err)
}
