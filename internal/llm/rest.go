package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const DefaultRESTBaseURL = "https://generativelanguage.googleapis.com"

// RESTOptions configures a RESTGenerator.
type RESTOptions struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RESTGenerator calls the Gemini generateContent endpoint directly with a
// single unary request. It needs no SDK client and suits short-lived processes.
type RESTGenerator struct {
	httpClient *resty.Client
	model      string
	apiKey     string
}

type restInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type restPart struct {
	InlineData *restInlineData `json:"inlineData,omitempty"`
	Text       string          `json:"text,omitempty"`
	Thought    bool            `json:"thought,omitempty"`
}

type restContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []restPart `json:"parts"`
}

type generateContentRequest struct {
	Contents []restContent `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content restContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int64 `json:"promptTokenCount"`
		CandidatesTokenCount int64 `json:"candidatesTokenCount"`
		TotalTokenCount      int64 `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewRESTGenerator creates a generator backed by a resty client.
func NewRESTGenerator(opts RESTOptions) *RESTGenerator {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultRESTBaseURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &RESTGenerator{
		httpClient: resty.New().
			SetDebug(false).
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Content-Type", "application/json"),
		model:  model,
		apiKey: opts.APIKey,
	}
}

// Generate implements the Generator interface.
func (g *RESTGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	body := generateContentRequest{
		Contents: []restContent{{
			Role: "user",
			Parts: []restPart{
				{InlineData: &restInlineData{MIMEType: req.MIMEType, Data: req.Image}},
				{Text: req.Prompt},
			},
		}},
	}

	var (
		out     generateContentResponse
		errBody errorResponse
	)
	start := time.Now()
	res, err := g.httpClient.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", g.apiKey).
		SetBody(body).
		SetResult(&out).
		SetError(&errBody).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.model))
	if err != nil {
		return nil, fmt.Errorf("gemini rest call failed: %w", err)
	}
	if res.IsError() {
		apiErr := &APIError{
			StatusCode: res.StatusCode(),
			Status:     errBody.Error.Status,
			Message:    errBody.Error.Message,
		}
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(res.Body()))
		}
		if apiErr.Status == "" {
			apiErr.Status = http.StatusText(res.StatusCode())
		}
		return nil, apiErr
	}

	var sb strings.Builder
	if len(out.Candidates) > 0 {
		for _, p := range out.Candidates[0].Content.Parts {
			if p.Thought {
				continue
			}
			sb.WriteString(p.Text)
		}
	}

	resp := &Response{Text: sb.String(), Model: g.model}
	if out.UsageMetadata != nil {
		resp.Usage.InputTokens = out.UsageMetadata.PromptTokenCount
		resp.Usage.OutputTokens = out.UsageMetadata.CandidatesTokenCount
		resp.Usage.TotalTokens = out.UsageMetadata.TotalTokenCount
		resp.Usage.CostUSD = calculateGeminiCost(resp.Usage.InputTokens, resp.Usage.OutputTokens,
			geminiInputPricePerMillion, geminiOutputPricePerMillion)
	}

	log.Info().
		Str("model", g.model).
		Int64("inputTokens", resp.Usage.InputTokens).
		Int64("outputTokens", resp.Usage.OutputTokens).
		Float64("costUSD", resp.Usage.CostUSD).
		Dur("elapsed", time.Since(start)).
		Msg("vision llm rest call")

	return resp, nil
}
