package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseChunk(text string) string {
	return fmt.Sprintf(`data: {"candidates": [{"content": {"role": "model", "parts": [{"text": %q}]}}]}`+"\n\n", text)
}

func TestGeminiGenerator_StreamConcatenatesFragments(t *testing.T) {
	var gotPath, gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(sseChunk(`Here is the result: {"objectName":`)))
		w.Write([]byte(sseChunk(`"mug","usages":[]}`)))
		w.Write([]byte(`data: {"candidates": [{"content": {"role": "model", "parts": [{"text": ""}]}}], "usageMetadata": {"promptTokenCount": 10, "candidatesTokenCount": 5, "totalTokenCount": 15}}` + "\n\n"))
	}))
	defer ts.Close()

	g, err := NewGeminiGenerator(context.Background(), GeminiOptions{
		APIKey:  "test-key",
		Model:   "gemini-test",
		BaseURL: ts.URL,
		Stream:  true,
	})
	require.NoError(t, err)

	resp, err := g.Generate(context.Background(), Request{Prompt: "p", Image: []byte{1, 2, 3}, MIMEType: "image/jpeg"})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(gotPath, "models/gemini-test:streamGenerateContent"), gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, `Here is the result: {"objectName":"mug","usages":[]}`, resp.Text)
	assert.Equal(t, int64(15), resp.Usage.TotalTokens)
}

func TestGeminiGenerator_Unary(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": [{"content": {"role": "model", "parts": [{"text": "I cannot analyze this."}]}}]}`))
	}))
	defer ts.Close()

	g, err := NewGeminiGenerator(context.Background(), GeminiOptions{APIKey: "test-key", BaseURL: ts.URL})
	require.NoError(t, err)

	resp, err := g.Generate(context.Background(), Request{Prompt: "p", Image: []byte{1}, MIMEType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "I cannot analyze this.", resp.Text)
	assert.Equal(t, DefaultGeminiModel, resp.Model)
}

func TestGeminiGenerator_APIErrorIsNormalized(t *testing.T) {
	for _, stream := range []bool{false, true} {
		t.Run(fmt.Sprintf("stream=%v", stream), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error": {"code": 429, "message": "You exceeded your current quota", "status": "RESOURCE_EXHAUSTED"}}`))
			}))
			defer ts.Close()

			g, err := NewGeminiGenerator(context.Background(), GeminiOptions{APIKey: "test-key", BaseURL: ts.URL, Stream: stream})
			require.NoError(t, err)

			_, err = g.Generate(context.Background(), Request{Prompt: "p", Image: []byte{1}, MIMEType: "image/png"})
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %T: %v", err, err)
			assert.Equal(t, 429, apiErr.StatusCode)
			assert.Equal(t, "RESOURCE_EXHAUSTED", apiErr.Status)
			assert.Contains(t, apiErr.Message, "quota")
		})
	}
}

func TestGeminiGenerator_ConfigOmittedWhenNoTuning(t *testing.T) {
	g := &GeminiGenerator{opts: GeminiOptions{}}
	assert.Nil(t, g.config())

	g = &GeminiGenerator{opts: GeminiOptions{ThinkingLevel: "high", GoogleSearch: true}}
	cfg := g.config()
	require.NotNil(t, cfg)
	require.NotNil(t, cfg.ThinkingConfig)
	assert.Equal(t, "HIGH", string(cfg.ThinkingConfig.ThinkingLevel))
	require.Len(t, cfg.Tools, 1)
	assert.NotNil(t, cfg.Tools[0].GoogleSearch)
}
