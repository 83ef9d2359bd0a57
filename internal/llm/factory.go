package llm

import (
	"context"
	"fmt"
)

// Transports accepted by New.
const (
	TransportStream = "stream"
	TransportSDK    = "sdk"
	TransportREST   = "rest"
)

// Options selects and configures a Generator.
type Options struct {
	Transport     string
	APIKey        string
	Model         string
	BaseURL       string
	ThinkingLevel string
	GoogleSearch  bool
}

// New returns the Generator for opts.Transport. The REST transport ignores the
// thinking and search settings.
func New(ctx context.Context, opts Options) (Generator, error) {
	switch opts.Transport {
	case TransportStream, TransportSDK, "":
		return NewGeminiGenerator(ctx, GeminiOptions{
			APIKey:        opts.APIKey,
			Model:         opts.Model,
			BaseURL:       opts.BaseURL,
			ThinkingLevel: opts.ThinkingLevel,
			GoogleSearch:  opts.GoogleSearch,
			Stream:        opts.Transport != TransportSDK,
		})
	case TransportREST:
		return NewRESTGenerator(RESTOptions{
			APIKey:  opts.APIKey,
			Model:   opts.Model,
			BaseURL: opts.BaseURL,
		}), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", opts.Transport)
	}
}
