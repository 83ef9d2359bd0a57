package analysis

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/how-als/how-als/internal/llm"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 60 * time.Second

// Outcome values recorded for successful analyses. Failures record their Kind.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
)

// Outcome summarises one finished analysis.
type Outcome struct {
	At         time.Time
	Source     string
	MIMEType   string
	ByteSize   int
	Image      []byte
	Status     string
	ObjectName string
	Model      string
	Duration   time.Duration
	Usage      llm.TokenUsage
}

// Recorder receives an Outcome after every analysis that reached the model.
type Recorder interface {
	RecordAnalysis(ctx context.Context, o Outcome) error
}

type sourceKey struct{}

// WithSource tags ctx with the front-end that submitted the image ("http", "telegram", "cli").
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

func sourceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey{}).(string); ok {
		return s
	}
	return "unknown"
}

// Analyzer turns a validated image into a Result by asking a generative model.
type Analyzer struct {
	apiKey    string
	generator llm.Generator
	timeout   time.Duration
	recorder  Recorder
	now       func() time.Time
}

type Option func(*Analyzer)

// WithTimeout bounds the model call. Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

// WithRecorder attaches a Recorder, e.g. the SQLite journal.
func WithRecorder(r Recorder) Option {
	return func(a *Analyzer) { a.recorder = r }
}

// NewAnalyzer creates an Analyzer. generator may be nil when no credential is
// configured; every call then fails with KindServerMisconfigured.
func NewAnalyzer(apiKey string, generator llm.Generator, opts ...Option) *Analyzer {
	a := &Analyzer{
		apiKey:    apiKey,
		generator: generator,
		timeout:   DefaultTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze sends the payload and the fixed prompt to the model in one request.
// Model output that cannot be parsed yields a degraded Result, not an error.
// Returned errors are always *Error.
func (a *Analyzer) Analyze(ctx context.Context, payload *ImagePayload) (*Result, error) {
	if err := CheckCredential(a.apiKey); err != nil {
		log.Error().Err(err).Msg("analysis rejected: credential not usable")
		return nil, err
	}
	if a.generator == nil {
		return nil, newError(KindServerMisconfigured, http.StatusInternalServerError, msgNoCredential,
			errors.New("no model generator configured"))
	}
	if payload == nil || len(payload.Data) == 0 {
		return nil, NewMissingInputError(nil)
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := a.now()
	outcome := Outcome{
		At:       start,
		Source:   sourceFrom(ctx),
		MIMEType: payload.MIMEType,
		ByteSize: payload.ByteSize,
		Image:    payload.Data,
	}

	resp, err := a.generator.Generate(callCtx, llm.Request{
		Prompt:   Prompt,
		Image:    payload.Data,
		MIMEType: payload.MIMEType,
	})
	outcome.Duration = a.now().Sub(start)
	if err != nil {
		classified := ClassifyProviderError(err)
		log.Error().
			Err(err).
			Time("timestamp", a.now()).
			Str("kind", string(classified.Kind)).
			Str("source", outcome.Source).
			Int("byteSize", payload.ByteSize).
			Msg("analysis failed")
		outcome.Status = string(classified.Kind)
		a.record(ctx, outcome)
		return nil, classified
	}

	result, ok := ParseResult(resp.Text)
	outcome.Status = OutcomeOK
	if !ok {
		outcome.Status = OutcomeDegraded
		log.Warn().
			Str("source", outcome.Source).
			Int("textLength", len(resp.Text)).
			Msg("model response had no parsable JSON object, returning degraded result")
	}
	outcome.ObjectName = result.ObjectName
	outcome.Model = resp.Model
	outcome.Usage = resp.Usage
	a.record(ctx, outcome)

	log.Info().
		Str("source", outcome.Source).
		Str("status", outcome.Status).
		Str("objectName", result.ObjectName).
		Int("usages", len(result.Usages)).
		Dur("duration", outcome.Duration).
		Msg("analysis completed")

	return result, nil
}

func (a *Analyzer) record(ctx context.Context, o Outcome) {
	if a.recorder == nil {
		return
	}
	if err := a.recorder.RecordAnalysis(context.WithoutCancel(ctx), o); err != nil {
		log.Warn().Err(err).Msg("failed to record analysis")
	}
}
