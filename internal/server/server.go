package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/how-als/how-als/internal/analysis"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AnalyzePath is the single analysis endpoint.
const AnalyzePath = "/api/analyze"

// Analyzer is the part of *analysis.Analyzer the handler needs.
type Analyzer interface {
	Analyze(ctx context.Context, payload *analysis.ImagePayload) (*analysis.Result, error)
}

// AnalyzeRequest is the JSON body of POST /api/analyze. MIMEType is
// informational; the type is always taken from the data URI.
type AnalyzeRequest struct {
	ImageData string `json:"imageData"`
	MIMEType  string `json:"mimeType,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewHandler builds the HTTP API. maxBodySize bounds the raw request body.
func NewHandler(a Analyzer, maxBodySize int64) http.Handler {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(
		accessLog(),
		gin.CustomRecovery(recoverPanic),
		requestSizeLimiter(maxBodySize),
	)

	r.GET("/health", healthCheck)
	r.OPTIONS(AnalyzePath, preflight)
	r.POST(AnalyzePath, analyzeImage(a))

	return r
}

func analyzeImage(a Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				respondError(c, analysis.NewBodyTooLargeError(err))
				return
			}
			respondError(c, analysis.NewMissingInputError(err))
			return
		}
		if req.ImageData == "" {
			respondError(c, analysis.NewMissingInputError(nil))
			return
		}

		payload, err := analysis.Validate(req.ImageData)
		if err != nil {
			respondError(c, err)
			return
		}
		if req.MIMEType != "" && req.MIMEType != payload.MIMEType {
			log.Debug().
				Str("declared", req.MIMEType).
				Str("detected", payload.MIMEType).
				Msg("ignoring declared mime type")
		}

		result, err := a.Analyze(analysis.WithSource(c.Request.Context(), "http"), payload)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// preflight answers OPTIONS on the analysis endpoint. No CORS origin policy
// is applied here; that belongs to whatever fronts the service.
func preflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Status(http.StatusNoContent)
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "available",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		default:
			event = log.Info()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("ip", c.ClientIP()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	}
}

func recoverPanic(c *gin.Context, recovered any) {
	log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("handler panicked")
	respondError(c, errors.New("internal error"))
}

// respondError writes {"error": message} using the caller-safe message of err.
func respondError(c *gin.Context, err error) {
	status := analysis.StatusCode(err)
	log.Debug().
		Err(err).
		Str("kind", string(analysis.KindOf(err))).
		Int("status", status).
		Msg("request failed")
	c.AbortWithStatusJSON(status, ErrorResponse{Error: analysis.UserMessage(err)})
}
