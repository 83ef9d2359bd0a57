package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/how-als/how-als/internal/llm"
)

// Kind categorizes analysis failures.
type Kind string

const (
	KindMissingInput        Kind = "missing_input"
	KindUnsupportedFormat   Kind = "unsupported_format"
	KindInvalidEncoding     Kind = "invalid_encoding"
	KindPayloadTooLarge     Kind = "payload_too_large"
	KindEmptyContent        Kind = "empty_content"
	KindServerMisconfigured Kind = "server_misconfigured"
	KindRateLimited         Kind = "rate_limited"
	KindTimeout             Kind = "timeout"
	KindProviderError       Kind = "provider_error"
)

// User-facing messages. Provider diagnostics never appear in these.
const (
	msgMissingInput      = "이미지 데이터가 필요합니다."
	msgUnsupportedFormat = "지원되는 이미지 형식이 아닙니다."
	msgInvalidEncoding   = "잘못된 base64 형식입니다."
	msgPayloadTooLarge   = "이미지 크기는 10MB 이하여야 합니다."
	msgEmptyContent      = "이미지 내용이 비어있습니다."
	msgNoCredential      = "서버 설정 오류: GEMINI_API_KEY가 설정되지 않았습니다."
	msgBadCredential     = "서버 설정 오류: 유효하지 않은 API 키 형식입니다."
	msgAuthFailed        = "API 인증 오류가 발생했습니다. 관리자에게 문의하세요."
	msgRateLimited       = "API 사용량 초과. 잠시 후 다시 시도해주세요."
	msgTimeout           = "이미지 분석 시간이 초과되었습니다. 잠시 후 다시 시도해주세요."
	msgContentRejected   = "이미지 내용 처리 오류가 발생했습니다."
	msgAnalysisFailed    = "이미지 분석 중 오류가 발생했습니다."
)

// Error is an analysis failure that is safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, status int, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Status: status, Cause: cause}
}

// NewMissingInputError reports a request without image data.
func NewMissingInputError(cause error) *Error {
	return newError(KindMissingInput, http.StatusBadRequest, msgMissingInput, cause)
}

// NewBodyTooLargeError reports a request body cut off by the transport's size limit.
func NewBodyTooLargeError(cause error) *Error {
	return newError(KindPayloadTooLarge, http.StatusRequestEntityTooLarge, msgPayloadTooLarge, cause)
}

// KindOf returns the Kind of err, or KindProviderError when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindProviderError
}

// StatusCode returns the HTTP status associated with err.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// UserMessage returns the caller-safe message for err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return msgAnalysisFailed
}

// ClassifyProviderError maps a failed model call onto the error taxonomy.
func ClassifyProviderError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, http.StatusGatewayTimeout, msgTimeout, err)
	}

	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) {
		return newError(KindProviderError, http.StatusInternalServerError, msgAnalysisFailed, err)
	}
	status, code := apiErr.StatusCode, apiErr.Status
	lower := strings.ToLower(apiErr.Message)

	switch {
	case status == http.StatusTooManyRequests || code == "RESOURCE_EXHAUSTED" || strings.Contains(lower, "quota"):
		return newError(KindRateLimited, http.StatusInternalServerError, msgRateLimited, err)
	case status == http.StatusUnauthorized || status == http.StatusForbidden || strings.Contains(lower, "api key"):
		return newError(KindServerMisconfigured, http.StatusInternalServerError, msgAuthFailed, err)
	case strings.Contains(lower, "content"):
		return newError(KindProviderError, http.StatusInternalServerError, msgContentRejected, err)
	default:
		return newError(KindProviderError, http.StatusInternalServerError, msgAnalysisFailed, err)
	}
}
