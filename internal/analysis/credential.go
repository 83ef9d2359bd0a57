package analysis

import (
	"errors"
	"net/http"
	"strings"
)

const (
	apiKeyPrefix    = "AIza"
	apiKeyMinLength = 35
)

// CheckCredential rejects a missing or malformed Gemini API key. It only checks
// the shape of the key; the provider remains the authority on validity.
func CheckCredential(apiKey string) error {
	if apiKey == "" {
		return newError(KindServerMisconfigured, http.StatusInternalServerError, msgNoCredential,
			errors.New("GEMINI_API_KEY not configured"))
	}
	if !strings.HasPrefix(apiKey, apiKeyPrefix) || len(apiKey) < apiKeyMinLength {
		return newError(KindServerMisconfigured, http.StatusInternalServerError, msgBadCredential,
			errors.New("invalid GEMINI_API_KEY format"))
	}
	return nil
}
