package analysis

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// MaxImageSize is the largest decoded image accepted (10 MiB).
const MaxImageSize = 10 * 1024 * 1024

var dataURIPattern = regexp.MustCompile(`^data:image/(jpeg|jpg|png|gif|webp);base64,`)

// canonicalMIMETypes maps accepted subtypes to the MIME type sent to the model.
var canonicalMIMETypes = map[string]string{
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// ImagePayload is a validated image ready to be sent to the model.
type ImagePayload struct {
	Data     []byte
	Format   string // subtype as declared by the source, e.g. "jpg"
	MIMEType string // canonical MIME type, e.g. "image/jpeg"
	ByteSize int
}

// Validate parses a base64 data URI of the form data:image/<subtype>;base64,<payload>.
func Validate(raw string) (*ImagePayload, error) {
	if raw == "" {
		return nil, NewMissingInputError(nil)
	}

	m := dataURIPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, newError(KindUnsupportedFormat, http.StatusBadRequest, msgUnsupportedFormat, nil)
	}
	subtype := m[1]
	encoded := raw[len(m[0]):]

	// Reject obviously oversized input before allocating the decoded buffer.
	// Line breaks are skipped by the decoder, so they do not count.
	significant := len(encoded) - strings.Count(encoded, "\r") - strings.Count(encoded, "\n")
	if significant > base64.StdEncoding.EncodedLen(MaxImageSize) {
		return nil, newError(KindPayloadTooLarge, http.StatusBadRequest, msgPayloadTooLarge,
			fmt.Errorf("encoded length %d exceeds limit", significant))
	}

	data, err := decodeBase64(encoded)
	if err != nil {
		return nil, newError(KindInvalidEncoding, http.StatusBadRequest, msgInvalidEncoding, err)
	}

	return newPayload(data, subtype)
}

// NewPayload validates raw image bytes from a non data-URI source (chat upload,
// local file). mimeType may be empty, in which case it is sniffed from data.
func NewPayload(data []byte, mimeType string) (*ImagePayload, error) {
	if mimeType == "" && len(data) > 0 {
		mimeType = http.DetectContentType(data)
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	subtype, ok := strings.CutPrefix(mimeType, "image/")
	if !ok {
		return nil, newError(KindUnsupportedFormat, http.StatusBadRequest, msgUnsupportedFormat,
			fmt.Errorf("mime type %q", mimeType))
	}
	if _, ok := canonicalMIMETypes[subtype]; !ok {
		return nil, newError(KindUnsupportedFormat, http.StatusBadRequest, msgUnsupportedFormat,
			fmt.Errorf("mime type %q", mimeType))
	}
	return newPayload(data, subtype)
}

func newPayload(data []byte, subtype string) (*ImagePayload, error) {
	if len(data) == 0 {
		return nil, newError(KindEmptyContent, http.StatusBadRequest, msgEmptyContent, nil)
	}
	if len(data) > MaxImageSize {
		return nil, newError(KindPayloadTooLarge, http.StatusBadRequest, msgPayloadTooLarge,
			fmt.Errorf("decoded size %d exceeds %d bytes", len(data), MaxImageSize))
	}
	return &ImagePayload{
		Data:     data,
		Format:   subtype,
		MIMEType: canonicalMIMETypes[subtype],
		ByteSize: len(data),
	}, nil
}

// decodeBase64 accepts padded and unpadded standard base64.
func decodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("invalid base64 payload: %w", err)
}

// DataURI encodes data as a data:image URI.
func DataURI(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
