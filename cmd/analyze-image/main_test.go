package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/how-als/how-als/internal/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestWriteJSON(t *testing.T) {
	result := &analysis.Result{
		ObjectName: "머그컵",
		Usages:     []analysis.Usage{{Title: "<음료>", Description: "커피"}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, result))
	assert.JSONEq(t, `{"objectName":"머그컵","usages":[{"title":"<음료>","description":"커피"}]}`, buf.String())
	assert.Contains(t, buf.String(), "<음료>")

	assert.Error(t, writeJSON(failingWriter{}, result))
}

func TestGetMimeType(t *testing.T) {
	assert.Equal(t, "image/jpeg", getMimeType("photo.JPG"))
	assert.Equal(t, "image/webp", getMimeType("a/b.webp"))
	assert.Empty(t, getMimeType("scan.heic"))
}
