package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResult_ExtractsObjectFromProse(t *testing.T) {
	text := `Here is the result: {"objectName":"mug","usages":[{"title":"drink","description":"hold liquid"}]}`

	r, ok := ParseResult(text)
	require.True(t, ok)
	assert.Equal(t, &Result{
		ObjectName: "mug",
		Usages:     []Usage{{Title: "drink", Description: "hold liquid"}},
	}, r)
}

func TestParseResult_MarkdownFence(t *testing.T) {
	text := "```json\n{\"objectName\": \"가위\", \"usages\": [{\"title\": \"종이 자르기\", \"description\": \"종이를 자릅니다\"}, {\"title\": \"포장\", \"description\": \"테이프를 자릅니다\"}, {\"title\": \"요리\", \"description\": \"채소를 자릅니다\"}]}\n```"

	r, ok := ParseResult(text)
	require.True(t, ok)
	assert.Equal(t, "가위", r.ObjectName)
	assert.Len(t, r.Usages, 3)
}

func TestParseResult_NestedBracesUseGreedyMatch(t *testing.T) {
	text := `{"objectName":"lamp","usages":[{"title":"a","description":"{b}"}]} trailing`

	r, ok := ParseResult(text)
	require.True(t, ok)
	assert.Equal(t, "{b}", r.Usages[0].Description)
}

func TestParseResult_MissingUsagesIsEmptyArray(t *testing.T) {
	r, ok := ParseResult(`{"objectName":"pen"}`)
	require.True(t, ok)
	require.NotNil(t, r.Usages)
	assert.Empty(t, r.Usages)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"objectName":"pen","usages":[]}`, string(out))
}

func TestParseResult_FewerUsagesAreNotRejected(t *testing.T) {
	r, ok := ParseResult(`{"objectName":"pen","usages":[]}`)
	require.True(t, ok)
	assert.Equal(t, "pen", r.ObjectName)
	assert.Empty(t, r.Usages)
}

func TestParseResult_Degraded(t *testing.T) {
	tests := []struct {
		name            string
		text            string
		wantDescription string
	}{
		{"no braces", "I cannot analyze this.", "I cannot analyze this."},
		{"broken json", `{"objectName": "mug", "usages": [`, `{"objectName": "mug", "usages": [`},
		{"braces in wrong order", "} nothing {", "} nothing {"},
		{"wrong field type", `{"objectName": 42}`, `{"objectName": 42}`},
		{"empty text", "", degradedNoText},
		{"whitespace only", "  \n", "  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := ParseResult(tt.text)
			assert.False(t, ok)
			require.NotNil(t, r)
			assert.Equal(t, PlaceholderObjectName, r.ObjectName)
			require.Len(t, r.Usages, 1)
			assert.Equal(t, degradedUsageTitle, r.Usages[0].Title)
			assert.Equal(t, tt.wantDescription, r.Usages[0].Description)
		})
	}
}
