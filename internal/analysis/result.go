package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	PlaceholderObjectName = "인식된 물건"
	degradedUsageTitle    = "분석 결과"
	degradedNoText        = "분석 결과를 가져오지 못했습니다."
)

// Usage is one suggested way of using the object.
type Usage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Result is the structured description of the photographed object.
type Result struct {
	ObjectName string  `json:"objectName"`
	Usages     []Usage `json:"usages"`
}

// extractJSONObject returns the text between the first '{' and the last '}'.
func extractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return text[start : end+1], nil
}

// ParseResult extracts the result object from free-form model text. When no
// object can be parsed it returns a degraded result carrying the raw text and
// ok=false; it never returns nil.
func ParseResult(text string) (result *Result, ok bool) {
	jsonStr, err := extractJSONObject(text)
	if err == nil {
		var r Result
		if err := json.Unmarshal([]byte(jsonStr), &r); err == nil {
			if r.Usages == nil {
				r.Usages = []Usage{}
			}
			return &r, true
		}
	}
	return degradedResult(text), false
}

func degradedResult(text string) *Result {
	description := text
	if description == "" {
		description = degradedNoText
	}
	return &Result{
		ObjectName: PlaceholderObjectName,
		Usages:     []Usage{{Title: degradedUsageTitle, Description: description}},
	}
}
