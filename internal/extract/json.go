package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// codeBlockPattern matches markdown code blocks with an optional language tag.
// Captures: (1) language, (2) content
var codeBlockPattern = regexp.MustCompile(`(?s)` + "```" + `(\w*)\s*\n(.+?)\n` + "```")

// extractJSON pulls the JSON object out of a model response that may be
// wrapped in prose or a markdown fence. It prefers a fenced block, then the
// first balanced {...} in the text, then the whole response.
func extractJSON(response string) string {
	for _, m := range codeBlockPattern.FindAllStringSubmatch(response, -1) {
		lang := strings.ToLower(m[1])
		if lang != "" && lang != "json" {
			continue
		}
		content := strings.TrimSpace(m[2])
		if strings.HasPrefix(content, "{") {
			return content
		}
	}

	if start := strings.Index(response, "{"); start >= 0 {
		if obj := matchBraces(response[start:]); obj != "" {
			return obj
		}
		// Unbalanced: hand the tail to the repairer.
		return response[start:]
	}
	return strings.TrimSpace(response)
}

// matchBraces returns the balanced object at the start of s, skipping
// braces inside strings, or "" if the object never closes.
func matchBraces(s string) string {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

// parseJSON unmarshals the JSON found in response into T. Malformed JSON
// (trailing commas, single quotes, truncated output) is passed through
// jsonrepair and decoded again.
func parseJSON[T any](response string) (T, error) {
	var result T
	raw := extractJSON(response)

	err := json.Unmarshal([]byte(raw), &result)
	if err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(raw)
	if repairErr != nil {
		return result, fmt.Errorf("unmarshal response: %w (repair failed: %v)", err, repairErr)
	}
	result = *new(T)
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return result, fmt.Errorf("unmarshal repaired response: %w", err)
	}
	return result, nil
}
