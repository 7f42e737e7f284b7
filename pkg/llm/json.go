package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> tags that may appear at the
// start of completion output from reasoning models.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// sqlFencePattern matches a ```sql ... ``` fenced code block.
var sqlFencePattern = regexp.MustCompile("(?is)```sql\\s*(.*?)```")

// fencePattern matches any ``` ... ``` fenced code block.
var fencePattern = regexp.MustCompile("(?s)```\\s*(.*?)```")

// StripThinking removes a leading <think>...</think> block from a response.
func StripThinking(response string) string {
	return thinkTagPattern.ReplaceAllString(response, "")
}

// ExtractJSON extracts JSON content from a completion that may contain
// <think> tags, markdown code blocks, or surrounding commentary.
func ExtractJSON(response string) (string, error) {
	cleaned := StripThinking(response)

	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	if objStart >= 0 && (arrStart < 0 || objStart < arrStart) {
		if jsonStr, ok := extractBalancedJSON(cleaned, '{', '}'); ok {
			if json.Valid([]byte(jsonStr)) {
				return jsonStr, nil
			}
		}
	}

	if arrStart >= 0 {
		if jsonStr, ok := extractBalancedJSON(cleaned, '[', ']'); ok {
			if json.Valid([]byte(jsonStr)) {
				return jsonStr, nil
			}
		}
	}

	trimmed := strings.TrimSpace(cleaned)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// extractBalancedJSON finds the first balanced JSON structure starting with
// openChar, tracking string literals and escapes.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
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

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// ParseJSONResponse extracts JSON from a completion and unmarshals it into T.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}

	return result, nil
}

// ExtractSQL pulls a single SQL statement out of a completion. Preference
// order: ```sql fenced block, any fenced block starting with a query
// keyword, the first SELECT/WITH statement in free text. Returns an empty
// string when no statement is found.
func ExtractSQL(response string) string {
	cleaned := StripThinking(response)

	if m := sqlFencePattern.FindStringSubmatch(cleaned); len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}

	if m := fencePattern.FindStringSubmatch(cleaned); len(m) >= 2 {
		body := strings.TrimSpace(m[1])
		upper := strings.ToUpper(body)
		if strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH") {
			return body
		}
	}

	upper := strings.ToUpper(cleaned)
	for _, kw := range []string{"SELECT", "WITH"} {
		if idx := strings.Index(upper, kw); idx >= 0 {
			stmt := strings.TrimSpace(cleaned[idx:])
			// Cut at the first blank line following the statement body.
			if cut := strings.Index(stmt, "\n\n"); cut > 0 {
				stmt = strings.TrimSpace(stmt[:cut])
			}
			return stmt
		}
	}

	return ""
}
