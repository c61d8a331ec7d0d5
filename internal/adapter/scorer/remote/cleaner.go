package remote

import (
	"encoding/json"
	"regexp"
	"strings"
)

var trailingComma = regexp.MustCompile(`,(\s*[}\]])`)

// cleanJSON strips markdown fences and surrounding prose from a scorer
// response and returns the first balanced JSON object in it.
func cleanJSON(body string) string {
	s := strings.TrimSpace(body)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = extractObject(strings.TrimSpace(s))
	if json.Valid([]byte(s)) {
		return s
	}
	return trailingComma.ReplaceAllString(s, "$1")
}

// extractObject returns the first brace-balanced object, ignoring braces
// inside string literals. The input is returned unchanged when none is found.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return s
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s[start:]
}
