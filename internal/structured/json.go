package structured

import (
	"encoding/json"
	"strings"
)

// extractJSON finds the first balanced JSON object in generative output.
// Models wrap JSON in markdown fences or prepend commentary often enough
// that a plain Unmarshal of the raw response is not reliable; fences are
// stripped first, then a brace scan locates the object.
func extractJSON(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, fence := range []string{"```json", "```JSON", "```"} {
		s = strings.ReplaceAll(s, fence, "")
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
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
				candidate := strings.TrimSpace(s[start : i+1])
				if json.Valid([]byte(candidate)) {
					return candidate
				}
				return ""
			}
		}
	}
	return ""
}

// parseObject extracts and unmarshals the first JSON object in generative
// output. A false return means the response is unparseable and the whole
// record must fall back to defaults.
func parseObject(s string) (map[string]any, bool) {
	candidate := extractJSON(s)
	if candidate == "" {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, false
	}
	return obj, true
}
