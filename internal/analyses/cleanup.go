package analyses

import "strings"

// CleanupResponse strips markdown code fences and surrounding prose from a
// model response. When the text contains a JSON object, the returned string
// is the exact substring from the first '{' to the last '}'. Otherwise the
// trimmed input is returned unchanged.
func CleanupResponse(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}

	return s
}
