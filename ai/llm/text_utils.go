package llm

import "strings"

// stripCodeFences removes a surrounding Markdown code fence, with or
// without a "json" tag, and trims whitespace.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractObject returns the text between the first '{' and the last '}'.
// Models sometimes wrap the JSON document in a sentence of prose.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

// cleanJSON applies every response cleanup step in order.
func cleanJSON(s string) string {
	return repairJSON(extractObject(stripCodeFences(s)))
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
