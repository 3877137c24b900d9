package llm

import "strings"

// CleanJSON strips Markdown code fences that models wrap around JSON
// payloads. It handles ```json and bare ``` fences and trims
// surrounding whitespace; content without fences passes through.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}
