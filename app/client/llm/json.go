package llm

import "strings"

// CleanJSON strips the markdown fences some models wrap around JSON output.
func CleanJSON(text string) string {
	text = strings.Trim(text, "`")
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "json")
	return strings.TrimSpace(text)
}
