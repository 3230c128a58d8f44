package sentiment

import (
	"regexp"
	"strings"
)

var fencedBlockPattern = regexp.MustCompile("(?s)```(?i:json)?\\s*(.*?)\\s*```")

// ExtractJSON isolates the JSON candidate inside a model response.
//
// The interior of the first triple-backtick block (optionally tagged json)
// wins. Without a complete block the trimmed input is returned, minus an
// opening fence line left behind by truncated output.
func ExtractJSON(raw string) string {
	if m := fencedBlockPattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
			return strings.TrimSpace(trimmed[idx+1:])
		}
		return ""
	}
	return trimmed
}
