package utils

import (
	"encoding/json"
	"strings"
)

// ErrJSON produces a standard JSON error response.
func ErrJSON(msg string) map[string]any {
	return map[string]any{
		"success": false,
		"error":   msg,
	}
}

// StripThinking drops a leading <think>...</think> block emitted by reasoning models.
func StripThinking(s string) string {
	if !strings.Contains(s, "<think>") {
		return s
	}
	if idx := strings.LastIndex(s, "</think>"); idx != -1 {
		return strings.TrimSpace(s[idx+len("</think>"):])
	}
	return s
}

// CleanJSON removes a surrounding markdown code fence.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.HasPrefix(strings.TrimSpace(lines[n-1]), "```") {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ExtractJSON returns the outermost JSON object embedded in model output,
// tolerating reasoning blocks, code fences and surrounding prose. Objects
// win over arrays; an array is returned only when no object is present.
// It returns "" when no candidate is found.
func ExtractJSON(s string) string {
	s = CleanJSON(StripThinking(s))
	if body := between(s, '{', '}'); body != "" {
		return body
	}
	return between(s, '[', ']')
}

func between(s string, opener, closer byte) string {
	start := strings.IndexByte(s, opener)
	if start == -1 {
		return ""
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return ""
	}
	return s[start : end+1]
}

// DecodeJSON extracts and decodes the JSON embedded in model output into v.
// It reports false when nothing decodable was found, leaving v untouched.
func DecodeJSON[T any](s string, v *T) bool {
	body := ExtractJSON(s)
	if body == "" {
		return false
	}
	var tmp T
	if err := json.Unmarshal([]byte(body), &tmp); err != nil {
		return false
	}
	*v = tmp
	return true
}
