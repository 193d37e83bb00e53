package agents

import "strings"

const fence = "```"

// ExtractJSON pulls a JSON object out of a model reply. Markdown code fences are
// unwrapped first; then the first balanced {...} span is returned, ignoring braces
// inside string literals. An unbalanced reply falls back to the first '{' through
// the last '}'. Text without braces is returned trimmed.
func ExtractJSON(raw string) string {
	text := stripFence(strings.TrimSpace(raw))

	start := strings.Index(text, "{")
	if start == -1 {
		return text
	}

	if end := matchingBrace(text, start); end != -1 {
		return text[start : end+1]
	}

	if end := strings.LastIndex(text, "}"); end > start {
		return text[start : end+1]
	}
	return text[start:]
}

// stripFence returns the body of the first fenced block, or text unchanged
func stripFence(text string) string {
	open := strings.Index(text, fence)
	if open == -1 {
		return text
	}

	body := text[open+len(fence):]
	// Drop the info string ("json", "JSON", ...) up to the end of the line
	if nl := strings.IndexByte(body, '\n'); nl != -1 && !strings.Contains(body[:nl], "{") {
		body = body[nl+1:]
	}

	if end := strings.Index(body, fence); end != -1 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// matchingBrace returns the index of the brace closing the one at start, or -1
func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if escaped {
			escaped = false
			continue
		}

		if inString {
			switch ch {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}
