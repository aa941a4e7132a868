// Package extract pulls structured records out of free-form model output.
// Nothing in this package returns an error: unusable output yields an empty
// result that callers treat as a per-item failure.
package extract

import "encoding/json"

// FirstJSON returns the first balanced JSON object or array embedded in raw
// that is also valid JSON. Braces inside string literals are ignored.
//
// Every opener restarts the scan, so a long run of unmatched openers costs
// quadratic time in len(raw). Model replies are bounded by MaxTokens.
func FirstJSON(raw string) (string, bool) {
	for start := 0; start < len(raw); start++ {
		if raw[start] != '{' && raw[start] != '[' {
			continue
		}
		end, ok := balancedEnd(raw, start)
		if !ok {
			continue
		}
		candidate := raw[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

// balancedEnd scans from an opening bracket at start and returns the index
// of its matching closer.
func balancedEnd(raw string, start int) (int, bool) {
	stack := make([]byte, 0, 8)
	inString, escaped := false, false

	for i := start; i < len(raw); i++ {
		c := raw[i]
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
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
