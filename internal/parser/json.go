package parser

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when a reply contains no parseable JSON value.
var ErrNoJSON = errors.New("no JSON found in response")

var fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)```")

// ExtractJSON pulls the JSON payload out of a model reply.
//
// Candidates are tried in order: the first fenced code block, the whole
// trimmed reply, then the first balanced object or array found by scanning.
// The first candidate that is valid JSON wins.
func ExtractJSON(text string) (string, error) {
	var candidates []string
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	candidates = append(candidates, strings.TrimSpace(text))

	for _, c := range candidates {
		if c != "" && json.Valid([]byte(c)) {
			return c, nil
		}
	}

	for _, c := range candidates {
		if span, ok := firstBalancedSpan(c); ok {
			return span, nil
		}
	}
	return "", ErrNoJSON
}

// firstBalancedSpan scans for the first {...} or [...] span whose brackets
// balance outside string literals and which parses as JSON.
func firstBalancedSpan(s string) (string, bool) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' && s[start] != '[' {
			continue
		}
		if end, ok := matchBracket(s, start); ok {
			span := s[start : end+1]
			if json.Valid([]byte(span)) {
				return span, true
			}
		}
	}
	return "", false
}

func matchBracket(s string, start int) (int, bool) {
	var stack []byte
	inString, escaped := false, false

	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
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
