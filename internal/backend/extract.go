package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// snippetLimit bounds the prefix of an unparsable response kept for diagnostics.
const snippetLimit = 200

// nestedObject matches a brace-delimited object with at most one level of
// nested braces.
var nestedObject = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)

// UnparsableError is returned by [Extract] when no strategy found a JSON
// object. It matches [ErrUnparsableResponse] with errors.Is.
type UnparsableError struct {
	// Snippet holds the first 200 characters of the trimmed response.
	Snippet string
}

func (e *UnparsableError) Error() string {
	return fmt.Sprintf("could not parse JSON from response: %s...", e.Snippet)
}

// Unwrap returns [ErrUnparsableResponse].
func (e *UnparsableError) Unwrap() error {
	return ErrUnparsableResponse
}

// Extract returns the first JSON object found in text, trying in order:
//
//  1. the inner content of a fenced code block, preferring a ```json fence
//  2. the whole trimmed text
//  3. a regular-expression match allowing one level of nested braces
//  4. the span from the first '{' to the last '}'
//  5. each balanced '{...}' span, left to right
//
// Only a JSON object counts as a parse. The balanced scan skips braces inside
// string literals. When every strategy fails the error is an
// [*UnparsableError].
func Extract(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)

	if inner, ok := fencedBlock(trimmed); ok {
		if m, ok := parseObject(inner); ok {
			return m, nil
		}
	}

	if m, ok := parseObject(trimmed); ok {
		return m, nil
	}

	if match := nestedObject.FindString(trimmed); match != "" {
		if m, ok := parseObject(match); ok {
			return m, nil
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start != -1 && end > start {
		if m, ok := parseObject(trimmed[start : end+1]); ok {
			return m, nil
		}
	}

	for _, span := range balancedSpans(trimmed) {
		if m, ok := parseObject(span); ok {
			return m, nil
		}
	}

	return nil, &UnparsableError{Snippet: truncate(trimmed, snippetLimit)}
}

// fencedBlock returns the content of the first ```json fence, or else of the
// first fence of any kind. An unterminated fence runs to the end of text.
func fencedBlock(text string) (string, bool) {
	const fence = "```"

	if i := strings.Index(text, fence+"json"); i != -1 {
		return fenceBody(text[i+len(fence)+len("json"):]), true
	}
	if i := strings.Index(text, fence); i != -1 {
		body := text[i+len(fence):]
		// Drop a language tag on the opening line.
		if nl := strings.IndexByte(body, '\n'); nl != -1 && !strings.ContainsAny(body[:nl], "{[\"") {
			body = body[nl+1:]
		}
		return fenceBody(body), true
	}
	return "", false
}

func fenceBody(body string) string {
	if end := strings.Index(body, "```"); end != -1 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// balancedSpans returns every span that starts at a '{' and ends where the
// brace depth returns to zero, in order of their opening brace. Braces inside
// JSON string literals are ignored.
func balancedSpans(text string) []string {
	var spans []string
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		if end := matchBrace(text, i); end != -1 {
			spans = append(spans, text[i:end+1])
		}
	}
	return spans
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escape := false
	for j := start; j < len(text); j++ {
		c := text[j]
		if inString {
			switch {
			case escape:
				escape = false
			case c == '\\':
				escape = true
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
				return j
			}
		}
	}
	return -1
}

func parseObject(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil || m == nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return m, true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
