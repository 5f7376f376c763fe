package genai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError marks a malformed AI response. It is a recoverable condition:
// callers substitute their fallback dataset for the call, they never crash.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "genai: malformed response: " + e.Reason
}

// ExtractStructured pulls the first balanced JSON array or object out of
// free-text model output. Markdown code fences and surrounding commentary are
// tolerated and discarded. When both an array and an object are present, the
// one whose opening bracket comes first wins.
func ExtractStructured(raw string) (json.RawMessage, error) {
	cleaned := stripFences(raw)
	if strings.TrimSpace(cleaned) == "" {
		return nil, &ParseError{Reason: "empty response"}
	}

	arrStart := strings.IndexByte(cleaned, '[')
	objStart := strings.IndexByte(cleaned, '{')

	start := -1
	switch {
	case arrStart >= 0 && (objStart < 0 || arrStart < objStart):
		start = arrStart
	case objStart >= 0:
		start = objStart
	}
	if start < 0 {
		return nil, &ParseError{Reason: "no JSON array or object found"}
	}

	candidate, ok := balancedSlice(cleaned, start)
	if !ok {
		return nil, &ParseError{Reason: "unbalanced JSON delimiters"}
	}

	var probe any
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return nil, &ParseError{Reason: err.Error()}
	}
	return json.RawMessage(candidate), nil
}

// GeneratedQuestion is the wire shape the question-generation prompt asks
// for. Field names match the prompt contract, not Go convention.
type GeneratedQuestion struct {
	Question string `json:"Question"`
	Answer   string `json:"Answer"`
}

// DecodeQuestions extracts and validates a generated question array. Every
// element must carry non-empty Question and Answer fields; anything less is a
// ParseError so the caller falls back wholesale rather than merging.
func DecodeQuestions(raw string) ([]GeneratedQuestion, error) {
	blob, err := ExtractStructured(raw)
	if err != nil {
		return nil, err
	}
	var out []GeneratedQuestion
	if err := json.Unmarshal(blob, &out); err != nil {
		return nil, &ParseError{Reason: "expected question array: " + err.Error()}
	}
	if len(out) == 0 {
		return nil, &ParseError{Reason: "question array is empty"}
	}
	for i, q := range out {
		if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.Answer) == "" {
			return nil, &ParseError{Reason: fmt.Sprintf("question %d missing required fields", i)}
		}
	}
	return out, nil
}

// DecodeObject extracts a JSON object and unmarshals it into dst.
func DecodeObject(raw string, dst any) error {
	blob, err := ExtractStructured(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		return &ParseError{Reason: err.Error()}
	}
	return nil
}

func stripFences(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// balancedSlice returns s[start:end] where end closes the bracket opened at
// start, skipping brackets inside JSON string literals.
func balancedSlice(s string, start int) (string, bool) {
	open := s[start]
	var close byte
	switch open {
	case '[':
		close = ']'
	case '{':
		close = '}'
	default:
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
