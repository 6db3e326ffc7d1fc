// Package repair parses the untrusted text a generative model returns when
// asked for a single JSON object. Model output may arrive wrapped in markdown
// fences or truncated mid-stream; parsing is staged so each recovery step is
// independently testable: fence-strip, strict parse, heuristic repair,
// schema validation.
package repair

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/scamshield/honeypot/internal/intel"
)

var (
	// ErrSyntax means the text was not valid JSON even after repair.
	ErrSyntax = errors.New("model output is not valid JSON")
	// ErrSchema means the JSON parsed but required fields were missing or mistyped.
	ErrSchema = errors.New("model output missing required fields")
)

// Result is the validated analysis produced by the model for one turn.
type Result struct {
	ScamDetected          bool
	ScamType              string
	Confidence            float64
	Reply                 string
	Notes                 string
	Intelligence          intel.Snapshot
	ShouldTriggerCallback bool
}

// rawResult uses pointer fields so absence can be told apart from zero values.
type rawResult struct {
	ScamDetected          *bool           `json:"scamDetected"`
	ScamType              *string         `json:"scamType"`
	Confidence            *float64        `json:"confidence"`
	AgentReply            *string         `json:"agentReply"`
	AgentNotes            *string         `json:"agentNotes"`
	Intelligence          *intel.Snapshot `json:"intelligence"`
	ShouldTriggerCallback *bool           `json:"shouldTriggerCallback"`
}

// Parse turns raw model text into a Result. Failures are classified as
// ErrSyntax or ErrSchema; both are recoverable by the caller substituting a
// local fallback result.
func Parse(raw string) (*Result, error) {
	text := StripFences(raw)

	res, err := parseStrict(text)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, ErrSchema) {
		return nil, err
	}

	res, err = parseStrict(RepairJSON(text))
	if err == nil {
		return res, nil
	}
	if errors.Is(err, ErrSchema) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
}

func parseStrict(text string) (*Result, error) {
	var raw rawResult
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: field %q has type %s", ErrSchema, typeErr.Field, typeErr.Value)
		}
		return nil, err
	}
	return raw.validate()
}

// validate fills defaults for optional fields. A missing reply or a missing
// intelligence object is not silently defaulted: without them the result is
// unusable and the caller must fall back.
func (r *rawResult) validate() (*Result, error) {
	if r.AgentReply == nil {
		return nil, fmt.Errorf("%w: agentReply absent", ErrSchema)
	}
	if r.Intelligence == nil {
		return nil, fmt.Errorf("%w: intelligence absent", ErrSchema)
	}

	out := &Result{
		Reply:        *r.AgentReply,
		Intelligence: r.Intelligence.Normalize(),
	}
	if r.ScamDetected != nil {
		out.ScamDetected = *r.ScamDetected
	}
	if r.ScamType != nil {
		out.ScamType = *r.ScamType
	}
	if r.Confidence != nil {
		out.Confidence = clamp01(*r.Confidence)
	}
	if r.AgentNotes != nil {
		out.Notes = *r.AgentNotes
	}
	if r.ShouldTriggerCallback != nil {
		out.ShouldTriggerCallback = *r.ShouldTriggerCallback
	}
	return out, nil
}

// StripFences removes a leading and trailing markdown code fence if present.
// A truncated blob may carry only the opening fence.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimPrefix(text, "json")
		text = strings.TrimPrefix(text, "JSON")
	}
	text = strings.TrimSpace(text)
	if strings.HasSuffix(text, "```") {
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}

// RepairJSON heals the damage a mid-stream truncation typically leaves:
// a dangling trailing comma, an unterminated string, and unclosed
// brackets/braces.
func RepairJSON(text string) string {
	s := strings.TrimRight(text, " \t\r\n")
	if strings.HasSuffix(s, ",") {
		s = strings.TrimRight(strings.TrimSuffix(s, ","), " \t\r\n")
	}

	if countUnescapedQuotes(s)%2 == 1 {
		s += `"`
	}

	// Close whatever remains open, innermost first.
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, c)
			}
		case '}', ']':
			if !inString && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}

func countUnescapedQuotes(s string) int {
	n := 0
	escaped := false
	for i := 0; i < len(s); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch s[i] {
		case '\\':
			escaped = true
		case '"':
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
