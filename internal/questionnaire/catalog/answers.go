package catalog

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// QuestionID is the stable identifier of a catalog question, e.g. "q9_mfa".
type QuestionID string

// Answers maps question ids to their current values. Text, email and single
// choice answers are strings, numbers are ints (or the raw string when it did
// not parse), and multi choice answers are ordered []string.
type Answers map[QuestionID]any

// Text returns the answer as a string. Numbers are formatted; multi choice
// answers and missing entries yield "".
func (a Answers) Text(id QuestionID) string {
	switch v := a[id].(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Choices returns a multi choice answer. A single string is treated as a one
// element selection.
func (a Answers) Choices(id QuestionID) []string {
	switch v := a[id].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// Int returns the answer as a whole number. ok is false when the answer is
// missing, fractional, or not numeric.
func (a Answers) Int(id QuestionID) (n int, ok bool) {
	switch v := a[id].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// IsBlank reports whether the answer is absent, an all-whitespace string, or
// an empty selection.
func (a Answers) IsBlank(id QuestionID) bool {
	v, ok := a[id]
	if !ok || v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

// Clone returns a deep copy; slices are copied so callers can't alias the
// session's answers.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		switch t := v.(type) {
		case []string:
			cp := make([]string, len(t))
			copy(cp, t)
			out[k] = cp
		case []any:
			cp := make([]any, len(t))
			copy(cp, t)
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}
