package wizard

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"

	"policywriter/internal/questionnaire/catalog"
	dErrors "policywriter/pkg/domain-errors"
	pstrings "policywriter/pkg/platform/strings"
)

// normalize coerces a raw value into the answer shape of q. remove is true
// when the value clears the answer.
func normalize(q *catalog.Question, value any) (normalized any, remove bool, err error) {
	if value == nil {
		return nil, true, nil
	}
	switch q.Type {
	case catalog.TypeNumber:
		return normalizeNumber(q, value)
	case catalog.TypeMultiChoice:
		return normalizeChoices(q, value)
	default:
		s, ok := value.(string)
		if !ok {
			return nil, false, invalidShape(q, "a string")
		}
		return s, false, nil
	}
}

// normalizeNumber keeps unparseable input as a trimmed string so the format
// rule can report it.
func normalizeNumber(q *catalog.Question, value any) (any, bool, error) {
	switch v := value.(type) {
	case int:
		return v, false, nil
	case int64:
		return int(v), false, nil
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < math.MaxInt32 {
			return int(v), false, nil
		}
		return strconv.FormatFloat(v, 'f', -1, 64), false, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), false, nil
		}
		return v.String(), false, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if n, err := strconv.Atoi(trimmed); err == nil {
			return n, false, nil
		}
		return trimmed, false, nil
	default:
		return nil, false, invalidShape(q, "a number")
	}
}

func normalizeChoices(q *catalog.Question, value any) (any, bool, error) {
	var raw []string
	switch v := value.(type) {
	case []string:
		raw = v
	case []any:
		raw = make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false, invalidShape(q, "a list of strings")
			}
			raw = append(raw, s)
		}
	case string:
		raw = []string{v}
	default:
		return nil, false, invalidShape(q, "a list of strings")
	}
	out := pstrings.DedupeAndTrim(raw)
	if out == nil {
		out = []string{}
	}
	return slices.Clone(out), false, nil
}

func invalidShape(q *catalog.Question, want string) error {
	return dErrors.New(dErrors.CodeInvalidInput, "question "+string(q.ID)+" expects "+want)
}
