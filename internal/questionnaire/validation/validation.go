// Package validation checks answers against the question catalog.
//
// Per question, in catalog order: invisible questions are skipped, a blank
// answer fails when the question is currently required, and a present answer
// must pass the question's format rule. Cross-field conflict rules run after
// the per-question checks and overwrite the entry of their target question.
//
// Validation failures are data, not Go errors: callers get an Errors map that
// is empty when the answers are acceptable.
package validation

import (
	"regexp"
	"strconv"

	"policywriter/internal/questionnaire/catalog"
)

// Errors maps a question id to a human-readable message.
type Errors map[catalog.QuestionID]string

// Clone returns a copy safe to hand to callers.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	defaultEmailMessage   = "Please enter a valid email address"
	defaultNumberMessage  = "Please enter a whole number"
	defaultOptionMessage  = "Please choose one of the listed options"
	defaultUnknownMessage = "Unknown question"
)

// Engine validates against one catalog.
type Engine struct {
	catalog *catalog.Catalog
}

// NewEngine returns an engine for c, or for the default catalog when c is nil.
func NewEngine(c *catalog.Catalog) *Engine {
	if c == nil {
		c = catalog.Default()
	}
	return &Engine{catalog: c}
}

// ValidateSection validates one section's questions, then every conflict rule
// that reads a question of the section. The returned map is freshly built.
func (e *Engine) ValidateSection(section catalog.Section, answers catalog.Answers) Errors {
	errs := Errors{}
	e.checkQuestions(section, answers, errs)
	e.checkConflicts(e.catalog.ConflictsTouching(section), answers, errs)
	return errs
}

// ValidateSectionIn is ValidateSection restricted to conflict rules whose
// fields all belong to the active sections.
func (e *Engine) ValidateSectionIn(section catalog.Section, active []catalog.Section, answers catalog.Answers) Errors {
	errs := Errors{}
	e.checkQuestions(section, answers, errs)
	e.checkConflicts(onlyActive(e.catalog.ConflictsTouching(section), active), answers, errs)
	return errs
}

// ValidateAll validates every section and then the full conflict rule set
// once. Rules reading a question outside the given sections are skipped.
func (e *Engine) ValidateAll(sections []catalog.Section, answers catalog.Answers) Errors {
	errs := Errors{}
	for _, s := range sections {
		e.checkQuestions(s, answers, errs)
	}
	e.checkConflicts(onlyActive(e.catalog.Conflicts(), sections), answers, errs)
	return errs
}

func onlyActive(rules []catalog.ConflictRule, sections []catalog.Section) []catalog.ConflictRule {
	active := make(map[catalog.QuestionID]bool)
	for _, id := range catalog.ActiveQuestions(sections) {
		active[id] = true
	}
	var out []catalog.ConflictRule
	for _, r := range rules {
		if allActive(r.Fields, active) {
			out = append(out, r)
		}
	}
	return out
}

// FirstSectionWithErrors returns the index of the earliest section owning an
// errored question, or -1.
func FirstSectionWithErrors(sections []catalog.Section, errs Errors) int {
	for i, s := range sections {
		for _, id := range s.QuestionIDs {
			if _, bad := errs[id]; bad {
				return i
			}
		}
	}
	return -1
}

func allActive(fields []catalog.QuestionID, active map[catalog.QuestionID]bool) bool {
	for _, f := range fields {
		if !active[f] {
			return false
		}
	}
	return true
}

func (e *Engine) checkQuestions(section catalog.Section, answers catalog.Answers, errs Errors) {
	for _, id := range section.QuestionIDs {
		q, ok := e.catalog.Question(id)
		if !ok {
			errs[id] = defaultUnknownMessage
			continue
		}
		if msg, bad := checkQuestion(q, answers); bad {
			errs[id] = msg
		}
	}
}

func checkQuestion(q *catalog.Question, answers catalog.Answers) (string, bool) {
	if !q.VisibleIf(answers) {
		return "", false
	}
	if answers.IsBlank(q.ID) {
		if q.RequiredIf(answers) {
			return q.RequiredMessage, true
		}
		return "", false
	}
	return checkFormat(q, answers)
}

func checkFormat(q *catalog.Question, answers catalog.Answers) (string, bool) {
	switch q.Type {
	case catalog.TypeSingleChoice:
		if !q.HasOption(answers.Text(q.ID)) {
			return defaultOptionMessage, true
		}
	case catalog.TypeMultiChoice:
		for _, choice := range answers.Choices(q.ID) {
			if !q.HasOption(choice) {
				return defaultOptionMessage, true
			}
		}
	}

	rule := q.Format
	if rule == nil && q.Type == catalog.TypeNumber {
		rule = &catalog.FormatRule{Kind: catalog.FormatInteger}
	}
	if rule == nil {
		return "", false
	}

	switch rule.Kind {
	case catalog.FormatEmail:
		if !emailPattern.MatchString(answers.Text(q.ID)) {
			return messageOr(rule.Message, defaultEmailMessage), true
		}
	case catalog.FormatInteger:
		n, ok := answers.Int(q.ID)
		if !ok {
			return messageOr(rule.Message, defaultNumberMessage), true
		}
		if rule.Min != nil && n < *rule.Min {
			return messageOr(rule.Message, "Must be at least "+strconv.Itoa(*rule.Min)), true
		}
		if rule.Max != nil && n > *rule.Max {
			return messageOr(rule.Message, "Must be at most "+strconv.Itoa(*rule.Max)), true
		}
	}
	return "", false
}

// checkConflicts skips a rule while any field it reads is hidden, so stale
// answers behind a closed branch never raise conflicts.
func (e *Engine) checkConflicts(rules []catalog.ConflictRule, answers catalog.Answers, errs Errors) {
	for _, r := range rules {
		if !e.fieldsVisible(r.Fields, answers) {
			continue
		}
		if r.Check(answers) {
			errs[r.Target] = r.Message
		}
	}
}

func (e *Engine) fieldsVisible(fields []catalog.QuestionID, answers catalog.Answers) bool {
	for _, f := range fields {
		q, ok := e.catalog.Question(f)
		if !ok || !q.VisibleIf(answers) {
			return false
		}
	}
	return true
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

// ValidateSection validates against the default catalog.
func ValidateSection(section catalog.Section, answers catalog.Answers) Errors {
	return NewEngine(nil).ValidateSection(section, answers)
}

// ValidateAll validates against the default catalog.
func ValidateAll(sections []catalog.Section, answers catalog.Answers) Errors {
	return NewEngine(nil).ValidateAll(sections, answers)
}
