package catalog

import (
	"fmt"
	"slices"
)

// Predicate decides something about an answer set, e.g. whether a question
// is visible.
type Predicate func(Answers) bool

// Always is the default visibility and requirement predicate.
func Always(Answers) bool { return true }

// Never marks optional questions.
func Never(Answers) bool { return false }

// Condition is the declarative form of a Predicate as written in catalog.yaml.
// Exactly one of Equals, Includes, All or Any is set; Equals and Includes
// need Question.
type Condition struct {
	Question QuestionID  `yaml:"question"`
	Equals   *string     `yaml:"equals"`
	Includes *string     `yaml:"includes"`
	All      []Condition `yaml:"all"`
	Any      []Condition `yaml:"any"`
}

// Compile turns the condition into a Predicate. Call validate first.
func (c Condition) Compile() Predicate {
	switch {
	case c.Equals != nil:
		id, want := c.Question, *c.Equals
		return func(a Answers) bool {
			return a.Text(id) == want
		}
	case c.Includes != nil:
		id, want := c.Question, *c.Includes
		return func(a Answers) bool {
			return slices.Contains(a.Choices(id), want)
		}
	case len(c.All) > 0:
		preds := compileAll(c.All)
		return func(a Answers) bool {
			for _, p := range preds {
				if !p(a) {
					return false
				}
			}
			return true
		}
	case len(c.Any) > 0:
		preds := compileAll(c.Any)
		return func(a Answers) bool {
			for _, p := range preds {
				if p(a) {
					return true
				}
			}
			return false
		}
	default:
		return Never
	}
}

func compileAll(conds []Condition) []Predicate {
	preds := make([]Predicate, len(conds))
	for i, c := range conds {
		preds[i] = c.Compile()
	}
	return preds
}

// Fields returns the question ids the condition reads, without duplicates.
func (c Condition) Fields() []QuestionID {
	var out []QuestionID
	c.collect(&out)
	return out
}

func (c Condition) collect(out *[]QuestionID) {
	if c.Question != "" && !slices.Contains(*out, c.Question) {
		*out = append(*out, c.Question)
	}
	for _, sub := range c.All {
		sub.collect(out)
	}
	for _, sub := range c.Any {
		sub.collect(out)
	}
}

func (c Condition) validate(known func(QuestionID) bool) error {
	set := 0
	if c.Equals != nil {
		set++
	}
	if c.Includes != nil {
		set++
	}
	if len(c.All) > 0 {
		set++
	}
	if len(c.Any) > 0 {
		set++
	}
	if set != 1 {
		return fmt.Errorf("condition must set exactly one of equals, includes, all, any")
	}
	if c.Equals != nil || c.Includes != nil {
		if c.Question == "" {
			return fmt.Errorf("condition is missing question")
		}
		if !known(c.Question) {
			return fmt.Errorf("condition references unknown question %q", c.Question)
		}
		return nil
	}
	if c.Question != "" {
		return fmt.Errorf("combinator condition must not set question")
	}
	for _, sub := range append(slices.Clone(c.All), c.Any...) {
		if err := sub.validate(known); err != nil {
			return err
		}
	}
	return nil
}
