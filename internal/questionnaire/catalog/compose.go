package catalog

import (
	"slices"

	dErrors "policywriter/pkg/domain-errors"
)

// ComposeSections returns the wizard sections for a selection: the core
// sections first, then one section per selected module in precedence order.
// The result depends only on the selection and shares no slices with the
// catalog.
func (c *Catalog) ComposeSections(selected ModuleSet) ([]Section, error) {
	if len(selected) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "select at least one policy module")
	}
	for _, id := range selected {
		if _, ok := c.modules[id]; !ok {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown policy module: "+string(id))
		}
	}

	sections := make([]Section, 0, len(c.core)+len(selected))
	for _, s := range c.core {
		s.QuestionIDs = slices.Clone(s.QuestionIDs)
		sections = append(sections, s)
	}
	for _, id := range Precedence {
		if !selected.Contains(id) {
			continue
		}
		m := c.modules[id]
		sections = append(sections, Section{
			ID:          SectionID(m.ID),
			Title:       m.SectionTitle,
			Description: m.SectionDescription,
			Module:      m.ID,
			QuestionIDs: slices.Clone(m.QuestionIDs),
		})
	}
	return sections, nil
}

// ComposeSections composes against the default catalog.
func ComposeSections(selected ModuleSet) ([]Section, error) {
	return Default().ComposeSections(selected)
}

// ActiveQuestions returns the question ids of the given sections in order.
func ActiveQuestions(sections []Section) []QuestionID {
	var out []QuestionID
	for _, s := range sections {
		out = append(out, s.QuestionIDs...)
	}
	return out
}
