// Package catalog holds the question catalog, the module registry, and the
// section composer. The catalog is declared in catalog.yaml and compiled once
// at startup; everything it returns is immutable.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// SectionID identifies a wizard section: a core section or a module id.
type SectionID string

const (
	SectionCompany        SectionID = "core1"
	SectionInfrastructure SectionID = "core2"
)

// Section is one wizard step. Sections are derived from the module selection
// and never stored in the catalog's own tables.
type Section struct {
	ID          SectionID
	Title       string
	Description string
	Module      ModuleID // empty for core sections
	QuestionIDs []QuestionID
}

// Owns reports whether the section contains the question.
func (s Section) Owns(id QuestionID) bool {
	return slices.Contains(s.QuestionIDs, id)
}

// ConflictRule is a cross-field rule. When Check holds, Message is recorded
// against Target. Fields lists every question the rule reads.
type ConflictRule struct {
	ID      string
	Target  QuestionID
	Message string
	Fields  []QuestionID
	Check   Predicate
}

// Catalog is the compiled, read-only question catalog.
type Catalog struct {
	questions map[QuestionID]*Question
	core      []Section
	modules   map[ModuleID]Module
	conflicts []ConflictRule
}

type questionDoc struct {
	ID              QuestionID   `yaml:"id"`
	Number          int          `yaml:"number"`
	Prompt          string       `yaml:"prompt"`
	Type            QuestionType `yaml:"type"`
	Options         []string     `yaml:"options"`
	Format          *FormatRule  `yaml:"format"`
	Optional        bool         `yaml:"optional"`
	VisibleIf       *Condition   `yaml:"visible_if"`
	RequiredIf      *Condition   `yaml:"required_if"`
	RequiredMessage string       `yaml:"required_message"`
}

type sectionDoc struct {
	ID          SectionID     `yaml:"id"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Questions   []questionDoc `yaml:"questions"`
}

type moduleDoc struct {
	ID               ModuleID   `yaml:"id"`
	Name             string     `yaml:"name"`
	Summary          string     `yaml:"summary"`
	CISControls      string     `yaml:"cis_controls"`
	EstimatedMinutes int        `yaml:"estimated_minutes"`
	Complexity       int        `yaml:"complexity"`
	ComplexityLabel  string     `yaml:"complexity_label"`
	Section          sectionDoc `yaml:"section"`
}

type conflictDoc struct {
	ID      string     `yaml:"id"`
	Target  QuestionID `yaml:"target"`
	When    Condition  `yaml:"when"`
	Message string     `yaml:"message"`
}

type catalogDoc struct {
	CoreSections []sectionDoc  `yaml:"core_sections"`
	Modules      []moduleDoc   `yaml:"modules"`
	Conflicts    []conflictDoc `yaml:"conflicts"`
}

const defaultRequiredMessage = "This field is required"

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the catalog compiled from the embedded catalog.yaml. It
// panics if the embedded file is invalid, which the package tests rule out.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(embeddedCatalog)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded catalog is invalid: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}

// Load parses and validates a catalog document. It checks that question ids
// are unique, every registered module is declared exactly once, types and
// format rules are known, and every condition references a declared question.
func Load(data []byte) (*Catalog, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		questions: make(map[QuestionID]*Question),
		modules:   make(map[ModuleID]Module, len(doc.Modules)),
	}

	// Pass 1: register ids so conditions may reference questions declared later.
	declared := make(map[QuestionID]bool)
	register := func(sec sectionDoc) error {
		for _, q := range sec.Questions {
			if q.ID == "" {
				return fmt.Errorf("section %q: question without id", sec.ID)
			}
			if declared[q.ID] {
				return fmt.Errorf("duplicate question id %q", q.ID)
			}
			declared[q.ID] = true
		}
		return nil
	}
	for _, sec := range doc.CoreSections {
		if err := register(sec); err != nil {
			return nil, err
		}
	}
	for _, m := range doc.Modules {
		if err := register(m.Section); err != nil {
			return nil, err
		}
	}
	known := func(id QuestionID) bool { return declared[id] }

	if len(doc.CoreSections) == 0 {
		return nil, fmt.Errorf("catalog declares no core sections")
	}
	seenSections := make(map[SectionID]bool)
	for _, sec := range doc.CoreSections {
		if sec.ID == "" || seenSections[sec.ID] {
			return nil, fmt.Errorf("core section id %q is empty or duplicated", sec.ID)
		}
		if ModuleID(sec.ID).IsKnown() {
			return nil, fmt.Errorf("core section id %q collides with a module id", sec.ID)
		}
		seenSections[sec.ID] = true
		section, err := c.compileSection(sec.ID, sec, "", known)
		if err != nil {
			return nil, err
		}
		c.core = append(c.core, section)
	}

	for _, m := range doc.Modules {
		if !m.ID.IsKnown() {
			return nil, fmt.Errorf("unknown module id %q", m.ID)
		}
		if _, dup := c.modules[m.ID]; dup {
			return nil, fmt.Errorf("duplicate module id %q", m.ID)
		}
		section, err := c.compileSection(SectionID(m.ID), m.Section, m.ID, known)
		if err != nil {
			return nil, err
		}
		c.modules[m.ID] = Module{
			ID:                 m.ID,
			Name:               m.Name,
			Summary:            m.Summary,
			CISControls:        m.CISControls,
			EstimatedMinutes:   m.EstimatedMinutes,
			Complexity:         m.Complexity,
			ComplexityLabel:    m.ComplexityLabel,
			SectionTitle:       section.Title,
			SectionDescription: section.Description,
			QuestionIDs:        section.QuestionIDs,
		}
	}
	for _, id := range Precedence {
		if _, ok := c.modules[id]; !ok {
			return nil, fmt.Errorf("module %q is not declared", id)
		}
	}

	for _, cd := range doc.Conflicts {
		if cd.ID == "" || cd.Message == "" {
			return nil, fmt.Errorf("conflict rule needs an id and a message")
		}
		if !known(cd.Target) {
			return nil, fmt.Errorf("conflict %q: unknown target %q", cd.ID, cd.Target)
		}
		if err := cd.When.validate(known); err != nil {
			return nil, fmt.Errorf("conflict %q: %w", cd.ID, err)
		}
		fields := cd.When.Fields()
		if !slices.Contains(fields, cd.Target) {
			fields = append(fields, cd.Target)
		}
		c.conflicts = append(c.conflicts, ConflictRule{
			ID:      cd.ID,
			Target:  cd.Target,
			Message: cd.Message,
			Fields:  fields,
			Check:   cd.When.Compile(),
		})
	}
	return c, nil
}

func (c *Catalog) compileSection(id SectionID, doc sectionDoc, module ModuleID, known func(QuestionID) bool) (Section, error) {
	if doc.Title == "" {
		return Section{}, fmt.Errorf("section %q has no title", id)
	}
	if len(doc.Questions) == 0 {
		return Section{}, fmt.Errorf("section %q has no questions", id)
	}
	section := Section{
		ID:          id,
		Title:       doc.Title,
		Description: doc.Description,
		Module:      module,
		QuestionIDs: make([]QuestionID, 0, len(doc.Questions)),
	}
	for _, qd := range doc.Questions {
		q, err := compileQuestion(id, qd, known)
		if err != nil {
			return Section{}, err
		}
		c.questions[q.ID] = q
		section.QuestionIDs = append(section.QuestionIDs, q.ID)
	}
	return section, nil
}

func compileQuestion(section SectionID, qd questionDoc, known func(QuestionID) bool) (*Question, error) {
	if !qd.Type.valid() {
		return nil, fmt.Errorf("question %q: unknown type %q", qd.ID, qd.Type)
	}
	if qd.Type.IsChoice() && len(qd.Options) == 0 {
		return nil, fmt.Errorf("question %q: choice question without options", qd.ID)
	}
	if qd.Optional && qd.RequiredIf != nil {
		return nil, fmt.Errorf("question %q: optional and required_if are exclusive", qd.ID)
	}

	q := &Question{
		ID:              qd.ID,
		Section:         section,
		Number:          qd.Number,
		Prompt:          qd.Prompt,
		Type:            qd.Type,
		Options:         qd.Options,
		Format:          qd.Format,
		RequiredMessage: qd.RequiredMessage,
		VisibleIf:       Always,
		RequiredIf:      Always,
	}
	if q.RequiredMessage == "" {
		q.RequiredMessage = defaultRequiredMessage
	}
	if q.Type == TypeEmail && q.Format == nil {
		q.Format = &FormatRule{Kind: FormatEmail}
	}
	if q.Format != nil {
		switch q.Format.Kind {
		case FormatEmail, FormatInteger:
		default:
			return nil, fmt.Errorf("question %q: unknown format %q", qd.ID, q.Format.Kind)
		}
		if q.Format.Min != nil && q.Format.Max != nil && *q.Format.Min > *q.Format.Max {
			return nil, fmt.Errorf("question %q: format min exceeds max", qd.ID)
		}
	}
	if qd.Optional {
		q.RequiredIf = Never
	}

	if qd.VisibleIf != nil {
		if err := qd.VisibleIf.validate(known); err != nil {
			return nil, fmt.Errorf("question %q visible_if: %w", qd.ID, err)
		}
		q.VisibleIf = qd.VisibleIf.Compile()
		q.DependsOn = append(q.DependsOn, qd.VisibleIf.Fields()...)
	}
	if qd.RequiredIf != nil {
		if err := qd.RequiredIf.validate(known); err != nil {
			return nil, fmt.Errorf("question %q required_if: %w", qd.ID, err)
		}
		q.RequiredIf = qd.RequiredIf.Compile()
		for _, f := range qd.RequiredIf.Fields() {
			if !slices.Contains(q.DependsOn, f) {
				q.DependsOn = append(q.DependsOn, f)
			}
		}
	}
	return q, nil
}

// Question looks up a catalog entry.
func (c *Catalog) Question(id QuestionID) (*Question, bool) {
	q, ok := c.questions[id]
	return q, ok
}

// Module looks up a registry entry.
func (c *Catalog) Module(id ModuleID) (Module, bool) {
	m, ok := c.modules[id]
	if !ok {
		return Module{}, false
	}
	m.QuestionIDs = slices.Clone(m.QuestionIDs)
	return m, true
}

// Modules returns every registered module in precedence order.
func (c *Catalog) Modules() []Module {
	out := make([]Module, 0, len(Precedence))
	for _, id := range Precedence {
		m, _ := c.Module(id)
		out = append(out, m)
	}
	return out
}

// Conflicts returns the cross-field rule set.
func (c *Catalog) Conflicts() []ConflictRule {
	return slices.Clone(c.conflicts)
}

// ConflictsTouching returns the rules that read any of the section's questions.
func (c *Catalog) ConflictsTouching(section Section) []ConflictRule {
	var out []ConflictRule
	for _, r := range c.conflicts {
		for _, f := range r.Fields {
			if section.Owns(f) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
