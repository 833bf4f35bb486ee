package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	dErrors "policywriter/pkg/domain-errors"
)

// Catalog loading guards every invariant the engine relies on later: unique
// ids, declared modules, and conditions that only reference known questions.
type CatalogSuite struct {
	suite.Suite
	cat *Catalog
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}

func (s *CatalogSuite) SetupTest() {
	s.cat = Default()
}

func (s *CatalogSuite) TestEmbeddedCatalogLoads() {
	c, err := Load(embeddedCatalog)
	s.Require().NoError(err)
	s.Len(c.core, 2)
	s.Len(c.modules, 3)
	s.Len(c.Conflicts(), 1)
}

func (s *CatalogSuite) TestQuestionDefaults() {
	s.Run("required by default", func() {
		q, ok := s.cat.Question(QCompanyName)
		s.Require().True(ok)
		s.True(q.VisibleIf(Answers{}))
		s.True(q.RequiredIf(Answers{}))
		s.Equal("Company name is required", q.RequiredMessage)
		s.Equal(SectionCompany, q.Section)
	})

	s.Run("optional questions are never required", func() {
		q, ok := s.cat.Question(QCompliance)
		s.Require().True(ok)
		s.False(q.RequiredIf(Answers{}))
	})

	s.Run("email questions carry the email format", func() {
		q, ok := s.cat.Question("q7_it_email")
		s.Require().True(ok)
		s.Require().NotNil(q.Format)
		s.Equal(FormatEmail, q.Format.Kind)
	})
}

func (s *CatalogSuite) TestConditionalVisibility() {
	q, ok := s.cat.Question(QMFAName)
	s.Require().True(ok)
	s.Equal([]QuestionID{QMFA}, q.DependsOn)

	s.False(q.VisibleIf(Answers{}))
	s.False(q.VisibleIf(Answers{QMFA: "No"}))
	s.True(q.VisibleIf(Answers{QMFA: "Yes"}))
}

func (s *CatalogSuite) TestRequiredIfIncludes() {
	q, ok := s.cat.Question("q44_gdpr_notification")
	s.Require().True(ok)

	s.False(q.RequiredIf(Answers{}))
	s.False(q.RequiredIf(Answers{QCompliance: []string{"HIPAA"}}))
	s.True(q.RequiredIf(Answers{QCompliance: []string{"HIPAA", "GDPR"}}))
}

func (s *CatalogSuite) TestModules() {
	mods := s.cat.Modules()
	s.Require().Len(mods, 3)
	s.Equal(ModuleAUP, mods[0].ID)
	s.Equal(ModuleAccount, mods[1].ID)
	s.Equal(ModuleIncident, mods[2].ID)
	s.Equal("Beginner", mods[0].ComplexityLabel)
	s.Equal(10, mods[2].EstimatedMinutes)

	s.Run("returned question ids are copies", func() {
		m, _ := s.cat.Module(ModuleAUP)
		m.QuestionIDs[0] = "tampered"
		again, _ := s.cat.Module(ModuleAUP)
		s.Equal(QuestionID("q16_personal_use"), again.QuestionIDs[0])
	})
}

func (s *CatalogSuite) TestConflictsTouching() {
	sections, err := s.cat.ComposeSections(NewModuleSet(ModuleAUP))
	s.Require().NoError(err)

	byID := map[SectionID]Section{}
	for _, sec := range sections {
		byID[sec.ID] = sec
	}
	s.Len(s.cat.ConflictsTouching(byID[SectionCompany]), 0)
	s.Len(s.cat.ConflictsTouching(byID[SectionInfrastructure]), 1)
	s.Len(s.cat.ConflictsTouching(byID["aup"]), 1)
}

func TestLoadRejectsInvalidCatalogs(t *testing.T) {
	modules := `
modules:
  - id: aup
    name: AUP
    section: {title: A, questions: [{id: qa, type: text}]}
  - id: account
    name: Account
    section: {title: B, questions: [{id: qb, type: text}]}
  - id: incident
    name: Incident
    section: {title: C, questions: [{id: qc, type: text}]}
`
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "duplicate question id",
			doc:     "core_sections:\n  - {id: core1, title: T, questions: [{id: qa, type: text}]}\n" + modules,
			wantErr: "duplicate question id",
		},
		{
			name:    "unknown condition reference",
			doc:     "core_sections:\n  - {id: core1, title: T, questions: [{id: q1, type: text, visible_if: {question: nope, equals: x}}]}\n" + modules,
			wantErr: "unknown question",
		},
		{
			name:    "unknown type",
			doc:     "core_sections:\n  - {id: core1, title: T, questions: [{id: q1, type: date}]}\n" + modules,
			wantErr: "unknown type",
		},
		{
			name:    "choice without options",
			doc:     "core_sections:\n  - {id: core1, title: T, questions: [{id: q1, type: single_choice}]}\n" + modules,
			wantErr: "without options",
		},
		{
			name:    "ambiguous condition",
			doc:     "core_sections:\n  - {id: core1, title: T, questions: [{id: q1, type: text}, {id: q2, type: text, visible_if: {question: q1, equals: a, includes: b}}]}\n" + modules,
			wantErr: "exactly one",
		},
		{
			name:    "missing module",
			doc:     "core_sections:\n  - {id: core1, title: T, questions: [{id: q1, type: text}]}\nmodules:\n  - {id: aup, section: {title: A, questions: [{id: qa, type: text}]}}\n",
			wantErr: "is not declared",
		},
		{
			name:    "no core sections",
			doc:     modules,
			wantErr: "no core sections",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseModuleSet(t *testing.T) {
	t.Run("dedupes and orders by precedence", func(t *testing.T) {
		set, err := ParseModuleSet([]string{" incident", "AUP", "incident"})
		require.NoError(t, err)
		assert.Equal(t, []ModuleID{ModuleAUP, ModuleIncident}, set.IDs())
		assert.True(t, set.Contains(ModuleIncident))
		assert.False(t, set.Contains(ModuleAccount))
	})

	t.Run("unknown module is invalid input", func(t *testing.T) {
		_, err := ParseModuleSet([]string{"aup", "privacy"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("empty input yields an empty set", func(t *testing.T) {
		set, err := ParseModuleSet(nil)
		require.NoError(t, err)
		assert.Empty(t, set)
	})
}

func TestFromFlags(t *testing.T) {
	set, err := FromFlags(map[string]bool{"aup": false, "account": true, "incident": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"account", "incident"}, set.Strings())
	assert.Equal(t, map[string]bool{"aup": false, "account": true, "incident": true}, set.Flags())

	_, err = FromFlags(map[string]bool{"marketing": false})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestAnswersAccessors(t *testing.T) {
	a := Answers{
		"text":   "  hello ",
		"int":    42,
		"float":  float64(7),
		"frac":   7.5,
		"raw":    "abc",
		"multi":  []string{"A", "B"},
		"anys":   []any{"A", 3, "C"},
		"blank":  "   ",
		"empty":  []string{},
		"digits": " 12 ",
	}

	assert.Equal(t, "  hello ", a.Text("text"))
	assert.Equal(t, "42", a.Text("int"))
	assert.Equal(t, "", a.Text("multi"))

	n, ok := a.Int("float")
	assert.True(t, ok)
	assert.Equal(t, 7, n)
	_, ok = a.Int("frac")
	assert.False(t, ok)
	_, ok = a.Int("raw")
	assert.False(t, ok)
	n, ok = a.Int("digits")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	assert.Equal(t, []string{"A", "C"}, a.Choices("anys"))
	assert.True(t, a.IsBlank("blank"))
	assert.True(t, a.IsBlank("empty"))
	assert.True(t, a.IsBlank("missing"))
	assert.False(t, a.IsBlank("int"))

	clone := a.Clone()
	clone["multi"].([]string)[0] = "Z"
	assert.Equal(t, "A", a.Choices("multi")[0])
}

func TestConditionCombinators(t *testing.T) {
	yes, no := "Yes", "No"
	cond := Condition{Any: []Condition{
		{Question: "a", Equals: &yes},
		{All: []Condition{
			{Question: "b", Equals: &no},
			{Question: "c", Includes: &yes},
		}},
	}}
	p := cond.Compile()

	assert.True(t, p(Answers{"a": "Yes"}))
	assert.False(t, p(Answers{"b": "No"}))
	assert.True(t, p(Answers{"b": "No", "c": []string{"Yes"}}))
	assert.Equal(t, []QuestionID{"a", "b", "c"}, cond.Fields())
}
