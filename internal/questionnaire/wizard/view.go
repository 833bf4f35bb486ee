package wizard

import (
	"time"

	"policywriter/internal/questionnaire/catalog"
	"policywriter/internal/questionnaire/validation"
	"policywriter/pkg/domain"
)

// View is an immutable snapshot of a session for rendering.
type View struct {
	ID           domain.SessionID
	Status       Status
	Selected     []catalog.ModuleID
	Sections     []SectionSummary
	CurrentIndex int
	Current      SectionView
	IsFirst      bool
	IsLast       bool
	Answers      catalog.Answers
	Errors       validation.Errors
	Progress     Progress
	Receipt      *Receipt
	LastFailure  string
	Attempts     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SectionSummary is one entry of the step list.
type SectionSummary struct {
	ID    catalog.SectionID
	Title string
}

// SectionView is the current section with its visible questions.
type SectionView struct {
	ID          catalog.SectionID
	Title       string
	Description string
	Module      catalog.ModuleID
	Questions   []QuestionView
}

// QuestionView is a visible question with its current answer and error.
type QuestionView struct {
	ID       catalog.QuestionID
	Number   int
	Prompt   string
	Type     catalog.QuestionType
	Options  []string
	Required bool
	Answer   any
	Error    string
}

// Progress mirrors the step indicator: Current is 1-based.
type Progress struct {
	Current int
	Total   int
	Percent int
}

// View returns a snapshot that shares no mutable state with the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := s.answers.Clone()
	v := View{
		ID:           s.id,
		Status:       s.status,
		Selected:     s.selected.IDs(),
		Sections:     make([]SectionSummary, len(s.sections)),
		CurrentIndex: s.current,
		IsFirst:      s.current == 0,
		IsLast:       s.current == len(s.sections)-1,
		Answers:      answers,
		Errors:       s.errors.Clone(),
		Progress: Progress{
			Current: s.current + 1,
			Total:   len(s.sections),
			Percent: (s.current + 1) * 100 / len(s.sections),
		},
		LastFailure: s.lastFailure,
		Attempts:    s.attempts,
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
	for i, sec := range s.sections {
		v.Sections[i] = SectionSummary{ID: sec.ID, Title: sec.Title}
	}
	if s.receipt != nil {
		r := *s.receipt
		v.Receipt = &r
	}

	sec := s.sections[s.current]
	v.Current = SectionView{
		ID:          sec.ID,
		Title:       sec.Title,
		Description: sec.Description,
		Module:      sec.Module,
	}
	for _, id := range sec.QuestionIDs {
		q, ok := s.catalog.Question(id)
		if !ok || !q.VisibleIf(answers) {
			continue
		}
		v.Current.Questions = append(v.Current.Questions, QuestionView{
			ID:       q.ID,
			Number:   q.Number,
			Prompt:   q.Prompt,
			Type:     q.Type,
			Options:  append([]string(nil), q.Options...),
			Required: q.RequiredIf(answers),
			Answer:   answers[q.ID],
			Error:    v.Errors[q.ID],
		})
	}
	return v
}
