// Package wizard owns the state of one questionnaire session: the composed
// sections, the cursor, the answers, the last validation result, and the
// submission lifecycle.
//
// Status transitions:
//
//	editing --Submit--> submitting --ok--> submitted (terminal)
//	                               --err-> failed --any mutation--> editing
//
// Every transition happens under the session mutex. The collaborator calls in
// Submit run with the mutex released while the status is submitting, so
// concurrent callers are rejected instead of blocked.
package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"policywriter/internal/questionnaire/catalog"
	"policywriter/internal/questionnaire/submission"
	"policywriter/internal/questionnaire/validation"
	"policywriter/pkg/domain"
	dErrors "policywriter/pkg/domain-errors"
)

// Status is the submission lifecycle state of a session.
type Status string

const (
	StatusEditing    Status = "editing"
	StatusSubmitting Status = "submitting"
	StatusSubmitted  Status = "submitted"
	StatusFailed     Status = "failed"
)

const genericSubmitFailure = "Failed to submit questionnaire. Please try again."

var tracer = otel.Tracer("policywriter/wizard")

// Handoff delivers an assembled submission to the external collaborators.
type Handoff interface {
	RegisterOrganization(ctx context.Context, org submission.OrgPayload) (string, error)
	SubmitQuestionnaire(ctx context.Context, orgID string, q submission.QuestionnairePayload) (string, error)
}

// Receipt records a successful handoff.
type Receipt struct {
	OrgID           string
	QuestionnaireID string
	SubmittedAt     time.Time
}

// Session is a single wizard. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id       domain.SessionID
	catalog  *catalog.Catalog
	engine   *validation.Engine
	selected catalog.ModuleSet
	sections []catalog.Section
	active   map[catalog.QuestionID]bool
	now      func() time.Time

	current     int
	answers     catalog.Answers
	errors      validation.Errors
	status      Status
	receipt     *Receipt
	lastFailure string
	attempts    int
	createdAt   time.Time
	updatedAt   time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithCatalog replaces the default catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Session) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// New composes the sections for selected and returns a session positioned on
// the first section. Composition errors are returned unchanged.
func New(id domain.SessionID, selected catalog.ModuleSet, opts ...Option) (*Session, error) {
	s := &Session{
		id:      id,
		catalog: catalog.Default(),
		now:     time.Now,
		answers: catalog.Answers{},
		errors:  validation.Errors{},
		status:  StatusEditing,
	}
	for _, opt := range opts {
		opt(s)
	}
	sections, err := s.catalog.ComposeSections(selected)
	if err != nil {
		return nil, err
	}
	s.engine = validation.NewEngine(s.catalog)
	s.selected = catalog.NewModuleSet(selected...)
	s.sections = sections
	s.active = make(map[catalog.QuestionID]bool)
	for _, qid := range catalog.ActiveQuestions(sections) {
		s.active[qid] = true
	}
	s.createdAt = s.now()
	s.updatedAt = s.createdAt
	return s, nil
}

func (s *Session) ID() domain.SessionID { return s.id }

// Selected returns the module selection; it never changes after New.
func (s *Session) Selected() catalog.ModuleSet { return s.selected.IDs() }

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Receipt returns the handoff receipt once submitted.
func (s *Session) Receipt() (Receipt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.receipt == nil {
		return Receipt{}, false
	}
	return *s.receipt, true
}

// SetAnswer stores a normalized value for an active question and clears that
// question's error entry. A nil value removes the answer.
func (s *Session) SetAnswer(id catalog.QuestionID, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginMutation(); err != nil {
		return err
	}
	q, ok := s.catalog.Question(id)
	if !ok {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown question: "+string(id))
	}
	if !s.active[id] {
		return dErrors.New(dErrors.CodeInvalidInput, "question "+string(id)+" is not part of the selected modules")
	}
	normalized, remove, err := normalize(q, value)
	if err != nil {
		return err
	}
	if remove {
		delete(s.answers, id)
	} else {
		s.answers[id] = normalized
	}
	delete(s.errors, id)
	s.touch()
	return nil
}

// Next validates the current section. With no errors the cursor advances
// (it stays put on the last section); otherwise the errors are stored and
// returned and the cursor stays.
func (s *Session) Next() (validation.Errors, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginMutation(); err != nil {
		return nil, err
	}
	errs := s.engine.ValidateSectionIn(s.sections[s.current], s.sections, s.answers)
	s.errors = errs
	if len(errs) == 0 && s.current < len(s.sections)-1 {
		s.current++
	}
	s.touch()
	return errs.Clone(), nil
}

// Back moves the cursor one section back. It never validates and never
// touches answers or errors.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginMutation(); err != nil {
		return err
	}
	if s.current > 0 {
		s.current--
	}
	s.touch()
	return nil
}

// Submit validates every active section and, when clean, hands the assembled
// payloads to h: the organization first, then the questionnaire.
//
// Validation failures are returned as Errors with a nil error; the cursor
// moves to the first section with an error. A collaborator failure leaves the
// session failed with answers and cursor untouched and returns a
// CodeBadGateway error carrying the collaborator's detail. Calling Submit
// again retries with a payload re-assembled from the current answers.
func (s *Session) Submit(ctx context.Context, h Handoff) (*Receipt, validation.Errors, error) {
	ctx, span := tracer.Start(ctx, "wizard.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", s.id.String()),
		attribute.StringSlice("session.modules", s.selected.Strings()),
	)

	s.mu.Lock()
	if err := s.beginMutation(); err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	if s.current != len(s.sections)-1 {
		s.mu.Unlock()
		return nil, nil, dErrors.New(dErrors.CodeInvalidState, "submit is only available on the last section")
	}
	if errs := s.engine.ValidateAll(s.sections, s.answers); len(errs) > 0 {
		s.errors = errs
		if first := validation.FirstSectionWithErrors(s.sections, errs); first >= 0 {
			s.current = first
		}
		s.touch()
		s.mu.Unlock()
		span.SetAttributes(attribute.Int("validation.errors", len(errs)))
		return nil, errs.Clone(), nil
	}
	org, questionnaire, err := submission.Assemble(s.answers, s.selected)
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	s.errors = validation.Errors{}
	s.status = StatusSubmitting
	s.attempts++
	s.touch()
	s.mu.Unlock()

	receipt, err := handoff(ctx, h, org, questionnaire)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if err != nil {
		detail := failureDetail(err)
		s.status = StatusFailed
		s.lastFailure = detail
		span.RecordError(err)
		span.SetStatus(codes.Error, detail)
		return nil, nil, dErrors.Wrap(err, dErrors.CodeBadGateway, detail)
	}
	receipt.SubmittedAt = s.now()
	s.receipt = &receipt
	s.lastFailure = ""
	s.status = StatusSubmitted
	out := receipt
	return &out, nil, nil
}

func handoff(ctx context.Context, h Handoff, org submission.OrgPayload, q submission.QuestionnairePayload) (Receipt, error) {
	orgID, err := h.RegisterOrganization(ctx, org)
	if err != nil {
		return Receipt{}, err
	}
	questionnaireID, err := h.SubmitQuestionnaire(ctx, orgID, q)
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{OrgID: orgID, QuestionnaireID: questionnaireID}, nil
}

// detailer is implemented by collaborator errors that carry a message meant
// for the person filling in the questionnaire.
type detailer interface {
	UserMessage() string
}

func failureDetail(err error) string {
	var d detailer
	if errors.As(err, &d) && d.UserMessage() != "" {
		return d.UserMessage()
	}
	if de, ok := dErrors.As(err); ok && de.Message != "" {
		return de.Message
	}
	return genericSubmitFailure
}

// beginMutation gates every mutating call. Caller holds s.mu.
func (s *Session) beginMutation() error {
	switch s.status {
	case StatusSubmitting:
		return dErrors.New(dErrors.CodeConflict, "a submission is already in progress")
	case StatusSubmitted:
		return dErrors.New(dErrors.CodeInvalidState, "questionnaire has already been submitted")
	case StatusFailed:
		s.status = StatusEditing
	}
	return nil
}

func (s *Session) touch() {
	s.updatedAt = s.now()
}
