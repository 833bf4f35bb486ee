// Package service orchestrates questionnaire sessions: it owns the session
// lifecycle around the wizard, drives the handoff to the policy backend and
// runs document generation after a successful submit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"policywriter/internal/audit"
	"policywriter/internal/collaborator"
	"policywriter/internal/questionnaire/catalog"
	"policywriter/internal/questionnaire/metrics"
	"policywriter/internal/questionnaire/models"
	"policywriter/internal/questionnaire/ports"
	"policywriter/internal/questionnaire/validation"
	"policywriter/internal/questionnaire/wizard"
	"policywriter/pkg/domain"
	dErrors "policywriter/pkg/domain-errors"
	"policywriter/pkg/platform/device"
	"policywriter/pkg/platform/sentinel"
	"policywriter/pkg/requestcontext"
)

const (
	defaultGenerateTimeout = 30 * time.Second
	genericGenerateFailure = "Failed to generate policy. Please try again."
)

// Service is the entry point for every questionnaire operation.
type Service struct {
	sessions        ports.SessionStore
	backend         ports.PolicyBackend
	catalog         *catalog.Catalog
	logger          *slog.Logger
	auditPublisher  ports.AuditPublisher
	metrics         *metrics.Metrics
	now             func() time.Time
	generateTimeout time.Duration

	background sync.WaitGroup
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithGenerateTimeout bounds background document generation, which runs
// detached from the submit request.
func WithGenerateTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.generateTimeout = d
		}
	}
}

// New constructs a Service.
func New(sessions ports.SessionStore, backend ports.PolicyBackend, opts ...Option) *Service {
	s := &Service{
		sessions:        sessions,
		backend:         backend,
		logger:          slog.Default(),
		now:             time.Now,
		generateTimeout: defaultGenerateTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	return s
}

// Modules lists the selectable policy modules in precedence order.
func (s *Service) Modules() []catalog.Module {
	return s.catalog.Modules()
}

// StartSession validates the selection, composes its sections and stores a
// new session positioned on the first section.
func (s *Service) StartSession(ctx context.Context, modules []string, userAgent string) (*models.Record, error) {
	selected, err := catalog.ParseModuleSet(modules)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "select at least one policy module")
	}

	session, err := wizard.New(domain.NewSessionID(), selected, wizard.WithCatalog(s.catalog), wizard.WithClock(s.now))
	if err != nil {
		return nil, err
	}
	rec := models.NewRecord(session, device.ParseUserAgent(userAgent))
	if err := s.sessions.Save(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store session")
	}

	s.metrics.IncSessionStarted(strings.Join(selected.Strings(), "+"))
	s.logger.InfoContext(ctx, "questionnaire session started",
		"session_id", session.ID(),
		"modules", selected.Strings(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, rec, audit.Event{Action: audit.ActionSessionStarted})
	return rec, nil
}

// Session loads a stored session.
func (s *Service) Session(ctx context.Context, id domain.SessionID) (*models.Record, error) {
	rec, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	return rec, nil
}

// SetAnswer records one answer and returns the session with its updated view.
func (s *Service) SetAnswer(ctx context.Context, id domain.SessionID, question catalog.QuestionID, value any) (*models.Record, wizard.View, error) {
	rec, err := s.Session(ctx, id)
	if err != nil {
		return nil, wizard.View{}, err
	}
	if err := rec.Session.SetAnswer(question, value); err != nil {
		return nil, wizard.View{}, err
	}
	return rec, rec.Session.View(), nil
}

// Next validates the current section and advances when it is clean. A
// non-empty Errors is a validation outcome, not a failure.
func (s *Service) Next(ctx context.Context, id domain.SessionID) (*models.Record, wizard.View, validation.Errors, error) {
	rec, err := s.Session(ctx, id)
	if err != nil {
		return nil, wizard.View{}, nil, err
	}
	section := rec.Session.View().Current.ID
	errs, err := rec.Session.Next()
	if err != nil {
		return nil, wizard.View{}, nil, err
	}
	if len(errs) > 0 {
		s.metrics.IncTransition("next", "blocked")
		s.metrics.IncValidationFailure(string(section))
		s.logger.DebugContext(ctx, "section validation failed",
			"session_id", id,
			"section", section,
			"fields", len(errs),
		)
		return rec, rec.Session.View(), errs, nil
	}
	view := rec.Session.View()
	if view.Current.ID == section {
		s.metrics.IncTransition("next", "stayed")
	} else {
		s.metrics.IncTransition("next", "moved")
	}
	return rec, view, nil, nil
}

// Back moves one section back without validating.
func (s *Service) Back(ctx context.Context, id domain.SessionID) (*models.Record, wizard.View, error) {
	rec, err := s.Session(ctx, id)
	if err != nil {
		return nil, wizard.View{}, err
	}
	before := rec.Session.View().CurrentIndex
	if err := rec.Session.Back(); err != nil {
		return nil, wizard.View{}, err
	}
	view := rec.Session.View()
	if view.CurrentIndex == before {
		s.metrics.IncTransition("back", "stayed")
	} else {
		s.metrics.IncTransition("back", "moved")
	}
	return rec, view, nil
}

// Submit validates the whole questionnaire and hands it to the policy
// backend. On success document generation starts in the background.
func (s *Service) Submit(ctx context.Context, id domain.SessionID) (*models.Record, wizard.View, validation.Errors, error) {
	rec, err := s.Session(ctx, id)
	if err != nil {
		return nil, wizard.View{}, nil, err
	}

	start := s.now()
	receipt, errs, err := rec.Session.Submit(ctx, s.backend)
	elapsed := s.now().Sub(start)

	switch {
	case len(errs) > 0:
		view := rec.Session.View()
		s.metrics.ObserveSubmission("invalid", elapsed)
		s.metrics.IncValidationFailure(string(view.Current.ID))
		return rec, view, errs, nil
	case dErrors.HasCode(err, dErrors.CodeBadGateway):
		detail := rec.Session.View().LastFailure
		s.metrics.ObserveSubmission("failed", elapsed)
		s.logger.WarnContext(ctx, "questionnaire submission failed",
			"session_id", id,
			"category", collaborator.CategoryOf(err),
			"retryable", collaborator.IsRetryable(err),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		s.emit(ctx, rec, audit.Event{Action: audit.ActionSubmissionFailed, Detail: detail})
		return nil, wizard.View{}, nil, err
	case err != nil:
		s.metrics.ObserveSubmission("rejected", elapsed)
		return nil, wizard.View{}, nil, err
	}

	s.metrics.ObserveSubmission("submitted", elapsed)
	s.logger.InfoContext(ctx, "questionnaire submitted",
		"session_id", id,
		"org_id", receipt.OrgID,
		"questionnaire_id", receipt.QuestionnaireID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, rec, audit.Event{Action: audit.ActionSubmissionSucceeded})
	s.startGeneration(ctx, rec, *receipt, models.DocumentNone)
	return rec, rec.Session.View(), nil, nil
}

// Document returns the generation state of a session.
func (s *Service) Document(ctx context.Context, id domain.SessionID) (models.DocumentState, error) {
	rec, err := s.Session(ctx, id)
	if err != nil {
		return models.DocumentState{}, err
	}
	return rec.Document(), nil
}

// RetryDocument restarts generation for a submitted session whose last
// attempt failed.
func (s *Service) RetryDocument(ctx context.Context, id domain.SessionID) (models.DocumentState, error) {
	rec, err := s.Session(ctx, id)
	if err != nil {
		return models.DocumentState{}, err
	}
	receipt, ok := rec.Session.Receipt()
	if !ok {
		return models.DocumentState{}, dErrors.New(dErrors.CodeInvalidState, "questionnaire has not been submitted")
	}
	state, started := s.startGeneration(ctx, rec, receipt, models.DocumentFailed)
	if started {
		return state, nil
	}
	switch state.Status {
	case models.DocumentPending:
		return state, dErrors.New(dErrors.CodeConflict, "document generation is already in progress")
	case models.DocumentReady:
		return state, dErrors.New(dErrors.CodeInvalidState, "document has already been generated")
	default:
		return state, dErrors.New(dErrors.CodeInvalidState, "document generation has not started")
	}
}

// EndSession discards a session.
func (s *Service) EndSession(ctx context.Context, id domain.SessionID) error {
	rec, err := s.Session(ctx, id)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to end session")
	}
	status := rec.Session.Status()
	s.metrics.IncSessionEnded(string(status))
	s.emit(ctx, rec, audit.Event{Action: audit.ActionSessionEnded, Detail: string(status)})
	return nil
}

// Wait blocks until background document generations have finished.
func (s *Service) Wait() {
	s.background.Wait()
}

func (s *Service) startGeneration(ctx context.Context, rec *models.Record, receipt wizard.Receipt, from models.DocumentStatus) (models.DocumentState, bool) {
	state, ok := rec.BeginDocument(s.now(), from)
	if !ok {
		return state, false
	}

	// Detached from the request so a client hanging up does not cancel
	// generation; request-scoped values are kept for logs.
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.generateTimeout)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer cancel()
		s.generate(genCtx, rec, receipt)
	}()
	return state, true
}

func (s *Service) generate(ctx context.Context, rec *models.Record, receipt wizard.Receipt) {
	doc, err := s.backend.GenerateDocument(ctx, receipt.OrgID, receipt.QuestionnaireID)
	if err != nil {
		detail := genericGenerateFailure
		var ce *collaborator.Error
		if errors.As(err, &ce) && ce.Detail != "" {
			detail = ce.Detail
		}
		rec.FailDocument(s.now(), detail)
		s.metrics.IncDocument("failed")
		s.logger.WarnContext(ctx, "policy document generation failed",
			"session_id", rec.Session.ID(),
			"org_id", receipt.OrgID,
			"error", err,
		)
		s.emit(ctx, rec, audit.Event{Action: audit.ActionDocumentFailed, Detail: detail, Timestamp: s.now()})
		return
	}
	rec.CompleteDocument(s.now(), doc.PolicyID, doc.DocumentURL, doc.Filename)
	s.metrics.IncDocument("ready")
	s.logger.InfoContext(ctx, "policy document generated",
		"session_id", rec.Session.ID(),
		"policy_id", doc.PolicyID,
	)
	s.emit(ctx, rec, audit.Event{Action: audit.ActionDocumentGenerated, Detail: doc.Filename, Timestamp: s.now()})
}

func (s *Service) emit(ctx context.Context, rec *models.Record, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.SessionID = rec.Session.ID().String()
	event.Modules = rec.Session.Selected().Strings()
	event.Client = rec.Client
	event.RequestID = requestcontext.RequestID(ctx)
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if receipt, ok := rec.Session.Receipt(); ok {
		event.OrgID = receipt.OrgID
		event.QuestionnaireID = receipt.QuestionnaireID
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"session_id", event.SessionID,
			"error", err,
		)
	}
}
