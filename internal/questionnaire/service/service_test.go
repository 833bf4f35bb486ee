package service

//go:generate mockgen -source=../ports/ports.go -destination=mocks/mocks.go -package=mocks PolicyBackend,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"policywriter/internal/audit"
	"policywriter/internal/collaborator"
	"policywriter/internal/questionnaire/catalog"
	"policywriter/internal/questionnaire/catalog/catalogtest"
	"policywriter/internal/questionnaire/metrics"
	"policywriter/internal/questionnaire/models"
	"policywriter/internal/questionnaire/service/mocks"
	"policywriter/internal/questionnaire/store"
	"policywriter/internal/questionnaire/wizard"
	"policywriter/pkg/domain"
	dErrors "policywriter/pkg/domain-errors"
	"policywriter/pkg/requestcontext"
)

const chromeMac = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	backend  *mocks.MockPolicyBackend
	sessions *store.InMemorySessionStore
	events   *audit.InMemoryStore
	metrics  *metrics.Metrics
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithRequestID(context.Background(), "req-1")
	s.ctrl = gomock.NewController(s.T())
	s.backend = mocks.NewMockPolicyBackend(s.ctrl)
	var err error
	s.sessions, err = store.NewInMemorySessionStore(time.Hour)
	s.Require().NoError(err)
	s.events = audit.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.sessions, s.backend,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithAuditPublisher(audit.NewPublisher(s.events)),
	)
}

func (s *ServiceSuite) start(modules ...string) domain.SessionID {
	rec, err := s.service.StartSession(s.ctx, modules, chromeMac)
	s.Require().NoError(err)
	return rec.Session.ID()
}

func (s *ServiceSuite) walkToLast(id domain.SessionID, answers catalog.Answers) {
	for qid, v := range answers {
		_, _, err := s.service.SetAnswer(s.ctx, id, qid, v)
		s.Require().NoError(err, "answer %s", qid)
	}
	for {
		_, view, errs, err := s.service.Next(s.ctx, id)
		s.Require().NoError(err)
		s.Require().Empty(errs)
		if view.IsLast {
			return
		}
	}
}

func (s *ServiceSuite) actions(id domain.SessionID) []audit.Action {
	events, err := s.events.ListBySession(context.Background(), id.String())
	s.Require().NoError(err)
	out := make([]audit.Action, 0, len(events))
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}

func (s *ServiceSuite) expectHandoff(orgID, questionnaireID string) {
	gomock.InOrder(
		s.backend.EXPECT().RegisterOrganization(gomock.Any(), gomock.Any()).Return(orgID, nil),
		s.backend.EXPECT().SubmitQuestionnaire(gomock.Any(), orgID, gomock.Any()).Return(questionnaireID, nil),
	)
}

func (s *ServiceSuite) TestStartSession() {
	s.Run("empty selection fails before a session exists", func() {
		_, err := s.service.StartSession(s.ctx, nil, chromeMac)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(0, s.sessions.Len())
	})

	s.Run("unknown module", func() {
		_, err := s.service.StartSession(s.ctx, []string{"aup", "hr"}, chromeMac)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("stores the session and records the client", func() {
		rec, err := s.service.StartSession(s.ctx, []string{"incident", "AUP"}, chromeMac)
		s.Require().NoError(err)
		s.Equal(catalog.ModuleSet{catalog.ModuleAUP, catalog.ModuleIncident}, rec.Session.Selected())
		s.Contains(rec.Client, "Chrome")

		loaded, err := s.service.Session(s.ctx, rec.Session.ID())
		s.Require().NoError(err)
		s.Same(rec, loaded)
		s.Equal([]audit.Action{audit.ActionSessionStarted}, s.actions(rec.Session.ID()))
		s.Equal(1.0, promtest.ToFloat64(s.metrics.SessionsStarted.WithLabelValues("aup+incident")))
	})
}

func (s *ServiceSuite) TestUnknownSession() {
	_, err := s.service.Session(s.ctx, domain.NewSessionID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, _, _, err = s.service.Next(s.ctx, domain.NewSessionID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestNextReportsValidationAndCountsIt() {
	id := s.start("aup")

	rec, view, errs, err := s.service.Next(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(id, rec.Session.ID())
	s.Contains(rec.Client, "Chrome")
	s.Contains(errs, catalog.QCompanyName)
	s.Equal(0, view.CurrentIndex)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.ValidationFailures.WithLabelValues(string(catalog.SectionCompany))))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Transitions.WithLabelValues("next", "blocked")))

	back, view, err := s.service.Back(s.ctx, id)
	s.Require().NoError(err)
	s.Same(rec, back)
	s.Equal(0, view.CurrentIndex)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Transitions.WithLabelValues("back", "stayed")))
}

func (s *ServiceSuite) TestSubmitThenGenerateDocument() {
	id := s.start("aup")
	s.walkToLast(id, catalogtest.Merge(catalogtest.AcmeCore(), catalogtest.AcmeAUP()))

	s.expectHandoff("org-1", "q-1")
	generated := make(chan struct{})
	s.backend.EXPECT().GenerateDocument(gomock.Any(), "org-1", "q-1").
		DoAndReturn(func(context.Context, string, string) (collaborator.Document, error) {
			<-generated
			return collaborator.Document{PolicyID: "p-1", DocumentURL: "/download/policies/acme.docx", Filename: "acme.docx"}, nil
		})

	rec, view, errs, err := s.service.Submit(s.ctx, id)
	s.Require().NoError(err)
	s.Empty(errs)
	s.Equal(wizard.StatusSubmitted, view.Status)
	s.Equal(models.DocumentPending, rec.Document().Status)

	doc, err := s.service.Document(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.DocumentPending, doc.Status)

	close(generated)
	s.service.Wait()

	doc, err = s.service.Document(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.DocumentReady, doc.Status)
	s.Equal("/download/policies/acme.docx", doc.DocumentURL)
	s.Equal(1, doc.Attempts)
	s.Equal([]audit.Action{
		audit.ActionSessionStarted,
		audit.ActionSubmissionSucceeded,
		audit.ActionDocumentGenerated,
	}, s.actions(id))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Submissions.WithLabelValues("submitted")))

	_, err = s.service.RetryDocument(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ServiceSuite) TestGenerationSurvivesRequestCancellation() {
	id := s.start("aup")
	s.walkToLast(id, catalogtest.Merge(catalogtest.AcmeCore(), catalogtest.AcmeAUP()))
	s.expectHandoff("org-1", "q-1")

	ctx, cancel := context.WithCancel(s.ctx)
	s.backend.EXPECT().GenerateDocument(gomock.Any(), "org-1", "q-1").
		DoAndReturn(func(genCtx context.Context, _, _ string) (collaborator.Document, error) {
			cancel()
			if genCtx.Err() != nil {
				return collaborator.Document{}, genCtx.Err()
			}
			s.Equal("req-1", requestcontext.RequestID(genCtx))
			return collaborator.Document{PolicyID: "p-1", DocumentURL: "/d", Filename: "d.docx"}, nil
		})

	_, _, _, err := s.service.Submit(ctx, id)
	s.Require().NoError(err)
	s.service.Wait()

	doc, err := s.service.Document(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.DocumentReady, doc.Status)
}

func (s *ServiceSuite) TestDocumentFailureAndRetry() {
	id := s.start("aup")
	s.walkToLast(id, catalogtest.Merge(catalogtest.AcmeCore(), catalogtest.AcmeAUP()))
	s.expectHandoff("org-1", "q-1")

	gomock.InOrder(
		s.backend.EXPECT().GenerateDocument(gomock.Any(), "org-1", "q-1").
			Return(collaborator.Document{}, &collaborator.Error{Category: collaborator.CategoryNotFound, Detail: "Questionnaire not found"}),
		s.backend.EXPECT().GenerateDocument(gomock.Any(), "org-1", "q-1").
			Return(collaborator.Document{PolicyID: "p-2", DocumentURL: "/d", Filename: "d.docx"}, nil),
	)

	_, _, _, err := s.service.Submit(s.ctx, id)
	s.Require().NoError(err)
	s.service.Wait()

	doc, err := s.service.Document(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.DocumentFailed, doc.Status)
	s.Equal("Questionnaire not found", doc.Detail)

	doc, err = s.service.RetryDocument(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.DocumentPending, doc.Status)
	s.Equal(2, doc.Attempts)
	s.service.Wait()

	doc, err = s.service.Document(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(models.DocumentReady, doc.Status)
	s.Empty(doc.Detail)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Documents.WithLabelValues("failed")))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Documents.WithLabelValues("ready")))
}

func (s *ServiceSuite) TestRetryDocumentBeforeSubmit() {
	id := s.start("aup")
	_, err := s.service.RetryDocument(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ServiceSuite) TestSubmitFailureIsRecordedAndRetryable() {
	id := s.start("aup")
	s.walkToLast(id, catalogtest.Merge(catalogtest.AcmeCore(), catalogtest.AcmeAUP()))

	backendErr := &collaborator.Error{
		Category:  collaborator.CategoryOutage,
		Operation: collaborator.OpRegisterOrganization,
		Detail:    "failed to register organization",
		Retryable: true,
	}
	s.backend.EXPECT().RegisterOrganization(gomock.Any(), gomock.Any()).Return("", backendErr)

	_, _, _, err := s.service.Submit(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeBadGateway))
	s.True(collaborator.IsRetryable(err))

	rec, err := s.service.Session(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(wizard.StatusFailed, rec.Session.Status())
	s.Equal(models.DocumentNone, rec.Document().Status)

	events, err := s.events.ListBySession(context.Background(), id.String())
	s.Require().NoError(err)
	last := events[len(events)-1]
	s.Equal(audit.ActionSubmissionFailed, last.Action)
	s.Equal(audit.CategoryCompliance, last.Category)
	s.Equal("failed to register organization", last.Detail)

	s.expectHandoff("org-2", "q-2")
	s.backend.EXPECT().GenerateDocument(gomock.Any(), "org-2", "q-2").
		Return(collaborator.Document{PolicyID: "p", DocumentURL: "/d", Filename: "d"}, nil)

	_, view, errs, err := s.service.Submit(s.ctx, id)
	s.Require().NoError(err)
	s.Empty(errs)
	s.Equal(2, view.Attempts)
	s.service.Wait()
}

func (s *ServiceSuite) TestSubmitWithValidationErrors() {
	id := s.start("aup")
	s.walkToLast(id, catalogtest.Merge(catalogtest.AcmeCore(), catalogtest.AcmeAUP()))

	_, _, err := s.service.SetAnswer(s.ctx, id, catalog.QCompanyName, "")
	s.Require().NoError(err)

	_, view, errs, err := s.service.Submit(s.ctx, id)
	s.Require().NoError(err)
	s.Contains(errs, catalog.QCompanyName)
	s.Equal(0, view.CurrentIndex)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Submissions.WithLabelValues("invalid")))
}

func (s *ServiceSuite) TestEndSession() {
	id := s.start("account")
	s.Require().NoError(s.service.EndSession(s.ctx, id))

	_, err := s.service.Session(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.True(dErrors.HasCode(s.service.EndSession(s.ctx, id), dErrors.CodeNotFound))
	s.Equal([]audit.Action{audit.ActionSessionStarted, audit.ActionSessionEnded}, s.actions(id))
}

func (s *ServiceSuite) TestAuditFailuresDoNotFailOperations() {
	publisher := mocks.NewMockAuditPublisher(s.ctrl)
	svc := New(s.sessions, s.backend,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(publisher),
	)
	var mu sync.Mutex
	var got audit.Event
	publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = e
		return errors.New("audit sink down")
	})

	rec, err := svc.StartSession(s.ctx, []string{"aup"}, chromeMac)
	s.Require().NoError(err)
	s.Equal(rec.Session.ID().String(), got.SessionID)
	s.Equal([]string{"aup"}, got.Modules)
	s.Equal("req-1", got.RequestID)
}

func (s *ServiceSuite) TestModules() {
	modules := s.service.Modules()
	s.Require().Len(modules, 3)
	s.Equal(catalog.ModuleAUP, modules[0].ID)
}
