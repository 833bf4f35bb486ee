package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"policywriter/internal/questionnaire/catalog"
	"policywriter/internal/questionnaire/models"
	"policywriter/internal/questionnaire/validation"
	"policywriter/internal/questionnaire/wizard"
	"policywriter/pkg/domain"
	dErrors "policywriter/pkg/domain-errors"
	"policywriter/pkg/platform/httputil"
	"policywriter/pkg/requestcontext"
)

const validationFailed = "validation_failed"

// Service defines the questionnaire operations the HTTP surface exposes.
type Service interface {
	Modules() []catalog.Module
	StartSession(ctx context.Context, modules []string, userAgent string) (*models.Record, error)
	Session(ctx context.Context, id domain.SessionID) (*models.Record, error)
	SetAnswer(ctx context.Context, id domain.SessionID, question catalog.QuestionID, value any) (*models.Record, wizard.View, error)
	Next(ctx context.Context, id domain.SessionID) (*models.Record, wizard.View, validation.Errors, error)
	Back(ctx context.Context, id domain.SessionID) (*models.Record, wizard.View, error)
	Submit(ctx context.Context, id domain.SessionID) (*models.Record, wizard.View, validation.Errors, error)
	Document(ctx context.Context, id domain.SessionID) (models.DocumentState, error)
	RetryDocument(ctx context.Context, id domain.SessionID) (models.DocumentState, error)
	EndSession(ctx context.Context, id domain.SessionID) error
}

// Handler wires questionnaire endpoints to the session service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a questionnaire handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the questionnaire endpoints under /api.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/modules", h.HandleModules)
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.HandleStartSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetSession)
			r.Delete("/", h.HandleEndSession)
			r.Put("/answers/{question_id}", h.HandleSetAnswer)
			r.Post("/next", h.HandleNext)
			r.Post("/back", h.HandleBack)
			r.Post("/submit", h.HandleSubmit)
			r.Get("/document", h.HandleGetDocument)
			r.Post("/document/retry", h.HandleRetryDocument)
		})
	})
}

// HandleModules handles GET /api/modules.
func (h *Handler) HandleModules(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toModulesResponse(h.service.Modules()))
}

// HandleStartSession handles POST /api/sessions.
func (h *Handler) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req StartSessionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "decode start session request", err)
		return
	}
	modules, err := req.Modules()
	if err != nil {
		h.fail(ctx, w, "parse module selection", err)
		return
	}
	rec, err := h.service.StartSession(ctx, modules, requestcontext.UserAgent(ctx))
	if err != nil {
		h.fail(ctx, w, "start session", err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+rec.Session.ID().String())
	httputil.WriteJSON(w, http.StatusCreated, toSessionResponse(rec.Session.View(), rec))
}

// HandleGetSession handles GET /api/sessions/{id}.
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	rec, err := h.service.Session(ctx, id)
	if err != nil {
		h.fail(ctx, w, "load session", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(rec.Session.View(), rec))
}

// HandleSetAnswer handles PUT /api/sessions/{id}/answers/{question_id}.
func (h *Handler) HandleSetAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req SetAnswerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "decode answer", err)
		return
	}
	question := catalog.QuestionID(chi.URLParam(r, "question_id"))
	rec, view, err := h.service.SetAnswer(ctx, id, question, req.Value)
	if err != nil {
		h.fail(ctx, w, "set answer", err)
		return
	}
	writeSession(w, view, rec)
}

// HandleNext handles POST /api/sessions/{id}/next.
func (h *Handler) HandleNext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	rec, view, errs, err := h.service.Next(ctx, id)
	if err != nil {
		h.fail(ctx, w, "next section", err)
		return
	}
	if len(errs) > 0 {
		writeValidationFailed(w, view, rec, errs)
		return
	}
	writeSession(w, view, rec)
}

// HandleBack handles POST /api/sessions/{id}/back.
func (h *Handler) HandleBack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	rec, view, err := h.service.Back(ctx, id)
	if err != nil {
		h.fail(ctx, w, "previous section", err)
		return
	}
	writeSession(w, view, rec)
}

// HandleSubmit handles POST /api/sessions/{id}/submit. Validation failures
// answer 422 with the field map; collaborator failures answer 502 with the
// backend's detail.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	rec, view, errs, err := h.service.Submit(ctx, id)
	if err != nil {
		h.fail(ctx, w, "submit questionnaire", err)
		return
	}
	if len(errs) > 0 {
		writeValidationFailed(w, view, rec, errs)
		return
	}
	writeSession(w, view, rec)
}

// HandleGetDocument handles GET /api/sessions/{id}/document.
func (h *Handler) HandleGetDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Document(ctx, id)
	if err != nil {
		h.fail(ctx, w, "load document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

// HandleRetryDocument handles POST /api/sessions/{id}/document/retry.
func (h *Handler) HandleRetryDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.RetryDocument(ctx, id)
	if err != nil {
		h.fail(ctx, w, "retry document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, toDocumentResponse(doc))
}

// HandleEndSession handles DELETE /api/sessions/{id}.
func (h *Handler) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if err := h.service.EndSession(ctx, id); err != nil {
		h.fail(ctx, w, "end session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (domain.SessionID, bool) {
	id, err := domain.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(r.Context(), w, "parse session id", err)
		return domain.SessionID{}, false
	}
	return id, true
}

func writeSession(w http.ResponseWriter, view wizard.View, rec *models.Record) {
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(view, rec))
}

func writeValidationFailed(w http.ResponseWriter, view wizard.View, rec *models.Record, errs validation.Errors) {
	httputil.WriteJSON(w, http.StatusUnprocessableEntity, ValidationFailedResponse{
		Error:   validationFailed,
		Fields:  toFields(errs),
		Session: toSessionResponse(view, rec),
	})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	code := dErrors.CodeOf(err)
	attrs := []any{
		"op", op,
		"code", code,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}
	switch code {
	case dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, "questionnaire request failed", attrs...)
	case dErrors.CodeBadGateway, dErrors.CodeUnavailable:
		h.logger.WarnContext(ctx, "questionnaire request failed", attrs...)
	default:
		h.logger.DebugContext(ctx, "questionnaire request rejected", attrs...)
	}
	httputil.WriteError(w, err)
}
