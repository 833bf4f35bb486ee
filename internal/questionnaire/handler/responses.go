package handler

import (
	"time"

	"policywriter/internal/questionnaire/catalog"
	"policywriter/internal/questionnaire/models"
	"policywriter/internal/questionnaire/validation"
	"policywriter/internal/questionnaire/wizard"
)

// ModuleResponse describes one selectable policy module.
type ModuleResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Summary          string `json:"summary"`
	CISControls      string `json:"cis_controls"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	Complexity       int    `json:"complexity"`
	ComplexityLabel  string `json:"complexity_label"`
	QuestionCount    int    `json:"question_count"`
}

type ModulesResponse struct {
	Modules []ModuleResponse `json:"modules"`
}

func toModulesResponse(modules []catalog.Module) ModulesResponse {
	out := ModulesResponse{Modules: make([]ModuleResponse, 0, len(modules))}
	for _, m := range modules {
		out.Modules = append(out.Modules, ModuleResponse{
			ID:               string(m.ID),
			Name:             m.Name,
			Summary:          m.Summary,
			CISControls:      m.CISControls,
			EstimatedMinutes: m.EstimatedMinutes,
			Complexity:       m.Complexity,
			ComplexityLabel:  m.ComplexityLabel,
			QuestionCount:    len(m.QuestionIDs),
		})
	}
	return out
}

// SessionResponse is the wizard as the browser renders it.
type SessionResponse struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Selected     []string          `json:"selected_modules"`
	Sections     []SectionSummary  `json:"sections"`
	CurrentIndex int               `json:"current_index"`
	Current      SectionResponse   `json:"current_section"`
	IsFirst      bool              `json:"is_first"`
	IsLast       bool              `json:"is_last"`
	Answers      map[string]any    `json:"answers"`
	Errors       map[string]string `json:"errors"`
	Progress     ProgressResponse  `json:"progress"`
	Receipt      *ReceiptResponse  `json:"receipt,omitempty"`
	LastFailure  string            `json:"last_failure,omitempty"`
	Attempts     int               `json:"submit_attempts"`
	Client       string            `json:"client,omitempty"`
	Document     *DocumentResponse `json:"document,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type SectionSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type SectionResponse struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Module      string             `json:"module,omitempty"`
	Questions   []QuestionResponse `json:"questions"`
}

type QuestionResponse struct {
	ID       string   `json:"id"`
	Number   int      `json:"number"`
	Prompt   string   `json:"prompt"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
	Answer   any      `json:"answer,omitempty"`
	Error    string   `json:"error,omitempty"`
}

type ProgressResponse struct {
	Current int `json:"current"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

type ReceiptResponse struct {
	OrgID           string    `json:"org_id"`
	QuestionnaireID string    `json:"questionnaire_id"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// DocumentResponse is the generation state of the policy document.
type DocumentResponse struct {
	Status      string    `json:"status"`
	PolicyID    string    `json:"policy_id,omitempty"`
	DocumentURL string    `json:"document_url,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	Attempts    int       `json:"attempts"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// ValidationFailedResponse is the 422 body for Next and Submit.
type ValidationFailedResponse struct {
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
	Session SessionResponse   `json:"session"`
}

func toSessionResponse(v wizard.View, rec *models.Record) SessionResponse {
	resp := SessionResponse{
		ID:           v.ID.String(),
		Status:       string(v.Status),
		Selected:     make([]string, 0, len(v.Selected)),
		Sections:     make([]SectionSummary, 0, len(v.Sections)),
		CurrentIndex: v.CurrentIndex,
		IsFirst:      v.IsFirst,
		IsLast:       v.IsLast,
		Answers:      make(map[string]any, len(v.Answers)),
		Errors:       toFields(v.Errors),
		Progress:     ProgressResponse(v.Progress),
		LastFailure:  v.LastFailure,
		Attempts:     v.Attempts,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
	for _, m := range v.Selected {
		resp.Selected = append(resp.Selected, string(m))
	}
	for _, sec := range v.Sections {
		resp.Sections = append(resp.Sections, SectionSummary{ID: string(sec.ID), Title: sec.Title})
	}
	for id, a := range v.Answers {
		resp.Answers[string(id)] = a
	}
	resp.Current = SectionResponse{
		ID:          string(v.Current.ID),
		Title:       v.Current.Title,
		Description: v.Current.Description,
		Module:      string(v.Current.Module),
		Questions:   make([]QuestionResponse, 0, len(v.Current.Questions)),
	}
	for _, q := range v.Current.Questions {
		resp.Current.Questions = append(resp.Current.Questions, QuestionResponse{
			ID:       string(q.ID),
			Number:   q.Number,
			Prompt:   q.Prompt,
			Type:     string(q.Type),
			Options:  q.Options,
			Required: q.Required,
			Answer:   q.Answer,
			Error:    q.Error,
		})
	}
	if v.Receipt != nil {
		resp.Receipt = &ReceiptResponse{
			OrgID:           v.Receipt.OrgID,
			QuestionnaireID: v.Receipt.QuestionnaireID,
			SubmittedAt:     v.Receipt.SubmittedAt,
		}
	}
	if rec != nil {
		resp.Client = rec.Client
		if doc := rec.Document(); doc.Status != models.DocumentNone {
			d := toDocumentResponse(doc)
			resp.Document = &d
		}
	}
	return resp
}

func toDocumentResponse(d models.DocumentState) DocumentResponse {
	return DocumentResponse{
		Status:      string(d.Status),
		PolicyID:    d.PolicyID,
		DocumentURL: d.DocumentURL,
		Filename:    d.Filename,
		Detail:      d.Detail,
		Attempts:    d.Attempts,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toFields(errs validation.Errors) map[string]string {
	out := make(map[string]string, len(errs))
	for id, msg := range errs {
		out[string(id)] = msg
	}
	return out
}
