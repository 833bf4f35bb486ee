// Package ports declares what the questionnaire service needs from the
// outside: session persistence, the policy backend and the audit trail.
package ports

import (
	"context"

	"policywriter/internal/audit"
	"policywriter/internal/collaborator"
	"policywriter/internal/questionnaire/models"
	"policywriter/internal/questionnaire/wizard"
	"policywriter/pkg/domain"
)

// SessionStore keeps session records between requests.
type SessionStore interface {
	Save(ctx context.Context, rec *models.Record) error
	FindByID(ctx context.Context, id domain.SessionID) (*models.Record, error)
	Delete(ctx context.Context, id domain.SessionID) error
}

// PolicyBackend is the collaborator that stores submissions and renders
// policy documents.
type PolicyBackend interface {
	wizard.Handoff
	GenerateDocument(ctx context.Context, orgID, questionnaireID string) (collaborator.Document, error)
}

// AuditPublisher emits audit events. Implementations must not block.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
