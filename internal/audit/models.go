package audit

import "time"

// Category classifies events by purpose so sinks can route them.
type Category string

const (
	// CategoryCompliance covers handoffs of organization data to collaborators.
	CategoryCompliance Category = "compliance"
	// CategoryOperations covers session lifecycle and document generation.
	CategoryOperations Category = "operations"
)

// Action names a recorded questionnaire action.
type Action string

const (
	ActionSessionStarted      Action = "session_started"
	ActionSubmissionSucceeded Action = "submission_succeeded"
	ActionSubmissionFailed    Action = "submission_failed"
	ActionDocumentGenerated   Action = "document_generated"
	ActionDocumentFailed      Action = "document_failed"
	ActionSessionEnded        Action = "session_ended"
)

// Category returns the default category for an action.
func (a Action) Category() Category {
	switch a {
	case ActionSubmissionSucceeded, ActionSubmissionFailed:
		return CategoryCompliance
	default:
		return CategoryOperations
	}
}

// Event is emitted from the session service to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Action          Action    `json:"action"`
	Category        Category  `json:"category"`
	SessionID       string    `json:"session_id"`
	OrgID           string    `json:"org_id,omitempty"`
	QuestionnaireID string    `json:"questionnaire_id,omitempty"`
	Modules         []string  `json:"modules,omitempty"`
	Detail          string    `json:"detail,omitempty"`
	Client          string    `json:"client,omitempty"`
	RequestID       string    `json:"request_id,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}
