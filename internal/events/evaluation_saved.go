package events

import "time"

const EvaluationLifecycleTopic = "performa.evaluation.lifecycle.v1"

const EventEvaluationSaved = "evaluation_saved"

type EvaluationSavedEvent struct {
	EventType    string    `json:"event_type"`
	EvaluationID string    `json:"evaluation_id"`
	CompanyID    string    `json:"company_id"`
	EmployeeID   string    `json:"employee_id"`
	ManagerID    string    `json:"manager_id,omitempty"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}
