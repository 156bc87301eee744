package events

import "time"

const CycleLifecycleTopic = "performa.cycle.lifecycle.v1"

const EventCycleStatusChanged = "cycle_status_changed"

type CycleStatusChangedEvent struct {
	EventType  string    `json:"event_type"`
	CycleID    string    `json:"cycle_id"`
	CompanyID  string    `json:"company_id"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	ChangedBy  string    `json:"changed_by"`
	OccurredAt time.Time `json:"occurred_at"`
}
