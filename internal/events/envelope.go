package events

// Envelope is the subset every lifecycle event shares. Consumers decode it
// first to route on EventType and to find the tenant.
type Envelope struct {
	EventType string `json:"event_type"`
	CompanyID string `json:"company_id"`
}
