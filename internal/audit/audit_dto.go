package audit

import (
	"encoding/json"
	"time"
)

// Entry is what callers hand to Logger.Log. IDs are strings so services can
// pass through whatever they already hold.
type Entry struct {
	CompanyID    string
	UserID       string
	UserRole     string
	Action       Action
	EntityType   EntityType
	EntityID     string
	TargetUserID string
	OldData      any
	NewData      any
	Metadata     map[string]any
	Reason       string
}

type Filters struct {
	UserID       string     `form:"userId"`
	TargetUserID string     `form:"targetUserId"`
	EntityType   string     `form:"entityType"`
	EntityID     string     `form:"entityId"`
	Action       string     `form:"action"`
	StartDate    *time.Time `form:"-"`
	EndDate      *time.Time `form:"-"`
}

type Pagination struct {
	Page  int
	Limit int
}

type ActorResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Role  string  `json:"role"`
}

type LogResponse struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	UserRole     string          `json:"userRole"`
	CompanyID    string          `json:"companyId"`
	Action       string          `json:"action"`
	EntityType   string          `json:"entityType"`
	EntityID     *string         `json:"entityId"`
	TargetUserID *string         `json:"targetUserId"`
	OldData      json.RawMessage `json:"oldData,omitempty"`
	NewData      json.RawMessage `json:"newData,omitempty"`
	Metadata     map[string]any  `json:"metadata,omitempty"`
	Reason       *string         `json:"reason"`
	IPAddress    *string         `json:"ipAddress"`
	UserAgent    *string         `json:"userAgent"`
	Timestamp    time.Time       `json:"timestamp"`
	User         *ActorResponse  `json:"user,omitempty"`
}

type QueryResult struct {
	Logs  []LogResponse `json:"logs"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Pages int           `json:"pages"`
}

type ActionCount struct {
	Action     string `json:"action"`
	EntityType string `json:"entityType"`
	UserRole   string `json:"userRole"`
	Count      int64  `json:"count"`
}

type UserCount struct {
	UserID string  `json:"userId"`
	Name   string  `json:"name"`
	Email  *string `json:"email"`
	Role   string  `json:"role"`
	Count  int64   `json:"count"`
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type Report struct {
	Period      ReportPeriod  `json:"period"`
	TotalEvents int64         `json:"totalEvents"`
	Summary     []ActionCount `json:"summary"`
	TopUsers    []UserCount   `json:"topUsers"`
}

type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
	Rows        int
}
