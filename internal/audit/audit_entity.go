package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Action string

const (
	ActionCreated       Action = "created"
	ActionUpdated       Action = "updated"
	ActionDeleted       Action = "deleted"
	ActionExported      Action = "exported"
	ActionLogin         Action = "login"
	ActionLogout        Action = "logout"
	ActionStatusChanged Action = "status_changed"
	ActionDeactivated   Action = "deactivated"
	ActionReactivated   Action = "reactivated"
	ActionAssigned      Action = "assigned"
	ActionUnassigned    Action = "unassigned"
	ActionImported      Action = "imported"
)

type EntityType string

const (
	EntityCycle               EntityType = "performance_cycle"
	EntityEvaluation          EntityType = "evaluation"
	EntityEvaluationItem      EntityType = "evaluation_item"
	EntityItemAssignment      EntityType = "evaluation_item_assignment"
	EntityPartialAssessment   EntityType = "partial_assessment"
	EntityUser                EntityType = "user"
	EntityCompany             EntityType = "company"
	EntityAuditLog            EntityType = "audit_log"
	EntityBiometricCredential EntityType = "biometric_credential"
)

// AuditLog rows are append-only: nothing in the application updates or deletes them.
type AuditLog struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID    uuid.UUID         `gorm:"type:uuid;not null;index:idx_audit_logs_company_ts,priority:1"`
	UserID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	UserRole     string            `gorm:"type:varchar(20);not null"`
	Action       string            `gorm:"type:varchar(40);not null;index"`
	EntityType   string            `gorm:"type:varchar(40);not null;index:idx_audit_logs_entity,priority:1"`
	EntityID     *string           `gorm:"type:varchar(64);index:idx_audit_logs_entity,priority:2"`
	TargetUserID *uuid.UUID        `gorm:"type:uuid;index"`
	OldData      datatypes.JSON    `gorm:"type:jsonb"`
	NewData      datatypes.JSON    `gorm:"type:jsonb"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb"`
	Reason       *string           `gorm:"type:text"`
	IPAddress    *string           `gorm:"type:varchar(64)"`
	UserAgent    *string           `gorm:"type:text"`
	SessionID    *string           `gorm:"type:varchar(64)"`
	Timestamp    time.Time         `gorm:"not null;index:idx_audit_logs_company_ts,priority:2"`

	User *Actor `gorm:"foreignKey:UserID;references:ID"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Actor is the slice of the users table joined into audit queries.
type Actor struct {
	ID    uuid.UUID `gorm:"primaryKey"`
	Name  string    `gorm:"column:name"`
	Email *string   `gorm:"column:email"`
	Role  string    `gorm:"column:role"`
}

func (Actor) TableName() string {
	return "users"
}
