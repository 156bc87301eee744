package evaluation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SnapshotVersion is bumped whenever SnapshotItem changes shape.
const SnapshotVersion = 1

// Snapshot freezes the items, ratings and comments at save time so later
// edits to live evaluation items do not rewrite history.
type Snapshot struct {
	Version int            `json:"version"`
	Items   []SnapshotItem `json:"items"`
}

type SnapshotItem struct {
	ItemID  string  `json:"itemId"`
	Title   string  `json:"title"`
	Type    string  `json:"type"`
	Rating  *int    `json:"rating,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

type Evaluation struct {
	ID                  uuid.UUID                    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID           uuid.UUID                    `gorm:"type:uuid;not null;index"`
	CycleID             *uuid.UUID                   `gorm:"type:uuid;index"`
	EmployeeID          uuid.UUID                    `gorm:"type:uuid;not null;uniqueIndex:uq_evaluations_employee_period,priority:1"`
	EvaluatorID         uuid.UUID                    `gorm:"type:uuid;not null;index"`
	PeriodType          string                       `gorm:"type:varchar(20);not null;uniqueIndex:uq_evaluations_employee_period,priority:2"`
	PeriodDate          string                       `gorm:"type:varchar(10);not null;uniqueIndex:uq_evaluations_employee_period,priority:3"`
	Status              string                       `gorm:"type:varchar(20);not null;default:draft;index"`
	OverallRating       *int                         `gorm:"type:smallint"`
	OverallComment      *string                      `gorm:"type:text"`
	EvaluationItemsData datatypes.JSONType[Snapshot] `gorm:"type:jsonb;not null"`
	SubmittedAt         *time.Time
	ApprovedBy          *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt          *time.Time
	CompletedBy         *uuid.UUID `gorm:"type:uuid"`
	CompletedAt         *time.Time
	CreatedAt           time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"not null;autoUpdateTime"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

// CycleRef is the slice of a performance cycle used to derive the period.
type CycleRef struct {
	ID         uuid.UUID `gorm:"column:id"`
	Name       string    `gorm:"column:name"`
	PeriodType *string   `gorm:"column:period_type"`
	PeriodDate *string   `gorm:"column:period_date"`
}

func (CycleRef) TableName() string {
	return "performance_cycles"
}

// ItemRef is the live evaluation item a snapshot entry is copied from.
type ItemRef struct {
	ID                 uuid.UUID  `gorm:"column:id"`
	Title              string     `gorm:"column:title"`
	Type               string     `gorm:"column:type"`
	Active             bool       `gorm:"column:active"`
	EvaluationDeadline *time.Time `gorm:"column:evaluation_deadline"`
}

func (ItemRef) TableName() string {
	return "evaluation_items"
}

// Person is the name lookup used for listings and the PDF.
type Person struct {
	ID         uuid.UUID  `gorm:"column:id"`
	Name       string     `gorm:"column:name"`
	Department *string    `gorm:"column:department"`
	ManagerID  *uuid.UUID `gorm:"column:manager_id"`
}

func (Person) TableName() string {
	return "users"
}
