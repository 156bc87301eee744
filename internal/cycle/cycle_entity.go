package cycle

import (
	"time"

	"github.com/google/uuid"
)

// Cycle is a time-boxed evaluation period. A company has at most one active
// cycle; the database enforces it with a partial unique index on company_id.
type Cycle struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_performance_cycles_company_name,priority:1"`
	Name       string     `gorm:"type:varchar(150);not null;uniqueIndex:uq_performance_cycles_company_name,priority:2"`
	StartDate  time.Time  `gorm:"type:date;not null"`
	EndDate    time.Time  `gorm:"type:date;not null"`
	Status     string     `gorm:"type:varchar(20);not null;default:active;index"`
	PeriodType *string    `gorm:"type:varchar(20)"`
	PeriodDate *string    `gorm:"type:varchar(10)"`
	CreatedBy  uuid.UUID  `gorm:"type:uuid;not null"`
	ClosedBy   *uuid.UUID `gorm:"type:uuid"`
	ClosedAt   *time.Time
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime"`
}

func (Cycle) TableName() string {
	return "performance_cycles"
}

// Dependents counts the rows that pin a cycle in place.
type Dependents struct {
	Evaluations int64 `json:"evaluations"`
	Items       int64 `json:"evaluationItems"`
	Assessments int64 `json:"partialAssessments"`
}

func (d Dependents) Total() int64 {
	return d.Evaluations + d.Items + d.Assessments
}
