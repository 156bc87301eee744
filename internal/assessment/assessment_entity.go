package assessment

import (
	"time"

	"github.com/google/uuid"
)

// PartialAssessment is append-only: a new rating of the same
// (cycle, employee, item) deactivates the previous one.
type PartialAssessment struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	CycleID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	EmployeeID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	EvaluationItemID uuid.UUID  `gorm:"type:uuid;not null;index"`
	AssessedBy       uuid.UUID  `gorm:"type:uuid;not null"`
	Rating           int        `gorm:"type:smallint;not null"`
	Comment          *string    `gorm:"type:text"`
	IsActive         bool       `gorm:"not null;default:true"`
	SupersededBy     *uuid.UUID `gorm:"type:uuid"`
	CreatedAt        time.Time  `gorm:"not null;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"not null;autoUpdateTime"`
}

func (PartialAssessment) TableName() string {
	return "partial_assessments"
}

type ItemRef struct {
	ID     uuid.UUID `gorm:"column:id"`
	Title  string    `gorm:"column:title"`
	Type   string    `gorm:"column:type"`
	Active bool      `gorm:"column:active"`
}

func (ItemRef) TableName() string {
	return "evaluation_items"
}
