package evaluationitem

import (
	"time"

	"performa/internal/domain"

	"github.com/google/uuid"
)

// Item is an OKR or competency definition. Level and AssignedTo decide who it
// applies to: every employee (company), one department, or one manager's
// team. Items with a nil AssignedTo below company level reach employees only
// through Assignment rows.
type Item struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID          uuid.UUID  `gorm:"type:uuid;not null;index:idx_evaluation_items_scope,priority:1"`
	CycleID            *uuid.UUID `gorm:"type:uuid;index"`
	Title              string     `gorm:"type:varchar(200);not null"`
	Description        *string    `gorm:"type:text"`
	Type               string     `gorm:"type:varchar(20);not null"`
	Level              string     `gorm:"type:varchar(20);not null;index:idx_evaluation_items_scope,priority:2"`
	AssignedTo         *string    `gorm:"type:varchar(150);index:idx_evaluation_items_scope,priority:3"`
	Active             bool       `gorm:"not null;default:true"`
	EvaluationDeadline *time.Time
	DeadlineSetBy      *uuid.UUID `gorm:"type:uuid"`
	CreatedBy          uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt          time.Time  `gorm:"not null;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"not null;autoUpdateTime"`
}

func (Item) TableName() string {
	return "evaluation_items"
}

// IsIndividual reports whether the item is targeted through assignments.
func (i *Item) IsIndividual() bool {
	return i.AssignedTo == nil && i.Level != domain.ItemLevelCompany
}

type Assignment struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID        uuid.UUID `gorm:"type:uuid;not null;index"`
	EvaluationItemID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_evaluation_item_assignments_item_employee,priority:1"`
	EmployeeID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_evaluation_item_assignments_item_employee,priority:2;index"`
	AssignedBy       uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime"`
}

func (Assignment) TableName() string {
	return "evaluation_item_assignments"
}
