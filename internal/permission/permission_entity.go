package permission

import (
	"github.com/google/uuid"
)

// Employee is the read-only view of a user that the permission rules need.
type Employee struct {
	ID         uuid.UUID  `gorm:"column:id"`
	Name       string     `gorm:"column:name"`
	Role       string     `gorm:"column:role"`
	Department *string    `gorm:"column:department"`
	ManagerID  *uuid.UUID `gorm:"column:manager_id"`
}

func (Employee) TableName() string {
	return "users"
}

type Cycle struct {
	ID     uuid.UUID `gorm:"column:id"`
	Name   string    `gorm:"column:name"`
	Status string    `gorm:"column:status"`
}

func (Cycle) TableName() string {
	return "performance_cycles"
}

// ItemScope is the part of an evaluation item that decides who may manage it.
type ItemScope struct {
	Level      string
	AssignedTo *string
	CreatedBy  uuid.UUID
}
