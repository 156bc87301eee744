package dashboard

import (
	"time"

	"github.com/google/uuid"
)

type CycleRow struct {
	ID      uuid.UUID
	Name    string
	EndDate time.Time
}

type EvaluationRow struct {
	ID            uuid.UUID
	EmployeeID    uuid.UUID
	PeriodType    string
	PeriodDate    string
	Status        string
	OverallRating *int
	UpdatedAt     time.Time
}

type MemberRow struct {
	ID         uuid.UUID
	Name       string
	Department *string
}

type StatusCount struct {
	Status string
	Count  int64
}

type DepartmentStatusCount struct {
	Department string
	Status     string
	Count      int64
}
