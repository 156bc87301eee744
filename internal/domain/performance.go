package domain

import "regexp"

const (
	CycleStatusActive   = "active"
	CycleStatusClosed   = "closed"
	CycleStatusArchived = "archived"
)

const (
	ItemTypeOKR        = "okr"
	ItemTypeCompetency = "competency"
)

// Item levels decide who an evaluation item applies to. Individually targeted
// employees are linked through assignment rows instead.
const (
	ItemLevelCompany    = "company"
	ItemLevelDepartment = "department"
	ItemLevelManager    = "manager"
)

const (
	EvaluationStatusDraft     = "draft"
	EvaluationStatusSubmitted = "submitted"
	EvaluationStatusApproved  = "approved"
	EvaluationStatusCompleted = "completed"
)

const (
	PeriodTypeAnnual    = "annual"
	PeriodTypeQuarterly = "quarterly"
)

func IsValidItemType(t string) bool {
	return t == ItemTypeOKR || t == ItemTypeCompetency
}

func IsValidItemLevel(l string) bool {
	switch l {
	case ItemLevelCompany, ItemLevelDepartment, ItemLevelManager:
		return true
	}
	return false
}

var (
	annualPeriod    = regexp.MustCompile(`^\d{4}$`)
	quarterlyPeriod = regexp.MustCompile(`^\d{4}-Q[1-4]$`)
)

// IsValidPeriod checks a normalized pair such as (annual, 2025) or
// (quarterly, 2025-Q3).
func IsValidPeriod(periodType, periodDate string) bool {
	switch periodType {
	case PeriodTypeAnnual:
		return annualPeriod.MatchString(periodDate)
	case PeriodTypeQuarterly:
		return quarterlyPeriod.MatchString(periodDate)
	}
	return false
}
