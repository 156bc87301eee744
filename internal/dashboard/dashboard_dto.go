package dashboard

import "performa/internal/permission"

type CycleSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	EndDate string `json:"endDate"`
}

type RecentEvaluation struct {
	ID            string `json:"id"`
	PeriodType    string `json:"periodType"`
	PeriodDate    string `json:"periodDate"`
	Status        string `json:"status"`
	OverallRating *int   `json:"overallRating,omitempty"`
	UpdatedAt     string `json:"updatedAt"`
}

type EmployeeSummary struct {
	Items             permission.ItemCounts `json:"items"`
	RecentEvaluations []RecentEvaluation    `json:"recentEvaluations"`
}

type TeamMember struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Department   *string `json:"department,omitempty"`
	ItemCount    int64   `json:"itemCount"`
	ItemMax      int     `json:"itemMax"`
	LatestStatus string  `json:"latestStatus,omitempty"`
}

type TeamSummary struct {
	Members      []TeamMember     `json:"members"`
	StatusCounts map[string]int64 `json:"statusCounts"`
}

type DepartmentStatus struct {
	Department   string           `json:"department"`
	StatusCounts map[string]int64 `json:"statusCounts"`
}

type CompanySummary struct {
	Employees    int64              `json:"employees"`
	StatusCounts map[string]int64   `json:"statusCounts"`
	Departments  []DepartmentStatus `json:"departments"`
}

// Summary holds only the sections the caller's role may see.
type Summary struct {
	Role        string           `json:"role"`
	ActiveCycle *CycleSummary    `json:"activeCycle,omitempty"`
	Employee    *EmployeeSummary `json:"employee,omitempty"`
	Team        *TeamSummary     `json:"team,omitempty"`
	Company     *CompanySummary  `json:"company,omitempty"`
	GeneratedAt string           `json:"generatedAt"`
}
