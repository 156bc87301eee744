package assessment

type CreateAssessmentRequest struct {
	CycleID          string  `json:"cycleId" binding:"required,uuid"`
	EmployeeID       string  `json:"employeeId" binding:"required,uuid"`
	EvaluationItemID string  `json:"evaluationItemId" binding:"required,uuid"`
	Rating           int     `json:"rating" binding:"required,min=1,max=5"`
	Comment          *string `json:"comment" binding:"omitempty,max=5000"`
}

type ActiveFilter struct {
	EmployeeID string `form:"employeeId" binding:"required,uuid"`
	CycleID    string `form:"cycleId" binding:"omitempty,uuid"`
}

type HistoryFilter struct {
	EmployeeID       string `form:"employeeId" binding:"required,uuid"`
	CycleID          string `form:"cycleId" binding:"omitempty,uuid"`
	EvaluationItemID string `form:"evaluationItemId" binding:"omitempty,uuid"`
}

type AssessmentResponse struct {
	ID               string  `json:"id"`
	CycleID          string  `json:"cycleId"`
	EmployeeID       string  `json:"employeeId"`
	EvaluationItemID string  `json:"evaluationItemId"`
	ItemTitle        string  `json:"itemTitle,omitempty"`
	AssessedBy       string  `json:"assessedBy"`
	Rating           int     `json:"rating"`
	Comment          *string `json:"comment,omitempty"`
	IsActive         bool    `json:"isActive"`
	SupersededBy     *string `json:"supersededBy,omitempty"`
	CreatedAt        string  `json:"createdAt"`
}
