package evaluation

type ItemRating struct {
	ItemID  string  `json:"itemId" binding:"required,uuid"`
	Rating  *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" binding:"omitempty,max=5000"`
}

// SaveEvaluationRequest is used for both manual saves and auto-saves. An
// auto-save never moves the evaluation out of its current status.
type SaveEvaluationRequest struct {
	EmployeeID     string       `json:"employeeId" binding:"required,uuid"`
	CycleID        string       `json:"cycleId" binding:"required,uuid"`
	PeriodType     *string      `json:"periodType" binding:"omitempty,oneof=annual quarterly"`
	PeriodDate     *string      `json:"periodDate"`
	OverallRating  *int         `json:"overallRating" binding:"omitempty,min=1,max=5"`
	OverallComment *string      `json:"overallComment" binding:"omitempty,max=10000"`
	Items          []ItemRating `json:"items" binding:"max=10,dive"`
	IsAutoSave     bool         `json:"isAutoSave"`
}

type ApproveRequest struct {
	Comment string `json:"comment" binding:"max=2000"`
}

type ListEvaluationsFilter struct {
	EmployeeID string `form:"employeeId" binding:"omitempty,uuid"`
	CycleID    string `form:"cycleId" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=draft submitted approved completed"`
	PeriodType string `form:"periodType" binding:"omitempty,oneof=annual quarterly"`
	PeriodDate string `form:"periodDate"`
	Page       int    `form:"-"`
	Limit      int    `form:"-"`
}

type ImproveTextRequest struct {
	Text    string `json:"text" binding:"required,max=5000"`
	Context string `json:"context" binding:"max=200"`
}

type ImproveTextResponse struct {
	Original string `json:"original"`
	Improved string `json:"improved"`
}

type EvaluationResponse struct {
	ID             string         `json:"id"`
	CycleID        *string        `json:"cycleId,omitempty"`
	EmployeeID     string         `json:"employeeId"`
	EmployeeName   string         `json:"employeeName,omitempty"`
	EvaluatorID    string         `json:"evaluatorId"`
	PeriodType     string         `json:"periodType"`
	PeriodDate     string         `json:"periodDate"`
	Status         string         `json:"status"`
	OverallRating  *int           `json:"overallRating,omitempty"`
	OverallComment *string        `json:"overallComment,omitempty"`
	Items          []SnapshotItem `json:"items"`
	SubmittedAt    *string        `json:"submittedAt,omitempty"`
	ApprovedBy     *string        `json:"approvedBy,omitempty"`
	ApprovedAt     *string        `json:"approvedAt,omitempty"`
	CompletedBy    *string        `json:"completedBy,omitempty"`
	CompletedAt    *string        `json:"completedAt,omitempty"`
	CreatedAt      string         `json:"createdAt"`
	UpdatedAt      string         `json:"updatedAt"`
}
