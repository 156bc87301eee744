package evaluationitem

type CreateItemRequest struct {
	Title              string   `json:"title" binding:"required,max=200"`
	Description        *string  `json:"description" binding:"omitempty,max=2000"`
	Type               string   `json:"type" binding:"required,oneof=okr competency"`
	Level              string   `json:"level" binding:"omitempty,oneof=company department manager"`
	AssignedTo         *string  `json:"assignedTo" binding:"omitempty,max=150"`
	CycleID            *string  `json:"cycleId" binding:"omitempty,uuid"`
	EmployeeIDs        []string `json:"employeeIds" binding:"omitempty,dive,uuid"`
	EvaluationDeadline *string  `json:"evaluationDeadline"`
}

type UpdateItemRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Type        *string `json:"type" binding:"omitempty,oneof=okr competency"`
}

// SetDeadlineRequest clears the deadline when Deadline is null.
type SetDeadlineRequest struct {
	Deadline *string `json:"deadline"`
}

type DeactivateRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type AssignRequest struct {
	EmployeeIDs []string `json:"employeeIds" binding:"required,min=1,max=500,dive,uuid"`
}

type ListItemsFilter struct {
	Type    string `form:"type" binding:"omitempty,oneof=okr competency"`
	Level   string `form:"level" binding:"omitempty,oneof=company department manager"`
	CycleID string `form:"cycleId" binding:"omitempty,uuid"`
	Search  string `form:"search"`
	Active  *bool  `form:"active"`
}

type ItemResponse struct {
	ID                 string   `json:"id"`
	CycleID            *string  `json:"cycleId,omitempty"`
	Title              string   `json:"title"`
	Description        *string  `json:"description,omitempty"`
	Type               string   `json:"type"`
	Level              string   `json:"level"`
	AssignedTo         *string  `json:"assignedTo,omitempty"`
	Active             bool     `json:"active"`
	EvaluationDeadline *string  `json:"evaluationDeadline,omitempty"`
	DeadlineSetBy      *string  `json:"deadlineSetBy,omitempty"`
	EmployeeIDs        []string `json:"employeeIds,omitempty"`
	CreatedBy          string   `json:"createdBy"`
	CreatedAt          string   `json:"createdAt"`
}

type AssignResult struct {
	Assigned []string `json:"assigned"`
	Skipped  []string `json:"skipped"`
}

type DeactivateResult struct {
	Item               ItemResponse `json:"item"`
	EvaluationsUpdated int64        `json:"evaluationsUpdated"`
	AssignmentsRemoved int64        `json:"assignmentsRemoved"`
}
