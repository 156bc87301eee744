package cycle

type CreateCycleRequest struct {
	Name       string  `json:"name" binding:"required,max=150"`
	StartDate  string  `json:"startDate" binding:"required"`
	EndDate    string  `json:"endDate" binding:"required"`
	PeriodType *string `json:"periodType" binding:"omitempty,oneof=annual quarterly"`
	PeriodDate *string `json:"periodDate"`
}

type UpdateCycleRequest struct {
	Name       *string `json:"name" binding:"omitempty,max=150"`
	StartDate  *string `json:"startDate"`
	EndDate    *string `json:"endDate"`
	PeriodType *string `json:"periodType" binding:"omitempty,oneof=annual quarterly"`
	PeriodDate *string `json:"periodDate"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active closed archived"`
	Reason string `json:"reason" binding:"max=500"`
}

type ListCyclesFilter struct {
	Status string `form:"status"`
	Search string `form:"search"`
}

type CycleResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate"`
	Status     string  `json:"status"`
	PeriodType *string `json:"periodType,omitempty"`
	PeriodDate *string `json:"periodDate,omitempty"`
	CreatedBy  string  `json:"createdBy"`
	ClosedBy   *string `json:"closedBy,omitempty"`
	ClosedAt   *string `json:"closedAt,omitempty"`
	CreatedAt  string  `json:"createdAt"`
}
