package company

type CompanyResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	Active bool   `json:"active"`
}

type UpdateCompanyRequest struct {
	Name   string `json:"name" binding:"omitempty,min=2,max=150"`
	Active *bool  `json:"active"`
}
