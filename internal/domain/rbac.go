package domain

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleHR       = "hr"
)

const (
	UserTypeOffice      = "office"
	UserTypeOperational = "operational"
)

func IsValidRole(role string) bool {
	switch role {
	case RoleEmployee, RoleManager, RoleHR:
		return true
	}
	return false
}

type EnforceRequest struct {
	Role     string `json:"role" binding:"required"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}
