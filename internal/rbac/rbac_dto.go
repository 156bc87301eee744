package rbac

type CheckRequest struct {
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

type Permission struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

type PermissionsResponse struct {
	Role        string       `json:"role"`
	Permissions []Permission `json:"permissions"`
}
