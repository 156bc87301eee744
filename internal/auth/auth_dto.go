package auth

type LoginRequest struct {
	CompanyCode string `json:"companyCode" binding:"required"`
	Identifier  string `json:"identifier" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type AuthResponse struct {
	ID         string  `json:"id"`
	CompanyID  string  `json:"companyId"`
	Name       string  `json:"name"`
	Email      *string `json:"email,omitempty"`
	Username   *string `json:"username,omitempty"`
	Role       string  `json:"role"`
	UserType   string  `json:"userType"`
	Department *string `json:"department,omitempty"`
}

// LoginResult is what both password and biometric login hand back to the client.
type LoginResult struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         AuthResponse `json:"user"`
}
