package user

import "time"

type CreateUserRequest struct {
	Name       string  `json:"name" binding:"required,min=2,max=255"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Username   *string `json:"username" binding:"omitempty,min=3,max=100"`
	PersonID   string  `json:"personId" binding:"required,max=100"`
	Password   string  `json:"password" binding:"required,min=8"`
	Role       string  `json:"role" binding:"required,oneof=employee manager hr"`
	UserType   string  `json:"userType" binding:"omitempty,oneof=office operational"`
	ManagerID  *string `json:"managerId" binding:"omitempty,uuid"`
	Department *string `json:"department" binding:"omitempty,max=150"`
	Position   *string `json:"position" binding:"omitempty,max=150"`
}

type UpdateUserRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=2,max=255"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Username   *string `json:"username" binding:"omitempty,min=3,max=100"`
	Role       *string `json:"role" binding:"omitempty,oneof=employee manager hr"`
	UserType   *string `json:"userType" binding:"omitempty,oneof=office operational"`
	ManagerID  *string `json:"managerId" binding:"omitempty"`
	Department *string `json:"department" binding:"omitempty,max=150"`
	Position   *string `json:"position" binding:"omitempty,max=150"`
	Active     *bool   `json:"active"`
}

type ListUsersFilter struct {
	Role       string `form:"role"`
	Department string `form:"department"`
	Active     *bool  `form:"active"`
	Search     string `form:"search"`
	Page       int    `form:"-"`
	Limit      int    `form:"-"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

type ManagerResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
}

type UserResponse struct {
	ID          string           `json:"id"`
	CompanyID   string           `json:"companyId"`
	Name        string           `json:"name"`
	Email       *string          `json:"email"`
	Username    *string          `json:"username"`
	PersonID    string           `json:"personId"`
	Role        string           `json:"role"`
	UserType    string           `json:"userType"`
	ManagerID   *string          `json:"managerId"`
	Manager     *ManagerResponse `json:"manager,omitempty"`
	Department  *string          `json:"department"`
	Position    *string          `json:"position"`
	Active      bool             `json:"active"`
	LastLoginAt *time.Time       `json:"lastLoginAt"`
	CreatedAt   time.Time        `json:"createdAt"`
}
