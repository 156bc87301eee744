package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is both a login identity and an evaluated employee. Office staff sign
// in with an email, operational staff with a username.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID    uuid.UUID      `gorm:"column:company_id;type:uuid;not null;index"`
	Name         string         `gorm:"column:name;type:varchar(255);not null"`
	Email        *string        `gorm:"column:email;type:varchar(255)"`
	Username     *string        `gorm:"column:username;type:varchar(100)"`
	PersonID     string         `gorm:"column:person_id;type:varchar(100);not null"`
	PasswordHash string         `gorm:"column:password_hash;type:text;not null"`
	Role         string         `gorm:"column:role;type:varchar(20);not null;default:employee"`
	ManagerID    *uuid.UUID     `gorm:"column:manager_id;type:uuid;index"`
	Department   *string        `gorm:"column:department;type:varchar(150);index"`
	Position     *string        `gorm:"column:position;type:varchar(150)"`
	UserType     string         `gorm:"column:user_type;type:varchar(20);not null;default:office"`
	Active       bool           `gorm:"column:active;not null;default:true"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`

	Manager *UserManager `gorm:"foreignKey:ManagerID;references:ID"`
}

func (User) TableName() string {
	return "users"
}

// UserManager is the minimal manager projection preloaded with a user.
type UserManager struct {
	ID    uuid.UUID `gorm:"primaryKey"`
	Name  string    `gorm:"column:name"`
	Email *string   `gorm:"column:email"`
}

func (UserManager) TableName() string {
	return "users"
}
