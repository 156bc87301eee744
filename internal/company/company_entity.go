package company

import (
	"time"

	"github.com/google/uuid"
)

// Company is the tenant boundary. Code is what users type on the login form.
type Company struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(150);not null"`
	Code      string    `gorm:"type:varchar(50);not null;uniqueIndex:uq_companies_code"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Company) TableName() string {
	return "companies"
}
