package company

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -destination=mock/company_repo_mock.go -package=mock . Repository
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
	GetByCode(ctx context.Context, code string) (*Company, error)
	Update(ctx context.Context, company *Company) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	var company Company
	err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error
	return &company, err
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Company, error) {
	var company Company
	err := r.db.WithContext(ctx).
		Where("LOWER(code) = ?", strings.ToLower(strings.TrimSpace(code))).
		First(&company).Error
	return &company, err
}

func (r *repository) Update(ctx context.Context, company *Company) error {
	return r.db.WithContext(ctx).
		Model(company).
		Select("name", "active", "updated_at").
		Updates(company).Error
}
