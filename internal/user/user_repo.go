package user

import (
	"context"
	"database/sql"
	"strings"

	"performa/internal/shared/database"
	"performa/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=user_repo.go -destination=mock/user_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, companyID, id string) error
	FindByID(ctx context.Context, companyID, id string) (*User, error)
	FindAll(ctx context.Context, companyID string, f ListUsersFilter) ([]User, int64, error)
	FindByManager(ctx context.Context, companyID, managerID string) ([]User, error)
	FindByIdentifier(ctx context.Context, companyID, identifier string) (*User, error)
	FindByPersonIDs(ctx context.Context, companyID string, personIDs []string) ([]User, error)
	CountActiveReports(ctx context.Context, companyID, managerID string) (int64, error)
	TouchLastLogin(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db, r.tx)
}

func (r *repository) Create(ctx context.Context, u *User) error {
	return r.conn(ctx).Omit("Manager").Create(u).Error
}

func (r *repository) Update(ctx context.Context, u *User) error {
	return r.conn(ctx).Omit("Manager", "created_at").Save(u).Error
}

func (r *repository) Delete(ctx context.Context, companyID, id string) error {
	res := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		Delete(&User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, companyID, id string) (*User, error) {
	var u User
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Manager").
		First(&u, "id = ?", id).Error
	return &u, err
}

func (r *repository) FindAll(ctx context.Context, companyID string, f ListUsersFilter) ([]User, int64, error) {
	base := func() *gorm.DB {
		q := r.conn(ctx).Model(&User{}).Scopes(tenant.Scope(companyID))
		if f.Role != "" {
			q = q.Where("role = ?", f.Role)
		}
		if f.Department != "" {
			q = q.Where("department = ?", f.Department)
		}
		if f.Active != nil {
			q = q.Where("active = ?", *f.Active)
		}
		if s := strings.TrimSpace(f.Search); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(username) LIKE ? OR person_id LIKE ?)", like, like, like, like)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []User
	q := base().Preload("Manager").Order("name ASC")
	if f.Limit > 0 {
		q = q.Offset((f.Page - 1) * f.Limit).Limit(f.Limit)
	}
	err := q.Find(&users).Error
	return users, total, err
}

func (r *repository) FindByManager(ctx context.Context, companyID, managerID string) ([]User, error) {
	var users []User
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("manager_id = ? AND active = ?", managerID, true).
		Order("name ASC").
		Find(&users).Error
	return users, err
}

func (r *repository) FindByIdentifier(ctx context.Context, companyID, identifier string) (*User, error) {
	var u User
	id := strings.ToLower(strings.TrimSpace(identifier))
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("(LOWER(email) = ? OR LOWER(username) = ?)", id, id).
		First(&u).Error
	return &u, err
}

func (r *repository) FindByPersonIDs(ctx context.Context, companyID string, personIDs []string) ([]User, error) {
	var users []User
	if len(personIDs) == 0 {
		return users, nil
	}
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("person_id IN ?", personIDs).
		Find(&users).Error
	return users, err
}

func (r *repository) CountActiveReports(ctx context.Context, companyID, managerID string) (int64, error) {
	var count int64
	err := r.conn(ctx).
		Model(&User{}).
		Scopes(tenant.Scope(companyID)).
		Where("manager_id = ? AND active = ?", managerID, true).
		Count(&count).Error
	return count, err
}

func (r *repository) TouchLastLogin(ctx context.Context, id string) error {
	return r.conn(ctx).
		Model(&User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", gorm.Expr("NOW()")).Error
}
