package evaluation

import (
	"context"
	"database/sql"

	"performa/internal/shared/database"
	"performa/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Visibility narrows listings: employees see their own rows, managers their
// own plus their direct reports', HR everything.
type Visibility struct {
	SelfID    string
	ManagerID string
	All       bool
}

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, e *Evaluation) error
	Update(ctx context.Context, e *Evaluation) error
	FindByID(ctx context.Context, companyID, id string) (*Evaluation, error)
	FindByKeyForUpdate(ctx context.Context, companyID, employeeID, periodType, periodDate string) (*Evaluation, error)
	FindAll(ctx context.Context, companyID string, v Visibility, f ListEvaluationsFilter) ([]Evaluation, int64, error)
	FindCycle(ctx context.Context, companyID, id string) (*CycleRef, error)
	FindItems(ctx context.Context, companyID string, ids []string) ([]ItemRef, error)
	FindPeople(ctx context.Context, companyID string, ids []string) ([]Person, error)
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

func (r *repository) Create(ctx context.Context, e *Evaluation) error {
	return r.conn(ctx).Create(e).Error
}

func (r *repository) Update(ctx context.Context, e *Evaluation) error {
	return r.conn(ctx).Omit("created_at").Save(e).Error
}

func (r *repository) FindByID(ctx context.Context, companyID, id string) (*Evaluation, error) {
	var e Evaluation
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) FindByKeyForUpdate(ctx context.Context, companyID, employeeID, periodType, periodDate string) (*Evaluation, error) {
	var e Evaluation
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ? AND period_type = ? AND period_date = ?", employeeID, periodType, periodDate).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) FindAll(ctx context.Context, companyID string, v Visibility, f ListEvaluationsFilter) ([]Evaluation, int64, error) {
	var (
		rows  []Evaluation
		total int64
	)

	q := r.conn(ctx).Model(&Evaluation{}).Scopes(tenant.Scope(companyID))
	switch {
	case v.All:
	case v.ManagerID != "":
		q = q.Where("employee_id = ? OR employee_id IN (?)", v.SelfID,
			r.conn(ctx).Table("users").Select("id").Where("manager_id = ? AND deleted_at IS NULL", v.ManagerID))
	default:
		q = q.Where("employee_id = ?", v.SelfID)
	}

	if f.EmployeeID != "" {
		q = q.Where("employee_id = ?", f.EmployeeID)
	}
	if f.CycleID != "" {
		q = q.Where("cycle_id = ?", f.CycleID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PeriodType != "" {
		q = q.Where("period_type = ?", f.PeriodType)
	}
	if f.PeriodDate != "" {
		q = q.Where("period_date = ?", f.PeriodDate)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	err := q.Order("updated_at DESC").Limit(f.Limit).Offset(offset).Find(&rows).Error
	return rows, total, err
}

func (r *repository) FindCycle(ctx context.Context, companyID, id string) (*CycleRef, error) {
	var c CycleRef
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) FindItems(ctx context.Context, companyID string, ids []string) ([]ItemRef, error) {
	var items []ItemRef
	if len(ids) == 0 {
		return items, nil
	}
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id IN ?", ids).
		Find(&items).Error
	return items, err
}

func (r *repository) FindPeople(ctx context.Context, companyID string, ids []string) ([]Person, error) {
	var people []Person
	if len(ids) == 0 {
		return people, nil
	}
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id IN ?", ids).
		Find(&people).Error
	return people, err
}
