package dashboard

import (
	"context"

	"performa/internal/domain"
	"performa/internal/tenant"

	"gorm.io/gorm"
)

type Repository interface {
	ActiveCycle(ctx context.Context, companyID string) (*CycleRow, error)
	RecentEvaluations(ctx context.Context, companyID, employeeID string, limit int) ([]EvaluationRow, error)
	TeamMembers(ctx context.Context, companyID, managerID string) ([]MemberRow, error)
	LatestEvaluations(ctx context.Context, companyID string, employeeIDs []string) ([]EvaluationRow, error)
	CountEmployees(ctx context.Context, companyID string) (int64, error)
	StatusCounts(ctx context.Context, companyID string) ([]StatusCount, error)
	DepartmentStatusCounts(ctx context.Context, companyID string) ([]DepartmentStatusCount, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ActiveCycle(ctx context.Context, companyID string) (*CycleRow, error) {
	var c CycleRow
	err := r.db.WithContext(ctx).
		Table("performance_cycles").
		Select("id, name, end_date").
		Scopes(tenant.Scope(companyID)).
		Where("status = ?", domain.CycleStatusActive).
		Take(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) RecentEvaluations(ctx context.Context, companyID, employeeID string, limit int) ([]EvaluationRow, error) {
	var rows []EvaluationRow
	err := r.db.WithContext(ctx).
		Table("evaluations").
		Select("id, employee_id, period_type, period_date, status, overall_rating, updated_at").
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Order("updated_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *repository) TeamMembers(ctx context.Context, companyID, managerID string) ([]MemberRow, error) {
	var rows []MemberRow
	err := r.db.WithContext(ctx).
		Table("users").
		Select("id, name, department").
		Scopes(tenant.Scope(companyID)).
		Where("manager_id = ? AND active = ? AND deleted_at IS NULL", managerID, true).
		Order("name ASC").
		Scan(&rows).Error
	return rows, err
}

// LatestEvaluations returns the most recently updated evaluation per employee.
func (r *repository) LatestEvaluations(ctx context.Context, companyID string, employeeIDs []string) ([]EvaluationRow, error) {
	var rows []EvaluationRow
	if len(employeeIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Table("evaluations").
		Select("DISTINCT ON (employee_id) id, employee_id, period_type, period_date, status, overall_rating, updated_at").
		Scopes(tenant.Scope(companyID)).
		Where("employee_id IN ?", employeeIDs).
		Order("employee_id, updated_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) CountEmployees(ctx context.Context, companyID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("users").
		Scopes(tenant.Scope(companyID)).
		Where("active = ? AND deleted_at IS NULL", true).
		Count(&n).Error
	return n, err
}

func (r *repository) StatusCounts(ctx context.Context, companyID string) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Table("evaluations").
		Select("status, COUNT(*) AS count").
		Scopes(tenant.Scope(companyID)).
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) DepartmentStatusCounts(ctx context.Context, companyID string) ([]DepartmentStatusCount, error) {
	var rows []DepartmentStatusCount
	err := r.db.WithContext(ctx).
		Table("evaluations e").
		Select("COALESCE(u.department, '') AS department, e.status AS status, COUNT(*) AS count").
		Joins("JOIN users u ON u.id = e.employee_id").
		Scopes(tenant.ScopeTable("e", companyID)).
		Group("COALESCE(u.department, ''), e.status").
		Order("department ASC").
		Scan(&rows).Error
	return rows, err
}
