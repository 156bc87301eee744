package permission

import (
	"context"
	"database/sql"

	"performa/internal/domain"
	"performa/internal/shared/database"
	"performa/internal/tenant"

	"gorm.io/gorm"
)

// Repository reads across users, cycles, evaluation items and assignments.
// Each item count is its own scoped query so totals can be checked piecewise.
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindCycle(ctx context.Context, companyID, cycleID string) (*Cycle, error)
	FindEmployee(ctx context.Context, companyID, id string) (*Employee, error)
	FindEmployees(ctx context.Context, companyID string, ids []string) ([]Employee, error)
	ActiveEmployees(ctx context.Context, companyID string) ([]Employee, error)
	EmployeesInDepartment(ctx context.Context, companyID, department string) ([]Employee, error)
	EmployeesOfManager(ctx context.Context, companyID, managerID string) ([]Employee, error)
	CountCompanyItems(ctx context.Context, companyID string) (int64, error)
	CountDepartmentItems(ctx context.Context, companyID, department string) (int64, error)
	CountManagerItems(ctx context.Context, companyID, managerID string) (int64, error)
	CountIndividualAssignments(ctx context.Context, companyID, employeeID string) (int64, error)
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

func (r *repository) activeUsers(ctx context.Context, companyID string) *gorm.DB {
	return r.conn(ctx).
		Model(&Employee{}).
		Scopes(tenant.Scope(companyID)).
		Where("active = ? AND deleted_at IS NULL", true)
}

func (r *repository) FindCycle(ctx context.Context, companyID, cycleID string) (*Cycle, error) {
	var c Cycle
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", cycleID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) FindEmployee(ctx context.Context, companyID, id string) (*Employee, error) {
	var e Employee
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) FindEmployees(ctx context.Context, companyID string, ids []string) ([]Employee, error) {
	var out []Employee
	if len(ids) == 0 {
		return out, nil
	}
	err := r.activeUsers(ctx, companyID).
		Where("id IN ?", ids).
		Order("name ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) ActiveEmployees(ctx context.Context, companyID string) ([]Employee, error) {
	var out []Employee
	err := r.activeUsers(ctx, companyID).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *repository) EmployeesInDepartment(ctx context.Context, companyID, department string) ([]Employee, error) {
	var out []Employee
	err := r.activeUsers(ctx, companyID).
		Where("department = ?", department).
		Order("name ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) EmployeesOfManager(ctx context.Context, companyID, managerID string) ([]Employee, error) {
	var out []Employee
	err := r.activeUsers(ctx, companyID).
		Where("manager_id = ?", managerID).
		Order("name ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) activeItems(ctx context.Context, companyID, level string) *gorm.DB {
	return r.conn(ctx).
		Table("evaluation_items").
		Scopes(tenant.Scope(companyID)).
		Where("active = ? AND level = ?", true, level)
}

func (r *repository) CountCompanyItems(ctx context.Context, companyID string) (int64, error) {
	var n int64
	err := r.activeItems(ctx, companyID, domain.ItemLevelCompany).Count(&n).Error
	return n, err
}

func (r *repository) CountDepartmentItems(ctx context.Context, companyID, department string) (int64, error) {
	var n int64
	err := r.activeItems(ctx, companyID, domain.ItemLevelDepartment).
		Where("assigned_to = ?", department).
		Count(&n).Error
	return n, err
}

func (r *repository) CountManagerItems(ctx context.Context, companyID, managerID string) (int64, error) {
	var n int64
	err := r.activeItems(ctx, companyID, domain.ItemLevelManager).
		Where("assigned_to = ?", managerID).
		Count(&n).Error
	return n, err
}

func (r *repository) CountIndividualAssignments(ctx context.Context, companyID, employeeID string) (int64, error) {
	var n int64
	err := r.conn(ctx).
		Table("evaluation_item_assignments").
		Joins("JOIN evaluation_items ON evaluation_items.id = evaluation_item_assignments.evaluation_item_id").
		Scopes(tenant.ScopeTable("evaluation_item_assignments", companyID)).
		Where("evaluation_item_assignments.employee_id = ? AND evaluation_items.active = ?", employeeID, true).
		Count(&n).Error
	return n, err
}
