package assessment

import (
	"context"
	"database/sql"

	"performa/internal/shared/database"
	"performa/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConstraintActiveTriple is the partial unique index keeping one active row
// per (cycle, employee, item).
const ConstraintActiveTriple = "uq_partial_assessments_active"

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, a *PartialAssessment) error
	FindActiveForUpdate(ctx context.Context, companyID, cycleID, employeeID, itemID string) (*PartialAssessment, error)
	Supersede(ctx context.Context, companyID string, id, by uuid.UUID) error
	FindActive(ctx context.Context, companyID, employeeID, cycleID string) ([]PartialAssessment, error)
	FindHistory(ctx context.Context, companyID string, f HistoryFilter) ([]PartialAssessment, error)
	FindItem(ctx context.Context, companyID, id string) (*ItemRef, error)
	FindItems(ctx context.Context, companyID string, ids []string) ([]ItemRef, error)
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

func (r *repository) Create(ctx context.Context, a *PartialAssessment) error {
	return r.conn(ctx).Create(a).Error
}

func (r *repository) FindActiveForUpdate(ctx context.Context, companyID, cycleID, employeeID, itemID string) (*PartialAssessment, error) {
	var a PartialAssessment
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(companyID)).
		Where("cycle_id = ? AND employee_id = ? AND evaluation_item_id = ? AND is_active = ?", cycleID, employeeID, itemID, true).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) Supersede(ctx context.Context, companyID string, id, by uuid.UUID) error {
	res := r.conn(ctx).
		Model(&PartialAssessment{}).
		Scopes(tenant.Scope(companyID)).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{"is_active": false, "superseded_by": by})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindActive(ctx context.Context, companyID, employeeID, cycleID string) ([]PartialAssessment, error) {
	var rows []PartialAssessment
	q := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ? AND is_active = ?", employeeID, true)
	if cycleID != "" {
		q = q.Where("cycle_id = ?", cycleID)
	}
	err := q.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) FindHistory(ctx context.Context, companyID string, f HistoryFilter) ([]PartialAssessment, error) {
	var rows []PartialAssessment
	q := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", f.EmployeeID)
	if f.CycleID != "" {
		q = q.Where("cycle_id = ?", f.CycleID)
	}
	if f.EvaluationItemID != "" {
		q = q.Where("evaluation_item_id = ?", f.EvaluationItemID)
	}
	err := q.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) FindItem(ctx context.Context, companyID, id string) (*ItemRef, error) {
	var it ItemRef
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		First(&it).Error
	if err != nil {
		return nil, err
	}
	return &it, nil
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
