package evaluationitem

import (
	"context"
	"database/sql"
	"strings"

	"performa/internal/domain"
	"performa/internal/shared/database"
	"performa/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// removeFromEvaluationsSQL drops one item from every evaluation snapshot that
// still carries it. Rows without the item are untouched, so running it twice
// changes nothing.
const removeFromEvaluationsSQL = `
UPDATE evaluations
SET evaluation_items_data = jsonb_set(
		evaluation_items_data,
		'{items}',
		COALESCE(
			(SELECT jsonb_agg(elem)
			 FROM jsonb_array_elements(evaluation_items_data->'items') AS elem
			 WHERE elem->>'itemId' <> @item),
			'[]'::jsonb
		)
	),
	updated_at = NOW()
WHERE company_id = @company
  AND evaluation_items_data->'items' @> jsonb_build_array(jsonb_build_object('itemId', CAST(@item AS text)))`

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, item *Item) error
	Update(ctx context.Context, item *Item) error
	FindByID(ctx context.Context, companyID, id string) (*Item, error)
	FindAll(ctx context.Context, companyID string, f ListItemsFilter) ([]Item, error)
	FindForEmployee(ctx context.Context, companyID string, target EmployeeTarget) ([]Item, error)
	CreateAssignments(ctx context.Context, assignments []Assignment) error
	DeleteAssignment(ctx context.Context, companyID, itemID, employeeID string) error
	DeleteAssignments(ctx context.Context, companyID, itemID string) (int64, error)
	AssignedEmployeeIDs(ctx context.Context, companyID, itemID string) ([]string, error)
	RemoveFromEvaluations(ctx context.Context, companyID, itemID string) (int64, error)
}

// EmployeeTarget is what decides which items reach one employee.
type EmployeeTarget struct {
	EmployeeID string
	Department *string
	ManagerID  *string
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

func (r *repository) Create(ctx context.Context, item *Item) error {
	return r.conn(ctx).Create(item).Error
}

func (r *repository) Update(ctx context.Context, item *Item) error {
	return r.conn(ctx).Omit("created_at").Save(item).Error
}

func (r *repository) FindByID(ctx context.Context, companyID, id string) (*Item, error) {
	var item Item
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindAll(ctx context.Context, companyID string, f ListItemsFilter) ([]Item, error) {
	var items []Item
	q := r.conn(ctx).Scopes(tenant.Scope(companyID))
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Level != "" {
		q = q.Where("level = ?", f.Level)
	}
	if f.CycleID != "" {
		q = q.Where("cycle_id = ?", f.CycleID)
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("title ILIKE ?", "%"+s+"%")
	}
	err := q.Order("created_at DESC").Find(&items).Error
	return items, err
}

// FindForEmployee returns the active items reaching one employee through any
// of the four targeting paths.
func (r *repository) FindForEmployee(ctx context.Context, companyID string, target EmployeeTarget) ([]Item, error) {
	db := r.conn(ctx)
	cond := db.Where("level = ?", domain.ItemLevelCompany)
	if target.Department != nil && *target.Department != "" {
		cond = cond.Or("level = ? AND assigned_to = ?", domain.ItemLevelDepartment, *target.Department)
	}
	if target.ManagerID != nil && *target.ManagerID != "" {
		cond = cond.Or("level = ? AND assigned_to = ?", domain.ItemLevelManager, *target.ManagerID)
	}
	cond = cond.Or("id IN (?)", db.
		Model(&Assignment{}).
		Select("evaluation_item_id").
		Where("employee_id = ?", target.EmployeeID))

	var items []Item
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("active = ?", true).
		Where(cond).
		Order("type ASC").
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) CreateAssignments(ctx context.Context, assignments []Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.conn(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&assignments).Error
}

func (r *repository) DeleteAssignment(ctx context.Context, companyID, itemID, employeeID string) error {
	res := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("evaluation_item_id = ? AND employee_id = ?", itemID, employeeID).
		Delete(&Assignment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) DeleteAssignments(ctx context.Context, companyID, itemID string) (int64, error) {
	res := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("evaluation_item_id = ?", itemID).
		Delete(&Assignment{})
	return res.RowsAffected, res.Error
}

func (r *repository) AssignedEmployeeIDs(ctx context.Context, companyID, itemID string) ([]string, error) {
	var ids []string
	err := r.conn(ctx).
		Model(&Assignment{}).
		Scopes(tenant.Scope(companyID)).
		Where("evaluation_item_id = ?", itemID).
		Order("created_at ASC").
		Pluck("employee_id", &ids).Error
	return ids, err
}

func (r *repository) RemoveFromEvaluations(ctx context.Context, companyID, itemID string) (int64, error) {
	res := r.conn(ctx).Exec(removeFromEvaluationsSQL, sql.Named("item", itemID), sql.Named("company", companyID))
	return res.RowsAffected, res.Error
}
