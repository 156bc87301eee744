package cycle

import (
	"context"
	"database/sql"
	"strings"

	"performa/internal/domain"
	"performa/internal/shared/database"
	"performa/internal/tenant"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, c *Cycle) error
	Update(ctx context.Context, c *Cycle) error
	Delete(ctx context.Context, companyID, id string) error
	FindByID(ctx context.Context, companyID, id string) (*Cycle, error)
	FindAll(ctx context.Context, companyID string, f ListCyclesFilter) ([]Cycle, error)
	FindActive(ctx context.Context, companyID string) (*Cycle, error)
	CountDependents(ctx context.Context, companyID, id string) (Dependents, error)
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

func (r *repository) Create(ctx context.Context, c *Cycle) error {
	return r.conn(ctx).Create(c).Error
}

func (r *repository) Update(ctx context.Context, c *Cycle) error {
	return r.conn(ctx).Omit("created_at").Save(c).Error
}

func (r *repository) Delete(ctx context.Context, companyID, id string) error {
	res := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		Delete(&Cycle{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, companyID, id string) (*Cycle, error) {
	var c Cycle
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) FindAll(ctx context.Context, companyID string, f ListCyclesFilter) ([]Cycle, error) {
	var cycles []Cycle
	q := r.conn(ctx).Scopes(tenant.Scope(companyID))
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("name ILIKE ?", "%"+s+"%")
	}
	err := q.Order("start_date DESC").Order("created_at DESC").Find(&cycles).Error
	return cycles, err
}

func (r *repository) FindActive(ctx context.Context, companyID string) (*Cycle, error) {
	var c Cycle
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("status = ?", domain.CycleStatusActive).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) CountDependents(ctx context.Context, companyID, id string) (Dependents, error) {
	var d Dependents
	counts := []struct {
		table string
		dst   *int64
	}{
		{"evaluations", &d.Evaluations},
		{"evaluation_items", &d.Items},
		{"partial_assessments", &d.Assessments},
	}
	for _, c := range counts {
		err := r.conn(ctx).
			Table(c.table).
			Scopes(tenant.Scope(companyID)).
			Where("cycle_id = ?", id).
			Count(c.dst).Error
		if err != nil {
			return Dependents{}, err
		}
	}
	return d, nil
}
