package audit

import (
	"context"
	"time"

	"performa/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Create(ctx context.Context, log *AuditLog) error
	Find(ctx context.Context, companyID string, f Filters, offset, limit int) ([]AuditLog, int64, error)
	FindByEntity(ctx context.Context, companyID, entityType, entityID string) ([]AuditLog, error)
	FindUserActivity(ctx context.Context, companyID, userID string, since time.Time) ([]AuditLog, error)
	CountByAction(ctx context.Context, companyID string, start, end time.Time) ([]ActionCount, error)
	TopUsers(ctx context.Context, companyID string, start, end time.Time, limit int) ([]UserCount, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

var newestFirst = clause.OrderByColumn{
	Column: clause.Column{Table: "audit_logs", Name: "timestamp"},
	Desc:   true,
}

func (r *repository) Create(ctx context.Context, log *AuditLog) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(log).Error
}

func applyFilters(f Filters) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.UserID != "" {
			db = db.Where("audit_logs.user_id = ?", f.UserID)
		}
		if f.TargetUserID != "" {
			db = db.Where("audit_logs.target_user_id = ?", f.TargetUserID)
		}
		if f.EntityType != "" {
			db = db.Where("audit_logs.entity_type = ?", f.EntityType)
		}
		if f.EntityID != "" {
			db = db.Where("audit_logs.entity_id = ?", f.EntityID)
		}
		if f.Action != "" {
			db = db.Where("audit_logs.action = ?", f.Action)
		}
		if f.StartDate != nil {
			db = db.Where(`audit_logs."timestamp" >= ?`, *f.StartDate)
		}
		if f.EndDate != nil {
			db = db.Where(`audit_logs."timestamp" <= ?`, *f.EndDate)
		}
		return db
	}
}

func (r *repository) Find(ctx context.Context, companyID string, f Filters, offset, limit int) ([]AuditLog, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&AuditLog{}).
			Scopes(tenant.ScopeTable("audit_logs", companyID), applyFilters(f))
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []AuditLog
	q := base().Preload("User").Order(newestFirst).Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&logs).Error
	return logs, total, err
}

func (r *repository) FindByEntity(ctx context.Context, companyID, entityType, entityID string) ([]AuditLog, error) {
	var logs []AuditLog
	err := r.db.WithContext(ctx).
		Scopes(tenant.ScopeTable("audit_logs", companyID)).
		Where("audit_logs.entity_type = ? AND audit_logs.entity_id = ?", entityType, entityID).
		Preload("User").
		Order(newestFirst).
		Find(&logs).Error
	return logs, err
}

func (r *repository) FindUserActivity(ctx context.Context, companyID, userID string, since time.Time) ([]AuditLog, error) {
	var logs []AuditLog
	err := r.db.WithContext(ctx).
		Scopes(tenant.ScopeTable("audit_logs", companyID)).
		Where("(audit_logs.user_id = ? OR audit_logs.target_user_id = ?)", userID, userID).
		Where(`audit_logs."timestamp" >= ?`, since).
		Preload("User").
		Order(newestFirst).
		Find(&logs).Error
	return logs, err
}

func (r *repository) CountByAction(ctx context.Context, companyID string, start, end time.Time) ([]ActionCount, error) {
	var out []ActionCount
	err := r.db.WithContext(ctx).
		Model(&AuditLog{}).
		Select("audit_logs.action, audit_logs.entity_type, audit_logs.user_role, COUNT(*) AS count").
		Scopes(tenant.ScopeTable("audit_logs", companyID)).
		Where(`audit_logs."timestamp" BETWEEN ? AND ?`, start, end).
		Group("audit_logs.action, audit_logs.entity_type, audit_logs.user_role").
		Order("count DESC").
		Scan(&out).Error
	return out, err
}

func (r *repository) TopUsers(ctx context.Context, companyID string, start, end time.Time, limit int) ([]UserCount, error) {
	var out []UserCount
	err := r.db.WithContext(ctx).
		Table("audit_logs").
		Select("audit_logs.user_id, users.name, users.email, users.role, COUNT(*) AS count").
		Joins("LEFT JOIN users ON users.id = audit_logs.user_id").
		Scopes(tenant.ScopeTable("audit_logs", companyID)).
		Where(`audit_logs."timestamp" BETWEEN ? AND ?`, start, end).
		Group("audit_logs.user_id, users.name, users.email, users.role").
		Order("count DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}
