package biometric

import (
	"context"
	"time"

	"performa/internal/tenant"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, c *Credential) error
	FindActiveByUser(ctx context.Context, companyID, userID string) ([]Credential, error)
	FindByID(ctx context.Context, companyID, id string) (*Credential, error)
	FindByCredentialID(ctx context.Context, companyID, credentialID string) (*Credential, error)
	RecordUse(ctx context.Context, id string, signCount uint32, backupState bool, usedAt time.Time) error
	Deactivate(ctx context.Context, companyID, id string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *Credential) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repository) FindActiveByUser(ctx context.Context, companyID, userID string) ([]Credential, error) {
	var creds []Credential
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		Find(&creds).Error
	return creds, err
}

func (r *repository) FindByID(ctx context.Context, companyID, id string) (*Credential, error) {
	var c Credential
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) FindByCredentialID(ctx context.Context, companyID, credentialID string) (*Credential, error) {
	var c Credential
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("credential_id = ? AND is_active = ?", credentialID, true).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) RecordUse(ctx context.Context, id string, signCount uint32, backupState bool, usedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Credential{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sign_count":   int64(signCount),
			"backup_state": backupState,
			"last_used_at": usedAt,
			"updated_at":   usedAt,
		}).Error
}

func (r *repository) Deactivate(ctx context.Context, companyID, id string) error {
	res := r.db.WithContext(ctx).
		Model(&Credential{}).
		Scopes(tenant.Scope(companyID)).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
