package company

import (
	"context"
	"errors"
	"time"

	"performa/internal/audit"
	companyerrors "performa/internal/company/errors"
	"performa/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -destination=mock/company_service_mock.go -package=mock . Service
type Service interface {
	GetByID(ctx context.Context, id string) (*CompanyResponse, error)
	GetByCode(ctx context.Context, code string) (*CompanyResponse, error)
	Update(ctx context.Context, actor contextutil.Actor, req UpdateCompanyRequest) (*CompanyResponse, error)
}

type service struct {
	repo   Repository
	audit  audit.Logger
	logger *zap.Logger
}

func NewService(repo Repository, auditLogger audit.Logger, logger ...*zap.Logger) Service {
	l := zap.L().Named("company.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("company.service")
	}
	return &service{repo: repo, audit: auditLogger, logger: l}
}

func (s *service) get(ctx context.Context, id string) (*Company, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, companyerrors.ErrInvalidCompanyID
	}

	comp, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, companyerrors.ErrCompanyNotFound
		}
		return nil, err
	}
	return comp, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*CompanyResponse, error) {
	comp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapToResponse(comp), nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*CompanyResponse, error) {
	comp, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, companyerrors.ErrCompanyNotFound
		}
		return nil, err
	}
	return mapToResponse(comp), nil
}

func (s *service) Update(ctx context.Context, actor contextutil.Actor, req UpdateCompanyRequest) (*CompanyResponse, error) {
	comp, err := s.get(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	before := *mapToResponse(comp)

	if req.Name != "" {
		comp.Name = req.Name
	}
	if req.Active != nil {
		comp.Active = *req.Active
	}
	comp.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, comp); err != nil {
		s.logger.Error("update company failed", zap.String("company_id", actor.CompanyID), zap.Error(err))
		return nil, err
	}

	after := mapToResponse(comp)
	s.audit.Log(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		UserID:     actor.UserID,
		UserRole:   actor.Role,
		Action:     audit.ActionUpdated,
		EntityType: audit.EntityCompany,
		EntityID:   actor.CompanyID,
		OldData:    before,
		NewData:    after,
	})

	return after, nil
}

func mapToResponse(c *Company) *CompanyResponse {
	return &CompanyResponse{
		ID:     c.ID.String(),
		Name:   c.Name,
		Code:   c.Code,
		Active: c.Active,
	}
}
