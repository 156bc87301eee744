package assessment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	assessmenterrors "performa/internal/assessment/errors"
	"performa/internal/audit"
	"performa/internal/permission"
	permissionerrors "performa/internal/permission/errors"
	"performa/internal/shared/apperror"
	"performa/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, actor contextutil.Actor, req CreateAssessmentRequest) (AssessmentResponse, error)
	GetActiveForEmployee(ctx context.Context, actor contextutil.Actor, f ActiveFilter) ([]AssessmentResponse, error)
	GetHistory(ctx context.Context, actor contextutil.Actor, f HistoryFilter) ([]AssessmentResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	perms  permission.Service
	audit  audit.Logger
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, perms permission.Service, auditLogger audit.Logger, logger ...*zap.Logger) Service {
	l := zap.L().Named("assessment.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("assessment.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		perms:  perms,
		audit:  auditLogger,
		logger: l,
	}
}

func (s *service) Create(ctx context.Context, actor contextutil.Actor, req CreateAssessmentRequest) (AssessmentResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	companyID, err := uuid.Parse(actor.CompanyID)
	if err != nil {
		return AssessmentResponse{}, apperror.ErrUnauthorized
	}
	assessor, err := uuid.Parse(actor.UserID)
	if err != nil {
		return AssessmentResponse{}, apperror.ErrUnauthorized
	}
	cycleID, err := uuid.Parse(req.CycleID)
	if err != nil {
		return AssessmentResponse{}, apperror.InvalidField("cycleId")
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return AssessmentResponse{}, assessmenterrors.ErrInvalidEmployeeID
	}
	itemID, err := uuid.Parse(req.EvaluationItemID)
	if err != nil {
		return AssessmentResponse{}, assessmenterrors.ErrInvalidItemID
	}
	if req.Rating < 1 || req.Rating > 5 {
		return AssessmentResponse{}, assessmenterrors.ErrInvalidRating
	}

	if res := s.perms.ValidateCyclePermission(ctx, actor, req.CycleID, permission.KindPartialAssessment); !res.Allowed {
		return AssessmentResponse{}, res.AsError()
	}
	ok, err := s.perms.CanManage(ctx, actor, req.EmployeeID)
	if err != nil {
		return AssessmentResponse{}, err
	}
	if !ok {
		return AssessmentResponse{}, permissionerrors.ErrNotYourTeam
	}

	item, err := s.repo.FindItem(ctx, actor.CompanyID, req.EvaluationItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AssessmentResponse{}, assessmenterrors.ErrItemNotFound
		}
		return AssessmentResponse{}, err
	}
	if !item.Active {
		return AssessmentResponse{}, assessmenterrors.ErrItemInactive
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		l.Error("create assessment begin tx failed", zap.Error(err))
		return AssessmentResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	a := &PartialAssessment{
		ID:               uuid.New(),
		CompanyID:        companyID,
		CycleID:          cycleID,
		EmployeeID:       employeeID,
		EvaluationItemID: itemID,
		AssessedBy:       assessor,
		Rating:           req.Rating,
		Comment:          req.Comment,
		IsActive:         true,
	}

	var previous *AssessmentResponse
	prev, err := qtx.FindActiveForUpdate(ctx, actor.CompanyID, req.CycleID, req.EmployeeID, req.EvaluationItemID)
	switch {
	case err == nil:
		if err := qtx.Supersede(ctx, actor.CompanyID, prev.ID, a.ID); err != nil {
			l.Warn("supersede assessment failed", zap.String("assessment_id", prev.ID.String()), zap.Error(err))
			return AssessmentResponse{}, mapRepositoryError(err)
		}
		p := mapToResponse(prev, item.Title)
		previous = &p
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		l.Error("find active assessment failed", zap.Error(err))
		return AssessmentResponse{}, err
	}

	if err := qtx.Create(ctx, a); err != nil {
		l.Warn("create assessment failed", zap.Error(err))
		return AssessmentResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		l.Error("create assessment commit failed", zap.Error(err))
		return AssessmentResponse{}, mapRepositoryError(err)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	resp := mapToResponse(a, item.Title)
	entry := audit.Entry{
		CompanyID:    actor.CompanyID,
		UserID:       actor.UserID,
		UserRole:     actor.Role,
		Action:       audit.ActionCreated,
		EntityType:   audit.EntityPartialAssessment,
		EntityID:     a.ID.String(),
		TargetUserID: req.EmployeeID,
		NewData:      resp,
	}
	if previous != nil {
		entry.OldData = previous
		entry.Metadata = map[string]any{"supersedes": previous.ID}
	}
	s.audit.Log(ctx, entry)

	return resp, nil
}

func (s *service) canView(ctx context.Context, actor contextutil.Actor, employeeID string) error {
	if employeeID == actor.UserID {
		return nil
	}
	ok, err := s.perms.CanManage(ctx, actor, employeeID)
	if err != nil {
		if errors.Is(err, permissionerrors.ErrEmployeeNotFound) {
			return apperror.ErrForbidden
		}
		return err
	}
	if !ok {
		return apperror.ErrForbidden
	}
	return nil
}

func (s *service) withTitles(ctx context.Context, companyID string, rows []PartialAssessment) ([]AssessmentResponse, error) {
	seen := map[string]struct{}{}
	var ids []string
	for _, r := range rows {
		id := r.EvaluationItemID.String()
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	items, err := s.repo.FindItems(ctx, companyID, ids)
	if err != nil {
		return nil, err
	}
	titles := make(map[uuid.UUID]string, len(items))
	for _, it := range items {
		titles[it.ID] = it.Title
	}

	out := make([]AssessmentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, mapToResponse(&rows[i], titles[rows[i].EvaluationItemID]))
	}
	return out, nil
}

func (s *service) GetActiveForEmployee(ctx context.Context, actor contextutil.Actor, f ActiveFilter) ([]AssessmentResponse, error) {
	if err := s.canView(ctx, actor, f.EmployeeID); err != nil {
		return nil, err
	}
	rows, err := s.repo.FindActive(ctx, actor.CompanyID, f.EmployeeID, f.CycleID)
	if err != nil {
		return nil, err
	}
	return s.withTitles(ctx, actor.CompanyID, rows)
}

// GetHistory returns superseded rows too, newest first.
func (s *service) GetHistory(ctx context.Context, actor contextutil.Actor, f HistoryFilter) ([]AssessmentResponse, error) {
	if err := s.canView(ctx, actor, f.EmployeeID); err != nil {
		return nil, err
	}
	rows, err := s.repo.FindHistory(ctx, actor.CompanyID, f)
	if err != nil {
		return nil, err
	}
	return s.withTitles(ctx, actor.CompanyID, rows)
}

func mapToResponse(a *PartialAssessment, itemTitle string) AssessmentResponse {
	var superseded *string
	if a.SupersededBy != nil {
		v := a.SupersededBy.String()
		superseded = &v
	}
	return AssessmentResponse{
		ID:               a.ID.String(),
		CycleID:          a.CycleID.String(),
		EmployeeID:       a.EmployeeID.String(),
		EvaluationItemID: a.EvaluationItemID.String(),
		ItemTitle:        itemTitle,
		AssessedBy:       a.AssessedBy.String(),
		Rating:           a.Rating,
		Comment:          a.Comment,
		IsActive:         a.IsActive,
		SupersededBy:     superseded,
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
	}
}
