package cycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"performa/internal/audit"
	cycleerrors "performa/internal/cycle/errors"
	"performa/internal/domain"
	"performa/internal/events"
	"performa/internal/messaging/kafka"
	"performa/internal/shared/apperror"
	"performa/internal/shared/contextutil"
	"performa/internal/shared/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	dateLayout = "2006-01-02"

	// startDateGrace is how far in the past a new start date may lie.
	startDateGrace = 24 * time.Hour
)

//go:generate mockgen -source=cycle_service.go -destination=mock/cycle_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actor contextutil.Actor, req CreateCycleRequest) (CycleResponse, error)
	GetAll(ctx context.Context, companyID string, f ListCyclesFilter) ([]CycleResponse, error)
	GetByID(ctx context.Context, companyID, id string) (CycleResponse, error)
	GetActive(ctx context.Context, companyID string) (CycleResponse, error)
	Update(ctx context.Context, actor contextutil.Actor, id string, req UpdateCycleRequest) (CycleResponse, error)
	UpdateStatus(ctx context.Context, actor contextutil.Actor, id string, req UpdateStatusRequest) (CycleResponse, error)
	Delete(ctx context.Context, actor contextutil.Actor, id string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	audit  audit.Logger
	logger *zap.Logger
	now    func() time.Time
}

func NewService(
	db *sql.DB,
	repo Repository,
	outbox kafka.OutboxRepository,
	auditLogger audit.Logger,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("cycle.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("cycle.service")
	}
	return &service{db: db, repo: repo, outbox: outbox, audit: auditLogger, logger: l, now: time.Now}
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, cycleerrors.ErrInvalidDate
	}
	return t, nil
}

func (s *service) validateDates(start, end time.Time, checkStart bool) error {
	if !end.After(start) {
		return cycleerrors.ErrEndBeforeStart
	}
	if checkStart {
		// Start dates carry no time, so the grace is checked on the UTC day.
		earliest := s.now().UTC().Add(-startDateGrace).Truncate(24 * time.Hour)
		if start.Before(earliest) {
			return cycleerrors.ErrStartInPast
		}
	}
	return nil
}

func validatePeriod(periodType, periodDate *string) error {
	if periodType == nil && periodDate == nil {
		return nil
	}
	if periodType == nil || periodDate == nil || !domain.IsValidPeriod(*periodType, *periodDate) {
		return cycleerrors.ErrInvalidPeriod
	}
	return nil
}

// activeConflict describes the cycle that blocks another activation.
func activeConflict(active *Cycle) error {
	return cycleerrors.ErrActiveCycleExists.
		WithMessage(fmt.Sprintf("only one active cycle is allowed per company; %q is currently active", active.Name)).
		WithDetails(map[string]any{
			"activeCycleId":   active.ID.String(),
			"activeCycleName": active.Name,
		})
}

func (s *service) enqueueStatusChange(ctx context.Context, tx *sql.Tx, c *Cycle, from string, actor contextutil.Actor) error {
	if s.outbox == nil {
		return nil
	}
	event, err := kafka.NewOutboxEvent(ctx, c.CompanyID.String(), string(audit.EntityCycle), c.ID.String(),
		events.EventCycleStatusChanged, events.CycleLifecycleTopic,
		events.CycleStatusChangedEvent{
			EventType:  events.EventCycleStatusChanged,
			CycleID:    c.ID.String(),
			CompanyID:  c.CompanyID.String(),
			FromStatus: from,
			ToStatus:   c.Status,
			ChangedBy:  actor.UserID,
			OccurredAt: s.now().UTC(),
		})
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, event)
}

func (s *service) Create(ctx context.Context, actor contextutil.Actor, req CreateCycleRequest) (CycleResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	companyID, err := uuid.Parse(actor.CompanyID)
	if err != nil {
		return CycleResponse{}, apperror.ErrUnauthorized
	}
	createdBy, err := uuid.Parse(actor.UserID)
	if err != nil {
		return CycleResponse{}, apperror.ErrUnauthorized
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return CycleResponse{}, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return CycleResponse{}, err
	}
	if err := s.validateDates(start, end, true); err != nil {
		return CycleResponse{}, err
	}
	if err := validatePeriod(req.PeriodType, req.PeriodDate); err != nil {
		return CycleResponse{}, err
	}

	tx, err := database.BeginSerializable(ctx, s.db)
	if err != nil {
		l.Error("create cycle begin tx failed", zap.Error(err))
		return CycleResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	active, err := qtx.FindActive(ctx, actor.CompanyID)
	if err == nil {
		return CycleResponse{}, activeConflict(active)
	}
	if !errors.Is(mapRepositoryError(err), cycleerrors.ErrCycleNotFound) {
		return CycleResponse{}, mapRepositoryError(err)
	}

	c := &Cycle{
		ID:         uuid.New(),
		CompanyID:  companyID,
		Name:       strings.TrimSpace(req.Name),
		StartDate:  start,
		EndDate:    end,
		Status:     domain.CycleStatusActive,
		PeriodType: req.PeriodType,
		PeriodDate: req.PeriodDate,
		CreatedBy:  createdBy,
	}
	if err := qtx.Create(ctx, c); err != nil {
		l.Warn("create cycle persist failed", zap.Error(err))
		return CycleResponse{}, mapRepositoryError(err)
	}

	if err := s.enqueueStatusChange(ctx, tx, c, "", actor); err != nil {
		l.Error("create cycle outbox persist failed", zap.Error(err))
		return CycleResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		l.Error("create cycle commit failed", zap.Error(err))
		return CycleResponse{}, mapRepositoryError(err)
	}

	resp := mapToResponse(c)
	s.audit.Log(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		UserID:     actor.UserID,
		UserRole:   actor.Role,
		Action:     audit.ActionCreated,
		EntityType: audit.EntityCycle,
		EntityID:   c.ID.String(),
		NewData:    resp,
	})

	l.Info("create cycle success", zap.String("cycle_id", c.ID.String()), zap.String("name", c.Name))
	return resp, nil
}

func (s *service) GetAll(ctx context.Context, companyID string, f ListCyclesFilter) ([]CycleResponse, error) {
	if f.Status != "" && !isValidStatus(f.Status) {
		return nil, cycleerrors.ErrInvalidStatus
	}
	cycles, err := s.repo.FindAll(ctx, companyID, f)
	if err != nil {
		return nil, err
	}
	out := make([]CycleResponse, 0, len(cycles))
	for i := range cycles {
		out = append(out, mapToResponse(&cycles[i]))
	}
	return out, nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (CycleResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return CycleResponse{}, cycleerrors.ErrInvalidCycleID
	}
	c, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		return CycleResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(c), nil
}

func (s *service) GetActive(ctx context.Context, companyID string) (CycleResponse, error) {
	c, err := s.repo.FindActive(ctx, companyID)
	if err != nil {
		if errors.Is(mapRepositoryError(err), cycleerrors.ErrCycleNotFound) {
			return CycleResponse{}, cycleerrors.ErrNoActiveCycle
		}
		return CycleResponse{}, err
	}
	return mapToResponse(c), nil
}

func (s *service) Update(ctx context.Context, actor contextutil.Actor, id string, req UpdateCycleRequest) (CycleResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)
	if _, err := uuid.Parse(id); err != nil {
		return CycleResponse{}, cycleerrors.ErrInvalidCycleID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		l.Error("update cycle begin tx failed", zap.Error(err))
		return CycleResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	c, err := qtx.FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		return CycleResponse{}, mapRepositoryError(err)
	}
	if c.Status == domain.CycleStatusArchived {
		return CycleResponse{}, cycleerrors.ErrArchivedReadOnly
	}
	before := mapToResponse(c)

	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}

	startChanged := false
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			return CycleResponse{}, err
		}
		startChanged = !start.Equal(c.StartDate)
		c.StartDate = start
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			return CycleResponse{}, err
		}
		c.EndDate = end
	}
	if err := s.validateDates(c.StartDate, c.EndDate, startChanged); err != nil {
		return CycleResponse{}, err
	}

	if req.PeriodType != nil || req.PeriodDate != nil {
		if err := validatePeriod(req.PeriodType, req.PeriodDate); err != nil {
			return CycleResponse{}, err
		}
		c.PeriodType, c.PeriodDate = req.PeriodType, req.PeriodDate
	}

	c.UpdatedAt = s.now()
	if err := qtx.Update(ctx, c); err != nil {
		l.Warn("update cycle persist failed", zap.Error(err))
		return CycleResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		l.Error("update cycle commit failed", zap.Error(err))
		return CycleResponse{}, err
	}

	after := mapToResponse(c)
	s.audit.Log(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		UserID:     actor.UserID,
		UserRole:   actor.Role,
		Action:     audit.ActionUpdated,
		EntityType: audit.EntityCycle,
		EntityID:   id,
		OldData:    before,
		NewData:    after,
	})
	return after, nil
}

func isValidStatus(status string) bool {
	switch status {
	case domain.CycleStatusActive, domain.CycleStatusClosed, domain.CycleStatusArchived:
		return true
	}
	return false
}

// canTransition encodes the lifecycle: active and closed swap freely,
// archived is reachable only from closed and is terminal.
func canTransition(from, to string) bool {
	switch from {
	case domain.CycleStatusActive:
		return to == domain.CycleStatusClosed
	case domain.CycleStatusClosed:
		return to == domain.CycleStatusActive || to == domain.CycleStatusArchived
	}
	return false
}

func (s *service) UpdateStatus(ctx context.Context, actor contextutil.Actor, id string, req UpdateStatusRequest) (CycleResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)
	if _, err := uuid.Parse(id); err != nil {
		return CycleResponse{}, cycleerrors.ErrInvalidCycleID
	}
	if !isValidStatus(req.Status) {
		return CycleResponse{}, cycleerrors.ErrInvalidStatus
	}

	tx, err := database.BeginSerializable(ctx, s.db)
	if err != nil {
		l.Error("update cycle status begin tx failed", zap.Error(err))
		return CycleResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	c, err := qtx.FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		return CycleResponse{}, mapRepositoryError(err)
	}

	from := c.Status
	if !canTransition(from, req.Status) {
		return CycleResponse{}, cycleerrors.ErrInvalidTransition.
			WithMessage(fmt.Sprintf("cannot change cycle status from %s to %s", from, req.Status))
	}
	before := mapToResponse(c)

	switch req.Status {
	case domain.CycleStatusActive:
		active, err := qtx.FindActive(ctx, actor.CompanyID)
		if err == nil && active.ID != c.ID {
			return CycleResponse{}, activeConflict(active)
		}
		if err != nil && !errors.Is(mapRepositoryError(err), cycleerrors.ErrCycleNotFound) {
			return CycleResponse{}, mapRepositoryError(err)
		}
		c.ClosedBy = nil
		c.ClosedAt = nil
	case domain.CycleStatusClosed:
		closedBy, err := uuid.Parse(actor.UserID)
		if err != nil {
			return CycleResponse{}, apperror.ErrUnauthorized
		}
		now := s.now()
		c.ClosedBy = &closedBy
		c.ClosedAt = &now
	}

	c.Status = req.Status
	c.UpdatedAt = s.now()
	if err := qtx.Update(ctx, c); err != nil {
		l.Warn("update cycle status persist failed", zap.Error(err))
		return CycleResponse{}, mapRepositoryError(err)
	}

	if err := s.enqueueStatusChange(ctx, tx, c, from, actor); err != nil {
		l.Error("update cycle status outbox persist failed", zap.Error(err))
		return CycleResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		l.Error("update cycle status commit failed", zap.Error(err))
		return CycleResponse{}, mapRepositoryError(err)
	}

	after := mapToResponse(c)
	s.audit.Log(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		UserID:     actor.UserID,
		UserRole:   actor.Role,
		Action:     audit.ActionStatusChanged,
		EntityType: audit.EntityCycle,
		EntityID:   id,
		OldData:    before,
		NewData:    after,
		Reason:     req.Reason,
		Metadata:   map[string]any{"from": from, "to": c.Status},
	})

	l.Info("cycle status changed",
		zap.String("cycle_id", id),
		zap.String("from", from),
		zap.String("to", c.Status),
	)
	return after, nil
}

func (s *service) Delete(ctx context.Context, actor contextutil.Actor, id string) error {
	l := contextutil.GetLogger(ctx, s.logger)
	if _, err := uuid.Parse(id); err != nil {
		return cycleerrors.ErrInvalidCycleID
	}

	tx, err := database.BeginSerializable(ctx, s.db)
	if err != nil {
		l.Error("delete cycle begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	c, err := qtx.FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		return mapRepositoryError(err)
	}

	deps, err := qtx.CountDependents(ctx, actor.CompanyID, id)
	if err != nil {
		l.Error("count cycle dependents failed", zap.Error(err))
		return err
	}
	if deps.Total() > 0 {
		return cycleerrors.ErrCycleHasDependents.
			WithMessage(fmt.Sprintf(
				"cannot delete cycle %q: it has %d evaluation(s), %d evaluation item(s) and %d partial assessment(s); archive it instead",
				c.Name, deps.Evaluations, deps.Items, deps.Assessments,
			)).
			WithDetails(deps)
	}

	if err := qtx.Delete(ctx, actor.CompanyID, id); err != nil {
		return mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		l.Error("delete cycle commit failed", zap.Error(err))
		return mapRepositoryError(err)
	}

	s.audit.Log(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		UserID:     actor.UserID,
		UserRole:   actor.Role,
		Action:     audit.ActionDeleted,
		EntityType: audit.EntityCycle,
		EntityID:   id,
		OldData:    mapToResponse(c),
	})
	return nil
}

func mapToResponse(c *Cycle) CycleResponse {
	resp := CycleResponse{
		ID:         c.ID.String(),
		Name:       c.Name,
		StartDate:  c.StartDate.Format(dateLayout),
		EndDate:    c.EndDate.Format(dateLayout),
		Status:     c.Status,
		PeriodType: c.PeriodType,
		PeriodDate: c.PeriodDate,
		CreatedBy:  c.CreatedBy.String(),
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
	}
	if c.ClosedBy != nil {
		v := c.ClosedBy.String()
		resp.ClosedBy = &v
	}
	if c.ClosedAt != nil {
		v := c.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &v
	}
	return resp
}
