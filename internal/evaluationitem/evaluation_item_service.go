package evaluationitem

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"performa/internal/audit"
	"performa/internal/domain"
	evaluationitemerrors "performa/internal/evaluationitem/errors"
	"performa/internal/permission"
	permissionerrors "performa/internal/permission/errors"
	"performa/internal/shared/apperror"
	"performa/internal/shared/contextutil"
	"performa/internal/shared/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=evaluation_item_service.go -destination=mock/evaluation_item_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actor contextutil.Actor, req CreateItemRequest) (ItemResponse, error)
	GetAll(ctx context.Context, actor contextutil.Actor, f ListItemsFilter) ([]ItemResponse, error)
	GetByID(ctx context.Context, actor contextutil.Actor, id string) (ItemResponse, error)
	GetForEmployee(ctx context.Context, actor contextutil.Actor, employeeID string) ([]ItemResponse, error)
	CountForEmployee(ctx context.Context, actor contextutil.Actor, employeeID string) (permission.ItemCounts, error)
	Update(ctx context.Context, actor contextutil.Actor, id string, req UpdateItemRequest) (ItemResponse, error)
	SetDeadline(ctx context.Context, actor contextutil.Actor, id string, req SetDeadlineRequest) (ItemResponse, error)
	Deactivate(ctx context.Context, actor contextutil.Actor, id string, req DeactivateRequest) (DeactivateResult, error)
	Reactivate(ctx context.Context, actor contextutil.Actor, id string) (ItemResponse, error)
	Assign(ctx context.Context, actor contextutil.Actor, id string, req AssignRequest) (AssignResult, error)
	Unassign(ctx context.Context, actor contextutil.Actor, id, employeeID string) error
}

type service struct {
	db       *sql.DB
	repo     Repository
	permRepo permission.Repository
	perms    permission.Service
	audit    audit.Logger
	logger   *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	permRepo permission.Repository,
	perms permission.Service,
	auditLogger audit.Logger,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("evaluation_item.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("evaluation_item.service")
	}
	return &service{
		db:       db,
		repo:     repo,
		permRepo: permRepo,
		perms:    perms,
		audit:    auditLogger,
		logger:   l,
	}
}

const pgSerializationFailure = "40001"

func mapRepositoryError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return evaluationitemerrors.ErrItemNotFound
	}
	return mapSerializationFailure(err)
}

// mapSerializationFailure turns a SERIALIZABLE conflict into a retryable 409.
func mapSerializationFailure(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgSerializationFailure {
		return evaluationitemerrors.ErrConcurrentUpdate
	}
	return err
}

// parseDeadline accepts a full timestamp or a bare date, which is read as the
// end of that day in UTC.
func parseDeadline(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, evaluationitemerrors.ErrInvalidDeadline
	}
	return d.Add(24*time.Hour - time.Second), nil
}

func normalizeTarget(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func employeeIDs(emps []permission.Employee) []string {
	ids := make([]string, 0, len(emps))
	for _, e := range emps {
		ids = append(ids, e.ID.String())
	}
	return ids
}

// authorizeTargeting checks that actor may point an item at level/assignedTo
// and at every individually listed employee.
func (s *service) authorizeTargeting(ctx context.Context, actor contextutil.Actor, level string, assignedTo *string, individuals []string) error {
	if permission.IsHR(actor.Role) {
		return nil
	}
	if level == domain.ItemLevelCompany {
		return evaluationitemerrors.ErrCompanyLevelHROnly
	}
	if assignedTo != nil {
		ok, err := s.perms.CanManageItem(ctx, actor, permission.ItemScope{Level: level, AssignedTo: assignedTo})
		if err != nil {
			return err
		}
		if !ok {
			return evaluationitemerrors.ErrCannotManageItem
		}
	}
	for _, id := range individuals {
		ok, err := s.perms.CanManage(ctx, actor, id)
		if err != nil {
			return err
		}
		if !ok {
			return evaluationitemerrors.ErrEmployeeNotManaged.WithDetails(map[string]any{"employeeId": id})
		}
	}
	return nil
}

func (s *service) authorizeItem(ctx context.Context, actor contextutil.Actor, item *Item) error {
	ok, err := s.perms.CanManageItem(ctx, actor, permission.ItemScope{
		Level:      item.Level,
		AssignedTo: item.AssignedTo,
		CreatedBy:  item.CreatedBy,
	})
	if err != nil {
		return err
	}
	if !ok {
		if item.Level == domain.ItemLevelCompany {
			return evaluationitemerrors.ErrCompanyLevelHROnly
		}
		return evaluationitemerrors.ErrCannotManageItem
	}
	return nil
}

// checkCap runs the item cap for the employees an item reaches, using the
// permission rules bound to tx so the counts and the write share a snapshot.
func (s *service) checkCap(ctx context.Context, tx *sql.Tx, companyID, level string, assignedTo *string, individuals []string, additional int) error {
	perms := s.perms.WithRepository(s.permRepo.WithTx(tx))

	affected, err := perms.GetAffectedEmployees(ctx, companyID, level, assignedTo, individuals)
	if err != nil {
		return mapSerializationFailure(err)
	}
	exceeded, err := perms.ValidateItemLimitForEmployees(ctx, companyID, employeeIDs(affected), additional)
	if err != nil {
		return mapSerializationFailure(err)
	}
	if len(exceeded) > 0 {
		return permission.LimitError(exceeded)
	}
	return nil
}

func (s *service) Create(ctx context.Context, actor contextutil.Actor, req CreateItemRequest) (ItemResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	companyID, err := uuid.Parse(actor.CompanyID)
	if err != nil {
		return ItemResponse{}, apperror.ErrUnauthorized
	}
	createdBy, err := uuid.Parse(actor.UserID)
	if err != nil {
		return ItemResponse{}, apperror.ErrUnauthorized
	}

	if !domain.IsValidItemType(req.Type) {
		return ItemResponse{}, evaluationitemerrors.ErrInvalidType
	}

	assignedTo := normalizeTarget(req.AssignedTo)
	individuals := dedupe(req.EmployeeIDs)
	for _, id := range individuals {
		if _, err := uuid.Parse(id); err != nil {
			return ItemResponse{}, evaluationitemerrors.ErrInvalidEmployeeID
		}
	}
	level := req.Level
	if level == "" {
		if len(individuals) == 0 {
			return ItemResponse{}, evaluationitemerrors.ErrInvalidLevel
		}
		level = domain.ItemLevelManager
	}
	if !domain.IsValidItemLevel(level) {
		return ItemResponse{}, evaluationitemerrors.ErrInvalidLevel
	}

	switch {
	case len(individuals) > 0 && level == domain.ItemLevelCompany:
		return ItemResponse{}, evaluationitemerrors.ErrCompanyLevelIndividual
	case len(individuals) > 0 && assignedTo != nil:
		return ItemResponse{}, evaluationitemerrors.ErrTargetingConflict
	case level == domain.ItemLevelCompany:
		assignedTo = nil
	case len(individuals) == 0 && assignedTo == nil:
		return ItemResponse{}, evaluationitemerrors.ErrAssignedToRequired
	}

	if level == domain.ItemLevelManager && assignedTo != nil {
		if _, err := uuid.Parse(*assignedTo); err != nil {
			return ItemResponse{}, apperror.InvalidField("assignedTo")
		}
	}

	var deadline *time.Time
	if req.EvaluationDeadline != nil {
		d, err := parseDeadline(*req.EvaluationDeadline)
		if err != nil {
			return ItemResponse{}, err
		}
		deadline = &d
	}

	var cycleID *uuid.UUID
	if req.CycleID != nil {
		id, err := uuid.Parse(*req.CycleID)
		if err != nil {
			return ItemResponse{}, apperror.InvalidField("cycleId")
		}
		res := s.perms.ValidateCyclePermission(ctx, actor, id.String(), permission.KindEvaluationItem)
		if !res.Allowed {
			return ItemResponse{}, res.AsError()
		}
		cycleID = &id
	}

	if err := s.authorizeTargeting(ctx, actor, level, assignedTo, individuals); err != nil {
		return ItemResponse{}, err
	}

	tx, err := database.BeginSerializable(ctx, s.db)
	if err != nil {
		l.Error("create evaluation item begin tx failed", zap.Error(err))
		return ItemResponse{}, err
	}
	defer tx.Rollback()

	if err := s.checkCap(ctx, tx, actor.CompanyID, level, assignedTo, individuals, 1); err != nil {
		l.Info("create evaluation item rejected by cap", zap.String("level", level), zap.Error(err))
		return ItemResponse{}, err
	}

	item := &Item{
		ID:                 uuid.New(),
		CompanyID:          companyID,
		CycleID:            cycleID,
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		Type:               req.Type,
		Level:              level,
		AssignedTo:         assignedTo,
		Active:             true,
		EvaluationDeadline: deadline,
		CreatedBy:          createdBy,
	}
	if deadline != nil {
		item.DeadlineSetBy = &createdBy
	}

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, item); err != nil {
		l.Error("create evaluation item persist failed", zap.Error(err))
		return ItemResponse{}, mapRepositoryError(err)
	}

	assignments := make([]Assignment, 0, len(individuals))
	for _, id := range individuals {
		assignments = append(assignments, Assignment{
			ID:               uuid.New(),
			CompanyID:        companyID,
			EvaluationItemID: item.ID,
			EmployeeID:       uuid.MustParse(id),
			AssignedBy:       createdBy,
		})
	}
	if err := qtx.CreateAssignments(ctx, assignments); err != nil {
		l.Error("create evaluation item assignments failed", zap.Error(err))
		return ItemResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		l.Error("create evaluation item commit failed", zap.Error(err))
		return ItemResponse{}, mapRepositoryError(err)
	}

	resp := mapToResponse(item, individuals)
	s.audit.Log(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		UserID:     actor.UserID,
		UserRole:   actor.Role,
		Action:     audit.ActionCreated,
		EntityType: audit.EntityEvaluationItem,
		EntityID:   item.ID.String(),
		NewData:    resp,
	})

	l.Info("create evaluation item success",
		zap.String("item_id", item.ID.String()),
		zap.String("level", level),
		zap.Int("individuals", len(individuals)),
	)
	return resp, nil
}

func (s *service) GetAll(ctx context.Context, actor contextutil.Actor, f ListItemsFilter) ([]ItemResponse, error) {
	if !permission.IsManagerOrHR(actor.Role) {
		return s.GetForEmployee(ctx, actor, actor.UserID)
	}
	items, err := s.repo.FindAll(ctx, actor.CompanyID, f)
	if err != nil {
		return nil, err
	}
	out := make([]ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, mapToResponse(&items[i], nil))
	}
	return out, nil
}

func (s *service) GetByID(ctx context.Context, actor contextutil.Actor, id string) (ItemResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ItemResponse{}, evaluationitemerrors.ErrInvalidItemID
	}
	item, err := s.repo.FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		return ItemResponse{}, mapRepositoryError(err)
	}

	var ids []string
	if item.IsIndividual() {
		if ids, err = s.repo.AssignedEmployeeIDs(ctx, actor.CompanyID, id); err != nil {
			return ItemResponse{}, err
		}
	}
	return mapToResponse(item, ids), nil
}

// canView lets employees see their own items and managers see their reports'.
func (s *service) canView(ctx context.Context, actor contextutil.Actor, employeeID string) error {
	if actor.UserID == employeeID || permission.IsHR(actor.Role) {
		return nil
	}
	ok, err := s.perms.CanManage(ctx, actor, employeeID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.ErrForbidden
	}
	return nil
}

func (s *service) GetForEmployee(ctx context.Context, actor contextutil.Actor, employeeID string) ([]ItemResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, evaluationitemerrors.ErrInvalidEmployeeID
	}
	if err := s.canView(ctx, actor, employeeID); err != nil {
		return nil, err
	}

	emp, err := s.permRepo.FindEmployee(ctx, actor.CompanyID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, permissionerrors.ErrEmployeeNotFound
		}
		return nil, err
	}

	target := EmployeeTarget{EmployeeID: employeeID, Department: emp.Department}
	if emp.ManagerID != nil {
		m := emp.ManagerID.String()
		target.ManagerID = &m
	}

	items, err := s.repo.FindForEmployee(ctx, actor.CompanyID, target)
	if err != nil {
		return nil, err
	}
	out := make([]ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, mapToResponse(&items[i], nil))
	}
	return out, nil
}

func (s *service) CountForEmployee(ctx context.Context, actor contextutil.Actor, employeeID string) (permission.ItemCounts, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return permission.ItemCounts{}, evaluationitemerrors.ErrInvalidEmployeeID
	}
	if err := s.canView(ctx, actor, employeeID); err != nil {
		return permission.ItemCounts{}, err
	}
	return s.perms.CountEmployeeEvaluationItems(ctx, actor.CompanyID, employeeID)
}

// loadForWrite fetches an item inside tx and checks that actor may change it.
func (s *service) loadForWrite(ctx context.Context, qtx Repository, actor contextutil.Actor, id string) (*Item, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, evaluationitemerrors.ErrInvalidItemID
	}
	item, err := qtx.FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if err := s.authorizeItem(ctx, actor, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) Update(ctx context.Context, actor contextutil.Actor, id string, req UpdateItemRequest) (ItemResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		l.Error("update evaluation item begin tx failed", zap.Error(err))
		return ItemResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	item, err := s.loadForWrite(ctx, qtx, actor, id)
	if err != nil {
		return ItemResponse{}, err
	}
	before := mapToResponse(item, nil)

	if req.Title != nil {
		item.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.Type != nil {
		if !domain.IsValidItemType(*req.Type) {
			return ItemResponse{}, evaluationitemerrors.ErrInvalidType
		}
		item.Type = *req.Type
	}

	if err := qtx.Update(ctx, item); err != nil {
		l.Error("update evaluation item persist failed", zap.Error(err))
		return ItemResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		l.Error("update evaluation item commit failed", zap.Error(err))
		return ItemResponse{}, err
	}

	after := mapToResponse(item, nil)
	s.audit.Log(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		UserID:     actor.UserID,
		UserRole:   actor.Role,
		Action:     audit.ActionUpdated,
		EntityType: audit.EntityEvaluationItem,
		EntityID:   id,
		OldData:    before,
		NewData:    after,
	})
	return after, nil
}

func (s *service) SetDeadline(ctx context.Context, actor contextutil.Actor, id string, req SetDeadlineRequest) (ItemResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	var deadline *time.Time
	if req.Deadline != nil {
		d, err := parseDeadline(*req.Deadline)
		if err != nil {
			return ItemResponse{}, err
		}
		deadline = &d
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		l.Error("set deadline begin tx failed", zap.Error(err))
		return ItemResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	item, err := s.loadForWrite(ctx, qtx, actor, id)
	if err != nil {
		return ItemResponse{}, err
	}
	before := mapToResponse(item, nil)

	item.EvaluationDeadline = deadline
	item.DeadlineSetBy = nil
	if deadline != nil {
		setBy, err := uuid.Parse(actor.UserID)
		if err != nil {
			return ItemResponse{}, apperror.ErrUnauthorized
		}
		item.DeadlineSetBy = &setBy
	}

	if err := qtx.Update(ctx, item); err != nil {
		l.Error("set deadline persist failed", zap.Error(err))
		return ItemResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		l.Error("set deadline commit failed", zap.Error(err))
		return ItemResponse{}, err
	}

	after := mapToResponse(item, nil)
	s.audit.Log(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		UserID:     actor.UserID,
		UserRole:   actor.Role,
		Action:     audit.ActionUpdated,
		EntityType: audit.EntityEvaluationItem,
		EntityID:   id,
		OldData:    before,
		NewData:    after,
		Metadata:   map[string]any{"field": "evaluationDeadline"},
	})
	return after, nil
}

// Deactivate hides an item from new evaluations. For company level items the
// item is also stripped from stored evaluation snapshots and its assignments
// are dropped. Deactivating an inactive item changes nothing.
func (s *service) Deactivate(ctx context.Context, actor contextutil.Actor, id string, req DeactivateRequest) (DeactivateResult, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		l.Error("deactivate evaluation item begin tx failed", zap.Error(err))
		return DeactivateResult{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	item, err := s.loadForWrite(ctx, qtx, actor, id)
	if err != nil {
		return DeactivateResult{}, err
	}
	if !item.Active {
		return DeactivateResult{Item: mapToResponse(item, nil)}, nil
	}

	item.Active = false
	if err := qtx.Update(ctx, item); err != nil {
		l.Error("deactivate evaluation item persist failed", zap.Error(err))
		return DeactivateResult{}, err
	}

	result := DeactivateResult{}
	if item.Level == domain.ItemLevelCompany {
		if result.EvaluationsUpdated, err = qtx.RemoveFromEvaluations(ctx, actor.CompanyID, id); err != nil {
			l.Error("remove item from evaluations failed", zap.Error(err))
			return DeactivateResult{}, err
		}
		if result.AssignmentsRemoved, err = qtx.DeleteAssignments(ctx, actor.CompanyID, id); err != nil {
			l.Error("remove item assignments failed", zap.Error(err))
			return DeactivateResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		l.Error("deactivate evaluation item commit failed", zap.Error(err))
		return DeactivateResult{}, err
	}

	result.Item = mapToResponse(item, nil)
	s.audit.Log(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		UserID:     actor.UserID,
		UserRole:   actor.Role,
		Action:     audit.ActionDeactivated,
		EntityType: audit.EntityEvaluationItem,
		EntityID:   id,
		NewData:    result.Item,
		Reason:     req.Reason,
		Metadata: map[string]any{
			"level":              item.Level,
			"evaluationsUpdated": result.EvaluationsUpdated,
			"assignmentsRemoved": result.AssignmentsRemoved,
		},
	})

	l.Info("evaluation item deactivated",
		zap.String("item_id", id),
		zap.Int64("evaluations_updated", result.EvaluationsUpdated),
		zap.Int64("assignments_removed", result.AssignmentsRemoved),
	)
	return result, nil
}

func (s *service) Reactivate(ctx context.Context, actor contextutil.Actor, id string) (ItemResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	tx, err := database.BeginSerializable(ctx, s.db)
	if err != nil {
		l.Error("reactivate evaluation item begin tx failed", zap.Error(err))
		return ItemResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	item, err := s.loadForWrite(ctx, qtx, actor, id)
	if err != nil {
		return ItemResponse{}, err
	}
	if item.Active {
		return mapToResponse(item, nil), nil
	}

	var individuals []string
	if item.IsIndividual() {
		if individuals, err = qtx.AssignedEmployeeIDs(ctx, actor.CompanyID, id); err != nil {
			return ItemResponse{}, err
		}
	}
	if err := s.checkCap(ctx, tx, actor.CompanyID, item.Level, item.AssignedTo, individuals, 1); err != nil {
		return ItemResponse{}, err
	}

	item.Active = true
	if err := qtx.Update(ctx, item); err != nil {
		l.Error("reactivate evaluation item persist failed", zap.Error(err))
		return ItemResponse{}, mapRepositoryError(err)
	}
	if err := tx.Commit(); err != nil {
		l.Error("reactivate evaluation item commit failed", zap.Error(err))
		return ItemResponse{}, mapRepositoryError(err)
	}

	resp := mapToResponse(item, individuals)
	s.audit.Log(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		UserID:     actor.UserID,
		UserRole:   actor.Role,
		Action:     audit.ActionReactivated,
		EntityType: audit.EntityEvaluationItem,
		EntityID:   id,
		NewData:    resp,
	})
	return resp, nil
}

// Assign links employees to an individually targeted item. Employees already
// linked are reported as skipped rather than failing the batch.
func (s *service) Assign(ctx context.Context, actor contextutil.Actor, id string, req AssignRequest) (AssignResult, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	companyID, err := uuid.Parse(actor.CompanyID)
	if err != nil {
		return AssignResult{}, apperror.ErrUnauthorized
	}
	assignedBy, err := uuid.Parse(actor.UserID)
	if err != nil {
		return AssignResult{}, apperror.ErrUnauthorized
	}

	requested := dedupe(req.EmployeeIDs)
	for _, e := range requested {
		if _, err := uuid.Parse(e); err != nil {
			return AssignResult{}, evaluationitemerrors.ErrInvalidEmployeeID
		}
	}

	tx, err := database.BeginSerializable(ctx, s.db)
	if err != nil {
		l.Error("assign evaluation item begin tx failed", zap.Error(err))
		return AssignResult{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	item, err := s.loadForWrite(ctx, qtx, actor, id)
	if err != nil {
		return AssignResult{}, err
	}
	if !item.IsIndividual() {
		return AssignResult{}, evaluationitemerrors.ErrNotIndividualItem
	}
	if !item.Active {
		return AssignResult{}, evaluationitemerrors.ErrItemInactive
	}
	if err := s.authorizeTargeting(ctx, actor, item.Level, nil, requested); err != nil {
		return AssignResult{}, err
	}

	existing, err := qtx.AssignedEmployeeIDs(ctx, actor.CompanyID, id)
	if err != nil {
		return AssignResult{}, err
	}
	already := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		already[e] = struct{}{}
	}

	result := AssignResult{Assigned: []string{}, Skipped: []string{}}
	for _, e := range requested {
		if _, ok := already[e]; ok {
			result.Skipped = append(result.Skipped, e)
			continue
		}
		result.Assigned = append(result.Assigned, e)
	}
	if len(result.Assigned) == 0 {
		return result, nil
	}

	if err := s.checkCap(ctx, tx, actor.CompanyID, item.Level, nil, result.Assigned, 1); err != nil {
		return AssignResult{}, err
	}

	assignments := make([]Assignment, 0, len(result.Assigned))
	for _, e := range result.Assigned {
		assignments = append(assignments, Assignment{
			ID:               uuid.New(),
			CompanyID:        companyID,
			EvaluationItemID: item.ID,
			EmployeeID:       uuid.MustParse(e),
			AssignedBy:       assignedBy,
		})
	}
	if err := qtx.CreateAssignments(ctx, assignments); err != nil {
		l.Error("assign evaluation item persist failed", zap.Error(err))
		return AssignResult{}, mapRepositoryError(err)
	}
	if err := tx.Commit(); err != nil {
		l.Error("assign evaluation item commit failed", zap.Error(err))
		return AssignResult{}, mapRepositoryError(err)
	}

	for _, e := range result.Assigned {
		s.audit.Log(ctx, audit.Entry{
			CompanyID:    actor.CompanyID,
			UserID:       actor.UserID,
			UserRole:     actor.Role,
			Action:       audit.ActionAssigned,
			EntityType:   audit.EntityItemAssignment,
			EntityID:     id,
			TargetUserID: e,
			NewData:      map[string]any{"evaluationItemId": id, "employeeId": e},
		})
	}
	return result, nil
}

func (s *service) Unassign(ctx context.Context, actor contextutil.Actor, id, employeeID string) error {
	l := contextutil.GetLogger(ctx, s.logger)
	if _, err := uuid.Parse(employeeID); err != nil {
		return evaluationitemerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		l.Error("unassign evaluation item begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if _, err := s.loadForWrite(ctx, qtx, actor, id); err != nil {
		return err
	}
	if err := s.authorizeTargeting(ctx, actor, "", nil, []string{employeeID}); err != nil {
		return err
	}

	if err := qtx.DeleteAssignment(ctx, actor.CompanyID, id, employeeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return evaluationitemerrors.ErrAssignmentNotFound
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		l.Error("unassign evaluation item commit failed", zap.Error(err))
		return err
	}

	s.audit.Log(ctx, audit.Entry{
		CompanyID:    actor.CompanyID,
		UserID:       actor.UserID,
		UserRole:     actor.Role,
		Action:       audit.ActionUnassigned,
		EntityType:   audit.EntityItemAssignment,
		EntityID:     id,
		TargetUserID: employeeID,
		OldData:      map[string]any{"evaluationItemId": id, "employeeId": employeeID},
	})
	return nil
}

func mapToResponse(item *Item, employeeIDs []string) ItemResponse {
	resp := ItemResponse{
		ID:          item.ID.String(),
		Title:       item.Title,
		Description: item.Description,
		Type:        item.Type,
		Level:       item.Level,
		AssignedTo:  item.AssignedTo,
		Active:      item.Active,
		EmployeeIDs: employeeIDs,
		CreatedBy:   item.CreatedBy.String(),
		CreatedAt:   item.CreatedAt.Format(time.RFC3339),
	}
	if item.CycleID != nil {
		v := item.CycleID.String()
		resp.CycleID = &v
	}
	if item.EvaluationDeadline != nil {
		v := item.EvaluationDeadline.Format(time.RFC3339)
		resp.EvaluationDeadline = &v
	}
	if item.DeadlineSetBy != nil {
		v := item.DeadlineSetBy.String()
		resp.DeadlineSetBy = &v
	}
	return resp
}
