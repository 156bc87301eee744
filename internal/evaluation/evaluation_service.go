package evaluation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"performa/internal/audit"
	"performa/internal/domain"
	evaluationerrors "performa/internal/evaluation/errors"
	"performa/internal/events"
	"performa/internal/llm"
	"performa/internal/messaging/kafka"
	"performa/internal/permission"
	permissionerrors "performa/internal/permission/errors"
	"performa/internal/shared/apperror"
	"performa/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service interface {
	Save(ctx context.Context, actor contextutil.Actor, req SaveEvaluationRequest) (EvaluationResponse, error)
	GetByID(ctx context.Context, actor contextutil.Actor, id string) (EvaluationResponse, error)
	GetAll(ctx context.Context, actor contextutil.Actor, f ListEvaluationsFilter) ([]EvaluationResponse, int64, error)
	Approve(ctx context.Context, actor contextutil.Actor, id string, req ApproveRequest) (EvaluationResponse, error)
	Complete(ctx context.Context, actor contextutil.Actor, id string) (EvaluationResponse, error)
	ExportPDF(ctx context.Context, actor contextutil.Actor, id string) ([]byte, string, error)
	ImproveText(ctx context.Context, actor contextutil.Actor, req ImproveTextRequest) (ImproveTextResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	perms    permission.Service
	outbox   kafka.OutboxRepository
	improver llm.Improver
	audit    audit.Logger
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(
	db *sql.DB,
	repo Repository,
	perms permission.Service,
	outbox kafka.OutboxRepository,
	improver llm.Improver,
	auditLogger audit.Logger,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("evaluation.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("evaluation.service")
	}
	return &service{
		db:       db,
		repo:     repo,
		perms:    perms,
		outbox:   outbox,
		improver: improver,
		audit:    auditLogger,
		logger:   l,
		now:      time.Now,
	}
}

func validRating(r *int) bool {
	return r == nil || (*r >= 1 && *r <= 5)
}

func (s *service) resolvePeriod(ctx context.Context, companyID string, req SaveEvaluationRequest) (string, string, error) {
	if req.PeriodType != nil || req.PeriodDate != nil {
		if req.PeriodType == nil || req.PeriodDate == nil || !domain.IsValidPeriod(*req.PeriodType, *req.PeriodDate) {
			return "", "", evaluationerrors.ErrInvalidPeriod
		}
		return *req.PeriodType, *req.PeriodDate, nil
	}

	cycle, err := s.repo.FindCycle(ctx, companyID, req.CycleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", permissionerrors.ErrCycleNotFound
		}
		return "", "", err
	}
	periodType, periodDate := DerivePeriod(cycle, s.now())
	return periodType, periodDate, nil
}

// buildSnapshot copies titles and types from the live items. Managers cannot
// rate an item after its deadline; HR can.
func (s *service) buildSnapshot(ctx context.Context, actor contextutil.Actor, ratings []ItemRating) (Snapshot, error) {
	snap := Snapshot{Version: SnapshotVersion, Items: make([]SnapshotItem, 0, len(ratings))}
	if len(ratings) == 0 {
		return snap, nil
	}

	ids := make([]string, 0, len(ratings))
	seen := make(map[string]struct{}, len(ratings))
	for _, r := range ratings {
		if _, err := uuid.Parse(r.ItemID); err != nil {
			return Snapshot{}, apperror.InvalidField("itemId")
		}
		if _, dup := seen[r.ItemID]; dup {
			return Snapshot{}, evaluationerrors.ErrDuplicateItem.WithDetails(map[string]any{"itemId": r.ItemID})
		}
		if !validRating(r.Rating) {
			return Snapshot{}, evaluationerrors.ErrInvalidRating
		}
		seen[r.ItemID] = struct{}{}
		ids = append(ids, r.ItemID)
	}

	items, err := s.repo.FindItems(ctx, actor.CompanyID, ids)
	if err != nil {
		return Snapshot{}, err
	}
	byID := make(map[string]ItemRef, len(items))
	for _, it := range items {
		byID[it.ID.String()] = it
	}

	now := s.now()
	for _, r := range ratings {
		it, ok := byID[r.ItemID]
		if !ok || !it.Active {
			return Snapshot{}, evaluationerrors.ErrUnknownItem.WithDetails(map[string]any{"itemId": r.ItemID})
		}
		if !permission.IsHR(actor.Role) && it.EvaluationDeadline != nil && now.After(*it.EvaluationDeadline) {
			return Snapshot{}, evaluationerrors.ErrDeadlinePassed.
				WithMessage(fmt.Sprintf("the evaluation deadline for %q passed on %s",
					it.Title, it.EvaluationDeadline.Format("2006-01-02"))).
				WithDetails(map[string]any{"itemId": r.ItemID, "deadline": it.EvaluationDeadline})
		}
		snap.Items = append(snap.Items, SnapshotItem{
			ItemID:  r.ItemID,
			Title:   it.Title,
			Type:    it.Type,
			Rating:  r.Rating,
			Comment: r.Comment,
		})
	}
	return snap, nil
}

func (s *service) enqueueSaved(ctx context.Context, tx *sql.Tx, e *Evaluation) error {
	if s.outbox == nil {
		return nil
	}
	event, err := kafka.NewOutboxEvent(ctx, e.CompanyID.String(), string(audit.EntityEvaluation), e.ID.String(),
		events.EventEvaluationSaved, events.EvaluationLifecycleTopic,
		events.EvaluationSavedEvent{
			EventType:    events.EventEvaluationSaved,
			EvaluationID: e.ID.String(),
			CompanyID:    e.CompanyID.String(),
			EmployeeID:   e.EmployeeID.String(),
			ManagerID:    e.EvaluatorID.String(),
			Status:       e.Status,
			OccurredAt:   s.now().UTC(),
		})
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, event)
}

// Save upserts the evaluation of one employee for one period. A manual save
// moves a draft to submitted; auto-saves and saves of evaluations that already
// left draft keep the current status.
func (s *service) Save(ctx context.Context, actor contextutil.Actor, req SaveEvaluationRequest) (EvaluationResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	companyID, err := uuid.Parse(actor.CompanyID)
	if err != nil {
		return EvaluationResponse{}, apperror.ErrUnauthorized
	}
	evaluatorID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return EvaluationResponse{}, apperror.ErrUnauthorized
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return EvaluationResponse{}, evaluationerrors.ErrInvalidEmployeeID
	}
	cycleID, err := uuid.Parse(req.CycleID)
	if err != nil {
		return EvaluationResponse{}, apperror.InvalidField("cycleId")
	}
	if !validRating(req.OverallRating) {
		return EvaluationResponse{}, evaluationerrors.ErrInvalidRating
	}

	if res := s.perms.ValidateCyclePermission(ctx, actor, req.CycleID, permission.KindEvaluation); !res.Allowed {
		return EvaluationResponse{}, res.AsError()
	}
	ok, err := s.perms.CanManage(ctx, actor, req.EmployeeID)
	if err != nil {
		return EvaluationResponse{}, err
	}
	if !ok {
		return EvaluationResponse{}, permissionerrors.ErrNotYourTeam
	}

	periodType, periodDate, err := s.resolvePeriod(ctx, actor.CompanyID, req)
	if err != nil {
		return EvaluationResponse{}, err
	}
	snap, err := s.buildSnapshot(ctx, actor, req.Items)
	if err != nil {
		return EvaluationResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		l.Error("save evaluation begin tx failed", zap.Error(err))
		return EvaluationResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := s.now()

	var (
		ev     *Evaluation
		before *EvaluationResponse
		action = audit.ActionUpdated
	)

	existing, err := qtx.FindByKeyForUpdate(ctx, actor.CompanyID, req.EmployeeID, periodType, periodDate)
	switch {
	case err == nil:
		if existing.Status == domain.EvaluationStatusCompleted {
			return EvaluationResponse{}, evaluationerrors.ErrEvaluationLocked
		}
		prev := mapToResponse(existing, "")
		before = &prev

		ev = existing
		ev.CycleID = &cycleID
		ev.EvaluatorID = evaluatorID
		ev.OverallRating = req.OverallRating
		ev.OverallComment = req.OverallComment
		ev.EvaluationItemsData = datatypes.NewJSONType(snap)
		ev.UpdatedAt = now
		if !req.IsAutoSave && ev.Status == domain.EvaluationStatusDraft {
			ev.Status = domain.EvaluationStatusSubmitted
			ev.SubmittedAt = &now
		}
		if err := qtx.Update(ctx, ev); err != nil {
			l.Error("save evaluation update failed", zap.Error(err))
			return EvaluationResponse{}, mapRepositoryError(err)
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		action = audit.ActionCreated
		ev = &Evaluation{
			ID:                  uuid.New(),
			CompanyID:           companyID,
			CycleID:             &cycleID,
			EmployeeID:          employeeID,
			EvaluatorID:         evaluatorID,
			PeriodType:          periodType,
			PeriodDate:          periodDate,
			Status:              domain.EvaluationStatusDraft,
			OverallRating:       req.OverallRating,
			OverallComment:      req.OverallComment,
			EvaluationItemsData: datatypes.NewJSONType(snap),
		}
		if !req.IsAutoSave {
			ev.Status = domain.EvaluationStatusSubmitted
			ev.SubmittedAt = &now
		}
		if err := qtx.Create(ctx, ev); err != nil {
			l.Warn("save evaluation create failed", zap.Error(err))
			return EvaluationResponse{}, mapRepositoryError(err)
		}

	default:
		l.Error("save evaluation lookup failed", zap.Error(err))
		return EvaluationResponse{}, err
	}

	if err := s.enqueueSaved(ctx, tx, ev); err != nil {
		l.Error("save evaluation outbox persist failed", zap.Error(err))
		return EvaluationResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		l.Error("save evaluation commit failed", zap.Error(err))
		return EvaluationResponse{}, mapRepositoryError(err)
	}

	resp := mapToResponse(ev, "")
	entry := audit.Entry{
		CompanyID:    actor.CompanyID,
		UserID:       actor.UserID,
		UserRole:     actor.Role,
		Action:       action,
		EntityType:   audit.EntityEvaluation,
		EntityID:     ev.ID.String(),
		TargetUserID: req.EmployeeID,
		NewData:      resp,
		Metadata:     map[string]any{"isAutoSave": req.IsAutoSave, "periodType": periodType, "periodDate": periodDate},
	}
	if before != nil {
		entry.OldData = before
	}
	s.audit.Log(ctx, entry)

	l.Info("evaluation saved",
		zap.String("evaluation_id", ev.ID.String()),
		zap.String("status", ev.Status),
		zap.Bool("auto_save", req.IsAutoSave),
	)
	return resp, nil
}

// canView lets employees read their own evaluations and managers read their
// direct reports'.
func (s *service) canView(ctx context.Context, actor contextutil.Actor, e *Evaluation) error {
	if permission.IsHR(actor.Role) || e.EmployeeID.String() == actor.UserID {
		return nil
	}
	ok, err := s.perms.CanManage(ctx, actor, e.EmployeeID.String())
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

func (s *service) load(ctx context.Context, companyID, id string) (*Evaluation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, evaluationerrors.ErrInvalidEvaluationID
	}
	e, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return e, nil
}

func (s *service) employeeName(ctx context.Context, companyID string, id uuid.UUID) string {
	people, err := s.repo.FindPeople(ctx, companyID, []string{id.String()})
	if err != nil || len(people) == 0 {
		return ""
	}
	return people[0].Name
}

func (s *service) GetByID(ctx context.Context, actor contextutil.Actor, id string) (EvaluationResponse, error) {
	e, err := s.load(ctx, actor.CompanyID, id)
	if err != nil {
		return EvaluationResponse{}, err
	}
	if err := s.canView(ctx, actor, e); err != nil {
		return EvaluationResponse{}, err
	}
	return mapToResponse(e, s.employeeName(ctx, actor.CompanyID, e.EmployeeID)), nil
}

func (s *service) GetAll(ctx context.Context, actor contextutil.Actor, f ListEvaluationsFilter) ([]EvaluationResponse, int64, error) {
	v := Visibility{SelfID: actor.UserID}
	switch actor.Role {
	case domain.RoleHR:
		v.All = true
	case domain.RoleManager:
		v.ManagerID = actor.UserID
	}

	rows, total, err := s.repo.FindAll(ctx, actor.CompanyID, v, f)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.EmployeeID.String())
	}
	people, err := s.repo.FindPeople(ctx, actor.CompanyID, ids)
	if err != nil {
		return nil, 0, err
	}
	names := make(map[uuid.UUID]string, len(people))
	for _, p := range people {
		names[p.ID] = p.Name
	}

	out := make([]EvaluationResponse, 0, len(rows))
	for i := range rows {
		out = append(out, mapToResponse(&rows[i], names[rows[i].EmployeeID]))
	}
	return out, total, nil
}

func (s *service) changeStatus(ctx context.Context, actor contextutil.Actor, id, to, reason string, allowed func(e *Evaluation) error) (EvaluationResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)
	if _, err := uuid.Parse(id); err != nil {
		return EvaluationResponse{}, evaluationerrors.ErrInvalidEvaluationID
	}
	by, err := uuid.Parse(actor.UserID)
	if err != nil {
		return EvaluationResponse{}, apperror.ErrUnauthorized
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		l.Error("evaluation status change begin tx failed", zap.Error(err))
		return EvaluationResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	e, err := qtx.FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		return EvaluationResponse{}, mapRepositoryError(err)
	}
	if err := allowed(e); err != nil {
		return EvaluationResponse{}, err
	}

	from := e.Status
	now := s.now()
	e.Status = to
	e.UpdatedAt = now
	switch to {
	case domain.EvaluationStatusApproved:
		e.ApprovedBy, e.ApprovedAt = &by, &now
	case domain.EvaluationStatusCompleted:
		e.CompletedBy, e.CompletedAt = &by, &now
	}

	if err := qtx.Update(ctx, e); err != nil {
		l.Error("evaluation status change persist failed", zap.Error(err))
		return EvaluationResponse{}, mapRepositoryError(err)
	}
	if err := s.enqueueSaved(ctx, tx, e); err != nil {
		l.Error("evaluation status change outbox persist failed", zap.Error(err))
		return EvaluationResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		l.Error("evaluation status change commit failed", zap.Error(err))
		return EvaluationResponse{}, mapRepositoryError(err)
	}

	resp := mapToResponse(e, "")
	s.audit.Log(ctx, audit.Entry{
		CompanyID:    actor.CompanyID,
		UserID:       actor.UserID,
		UserRole:     actor.Role,
		Action:       audit.ActionStatusChanged,
		EntityType:   audit.EntityEvaluation,
		EntityID:     id,
		TargetUserID: e.EmployeeID.String(),
		NewData:      resp,
		Reason:       reason,
		Metadata:     map[string]any{"from": from, "to": to},
	})
	return resp, nil
}

// Approve is open to HR and to the employee's manager.
func (s *service) Approve(ctx context.Context, actor contextutil.Actor, id string, req ApproveRequest) (EvaluationResponse, error) {
	return s.changeStatus(ctx, actor, id, domain.EvaluationStatusApproved, req.Comment, func(e *Evaluation) error {
		if e.Status != domain.EvaluationStatusSubmitted {
			return evaluationerrors.ErrInvalidTransition.
				WithMessage(fmt.Sprintf("only submitted evaluations can be approved; this one is %s", e.Status))
		}
		ok, err := s.perms.CanManage(ctx, actor, e.EmployeeID.String())
		if err != nil {
			return err
		}
		if !ok {
			return permissionerrors.ErrNotYourTeam
		}
		return nil
	})
}

func (s *service) Complete(ctx context.Context, actor contextutil.Actor, id string) (EvaluationResponse, error) {
	if !permission.IsHR(actor.Role) {
		return EvaluationResponse{}, apperror.ErrForbidden
	}
	return s.changeStatus(ctx, actor, id, domain.EvaluationStatusCompleted, "", func(e *Evaluation) error {
		if e.Status != domain.EvaluationStatusSubmitted && e.Status != domain.EvaluationStatusApproved {
			return evaluationerrors.ErrInvalidTransition.
				WithMessage(fmt.Sprintf("only submitted or approved evaluations can be completed; this one is %s", e.Status))
		}
		return nil
	})
}

func (s *service) ExportPDF(ctx context.Context, actor contextutil.Actor, id string) ([]byte, string, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	e, err := s.load(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, "", err
	}
	if err := s.canView(ctx, actor, e); err != nil {
		return nil, "", err
	}

	people, err := s.repo.FindPeople(ctx, actor.CompanyID, []string{e.EmployeeID.String(), e.EvaluatorID.String()})
	if err != nil {
		return nil, "", err
	}
	names := make(map[uuid.UUID]Person, len(people))
	for _, p := range people {
		names[p.ID] = p
	}

	body, err := renderPDF(e, names[e.EmployeeID], names[e.EvaluatorID].Name)
	if err != nil {
		l.Error("render evaluation pdf failed", zap.String("evaluation_id", id), zap.Error(err))
		return nil, "", err
	}

	s.audit.Log(ctx, audit.Entry{
		CompanyID:    actor.CompanyID,
		UserID:       actor.UserID,
		UserRole:     actor.Role,
		Action:       audit.ActionExported,
		EntityType:   audit.EntityEvaluation,
		EntityID:     id,
		TargetUserID: e.EmployeeID.String(),
		Metadata:     map[string]any{"format": "pdf"},
	})

	return body, pdfFilename(names[e.EmployeeID].Name, e.PeriodDate), nil
}

func (s *service) ImproveText(ctx context.Context, actor contextutil.Actor, req ImproveTextRequest) (ImproveTextResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)
	if strings.TrimSpace(req.Text) == "" {
		return ImproveTextResponse{}, evaluationerrors.ErrTextRequired
	}
	if s.improver == nil {
		return ImproveTextResponse{}, evaluationerrors.ErrImproverDisabled
	}

	improved, err := s.improver.Improve(ctx, req.Text, req.Context)
	if err != nil {
		if errors.Is(err, llm.ErrDisabled) {
			return ImproveTextResponse{}, evaluationerrors.ErrImproverDisabled
		}
		l.Warn("improve text failed", zap.String("user_id", actor.UserID), zap.Error(err))
		return ImproveTextResponse{}, evaluationerrors.ErrImproverFailed
	}
	return ImproveTextResponse{Original: req.Text, Improved: improved}, nil
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}

func formatUUID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	v := id.String()
	return &v
}

func mapToResponse(e *Evaluation, employeeName string) EvaluationResponse {
	snap := e.EvaluationItemsData.Data()
	items := snap.Items
	if items == nil {
		items = []SnapshotItem{}
	}
	return EvaluationResponse{
		ID:             e.ID.String(),
		CycleID:        formatUUID(e.CycleID),
		EmployeeID:     e.EmployeeID.String(),
		EmployeeName:   employeeName,
		EvaluatorID:    e.EvaluatorID.String(),
		PeriodType:     e.PeriodType,
		PeriodDate:     e.PeriodDate,
		Status:         e.Status,
		OverallRating:  e.OverallRating,
		OverallComment: e.OverallComment,
		Items:          items,
		SubmittedAt:    formatTime(e.SubmittedAt),
		ApprovedBy:     formatUUID(e.ApprovedBy),
		ApprovedAt:     formatTime(e.ApprovedAt),
		CompletedBy:    formatUUID(e.CompletedBy),
		CompletedAt:    formatTime(e.CompletedAt),
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      e.UpdatedAt.Format(time.RFC3339),
	}
}
