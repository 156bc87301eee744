package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	auditerrors "performa/internal/audit/errors"
	"performa/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	defaultPageLimit    = 50
	maxPageLimit        = 100
	defaultActivityDays = 30
	maxActivityDays     = 365
	topUsersLimit       = 10
	exportRowLimit      = 10000
)

//go:generate mockgen -source=audit_service.go -destination=mock/audit_service_mock.go -package=mock
type Service interface {
	Logger
	Query(ctx context.Context, companyID string, f Filters, p Pagination) (QueryResult, error)
	GetEntityTrail(ctx context.Context, companyID, entityType, entityID string) ([]LogResponse, error)
	GetUserActivity(ctx context.Context, companyID, userID string, days int) ([]LogResponse, error)
	GenerateReport(ctx context.Context, companyID string, start, end time.Time) (Report, error)
	Export(ctx context.Context, actor contextutil.Actor, f Filters) (ExportFile, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("audit.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.service")
	}
	return &service{repo: repo, logger: l, now: time.Now}
}

func (s *service) Log(ctx context.Context, entry Entry) {
	// The audited operation has already committed; a cancelled request
	// must not drop its audit row.
	ctx = context.WithoutCancel(ctx)

	row, err := s.buildRow(ctx, entry)
	if err == nil {
		err = s.repo.Create(ctx, row)
	}
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("audit log write failed",
			zap.String("company_id", entry.CompanyID),
			zap.String("user_id", entry.UserID),
			zap.String("action", string(entry.Action)),
			zap.String("entity_type", string(entry.EntityType)),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err),
		)
	}
}

func (s *service) buildRow(ctx context.Context, entry Entry) (*AuditLog, error) {
	companyID, err := uuid.Parse(entry.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("company id: %w", err)
	}
	userID, err := uuid.Parse(entry.UserID)
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}

	row := &AuditLog{
		ID:         uuid.New(),
		CompanyID:  companyID,
		UserID:     userID,
		UserRole:   entry.UserRole,
		Action:     string(entry.Action),
		EntityType: string(entry.EntityType),
		EntityID:   optional(entry.EntityID),
		Reason:     optional(entry.Reason),
		Timestamp:  s.now().UTC(),
	}

	if entry.TargetUserID != "" {
		target, err := uuid.Parse(entry.TargetUserID)
		if err != nil {
			return nil, fmt.Errorf("target user id: %w", err)
		}
		row.TargetUserID = &target
	}

	if row.OldData, err = marshalData(entry.OldData); err != nil {
		return nil, fmt.Errorf("old data: %w", err)
	}
	if row.NewData, err = marshalData(entry.NewData); err != nil {
		return nil, fmt.Errorf("new data: %w", err)
	}

	meta := datatypes.JSONMap{}
	for k, v := range entry.Metadata {
		meta[k] = v
	}
	if rid := contextutil.GetRequestID(ctx); rid != "" {
		meta["requestId"] = rid
	}
	if len(meta) > 0 {
		row.Metadata = meta
	}

	if info, ok := contextutil.GetClientInfo(ctx); ok {
		row.IPAddress = optional(info.IPAddress)
		row.UserAgent = optional(info.UserAgent)
		row.SessionID = optional(info.SessionID)
	}

	return row, nil
}

func (s *service) Query(ctx context.Context, companyID string, f Filters, p Pagination) (QueryResult, error) {
	if err := validateFilters(f); err != nil {
		return QueryResult{}, err
	}

	page, limit := normalizePagination(p)
	logs, total, err := s.repo.Find(ctx, companyID, f, (page-1)*limit, limit)
	if err != nil {
		s.logger.Error("query audit logs failed", zap.String("company_id", companyID), zap.Error(err))
		return QueryResult{}, err
	}

	return QueryResult{
		Logs:  mapToListResponse(logs),
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

func (s *service) GetEntityTrail(ctx context.Context, companyID, entityType, entityID string) ([]LogResponse, error) {
	logs, err := s.repo.FindByEntity(ctx, companyID, entityType, entityID)
	if err != nil {
		s.logger.Error("entity audit trail failed",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
		return nil, err
	}
	return mapToListResponse(logs), nil
}

func (s *service) GetUserActivity(ctx context.Context, companyID, userID string, days int) ([]LogResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, auditerrors.ErrInvalidUserID
	}
	if days == 0 {
		days = defaultActivityDays
	}
	if days < 1 || days > maxActivityDays {
		return nil, auditerrors.ErrInvalidDays
	}

	since := s.now().UTC().AddDate(0, 0, -days)
	logs, err := s.repo.FindUserActivity(ctx, companyID, userID, since)
	if err != nil {
		s.logger.Error("user audit activity failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return mapToListResponse(logs), nil
}

func (s *service) GenerateReport(ctx context.Context, companyID string, start, end time.Time) (Report, error) {
	if start.IsZero() || end.IsZero() {
		return Report{}, auditerrors.ErrInvalidDate
	}
	if end.Before(start) {
		return Report{}, auditerrors.ErrInvalidDateRange
	}

	summary, err := s.repo.CountByAction(ctx, companyID, start, end)
	if err != nil {
		s.logger.Error("audit report summary failed", zap.Error(err))
		return Report{}, err
	}
	topUsers, err := s.repo.TopUsers(ctx, companyID, start, end, topUsersLimit)
	if err != nil {
		s.logger.Error("audit report top users failed", zap.Error(err))
		return Report{}, err
	}

	var total int64
	for _, c := range summary {
		total += c.Count
	}
	if summary == nil {
		summary = []ActionCount{}
	}
	if topUsers == nil {
		topUsers = []UserCount{}
	}

	return Report{
		Period:      ReportPeriod{Start: start, End: end},
		TotalEvents: total,
		Summary:     summary,
		TopUsers:    topUsers,
	}, nil
}

func (s *service) Export(ctx context.Context, actor contextutil.Actor, f Filters) (ExportFile, error) {
	if err := validateFilters(f); err != nil {
		return ExportFile{}, err
	}

	logs, _, err := s.repo.Find(ctx, actor.CompanyID, f, 0, exportRowLimit)
	if err != nil {
		s.logger.Error("audit export query failed", zap.String("company_id", actor.CompanyID), zap.Error(err))
		return ExportFile{}, err
	}

	now := s.now().UTC()
	content, err := buildWorkbook(logs, f, actor, now)
	if err != nil {
		s.logger.Error("audit export workbook failed", zap.Error(err))
		return ExportFile{}, auditerrors.ErrExportFailed
	}

	s.Log(ctx, Entry{
		CompanyID:  actor.CompanyID,
		UserID:     actor.UserID,
		UserRole:   actor.Role,
		Action:     ActionExported,
		EntityType: EntityAuditLog,
		Metadata: map[string]any{
			"rows":    len(logs),
			"filters": filterSummary(f),
		},
	})

	return ExportFile{
		Filename:    fmt.Sprintf("audit_logs_%s.xlsx", now.Format("2006-01-02")),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     content,
		Rows:        len(logs),
	}, nil
}

func validateFilters(f Filters) error {
	if f.UserID != "" {
		if _, err := uuid.Parse(f.UserID); err != nil {
			return auditerrors.ErrInvalidUserID
		}
	}
	if f.TargetUserID != "" {
		if _, err := uuid.Parse(f.TargetUserID); err != nil {
			return auditerrors.ErrInvalidUserID
		}
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return auditerrors.ErrInvalidDateRange
	}
	return nil
}

func normalizePagination(p Pagination) (int, int) {
	page, limit := p.Page, p.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func filterSummary(f Filters) map[string]string {
	out := map[string]string{}
	if f.UserID != "" {
		out["userId"] = f.UserID
	}
	if f.TargetUserID != "" {
		out["targetUserId"] = f.TargetUserID
	}
	if f.EntityType != "" {
		out["entityType"] = f.EntityType
	}
	if f.EntityID != "" {
		out["entityId"] = f.EntityID
	}
	if f.Action != "" {
		out["action"] = f.Action
	}
	if f.StartDate != nil {
		out["startDate"] = f.StartDate.Format(time.RFC3339)
	}
	if f.EndDate != nil {
		out["endDate"] = f.EndDate.Format(time.RFC3339)
	}
	return out
}

func marshalData(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return datatypes.JSON(raw), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func mapToResponse(l AuditLog) LogResponse {
	resp := LogResponse{
		ID:         l.ID.String(),
		UserID:     l.UserID.String(),
		UserRole:   l.UserRole,
		CompanyID:  l.CompanyID.String(),
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Reason:     l.Reason,
		IPAddress:  l.IPAddress,
		UserAgent:  l.UserAgent,
		Timestamp:  l.Timestamp,
	}
	if l.TargetUserID != nil {
		t := l.TargetUserID.String()
		resp.TargetUserID = &t
	}
	if len(l.OldData) > 0 {
		resp.OldData = json.RawMessage(l.OldData)
	}
	if len(l.NewData) > 0 {
		resp.NewData = json.RawMessage(l.NewData)
	}
	if len(l.Metadata) > 0 {
		resp.Metadata = map[string]any(l.Metadata)
	}
	if l.User != nil {
		resp.User = &ActorResponse{
			ID:    l.User.ID.String(),
			Name:  l.User.Name,
			Email: l.User.Email,
			Role:  l.User.Role,
		}
	}
	return resp
}

func mapToListResponse(logs []AuditLog) []LogResponse {
	out := make([]LogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, mapToResponse(l))
	}
	return out
}
