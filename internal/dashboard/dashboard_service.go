package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"performa/internal/domain"
	"performa/internal/permission"
	"performa/internal/shared/contextutil"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	KeyPrefix = "dashboard:"
	CacheTTL  = 5 * time.Minute

	recentEvaluationLimit = 5
	scanBatch             = 100
)

func CacheKey(companyID, role, userID string) string {
	return fmt.Sprintf("%s%s:%s:%s", KeyPrefix, companyID, role, userID)
}

func companyPattern(companyID string) string {
	return KeyPrefix + companyID + ":*"
}

type Service interface {
	Get(ctx context.Context, actor contextutil.Actor) (Summary, error)
	Invalidate(ctx context.Context, companyID string) error
}

type service struct {
	repo   Repository
	perms  permission.Service
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, perms permission.Service, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("dashboard.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("dashboard.service")
	}
	return &service{
		repo:   repo,
		perms:  perms,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
		now:    time.Now,
	}
}

func (s *service) Get(ctx context.Context, actor contextutil.Actor) (Summary, error) {
	l := contextutil.GetLogger(ctx, s.logger)
	key := CacheKey(actor.CompanyID, actor.Role, actor.UserID)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, key).Result()
		switch {
		case err == nil:
			var summary Summary
			if json.Unmarshal([]byte(cached), &summary) == nil {
				return summary, nil
			}
		case !errors.Is(err, redis.Nil):
			l.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		summary, err := s.build(ctx, actor)
		if err != nil {
			return nil, err
		}

		if s.rdb != nil {
			if data, err := json.Marshal(summary); err == nil {
				if err := s.rdb.Set(ctx, key, string(data), CacheTTL).Err(); err != nil {
					l.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
				}
			}
		}
		return summary, nil
	})
	if err != nil {
		l.Error("build dashboard failed", zap.String("role", actor.Role), zap.Error(err))
		return Summary{}, err
	}

	return v.(Summary), nil
}

// Invalidate drops every cached summary of one company.
func (s *service) Invalidate(ctx context.Context, companyID string) error {
	if s.rdb == nil {
		return nil
	}

	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, companyPattern(companyID), scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *service) build(ctx context.Context, actor contextutil.Actor) (Summary, error) {
	summary := Summary{
		Role:        actor.Role,
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
	}

	cycle, err := s.repo.ActiveCycle(ctx, actor.CompanyID)
	switch {
	case err == nil:
		summary.ActiveCycle = &CycleSummary{
			ID:      cycle.ID.String(),
			Name:    cycle.Name,
			EndDate: cycle.EndDate.Format("2006-01-02"),
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Summary{}, err
	}

	switch actor.Role {
	case domain.RoleHR:
		company, err := s.companySummary(ctx, actor.CompanyID)
		if err != nil {
			return Summary{}, err
		}
		summary.Company = company

	case domain.RoleManager:
		team, err := s.teamSummary(ctx, actor)
		if err != nil {
			return Summary{}, err
		}
		summary.Team = team
		fallthrough

	default:
		own, err := s.employeeSummary(ctx, actor)
		if err != nil {
			return Summary{}, err
		}
		summary.Employee = own
	}

	return summary, nil
}

func (s *service) employeeSummary(ctx context.Context, actor contextutil.Actor) (*EmployeeSummary, error) {
	counts, err := s.perms.CountEmployeeEvaluationItems(ctx, actor.CompanyID, actor.UserID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.RecentEvaluations(ctx, actor.CompanyID, actor.UserID, recentEvaluationLimit)
	if err != nil {
		return nil, err
	}

	recent := make([]RecentEvaluation, 0, len(rows))
	for _, r := range rows {
		recent = append(recent, RecentEvaluation{
			ID:            r.ID.String(),
			PeriodType:    r.PeriodType,
			PeriodDate:    r.PeriodDate,
			Status:        r.Status,
			OverallRating: r.OverallRating,
			UpdatedAt:     r.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return &EmployeeSummary{Items: counts, RecentEvaluations: recent}, nil
}

func (s *service) teamSummary(ctx context.Context, actor contextutil.Actor) (*TeamSummary, error) {
	members, err := s.repo.TeamMembers(ctx, actor.CompanyID, actor.UserID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID.String())
	}
	latest, err := s.repo.LatestEvaluations(ctx, actor.CompanyID, ids)
	if err != nil {
		return nil, err
	}
	statusOf := make(map[string]string, len(latest))
	for _, e := range latest {
		statusOf[e.EmployeeID.String()] = e.Status
	}

	team := &TeamSummary{
		Members:      make([]TeamMember, 0, len(members)),
		StatusCounts: map[string]int64{},
	}
	for _, m := range members {
		counts, err := s.perms.CountEmployeeEvaluationItems(ctx, actor.CompanyID, m.ID.String())
		if err != nil {
			return nil, err
		}
		status := statusOf[m.ID.String()]
		if status == "" {
			team.StatusCounts["not_started"]++
		} else {
			team.StatusCounts[status]++
		}
		team.Members = append(team.Members, TeamMember{
			ID:           m.ID.String(),
			Name:         m.Name,
			Department:   m.Department,
			ItemCount:    counts.Total,
			ItemMax:      counts.Max,
			LatestStatus: status,
		})
	}
	return team, nil
}

func (s *service) companySummary(ctx context.Context, companyID string) (*CompanySummary, error) {
	employees, err := s.repo.CountEmployees(ctx, companyID)
	if err != nil {
		return nil, err
	}
	statuses, err := s.repo.StatusCounts(ctx, companyID)
	if err != nil {
		return nil, err
	}
	byDept, err := s.repo.DepartmentStatusCounts(ctx, companyID)
	if err != nil {
		return nil, err
	}

	out := &CompanySummary{
		Employees:    employees,
		StatusCounts: make(map[string]int64, len(statuses)),
		Departments:  []DepartmentStatus{},
	}
	for _, sc := range statuses {
		out.StatusCounts[sc.Status] = sc.Count
	}

	index := map[string]int{}
	for _, d := range byDept {
		i, ok := index[d.Department]
		if !ok {
			i = len(out.Departments)
			index[d.Department] = i
			out.Departments = append(out.Departments, DepartmentStatus{Department: d.Department, StatusCounts: map[string]int64{}})
		}
		out.Departments[i].StatusCounts[d.Status] = d.Count
	}
	return out, nil
}
