package permission

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"performa/internal/domain"
	permissionerrors "performa/internal/permission/errors"
	"performa/internal/shared/apperror"
	"performa/internal/shared/contextutil"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxEvaluationItems caps the active items one employee can carry across
// every assignment level.
const MaxEvaluationItems = 10

type Kind string

const (
	KindEvaluation        Kind = "evaluation"
	KindPartialAssessment Kind = "partial_assessment"
	KindEvaluationItem    Kind = "evaluation_item"
)

// Result is returned instead of an error so callers can turn a refusal
// straight into a response.
type Result struct {
	Allowed bool
	Err     *apperror.AppError
	Status  int
}

func allow() Result {
	return Result{Allowed: true, Status: http.StatusOK}
}

func deny(err *apperror.AppError) Result {
	return Result{Allowed: false, Err: err, Status: err.HTTPStatus}
}

// AsError is nil when the write is allowed.
func (r Result) AsError() error {
	if r.Allowed {
		return nil
	}
	if r.Err == nil {
		return apperror.ErrForbidden
	}
	return r.Err
}

type ItemCounts struct {
	Company    int64 `json:"company"`
	Department int64 `json:"department"`
	Manager    int64 `json:"manager"`
	Individual int64 `json:"individual"`
	Total      int64 `json:"total"`
	Max        int   `json:"max"`
}

type ExceededEmployee struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CurrentCount int64  `json:"currentCount"`
	WouldExceed  int64  `json:"wouldExceed"`
}

func IsHR(role string) bool {
	return role == domain.RoleHR
}

func IsManagerOrHR(role string) bool {
	return role == domain.RoleManager || role == domain.RoleHR
}

//go:generate mockgen -source=permission_service.go -destination=mock/permission_service_mock.go -package=mock
type Service interface {
	WithRepository(repo Repository) Service
	ValidateCyclePermission(ctx context.Context, actor contextutil.Actor, cycleID string, kind Kind) Result
	CanManage(ctx context.Context, actor contextutil.Actor, employeeID string) (bool, error)
	CanManageItem(ctx context.Context, actor contextutil.Actor, item ItemScope) (bool, error)
	CountEmployeeEvaluationItems(ctx context.Context, companyID, employeeID string) (ItemCounts, error)
	GetAffectedEmployees(ctx context.Context, companyID, level string, assignedTo *string, employeeIDs []string) ([]Employee, error)
	ValidateItemLimitForEmployees(ctx context.Context, companyID string, employeeIDs []string, additional int) ([]ExceededEmployee, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("permission.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("permission.service")
	}
	return &service{repo: repo, logger: l}
}

// WithRepository binds the checks to another repository, typically one
// scoped to the caller's transaction.
func (s *service) WithRepository(repo Repository) Service {
	return &service{repo: repo, logger: s.logger}
}

func (s *service) ValidateCyclePermission(ctx context.Context, actor contextutil.Actor, cycleID string, kind Kind) Result {
	l := contextutil.GetLogger(ctx, s.logger)

	if !IsManagerOrHR(actor.Role) {
		return deny(permissionerrors.ErrRoleNotAllowed.WithMessage(
			fmt.Sprintf("role %q cannot write %s records", actor.Role, kind),
		))
	}

	cycle, err := s.repo.FindCycle(ctx, actor.CompanyID, cycleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return deny(permissionerrors.ErrCycleNotFound)
		}
		l.Error("cycle permission lookup failed", zap.String("cycle_id", cycleID), zap.Error(err))
		return deny(apperror.ErrInternal)
	}

	if cycle.Status != domain.CycleStatusActive {
		return deny(permissionerrors.ErrCycleNotActive.WithDetails(map[string]any{
			"cycleId":   cycle.ID.String(),
			"cycleName": cycle.Name,
			"status":    cycle.Status,
		}))
	}

	return allow()
}

// CanManage reports whether actor may write evaluations or assessments for
// employeeID: HR always, managers only for their direct reports.
func (s *service) CanManage(ctx context.Context, actor contextutil.Actor, employeeID string) (bool, error) {
	if IsHR(actor.Role) {
		return true, nil
	}
	if actor.Role != domain.RoleManager {
		return false, nil
	}

	emp, err := s.repo.FindEmployee(ctx, actor.CompanyID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, permissionerrors.ErrEmployeeNotFound
		}
		return false, err
	}
	return emp.ManagerID != nil && emp.ManagerID.String() == actor.UserID, nil
}

// CanManageItem lets managers touch items they created, items aimed at them
// as a manager, and items aimed at their own department.
func (s *service) CanManageItem(ctx context.Context, actor contextutil.Actor, item ItemScope) (bool, error) {
	if IsHR(actor.Role) {
		return true, nil
	}
	if actor.Role != domain.RoleManager {
		return false, nil
	}
	if item.CreatedBy.String() == actor.UserID {
		return true, nil
	}
	if item.AssignedTo == nil {
		return false, nil
	}

	switch item.Level {
	case domain.ItemLevelManager:
		return *item.AssignedTo == actor.UserID, nil
	case domain.ItemLevelDepartment:
		me, err := s.repo.FindEmployee(ctx, actor.CompanyID, actor.UserID)
		if err != nil {
			return false, err
		}
		return me.Department != nil && strings.EqualFold(*me.Department, *item.AssignedTo), nil
	}
	return false, nil
}

func (s *service) CountEmployeeEvaluationItems(ctx context.Context, companyID, employeeID string) (ItemCounts, error) {
	emp, err := s.repo.FindEmployee(ctx, companyID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ItemCounts{}, permissionerrors.ErrEmployeeNotFound
		}
		return ItemCounts{}, err
	}
	return s.countFor(ctx, companyID, emp)
}

func (s *service) countFor(ctx context.Context, companyID string, emp *Employee) (ItemCounts, error) {
	counts := ItemCounts{Max: MaxEvaluationItems}
	var err error

	if counts.Company, err = s.repo.CountCompanyItems(ctx, companyID); err != nil {
		return ItemCounts{}, err
	}
	if emp.Department != nil && *emp.Department != "" {
		if counts.Department, err = s.repo.CountDepartmentItems(ctx, companyID, *emp.Department); err != nil {
			return ItemCounts{}, err
		}
	}
	if emp.ManagerID != nil {
		if counts.Manager, err = s.repo.CountManagerItems(ctx, companyID, emp.ManagerID.String()); err != nil {
			return ItemCounts{}, err
		}
	}
	if counts.Individual, err = s.repo.CountIndividualAssignments(ctx, companyID, emp.ID.String()); err != nil {
		return ItemCounts{}, err
	}

	counts.Total = counts.Company + counts.Department + counts.Manager + counts.Individual
	return counts, nil
}

// GetAffectedEmployees lists everyone a new item would land on. A company
// level item touches every active user of the tenant.
func (s *service) GetAffectedEmployees(ctx context.Context, companyID, level string, assignedTo *string, employeeIDs []string) ([]Employee, error) {
	var (
		base []Employee
		err  error
	)

	target := ""
	if assignedTo != nil {
		target = strings.TrimSpace(*assignedTo)
	}

	switch level {
	case domain.ItemLevelCompany:
		base, err = s.repo.ActiveEmployees(ctx, companyID)
	case domain.ItemLevelDepartment:
		if target != "" {
			base, err = s.repo.EmployeesInDepartment(ctx, companyID, target)
		}
	case domain.ItemLevelManager:
		if target != "" {
			base, err = s.repo.EmployeesOfManager(ctx, companyID, target)
		}
	}
	if err != nil {
		return nil, err
	}

	individuals, err := s.repo.FindEmployees(ctx, companyID, employeeIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(base)+len(individuals))
	out := make([]Employee, 0, len(base)+len(individuals))
	for _, group := range [][]Employee{base, individuals} {
		for _, e := range group {
			if _, dup := seen[e.ID.String()]; dup {
				continue
			}
			seen[e.ID.String()] = struct{}{}
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *service) ValidateItemLimitForEmployees(ctx context.Context, companyID string, employeeIDs []string, additional int) ([]ExceededEmployee, error) {
	exceeded := make([]ExceededEmployee, 0)
	for _, id := range employeeIDs {
		emp, err := s.repo.FindEmployee(ctx, companyID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}

		counts, err := s.countFor(ctx, companyID, emp)
		if err != nil {
			return nil, err
		}

		if next := counts.Total + int64(additional); next > MaxEvaluationItems {
			exceeded = append(exceeded, ExceededEmployee{
				ID:           emp.ID.String(),
				Name:         emp.Name,
				CurrentCount: counts.Total,
				WouldExceed:  next,
			})
		}
	}

	if len(exceeded) > 0 {
		s.logger.Info("item limit check failed",
			zap.String("company_id", companyID),
			zap.Int("employees_over_limit", len(exceeded)),
		)
	}
	return exceeded, nil
}

// LimitError builds the response error for a failed cap check.
func LimitError(exceeded []ExceededEmployee) error {
	names := make([]string, 0, len(exceeded))
	for _, e := range exceeded {
		names = append(names, fmt.Sprintf("%s (%d -> %d)", e.Name, e.CurrentCount, e.WouldExceed))
	}
	return permissionerrors.ErrItemLimitExceeded.
		WithMessage(fmt.Sprintf("%d employee(s) would exceed the limit of %d evaluation items: %s",
			len(exceeded), MaxEvaluationItems, strings.Join(names, ", "))).
		WithDetails(map[string]any{
			"maxItems":          MaxEvaluationItems,
			"exceededEmployees": exceeded,
		})
}
