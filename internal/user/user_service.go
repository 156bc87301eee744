package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"performa/internal/audit"
	"performa/internal/domain"
	"performa/internal/shared/apperror"
	"performa/internal/shared/contextutil"
	usererrors "performa/internal/user/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const maxManagerChain = 50

//go:generate mockgen -source=user_service.go -destination=mock/user_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actor contextutil.Actor, req CreateUserRequest) (UserResponse, error)
	Update(ctx context.Context, actor contextutil.Actor, id string, req UpdateUserRequest) (UserResponse, error)
	Delete(ctx context.Context, actor contextutil.Actor, id string) error
	GetByID(ctx context.Context, companyID, id string) (UserResponse, error)
	GetAll(ctx context.Context, companyID string, f ListUsersFilter) ([]UserResponse, int64, error)
	GetTeam(ctx context.Context, actor contextutil.Actor, managerID string) ([]UserResponse, error)
	ChangePassword(ctx context.Context, actor contextutil.Actor, req ChangePasswordRequest) error
	ResetPassword(ctx context.Context, actor contextutil.Actor, id, newPassword string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	audit  audit.Logger
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, auditLogger audit.Logger, logger ...*zap.Logger) Service {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	return &service{db: db, repo: repo, audit: auditLogger, logger: l}
}

// HashPassword is shared with the CSV importer.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func validateIdentity(userType string, email, username *string) error {
	switch userType {
	case domain.UserTypeOffice:
		if email == nil {
			return usererrors.ErrEmailRequired
		}
	case domain.UserTypeOperational:
		if username == nil {
			return usererrors.ErrUsernameRequired
		}
	default:
		return usererrors.ErrInvalidUserType
	}
	return nil
}

// validateManager checks that managerID names an active user of the same
// company and that assigning it to userID does not close a reporting loop.
func (s *service) validateManager(ctx context.Context, repo Repository, companyID, userID, managerID string) (*uuid.UUID, error) {
	mid, err := uuid.Parse(managerID)
	if err != nil {
		return nil, usererrors.ErrManagerNotFound
	}
	if userID != "" && managerID == userID {
		return nil, usererrors.ErrSelfManager
	}

	mgr, err := repo.FindByID(ctx, companyID, managerID)
	if err != nil {
		if errors.Is(mapRepositoryError(err), usererrors.ErrUserNotFound) {
			return nil, usererrors.ErrManagerNotFound
		}
		return nil, err
	}
	if !mgr.Active {
		return nil, usererrors.ErrManagerNotFound
	}

	if userID != "" {
		next := mgr.ManagerID
		for hops := 0; next != nil && hops < maxManagerChain; hops++ {
			if next.String() == userID {
				return nil, usererrors.ErrManagerCycle
			}
			up, err := repo.FindByID(ctx, companyID, next.String())
			if err != nil {
				break
			}
			next = up.ManagerID
		}
	}

	return &mid, nil
}

func (s *service) Create(ctx context.Context, actor contextutil.Actor, req CreateUserRequest) (UserResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)
	l.Debug("create user requested",
		zap.String("company_id", actor.CompanyID),
		zap.String("person_id", req.PersonID),
		zap.String("role", req.Role),
	)

	companyUUID, err := uuid.Parse(actor.CompanyID)
	if err != nil {
		return UserResponse{}, apperror.ErrUnauthorized
	}
	if !domain.IsValidRole(req.Role) {
		return UserResponse{}, usererrors.ErrInvalidRole
	}

	userType := req.UserType
	if userType == "" {
		userType = domain.UserTypeOffice
	}
	email := normalizeOptional(req.Email)
	if email != nil {
		lower := strings.ToLower(*email)
		email = &lower
	}
	username := normalizeOptional(req.Username)
	if err := validateIdentity(userType, email, username); err != nil {
		return UserResponse{}, err
	}

	u := &User{
		ID:         uuid.New(),
		CompanyID:  companyUUID,
		Name:       strings.TrimSpace(req.Name),
		Email:      email,
		Username:   username,
		PersonID:   strings.TrimSpace(req.PersonID),
		Role:       req.Role,
		UserType:   userType,
		Department: normalizeOptional(req.Department),
		Position:   normalizeOptional(req.Position),
		Active:     true,
	}

	if mid := normalizeOptional(req.ManagerID); mid != nil {
		u.ManagerID, err = s.validateManager(ctx, s.repo, actor.CompanyID, "", *mid)
		if err != nil {
			return UserResponse{}, err
		}
	}

	u.PasswordHash, err = HashPassword(req.Password)
	if err != nil {
		l.Error("hash password failed", zap.Error(err))
		return UserResponse{}, err
	}

	if err := s.repo.Create(ctx, u); err != nil {
		l.Warn("create user persist failed", zap.Error(err))
		return UserResponse{}, mapRepositoryError(err)
	}

	resp := mapToResponse(*u)
	s.audit.Log(ctx, audit.Entry{
		CompanyID:    actor.CompanyID,
		UserID:       actor.UserID,
		UserRole:     actor.Role,
		Action:       audit.ActionCreated,
		EntityType:   audit.EntityUser,
		EntityID:     u.ID.String(),
		TargetUserID: u.ID.String(),
		NewData:      resp,
	})

	l.Info("create user success", zap.String("user_id", u.ID.String()))
	return resp, nil
}

func (s *service) Update(ctx context.Context, actor contextutil.Actor, id string, req UpdateUserRequest) (UserResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)
	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		l.Error("update user begin tx failed", zap.Error(err))
		return UserResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	u, err := qtx.FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		return UserResponse{}, mapRepositoryError(err)
	}
	before := mapToResponse(*u)

	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		u.Email = normalizeOptional(req.Email)
		if u.Email != nil {
			lower := strings.ToLower(*u.Email)
			u.Email = &lower
		}
	}
	if req.Username != nil {
		u.Username = normalizeOptional(req.Username)
	}
	if req.Role != nil {
		if !domain.IsValidRole(*req.Role) {
			return UserResponse{}, usererrors.ErrInvalidRole
		}
		u.Role = *req.Role
	}
	if req.UserType != nil {
		u.UserType = *req.UserType
	}
	if err := validateIdentity(u.UserType, u.Email, u.Username); err != nil {
		return UserResponse{}, err
	}
	if req.Department != nil {
		u.Department = normalizeOptional(req.Department)
	}
	if req.Position != nil {
		u.Position = normalizeOptional(req.Position)
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	if req.ManagerID != nil {
		if mid := normalizeOptional(req.ManagerID); mid == nil {
			u.ManagerID = nil
		} else {
			u.ManagerID, err = s.validateManager(ctx, qtx, actor.CompanyID, id, *mid)
			if err != nil {
				return UserResponse{}, err
			}
		}
	}

	if err := qtx.Update(ctx, u); err != nil {
		l.Warn("update user persist failed", zap.Error(err))
		return UserResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		l.Error("update user commit failed", zap.Error(err))
		return UserResponse{}, err
	}

	after := mapToResponse(*u)
	s.audit.Log(ctx, audit.Entry{
		CompanyID:    actor.CompanyID,
		UserID:       actor.UserID,
		UserRole:     actor.Role,
		Action:       audit.ActionUpdated,
		EntityType:   audit.EntityUser,
		EntityID:     id,
		TargetUserID: id,
		OldData:      before,
		NewData:      after,
	})

	return after, nil
}

func (s *service) Delete(ctx context.Context, actor contextutil.Actor, id string) error {
	l := contextutil.GetLogger(ctx, s.logger)
	if _, err := uuid.Parse(id); err != nil {
		return usererrors.ErrInvalidUserID
	}
	if id == actor.UserID {
		return usererrors.ErrCannotDeleteSelf
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		l.Error("delete user begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	u, err := qtx.FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		return mapRepositoryError(err)
	}

	reports, err := qtx.CountActiveReports(ctx, actor.CompanyID, id)
	if err != nil {
		l.Error("delete user count reports failed", zap.Error(err))
		return err
	}
	if reports > 0 {
		return usererrors.ErrHasActiveReports.WithDetails(map[string]int64{"activeReports": reports})
	}

	if err := qtx.Delete(ctx, actor.CompanyID, id); err != nil {
		return mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		l.Error("delete user commit failed", zap.Error(err))
		return err
	}

	s.audit.Log(ctx, audit.Entry{
		CompanyID:    actor.CompanyID,
		UserID:       actor.UserID,
		UserRole:     actor.Role,
		Action:       audit.ActionDeleted,
		EntityType:   audit.EntityUser,
		EntityID:     id,
		TargetUserID: id,
		OldData:      mapToResponse(*u),
	})
	return nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (UserResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}
	u, err := s.repo.FindByID(ctx, companyID, id)
	if err != nil {
		return UserResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*u), nil
}

func (s *service) GetAll(ctx context.Context, companyID string, f ListUsersFilter) ([]UserResponse, int64, error) {
	users, total, err := s.repo.FindAll(ctx, companyID, f)
	if err != nil {
		return nil, 0, err
	}
	return mapToListResponse(users), total, nil
}

func (s *service) GetTeam(ctx context.Context, actor contextutil.Actor, managerID string) ([]UserResponse, error) {
	if _, err := uuid.Parse(managerID); err != nil {
		return nil, usererrors.ErrInvalidUserID
	}
	if actor.Role != domain.RoleHR && actor.UserID != managerID {
		return nil, usererrors.ErrForbidden
	}

	users, err := s.repo.FindByManager(ctx, actor.CompanyID, managerID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(users), nil
}

func (s *service) ChangePassword(ctx context.Context, actor contextutil.Actor, req ChangePasswordRequest) error {
	u, err := s.repo.FindByID(ctx, actor.CompanyID, actor.UserID)
	if err != nil {
		return mapRepositoryError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return usererrors.ErrWrongPassword
	}

	u.PasswordHash, err = HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return mapRepositoryError(err)
	}

	s.audit.Log(ctx, audit.Entry{
		CompanyID:    actor.CompanyID,
		UserID:       actor.UserID,
		UserRole:     actor.Role,
		Action:       audit.ActionUpdated,
		EntityType:   audit.EntityUser,
		EntityID:     actor.UserID,
		TargetUserID: actor.UserID,
		Metadata:     map[string]any{"field": "password"},
	})
	return nil
}

func (s *service) ResetPassword(ctx context.Context, actor contextutil.Actor, id, newPassword string) error {
	if _, err := uuid.Parse(id); err != nil {
		return usererrors.ErrInvalidUserID
	}
	u, err := s.repo.FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		return mapRepositoryError(err)
	}

	u.PasswordHash, err = HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return mapRepositoryError(err)
	}

	s.audit.Log(ctx, audit.Entry{
		CompanyID:    actor.CompanyID,
		UserID:       actor.UserID,
		UserRole:     actor.Role,
		Action:       audit.ActionUpdated,
		EntityType:   audit.EntityUser,
		EntityID:     id,
		TargetUserID: id,
		Reason:       "password reset by hr",
		Metadata:     map[string]any{"field": "password"},
	})
	return nil
}

func mapToResponse(u User) UserResponse {
	resp := UserResponse{
		ID:          u.ID.String(),
		CompanyID:   u.CompanyID.String(),
		Name:        u.Name,
		Email:       u.Email,
		Username:    u.Username,
		PersonID:    u.PersonID,
		Role:        u.Role,
		UserType:    u.UserType,
		Department:  u.Department,
		Position:    u.Position,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if u.ManagerID != nil {
		mid := u.ManagerID.String()
		resp.ManagerID = &mid
	}
	if u.Manager != nil {
		resp.Manager = &ManagerResponse{ID: u.Manager.ID.String(), Name: u.Manager.Name, Email: u.Manager.Email}
	}
	return resp
}

func mapToListResponse(users []User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, mapToResponse(u))
	}
	return out
}
