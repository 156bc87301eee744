package auth

import (
	"context"
	"errors"
	"strings"

	"performa/internal/audit"
	autherrors "performa/internal/auth/errors"
	"performa/internal/company"
	companyerrors "performa/internal/company/errors"
	"performa/internal/shared/contextutil"
	"performa/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MethodPassword  = "password"
	MethodBiometric = "biometric"
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, req LoginRequest) (LoginResult, error)
	// CompleteLogin issues tokens for a user whose identity has already been
	// proven, by password or by a passkey assertion.
	CompleteLogin(ctx context.Context, u *user.User, method string) (LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (LoginResult, error)
	Me(ctx context.Context, actor contextutil.Actor) (AuthResponse, error)
	Logout(ctx context.Context, actor contextutil.Actor)
}

type service struct {
	companies company.Repository
	users     user.Repository
	tokens    *TokenIssuer
	audit     audit.Logger
	logger    *zap.Logger
}

func NewService(
	companies company.Repository,
	users user.Repository,
	tokens *TokenIssuer,
	auditLogger audit.Logger,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{companies: companies, users: users, tokens: tokens, audit: auditLogger, logger: l}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	comp, err := s.companies.GetByCode(ctx, strings.TrimSpace(req.CompanyCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LoginResult{}, autherrors.ErrInvalidCredentials
		}
		l.Error("login company lookup failed", zap.Error(err))
		return LoginResult{}, err
	}
	if !comp.Active {
		return LoginResult{}, companyerrors.ErrCompanyInactive
	}

	u, err := s.users.FindByIdentifier(ctx, comp.ID.String(), strings.TrimSpace(req.Identifier))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LoginResult{}, autherrors.ErrInvalidCredentials
		}
		l.Error("login user lookup failed", zap.Error(err))
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		l.Info("login rejected", zap.String("company_id", comp.ID.String()), zap.String("user_id", u.ID.String()))
		return LoginResult{}, autherrors.ErrInvalidCredentials
	}

	return s.CompleteLogin(ctx, u, MethodPassword)
}

func (s *service) CompleteLogin(ctx context.Context, u *user.User, method string) (LoginResult, error) {
	l := contextutil.GetLogger(ctx, s.logger)
	if !u.Active {
		return LoginResult{}, autherrors.ErrInactiveAccount
	}

	claims := Claims{
		UserID:    u.ID.String(),
		CompanyID: u.CompanyID.String(),
		Role:      u.Role,
		SessionID: uuid.NewString(),
	}
	access, refresh, err := s.tokens.Issue(claims)
	if err != nil {
		l.Error("sign tokens failed", zap.Error(err))
		return LoginResult{}, autherrors.ErrTokenGenerationFailed
	}

	if err := s.users.TouchLastLogin(ctx, claims.UserID); err != nil {
		l.Warn("touch last login failed", zap.String("user_id", claims.UserID), zap.Error(err))
	}

	info, _ := contextutil.GetClientInfo(ctx)
	info.SessionID = claims.SessionID
	s.audit.Log(contextutil.WithClientInfo(ctx, info), audit.Entry{
		CompanyID:    claims.CompanyID,
		UserID:       claims.UserID,
		UserRole:     claims.Role,
		Action:       audit.ActionLogin,
		EntityType:   audit.EntityUser,
		EntityID:     claims.UserID,
		TargetUserID: claims.UserID,
		Metadata:     map[string]any{"method": method},
	})

	l.Info("login success",
		zap.String("user_id", claims.UserID),
		zap.String("company_id", claims.CompanyID),
		zap.String("method", method),
	)
	return LoginResult{AccessToken: access, RefreshToken: refresh, User: mapToResponse(u)}, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return LoginResult{}, err
	}

	u, err := s.users.FindByID(ctx, claims.CompanyID, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LoginResult{}, autherrors.ErrInvalidRefreshToken
		}
		return LoginResult{}, err
	}
	if !u.Active {
		return LoginResult{}, autherrors.ErrInactiveAccount
	}

	// The role is re-read so a promotion or demotion takes effect on refresh.
	claims.Role = u.Role
	access, refresh, err := s.tokens.Issue(claims)
	if err != nil {
		return LoginResult{}, autherrors.ErrTokenGenerationFailed
	}
	return LoginResult{AccessToken: access, RefreshToken: refresh, User: mapToResponse(u)}, nil
}

func (s *service) Me(ctx context.Context, actor contextutil.Actor) (AuthResponse, error) {
	if _, err := uuid.Parse(actor.UserID); err != nil {
		return AuthResponse{}, autherrors.ErrInvalidUserID
	}

	u, err := s.users.FindByID(ctx, actor.CompanyID, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthResponse{}, autherrors.ErrUserNotFound
		}
		return AuthResponse{}, err
	}
	return mapToResponse(u), nil
}

// Logout only records the event; tokens are stateless and expire on their own.
func (s *service) Logout(ctx context.Context, actor contextutil.Actor) {
	if actor.UserID == "" {
		return
	}
	s.audit.Log(ctx, audit.Entry{
		CompanyID:    actor.CompanyID,
		UserID:       actor.UserID,
		UserRole:     actor.Role,
		Action:       audit.ActionLogout,
		EntityType:   audit.EntityUser,
		EntityID:     actor.UserID,
		TargetUserID: actor.UserID,
	})
}

func mapToResponse(u *user.User) AuthResponse {
	return AuthResponse{
		ID:         u.ID.String(),
		CompanyID:  u.CompanyID.String(),
		Name:       u.Name,
		Email:      u.Email,
		Username:   u.Username,
		Role:       u.Role,
		UserType:   u.UserType,
		Department: u.Department,
	}
}
