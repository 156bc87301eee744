package biometric

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"performa/internal/audit"
	"performa/internal/auth"
	autherrors "performa/internal/auth/errors"
	biometricerrors "performa/internal/biometric/errors"
	"performa/internal/company"
	companyerrors "performa/internal/company/errors"
	"performa/internal/config"
	"performa/internal/shared/contextutil"
	"performa/internal/user"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	kindRegistration = "register"
	kindLogin        = "login"

	ConstraintCredentialID = "uq_biometric_credentials_credential_id"
)

// RelyingParty is the subset of *webauthn.WebAuthn the service drives.
type RelyingParty interface {
	BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error)
	FinishRegistration(user webauthn.User, session webauthn.SessionData, r *http.Request) (*webauthn.Credential, error)
	BeginLogin(user webauthn.User, opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error)
	FinishLogin(user webauthn.User, session webauthn.SessionData, r *http.Request) (*webauthn.Credential, error)
}

func NewRelyingParty(cfg config.WebAuthnConfig) (*webauthn.WebAuthn, error) {
	return webauthn.New(&webauthn.Config{
		RPID:          cfg.RPID,
		RPDisplayName: cfg.RPDisplayName,
		RPOrigins:     cfg.RPOrigins,
	})
}

type Service interface {
	RegisterBegin(ctx context.Context, actor contextutil.Actor) (*protocol.CredentialCreation, error)
	RegisterFinish(ctx context.Context, actor contextutil.Actor, deviceName string, r *http.Request) (CredentialResponse, error)
	LoginBegin(ctx context.Context, req LoginBeginRequest) (LoginBeginResponse, error)
	LoginFinish(ctx context.Context, sessionID string, r *http.Request) (auth.LoginResult, error)
	ListCredentials(ctx context.Context, actor contextutil.Actor) ([]CredentialResponse, error)
	RevokeCredential(ctx context.Context, actor contextutil.Actor, id string) error
}

type service struct {
	rp        RelyingParty
	sessions  SessionStore
	repo      Repository
	users     user.Repository
	companies company.Repository
	auth      auth.Service
	audit     audit.Logger
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	rp RelyingParty,
	sessions SessionStore,
	repo Repository,
	users user.Repository,
	companies company.Repository,
	authService auth.Service,
	auditLogger audit.Logger,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("biometric.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("biometric.service")
	}
	return &service{
		rp:        rp,
		sessions:  sessions,
		repo:      repo,
		users:     users,
		companies: companies,
		auth:      authService,
		audit:     auditLogger,
		logger:    l,
		now:       time.Now,
	}
}

func (s *service) loadPasskeyUser(ctx context.Context, companyID, userID string) (passkeyUser, error) {
	u, err := s.users.FindByID(ctx, companyID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return passkeyUser{}, autherrors.ErrUserNotFound
		}
		return passkeyUser{}, err
	}
	creds, err := s.repo.FindActiveByUser(ctx, companyID, userID)
	if err != nil {
		return passkeyUser{}, err
	}
	return passkeyUser{user: u, credentials: creds}, nil
}

func (s *service) RegisterBegin(ctx context.Context, actor contextutil.Actor) (*protocol.CredentialCreation, error) {
	l := contextutil.GetLogger(ctx, s.logger)
	pu, err := s.loadPasskeyUser(ctx, actor.CompanyID, actor.UserID)
	if err != nil {
		return nil, err
	}

	creation, session, err := s.rp.BeginRegistration(pu, webauthn.WithExclusions(pu.exclusions()))
	if err != nil {
		l.Error("begin registration failed", zap.Error(err))
		return nil, err
	}

	if err := s.sessions.Save(ctx, kindRegistration, actor.UserID, ceremony{
		UserID:    actor.UserID,
		CompanyID: actor.CompanyID,
		Session:   *session,
	}); err != nil {
		l.Error("store registration session failed", zap.Error(err))
		return nil, err
	}
	return creation, nil
}

func (s *service) RegisterFinish(ctx context.Context, actor contextutil.Actor, deviceName string, r *http.Request) (CredentialResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)
	cer, err := s.sessions.Take(ctx, kindRegistration, actor.UserID)
	if err != nil {
		return CredentialResponse{}, err
	}
	if cer.CompanyID != actor.CompanyID {
		return CredentialResponse{}, biometricerrors.ErrSessionExpired
	}

	pu, err := s.loadPasskeyUser(ctx, actor.CompanyID, actor.UserID)
	if err != nil {
		return CredentialResponse{}, err
	}

	cred, err := s.rp.FinishRegistration(pu, cer.Session, r)
	if err != nil {
		l.Info("finish registration rejected", zap.String("user_id", actor.UserID), zap.Error(err))
		return CredentialResponse{}, biometricerrors.ErrVerificationFailed
	}

	deviceName = strings.TrimSpace(deviceName)
	if deviceName == "" {
		deviceName = "Passkey"
	}
	record := fromWebAuthn(pu.user, cred, deviceName)
	if err := s.repo.Create(ctx, record); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == ConstraintCredentialID {
			return CredentialResponse{}, biometricerrors.ErrCredentialExists
		}
		l.Error("persist credential failed", zap.Error(err))
		return CredentialResponse{}, err
	}

	resp := mapToResponse(*record)
	s.audit.Log(ctx, audit.Entry{
		CompanyID:    actor.CompanyID,
		UserID:       actor.UserID,
		UserRole:     actor.Role,
		Action:       audit.ActionCreated,
		EntityType:   audit.EntityBiometricCredential,
		EntityID:     record.ID.String(),
		TargetUserID: actor.UserID,
		NewData:      resp,
	})
	return resp, nil
}

func (s *service) LoginBegin(ctx context.Context, req LoginBeginRequest) (LoginBeginResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)
	comp, err := s.companies.GetByCode(ctx, strings.TrimSpace(req.CompanyCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LoginBeginResponse{}, autherrors.ErrInvalidCredentials
		}
		return LoginBeginResponse{}, err
	}
	if !comp.Active {
		return LoginBeginResponse{}, companyerrors.ErrCompanyInactive
	}

	u, err := s.users.FindByIdentifier(ctx, comp.ID.String(), strings.TrimSpace(req.Identifier))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LoginBeginResponse{}, autherrors.ErrInvalidCredentials
		}
		return LoginBeginResponse{}, err
	}

	creds, err := s.repo.FindActiveByUser(ctx, comp.ID.String(), u.ID.String())
	if err != nil {
		return LoginBeginResponse{}, err
	}
	if len(creds) == 0 {
		return LoginBeginResponse{}, biometricerrors.ErrNoCredentials
	}

	assertion, session, err := s.rp.BeginLogin(passkeyUser{user: u, credentials: creds})
	if err != nil {
		l.Error("begin login failed", zap.Error(err))
		return LoginBeginResponse{}, err
	}

	sessionID := uuid.NewString()
	if err := s.sessions.Save(ctx, kindLogin, sessionID, ceremony{
		UserID:    u.ID.String(),
		CompanyID: comp.ID.String(),
		Session:   *session,
	}); err != nil {
		l.Error("store login session failed", zap.Error(err))
		return LoginBeginResponse{}, err
	}

	return LoginBeginResponse{SessionID: sessionID, Options: assertion}, nil
}

func (s *service) LoginFinish(ctx context.Context, sessionID string, r *http.Request) (auth.LoginResult, error) {
	l := contextutil.GetLogger(ctx, s.logger)
	cer, err := s.sessions.Take(ctx, kindLogin, sessionID)
	if err != nil {
		return auth.LoginResult{}, err
	}

	pu, err := s.loadPasskeyUser(ctx, cer.CompanyID, cer.UserID)
	if err != nil {
		return auth.LoginResult{}, err
	}

	cred, err := s.rp.FinishLogin(pu, cer.Session, r)
	if err != nil {
		l.Info("finish login rejected", zap.String("user_id", cer.UserID), zap.Error(err))
		return auth.LoginResult{}, biometricerrors.ErrVerificationFailed
	}

	stored, err := s.repo.FindByCredentialID(ctx, cer.CompanyID, encodeCredentialID(cred.ID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.LoginResult{}, biometricerrors.ErrVerificationFailed
		}
		return auth.LoginResult{}, err
	}

	if cred.Authenticator.CloneWarning {
		l.Warn("authenticator clone warning", zap.String("credential_id", stored.ID.String()))
		if err := s.repo.Deactivate(ctx, cer.CompanyID, stored.ID.String()); err != nil {
			l.Error("disable cloned credential failed", zap.Error(err))
		}
		return auth.LoginResult{}, biometricerrors.ErrCloneDetected
	}

	if err := s.repo.RecordUse(ctx, stored.ID.String(), cred.Authenticator.SignCount, cred.Flags.BackupState, s.now()); err != nil {
		l.Warn("record credential use failed", zap.Error(err))
	}

	return s.auth.CompleteLogin(ctx, pu.user, auth.MethodBiometric)
}

func (s *service) ListCredentials(ctx context.Context, actor contextutil.Actor) ([]CredentialResponse, error) {
	creds, err := s.repo.FindActiveByUser(ctx, actor.CompanyID, actor.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]CredentialResponse, 0, len(creds))
	for _, c := range creds {
		out = append(out, mapToResponse(c))
	}
	return out, nil
}

// RevokeCredential only lets users revoke their own passkeys.
func (s *service) RevokeCredential(ctx context.Context, actor contextutil.Actor, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return biometricerrors.ErrInvalidCredentialID
	}

	cred, err := s.repo.FindByID(ctx, actor.CompanyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return biometricerrors.ErrCredentialNotFound
		}
		return err
	}
	if cred.UserID.String() != actor.UserID || !cred.IsActive {
		return biometricerrors.ErrCredentialNotFound
	}

	if err := s.repo.Deactivate(ctx, actor.CompanyID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return biometricerrors.ErrCredentialNotFound
		}
		return err
	}

	s.audit.Log(ctx, audit.Entry{
		CompanyID:    actor.CompanyID,
		UserID:       actor.UserID,
		UserRole:     actor.Role,
		Action:       audit.ActionDeleted,
		EntityType:   audit.EntityBiometricCredential,
		EntityID:     id,
		TargetUserID: actor.UserID,
		OldData:      mapToResponse(*cred),
	})
	return nil
}

func mapToResponse(c Credential) CredentialResponse {
	return CredentialResponse{
		ID:         c.ID.String(),
		DeviceName: c.DeviceName,
		Transports: c.Transports,
		LastUsedAt: c.LastUsedAt,
		CreatedAt:  c.CreatedAt,
	}
}
