package rbac

import (
	"sync"

	"performa/internal/domain"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	Enforce(req domain.EnforceRequest) (bool, error)
	PermissionsForRole(role string) ([]Permission, error)
}

type service struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   *zap.Logger
}

func NewService(enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{enforcer: enforcer, logger: l}
}

func (s *service) Enforce(req domain.EnforceRequest) (bool, error) {
	if !domain.IsValidRole(req.Role) {
		return false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(req.Role, req.Resource, req.Action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("role", req.Role),
			zap.String("resource", req.Resource),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce result",
		zap.String("role", req.Role),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}

func (s *service) PermissionsForRole(role string) ([]Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policies, err := s.enforcer.GetFilteredPolicy(0, role)
	if err != nil {
		return nil, err
	}

	out := make([]Permission, 0, len(policies))
	for _, p := range policies {
		if len(p) < 3 {
			continue
		}
		out = append(out, Permission{Resource: p[1], Action: p[2]})
	}
	return out, nil
}
