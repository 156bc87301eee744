package rbac

import (
	"net/http"
	"strings"

	"performa/internal/domain"
	"performa/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("rbac.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.handler")
	}
	return &Handler{service: service, logger: l}
}

// Check answers whether the caller's role may perform an action, so clients
// can hide controls they cannot use.
func (h *Handler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "resource and action are required", err.Error())
		return
	}

	allowed, err := h.service.Enforce(domain.EnforceRequest{
		Role:     c.GetString("role"),
		Resource: strings.TrimSpace(req.Resource),
		Action:   strings.TrimSpace(req.Action),
	})
	if err != nil {
		h.logger.Error("rbac check failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "authorization check failed", nil)
		return
	}

	response.Success(c, http.StatusOK, domain.EnforceResponse{Allowed: allowed}, nil)
}

func (h *Handler) Permissions(c *gin.Context) {
	role := c.GetString("role")
	perms, err := h.service.PermissionsForRole(role)
	if err != nil {
		h.logger.Error("rbac permissions failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list permissions", nil)
		return
	}

	response.Success(c, http.StatusOK, PermissionsResponse{Role: role, Permissions: perms}, nil)
}
