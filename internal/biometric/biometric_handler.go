package biometric

import (
	"net/http"

	"performa/internal/auth"
	"performa/internal/shared/apperror"
	"performa/internal/shared/request"
	"performa/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	session *auth.Handler
	logger  *zap.Logger
}

// NewHandler reuses the auth handler to hand out tokens after a passkey
// login, so cookies behave exactly like password login.
func NewHandler(service Service, session *auth.Handler, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("biometric.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("biometric.handler")
	}
	return &Handler{service: service, session: session, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("biometric request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) RegisterBegin(c *gin.Context) {
	options, err := h.service.RegisterBegin(c.Request.Context(), request.Actor(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, options, nil)
}

// RegisterFinish expects the raw attestation JSON from navigator.credentials.create
// as the request body.
func (h *Handler) RegisterFinish(c *gin.Context) {
	resp, err := h.service.RegisterFinish(c.Request.Context(), request.Actor(c), c.Query("deviceName"), c.Request)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) LoginBegin(c *gin.Context) {
	var req LoginBeginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.LoginBegin(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

// LoginFinish expects the raw assertion JSON as the body and the sessionId
// returned by LoginBegin as a query parameter.
func (h *Handler) LoginFinish(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		h.writeServiceError(c, apperror.RequiredField("sessionId"))
		return
	}

	auth.WithClientInfo(c)
	result, err := h.service.LoginFinish(c.Request.Context(), sessionID, c.Request)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	h.session.WriteSession(c, result)
}

func (h *Handler) ListCredentials(c *gin.Context) {
	creds, err := h.service.ListCredentials(c.Request.Context(), request.Actor(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, creds, nil)
}

func (h *Handler) RevokeCredential(c *gin.Context) {
	if err := h.service.RevokeCredential(c.Request.Context(), request.Actor(c), c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": c.Param("id")}, nil)
}
