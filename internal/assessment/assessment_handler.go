package assessment

import (
	"net/http"

	"performa/internal/shared/apperror"
	"performa/internal/shared/request"
	"performa/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("assessment.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("assessment.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("assessment request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Create(c.Request.Context(), request.Actor(c), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetActive(c *gin.Context) {
	var f ActiveFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	rows, err := h.service.GetActiveForEmployee(c.Request.Context(), request.Actor(c), f)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, rows, nil)
}

func (h *Handler) GetHistory(c *gin.Context) {
	var f HistoryFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	rows, err := h.service.GetHistory(c.Request.Context(), request.Actor(c), f)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, rows, nil)
}
