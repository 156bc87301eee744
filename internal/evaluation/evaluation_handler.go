package evaluation

import (
	"fmt"
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
	l := zap.L().Named("evaluation.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("evaluation.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("evaluation request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Save(c *gin.Context) {
	var req SaveEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Save(c.Request.Context(), request.Actor(c), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	var f ListEvaluationsFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}
	f.Page, f.Limit = request.Page(c, 20, 100)

	rows, total, err := h.service.GetAll(c.Request.Context(), request.Actor(c), f)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	meta := response.NewPaginationMeta(total, f.Page, f.Limit)
	response.Success(c, http.StatusOK, rows, &meta)
}

func (h *Handler) GetByID(c *gin.Context) {
	resp, err := h.service.GetByID(c.Request.Context(), request.Actor(c), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	var req ApproveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}
	}

	resp, err := h.service.Approve(c.Request.Context(), request.Actor(c), c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Complete(c *gin.Context) {
	resp, err := h.service.Complete(c.Request.Context(), request.Actor(c), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ExportPDF(c *gin.Context) {
	body, filename, err := h.service.ExportPDF(c.Request.Context(), request.Actor(c), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", body)
}

func (h *Handler) ImproveText(c *gin.Context) {
	var req ImproveTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.ImproveText(c.Request.Context(), request.Actor(c), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
