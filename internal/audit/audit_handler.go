package audit

import (
	"net/http"
	"strconv"
	"time"

	auditerrors "performa/internal/audit/errors"
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
	l := zap.L().Named("audit.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("audit request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// parseDate accepts YYYY-MM-DD or RFC3339. A bare end date covers the whole day.
func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, auditerrors.ErrInvalidDate
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func bindFilters(c *gin.Context) (Filters, error) {
	var f Filters
	if err := c.ShouldBindQuery(&f); err != nil {
		return Filters{}, apperror.ErrInvalidInput
	}
	var err error
	if f.StartDate, err = parseDate(c.Query("startDate"), false); err != nil {
		return Filters{}, err
	}
	if f.EndDate, err = parseDate(c.Query("endDate"), true); err != nil {
		return Filters{}, err
	}
	return f, nil
}

func (h *Handler) Query(c *gin.Context) {
	actor := request.Actor(c)

	f, err := bindFilters(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	page, limit := request.Page(c, defaultPageLimit, maxPageLimit)

	result, err := h.service.Query(c.Request.Context(), actor.CompanyID, f, Pagination{Page: page, Limit: limit})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	meta := response.NewPaginationMeta(result.Total, result.Page, result.Limit)
	response.Success(c, http.StatusOK, result.Logs, &meta)
}

func (h *Handler) EntityTrail(c *gin.Context) {
	actor := request.Actor(c)

	logs, err := h.service.GetEntityTrail(c.Request.Context(), actor.CompanyID, c.Param("entityType"), c.Param("entityId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, logs, nil)
}

func (h *Handler) UserActivity(c *gin.Context) {
	actor := request.Actor(c)

	days := 0
	if raw := c.Query("days"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			h.writeServiceError(c, auditerrors.ErrInvalidDays)
			return
		}
		days = d
	}

	logs, err := h.service.GetUserActivity(c.Request.Context(), actor.CompanyID, c.Param("userId"), days)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, logs, nil)
}

func (h *Handler) Report(c *gin.Context) {
	actor := request.Actor(c)

	start, err := parseDate(c.Query("startDate"), false)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	end, err := parseDate(c.Query("endDate"), true)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if start == nil || end == nil {
		h.writeServiceError(c, apperror.RequiredField("startDate and endDate"))
		return
	}

	report, err := h.service.GenerateReport(c.Request.Context(), actor.CompanyID, *start, *end)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report, nil)
}

func (h *Handler) Export(c *gin.Context) {
	actor := request.Actor(c)

	f, err := bindFilters(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	file, err := h.service.Export(c.Request.Context(), actor, f)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Header("X-Export-Rows", strconv.Itoa(file.Rows))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
