package importer

import (
	"io"
	"net/http"
	"strings"

	importererrors "performa/internal/importer/errors"
	"performa/internal/shared/apperror"
	"performa/internal/shared/request"
	"performa/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxUploadBytes = 2 << 20

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("importer.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("importer.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("import request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// ImportUsers accepts either a multipart "file" field or a raw text/csv body.
func (h *Handler) ImportUsers(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	body, closeFn, err := csvBody(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	defer closeFn()

	result, err := h.service.ImportUsers(c.Request.Context(), request.Actor(c), c.Query("mode"), body)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Imported == 0 {
		status = http.StatusOK
	}
	response.Success(c, status, result, nil)
}

func csvBody(c *gin.Context) (io.Reader, func(), error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, nil, importererrors.ErrFileRequired
		}
		f, err := fh.Open()
		if err != nil {
			return nil, nil, importererrors.ErrFileRequired
		}
		return f, func() { f.Close() }, nil
	}
	if c.Request.ContentLength == 0 {
		return nil, nil, importererrors.ErrFileRequired
	}
	return c.Request.Body, func() {}, nil
}
