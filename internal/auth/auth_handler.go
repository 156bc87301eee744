package auth

import (
	"net/http"

	"performa/internal/shared/apperror"
	"performa/internal/shared/contextutil"
	"performa/internal/shared/request"
	"performa/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service       Service
	secureCookies bool
	logger        *zap.Logger
}

func NewHandler(s Service, secureCookies bool, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("auth.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.handler")
	}
	return &Handler{service: s, secureCookies: secureCookies, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("auth request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// WithClientInfo exposes caller details to the audit trail on routes that run
// before authentication.
func WithClientInfo(c *gin.Context) {
	ctx := contextutil.WithClientInfo(c.Request.Context(), contextutil.ClientInfo{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	c.Request = c.Request.WithContext(ctx)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	WithClientInfo(c)
	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.WriteSession(c, result)
}

// WriteSession sets auth cookies for browser clients and returns the tokens
// in the body for every client.
func (h *Handler) WriteSession(c *gin.Context, result LoginResult) {
	clientType := request.ResolveClientType(c.GetHeader("X-Client-Type"), c.GetHeader("User-Agent"))
	if request.IsWebClient(clientType) {
		h.setCookie(c, "access_token", result.AccessToken, int(AccessTokenTTL.Seconds()))
		h.setCookie(c, "refresh_token", result.RefreshToken, int(RefreshTokenTTL.Seconds()))
	}

	response.Success(c, http.StatusOK, result, nil)
}

func (h *Handler) setCookie(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	clientType := request.ResolveClientType(c.GetHeader("X-Client-Type"), c.GetHeader("User-Agent"))

	var refreshToken string
	if request.IsWebClient(clientType) {
		cookie, err := c.Cookie("refresh_token")
		if err != nil || cookie == "" {
			response.Error(c, http.StatusUnauthorized, "NO_REFRESH_TOKEN", "Missing refresh token", nil)
			return
		}
		refreshToken = cookie
	} else {
		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}
		refreshToken = req.RefreshToken
	}

	result, err := h.service.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.WriteSession(c, result)
}

func (h *Handler) Me(c *gin.Context) {
	resp, err := h.service.Me(c.Request.Context(), request.Actor(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Logout(c *gin.Context) {
	h.service.Logout(c.Request.Context(), request.Actor(c))

	h.setCookie(c, "access_token", "", -1)
	h.setCookie(c, "refresh_token", "", -1)

	response.Success(c, http.StatusOK, gin.H{"message": "Logout success."}, nil)
}
