package request

import (
	"strconv"
	"strings"

	"performa/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
)

type ClientType string

const (
	ClientWeb    ClientType = "web"
	ClientMobile ClientType = "mobile"
	ClientAPI    ClientType = "api"
)

// ResolveClientType prefers the explicit X-Client-Type header and falls back
// to sniffing the user agent.
func ResolveClientType(header, userAgent string) ClientType {
	switch ClientType(strings.ToLower(strings.TrimSpace(header))) {
	case ClientWeb:
		return ClientWeb
	case ClientMobile:
		return ClientMobile
	case ClientAPI:
		return ClientAPI
	}

	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "mozilla"):
		return ClientWeb
	case strings.Contains(ua, "okhttp"), strings.Contains(ua, "cfnetwork"), strings.Contains(ua, "dart"):
		return ClientMobile
	default:
		return ClientAPI
	}
}

func IsWebClient(t ClientType) bool {
	return t == ClientWeb
}

// Actor reads the identity placed on the gin context by the auth middleware.
func Actor(c *gin.Context) contextutil.Actor {
	return contextutil.Actor{
		UserID:    c.GetString("user_id"),
		CompanyID: c.GetString("company_id"),
		Role:      c.GetString("role"),
	}
}

// Page parses page/limit query params with a default and an upper bound on limit.
func Page(c *gin.Context, defaultLimit, maxLimit int) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
