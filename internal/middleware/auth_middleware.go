package middleware

import (
	"errors"
	"fmt"
	"strings"

	autherrors "performa/internal/auth/errors"
	"performa/internal/shared/apperror"
	"performa/internal/shared/contextutil"
	"performa/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret []byte

// SetJWTSecret configures the key access tokens are verified with. It is
// called once at startup, before the router serves requests.
func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerOrCookie(c)
		if tokenString == "" {
			abortWith(c, autherrors.ErrUnauthorized.HTTPStatus, autherrors.ErrUnauthorized.Code, "Token not found")
			return
		}

		if err := authenticate(c, tokenString); err != nil {
			abortWith(c, err.HTTPStatus, err.Code, err.Message)
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware identifies the caller when a valid access token is
// present and lets the request through anonymously otherwise.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearerOrCookie(c); tokenString != "" {
			_ = authenticate(c, tokenString)
		}
		c.Next()
	}
}

func bearerOrCookie(c *gin.Context) string {
	tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !found {
		tokenString = ""
	}

	if tokenString == "" {
		if cookie, err := c.Cookie("access_token"); err == nil {
			tokenString = cookie
		}
	}
	return tokenString
}

func authenticate(c *gin.Context, tokenString string) *apperror.AppError {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		if len(jwtSecret) == 0 {
			return nil, fmt.Errorf("jwt secret is not configured")
		}
		return jwtSecret, nil
	})

	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return autherrors.ErrTokenExpired
		}
		return autherrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return autherrors.ErrInvalidToken.WithMessage("Invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return autherrors.ErrInvalidToken.WithMessage("User ID not found in token")
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return autherrors.ErrInvalidToken.WithMessage("Company ID not found in token")
	}

	role, _ := claims["role"].(string)
	if role == "" {
		return autherrors.ErrInvalidToken.WithMessage("Role not found in token")
	}

	// Refresh tokens carry typ=refresh and must not authenticate API calls.
	if typ, _ := claims["typ"].(string); typ == "refresh" {
		return autherrors.ErrInvalidToken.WithMessage("Refresh token cannot be used here")
	}

	sessionID, _ := claims["session_id"].(string)

	c.Set("user_id", userID)
	c.Set("company_id", companyID)
	c.Set("role", role)
	c.Set("session_id", sessionID)

	ctx := c.Request.Context()
	ctx = contextutil.WithUserID(ctx, userID)
	ctx = contextutil.WithActor(ctx, contextutil.Actor{UserID: userID, CompanyID: companyID, Role: role})
	ctx = contextutil.WithClientInfo(ctx, contextutil.ClientInfo{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		SessionID: sessionID,
	})
	c.Request = c.Request.WithContext(ctx)
	return nil
}

func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString("role")
		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}
		abortWith(c, autherrors.ErrForbidden.HTTPStatus, autherrors.ErrForbidden.Code, autherrors.ErrForbidden.Message)
	}
}

func abortWith(c *gin.Context, status int, code, message string) {
	response.Error(c, status, code, message, nil)
	c.Abort()
}
