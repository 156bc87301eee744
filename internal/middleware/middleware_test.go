package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"performa/internal/domain"
	"performa/internal/middleware"
	"performa/internal/shared/contextutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"user_id":    "user-1",
		"company_id": "company-1",
		"role":       domain.RoleManager,
		"session_id": "session-1",
		"exp":        time.Now().Add(time.Minute).Unix(),
	}
}

func TestAuthMiddleware_VerifiesWithConfiguredSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	middleware.SetJWTSecret(testSecret)
	t.Setenv("JWT_SECRET", "rotated-in-env")

	router := gin.New()
	router.GET("/protected", middleware.AuthMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	envSigned, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("rotated-in-env"))
	require.NoError(t, err)

	for _, tc := range []struct {
		name  string
		token string
		want  int
	}{
		{"configured secret", signToken(t, validClaims()), http.StatusNoContent},
		{"environment secret", envSigned, http.StatusUnauthorized},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	middleware.SetJWTSecret(testSecret)

	router := gin.New()
	router.GET("/protected", middleware.AuthMiddleware(), func(c *gin.Context) {
		actor, _ := contextutil.GetActor(c.Request.Context())
		info, _ := contextutil.GetClientInfo(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"user":    c.GetString("user_id"),
			"role":    actor.Role,
			"company": actor.CompanyID,
			"session": info.SessionID,
		})
	})

	t.Run("valid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims()))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"role":"manager"`)
		assert.Contains(t, w.Body.String(), `"session":"session-1"`)
	})

	t.Run("cookie token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: signToken(t, validClaims())})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Minute).Unix()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		claims := validClaims()
		claims["typ"] = "refresh"
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing role", func(t *testing.T) {
		claims := validClaims()
		delete(claims, "role")
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

type fakeRBAC struct {
	allowed bool
}

func (f fakeRBAC) Enforce(req domain.EnforceRequest) (bool, error) {
	return f.allowed, nil
}

func TestRBACAuthorize(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(allowed bool, role string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if role != "" {
				c.Set("role", role)
				c.Set("company_id", "company-1")
			}
			c.Next()
		})
		r.GET("/cycles", middleware.RBACAuthorize(fakeRBAC{allowed: allowed}, "cycle", "read"), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return r
	}

	tests := []struct {
		name   string
		allow  bool
		role   string
		status int
	}{
		{"allowed", true, domain.RoleEmployee, http.StatusNoContent},
		{"denied", false, domain.RoleEmployee, http.StatusForbidden},
		{"no auth context", true, "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newRouter(tt.allow, tt.role).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cycles", nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("role", c.GetHeader("X-Role"))
		c.Next()
	})
	r.GET("/hr", middleware.RoleMiddleware(domain.RoleHR), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/hr", nil)
	req.Header.Set("X-Role", domain.RoleHR)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/hr", nil)
	req.Header.Set("X-Role", domain.RoleManager)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestIdempotency(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	calls := 0
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Next()
	})
	r.POST("/imports", middleware.Idempotency(rdb, time.Hour), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"calls": calls})
	})

	send := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/imports", strings.NewReader("{}"))
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := send("abc")
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.JSONEq(t, `{"calls":1}`, first.Body.String())

	replay := send("abc")
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.JSONEq(t, `{"calls":1}`, replay.Body.String())
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 1, calls)

	other := send("def")
	assert.JSONEq(t, `{"calls":2}`, other.Body.String())

	send("")
	assert.Equal(t, 3, calls)

	t.Run("in-flight duplicate", func(t *testing.T) {
		mr.Set("idemp:/imports:user-1:locked:lock", "locked")
		w := send("locked")
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestRateLimitByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/login", middleware.RateLimitByIP(0.001, 2), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, contextutil.GetRequestID(c.Request.Context()))
	})

	t.Run("propagates caller id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-123")
		r.ServeHTTP(w, req)
		assert.Equal(t, "req-123", w.Body.String())
		assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("x", 65))
		r.ServeHTTP(w, req)
		_, err := uuid.Parse(w.Body.String())
		assert.NoError(t, err)
	})
}
