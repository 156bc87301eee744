package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(pingDB func(context.Context) error, setup func(redismock.ClientMock)) *httptest.ResponseRecorder {
		rdb, mock := redismock.NewClientMock()
		setup(mock)
		r := gin.New()
		r.GET("/healthz", healthz(pingDB, rdb))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		return w
	}

	t.Run("healthy", func(t *testing.T) {
		w := run(func(context.Context) error { return nil }, func(m redismock.ClientMock) {
			m.ExpectPing().SetVal("PONG")
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{"database":"ok","redis":"ok"}}`, w.Body.String())
	})

	t.Run("database down", func(t *testing.T) {
		w := run(func(context.Context) error { return errors.New("connection refused") }, func(m redismock.ClientMock) {
			m.ExpectPing().SetVal("PONG")
		})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "connection refused")
	})

	t.Run("redis down", func(t *testing.T) {
		w := run(func(context.Context) error { return nil }, func(m redismock.ClientMock) {
			m.ExpectPing().SetErr(errors.New("i/o timeout"))
		})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
