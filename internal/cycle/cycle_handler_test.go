package cycle_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"performa/internal/cycle"
	cycleerrors "performa/internal/cycle/errors"
	"performa/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	cycle.Service

	CreateFn       func(ctx context.Context, actor contextutil.Actor, req cycle.CreateCycleRequest) (cycle.CycleResponse, error)
	GetActiveFn    func(ctx context.Context, companyID string) (cycle.CycleResponse, error)
	UpdateStatusFn func(ctx context.Context, actor contextutil.Actor, id string, req cycle.UpdateStatusRequest) (cycle.CycleResponse, error)
	DeleteFn       func(ctx context.Context, actor contextutil.Actor, id string) error
}

func (f *fakeService) Create(ctx context.Context, actor contextutil.Actor, req cycle.CreateCycleRequest) (cycle.CycleResponse, error) {
	return f.CreateFn(ctx, actor, req)
}

func (f *fakeService) GetActive(ctx context.Context, companyID string) (cycle.CycleResponse, error) {
	return f.GetActiveFn(ctx, companyID)
}

func (f *fakeService) UpdateStatus(ctx context.Context, actor contextutil.Actor, id string, req cycle.UpdateStatusRequest) (cycle.CycleResponse, error) {
	return f.UpdateStatusFn(ctx, actor, id, req)
}

func (f *fakeService) Delete(ctx context.Context, actor contextutil.Actor, id string) error {
	return f.DeleteFn(ctx, actor, id)
}

func newCycleRouter(svc cycle.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := cycle.NewHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "u-hr")
		c.Set("company_id", "c-1")
		c.Set("role", "hr")
		c.Next()
	})
	r.POST("/cycles", h.Create)
	r.GET("/cycles/active", h.GetActive)
	r.PATCH("/cycles/:id/status", h.UpdateStatus)
	r.DELETE("/cycles/:id", h.Delete)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Create(t *testing.T) {
	t.Run("missing dates", func(t *testing.T) {
		w := doJSON(newCycleRouter(&fakeService{}), http.MethodPost, "/cycles", `{"name":"2025 Q1"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"INVALID_INPUT"`)
	})

	t.Run("active cycle conflict", func(t *testing.T) {
		svc := &fakeService{CreateFn: func(ctx context.Context, actor contextutil.Actor, req cycle.CreateCycleRequest) (cycle.CycleResponse, error) {
			return cycle.CycleResponse{}, cycleerrors.ErrActiveCycleExists
		}}
		w := doJSON(newCycleRouter(svc), http.MethodPost, "/cycles", `{"name":"2025 Q2","startDate":"2025-04-01","endDate":"2025-06-30"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"CONFLICT"`)
	})

	t.Run("created", func(t *testing.T) {
		svc := &fakeService{CreateFn: func(ctx context.Context, actor contextutil.Actor, req cycle.CreateCycleRequest) (cycle.CycleResponse, error) {
			assert.Equal(t, "u-hr", actor.UserID)
			return cycle.CycleResponse{ID: "cy-1", Name: req.Name, Status: "active"}, nil
		}}
		w := doJSON(newCycleRouter(svc), http.MethodPost, "/cycles", `{"name":"2025 Q2","startDate":"2025-04-01","endDate":"2025-06-30"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"id":"cy-1"`)
	})
}

func TestHandler_GetActive_None(t *testing.T) {
	svc := &fakeService{GetActiveFn: func(ctx context.Context, companyID string) (cycle.CycleResponse, error) {
		return cycle.CycleResponse{}, cycleerrors.ErrNoActiveCycle
	}}
	w := doJSON(newCycleRouter(svc), http.MethodGet, "/cycles/active", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_UpdateStatus(t *testing.T) {
	t.Run("unknown status rejected by binding", func(t *testing.T) {
		w := doJSON(newCycleRouter(&fakeService{}), http.MethodPatch, "/cycles/cy-1/status", `{"status":"paused"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid transition", func(t *testing.T) {
		svc := &fakeService{UpdateStatusFn: func(ctx context.Context, actor contextutil.Actor, id string, req cycle.UpdateStatusRequest) (cycle.CycleResponse, error) {
			assert.Equal(t, "cy-1", id)
			return cycle.CycleResponse{}, cycleerrors.ErrInvalidTransition
		}}
		w := doJSON(newCycleRouter(svc), http.MethodPatch, "/cycles/cy-1/status", `{"status":"archived"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"INVALID_STATE"`)
	})
}

func TestHandler_Delete(t *testing.T) {
	svc := &fakeService{DeleteFn: func(ctx context.Context, actor contextutil.Actor, id string) error { return nil }}
	w := doJSON(newCycleRouter(svc), http.MethodDelete, "/cycles/cy-9", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"cy-9"`)
}
