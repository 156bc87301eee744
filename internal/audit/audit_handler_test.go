package audit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"performa/internal/audit"
	auditerrors "performa/internal/audit/errors"
	"performa/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	QueryFn  func(ctx context.Context, companyID string, f audit.Filters, p audit.Pagination) (audit.QueryResult, error)
	ReportFn func(ctx context.Context, companyID string, start, end time.Time) (audit.Report, error)
	ExportFn func(ctx context.Context, actor contextutil.Actor, f audit.Filters) (audit.ExportFile, error)
}

func (f *fakeService) Log(ctx context.Context, entry audit.Entry) {}

func (f *fakeService) Query(ctx context.Context, companyID string, filters audit.Filters, p audit.Pagination) (audit.QueryResult, error) {
	return f.QueryFn(ctx, companyID, filters, p)
}

func (f *fakeService) GetEntityTrail(ctx context.Context, companyID, entityType, entityID string) ([]audit.LogResponse, error) {
	return []audit.LogResponse{{EntityType: entityType}}, nil
}

func (f *fakeService) GetUserActivity(ctx context.Context, companyID, userID string, days int) ([]audit.LogResponse, error) {
	if days > 365 {
		return nil, auditerrors.ErrInvalidDays
	}
	return []audit.LogResponse{}, nil
}

func (f *fakeService) GenerateReport(ctx context.Context, companyID string, start, end time.Time) (audit.Report, error) {
	return f.ReportFn(ctx, companyID, start, end)
}

func (f *fakeService) Export(ctx context.Context, actor contextutil.Actor, filters audit.Filters) (audit.ExportFile, error) {
	return f.ExportFn(ctx, actor, filters)
}

func newAuditRouter(svc audit.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := audit.NewHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "u-hr")
		c.Set("company_id", "c-1")
		c.Set("role", "hr")
		c.Next()
	})
	r.GET("/audit-logs", h.Query)
	r.GET("/audit-logs/users/:userId/activity", h.UserActivity)
	r.GET("/audit-logs/report", h.Report)
	r.GET("/audit-logs/export", h.Export)
	return r
}

func TestHandler_Query(t *testing.T) {
	var gotFilters audit.Filters
	var gotPage audit.Pagination
	svc := &fakeService{QueryFn: func(ctx context.Context, companyID string, f audit.Filters, p audit.Pagination) (audit.QueryResult, error) {
		assert.Equal(t, "c-1", companyID)
		gotFilters, gotPage = f, p
		return audit.QueryResult{Logs: []audit.LogResponse{{ID: "l-1"}}, Total: 11, Page: 2, Limit: 10, Pages: 2}, nil
	}}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/audit-logs?page=2&limit=10&action=updated&entityType=evaluation&startDate=2025-01-01&endDate=2025-01-31", nil)
	newAuditRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, audit.Pagination{Page: 2, Limit: 10}, gotPage)
	assert.Equal(t, "updated", gotFilters.Action)
	assert.Equal(t, "evaluation", gotFilters.EntityType)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *gotFilters.StartDate)
	assert.Equal(t, time.Date(2025, 1, 31, 23, 59, 59, 999999999, time.UTC), *gotFilters.EndDate)
	assert.Contains(t, w.Body.String(), `"pages":2`)
}

func TestHandler_Query_InvalidDate(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/audit-logs?startDate=yesterday", nil)
	newAuditRouter(&fakeService{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_UserActivity_InvalidDays(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/audit-logs/users/u-1/activity?days=900", nil)
	newAuditRouter(&fakeService{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Report_RequiresRange(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/audit-logs/report?startDate=2025-01-01", nil)
	newAuditRouter(&fakeService{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Export(t *testing.T) {
	svc := &fakeService{ExportFn: func(ctx context.Context, actor contextutil.Actor, f audit.Filters) (audit.ExportFile, error) {
		assert.Equal(t, "u-hr", actor.UserID)
		return audit.ExportFile{
			Filename:    "audit_logs_2025-03-14.xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Content:     []byte("xlsx"),
			Rows:        3,
		}, nil
	}}

	w := httptest.NewRecorder()
	newAuditRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit-logs/export", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="audit_logs_2025-03-14.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "3", w.Header().Get("X-Export-Rows"))
	assert.Equal(t, "xlsx", w.Body.String())
}
