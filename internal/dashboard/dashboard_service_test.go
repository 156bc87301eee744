package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"performa/internal/domain"
	"performa/internal/permission"
	"performa/internal/shared/contextutil"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 3, 3, 7, 30, 0, 0, time.UTC)

type fakeRepo struct {
	cycle    *CycleRow
	recent   []EvaluationRow
	members  []MemberRow
	latest   []EvaluationRow
	count    int64
	statuses []StatusCount
	depts    []DepartmentStatusCount
	calls    int
}

func (f *fakeRepo) ActiveCycle(context.Context, string) (*CycleRow, error) {
	f.calls++
	if f.cycle == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.cycle, nil
}

func (f *fakeRepo) RecentEvaluations(context.Context, string, string, int) ([]EvaluationRow, error) {
	return f.recent, nil
}

func (f *fakeRepo) TeamMembers(context.Context, string, string) ([]MemberRow, error) {
	return f.members, nil
}

func (f *fakeRepo) LatestEvaluations(context.Context, string, []string) ([]EvaluationRow, error) {
	return f.latest, nil
}

func (f *fakeRepo) CountEmployees(context.Context, string) (int64, error) { return f.count, nil }

func (f *fakeRepo) StatusCounts(context.Context, string) ([]StatusCount, error) {
	return f.statuses, nil
}

func (f *fakeRepo) DepartmentStatusCounts(context.Context, string) ([]DepartmentStatusCount, error) {
	return f.depts, nil
}

type fakePerms struct {
	permission.Service
	counts map[string]int64
}

func (f *fakePerms) CountEmployeeEvaluationItems(_ context.Context, _, employeeID string) (permission.ItemCounts, error) {
	n := f.counts[employeeID]
	return permission.ItemCounts{Individual: n, Total: n, Max: permission.MaxEvaluationItems}, nil
}

func newTestService(repo Repository, perms permission.Service, mockRedis bool) (*service, redismock.ClientMock) {
	var mock redismock.ClientMock
	svc := NewService(repo, perms, nil).(*service)
	if mockRedis {
		db, m := redismock.NewClientMock()
		svc.rdb, mock = db, m
	}
	svc.now = func() time.Time { return fixedNow }
	return svc, mock
}

func employeeActor() contextutil.Actor {
	return contextutil.Actor{UserID: uuid.NewString(), CompanyID: "c-1", Role: domain.RoleEmployee}
}

func TestGet_CacheHit(t *testing.T) {
	repo := &fakeRepo{}
	svc, mock := newTestService(repo, &fakePerms{}, true)
	actor := employeeActor()

	cached := Summary{Role: domain.RoleEmployee, GeneratedAt: "2025-03-03T07:00:00Z"}
	data, _ := json.Marshal(cached)
	mock.ExpectGet(CacheKey("c-1", domain.RoleEmployee, actor.UserID)).SetVal(string(data))

	got, err := svc.Get(context.Background(), actor)

	require.NoError(t, err)
	assert.Equal(t, cached, got)
	assert.Zero(t, repo.calls, "a cache hit does not touch the database")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_CacheMissFillsCache(t *testing.T) {
	actor := employeeActor()
	evalID := uuid.New()
	repo := &fakeRepo{
		recent: []EvaluationRow{{
			ID: evalID, PeriodType: domain.PeriodTypeQuarterly, PeriodDate: "2025-Q1",
			Status: domain.EvaluationStatusSubmitted, UpdatedAt: fixedNow.Add(-time.Hour),
		}},
	}
	perms := &fakePerms{counts: map[string]int64{actor.UserID: 7}}
	svc, mock := newTestService(repo, perms, true)
	key := CacheKey("c-1", domain.RoleEmployee, actor.UserID)

	want := Summary{
		Role: domain.RoleEmployee,
		Employee: &EmployeeSummary{
			Items: permission.ItemCounts{Individual: 7, Total: 7, Max: permission.MaxEvaluationItems},
			RecentEvaluations: []RecentEvaluation{{
				ID: evalID.String(), PeriodType: domain.PeriodTypeQuarterly, PeriodDate: "2025-Q1",
				Status: domain.EvaluationStatusSubmitted, UpdatedAt: "2025-03-03T06:30:00Z",
			}},
		},
		GeneratedAt: "2025-03-03T07:30:00Z",
	}
	data, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, string(data), CacheTTL).SetVal("OK")

	got, err := svc.Get(context.Background(), actor)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Nil(t, got.Team)
	assert.Nil(t, got.Company)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_RedisDownStillServes(t *testing.T) {
	actor := employeeActor()
	svc, mock := newTestService(&fakeRepo{}, &fakePerms{}, true)
	key := CacheKey("c-1", domain.RoleEmployee, actor.UserID)

	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	mock.Regexp().ExpectSet(key, `.*`, CacheTTL).SetErr(errors.New("connection refused"))

	got, err := svc.Get(context.Background(), actor)

	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, got.Role)
	require.NotNil(t, got.Employee)
	assert.Empty(t, got.Employee.RecentEvaluations)
}

func TestGet_ManagerTeam(t *testing.T) {
	manager := contextutil.Actor{UserID: uuid.NewString(), CompanyID: "c-1", Role: domain.RoleManager}
	a, b := uuid.New(), uuid.New()
	repo := &fakeRepo{
		cycle:   &CycleRow{ID: uuid.New(), Name: "2025 Q1", EndDate: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)},
		members: []MemberRow{{ID: a, Name: "Ani"}, {ID: b, Name: "Budi"}},
		latest:  []EvaluationRow{{EmployeeID: a, Status: domain.EvaluationStatusApproved}},
	}
	perms := &fakePerms{counts: map[string]int64{a.String(): 10, b.String(): 3}}
	svc, _ := newTestService(repo, perms, false)

	got, err := svc.Get(context.Background(), manager)

	require.NoError(t, err)
	require.NotNil(t, got.ActiveCycle)
	assert.Equal(t, "2025-03-31", got.ActiveCycle.EndDate)
	require.NotNil(t, got.Team)
	require.NotNil(t, got.Employee, "managers also see their own section")
	assert.Nil(t, got.Company)
	assert.Equal(t, map[string]int64{domain.EvaluationStatusApproved: 1, "not_started": 1}, got.Team.StatusCounts)
	require.Len(t, got.Team.Members, 2)
	assert.Equal(t, int64(10), got.Team.Members[0].ItemCount)
	assert.Equal(t, 10, got.Team.Members[0].ItemMax)
	assert.Equal(t, "", got.Team.Members[1].LatestStatus)
}

func TestGet_HRCompany(t *testing.T) {
	hr := contextutil.Actor{UserID: uuid.NewString(), CompanyID: "c-1", Role: domain.RoleHR}
	repo := &fakeRepo{
		count:    42,
		statuses: []StatusCount{{Status: "draft", Count: 3}, {Status: "submitted", Count: 9}},
		depts: []DepartmentStatusCount{
			{Department: "Engineering", Status: "draft", Count: 1},
			{Department: "Engineering", Status: "submitted", Count: 5},
			{Department: "Sales", Status: "draft", Count: 2},
		},
	}
	svc, _ := newTestService(repo, &fakePerms{}, false)

	got, err := svc.Get(context.Background(), hr)

	require.NoError(t, err)
	require.NotNil(t, got.Company)
	assert.Nil(t, got.Employee)
	assert.Equal(t, int64(42), got.Company.Employees)
	assert.Equal(t, int64(9), got.Company.StatusCounts["submitted"])
	assert.Equal(t, []DepartmentStatus{
		{Department: "Engineering", StatusCounts: map[string]int64{"draft": 1, "submitted": 5}},
		{Department: "Sales", StatusCounts: map[string]int64{"draft": 2}},
	}, got.Company.Departments)
}

func TestInvalidate_ScansCompanyKeys(t *testing.T) {
	svc, mock := newTestService(&fakeRepo{}, &fakePerms{}, true)
	pattern := "dashboard:c-1:*"

	mock.ExpectScan(0, pattern, 100).SetVal([]string{"dashboard:c-1:hr:u1", "dashboard:c-1:manager:u2"}, 7)
	mock.ExpectDel("dashboard:c-1:hr:u1", "dashboard:c-1:manager:u2").SetVal(2)
	mock.ExpectScan(7, pattern, 100).SetVal([]string{}, 0)

	require.NoError(t, svc.Invalidate(context.Background(), "c-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
