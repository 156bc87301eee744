package evaluation

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"performa/internal/audit"
	auditMock "performa/internal/audit/mock"
	"performa/internal/domain"
	evaluationerrors "performa/internal/evaluation/errors"
	"performa/internal/events"
	"performa/internal/llm"
	"performa/internal/messaging/kafka"
	"performa/internal/permission"
	permissionerrors "performa/internal/permission/errors"
	"performa/internal/shared/apperror"
	"performa/internal/shared/contextutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

var (
	companyID = uuid.New()
	fixedNow  = time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC)
)

type fakeRepo struct {
	evaluations map[uuid.UUID]*Evaluation
	cycles      map[string]*CycleRef
	items       map[string]ItemRef
	people      map[string]Person
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		evaluations: map[uuid.UUID]*Evaluation{},
		cycles:      map[string]*CycleRef{},
		items:       map[string]ItemRef{},
		people:      map[string]Person{},
	}
}

func (f *fakeRepo) WithTx(*sql.Tx) Repository { return f }

func (f *fakeRepo) Create(_ context.Context, e *Evaluation) error {
	e.CreatedAt, e.UpdatedAt = fixedNow, fixedNow
	cp := *e
	f.evaluations[e.ID] = &cp
	return nil
}

func (f *fakeRepo) Update(_ context.Context, e *Evaluation) error {
	cp := *e
	f.evaluations[e.ID] = &cp
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, _, id string) (*Evaluation, error) {
	for _, e := range f.evaluations {
		if e.ID.String() == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindByKeyForUpdate(_ context.Context, _, employeeID, periodType, periodDate string) (*Evaluation, error) {
	for _, e := range f.evaluations {
		if e.EmployeeID.String() == employeeID && e.PeriodType == periodType && e.PeriodDate == periodDate {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindAll(context.Context, string, Visibility, ListEvaluationsFilter) ([]Evaluation, int64, error) {
	var out []Evaluation
	for _, e := range f.evaluations {
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) FindCycle(_ context.Context, _, id string) (*CycleRef, error) {
	c, ok := f.cycles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeRepo) FindItems(_ context.Context, _ string, ids []string) ([]ItemRef, error) {
	var out []ItemRef
	for _, id := range ids {
		if it, ok := f.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindPeople(_ context.Context, _ string, ids []string) ([]Person, error) {
	var out []Person
	for _, id := range ids {
		if p, ok := f.people[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakePermRepo drives the real permission rules.
type fakePermRepo struct {
	cycles    map[string]*permission.Cycle
	employees map[string]*permission.Employee
}

func (f *fakePermRepo) WithTx(*sql.Tx) permission.Repository { return f }

func (f *fakePermRepo) FindCycle(_ context.Context, _, id string) (*permission.Cycle, error) {
	c, ok := f.cycles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakePermRepo) FindEmployee(_ context.Context, _, id string) (*permission.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (f *fakePermRepo) FindEmployees(context.Context, string, []string) ([]permission.Employee, error) {
	return nil, nil
}
func (f *fakePermRepo) ActiveEmployees(context.Context, string) ([]permission.Employee, error) {
	return nil, nil
}
func (f *fakePermRepo) EmployeesInDepartment(context.Context, string, string) ([]permission.Employee, error) {
	return nil, nil
}
func (f *fakePermRepo) EmployeesOfManager(context.Context, string, string) ([]permission.Employee, error) {
	return nil, nil
}
func (f *fakePermRepo) CountCompanyItems(context.Context, string) (int64, error) { return 0, nil }
func (f *fakePermRepo) CountDepartmentItems(context.Context, string, string) (int64, error) {
	return 0, nil
}
func (f *fakePermRepo) CountManagerItems(context.Context, string, string) (int64, error) {
	return 0, nil
}
func (f *fakePermRepo) CountIndividualAssignments(context.Context, string, string) (int64, error) {
	return 0, nil
}

type fakeOutbox struct {
	events []kafka.OutboxEvent
}

func (f *fakeOutbox) WithTx(*sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutbox) Create(_ context.Context, e kafka.OutboxEvent) error {
	f.events = append(f.events, e)
	return nil
}
func (f *fakeOutbox) ListPending(context.Context, int) ([]kafka.OutboxEvent, error) { return nil, nil }
func (f *fakeOutbox) MarkSent(context.Context, string) error                        { return nil }
func (f *fakeOutbox) MarkFailed(context.Context, string, string) error              { return nil }

type fakeImprover struct {
	improveFn func(ctx context.Context, text, fieldContext string) (string, error)
}

func (f *fakeImprover) Improve(ctx context.Context, text, fieldContext string) (string, error) {
	return f.improveFn(ctx, text, fieldContext)
}

type fixture struct {
	sqlMock  sqlmock.Sqlmock
	audit    *auditMock.MockLogger
	repo     *fakeRepo
	outbox   *fakeOutbox
	improver *fakeImprover
	service  *service

	cycle    *permission.Cycle
	manager  *permission.Employee
	employee *permission.Employee
	item     ItemRef
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctrl := gomock.NewController(t)
	auditLogger := auditMock.NewMockLogger(ctrl)

	manager := &permission.Employee{ID: uuid.New(), Name: "Maya", Role: domain.RoleManager}
	employee := &permission.Employee{ID: uuid.New(), Name: "Rudi Hartono", Role: domain.RoleEmployee, ManagerID: &manager.ID}
	cycle := &permission.Cycle{ID: uuid.New(), Name: "2025 Q1", Status: domain.CycleStatusActive}
	permRepo := &fakePermRepo{
		cycles:    map[string]*permission.Cycle{cycle.ID.String(): cycle},
		employees: map[string]*permission.Employee{manager.ID.String(): manager, employee.ID.String(): employee},
	}

	repo := newFakeRepo()
	repo.cycles[cycle.ID.String()] = &CycleRef{ID: cycle.ID, Name: cycle.Name}
	item := ItemRef{ID: uuid.New(), Title: "Ship the billing revamp", Type: domain.ItemTypeOKR, Active: true}
	repo.items[item.ID.String()] = item
	repo.people[employee.ID.String()] = Person{ID: employee.ID, Name: employee.Name}
	repo.people[manager.ID.String()] = Person{ID: manager.ID, Name: manager.Name}

	outbox := &fakeOutbox{}
	improver := &fakeImprover{}

	svc := NewService(db, repo, permission.NewService(permRepo), outbox, improver, auditLogger).(*service)
	svc.now = func() time.Time { return fixedNow }

	return &fixture{
		sqlMock: mock, audit: auditLogger, repo: repo, outbox: outbox, improver: improver, service: svc,
		cycle: cycle, manager: manager, employee: employee, item: item,
	}
}

func (f *fixture) managerActor() contextutil.Actor {
	return contextutil.Actor{UserID: f.manager.ID.String(), CompanyID: companyID.String(), Role: domain.RoleManager}
}

func hrActor() contextutil.Actor {
	return contextutil.Actor{UserID: uuid.NewString(), CompanyID: companyID.String(), Role: domain.RoleHR}
}

func (f *fixture) saveRequest(autoSave bool) SaveEvaluationRequest {
	return SaveEvaluationRequest{
		EmployeeID: f.employee.ID.String(),
		CycleID:    f.cycle.ID.String(),
		Items:      []ItemRating{{ItemID: f.item.ID.String(), Rating: intPtr(4), Comment: strPtr("Delivered ahead of plan")}},
		IsAutoSave: autoSave,
	}
}

func expectTx(mock sqlmock.Sqlmock, commit bool) {
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

func TestDerivePeriod(t *testing.T) {
	tests := []struct {
		name     string
		cycle    *CycleRef
		wantType string
		wantDate string
	}{
		{"explicit fields win", &CycleRef{Name: "2025 Q1", PeriodType: strPtr("annual"), PeriodDate: strPtr("2024")}, domain.PeriodTypeAnnual, "2024"},
		{"invalid explicit fields are ignored", &CycleRef{Name: "2025 Q3", PeriodType: strPtr("annual"), PeriodDate: strPtr("2025-Q3")}, domain.PeriodTypeQuarterly, "2025-Q3"},
		{"short quarter", &CycleRef{Name: "2025 Q1"}, domain.PeriodTypeQuarterly, "2025-Q1"},
		{"spelled quarter", &CycleRef{Name: "Quarter 2 Review 2024"}, domain.PeriodTypeQuarterly, "2024-Q2"},
		{"ordinal quarter", &CycleRef{Name: "3rd quarter 2025"}, domain.PeriodTypeQuarterly, "2025-Q3"},
		{"quarter without year uses now", &CycleRef{Name: "Q4 check-in"}, domain.PeriodTypeQuarterly, "2025-Q4"},
		{"annual", &CycleRef{Name: "Annual Review 2024"}, domain.PeriodTypeAnnual, "2024"},
		{"yearly", &CycleRef{Name: "Yearly 2023"}, domain.PeriodTypeAnnual, "2023"},
		{"nothing recognised", &CycleRef{Name: "Mid cycle"}, domain.PeriodTypeQuarterly, "2025-Q1"},
		{"no cycle", nil, domain.PeriodTypeQuarterly, "2025-Q1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotDate := DerivePeriod(tt.cycle, fixedNow)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantDate, gotDate)
		})
	}
}

func TestSave_ManualSaveCreatesSubmitted(t *testing.T) {
	f := setup(t)
	expectTx(f.sqlMock, true)
	f.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e audit.Entry) {
		assert.Equal(t, audit.ActionCreated, e.Action)
		assert.Equal(t, audit.EntityEvaluation, e.EntityType)
		assert.Equal(t, f.employee.ID.String(), e.TargetUserID)
		assert.Equal(t, false, e.Metadata["isAutoSave"])
		assert.Nil(t, e.OldData)
	})

	resp, err := f.service.Save(context.Background(), f.managerActor(), f.saveRequest(false))

	require.NoError(t, err)
	assert.Equal(t, domain.EvaluationStatusSubmitted, resp.Status)
	assert.Equal(t, domain.PeriodTypeQuarterly, resp.PeriodType)
	assert.Equal(t, "2025-Q1", resp.PeriodDate)
	require.NotNil(t, resp.SubmittedAt)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Ship the billing revamp", resp.Items[0].Title)
	assert.Equal(t, 4, *resp.Items[0].Rating)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, events.EvaluationLifecycleTopic, f.outbox.events[0].Topic)
	var payload events.EvaluationSavedEvent
	require.NoError(t, json.Unmarshal(f.outbox.events[0].Payload, &payload))
	assert.Equal(t, events.EventEvaluationSaved, payload.EventType)
	assert.Equal(t, domain.EvaluationStatusSubmitted, payload.Status)
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestSave_AutoSaveNeverAdvancesStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Times(3)

	expectTx(f.sqlMock, true)
	draft, err := f.service.Save(ctx, f.managerActor(), f.saveRequest(true))
	require.NoError(t, err)
	assert.Equal(t, domain.EvaluationStatusDraft, draft.Status)
	assert.Nil(t, draft.SubmittedAt)

	expectTx(f.sqlMock, true)
	submitted, err := f.service.Save(ctx, f.managerActor(), f.saveRequest(false))
	require.NoError(t, err)
	assert.Equal(t, draft.ID, submitted.ID, "same employee and period upserts one row")
	assert.Equal(t, domain.EvaluationStatusSubmitted, submitted.Status)

	req := f.saveRequest(true)
	req.OverallComment = strPtr("Strong quarter overall")
	expectTx(f.sqlMock, true)
	again, err := f.service.Save(ctx, f.managerActor(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.EvaluationStatusSubmitted, again.Status, "auto-save keeps submitted")
	assert.Equal(t, "Strong quarter overall", *again.OverallComment)
	assert.Len(t, f.repo.evaluations, 1)
	assert.Len(t, f.outbox.events, 3)
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestSave_CompletedIsLocked(t *testing.T) {
	f := setup(t)
	id := uuid.New()
	f.repo.evaluations[id] = &Evaluation{
		ID: id, CompanyID: companyID, EmployeeID: f.employee.ID, EvaluatorID: f.manager.ID,
		PeriodType: domain.PeriodTypeQuarterly, PeriodDate: "2025-Q1", Status: domain.EvaluationStatusCompleted,
	}
	expectTx(f.sqlMock, false)

	_, err := f.service.Save(context.Background(), f.managerActor(), f.saveRequest(true))

	assert.ErrorIs(t, err, evaluationerrors.ErrEvaluationLocked)
	assert.Empty(t, f.outbox.events)
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestSave_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("employee role", func(t *testing.T) {
		f := setup(t)
		actor := contextutil.Actor{UserID: f.employee.ID.String(), CompanyID: companyID.String(), Role: domain.RoleEmployee}
		_, err := f.service.Save(ctx, actor, f.saveRequest(false))
		assert.ErrorIs(t, err, permissionerrors.ErrRoleNotAllowed)
	})

	t.Run("closed cycle", func(t *testing.T) {
		f := setup(t)
		f.cycle.Status = domain.CycleStatusClosed
		_, err := f.service.Save(ctx, f.managerActor(), f.saveRequest(false))
		assert.ErrorIs(t, err, permissionerrors.ErrCycleNotActive)
	})

	t.Run("someone else's report", func(t *testing.T) {
		f := setup(t)
		other := contextutil.Actor{UserID: uuid.NewString(), CompanyID: companyID.String(), Role: domain.RoleManager}
		_, err := f.service.Save(ctx, other, f.saveRequest(false))
		assert.ErrorIs(t, err, permissionerrors.ErrNotYourTeam)
	})

	t.Run("duplicate item", func(t *testing.T) {
		f := setup(t)
		req := f.saveRequest(false)
		req.Items = append(req.Items, ItemRating{ItemID: f.item.ID.String()})
		_, err := f.service.Save(ctx, f.managerActor(), req)
		assert.ErrorIs(t, err, evaluationerrors.ErrDuplicateItem)
	})

	t.Run("unknown item", func(t *testing.T) {
		f := setup(t)
		req := f.saveRequest(false)
		req.Items = []ItemRating{{ItemID: uuid.NewString()}}
		_, err := f.service.Save(ctx, f.managerActor(), req)
		assert.ErrorIs(t, err, evaluationerrors.ErrUnknownItem)
	})

	t.Run("half an explicit period", func(t *testing.T) {
		f := setup(t)
		req := f.saveRequest(false)
		req.PeriodType = strPtr(domain.PeriodTypeAnnual)
		_, err := f.service.Save(ctx, f.managerActor(), req)
		assert.ErrorIs(t, err, evaluationerrors.ErrInvalidPeriod)
	})

	t.Run("rating out of range", func(t *testing.T) {
		f := setup(t)
		req := f.saveRequest(false)
		req.OverallRating = intPtr(6)
		_, err := f.service.Save(ctx, f.managerActor(), req)
		assert.ErrorIs(t, err, evaluationerrors.ErrInvalidRating)
	})
}

func TestSave_ItemDeadline(t *testing.T) {
	past := fixedNow.Add(-48 * time.Hour)

	t.Run("manager is blocked after the deadline", func(t *testing.T) {
		f := setup(t)
		f.item.EvaluationDeadline = &past
		f.repo.items[f.item.ID.String()] = f.item

		_, err := f.service.Save(context.Background(), f.managerActor(), f.saveRequest(false))

		require.ErrorIs(t, err, evaluationerrors.ErrDeadlinePassed)
		assert.Contains(t, err.Error(), "2025-02-12")
		assert.Empty(t, f.repo.evaluations)
	})

	t.Run("hr can still rate", func(t *testing.T) {
		f := setup(t)
		f.item.EvaluationDeadline = &past
		f.repo.items[f.item.ID.String()] = f.item
		expectTx(f.sqlMock, true)
		f.audit.EXPECT().Log(gomock.Any(), gomock.Any())

		_, err := f.service.Save(context.Background(), hrActor(), f.saveRequest(false))
		assert.NoError(t, err)
	})
}

func (f *fixture) seed(status string) *Evaluation {
	e := &Evaluation{
		ID: uuid.New(), CompanyID: companyID, EmployeeID: f.employee.ID, EvaluatorID: f.manager.ID,
		PeriodType: domain.PeriodTypeQuarterly, PeriodDate: "2025-Q1", Status: status,
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
	f.repo.evaluations[e.ID] = e
	return e
}

func TestApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("manager approves a submitted evaluation", func(t *testing.T) {
		f := setup(t)
		e := f.seed(domain.EvaluationStatusSubmitted)
		expectTx(f.sqlMock, true)
		f.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(func(_ context.Context, entry audit.Entry) {
			assert.Equal(t, audit.ActionStatusChanged, entry.Action)
			assert.Equal(t, "good work", entry.Reason)
			assert.Equal(t, domain.EvaluationStatusSubmitted, entry.Metadata["from"])
		})

		resp, err := f.service.Approve(ctx, f.managerActor(), e.ID.String(), ApproveRequest{Comment: "good work"})

		require.NoError(t, err)
		assert.Equal(t, domain.EvaluationStatusApproved, resp.Status)
		require.NotNil(t, resp.ApprovedBy)
		assert.Equal(t, f.manager.ID.String(), *resp.ApprovedBy)
		assert.NoError(t, f.sqlMock.ExpectationsWereMet())
	})

	t.Run("draft cannot be approved", func(t *testing.T) {
		f := setup(t)
		e := f.seed(domain.EvaluationStatusDraft)
		expectTx(f.sqlMock, false)

		_, err := f.service.Approve(ctx, f.managerActor(), e.ID.String(), ApproveRequest{})
		assert.ErrorIs(t, err, evaluationerrors.ErrInvalidTransition)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := setup(t)
		expectTx(f.sqlMock, false)

		_, err := f.service.Approve(ctx, f.managerActor(), uuid.NewString(), ApproveRequest{})
		assert.ErrorIs(t, err, evaluationerrors.ErrEvaluationNotFound)
	})
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("manager is refused", func(t *testing.T) {
		f := setup(t)
		e := f.seed(domain.EvaluationStatusApproved)
		_, err := f.service.Complete(ctx, f.managerActor(), e.ID.String())
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("hr completes and the row locks", func(t *testing.T) {
		f := setup(t)
		e := f.seed(domain.EvaluationStatusApproved)
		expectTx(f.sqlMock, true)
		f.audit.EXPECT().Log(gomock.Any(), gomock.Any())

		resp, err := f.service.Complete(ctx, hrActor(), e.ID.String())
		require.NoError(t, err)
		assert.Equal(t, domain.EvaluationStatusCompleted, resp.Status)

		expectTx(f.sqlMock, false)
		_, err = f.service.Save(ctx, f.managerActor(), f.saveRequest(false))
		assert.ErrorIs(t, err, evaluationerrors.ErrEvaluationLocked)
	})
}

func TestGetByID_Visibility(t *testing.T) {
	f := setup(t)
	e := f.seed(domain.EvaluationStatusSubmitted)
	ctx := context.Background()

	self := contextutil.Actor{UserID: f.employee.ID.String(), CompanyID: companyID.String(), Role: domain.RoleEmployee}
	resp, err := f.service.GetByID(ctx, self, e.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Rudi Hartono", resp.EmployeeName)

	stranger := contextutil.Actor{UserID: uuid.NewString(), CompanyID: companyID.String(), Role: domain.RoleEmployee}
	_, err = f.service.GetByID(ctx, stranger, e.ID.String())
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.service.GetByID(ctx, self, "not-a-uuid")
	assert.ErrorIs(t, err, evaluationerrors.ErrInvalidEvaluationID)
}

func TestExportPDF(t *testing.T) {
	f := setup(t)
	e := f.seed(domain.EvaluationStatusSubmitted)
	f.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(func(_ context.Context, entry audit.Entry) {
		assert.Equal(t, audit.ActionExported, entry.Action)
	})

	body, filename, err := f.service.ExportPDF(context.Background(), f.managerActor(), e.ID.String())

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
	assert.Equal(t, "rudi-hartono-2025-q1.pdf", filename)
}

func TestImproveText(t *testing.T) {
	ctx := context.Background()

	t.Run("improved", func(t *testing.T) {
		f := setup(t)
		f.improver.improveFn = func(_ context.Context, text, fieldContext string) (string, error) {
			assert.Equal(t, "overall comment", fieldContext)
			return "Consistently delivered high quality work.", nil
		}
		resp, err := f.service.ImproveText(ctx, f.managerActor(), ImproveTextRequest{Text: "did good", Context: "overall comment"})
		require.NoError(t, err)
		assert.Equal(t, "did good", resp.Original)
		assert.Equal(t, "Consistently delivered high quality work.", resp.Improved)
	})

	t.Run("blank text", func(t *testing.T) {
		f := setup(t)
		_, err := f.service.ImproveText(ctx, f.managerActor(), ImproveTextRequest{Text: "   "})
		assert.ErrorIs(t, err, evaluationerrors.ErrTextRequired)
	})

	t.Run("not configured", func(t *testing.T) {
		f := setup(t)
		f.improver.improveFn = func(context.Context, string, string) (string, error) { return "", llm.ErrDisabled }
		_, err := f.service.ImproveText(ctx, f.managerActor(), ImproveTextRequest{Text: "did good"})
		assert.ErrorIs(t, err, evaluationerrors.ErrImproverDisabled)
	})

	t.Run("upstream failure", func(t *testing.T) {
		f := setup(t)
		f.improver.improveFn = func(context.Context, string, string) (string, error) {
			return "", errors.New("anthropic returned status 529")
		}
		_, err := f.service.ImproveText(ctx, f.managerActor(), ImproveTextRequest{Text: "did good"})
		assert.ErrorIs(t, err, evaluationerrors.ErrImproverFailed)
	})
}

func TestMapRepositoryError(t *testing.T) {
	assert.ErrorIs(t, mapRepositoryError(gorm.ErrRecordNotFound), evaluationerrors.ErrEvaluationNotFound)
	assert.ErrorIs(t, mapRepositoryError(&pgconn.PgError{Code: "23505", ConstraintName: ConstraintEmployeePeriod}), evaluationerrors.ErrConcurrentSave)
	assert.ErrorIs(t, mapRepositoryError(&pgconn.PgError{Code: "40001"}), evaluationerrors.ErrConcurrentSave)

	other := &pgconn.PgError{Code: "23505", ConstraintName: "something_else"}
	assert.Same(t, other, mapRepositoryError(other))
}
