package user_test

import (
	"context"
	"database/sql"
	"testing"

	"performa/internal/audit"
	auditMock "performa/internal/audit/mock"
	"performa/internal/shared/apperror"
	"performa/internal/shared/contextutil"
	"performa/internal/user"
	usererrors "performa/internal/user/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUserRepository struct {
	users map[string]*user.User

	createFn             func(ctx context.Context, u *user.User) error
	updateFn             func(ctx context.Context, u *user.User) error
	deleteFn             func(ctx context.Context, companyID, id string) error
	countActiveReportsFn func(ctx context.Context, companyID, managerID string) (int64, error)
	findByManagerFn      func(ctx context.Context, companyID, managerID string) ([]user.User, error)
}

func newFakeRepo(users ...*user.User) *fakeUserRepository {
	f := &fakeUserRepository{users: map[string]*user.User{}}
	for _, u := range users {
		f.users[u.ID.String()] = u
	}
	return f
}

func (f *fakeUserRepository) WithTx(tx *sql.Tx) user.Repository { return f }

func (f *fakeUserRepository) Create(ctx context.Context, u *user.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}
	f.users[u.ID.String()] = u
	return nil
}

func (f *fakeUserRepository) Update(ctx context.Context, u *user.User) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, u)
	}
	f.users[u.ID.String()] = u
	return nil
}

func (f *fakeUserRepository) Delete(ctx context.Context, companyID, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, companyID, id)
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepository) FindByID(ctx context.Context, companyID, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok || u.CompanyID.String() != companyID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepository) FindAll(ctx context.Context, companyID string, filter user.ListUsersFilter) ([]user.User, int64, error) {
	var out []user.User
	for _, u := range f.users {
		if u.CompanyID.String() == companyID {
			out = append(out, *u)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepository) FindByManager(ctx context.Context, companyID, managerID string) ([]user.User, error) {
	if f.findByManagerFn != nil {
		return f.findByManagerFn(ctx, companyID, managerID)
	}
	return nil, nil
}

func (f *fakeUserRepository) FindByIdentifier(ctx context.Context, companyID, identifier string) (*user.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) FindByPersonIDs(ctx context.Context, companyID string, personIDs []string) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserRepository) CountActiveReports(ctx context.Context, companyID, managerID string) (int64, error) {
	if f.countActiveReportsFn != nil {
		return f.countActiveReportsFn(ctx, companyID, managerID)
	}
	return 0, nil
}

func (f *fakeUserRepository) TouchLastLogin(ctx context.Context, id string) error { return nil }

type serviceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	audit   *auditMock.MockLogger
	repo    *fakeUserRepository
	service user.Service
}

func setupServiceTest(t *testing.T, repo *fakeUserRepository) *serviceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctrl := gomock.NewController(t)
	auditLogger := auditMock.NewMockLogger(ctrl)

	return &serviceDeps{
		db:      db,
		sqlMock: sqlMock,
		audit:   auditLogger,
		repo:    repo,
		service: user.NewService(db, repo, auditLogger),
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func strPtr(s string) *string { return &s }

var companyID = uuid.New()

func hrActor() contextutil.Actor {
	return contextutil.Actor{UserID: uuid.NewString(), CompanyID: companyID.String(), Role: "hr"}
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("office user with manager", func(t *testing.T) {
		mgr := &user.User{ID: uuid.New(), CompanyID: companyID, Name: "Mona", Role: "manager", Active: true}
		deps := setupServiceTest(t, newFakeRepo(mgr))

		deps.audit.EXPECT().Log(ctx, gomock.Any()).Do(func(ctx context.Context, e audit.Entry) {
			assert.Equal(t, audit.ActionCreated, e.Action)
			assert.Equal(t, audit.EntityUser, e.EntityType)
		})

		resp, err := deps.service.Create(ctx, hrActor(), user.CreateUserRequest{
			Name:      "Eli",
			Email:     strPtr("Eli@Example.com"),
			PersonID:  "P-100",
			Password:  "s3cretpass",
			Role:      "employee",
			ManagerID: strPtr(mgr.ID.String()),
		})

		require.NoError(t, err)
		assert.Equal(t, "eli@example.com", *resp.Email)
		assert.Equal(t, "office", resp.UserType)
		assert.Equal(t, mgr.ID.String(), *resp.ManagerID)

		stored := deps.repo.users[resp.ID]
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cretpass")))
	})

	t.Run("operational user needs username", func(t *testing.T) {
		deps := setupServiceTest(t, newFakeRepo())

		_, err := deps.service.Create(ctx, hrActor(), user.CreateUserRequest{
			Name:     "Ops",
			PersonID: "P-200",
			Password: "s3cretpass",
			Role:     "employee",
			UserType: "operational",
		})
		assert.ErrorIs(t, err, usererrors.ErrUsernameRequired)
	})

	t.Run("office user needs email", func(t *testing.T) {
		deps := setupServiceTest(t, newFakeRepo())

		_, err := deps.service.Create(ctx, hrActor(), user.CreateUserRequest{
			Name:     "Office",
			PersonID: "P-201",
			Password: "s3cretpass",
			Role:     "employee",
			Username: strPtr("office"),
		})
		assert.ErrorIs(t, err, usererrors.ErrEmailRequired)
	})

	t.Run("manager from another company", func(t *testing.T) {
		other := &user.User{ID: uuid.New(), CompanyID: uuid.New(), Role: "manager", Active: true}
		deps := setupServiceTest(t, newFakeRepo(other))

		_, err := deps.service.Create(ctx, hrActor(), user.CreateUserRequest{
			Name:      "Eli",
			Email:     strPtr("eli@example.com"),
			PersonID:  "P-101",
			Password:  "s3cretpass",
			Role:      "employee",
			ManagerID: strPtr(other.ID.String()),
		})
		assert.ErrorIs(t, err, usererrors.ErrManagerNotFound)
	})

	t.Run("duplicate email maps to conflict", func(t *testing.T) {
		repo := newFakeRepo()
		repo.createFn = func(ctx context.Context, u *user.User) error {
			return &pgconn.PgError{Code: "23505", ConstraintName: user.ConstraintCompanyEmail}
		}
		deps := setupServiceTest(t, repo)

		_, err := deps.service.Create(ctx, hrActor(), user.CreateUserRequest{
			Name:     "Eli",
			Email:    strPtr("eli@example.com"),
			PersonID: "P-102",
			Password: "s3cretpass",
			Role:     "employee",
		})
		assert.ErrorIs(t, err, usererrors.ErrEmailAlreadyExists)
	})
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("cannot manage self", func(t *testing.T) {
		u := &user.User{ID: uuid.New(), CompanyID: companyID, Email: strPtr("a@x.io"), UserType: "office", Role: "manager", Active: true}
		deps := setupServiceTest(t, newFakeRepo(u))
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Update(ctx, hrActor(), u.ID.String(), user.UpdateUserRequest{ManagerID: strPtr(u.ID.String())})

		assert.ErrorIs(t, err, usererrors.ErrSelfManager)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("reporting loop rejected", func(t *testing.T) {
		top := &user.User{ID: uuid.New(), CompanyID: companyID, Email: strPtr("top@x.io"), UserType: "office", Role: "manager", Active: true}
		mid := &user.User{ID: uuid.New(), CompanyID: companyID, Email: strPtr("mid@x.io"), UserType: "office", Role: "manager", Active: true, ManagerID: &top.ID}
		deps := setupServiceTest(t, newFakeRepo(top, mid))
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Update(ctx, hrActor(), top.ID.String(), user.UpdateUserRequest{ManagerID: strPtr(mid.ID.String())})

		assert.ErrorIs(t, err, usererrors.ErrManagerCycle)
	})

	t.Run("success audits old and new", func(t *testing.T) {
		u := &user.User{ID: uuid.New(), CompanyID: companyID, Name: "Old", Email: strPtr("a@x.io"), UserType: "office", Role: "employee", Active: true}
		deps := setupServiceTest(t, newFakeRepo(u))
		expectTx(t, deps.sqlMock, true)

		deps.audit.EXPECT().Log(ctx, gomock.Any()).Do(func(ctx context.Context, e audit.Entry) {
			assert.Equal(t, "Old", e.OldData.(user.UserResponse).Name)
			assert.Equal(t, "New", e.NewData.(user.UserResponse).Name)
			assert.Equal(t, u.ID.String(), e.TargetUserID)
		})

		resp, err := deps.service.Update(ctx, hrActor(), u.ID.String(), user.UpdateUserRequest{
			Name:       strPtr("New"),
			Department: strPtr("Engineering"),
		})

		require.NoError(t, err)
		assert.Equal(t, "New", resp.Name)
		assert.Equal(t, "Engineering", *resp.Department)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("forbidden with active reports", func(t *testing.T) {
		mgr := &user.User{ID: uuid.New(), CompanyID: companyID, Role: "manager", Active: true}
		repo := newFakeRepo(mgr)
		repo.countActiveReportsFn = func(ctx context.Context, cid, managerID string) (int64, error) {
			return 3, nil
		}
		deps := setupServiceTest(t, repo)
		expectTx(t, deps.sqlMock, false)

		err := deps.service.Delete(ctx, hrActor(), mgr.ID.String())

		assert.ErrorIs(t, err, usererrors.ErrHasActiveReports)
		assert.Equal(t, map[string]int64{"activeReports": 3}, apperror.ToHTTP(err).Details)
		assert.Contains(t, repo.users, mgr.ID.String())
	})

	t.Run("cannot delete self", func(t *testing.T) {
		deps := setupServiceTest(t, newFakeRepo())
		actor := hrActor()

		err := deps.service.Delete(ctx, actor, actor.UserID)
		assert.ErrorIs(t, err, usererrors.ErrCannotDeleteSelf)
	})

	t.Run("success", func(t *testing.T) {
		u := &user.User{ID: uuid.New(), CompanyID: companyID, Role: "employee", Active: true}
		deps := setupServiceTest(t, newFakeRepo(u))
		expectTx(t, deps.sqlMock, true)
		deps.audit.EXPECT().Log(ctx, gomock.Any())

		err := deps.service.Delete(ctx, hrActor(), u.ID.String())

		assert.NoError(t, err)
		assert.NotContains(t, deps.repo.users, u.ID.String())
	})
}

func TestUserService_GetTeam(t *testing.T) {
	ctx := context.Background()
	managerID := uuid.NewString()

	repo := newFakeRepo()
	repo.findByManagerFn = func(ctx context.Context, cid, mid string) ([]user.User, error) {
		return []user.User{{ID: uuid.New(), CompanyID: companyID, Name: "Report"}}, nil
	}
	deps := setupServiceTest(t, repo)

	team, err := deps.service.GetTeam(ctx, contextutil.Actor{UserID: managerID, CompanyID: companyID.String(), Role: "manager"}, managerID)
	assert.NoError(t, err)
	assert.Len(t, team, 1)

	_, err = deps.service.GetTeam(ctx, contextutil.Actor{UserID: uuid.NewString(), CompanyID: companyID.String(), Role: "manager"}, managerID)
	assert.ErrorIs(t, err, usererrors.ErrForbidden)
}

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.MinCost)
	u := &user.User{ID: uuid.New(), CompanyID: companyID, PasswordHash: string(hash)}
	deps := setupServiceTest(t, newFakeRepo(u))
	actor := contextutil.Actor{UserID: u.ID.String(), CompanyID: companyID.String(), Role: "employee"}

	err := deps.service.ChangePassword(ctx, actor, user.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newpassword"})
	assert.ErrorIs(t, err, usererrors.ErrWrongPassword)

	deps.audit.EXPECT().Log(ctx, gomock.Any())
	err = deps.service.ChangePassword(ctx, actor, user.ChangePasswordRequest{CurrentPassword: "oldpassword", NewPassword: "newpassword"})
	assert.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(deps.repo.users[u.ID.String()].PasswordHash), []byte("newpassword")))
}
