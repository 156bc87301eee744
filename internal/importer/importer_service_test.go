package importer_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"performa/internal/audit"
	auditMock "performa/internal/audit/mock"
	"performa/internal/importer"
	importererrors "performa/internal/importer/errors"
	"performa/internal/shared/apperror"
	"performa/internal/shared/contextutil"
	"performa/internal/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUsers struct {
	existing []user.User
	created  []*user.User
	updated  []*user.User

	createFn func(u *user.User) error
}

func (f *fakeUsers) WithTx(*sql.Tx) user.Repository { return f }

func (f *fakeUsers) Create(_ context.Context, u *user.User) error {
	if f.createFn != nil {
		if err := f.createFn(u); err != nil {
			return err
		}
	}
	f.created = append(f.created, u)
	return nil
}

func (f *fakeUsers) Update(_ context.Context, u *user.User) error {
	f.updated = append(f.updated, u)
	return nil
}

func (f *fakeUsers) Delete(context.Context, string, string) error { return nil }

func (f *fakeUsers) FindByID(context.Context, string, string) (*user.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) FindAll(context.Context, string, user.ListUsersFilter) ([]user.User, int64, error) {
	return nil, 0, nil
}

func (f *fakeUsers) FindByManager(context.Context, string, string) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUsers) FindByIdentifier(context.Context, string, string) (*user.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) FindByPersonIDs(_ context.Context, _ string, personIDs []string) ([]user.User, error) {
	want := map[string]bool{}
	for _, p := range personIDs {
		want[p] = true
	}
	var out []user.User
	for _, u := range f.existing {
		if want[u.PersonID] {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) CountActiveReports(context.Context, string, string) (int64, error) {
	return 0, nil
}

func (f *fakeUsers) TouchLastLogin(context.Context, string) error { return nil }

func (f *fakeUsers) byPerson(personID string) *user.User {
	for _, u := range f.created {
		if u.PersonID == personID {
			return u
		}
	}
	return nil
}

type deps struct {
	sqlMock sqlmock.Sqlmock
	audit   *auditMock.MockLogger
	users   *fakeUsers
	service importer.Service
}

func setup(t *testing.T, users *fakeUsers) *deps {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctrl := gomock.NewController(t)
	auditLogger := auditMock.NewMockLogger(ctrl)
	return &deps{
		sqlMock: mock,
		audit:   auditLogger,
		users:   users,
		service: importer.NewService(db, users, auditLogger),
	}
}

var companyID = uuid.New()

func hr() contextutil.Actor {
	return contextutil.Actor{UserID: uuid.NewString(), CompanyID: companyID.String(), Role: "hr"}
}

func resultOf(t *testing.T, err error) importer.Result {
	t.Helper()
	httpErr := apperror.ToHTTP(err)
	result, ok := httpErr.Details.(importer.Result)
	require.True(t, ok, "details carry the import result")
	return result
}

const header = "name,email,username,personID,role,userType,managerPersonID,password\n"

func TestImportUsers_Strict(t *testing.T) {
	ctx := context.Background()

	t.Run("creates every row and links managers", func(t *testing.T) {
		boss := user.User{ID: uuid.New(), CompanyID: companyID, PersonID: "P-900", Role: "manager", Active: true}
		d := setup(t, &fakeUsers{existing: []user.User{boss}})

		csv := header +
			"Mona,mona@example.com,,P-1,manager,office,P-900,\n" +
			"Eli,eli@example.com,,P-2,employee,office,P-1,s3cretpass\n" +
			"Oka,,oka.gudang,P-3,employee,operational,P-1,\n"

		d.sqlMock.ExpectBegin()
		d.sqlMock.ExpectCommit()
		d.audit.EXPECT().Log(ctx, gomock.Any()).Do(func(_ context.Context, e audit.Entry) {
			assert.Equal(t, audit.ActionImported, e.Action)
			assert.Equal(t, audit.EntityUser, e.EntityType)
			assert.Equal(t, 3, e.Metadata["imported"])
			assert.Equal(t, importer.ModeStrict, e.Metadata["mode"])
		})

		result, err := d.service.ImportUsers(ctx, hr(), "", strings.NewReader(csv))

		require.NoError(t, err)
		assert.Equal(t, importer.ModeStrict, result.Mode)
		assert.Equal(t, 3, result.Total)
		assert.Equal(t, 3, result.Imported)
		assert.Zero(t, result.Failed)
		assert.Empty(t, result.Errors)

		mona, eli, oka := d.users.byPerson("P-1"), d.users.byPerson("P-2"), d.users.byPerson("P-3")
		require.NotNil(t, mona)
		require.NotNil(t, eli)
		require.NotNil(t, oka)
		assert.Equal(t, boss.ID, *mona.ManagerID)
		assert.Equal(t, mona.ID, *eli.ManagerID)
		assert.Equal(t, mona.ID, *oka.ManagerID)
		assert.Len(t, d.users.updated, 2)
		assert.Equal(t, "oka.gudang", *oka.Username)
		assert.Nil(t, oka.Email)

		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(eli.PasswordHash), []byte("s3cretpass")))
		assert.Empty(t, result.Users[1].TemporaryPassword)
		temp := result.Users[0].TemporaryPassword
		require.NotEmpty(t, temp)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(mona.PasswordHash), []byte(temp)))
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})

	t.Run("any invalid row rejects the whole file", func(t *testing.T) {
		existing := user.User{ID: uuid.New(), CompanyID: companyID, PersonID: "P-2", Active: true}
		d := setup(t, &fakeUsers{existing: []user.User{existing}})

		csv := header +
			"Mona,mona@example.com,,P-1,manager,office,,\n" +
			"Eli,eli@example.com,,P-2,employee,office,,\n" +
			"Oka,,,P-3,employee,office,P-404,\n" +
			"Dup,mona@example.com,,P-4,employee,office,,\n"

		result, err := d.service.ImportUsers(ctx, hr(), importer.ModeStrict, strings.NewReader(csv))

		assert.ErrorIs(t, err, importererrors.ErrValidationFailed)
		assert.Equal(t, result, resultOf(t, err))
		assert.Zero(t, result.Imported)
		assert.Equal(t, 3, result.Failed)
		assert.Empty(t, d.users.created)

		byLine := map[int][]string{}
		for _, e := range result.Errors {
			byLine[e.Line] = append(byLine[e.Line], e.Field)
		}
		assert.Equal(t, map[int][]string{
			3: {"personID"},
			4: {"email", "managerPersonID"},
			5: {"email"},
		}, byLine)
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})

	t.Run("database conflict rolls back", func(t *testing.T) {
		users := &fakeUsers{createFn: func(u *user.User) error {
			if u.PersonID == "P-2" {
				return &pgconn.PgError{Code: "23505", ConstraintName: user.ConstraintCompanyEmail}
			}
			return nil
		}}
		d := setup(t, users)

		csv := header +
			"Mona,mona@example.com,,P-1,manager,office,,\n" +
			"Eli,eli@example.com,,P-2,employee,office,,\n"

		d.sqlMock.ExpectBegin()
		d.sqlMock.ExpectRollback()

		result, err := d.service.ImportUsers(ctx, hr(), importer.ModeStrict, strings.NewReader(csv))

		assert.ErrorIs(t, err, importererrors.ErrValidationFailed)
		assert.Zero(t, result.Imported)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, importer.RowError{
			Line: 3, PersonID: "P-2", Field: "email", Message: `email "eli@example.com" is already in use`,
		}, result.Errors[0])
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})
}

func TestImportUsers_Partial(t *testing.T) {
	ctx := context.Background()
	d := setup(t, &fakeUsers{})

	csv := header +
		"Mona,not-an-email,,P-1,manager,office,,\n" +
		"Eli,eli@example.com,,P-2,employee,office,P-1,\n" +
		"Oka,,oka.gudang,P-3,employee,operational,,\n"

	d.audit.EXPECT().Log(ctx, gomock.Any()).Do(func(_ context.Context, e audit.Entry) {
		assert.Equal(t, importer.ModePartial, e.Metadata["mode"])
		assert.Equal(t, 1, e.Metadata["failed"])
	})

	result, err := d.service.ImportUsers(ctx, hr(), importer.ModePartial, strings.NewReader(csv))

	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Users, 2)
	assert.Equal(t, "P-2", result.Users[0].PersonID)
	assert.Equal(t, "P-3", result.Users[1].PersonID)

	require.Len(t, result.Errors, 2)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Equal(t, "email", result.Errors[0].Field)
	assert.Equal(t, 3, result.Errors[1].Line)
	assert.Equal(t, "managerPersonID", result.Errors[1].Field)
	assert.Nil(t, d.users.byPerson("P-2").ManagerID)
	assert.NoError(t, d.sqlMock.ExpectationsWereMet())
}

func TestImportUsers_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown mode", func(t *testing.T) {
		d := setup(t, &fakeUsers{})
		_, err := d.service.ImportUsers(ctx, hr(), "merge", strings.NewReader(header))
		assert.ErrorIs(t, err, importererrors.ErrInvalidMode)
	})

	t.Run("self managed", func(t *testing.T) {
		d := setup(t, &fakeUsers{})
		csv := header + "Mona,mona@example.com,,P-1,manager,office,P-1,\n"
		result, err := d.service.ImportUsers(ctx, hr(), importer.ModeStrict, strings.NewReader(csv))
		assert.ErrorIs(t, err, importererrors.ErrValidationFailed)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "managerPersonID", result.Errors[0].Field)
	})
}
