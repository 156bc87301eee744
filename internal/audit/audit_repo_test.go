package audit_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"performa/internal/audit"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestRepository_Find(t *testing.T) {
	db, mock := newMockDB(t)
	repo := audit.NewRepository(db)

	companyID := uuid.New()
	userID := uuid.New()
	logID := uuid.New()
	ts := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "audit_logs" WHERE audit_logs.company_id = $1 AND audit_logs.action = $2`)).
		WithArgs(companyID.String(), "updated").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE audit_logs.company_id = \$1 AND audit_logs.action = \$2 ORDER BY "audit_logs"."timestamp" DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "user_id", "user_role", "action", "entity_type", "timestamp"}).
			AddRow(logID.String(), companyID.String(), userID.String(), "hr", "updated", "performance_cycle", ts))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role"}).
			AddRow(userID.String(), "Dana", "dana@example.com", "hr"))

	logs, total, err := repo.Find(context.Background(), companyID.String(), audit.Filters{Action: "updated"}, 10, 10)

	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, logs, 1)
	assert.Equal(t, logID, logs[0].ID)
	require.NotNil(t, logs[0].User)
	assert.Equal(t, "Dana", logs[0].User.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CountByAction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := audit.NewRepository(db)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	mock.ExpectQuery(`SELECT audit_logs.action, audit_logs.entity_type, audit_logs.user_role, COUNT\(\*\) AS count FROM "audit_logs" .*GROUP BY audit_logs.action, audit_logs.entity_type, audit_logs.user_role ORDER BY count DESC`).
		WithArgs("c-1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"action", "entity_type", "user_role", "count"}).
			AddRow("created", "evaluation", "manager", 4))

	counts, err := repo.CountByAction(context.Background(), "c-1", start, end)
	require.NoError(t, err)
	assert.Equal(t, []audit.ActionCount{{Action: "created", EntityType: "evaluation", UserRole: "manager", Count: 4}}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
