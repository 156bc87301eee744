package assessment

import (
	"errors"

	assessmenterrors "performa/internal/assessment/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return assessmenterrors.ErrConcurrentAssessment
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if (pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == ConstraintActiveTriple) ||
			pgErr.Code == pgSerializationFailure {
			return assessmenterrors.ErrConcurrentAssessment
		}
	}

	return err
}
