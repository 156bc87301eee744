package evaluation

import (
	"errors"

	evaluationerrors "performa/internal/evaluation/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	ConstraintEmployeePeriod = "uq_evaluations_employee_period"

	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return evaluationerrors.ErrEvaluationNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == ConstraintEmployeePeriod:
			return evaluationerrors.ErrConcurrentSave
		case pgErr.Code == pgSerializationFailure:
			return evaluationerrors.ErrConcurrentSave
		}
	}

	return err
}
