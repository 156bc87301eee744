package cycle

import (
	"errors"

	cycleerrors "performa/internal/cycle/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	ConstraintOneActive   = "uq_performance_cycles_one_active"
	ConstraintCompanyName = "uq_performance_cycles_company_name"

	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cycleerrors.ErrCycleNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			switch pgErr.ConstraintName {
			case ConstraintOneActive:
				return cycleerrors.ErrActiveCycleExists
			case ConstraintCompanyName:
				return cycleerrors.ErrCycleNameTaken
			}
		case pgSerializationFailure:
			return cycleerrors.ErrConcurrentUpdate
		}
	}

	return err
}
