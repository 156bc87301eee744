package user

import (
	"errors"

	usererrors "performa/internal/user/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	ConstraintCompanyEmail    = "uq_users_company_email"
	ConstraintCompanyUsername = "uq_users_company_username"
	ConstraintCompanyPerson   = "uq_users_company_person"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usererrors.ErrUserNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case ConstraintCompanyEmail:
			return usererrors.ErrEmailAlreadyExists
		case ConstraintCompanyUsername:
			return usererrors.ErrUsernameAlreadyExists
		case ConstraintCompanyPerson:
			return usererrors.ErrPersonIDAlreadyExists
		}
	}

	return err
}
