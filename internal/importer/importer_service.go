package importer

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"performa/internal/audit"
	importererrors "performa/internal/importer/errors"
	"performa/internal/shared/apperror"
	"performa/internal/shared/contextutil"
	"performa/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type Service interface {
	ImportUsers(ctx context.Context, actor contextutil.Actor, mode string, r io.Reader) (Result, error)
}

type service struct {
	db      *sql.DB
	users   user.Repository
	audit   audit.Logger
	logger  *zap.Logger
	hash    func(string) (string, error)
	genPass func() (string, error)
}

func NewService(db *sql.DB, users user.Repository, auditLogger audit.Logger, logger ...*zap.Logger) Service {
	l := zap.L().Named("importer.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("importer.service")
	}
	return &service{
		db:      db,
		users:   users,
		audit:   auditLogger,
		logger:  l,
		hash:    user.HashPassword,
		genPass: temporaryPassword,
	}
}

func temporaryPassword() (string, error) {
	b := make([]byte, 9)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// plan is a validated row with its resolved manager. managerRow is set when
// the manager is created by the same import.
type plan struct {
	row        Row
	managerID  *uuid.UUID
	managerRow string
}

func (s *service) ImportUsers(ctx context.Context, actor contextutil.Actor, mode string, r io.Reader) (Result, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	if mode == "" {
		mode = ModeStrict
	}
	if mode != ModeStrict && mode != ModePartial {
		return Result{}, importererrors.ErrInvalidMode
	}
	companyID, err := uuid.Parse(actor.CompanyID)
	if err != nil {
		return Result{}, apperror.ErrUnauthorized
	}

	rows, err := Parse(r, MaxRows)
	if err != nil {
		return Result{}, err
	}

	result := Result{Mode: mode, Total: len(rows), Users: []ImportedUser{}, Errors: []RowError{}}
	plans, rowErrs, err := s.plan(ctx, actor.CompanyID, rows)
	if err != nil {
		l.Error("import planning failed", zap.Error(err))
		return Result{}, err
	}
	result.Errors = append(result.Errors, rowErrs...)

	if mode == ModeStrict {
		if len(rowErrs) > 0 {
			result.Failed = countLines(rowErrs)
			return result, importererrors.ErrValidationFailed.WithDetails(result)
		}
		return s.importStrict(ctx, actor, companyID, plans, result)
	}
	return s.importPartial(ctx, actor, companyID, plans, result)
}

// plan validates every row and resolves manager references against the
// database and the file itself.
func (s *service) plan(ctx context.Context, companyID string, rows []Row) ([]plan, []RowError, error) {
	var errs []RowError
	bad := map[int]bool{}
	fail := func(r Row, field, msg string) {
		errs = append(errs, RowError{Line: r.Line, PersonID: r.PersonID, Field: field, Message: msg})
		bad[r.Line] = true
	}

	for _, r := range rows {
		if fieldErrs := ValidateRow(r); len(fieldErrs) > 0 {
			errs = append(errs, fieldErrs...)
			bad[r.Line] = true
		}
	}

	byPerson := map[string]Row{}
	emails := map[string]int{}
	usernames := map[string]int{}
	for _, r := range rows {
		if r.PersonID != "" {
			if first, dup := byPerson[r.PersonID]; dup {
				fail(r, "personID", fmt.Sprintf("personID %q is repeated (first on line %d)", r.PersonID, first.Line))
			} else {
				byPerson[r.PersonID] = r
			}
		}
		if r.Email != "" {
			if first, dup := emails[r.Email]; dup {
				fail(r, "email", fmt.Sprintf("email %q is repeated (first on line %d)", r.Email, first))
			} else {
				emails[r.Email] = r.Line
			}
		}
		if r.Username != "" {
			key := strings.ToLower(r.Username)
			if first, dup := usernames[key]; dup {
				fail(r, "username", fmt.Sprintf("username %q is repeated (first on line %d)", r.Username, first))
			} else {
				usernames[key] = r.Line
			}
		}
	}

	lookup := make([]string, 0, len(rows)*2)
	for _, r := range rows {
		if r.PersonID != "" {
			lookup = append(lookup, r.PersonID)
		}
		if r.ManagerPersonID != "" {
			lookup = append(lookup, r.ManagerPersonID)
		}
	}
	existing, err := s.users.FindByPersonIDs(ctx, companyID, lookup)
	if err != nil {
		return nil, nil, err
	}
	inDB := make(map[string]user.User, len(existing))
	for _, u := range existing {
		inDB[u.PersonID] = u
	}

	var plans []plan
	for _, r := range rows {
		if _, taken := inDB[r.PersonID]; taken {
			fail(r, "personID", fmt.Sprintf("a user with personID %q already exists", r.PersonID))
		}

		p := plan{row: r}
		if mp := r.ManagerPersonID; mp != "" {
			switch {
			case mp == r.PersonID:
				fail(r, "managerPersonID", "a user cannot manage themselves")
			case inDB[mp].ID != uuid.Nil:
				if !inDB[mp].Active {
					fail(r, "managerPersonID", fmt.Sprintf("manager %q is inactive", mp))
				}
				id := inDB[mp].ID
				p.managerID = &id
			default:
				if _, ok := byPerson[mp]; !ok {
					fail(r, "managerPersonID", fmt.Sprintf("manager %q was not found", mp))
				}
				p.managerRow = mp
			}
		}
		if !bad[r.Line] {
			plans = append(plans, p)
		}
	}
	return plans, errs, nil
}

func (s *service) build(companyID uuid.UUID, p plan) (*user.User, string, error) {
	r := p.row
	password, temp := r.Password, ""
	if password == "" {
		generated, err := s.genPass()
		if err != nil {
			return nil, "", err
		}
		password, temp = generated, generated
	}
	hash, err := s.hash(password)
	if err != nil {
		return nil, "", err
	}

	u := &user.User{
		ID:           uuid.New(),
		CompanyID:    companyID,
		Name:         r.Name,
		PersonID:     r.PersonID,
		PasswordHash: hash,
		Role:         r.Role,
		UserType:     r.UserType,
		ManagerID:    p.managerID,
		Active:       true,
	}
	if r.Email != "" {
		u.Email = &r.Email
	}
	if r.Username != "" {
		u.Username = &r.Username
	}
	if r.Department != "" {
		u.Department = &r.Department
	}
	if r.Position != "" {
		u.Position = &r.Position
	}
	return u, temp, nil
}

func (s *service) importStrict(ctx context.Context, actor contextutil.Actor, companyID uuid.UUID, plans []plan, result Result) (Result, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		l.Error("import begin tx failed", zap.Error(err))
		return Result{}, err
	}
	defer tx.Rollback()

	repo := s.users.WithTx(tx)
	created := map[string]*user.User{}
	var imported []ImportedUser

	for _, p := range plans {
		u, temp, err := s.build(companyID, p)
		if err != nil {
			return Result{}, err
		}
		if err := repo.Create(ctx, u); err != nil {
			result.Errors = append(result.Errors, rowError(p.row, err))
			result.Failed = 1
			l.Warn("strict import aborted", zap.Int("line", p.row.Line), zap.Error(err))
			return result, importererrors.ErrValidationFailed.WithDetails(result)
		}
		created[p.row.PersonID] = u
		imported = append(imported, ImportedUser{Line: p.row.Line, ID: u.ID.String(), PersonID: u.PersonID, Name: u.Name, TemporaryPassword: temp})
	}

	for _, p := range plans {
		if p.managerRow == "" {
			continue
		}
		u := created[p.row.PersonID]
		u.ManagerID = &created[p.managerRow].ID
		if err := repo.Update(ctx, u); err != nil {
			l.Error("link imported manager failed", zap.Int("line", p.row.Line), zap.Error(err))
			return Result{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		l.Error("import commit failed", zap.Error(err))
		return Result{}, err
	}

	result.Users = imported
	result.Imported = len(imported)
	s.logImport(ctx, actor, result)
	return result, nil
}

// importPartial writes each valid row on its own; failures are reported per
// line and do not stop the rest.
func (s *service) importPartial(ctx context.Context, actor contextutil.Actor, companyID uuid.UUID, plans []plan, result Result) (Result, error) {
	l := contextutil.GetLogger(ctx, s.logger)
	created := map[string]*user.User{}

	for _, p := range plans {
		u, temp, err := s.build(companyID, p)
		if err != nil {
			return Result{}, err
		}
		if err := s.users.Create(ctx, u); err != nil {
			result.Errors = append(result.Errors, rowError(p.row, err))
			continue
		}
		created[p.row.PersonID] = u
		result.Users = append(result.Users, ImportedUser{Line: p.row.Line, ID: u.ID.String(), PersonID: u.PersonID, Name: u.Name, TemporaryPassword: temp})
	}

	for _, p := range plans {
		if p.managerRow == "" {
			continue
		}
		u, ok := created[p.row.PersonID]
		if !ok {
			continue
		}
		mgr, ok := created[p.managerRow]
		if !ok {
			result.Errors = append(result.Errors, RowError{
				Line: p.row.Line, PersonID: p.row.PersonID, Field: "managerPersonID",
				Message: fmt.Sprintf("imported without a manager: manager %q was not imported", p.managerRow),
			})
			continue
		}
		u.ManagerID = &mgr.ID
		if err := s.users.Update(ctx, u); err != nil {
			l.Warn("link imported manager failed", zap.Int("line", p.row.Line), zap.Error(err))
			result.Errors = append(result.Errors, rowError(p.row, err))
		}
	}

	result.Imported = len(result.Users)
	result.Failed = result.Total - result.Imported
	s.logImport(ctx, actor, result)
	return result, nil
}

func (s *service) logImport(ctx context.Context, actor contextutil.Actor, result Result) {
	contextutil.GetLogger(ctx, s.logger).Info("users imported",
		zap.String("mode", result.Mode),
		zap.Int("total", result.Total),
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed),
	)

	ids := make([]string, 0, len(result.Users))
	for _, u := range result.Users {
		ids = append(ids, u.ID)
	}
	s.audit.Log(ctx, audit.Entry{
		CompanyID:  actor.CompanyID,
		UserID:     actor.UserID,
		UserRole:   actor.Role,
		Action:     audit.ActionImported,
		EntityType: audit.EntityUser,
		Metadata: map[string]any{
			"mode":     result.Mode,
			"total":    result.Total,
			"imported": result.Imported,
			"failed":   result.Failed,
			"userIds":  ids,
		},
	})
}

func rowError(r Row, err error) RowError {
	out := RowError{Line: r.Line, PersonID: r.PersonID, Message: "could not be saved"}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case user.ConstraintCompanyEmail:
			out.Field, out.Message = "email", fmt.Sprintf("email %q is already in use", r.Email)
		case user.ConstraintCompanyUsername:
			out.Field, out.Message = "username", fmt.Sprintf("username %q is already in use", r.Username)
		case user.ConstraintCompanyPerson:
			out.Field, out.Message = "personID", fmt.Sprintf("a user with personID %q already exists", r.PersonID)
		}
	}
	return out
}

func countLines(errs []RowError) int {
	lines := map[int]struct{}{}
	for _, e := range errs {
		lines[e.Line] = struct{}{}
	}
	return len(lines)
}
