package bootstrap

import (
	"fmt"

	"performa/internal/assessment"
	"performa/internal/audit"
	"performa/internal/biometric"
	"performa/internal/company"
	"performa/internal/cycle"
	"performa/internal/evaluation"
	"performa/internal/evaluationitem"
	"performa/internal/messaging/kafka"
	"performa/internal/user"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func models() []any {
	return []any{
		&company.Company{},
		&user.User{},
		&biometric.Credential{},
		&cycle.Cycle{},
		&evaluationitem.Item{},
		&evaluationitem.Assignment{},
		&evaluation.Evaluation{},
		&assessment.PartialAssessment{},
		&audit.AuditLog{},
	}
}

// Statements gorm tags cannot express: partial unique indexes and the
// raw-sql outbox table.
var statements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + user.ConstraintCompanyEmail +
		` ON users (company_id, LOWER(email)) WHERE email IS NOT NULL AND deleted_at IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + user.ConstraintCompanyUsername +
		` ON users (company_id, LOWER(username)) WHERE username IS NOT NULL AND deleted_at IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + user.ConstraintCompanyPerson +
		` ON users (company_id, person_id) WHERE deleted_at IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + cycle.ConstraintOneActive +
		` ON performance_cycles (company_id) WHERE status = 'active'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + assessment.ConstraintActiveTriple +
		` ON partial_assessments (cycle_id, employee_id, evaluation_item_id) WHERE is_active`,
	kafka.CreateTableSQL,
}

// Migrate brings the schema up to date. It is idempotent.
func Migrate(db *gorm.DB) error {
	log := zap.L().Named("bootstrap.migrate")

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("enable pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := applyStatements(db); err != nil {
		return err
	}

	log.Info("database schema migrated", zap.Int("models", len(models())))
	return nil
}

func applyStatements(db *gorm.DB) error {
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply migration statement: %w", err)
		}
	}
	return nil
}
