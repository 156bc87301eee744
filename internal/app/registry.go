package app

import (
	"database/sql"

	"performa/internal/assessment"
	"performa/internal/audit"
	"performa/internal/auth"
	"performa/internal/biometric"
	"performa/internal/company"
	"performa/internal/config"
	"performa/internal/cycle"
	"performa/internal/dashboard"
	"performa/internal/evaluation"
	"performa/internal/evaluationitem"
	"performa/internal/importer"
	"performa/internal/llm"
	"performa/internal/messaging/kafka"
	"performa/internal/middleware"
	"performa/internal/permission"
	"performa/internal/rbac"
	"performa/internal/rbac/infra"
	"performa/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	cfg config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) error {
	// --- Repositories ---
	auditRepo := audit.NewRepository(gormDB)
	companyRepo := company.NewRepository(gormDB)
	userRepo := user.NewRepository(gormDB)
	biometricRepo := biometric.NewRepository(gormDB)
	permissionRepo := permission.NewRepository(gormDB)
	cycleRepo := cycle.NewRepository(gormDB)
	itemRepo := evaluationitem.NewRepository(gormDB)
	evaluationRepo := evaluation.NewRepository(gormDB)
	assessmentRepo := assessment.NewRepository(gormDB)
	dashboardRepo := dashboard.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(enforcer, logger)

	relyingParty, err := biometric.NewRelyingParty(cfg.WebAuthn)
	if err != nil {
		return err
	}

	middleware.SetJWTSecret(cfg.JWTSecret)

	// --- Services ---
	auditService := audit.NewService(auditRepo, logger)
	permissionService := permission.NewService(permissionRepo, logger)
	authService := auth.NewService(companyRepo, userRepo, auth.NewTokenIssuer(cfg.JWTSecret), auditService, logger)
	biometricService := biometric.NewService(
		relyingParty,
		biometric.NewSessionStore(rdb),
		biometricRepo,
		userRepo,
		companyRepo,
		authService,
		auditService,
		logger,
	)
	companyService := company.NewService(companyRepo, auditService, logger)
	userService := user.NewService(db, userRepo, auditService, logger)
	cycleService := cycle.NewService(db, cycleRepo, outboxRepo, auditService, logger)
	itemService := evaluationitem.NewService(db, itemRepo, permissionRepo, permissionService, auditService, logger)
	evaluationService := evaluation.NewService(
		db,
		evaluationRepo,
		permissionService,
		outboxRepo,
		llm.NewImprover(cfg.LLM, logger),
		auditService,
		logger,
	)
	assessmentService := assessment.NewService(db, assessmentRepo, permissionService, auditService, logger)
	dashboardService := dashboard.NewService(dashboardRepo, permissionService, rdb, logger)
	importService := importer.NewService(db, userRepo, auditService, logger)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, cfg.IsProduction(), logger)
	biometricHandler := biometric.NewHandler(biometricService, authHandler, logger)
	companyHandler := company.NewHandler(companyService, logger)
	userHandler := user.NewHandler(userService, logger)
	cycleHandler := cycle.NewHandler(cycleService, logger)
	itemHandler := evaluationitem.NewHandler(itemService, logger)
	evaluationHandler := evaluation.NewHandler(evaluationService, logger)
	assessmentHandler := assessment.NewHandler(assessmentService, logger)
	auditHandler := audit.NewHandler(auditService, logger)
	dashboardHandler := dashboard.NewHandler(dashboardService, logger)
	importHandler := importer.NewHandler(importService, logger)
	rbacHandler := rbac.NewHandler(rbacService, logger)

	// --- Routes Registration ---
	api := router.Group("/api")
	{
		auth.RegisterRoutes(api, authHandler)
		biometric.RegisterRoutes(api, biometricHandler, logger)
		company.RegisterRoutes(api, companyHandler, rbacService)
		user.RegisterRoutes(api, userHandler, rbacService, logger)
		cycle.RegisterRoutes(api, cycleHandler, rbacService, logger)
		evaluationitem.RegisterRoutes(api, itemHandler, rbacService, logger)
		evaluation.RegisterRoutes(api, evaluationHandler, rbacService, logger)
		assessment.RegisterRoutes(api, assessmentHandler, rbacService, logger)
		audit.RegisterRoutes(api, auditHandler, rbacService)
		dashboard.RegisterRoutes(api, dashboardHandler, rbacService, logger)
		importer.RegisterRoutes(api, importHandler, rbacService, rdb, logger)
		rbac.RegisterRoutes(api, rbacHandler)
	}

	return nil
}
