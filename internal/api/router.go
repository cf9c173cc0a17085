package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/quickloan/lending-system/internal/api/handler"
	"github.com/quickloan/lending-system/internal/api/middleware"
	"github.com/quickloan/lending-system/internal/core/domain"
	"github.com/quickloan/lending-system/internal/core/service"
	"github.com/quickloan/lending-system/internal/infrastructure/config"
	mongodb "github.com/quickloan/lending-system/internal/infrastructure/db/mongo"
	redisdb "github.com/quickloan/lending-system/internal/infrastructure/db/redis"
	"github.com/quickloan/lending-system/internal/infrastructure/http/handlers"
	"github.com/quickloan/lending-system/internal/infrastructure/storage"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *goredis.Client, cfg *config.Config, log zerolog.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("lending"))

	// --- Infrastructure ---
	userRepo := mongodb.NewUserRepository(db)
	loanRepo := mongodb.NewLoanRepository(db)
	emiRepo := mongodb.NewEMIRepository(db)
	tx := mongodb.NewTransactionRunner(db.Client())
	guard := redisdb.NewOperationGuard(rdb)

	store, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	policy := service.LoanPolicy{
		AnnualRatePct:     cfg.Loan.AnnualRatePct,
		AutoVerifyOnApply: cfg.Loan.AutoVerifyOnApply,
	}

	// --- Services ---
	component := func(name string) zerolog.Logger {
		return log.With().Str("component", name).Logger()
	}
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	loanService := service.NewLoanService(loanRepo, emiRepo, userRepo, tx, guard, policy, component("loan"))
	emiService := service.NewEMIService(emiRepo, loanRepo, guard, policy, component("emi"))
	adminService := service.NewAdminService(userRepo, loanRepo, component("verification"))
	userService := service.NewUserService(userRepo, store, component("user"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService)
	loanHandler := handler.NewLoanHandler(loanService)
	emiHandler := handler.NewEMIHandler(emiService)
	adminHandler := handler.NewAdminHandler(adminService, store)
	userHandler := handler.NewUserHandler(userService)

	authMW := middleware.Auth(cfg.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/me", authHandler.Me, authMW)

	// --- Loan routes ---
	loans := e.Group("/loans", authMW)
	loans.POST("", loanHandler.Apply)
	loans.GET("", loanHandler.ListAll, adminOnly)
	loans.GET("/pending", loanHandler.ListPending, adminOnly)
	loans.GET("/me", loanHandler.ListMine)
	loans.GET("/:id", loanHandler.Get)
	loans.GET("/:id/schedule", loanHandler.Schedule)
	loans.PUT("/:id/approve", loanHandler.Approve, adminOnly)
	loans.PUT("/:id/reject", loanHandler.Reject, adminOnly)

	// --- Installment routes ---
	emis := e.Group("/emis", authMW)
	emis.GET("", emiHandler.ListAll, adminOnly)
	emis.GET("/me", emiHandler.ListMine)
	emis.GET("/loan/:loanId", emiHandler.ListByLoan)
	emis.GET("/update-overdue", emiHandler.SweepOverdue, adminOnly)
	emis.POST("/generate/:loanId", emiHandler.Generate, adminOnly)
	emis.PUT("/:id/pay", emiHandler.Pay)
	emis.PUT("/:id/manual-update", emiHandler.ManualUpdate, adminOnly)

	// --- Admin verification panel ---
	admin := e.Group("/admin", authMW, adminOnly)
	admin.GET("/pending-verifications", adminHandler.PendingVerifications)
	admin.GET("/user-documents/:userId", adminHandler.UserDocuments)
	admin.GET("/documents/:filename", adminHandler.Document)
	admin.PUT("/verify-user/:userId", adminHandler.VerifyUser)
	admin.POST("/quick-verify", adminHandler.QuickVerify)
	admin.GET("/stats", adminHandler.Stats)

	// --- User / KYC routes ---
	users := e.Group("/users", authMW)
	users.GET("", userHandler.List, adminOnly)
	users.GET("/profile", userHandler.Profile)
	users.PUT("/profile", userHandler.UpdateProfile)
	users.POST("/documents", userHandler.UploadDocuments)
	users.POST("/kyc-simplified", userHandler.SubmitSimplifiedKYC)
	users.PUT("/:id/make-admin", userHandler.MakeAdmin, adminOnly)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	readyHandler := handlers.NewReadinessHandler(db, rdb, cfg.UploadDir)

	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", readyHandler.Readiness)  // readiness – are dependencies up?

	// --- Observability / docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e, nil
}
