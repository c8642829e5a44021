package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kassa-app/kassa-backend/internal/config"
	"github.com/kassa-app/kassa-backend/internal/handler"
	"github.com/kassa-app/kassa-backend/internal/middleware"
	"github.com/kassa-app/kassa-backend/internal/repository/postgres"
	"github.com/kassa-app/kassa-backend/internal/repository/storage"
	"github.com/kassa-app/kassa-backend/internal/service"
	"github.com/kassa-app/kassa-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title Kassa API
// @version 1.0
// @description Personal finance backend: accounts, transactions, recurring payment scheduling and reconciliation.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	workspaceRepo := postgres.NewWorkspaceRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	ruleRepo := postgres.NewRuleRepository(pool)
	debtRepo := postgres.NewDebtRepository(pool)

	receiptRepo, err := storage.NewS3ReceiptRepository(context.Background(), cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize receipt storage")
	}

	// WebSocket hub for change notifications
	hub := websocket.NewHub()

	// Initialize services. The ledger and schedule services share one set
	// of per-entity locks so mutations on the same account or rule
	// serialize across both.
	locks := service.NewEntityLocks()
	authService := service.NewAuthService(userRepo, workspaceRepo)
	accountService := service.NewAccountService(accountRepo)
	ledgerService := service.NewLedgerService(transactionRepo, accountRepo, ruleRepo, debtRepo, locks)
	scheduleService := service.NewScheduleService(ruleRepo, transactionRepo, locks, cfg.ScheduleHorizonMonths)
	ruleService := service.NewRuleService(ruleRepo, accountRepo, scheduleService, ledgerService)
	reconciliationService := service.NewReconciliationService(ruleRepo, transactionRepo, cfg.ScheduleHorizonMonths)
	debtService := service.NewDebtService(debtRepo)
	receiptService := service.NewReceiptService(transactionRepo, receiptRepo)

	accountService.SetEventPublisher(hub)
	ledgerService.SetEventPublisher(hub)
	scheduleService.SetEventPublisher(hub)
	ruleService.SetEventPublisher(hub)
	debtService.SetEventPublisher(hub)

	// Background materialization: periodic sweep plus coalesced per-rule
	// refresh requests from rule edits
	worker := service.NewScheduleWorker(scheduleService, log.Logger, service.ScheduleWorkerConfig{
		Interval: cfg.ScheduleSweepInterval,
	})
	ruleService.SetMaterializer(worker)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	worker.Start(workerCtx)

	// Create workspace provider adapter for auth middleware
	workspaceProvider := &workspaceProviderAdapter{authService: authService}

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, workspaceProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	rateLimiter := middleware.NewRateLimiter()

	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience, workspaceProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create websocket token validator")
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	accountHandler := handler.NewAccountHandler(accountService)
	transactionHandler := handler.NewTransactionHandler(ledgerService)
	receiptHandler := handler.NewReceiptHandler(receiptService)
	ruleHandler := handler.NewRuleHandler(ruleService, ledgerService, scheduleService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationService)
	debtHandler := handler.NewDebtHandler(debtService)
	wsHandler := handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, authHandler, accountHandler, transactionHandler, receiptHandler, ruleHandler, scheduleHandler, reconciliationHandler, debtHandler, wsHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop the worker before the server so no sweep is writing while
	// connections drain
	worker.Stop()
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// workspaceProviderAdapter adapts AuthService to the middleware and
// websocket workspace lookups
type workspaceProviderAdapter struct {
	authService *service.AuthService
}

// GetWorkspaceByAuth0ID implements middleware.WorkspaceProvider and
// websocket.WorkspaceLookup
func (a *workspaceProviderAdapter) GetWorkspaceByAuth0ID(auth0ID string) (int32, error) {
	workspace, err := a.authService.GetWorkspaceByAuth0ID(auth0ID)
	if err != nil {
		return 0, err
	}
	return workspace.ID, nil
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
