package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/donalab/dona-backend/internal/config"
	"github.com/donalab/dona-backend/internal/domain"
	"github.com/donalab/dona-backend/internal/handler"
	"github.com/donalab/dona-backend/internal/ledger"
	"github.com/donalab/dona-backend/internal/middleware"
	"github.com/donalab/dona-backend/internal/repository/postgres"
	"github.com/donalab/dona-backend/internal/service"
	"github.com/donalab/dona-backend/internal/transfer"
	"github.com/donalab/dona-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

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

	// Connect to database when an archive is configured
	var (
		receiptArchive domain.ReceiptArchive
		noteArchive    domain.NoteArchive
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to ping database")
		}
		log.Info().Msg("Connected to database")

		receiptArchive = postgres.NewReceiptRepository(pool)
		noteArchive = postgres.NewNoteRepository(pool)
	} else {
		log.Warn().Msg("No DATABASE_URL configured, running without archive")
	}

	// WebSocket hub for the event feed
	hub := websocket.NewHub()

	// Archive service: fans ledger events out to the hub and the archive
	archiveService := service.NewArchiveService(receiptArchive, noteArchive, hub, log.Logger)

	// Transfer substrate: in-process custody bank
	bank := transfer.NewBank(cfg.Ledger.Custody)

	// Settlement ledger
	ldg, err := ledger.New(ledger.Config{
		Owner:        cfg.Ledger.Owner,
		Writer:       cfg.Ledger.Writer,
		FeeRecipient: cfg.Ledger.FeeRecipient,
		FeeRateBps:   cfg.Ledger.FeeRateBps,
		Transferer:   bank,
		Sink:         archiveService,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ledger")
	}

	// Initialize services
	settlementService := service.NewSettlementService(ldg, cfg.Ledger.WonUnitMultiplier, log.Logger)
	adminService := service.NewAdminService(ldg, log.Logger)

	identityService := service.NewIdentityService(cfg.OperatorSubjects)
	identityService.AddKey(cfg.WriterAPIKey, cfg.Ledger.Writer)
	identityService.AddKey(cfg.AdminAPIKey, cfg.Ledger.Owner)

	// Initialize auth middleware
	apiKeyAuth := middleware.NewAPIKeyAuthMiddleware(identityService)
	var jwtAuth *middleware.AuthMiddleware
	if cfg.Auth0Domain != "" {
		jwtAuth, err = middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, identityService)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create auth middleware")
		}
	}
	dualAuth := middleware.NewDualAuthMiddleware(jwtAuth, apiKeyAuth)
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Initialize handlers
	settlementHandler := handler.NewSettlementHandler(settlementService)
	donationHandler := handler.NewDonationHandler(settlementService, receiptArchive)
	adminHandler := handler.NewAdminHandler(adminService)
	ledgerHandler := handler.NewLedgerHandler(ldg, adminService, receiptArchive, noteArchive)
	wsHandler := handler.NewWebSocketHandler(hub, nil, cfg.CORSOrigins)

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
	handler.RegisterRoutes(e, dualAuth, rateLimiter, settlementHandler, donationHandler, adminHandler, ledgerHandler, wsHandler)

	// Start background archive worker
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	archiveService.Start(workerCtx)

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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Flush queued archive writes before exit
	archiveService.Stop()

	log.Info().Msg("Server exited")
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
