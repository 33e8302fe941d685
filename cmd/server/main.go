package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"guestgate/config"
	_ "guestgate/docs"
	"guestgate/internal/adapters/auth"
	"guestgate/internal/adapters/email"
	httpdelivery "guestgate/internal/delivery/http"
	"guestgate/internal/delivery/http/controllers"
	"guestgate/internal/delivery/http/middleware"
	"guestgate/internal/repository/postgres"
	"guestgate/internal/services"
)

// @title GuestGate API
// @version 1.0
// @description Role-based event access management: capacity tiers, event quotas, guest lists, and door check-in.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("db ping: %v", err)
	}

	userRepo := postgres.NewUserRepository(db)
	tierRepo := postgres.NewTierRepository(db)
	quotaRepo := postgres.NewQuotaRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	organizerRepo := postgres.NewOrganizerRepository(db)
	guestRepo := postgres.NewGuestRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	reportRepo := postgres.NewReportRepository(db)

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	issuer := auth.NewJWTIssuer(cfg.JWTSecret)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Mailer.Provider,
		FromAddress: cfg.Mailer.FromAddress,
		FromName:    cfg.Mailer.FromName,
		SES: email.SESConfig{
			Region:             cfg.Mailer.SESRegion,
			AccessKeyID:        cfg.Mailer.SESAccessKeyID,
			SecretAccessKey:    cfg.Mailer.SESSecretAccessKey,
			InsecureSkipVerify: cfg.Mailer.InsecureSkipVerify,
		},
	})
	if err != nil {
		log.Fatalf("mailer: %v", err)
	}

	timeout := cfg.ContextTimeout
	userService := services.NewUserService(userRepo, hasher, issuer, timeout)
	auditService := services.NewAuditService(auditRepo, userService, timeout)
	tierService := services.NewTierService(tierRepo, userService, auditService, timeout)
	quotaService := services.NewQuotaService(quotaRepo, tierRepo, eventRepo, userService, auditService, timeout)
	eventService := services.NewEventService(eventRepo, organizerRepo, quotaRepo, quotaService, userService, userRepo, auditService, mailer, logger, timeout)
	guestService := services.NewGuestService(guestRepo, eventRepo, tierRepo, organizerRepo, userService, auditService, logger, timeout)
	reportService := services.NewReportService(reportRepo, auditRepo, eventRepo, guestRepo, quotaService, userService, timeout)

	mux := httpdelivery.NewRouter(httpdelivery.Controllers{
		Auth:    controllers.NewAuthController(logger, userService),
		Tier:    controllers.NewTierController(logger, tierService),
		Quota:   controllers.NewQuotaController(logger, quotaService),
		Event:   controllers.NewEventController(logger, eventService),
		Guest:   controllers.NewGuestController(logger, guestService),
		CheckIn: controllers.NewCheckInController(logger, guestService),
		Report:  controllers.NewReportController(logger, reportService),
		Audit:   controllers.NewAuditController(logger, auditService),
	}, verifier, logger)

	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
