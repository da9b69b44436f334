// Package main is the entry point for the NexLevel Speech API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/auth"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/config"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/database"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/http/handlers"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/http/mw"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/http/routes"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/logging"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/payment"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/repository"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/service"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/shutdown"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/synth"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/version"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	logger := logging.SetDefault()

	v := version.Get()
	logger.Info("starting nexlevel-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, database.Options{
		DSN:            cfg.DatabaseURL,
		TursoURL:       cfg.TursoURL,
		TursoAuthToken: cfg.TursoAuthToken,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := database.Migrate(ctx, db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	repos := repository.NewRepositories(db)
	registry := payment.NewRegistryFromConfig(cfg, logger)
	synthesizer := synth.NewClient(cfg.SynthAPIURL, cfg.SynthAPIKey)

	services, err := service.NewServices(cfg, repos, registry, synthesizer, logger)
	if err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	verifier := auth.NewVerifier(cfg.JWTSecret, auth.WithIssuer(cfg.JWTIssuer))

	if cfg.CleanupEnabled {
		go services.Cleanup.RunScheduledCleanup(ctx, cfg.CleanupStaleAfter, cfg.CleanupInterval)
		logger.Info("cleanup service started",
			"stale_after", cfg.CleanupStaleAfter.String(),
			"interval", cfg.CleanupInterval.String(),
		)
	}

	// Runtime log filters live in the media bucket.
	var filterLoader *logging.FilterLoader
	if services.Storage.IsEnabled() {
		filterLoader = logging.NewFilterLoader(logging.FilterLoaderConfig{
			Client: services.Storage.Client(),
			Bucket: services.Storage.Bucket(),
			Logger: logger,
		})
		filterLoader.Start(ctx)
	}

	idleMonitor := shutdown.NewIdleMonitor(shutdown.IdleMonitorConfig{
		Timeout:      cfg.IdleTimeout,
		Logger:       logger,
		ExcludePaths: []string{"/healthz", "/readyz"},
		Busy:         func() bool { return services.Generation.InFlight() > 0 },
	})

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mw.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(idleMonitor.Middleware)
	router.Use(mw.APIVersion())
	router.Use(mw.Timeout(mw.DefaultTimeoutConfig(cfg.SynthTimeout)))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-API-Version", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limit by IP; authenticated users get per-user limits below.
	router.Use(httprate.LimitByIP(300, time.Minute))

	// Provider and identity webhooks: raw body, signature checked by the handler.
	paymentWebhook := handlers.NewPaymentWebhookHandler(services.Settlement, registry, logger)
	router.With(mw.RateLimitByIP(cfg.IPRequestsPerMinute)).
		Post("/api/v1/payments/webhook/{provider}", paymentWebhook.HandleWebhook)

	if cfg.AccountWebhookSecret != "" {
		accountWebhook := handlers.NewAccountWebhookHandler(cfg.AccountWebhookSecret, services.Account, logger)
		router.Post("/api/v1/webhooks/accounts", accountWebhook.HandleWebhook)
		logger.Info("account webhook endpoint enabled")
	} else {
		logger.Warn("ACCOUNT_WEBHOOK_SECRET not set - new users will not be provisioned")
	}

	// Local-disk media is served by the API itself.
	if !services.Storage.IsEnabled() {
		fs := http.StripPrefix(service.MediaPathPrefix, http.FileServer(http.Dir(services.Storage.LocalDir())))
		router.Get(service.MediaPathPrefix+"*", fs.ServeHTTP)
	}

	router.Group(func(r chi.Router) {
		r.Use(mw.OptionalAuth(verifier))
		r.Use(mw.RateLimitByUser(mw.RateLimitConfig{
			UserRequestsPerMinute: cfg.UserRequestsPerMinute,
			IPRequestsPerMinute:   cfg.IPRequestsPerMinute,
		}))

		api := humachi.New(r, routes.NewHumaConfig(cfg.BaseURL))
		api.UseMiddleware(mw.HumaAuth(api, verifier))

		routes.Register(api, &routes.Handlers{
			HealthCheck: handlers.HealthCheck,
			Livez:       handlers.Livez,
			Readyz:      handlers.Readyz(db),
			TTS:         handlers.NewTTSHandler(services.Generation),
			Voice:       handlers.NewVoiceHandler(services.Voice),
			Credit:      handlers.NewCreditHandler(services.Credit),
			Usage:       handlers.NewUsageHandler(services.Usage),
			Account:     handlers.NewAccountHandler(services.Account),
			Payment:     handlers.NewPaymentHandler(services.Checkout),
		})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.SynthTimeout + 60*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	idleMonitor.Start()

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-sigChan:
		case <-idleMonitor.Done():
		}

		logger.Info("shutting down server")
		idleMonitor.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Drain requests before stopping background work so in-flight
		// generations can still record their outcome.
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		cancel()
		if filterLoader != nil {
			filterLoader.Stop()
		}
	}()

	logger.Info("starting server",
		"port", cfg.Port,
		"base_url", cfg.BaseURL,
		"payment_providers", registry.Names(),
		"object_storage", services.Storage.IsEnabled(),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	<-shutdownDone
	logger.Info("server stopped")
}
