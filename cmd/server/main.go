package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hams/portal-server-go/internal/config"
	"github.com/hams/portal-server-go/internal/database"
	"github.com/hams/portal-server-go/internal/handler"
	"github.com/hams/portal-server-go/internal/middleware"
	"github.com/hams/portal-server-go/internal/model"
	"github.com/hams/portal-server-go/internal/redis"
	"github.com/hams/portal-server-go/internal/repository"
	"github.com/hams/portal-server-go/internal/service"
	"github.com/hams/portal-server-go/internal/session"
	"github.com/hams/portal-server-go/internal/upstream"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	// The credential store survives restarts when postgres is configured;
	// otherwise sessions live only as long as the process.
	var credRepo repository.CredentialRepository
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		if err := db.Ping(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		if err := db.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to ensure schema")
		}
		cancel()
		log.Info().Msg("database connected")

		credRepo = repository.NewCredentialRepository(db.DB)
	} else {
		log.Warn().Msg("DATABASE_URL not set; using in-memory credential store")
		credRepo = repository.NewMemoryCredentialRepository()
	}

	var loginLimiter *middleware.LoginRateLimiter
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")

		limiter := service.NewRateLimiter(redisClient.Client, cfg.LoginRateLimitPerMinute, config.LoginRateLimitWindow)
		loginLimiter = middleware.NewLoginRateLimiter(limiter, cfg.LoginRateLimitPerMinute, config.LoginRateLimitWindow)
	} else {
		log.Warn().Msg("REDIS_URL not set; login throttling is per-instance only")
		loginLimiter = middleware.NewLoginRateLimiter(nil, cfg.LoginRateLimitPerMinute, config.LoginRateLimitWindow)
	}

	up := upstream.NewClient(cfg)

	sessionManager := session.NewManager(credRepo)
	sessionManager.StartPeriodicCheck(cfg.SessionCheckInterval())
	defer sessionManager.Close()

	sessionMiddleware := middleware.NewSessionMiddleware(sessionManager, cfg.SessionSecret, isProduction)
	csrfMiddleware := middleware.NewCSRFMiddleware(isProduction)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	authHandler := handler.NewAuthHandler(up, sessionManager, sessionMiddleware)
	patientHandler := handler.NewPatientHandler(up, cfg)
	doctorHandler := handler.NewDoctorHandler(up, cfg)
	notificationHandler := handler.NewNotificationHandler(up)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(middleware.BodyLimit)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(csrfMiddleware.Handler)

		r.Mount("/auth", authHandler.Routes(loginLimiter))

		r.Route("/patient", func(r chi.Router) {
			r.Use(sessionMiddleware.Handler)
			r.Use(middleware.RequireRole(model.RolePatient))
			r.Mount("/", patientHandler.Routes())
		})

		r.Route("/doctor", func(r chi.Router) {
			r.Use(sessionMiddleware.Handler)
			r.Use(middleware.RequireRole(model.RoleDoctor))
			r.Mount("/", doctorHandler.Routes())
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(sessionMiddleware.Handler)
			r.Mount("/", notificationHandler.Routes())
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Handle("/*", handler.NewSPAHandler(cfg.StaticDir))
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
