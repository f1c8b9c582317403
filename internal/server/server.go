// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects handlers, middleware, and
// routes, and owns the resources they share (the database and the upload
// directory).
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New creates:
//	  sqlite.DB ──┬→ AuthService    → AuthHandler
//	              ├→ TravelService  → TravelHandler
//	              ├→ FeedService    → FeedHandler
//	              ├→ ProfileService → UserHandler
//	  LocalStore ─┴→ PhotoService   → PhotoHandler
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/travel-journal/internal/auth"
	"github.com/sakif/travel-journal/internal/config"
	"github.com/sakif/travel-journal/internal/handler"
	"github.com/sakif/travel-journal/internal/middleware"
	sqliteRepo "github.com/sakif/travel-journal/internal/repository/sqlite"
	"github.com/sakif/travel-journal/internal/service"
	"github.com/sakif/travel-journal/internal/storage"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. Start closes it after graceful
// shutdown; code that never calls Start (tests) calls Close.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	store   *storage.LocalStore
	metrics *middleware.Metrics
}

// New opens the database (applying migrations), prepares the upload
// directory and builds the router.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.MaxUploadBytes)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing upload dir: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		store:   store,
		metrics: middleware.NewMetrics(),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /metrics                           Prometheus
//	GET    /uploads/*                         photo files
//	GET    /api/health
//	POST   /api/auth/register | /api/auth/login
//	GET    /api/auth/me                       (auth)
//	GET    /api/auth/github/login | callback  (only when configured)
//	GET    /api/feed | /api/feed/countries
//	GET    /api/feed/travel/{id}              (optional auth)
//	*      /api/travels/...                   (auth)
//	GET    /api/users/{username}              (optional auth)
//	PUT    /api/users/profile                 (auth)
//	GET    /api/users/{userId}/stats          (auth)
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added:
//  1. RequestID: unique id per request, echoed in logs
//  2. RealIP: client IP from proxy headers
//  3. Logger: one line per request with timing
//  4. Recoverer: turns a panic into a 500 (inside Logger, so it gets logged)
//  5. Metrics: counts and latencies per route
//  6. CORS: answers preflights before any route matching
func (s *Server) setupRoutes() error {
	cfg := s.config
	exposeDetails := !cfg.IsProduction()

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(s.metrics.Middleware)
	s.router.Use(middleware.NewCORSHandler(cfg.Server.CORSOrigins))

	// === Auth primitives ===
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if cfg.Auth.GitHub.Enabled() {
		github = auth.NewGitHubProvider(cfg.Auth.GitHub.ClientID, cfg.Auth.GitHub.ClientSecret, cfg.Auth.GitHub.CallbackURL)
	}

	// === Services ===
	// s.db implements every repository interface; services only see the
	// interfaces.
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	travelService := service.NewTravelService(s.db, s.db, s.store, s.logger)
	feedService := service.NewFeedService(s.db, s.logger)
	profileService := service.NewProfileService(s.db, s.db, s.logger)
	photoService := service.NewPhotoService(s.db, s.db, s.store, s.logger)

	// === Handlers ===
	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	authHandler := handler.NewAuthHandler(authService, github, s.logger, exposeDetails)
	travelHandler := handler.NewTravelHandler(travelService, s.logger, exposeDetails)
	feedHandler := handler.NewFeedHandler(feedService, s.logger, exposeDetails)
	userHandler := handler.NewUserHandler(profileService, s.logger, exposeDetails)
	photoHandler := handler.NewPhotoHandler(photoService, cfg.Storage.MaxUploadBytes, s.logger, exposeDetails)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)
	// JSON bodies are capped; the photo upload sets its own larger limit.
	limitBody := middleware.MaxBodySize(cfg.Server.MaxBodyBytes)

	// === Operational routes ===
	s.router.Handle("/metrics", s.metrics.Handler())
	s.router.Handle(storage.URLPrefix+"*",
		http.StripPrefix(storage.URLPrefix, http.FileServer(http.Dir(s.store.Dir()))))

	// === API routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HandleHealth)

		r.Route("/auth", func(r chi.Router) {
			r.With(limitBody).Post("/register", authHandler.HandleRegister)
			r.With(limitBody).Post("/login", authHandler.HandleLogin)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
			if github != nil {
				r.Get("/github/login", authHandler.HandleGitHubLogin)
				r.Get("/github/callback", authHandler.HandleGitHubCallback)
			}
		})

		r.Route("/feed", func(r chi.Router) {
			r.Get("/", feedHandler.HandleList)
			r.Get("/countries", feedHandler.HandleCountries)
			r.With(optionalAuth).Get("/travel/{id}", travelHandler.HandleGet)
		})

		r.Route("/travels", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(limitBody).Post("/", travelHandler.HandleCreate)
			r.Get("/my", travelHandler.HandleListMine)
			r.Get("/user/{userId}", travelHandler.HandleListForUser)
			r.Get("/{id}", travelHandler.HandleGet)
			r.With(limitBody).Put("/{id}", travelHandler.HandleUpdate)
			r.Delete("/{id}", travelHandler.HandleDelete)
			r.Post("/{id}/photos", photoHandler.HandleUpload)
			r.Delete("/{id}/photos/{photoId}", photoHandler.HandleDelete)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(requireAuth, limitBody).Put("/profile", userHandler.HandleUpdateProfile)
			r.With(requireAuth).Get("/{userId}/stats", userHandler.HandleStats)
			r.With(optionalAuth).Get("/{username}", userHandler.HandleProfile)
		})
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (shutdown_timeout)
//  3. Close the database connection (flushes WAL, releases file lock)
//
// Start returns when ctx is cancelled, on SIGINT/SIGTERM, or when the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second, // photo uploads
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("environment", s.config.Server.Environment),
			slog.String("database", s.config.Database.Path),
			slog.Bool("github", s.config.Auth.GitHub.Enabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
