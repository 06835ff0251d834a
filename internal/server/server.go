// Package server is the composition root: it builds every dependency, mounts
// the routes and owns the shutdown order.
//
// DEPENDENCY FLOW:
//
//	config.Config → sqlite.DB → services → handlers → chi router
//	                          ↘ SessionStore (janitor)
//	                          ↘ TokenRefreshJob (cron)
//
// Keeping this out of main.go lets tests build a full server against
// ":memory:" and drive it through httptest.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/social-sync/internal/auth"
	"github.com/sakif/social-sync/internal/config"
	"github.com/sakif/social-sync/internal/handler"
	"github.com/sakif/social-sync/internal/jobs"
	"github.com/sakif/social-sync/internal/middleware"
	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/provider"
	sqliteRepo "github.com/sakif/social-sync/internal/repository/sqlite"
	"github.com/sakif/social-sync/internal/service"
)

// limiterTTL is how long an idle client's rate-limit bucket is kept.
const limiterTTL = 10 * time.Minute

// Server owns the HTTP router and every long-lived resource behind it.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger

	db       *sqliteRepo.DB
	sessions *auth.SessionStore
	sync     *service.SyncService
	refresh  *jobs.TokenRefreshJob
}

// New opens the database, seeds the platform catalog, fails sync runs a
// previous process left unfinished and wires the routes.
// Nothing runs in the background until Start or Run.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if !strings.Contains(cfg.DBPath, ":memory:") {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Platforms().Seed(context.Background(), model.DefaultPlatforms); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding platforms: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.SessionSecret)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		sessions: auth.NewSessionStore(cfg.SessionTTL, cfg.SessionCheckPeriod, logger),
	}
	s.setupRoutes(auth.NewManager(s.sessions, tokens, cfg.CookieSecure))

	if _, err := s.sync.RecoverInterrupted(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("recovering interrupted syncs: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes builds services and handlers and mounts them.
//
// ROUTES:
//
//	GET  /healthz
//	POST /api/auth/register | /api/auth/login   (rate limited)
//	POST /api/auth/logout
//	GET  /api/auth/status                       (optional session)
//	GET  /api/platforms
//	---- session required ----
//	GET  /api/connections
//	POST /api/connections/{platformId}/connect | /disconnect
//	GET  /api/connections/{platformId}/authorize-url
//	GET  /api/following
//	POST /api/sync
//	GET  /api/sync/status
//	GET  /api/export
//
// MIDDLEWARE ORDER MATTERS:
// RequestID and RealIP run first so Logger and RateLimit see their results;
// Recoverer sits inside Logger so a panic is still logged as a 500.
func (s *Server) setupRoutes(sessions *auth.Manager) {
	providers := provider.NewMockRegistry(s.config.AppURL, platformCodes()...)

	authSvc := service.NewAuthService(s.db.Users(), s.db.Platforms(), s.db.Connections(),
		auth.NewPasswordService(), s.logger)
	connSvc := service.NewConnectionService(s.db.Users(), s.db.Platforms(), s.db.Connections(), providers, s.logger)
	followingSvc := service.NewFollowingService(s.db.Platforms(), s.db.Following(), s.logger)
	exportSvc := service.NewExportService(s.db.Platforms(), s.db.Following(), s.logger)
	s.sync = service.NewSyncService(s.db.Platforms(), s.db.Connections(), s.db.Following(), s.db.SyncHistory(),
		providers, service.SyncOptions{Latency: s.config.SyncLatency, ItemDelay: s.config.SyncItemDelay}, s.logger)
	s.refresh = jobs.NewTokenRefreshJob(s.db.Connections(), connSvc, s.logger)

	authHandler := handler.NewAuthHandler(authSvc, sessions, s.logger)
	platformHandler := handler.NewPlatformHandler(s.db.Platforms(), s.logger)
	connHandler := handler.NewConnectionHandler(connSvc, s.logger)
	followingHandler := handler.NewFollowingHandler(followingSvc, s.logger)
	syncHandler := handler.NewSyncHandler(s.sync, s.logger)
	exportHandler := handler.NewExportHandler(exportSvc, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	limiter := middleware.NewLimiterStore(s.config.AuthRatePerMin, s.config.AuthRateBurst, limiterTTL)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(limiter)).Post("/register", authHandler.HandleRegister)
			r.With(middleware.RateLimit(limiter)).Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.With(auth.OptionalAuth(sessions)).Get("/status", authHandler.HandleStatus)
		})

		r.Get("/platforms", platformHandler.HandleList)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(sessions))

			r.Get("/connections", connHandler.HandleList)
			r.Post("/connections/{platformId}/connect", connHandler.HandleConnect)
			r.Post("/connections/{platformId}/disconnect", connHandler.HandleDisconnect)
			r.Get("/connections/{platformId}/authorize-url", connHandler.HandleAuthorizeURL)

			r.Get("/following", followingHandler.HandleList)

			r.Post("/sync", syncHandler.HandleStart)
			r.Get("/sync/status", syncHandler.HandleStatus)

			r.Get("/export", exportHandler.HandleExport)
		})
	})
}

func platformCodes() []string {
	codes := make([]string, 0, len(model.DefaultPlatforms))
	for _, p := range model.DefaultPlatforms {
		codes = append(codes, p.Code)
	}
	return codes
}

// Start runs the server until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run starts the background workers and serves HTTP until ctx is done, then
// shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.refresh.Start(s.config.TokenRefreshSchedule); err != nil {
		s.Close()
		return err
	}
	s.sessions.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", s.config.AppURL),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			runErr = fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	s.Close()
	return runErr
}

// Close releases everything after the HTTP server has stopped, in order:
// cron, running syncs, the session janitor, then the database.
func (s *Server) Close() {
	s.refresh.Stop()
	s.sync.Close()
	s.sessions.Stop()

	if err := s.db.Close(); err != nil {
		s.logger.Error("closing database", slog.String("error", err.Error()))
	}
	s.logger.Info("server stopped")
}
