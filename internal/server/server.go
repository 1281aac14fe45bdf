package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rosterhq/roster/internal/config"
	"github.com/rosterhq/roster/internal/handler"
	"github.com/rosterhq/roster/internal/model"
	"github.com/rosterhq/roster/internal/openapi"
	"github.com/rosterhq/roster/internal/server/middleware"
	"github.com/rosterhq/roster/internal/service"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host                string
	Port                int
	ShutdownTimeout     time.Duration
	CORSOrigins         []string
	LoginRatePerMinute  int
	// UploadRatePerMinute caps admin workbook uploads per client IP.
	UploadRatePerMinute int
	MaxUploadBytes      int64
	// RequireToken puts the user, upload and password endpoints behind a
	// Bearer token issued by login.
	RequireToken bool
	// PublicURL is advertised in the OpenAPI document. Empty means derive it
	// from the request.
	PublicURL string
	Version   string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:                "0.0.0.0",
		Port:                8081,
		ShutdownTimeout:     30 * time.Second,
		CORSOrigins:         []string{"http://localhost:5173"},
		LoginRatePerMinute:  30,
		UploadRatePerMinute: 10,
		MaxUploadBytes:      handler.DefaultMaxUploadBytes,
	}
}

// Server is the top-level HTTP server for roster. It owns the Chi router,
// the configuration store, and the services behind the handlers.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *config.Store
	admins     *service.AdminService
	users      *service.UserService
	authSvc    *service.AuthService
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, store *config.Store, admins *service.AdminService, users *service.UserService, authSvc *service.AuthService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		store:   store,
		admins:  admins,
		users:   users,
		authSvc: authSvc,
		logger:  logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	sysHandler := handler.NewSystemHandler(s.store, s.cfg.Version)
	authHandler := handler.NewAuthHandler(s.admins, s.logger, s.cfg.MaxUploadBytes)
	userHandler := handler.NewUserHandler(s.users, s.logger)

	// --- Health checks (no auth required) ---
	r.Get("/healthz", sysHandler.Healthz)
	r.Get("/readyz", sysHandler.Readyz)

	// --- OpenAPI spec (no auth required) ---
	r.Get("/openapi.json", handler.NewOpenAPIHandler(s.cfg.PublicURL, s.cfg.Version).ServeSpec)

	// --- API routes ---
	r.Route(openapi.BasePath, func(r chi.Router) {
		r.Get("/health", sysHandler.Health)
		r.With(middleware.LoginRateLimit(s.cfg.LoginRatePerMinute)).Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			if s.cfg.RequireToken {
				r.Use(middleware.Authenticate(s.authSvc))
			}

			r.Post("/change-password", authHandler.ChangePassword)
			r.Post("/force-change-password", authHandler.ForceChangePassword)

			upload := r.With(middleware.RateLimit(s.cfg.UploadRatePerMinute))
			if s.cfg.RequireToken {
				upload = upload.With(middleware.RequireRole(model.RoleSuperAdmin))
			}
			upload.Post("/upload-admins", authHandler.UploadAdmins)

			r.Post("/add-user", userHandler.AddUser)
			r.Delete("/delete-user", userHandler.DeleteUser)
			r.Put("/edit-user", userHandler.EditUser)
			r.Put("/rename-user", userHandler.RenameUser)
			r.Get("/admin-users", userHandler.ListUsers)
		})
	})

	s.router = r
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before closing the database connection.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Listen for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "require_token", s.cfg.RequireToken)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownTimeout := s.cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := s.store.Close(); err != nil {
		s.logger.Warn("closing store", "error", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
