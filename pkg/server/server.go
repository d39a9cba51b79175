package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/appboardguru/boardguru/pkg/cache"
	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/logging"
	"github.com/appboardguru/boardguru/pkg/realtime"
	"github.com/appboardguru/boardguru/pkg/server/middleware"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/service"
)

// ShutdownTimeout bounds the graceful shutdown of Start
const ShutdownTimeout = 15 * time.Second

type Server struct {
	Config        *config.Config
	Router        *mux.Router
	DB            *gorm.DB
	Stores        store.Stores
	Services      *service.Services
	Hub           *realtime.Hub
	Cache         *cache.Manager
	JWTMiddleware *middleware.JWTAuthenticator
	RateLimiter   *middleware.RateLimiter
	srv           *http.Server
}

// Options are the dependencies of a Server
type Options struct {
	DB        *gorm.DB
	Stores    store.Stores
	Services  *service.Services
	Hub       *realtime.Hub
	Cache     *cache.Manager
	JWTSecret []byte
	Host      string
	Port      string
}

func NewServer(opts Options) *Server {
	cfg := config.Get()

	router := mux.NewRouter().UseEncodedPath()
	router.Use(middleware.RequestID, middleware.Recover, middleware.Metrics)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSAllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{middleware.RequestIDHeader, "Retry-After"}),
	)

	srv := &http.Server{
		Handler:           handlers.CombinedLoggingHandler(logging.Writer(), cors(router)),
		Addr:              net.JoinHostPort(opts.Host, opts.Port),
		ReadHeaderTimeout: 10 * time.Second,
		// uploads and websockets need more than the usual write budget
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	return &Server{
		Config:        cfg,
		Router:        router,
		DB:            opts.DB,
		Stores:        opts.Stores,
		Services:      opts.Services,
		Hub:           opts.Hub,
		Cache:         opts.Cache,
		JWTMiddleware: middleware.NewJWTAuthenticator(opts.JWTSecret),
		RateLimiter:   middleware.NewRateLimiter(),
		srv:           srv,
	}
}

// Addr is the listen address
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Handler returns the root handler, including access logging and CORS
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves until ctx is canceled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.srv.Addr).Msg("server listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
