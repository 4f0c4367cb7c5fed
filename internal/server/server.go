// Package server exposes the delegation workflow over HTTP.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cyphera/cyphera-delegation/internal/handlers"
	"github.com/cyphera/cyphera-delegation/libs/go/interfaces"
	"github.com/cyphera/cyphera-delegation/libs/go/logger"
	"github.com/cyphera/cyphera-delegation/libs/go/middleware"
	"github.com/cyphera/cyphera-delegation/libs/go/types/business"
)

const shutdownTimeout = 5 * time.Second

// Options configures the HTTP server
type Options struct {
	Addr    string
	ChainID uint64
	// Defaults fills in fields a request body leaves out.
	Defaults business.DelegationRequest
	// RequestsPerSecond and Burst limit install and revoke calls per client.
	RequestsPerSecond float64
	Burst             int
	// AllowedOrigins enables CORS for browser clients. Empty disables it.
	AllowedOrigins []string
}

// Server serves delegation requests for a single owner account
type Server struct {
	router  *gin.Engine
	limiter *middleware.RateLimiter
	http    *http.Server
}

// New builds the router. Install and revoke for the owner run one at a time.
func New(runner interfaces.DelegationRunner, opts Options) *Server {
	serialized := newSerializedRunner(runner)
	limiter := middleware.NewRateLimiter(opts.RequestsPerSecond, opts.Burst)

	router := gin.New()
	router.Use(gin.Recovery())
	if len(opts.AllowedOrigins) > 0 {
		router.Use(configureCORS(opts.AllowedOrigins))
	}
	router.Use(middleware.CorrelationIDMiddleware())
	router.Use(middleware.RequestLoggingMiddleware())

	health := handlers.NewHealthHandler(runner.Owner(), opts.ChainID)
	delegations := handlers.NewDelegationHandler(serialized, opts.Defaults)

	router.GET("/health", health.Health)

	api := router.Group("/api/delegations")
	{
		api.GET("/:address", delegations.GetDelegation)
		api.POST("", limiter.Middleware(), delegations.InstallDelegation)
		api.DELETE("", limiter.Middleware(), delegations.RevokeDelegation)
	}

	return &Server{
		router:  router,
		limiter: limiter,
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           router,
			ReadHeaderTimeout: 20 * time.Second,
		},
	}
}

func configureCORS(origins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = origins
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-API-Key", middleware.CorrelationIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.CorrelationIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	return cors.New(corsConfig)
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		s.limiter.Stop()
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests. Request contexts derive from ctx, so an install or
// revoke still waiting for inclusion returns its pending outcome, with the
// transaction hash, inside the drain window.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.limiter.Stop()
	s.http.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Delegation server starting", zap.String("addr", ln.Addr().String()))
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down delegation server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Close stops background work without serving.
func (s *Server) Close() {
	s.limiter.Stop()
}
