package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/teemow/planner/internal/agenda"
	"github.com/teemow/planner/internal/agent"
	"github.com/teemow/planner/internal/instrumentation"
	"github.com/teemow/planner/internal/logging"
	"github.com/teemow/planner/internal/session"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultAddr            = ":8000"
	DefaultChatRate        = 2.0
	DefaultChatBurst       = 5
	DefaultMaxBodyBytes    = 1 << 20
	DefaultShutdownTimeout = 30 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
)

// DefaultAllowedOrigins are the browser origins allowed by CORS when none
// are configured.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

// Runner executes one planning run. *agent.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, history []session.Message, sc *session.Context) (*agent.Result, error)
}

// ListerFactory builds a calendar lister for one request credential.
type ListerFactory func(ctx context.Context, credential string) (agenda.Lister, error)

// Config configures the HTTP server.
type Config struct {
	Addr string

	// AllowedOrigins is the CORS allow-list.
	AllowedOrigins []string

	// ChatRate and ChatBurst bound /chat requests per client IP.
	ChatRate  float64
	ChatBurst int

	// DefaultTimezone is used by /chat when the request names none.
	DefaultTimezone string

	// DisplayLocation is the zone /events/upcoming labels days in.
	DisplayLocation *time.Location

	// UpcomingDays is the number of days /events/upcoming covers.
	UpcomingDays int

	MaxBodyBytes    int64
	ShutdownTimeout time.Duration

	Runner  Runner
	Listers ListerFactory
	Health  *HealthChecker
	Clock   func() time.Time
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Server is the planner's HTTP API.
type Server struct {
	cfg     Config
	limiter *IPRateLimiter
	handler http.Handler
	logger  *slog.Logger
}

// New validates cfg and builds the router.
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New("runner is required")
	}
	if cfg.Listers == nil {
		return nil, errors.New("calendar lister factory is required")
	}

	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = DefaultAllowedOrigins
	}
	if cfg.ChatRate <= 0 {
		cfg.ChatRate = DefaultChatRate
	}
	if cfg.ChatBurst <= 0 {
		cfg.ChatBurst = DefaultChatBurst
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "UTC"
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.UTC
	}
	if cfg.UpcomingDays <= 0 {
		cfg.UpcomingDays = agenda.DefaultDays
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Health == nil {
		cfg.Health = NewHealthChecker("", cfg.DefaultTimezone)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		limiter: NewIPRateLimiter(cfg.ChatRate, cfg.ChatBurst, 0),
		logger:  logging.WithOperation(cfg.Logger, "http"),
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(httpMetrics(s.cfg.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.cfg.Health.RegisterHealthEndpoints(r)

	r.With(s.limiter.Middleware()).Post("/chat", s.handleChat)
	r.Get("/events/upcoming", s.handleUpcoming)

	return r
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: DefaultReadTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		ErrorLog:          logging.StdLogger(s.logger, slog.LevelWarn),
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.limiter.Run(sweepCtx)

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", ln.Addr().String()))
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server stopped with error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutdown signal received, draining http server")
	s.cfg.Health.MarkShuttingDown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
