package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/auth"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Transactions *services.TransactionService
	Reports      *services.ReportService
	Store        Pinger
	// ReportCache is optional; when set its counters appear in /metrics.
	ReportCache interface{ Stats() cache.Stats }
	// Authenticator defaults to a HeaderAuthenticator on cfg.AuthHeader.
	Authenticator auth.Authenticator
	Logger        *applog.Logger
}

type Server struct {
	http.Server

	transactions *services.TransactionService
	reports      *services.ReportService
	store        Pinger
	reportCache  interface{ Stats() cache.Stats }
	logger       *applog.Logger

	requestTimeout time.Duration

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	transactionsCreated atomic.Int64
	transactionsUpdated atomic.Int64
	transactionsDeleted atomic.Int64
	reportsGenerated    atomic.Int64
	uptime              time.Time
}

// NewServer wires routes and middleware. Everything under /api requires an
// authenticated owner; health and metrics endpoints do not.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	detector, err := security.NewDetector(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	authenticator := deps.Authenticator
	if authenticator == nil {
		authenticator = auth.NewHeaderAuthenticator(cfg.AuthHeader)
	}

	s := &Server{
		Server: http.Server{
			Addr:              ":" + cfg.Port,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
			IdleTimeout:       120 * time.Second,
		},
		transactions:     deps.Transactions,
		reports:          deps.Reports,
		store:            deps.Store,
		reportCache:      deps.ReportCache,
		logger:           logger.WithComponent(applog.ComponentHTTP),
		requestTimeout:   cfg.RequestTimeout,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	api.HandleFunc("GET /api/transactions", s.handleListTransactions)
	api.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	api.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	api.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	api.HandleFunc("GET /api/report", s.handleReport)
	api.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "Route not found").Write(w)
	})

	protected := chain(api,
		auth.Middleware(authenticator, func(w http.ResponseWriter, r *http.Request) {
			ErrorResponse(http.StatusUnauthorized, "Not authorized").Write(w)
		}),
		applog.Middleware(logger, trace.FromRequest, ownerOf),
		s.withTimeout,
	)

	mux := http.NewServeMux()
	mux.Handle("/api/", protected)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.Handler = chain(mux,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		s.traceMiddleware.Middleware,
		s.securityDetector.Middleware,
		s.rateLimiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, detector.ExtractClientIP(r),
				applog.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
		}),
	)

	return s, nil
}

// chain applies middleware so the first one listed runs first.
func chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// withTimeout bounds the store work of a single request.
func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Shutdown stops background goroutines and drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
