package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"hisob/internal/auth"
	"hisob/internal/log"
	"hisob/internal/middleware/ratelimit"
	"hisob/internal/middleware/trace"
	"hisob/internal/services"
	"hisob/internal/storage"
)

type Server struct {
	http.Server

	repo      *storage.SQLiteRepository
	ledger    *services.LedgerService
	debts     *services.DebtService
	analytics *services.AnalyticsService
	tokens    *auth.TokenManager

	bcryptCost int

	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	shutdownOnce sync.Once
}

// Options tunes the request-hardening layer around the handlers.
type Options struct {
	BcryptCost   int
	RateLimitRPM int
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. Everything under /api except register and login sits behind
// the bearer-token middleware.
func NewServer(addr string, repo *storage.SQLiteRepository, ledger *services.LedgerService, debts *services.DebtService, analytics *services.AnalyticsService, tokens *auth.TokenManager, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		repo:       repo,
		ledger:     ledger,
		debts:      debts,
		analytics:  analytics,
		tokens:     tokens,
		bcryptCost: opts.BcryptCost,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitRPM,
			CleanupInterval:   5 * time.Minute,
		}),
		tracer: trace.NewMiddleware(clientIP),
	}
	s.Server = http.Server{
		Addr:    addr,
		Handler: s.tracer.Handler(mux),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/register", s.secured(s.handleRegister))
	mux.HandleFunc("POST /api/login", s.secured(s.handleLogin))

	mux.HandleFunc("GET /api/income", s.protected(s.handleListIncome))
	mux.HandleFunc("POST /api/income", s.protected(s.handleAddIncome))
	mux.HandleFunc("GET /api/expenses", s.protected(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.protected(s.handleAddExpense))

	mux.HandleFunc("GET /api/debts", s.protected(s.handleListDebts))
	mux.HandleFunc("POST /api/debts", s.protected(s.handleCreateDebt))
	mux.HandleFunc("POST /api/debts/{id}/payment", s.protected(s.handleRecordPayment))

	mux.HandleFunc("GET /api/dashboard", s.protected(s.handleDashboard))
	mux.HandleFunc("GET /api/analysis", s.protected(s.handleAnalysis))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// secured adds security headers and rate limiting for write requests.
func (s *Server) secured(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !s.limiter.Allow(clientIP(r)) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldComponent, log.ComponentRateLimit,
				log.FieldClientIP, clientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

// protected is secured plus bearer-token auth.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return s.secured(s.tokens.Middleware(next))
}

// clientIP extracts the client address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
