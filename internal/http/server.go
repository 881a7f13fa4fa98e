// Package http serves the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"bujit/internal/core"
	"bujit/internal/log"
)

// Ledger is the part of ledger.Service the API drives.
type Ledger interface {
	Loaded() bool
	Accounts() []*core.Account
	Account(id int64) (*core.Account, error)
	History(id int64) ([]*core.Transaction, error)
	CreateAccount(ctx context.Context, name string, balance core.Money, percent decimal.Decimal) (*core.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
	RenameOrReweight(ctx context.Context, id int64, name string, percent decimal.Decimal) error
	Deposit(ctx context.Context, id int64, amount core.Money, label string) error
	Withdraw(ctx context.Context, id int64, amount core.Money, label string) error
	Transfer(ctx context.Context, sourceID, targetID int64, amount core.Money) error
	Payout(ctx context.Context, total core.Money) error
}

// Options tune a Server. Zero values pick the defaults.
type Options struct {
	// OperationTimeout bounds each ledger mutation issued by a request.
	OperationTimeout time.Duration
	// Ping reports whether the backing store is reachable.
	Ping func(ctx context.Context) error
	// WritesPerMinute caps mutating requests per client IP.
	WritesPerMinute int
	Logger          *log.Logger
}

type Server struct {
	http.Server
	ledger      Ledger
	ping        func(ctx context.Context) error
	opTimeout   time.Duration
	logger      *log.Logger
	secLogger   *log.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, l Ledger, opts Options) *Server {
	if opts.WritesPerMinute <= 0 {
		opts.WritesPerMinute = 60
	}
	if opts.Logger == nil {
		opts.Logger = log.ForComponent(log.ComponentHTTP)
	}

	s := &Server{
		ledger:      l,
		ping:        opts.Ping,
		opTimeout:   opts.OperationTimeout,
		logger:      opts.Logger,
		secLogger:   log.ForComponent(log.ComponentSecurity),
		rateLimiter: newRateLimiter(opts.WritesPerMinute, time.Minute),
		metrics:     &securityMetrics{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PATCH /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)
	mux.HandleFunc("GET /api/accounts/{id}/history", s.handleHistory)
	mux.HandleFunc("POST /api/accounts/{id}/deposits", s.handleDeposit)
	mux.HandleFunc("POST /api/accounts/{id}/withdrawals", s.handleWithdraw)
	mux.HandleFunc("POST /api/transfers", s.handleTransfer)
	mux.HandleFunc("POST /api/payouts", s.handlePayout)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.withSecurity(log.Middleware(s.logger, requestIDFrom)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		rateLimited, suspicious := s.metrics.snapshot()
		s.logger.InfoContext(ctx, "HTTP server stopping",
			"rate_limited_requests", rateLimited,
			"suspicious_requests", suspicious)
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withSecurity assigns a request ID, sets security headers, flags probing
// requests and rate limits writes.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := incomingRequestID(r)
		if requestID == "" {
			requestID = generateRequestID()
		}
		r = r.WithContext(withRequestID(r.Context(), requestID))

		h := w.Header()
		h.Set("X-Request-ID", requestID)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")

		clientIP := extractClientIP(r)
		if reason := suspiciousReason(r); reason != "" {
			atomic.AddInt64(&s.metrics.suspiciousRequests, 1)
			fields := log.NewFields().
				WithRequestID(requestID).
				WithClientIP(clientIP).
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
				ToSlice()
			s.secLogger.WarnContext(r.Context(), "Suspicious request", append(fields, "reason", reason)...)
		}

		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			s.secLogger.WarnContext(r.Context(), "Rate limit exceeded", log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path)
			ErrorResponse(r, http.StatusTooManyRequests, "Too many changes. Please try again later.").
				Header("Retry-After", "60").
				Write(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// operationContext applies the configured operation timeout.
func (s *Server) operationContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.opTimeout)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the ledger is loaded and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.Loaded() {
		http.Error(w, "ledger not loaded", http.StatusServiceUnavailable)
		return
	}
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
