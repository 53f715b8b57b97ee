// Package http provides the HTTP API for the bingo hub.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
	"github.com/gielinor-events/bingo-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	Host string
	Port int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MaxBodyBytes caps request body size for JSON endpoints.
	MaxBodyBytes int64

	EnableCORS bool

	// RateLimitPerMinute is a per-client-IP request budget. Zero disables
	// rate limiting.
	RateLimitPerMinute int
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxBodyBytes:       1 << 20,
		EnableCORS:         true,
		RateLimitPerMinute: 300,
	}
}

// Address returns the host:port listen address.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server is the HTTP interface over the application layer.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *mux.Router
	log        *logger.Logger
	limiter    *rateLimiter

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a server with all routes and middleware registered.
func NewServer(config Config, deps Dependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.Default()
	}

	s := &Server{
		config: config,
		deps:   deps,
		router: mux.NewRouter(),
		log:    log.With(logger.Component("http")),
	}
	if config.RateLimitPerMinute > 0 {
		s.limiter = newRateLimiter(config.RateLimitPerMinute, time.Minute)
	}

	s.setupRoutes()
	s.router.Use(s.requestIDMiddleware, s.loggingMiddleware, s.recoveryMiddleware)
	if config.EnableCORS {
		s.router.Use(s.corsMiddleware)
	}
	if s.limiter != nil {
		s.router.Use(s.rateLimitMiddleware)
	}

	s.httpServer = &http.Server{
		Addr:         config.Address(),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until it fails or Shutdown is called.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return shared.NewDomainError("http", "Start", shared.ErrInvalidState, "server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.log.Info("http server starting", logger.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// StartAsync starts the server in a goroutine and reports startup failures on
// the returned channel.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	s.log.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// IsRunning reports whether Start has been called and Shutdown has not.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns how long the server has been running.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const requestIDKey contextKey = "request_id"

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.log.Info("request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rw.status),
			logger.String("ip", clientIP(r)),
			logger.Latency(time.Since(start)))
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("handler panic",
					logger.String("path", r.URL.Path),
					logger.String("panic", fmt.Sprint(rec)))
				s.writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientIP(r)) {
			s.writeError(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// Sliding window per client IP.
// ══════════════════════════════════════════════════════════════════════════════

type rateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	kept := rl.requests[ip][:0]
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= rl.limit {
		rl.requests[ip] = kept
		return false
	}
	rl.requests[ip] = append(kept, now)
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSES
// ══════════════════════════════════════════════════════════════════════════════

// apiResponse is the envelope every endpoint returns.
type apiResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *apiError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := apiResponse{Success: true, Data: data, RequestID: requestID(r)}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("encode response", logger.Err(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := apiResponse{
		Success:   false,
		Error:     &apiError{Code: code, Message: message},
		RequestID: requestID(r),
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("encode response", logger.Err(err))
	}
}

// writeDomainError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", logger.String("path", r.URL.Path), logger.Err(err))
	}
	s.writeError(w, r, status, code, err.Error())
}

func statusFor(err error) (int, string) {
	switch {
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, "already_exists"
	case shared.IsForbidden(err):
		return http.StatusForbidden, "forbidden"
	case shared.IsOutOfBounds(err), shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, shared.ErrTimeout):
		return http.StatusGatewayTimeout, "upstream_timeout"
	case shared.IsExternalService(err):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeJSON reads a size-capped JSON request body into dst.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return shared.WrapError("http", "Decode", shared.ErrInvalidFormat, "malformed request body", err)
	}
	return nil
}
