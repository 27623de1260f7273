// Package api exposes the Jano REST surface: config analysis and fixing,
// service restarts, chat, and attack simulations. It is a thin adapter over
// the internal services; all domain logic lives behind it.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jano-project/jano/internal/attack"
	"github.com/jano-project/jano/internal/chat"
	"github.com/jano-project/jano/internal/core"
	"github.com/jano-project/jano/internal/fixer"
)

// Version reported by /health and /api/v1/status.
const Version = "1.0.0"

// Deps carries the services the API serves. Bus may be nil when the audit
// bus is disabled.
type Deps struct {
	Config   *core.Config
	Fixers   *fixer.Service
	Attacks  *attack.Service
	Workflow *chat.Workflow
	Store    chat.Store
	Bus      *core.EventBus
	Logs     *core.LogRingBuffer
	Logger   zerolog.Logger
}

// Server is the Jano REST API server.
type Server struct {
	deps   Deps
	server *http.Server
	logger zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(deps Deps) *Server {
	s := &Server{
		deps:   deps,
		logger: deps.Logger.With().Str("component", "api_server").Logger(),
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", deps.Config.Server.Host, deps.Config.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler builds the routed and middleware-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/fix/services", s.handleFixServices)
	mux.HandleFunc("/api/v1/fix/analyze", s.handleFixAnalyze)
	mux.HandleFunc("/api/v1/fix/apply", s.handleFixApply)
	mux.HandleFunc("/api/v1/fix/auto", s.handleFixAuto)
	mux.HandleFunc("/api/v1/fix/restart", s.handleFixRestart)
	mux.HandleFunc("/api/v1/chat/query", s.handleChatQuery)
	mux.HandleFunc("/api/v1/chat/sessions", s.handleChatSessions)
	mux.HandleFunc("/api/v1/chat/sessions/", s.handleChatSessionByID)
	mux.HandleFunc("/api/v1/attack/", s.handleAttack)
	mux.HandleFunc("/api/v1/logs", s.handleLogs)

	// Middleware chain: CORS -> logging -> rate limit -> auth -> handler
	return corsMiddleware(
		loggingMiddleware(
			rateLimitMiddleware(
				authMiddleware(mux, s.deps.Config, s.logger),
				100, // 100 requests per second per IP
			),
			s.logger,
		),
		s.deps.Config.Server.CORSOrigins,
	)
}

// Start begins serving the API.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("API server starting")
	if s.deps.Config.AuthEnabled() {
		s.logger.Info().Int("keys", len(s.deps.Config.Server.APIKeys)).Msg("API authentication enabled")
	} else {
		s.logger.Warn().Msg("API authentication disabled — set api_keys in config or JANO_API_KEY env var")
	}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()
	return nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   Version,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"version":       Version,
		"status":        "running",
		"bus_connected": s.deps.Bus.IsConnected(),
		"llm_plugin":    s.deps.Config.LLM.Plugin,
		"fix_services":  s.deps.Fixers.SupportedServices(),
		"attacks":       s.deps.Attacks.Names(),
		"timestamp":     time.Now().UTC(),
	})
}

func (s *Server) handleFixServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	services := s.deps.Fixers.SupportedServices()
	writeJSON(w, http.StatusOK, map[string]any{
		"services": services,
		"total":    len(services),
	})
}

type fixRequest struct {
	Service string   `json:"service"`
	Path    string   `json:"path,omitempty"`
	RuleIDs []string `json:"rule_ids,omitempty"`
	Backup  *bool    `json:"backup,omitempty"`
	Restart bool     `json:"restart,omitempty"`
}

func decodeFixRequest(w http.ResponseWriter, r *http.Request) (*fixRequest, bool) {
	var req fixRequest
	limited := io.LimitReader(r.Body, 1<<20)
	if err := json.NewDecoder(limited).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return nil, false
	}
	if req.Service == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "service is required"})
		return nil, false
	}
	return &req, true
}

func (s *Server) handleFixAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, ok := decodeFixRequest(w, r)
	if !ok {
		return
	}

	analysis, err := s.deps.Fixers.Analyze(req.Service, req.Path)
	if err != nil {
		writeServiceError(w, req.Service, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// handleFixApply patches a service config. When rule_ids is present only
// the matching issues are applied; otherwise everything found by a fresh
// analysis is.
func (s *Server) handleFixApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, ok := decodeFixRequest(w, r)
	if !ok {
		return
	}

	var issues []fixer.Issue
	if len(req.RuleIDs) > 0 {
		analysis, err := s.deps.Fixers.Analyze(req.Service, req.Path)
		if err != nil {
			writeServiceError(w, req.Service, err)
			return
		}
		want := make(map[string]bool, len(req.RuleIDs))
		for _, id := range req.RuleIDs {
			want[id] = true
		}
		for _, issue := range analysis.Issues {
			if want[issue.RuleID] {
				issues = append(issues, issue)
			}
		}
	}

	backup := true
	if req.Backup != nil {
		backup = *req.Backup
	}

	outcome, err := s.deps.Fixers.Apply(r.Context(), req.Service, req.Path, issues, backup, req.Restart)
	if err != nil {
		writeServiceError(w, req.Service, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// handleFixAuto runs the full loop in one shot: analyze, apply everything,
// restart.
func (s *Server) handleFixAuto(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, ok := decodeFixRequest(w, r)
	if !ok {
		return
	}

	analysis, err := s.deps.Fixers.Analyze(req.Service, req.Path)
	if err != nil {
		writeServiceError(w, req.Service, err)
		return
	}
	if len(analysis.Issues) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"analysis": analysis,
			"outcome":  nil,
			"message":  fmt.Sprintf("No security issues found in the %s configuration", req.Service),
		})
		return
	}

	outcome, err := s.deps.Fixers.Apply(r.Context(), req.Service, req.Path, analysis.Issues, true, true)
	if err != nil {
		writeServiceError(w, req.Service, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"analysis": analysis,
		"outcome":  outcome,
		"message":  outcome.Message,
	})
}

func (s *Server) handleFixRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, ok := decodeFixRequest(w, r)
	if !ok {
		return
	}

	outcome, err := s.deps.Fixers.Restart(r.Context(), req.Service)
	if outcome == nil && err != nil {
		writeServiceError(w, req.Service, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleChatQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
		Query     string `json:"query"`
	}
	limited := io.LimitReader(r.Body, 1<<20)
	if err := json.NewDecoder(limited).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = chat.NewSessionID()
	}

	reply, err := s.deps.Workflow.HandleTurn(r.Context(), req.SessionID, req.Query)
	if err != nil {
		s.logger.Error().Err(err).Str("session", req.SessionID).Msg("chat turn failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "chat turn failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": req.SessionID,
		"response":   reply,
	})
}

func (s *Server) handleChatSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessions, err := s.deps.Store.Sessions()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "listing sessions failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// handleChatSessionByID handles GET/DELETE on /api/v1/chat/sessions/{id}.
func (s *Server) handleChatSessionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/chat/sessions/"), "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		msgs, err := s.deps.Store.List(id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "loading session failed"})
			return
		}
		visible := chat.Visible(msgs)
		writeJSON(w, http.StatusOK, map[string]any{
			"session_id": id,
			"messages":   visible,
			"total":      len(visible),
		})

	case http.MethodDelete:
		if err := s.deps.Store.Clear(id); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "clearing session failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "session_id": id})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAttack handles POST /api/v1/attack/{plugin}.
func (s *Server) handleAttack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/attack/"), "/")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "attack plugin name is required"})
		return
	}

	var req struct {
		Target  string         `json:"target"`
		Options map[string]any `json:"options,omitempty"`
	}
	limited := io.LimitReader(r.Body, 1<<20)
	if err := json.NewDecoder(limited).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Target == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target is required"})
		return
	}

	result, err := s.deps.Attacks.Run(r.Context(), name, req.Target, req.Options)
	if err != nil {
		writeServiceError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleLogs serves recent log lines captured in the ring buffer.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 100
	if q := r.URL.Query().Get("limit"); q != "" {
		if l, err := strconv.Atoi(q); err == nil && l > 0 {
			limit = l
		}
	}

	entries := []core.LogEntry{}
	if s.deps.Logs != nil {
		entries = s.deps.Logs.GetEntries(limit)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logs":  entries,
		"total": len(entries),
	})
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError maps domain errors onto HTTP statuses: unknown plugins
// and services are 404, everything else is 500.
func writeServiceError(w http.ResponseWriter, subject string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, core.ErrNotFound) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{
		"error":   err.Error(),
		"subject": subject,
	})
}

// authMiddleware enforces API key authentication on all endpoints except /health.
// Keys are read from config (server.api_keys) or env (JANO_API_KEY).
// If no keys are configured, all requests are allowed (open mode with warning logged on startup).
func authMiddleware(next http.Handler, cfg *core.Config, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Always allow health checks without auth
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		// If no API keys configured, allow all (open mode)
		if !cfg.AuthEnabled() {
			next.ServeHTTP(w, r)
			return
		}

		// Extract key from Authorization header: "Bearer <key>"
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			// Also check X-API-Key header as fallback
			authHeader = r.Header.Get("X-API-Key")
			if authHeader == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "missing authentication — provide Authorization: Bearer <key> or X-API-Key header",
				})
				return
			}
			// X-API-Key is the raw key
			if !cfg.ValidateAPIKey(authHeader) {
				logger.Warn().Str("path", r.URL.Path).Str("ip", r.RemoteAddr).Msg("invalid API key")
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid API key"})
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		// Parse "Bearer <key>"
		key := authHeader
		if strings.HasPrefix(authHeader, "Bearer ") {
			key = authHeader[7:]
		}

		if !cfg.ValidateAPIKey(key) {
			logger.Warn().Str("path", r.URL.Path).Str("ip", r.RemoteAddr).Msg("invalid API key")
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid API key"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware implements a simple per-IP token bucket rate limiter.
type ipLimiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	rate    int
}

type tokenBucket struct {
	tokens    float64
	maxTokens float64
	lastTime  time.Time
}

func (b *tokenBucket) allow(rate float64) bool {
	now := time.Now()
	elapsed := now.Sub(b.lastTime).Seconds()
	b.lastTime = now
	b.tokens += elapsed * rate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func rateLimitMiddleware(next http.Handler, requestsPerSecond int) http.Handler {
	limiter := &ipLimiter{
		buckets: make(map[string]*tokenBucket),
		rate:    requestsPerSecond,
	}

	// Cleanup stale buckets every 5 minutes
	go func() {
		for {
			time.Sleep(5 * time.Minute)
			limiter.mu.Lock()
			cutoff := time.Now().Add(-10 * time.Minute)
			for ip, bucket := range limiter.buckets {
				if bucket.lastTime.Before(cutoff) {
					delete(limiter.buckets, ip)
				}
			}
			limiter.mu.Unlock()
		}
	}()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip rate limiting for health checks
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		ip := r.RemoteAddr
		if idx := strings.LastIndex(ip, ":"); idx != -1 {
			ip = ip[:idx]
		}

		limiter.mu.Lock()
		bucket, exists := limiter.buckets[ip]
		if !exists {
			bucket = &tokenBucket{
				tokens:    float64(requestsPerSecond),
				maxTokens: float64(requestsPerSecond * 2), // burst = 2x rate
				lastTime:  time.Now(),
			}
			limiter.buckets[ip] = bucket
		}
		allowed := bucket.allow(float64(requestsPerSecond))
		limiter.mu.Unlock()

		if !allowed {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "rate limit exceeded — try again shortly",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := "*"
		if len(allowedOrigins) > 0 {
			allowed = ""
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = origin
					break
				}
			}
			if allowed == "" {
				// Origin not in allow list — skip CORS headers
				next.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("Access-Control-Allow-Origin", allowed)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		if len(allowedOrigins) > 0 && allowedOrigins[0] != "*" {
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
