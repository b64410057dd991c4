// Package server exposes the coordinator's HTTP API: rich JSON status for
// operators, compact pipe-delimited text for embedded displays, and the GPU
// worker callback endpoints.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/wavecrack/wavecrackd/coordstate"
	"github.com/wavecrack/wavecrackd/lib/attackstate"
	"github.com/wavecrack/wavecrackd/lib/capture"
	"github.com/wavecrack/wavecrackd/lib/history"
	"github.com/wavecrack/wavecrackd/lib/wifi"
)

// networkCacheTTL bounds how long paged network listings may serve stale scan
// results before forcing a rescan.
const networkCacheTTL = 2 * time.Minute

const networksPerPage = 3

// AttackController is the subset of the attack engine the HTTP layer drives.
type AttackController interface {
	Start(ssid string) error
	Cancel() bool
	Scan(ctx context.Context) ([]wifi.Network, error)
	IngestResult(filename, password string, found bool) bool
	GPUStatus(progress int, currentWordlist string) bool
}

// Config carries the server's own settings.
type Config struct {
	APIKey      string
	RateLimit   int
	WordlistDir string
}

// Server holds the handler dependencies and the scan result cache backing the
// paged network endpoints.
type Server struct {
	controller AttackController
	state      *attackstate.Store
	captures   *capture.Store
	hist       *history.Store
	cfg        Config
	limiter    *rateLimiter
	now        func() time.Time

	cacheMu  sync.Mutex
	cached   []wifi.Network
	cachedAt time.Time
}

// New wires a server. hist may be nil when history is disabled.
func New(controller AttackController, state *attackstate.Store, captures *capture.Store,
	hist *history.Store, cfg Config,
) *Server {
	return &Server{
		controller: controller,
		state:      state,
		captures:   captures,
		hist:       hist,
		cfg:        cfg,
		limiter:    newRateLimiter(cfg.RateLimit),
		now:        time.Now,
	}
}

// Routes builds the HTTP mux. The health, ping, and embedded text endpoints
// are open and unthrottled so a tiny display can poll them every second; the
// rest of the operator API requires the pre-shared key, and the GPU worker
// endpoints use bearer auth.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ping", s.handlePing)
	mux.HandleFunc("GET /text", s.handleText)

	mux.HandleFunc("GET /scan", s.requireKey(s.handleScan))
	mux.HandleFunc("GET /networks/count", s.requireKey(s.handleNetworkCount))
	mux.HandleFunc("GET /networks/page/{page}", s.requireKey(s.handleNetworkPage))
	mux.HandleFunc("POST /start", s.requireKey(s.handleStart))
	mux.HandleFunc("POST /attack_target/{number}", s.requireKey(s.handleAttackTarget))
	mux.HandleFunc("GET /status", s.requireKey(s.handleStatus))
	mux.HandleFunc("GET /status_simple", s.requireKey(s.handleStatusSimple))
	mux.HandleFunc("POST /cancel", s.requireKey(s.handleCancel))
	mux.HandleFunc("GET /results", s.requireKey(s.handleResults))
	mux.HandleFunc("GET /results_simple", s.requireKey(s.handleResultsSimple))
	mux.HandleFunc("GET /files", s.requireKey(s.handleFiles))
	mux.HandleFunc("DELETE /files/{name}", s.requireKey(s.handleFileDelete))
	mux.HandleFunc("GET /wordlists", s.requireKey(s.handleWordlists))
	mux.HandleFunc("GET /config", s.requireKey(s.handleConfig))
	mux.HandleFunc("GET /analyze_latest", s.requireKey(s.handleAnalyzeLatest))
	mux.HandleFunc("GET /history", s.requireKey(s.handleHistory))

	mux.HandleFunc("POST /api/crack_result", s.requireBearer(s.handleCrackResult))
	mux.HandleFunc("POST /api/gpu_status", s.requireBearer(s.handleGPUStatus))

	mux.HandleFunc("/", s.handleNotFound)

	return mux
}

// requireKey authenticates with the X-API-Key header, then applies the
// per-client rate limit. Auth failures do not consume rate limit budget.
func (s *Server) requireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if !keysEqual(key, s.cfg.APIKey) {
			coordstate.Logger.Warn("Unauthorized request", "path", r.URL.Path, "remote", clientIP(r))
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid API key"})

			return
		}

		if !s.limiter.allow(clientIP(r)) {
			coordstate.Logger.Warn("Rate limit exceeded", "remote", clientIP(r))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Rate limit exceeded"})

			return
		}

		next(w, r)
	}
}

// requireBearer authenticates the GPU worker endpoints with an
// Authorization: Bearer header carrying the same pre-shared key.
func (s *Server) requireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !keysEqual(token, s.cfg.APIKey) {
			coordstate.Logger.Warn("Unauthorized worker request", "path", r.URL.Path, "remote", clientIP(r))
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid API key"})

			return
		}

		next(w, r)
	}
}

func keysEqual(got, want string) bool {
	if want == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		coordstate.Logger.Debug("Response encode failed", "error", err)
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// cachedNetworks returns the scan cache, refreshing it when stale. The
// returned slice is shared; callers must not mutate it.
func (s *Server) cachedNetworks(ctx context.Context) ([]wifi.Network, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.now().Sub(s.cachedAt) <= networkCacheTTL && s.cached != nil {
		return s.cached, nil
	}

	nets, err := s.controller.Scan(ctx)
	if err != nil {
		return nil, err
	}

	s.cached = nets
	s.cachedAt = s.now()

	return nets, nil
}

func (s *Server) storeCache(nets []wifi.Network) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.cached = nets
	s.cachedAt = s.now()
}
