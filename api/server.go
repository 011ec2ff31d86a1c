package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
	"github.com/wricardo/mcp-training/memorymatch/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service   service.GameService
	hub       *websocket.Hub
	router    *mux.Router
	logger    *logrus.Logger
	staticDir string
	mcp       http.Handler
}

// Option customizes a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStaticDir serves the browser client from dir
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// WithMCPHandler mounts an MCP streamable HTTP handler at /mcp
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) {
		s.mcp = h
	}
}

// NewServer creates a new API server. hub may be nil, which disables /ws.
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service:   gameService,
		hub:       hub,
		router:    mux.NewRouter(),
		logger:    logrus.StandardLogger(),
		staticDir: "./static/",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/new-game", s.handleNewGame).Methods("POST")
	api.HandleFunc("/sessions/{id}/reveal", s.handleReveal).Methods("POST")
	api.HandleFunc("/sessions/{id}/resolve", s.handleResolve).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)

	if s.mcp != nil {
		s.router.PathPrefix("/mcp").Handler(s.mcp)
	}

	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// statusRecorder captures the status code for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).Round(time.Microsecond),
		}).Debug("HTTP request")
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSessionAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidConfig),
		errors.Is(err, service.ErrInvalidSessionID),
		errors.Is(err, engine.ErrInvalidPairCount),
		errors.Is(err, engine.ErrPoolTooSmall):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

// decodeOptional decodes a JSON body when one is present
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Session Handlers

type configRequest struct {
	ConfigID   string `json:"config_id,omitempty"`
	ConfigName string `json:"config_name,omitempty"`
}

func (c configRequest) id() string {
	if c.ConfigID != "" {
		return c.ConfigID
	}
	return c.ConfigName
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.service.CreateSession(r.Context(), req.id())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default)
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy != "created" {
		sortBy = "accessed"
	}
	if order != "asc" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
		sessions = sessions[:l]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.service.NewGame(r.Context(), mux.Vars(r)["id"], req.id())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "New game dealt",
		"state":   state,
	})
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		CardID *int `json:"card_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CardID == nil {
		respondError(w, http.StatusBadRequest, "card_id is required")
		return
	}

	result, err := s.service.Reveal(r.Context(), sessionID, *req.CardID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"session": sessionID,
		"card":    *req.CardID,
		"outcome": result.Outcome,
	}).Debug("Card revealed")

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameID string `json:"game_id,omitempty"`
	}
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.ResolveMismatch(r.Context(), mux.Vars(r)["id"], req.GameID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: engine.DefaultHistoryPage,
		Order: "desc",
	}

	query := r.URL.Query()
	if p, err := strconv.Atoi(query.Get("page")); err == nil && p > 0 {
		opts.Page = p
	}
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		opts.Limit = l
	}
	if order := strings.ToLower(query.Get("order")); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetRevealHistory(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	config, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, config)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string `json:"config_id,omitempty"`
		engine.GameConfig
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	configID := req.ConfigID
	if configID == "" {
		configID = ConfigIDFromName(req.Name)
	}

	gameConfig := req.GameConfig
	if err := s.service.SaveConfig(r.Context(), configID, &gameConfig); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// ConfigIDFromName derives a file-safe config id from a display name
func ConfigIDFromName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	return b.String()
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session parameter required")
		return
	}
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "live updates are disabled")
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		respondError(w, http.StatusNotFound, "Invalid session")
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
