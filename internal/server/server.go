// Package server exposes EVA's HTTP API: the chat endpoint, read-only views
// over notes/tasks/habits/reminders, the briefing, memory management, health
// and metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evahub/eva-gateway/internal/assistant"
	"github.com/evahub/eva-gateway/internal/briefing"
	"github.com/evahub/eva-gateway/internal/config"
	"github.com/evahub/eva-gateway/internal/habits"
	"github.com/evahub/eva-gateway/internal/healthring"
	"github.com/evahub/eva-gateway/internal/logging"
	"github.com/evahub/eva-gateway/internal/memory"
	"github.com/evahub/eva-gateway/internal/metrics"
	"github.com/evahub/eva-gateway/internal/scheduler"
	"github.com/evahub/eva-gateway/internal/store"
)

// Server represents the HTTP server.
type Server struct {
	cfg        *config.Config
	assistant  *assistant.Assistant
	notes      *store.Notes
	habits     *habits.Tracker
	briefing   *briefing.Generator
	sched      *scheduler.Scheduler
	healthRing *healthring.HealthRing
	httpServer *http.Server
	startTime  time.Time
	log        *slog.Logger
}

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// StatusResponse is the full system status payload.
type StatusResponse struct {
	Status    string                             `json:"status"`
	Version   string                             `json:"version"`
	Uptime    string                             `json:"uptime"`
	Services  map[string]healthring.MemberStatus `json:"services"`
	Channels  map[string]bool                    `json:"channels"`
	Timestamp string                             `json:"timestamp"`
}

// Deps bundles the subsystems the server serves.
type Deps struct {
	Assistant     *assistant.Assistant
	Notes         *store.Notes
	Habits        *habits.Tracker
	Briefing      *briefing.Generator
	Scheduler     *scheduler.Scheduler
	HealthRing    *healthring.HealthRing
	MemoryHandler *memory.Handler
	WebChat       http.Handler
}

// New creates the HTTP server with all routes mounted.
func New(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:        cfg,
		assistant:  deps.Assistant,
		notes:      deps.Notes,
		habits:     deps.Habits,
		briefing:   deps.Briefing,
		sched:      deps.Scheduler,
		healthRing: deps.HealthRing,
		startTime:  time.Now(),
		log:        logging.WithComponent("server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/v1/health", s.healthHandler)
	mux.HandleFunc("/api/v1/status", s.statusHandler)
	mux.HandleFunc("/api/v1/chat", s.chatHandler)
	mux.HandleFunc("/api/v1/briefing", s.briefingHandler)
	mux.HandleFunc("/api/v1/notes", s.notesHandler)
	mux.HandleFunc("/api/v1/tasks", s.tasksHandler)
	mux.HandleFunc("/api/v1/habits", s.habitsHandler)
	mux.HandleFunc("/api/v1/reminders", s.remindersHandler)
	if deps.MemoryHandler != nil {
		mux.Handle("/api/v1/memory/", deps.MemoryHandler)
	}
	if deps.HealthRing != nil {
		mux.HandleFunc("/api/v1/healthring/status", deps.HealthRing.GetStatusHandler())
		mux.HandleFunc("/api/v1/healthring/", deps.HealthRing.GetMemberHandler())
	}
	if deps.WebChat != nil {
		mux.Handle("/ws", deps.WebChat)
	}
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      instrument(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("HTTP server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.RequestCount.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		metrics.RequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// userID pulls the user_id query parameter, defaulting to "default" the way
// the single-user install expects.
func userID(r *http.Request) string {
	if id := r.URL.Query().Get("user_id"); id != "" {
		return id
	}
	return "default"
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text required", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		req.UserID = "default"
	}

	reply, err := s.assistant.HandleMessage(r.Context(), req.UserID, req.Text)
	if err != nil {
		s.log.Error("chat failed", "user", req.UserID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   "1.0.0",
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	services := map[string]healthring.MemberStatus{}
	overall := "healthy"
	if s.healthRing != nil {
		services = s.healthRing.Status()
		for _, member := range services {
			if member.Status == "down" {
				overall = "degraded"
				break
			}
		}
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:    overall,
		Version:   "1.0.0",
		Uptime:    time.Since(s.startTime).String(),
		Services:  services,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Channels: map[string]bool{
			"telegram": s.cfg.Channels.Telegram.Enabled,
			"discord":  s.cfg.Channels.Discord.Enabled,
			"webchat":  s.cfg.Channels.WebChat.Enabled,
		},
	})
}

func (s *Server) briefingHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	text, err := s.briefing.Generate(r.Context(), userID(r))
	if err != nil {
		http.Error(w, "briefing failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"briefing": text})
}

func (s *Server) notesHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	notes, err := s.notes.GetNotes(r.Context(), userID(r), 0)
	if err != nil {
		http.Error(w, "failed to load notes", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": notes, "count": len(notes)})
}

func (s *Server) tasksHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	tasks, err := s.notes.GetTasks(r.Context(), userID(r))
	if err != nil {
		http.Error(w, "failed to load tasks", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks, "count": len(tasks)})
}

func (s *Server) habitsHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	list, err := s.habits.Habits(r.Context(), userID(r))
	if err != nil {
		http.Error(w, "failed to load habits", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"habits": list, "count": len(list)})
}

func (s *Server) remindersHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	reminders := s.sched.Reminders(r.URL.Query().Get("user_id"))
	writeJSON(w, http.StatusOK, map[string]interface{}{"reminders": reminders, "count": len(reminders)})
}
