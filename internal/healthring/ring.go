// Package healthring periodically probes EVA's dependencies (Redis, the LLM
// provider, weather API, smart home, TTS) and keeps a short rolling history
// per member for the status endpoint and the TUI.
package healthring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/evahub/eva-gateway/internal/config"
	"github.com/evahub/eva-gateway/internal/logging"
)

const historySize = 10

// Probe checks one dependency. A non-nil error marks the member down.
type Probe func(ctx context.Context) error

type CheckResult struct {
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

type MemberStatus struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"` // up, down, unknown
	History []CheckResult `json:"history"`
}

// HealthRing runs registered probes on a fixed interval.
type HealthRing struct {
	interval time.Duration
	log      *slog.Logger
	cancel   context.CancelFunc

	mu      sync.RWMutex
	probes  map[string]Probe
	members map[string]*MemberStatus
}

// New builds a stopped ring. Returns nil when disabled, callers treat a nil
// ring as "no health data".
func New(cfg config.HealthRingConfig) *HealthRing {
	if !cfg.Enabled {
		return nil
	}
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HealthRing{
		interval: interval,
		log:      logging.WithComponent("healthring"),
		probes:   map[string]Probe{},
		members:  map[string]*MemberStatus{},
	}
}

// Register adds a member probe. Safe to call before or after Start.
func (h *HealthRing) Register(name string, probe Probe) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[name] = probe
	h.members[name] = &MemberStatus{Name: name, Status: "unknown", History: []CheckResult{}}
}

// Start launches the check loop. The first round runs immediately.
func (h *HealthRing) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.run(ctx)
}

func (h *HealthRing) run(ctx context.Context) {
	h.checkAll(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.checkAll(ctx)
		}
	}
}

func (h *HealthRing) checkAll(ctx context.Context) {
	h.mu.RLock()
	probes := make(map[string]Probe, len(h.probes))
	for name, p := range h.probes {
		probes[name] = p
	}
	h.mu.RUnlock()

	for name, probe := range probes {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := probe(checkCtx)
		cancel()

		result := CheckResult{Timestamp: time.Now(), Success: err == nil}
		if err != nil {
			result.Error = err.Error()
		}
		h.record(name, result)
	}
}

func (h *HealthRing) record(name string, result CheckResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	member, ok := h.members[name]
	if !ok {
		return
	}
	if result.Success {
		member.Status = "up"
	} else {
		member.Status = "down"
		h.log.Warn("member down", "name", name, "error", result.Error)
	}
	member.History = append(member.History, result)
	if len(member.History) > historySize {
		member.History = member.History[1:]
	}
}

// Status returns a snapshot of every member.
func (h *HealthRing) Status() map[string]MemberStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]MemberStatus, len(h.members))
	for name, member := range h.members {
		copied := *member
		copied.History = append([]CheckResult(nil), member.History...)
		out[name] = copied
	}
	return out
}

// MemberNames returns registered member names, sorted.
func (h *HealthRing) MemberNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.members))
	for name := range h.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetMemberStatus returns the snapshot of one member.
func (h *HealthRing) GetMemberStatus(name string) (MemberStatus, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	member, ok := h.members[name]
	if !ok {
		return MemberStatus{}, fmt.Errorf("member not found: %s", name)
	}
	copied := *member
	copied.History = append([]CheckResult(nil), member.History...)
	return copied, nil
}

// GetStatusHandler serves the full ring snapshot.
func (h *HealthRing) GetStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(h.Status())
	}
}

// GetMemberHandler serves a single member by path suffix.
func (h *HealthRing) GetMemberHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/api/v1/healthring/")
		if name == "" {
			http.Error(w, "Member name required", http.StatusBadRequest)
			return
		}
		member, err := h.GetMemberStatus(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(member)
	}
}

// Shutdown stops the check loop.
func (h *HealthRing) Shutdown() {
	if h.cancel != nil {
		h.cancel()
	}
}
