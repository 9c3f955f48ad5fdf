package memory

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Handler serves conversation history over HTTP.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// HistoryResponse is the GET payload.
type HistoryResponse struct {
	UserID   string    `json:"user_id"`
	Messages []Message `json:"messages"`
	Count    int       `json:"count"`
}

// ClearResponse is the DELETE payload.
type ClearResponse struct {
	Status string `json:"status"`
}

// ServeHTTP handles GET and DELETE /api/v1/memory/{user_id}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimPrefix(r.URL.Path, "/api/v1/memory/")
	if userID == "" || strings.Contains(userID, "/") {
		http.Error(w, "Missing user id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.history(w, r, userID)
	case http.MethodDelete:
		h.clear(w, r, userID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request, userID string) {
	messages, err := h.store.All(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load history", "user", userID, "error", err)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	response := HistoryResponse{
		UserID:   userID,
		Messages: messages,
		Count:    len(messages),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.store.Clear(r.Context(), userID); err != nil {
		h.logger.Error("Failed to clear history", "user", userID, "error", err)
		http.Error(w, "Failed to clear history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ClearResponse{Status: "cleared"})

	h.logger.Info("Memory cleared", "user", userID)
}
