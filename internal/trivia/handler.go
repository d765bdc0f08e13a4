// internal/trivia/handler.go
package trivia

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"trivia-bot/pkg/logger"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the operator endpoints on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/chats", h.GetChats).Methods("GET")
	r.HandleFunc("/badges", h.GetBadges).Methods("GET")
	r.HandleFunc("/chats/{chatID}/ranking", h.GetRanking).Methods("GET")
	r.HandleFunc("/chats/{chatID}/streaks", h.GetStreaks).Methods("GET")
	r.HandleFunc("/chats/{chatID}/question", h.PostQuestion).Methods("POST", "OPTIONS")
	r.HandleFunc("/chats/{chatID}/summary", h.PostSummary).Methods("POST", "OPTIONS")
}

func (h *Handler) GetChats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"chats": h.service.ActiveChats()})
}

func (h *Handler) GetBadges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BadgeCatalog())
}

func (h *Handler) GetRanking(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}
	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ranking, err := h.service.CachedRanking(r.Context(), chatID, period)
	if err != nil {
		logger.Error("Failed to compute ranking", zap.Int64("chat_id", chatID), zap.Error(err))
		http.Error(w, "Failed to compute ranking", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

func (h *Handler) GetStreaks(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.service.TopStreaks(r.Context(), chatID, limit)
	if err != nil {
		logger.Error("Failed to load streaks", zap.Int64("chat_id", chatID), zap.Error(err))
		http.Error(w, "Failed to load streaks", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) PostQuestion(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}
	event, err := h.service.BroadcastTo(r.Context(), chatID)
	if err != nil {
		logger.Error("Failed to post question", zap.Int64("chat_id", chatID), zap.Error(err))
		http.Error(w, "Failed to post question", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *Handler) PostSummary(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}
	summary, err := h.service.SendSummary(r.Context(), chatID)
	if err != nil {
		logger.Error("Failed to send summary", zap.Int64("chat_id", chatID), zap.Error(err))
		http.Error(w, "Failed to send summary", http.StatusBadGateway)
		return
	}
	if summary == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func chatIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	chatID, err := strconv.ParseInt(mux.Vars(r)["chatID"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid chat id", http.StatusBadRequest)
		return 0, false
	}
	return chatID, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", zap.Error(err))
	}
}
