package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/maneralab/parsbot/internal/flow"
	"github.com/maneralab/parsbot/internal/logger"
)

// Handler serves the operational endpoints.
type Handler struct {
	manager *flow.Manager
	log     *logger.Logger
}

// NewHandler creates a handler over the flow manager.
func NewHandler(manager *flow.Manager) *Handler {
	return &Handler{
		manager: manager,
		log:     logger.Get(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) CurrentFlow(w http.ResponseWriter, r *http.Request) {
	current := h.manager.Current()
	if current == nil {
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "idle",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "running",
		"flow_id":    current.ID.String(),
		"user_id":    current.UserID,
		"channel":    current.Channel,
		"started_at": current.StartedAt.Format(time.RFC3339),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
