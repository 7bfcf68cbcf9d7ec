package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/othello-net/othello-server/internal/hub"
	"github.com/othello-net/othello-server/internal/storage"
)

// ResultLister is the read side of the results archive.
type ResultLister interface {
	Recent(ctx context.Context, limit int) ([]storage.GameResult, error)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func Stats(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.Stats(r.Context())
		if err != nil {
			log.Warn("stats", zap.Error(err))
			http.Error(w, "hub unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// Results lists recent games, newest first. ?limit= is capped at maxLimit.
func Results(results ResultLister, maxLimit int, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := maxLimit
		if q := r.URL.Query().Get("limit"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil || n < 1 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = min(n, maxLimit)
		}

		list, err := results.Recent(r.Context(), limit)
		if err != nil {
			log.Error("list results", zap.Error(err))
			http.Error(w, "failed to list results", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []storage.GameResult{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
