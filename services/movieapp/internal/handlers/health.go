package handlers

import (
	"net/http"
	"time"

	"github.com/example/movie-library/internal/platform/api"
)

// Health reports liveness in the shape the web client polls.
func Health(service string, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "Healthy",
			"timestamp": now().UTC(),
			"service":   service,
		})
	}
}
