package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/example/movie-library/internal/platform/api"
	"github.com/example/movie-library/internal/platform/httpserver"
)

// queryInt parses an optional integer query parameter. It writes a 400 and
// returns ok=false when the value is present but not an integer.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (v int, set bool, ok bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badParam(w, r, name)
		return 0, false, false
	}
	return n, true, true
}

func queryFloat(w http.ResponseWriter, r *http.Request, name string) (v float64, set bool, ok bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		badParam(w, r, name)
		return 0, false, false
	}
	return f, true, true
}

func badParam(w http.ResponseWriter, r *http.Request, name string) {
	api.BadRequest(w, api.CodeValidation, "Invalid value for "+name, httpserver.RequestIDFromContext(r.Context()), map[string]any{"field": name})
}
