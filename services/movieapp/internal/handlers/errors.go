package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/movie-library/internal/platform/api"
	"github.com/example/movie-library/internal/platform/auth"
	"github.com/example/movie-library/internal/platform/httpserver"
	"github.com/example/movie-library/internal/platform/validation"
	"github.com/example/movie-library/services/movieapp/internal/domain"
)

// writeError maps a service error onto the API envelope. Unexpected errors
// are logged and hidden behind a 500.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, res resource) {
	rid := httpserver.RequestIDFromContext(r.Context())
	if log == nil {
		log = zap.NewNop()
	}

	if ve, ok := domain.IsValidation(err); ok {
		api.BadRequest(w, api.CodeValidation, ve.Message, rid, map[string]any{"field": ve.Field})
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		api.NotFound(w, api.CodeNotFound, res.notFound, rid)
	case errors.Is(err, domain.ErrConflict):
		api.Conflict(w, api.CodeConflict, res.conflict, rid, nil)
	case errors.Is(err, domain.ErrInvalidCredentials):
		api.Unauthorized(w, api.CodeInvalidCredentials, "Invalid email or password", rid)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		log.Warn("upstream unavailable", zap.String("request_id", rid), zap.Error(err))
		api.Unavailable(w, api.CodeUpstreamUnavailable, "Movie database is unavailable", rid)
	default:
		log.Error("request failed",
			zap.String("request_id", rid),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		api.Internal(w, rid)
	}
}

// resource names what a request was about so that not-found and conflict
// responses read naturally.
type resource struct {
	notFound string
	conflict string
}

var (
	collectionResource = resource{"Collection not found", "A collection with this name already exists"}
	movieResource      = resource{"Movie not found", "This movie is already in the collection"}
	addMovieResource   = resource{"Collection not found", "This movie is already in the collection"}
	reviewResource     = resource{"Review not found", "Review was created concurrently, retry"}
	accountResource    = resource{"User not found", "Email already exists"}
)

// writeValidation reports request DTO failures.
func writeValidation(w http.ResponseWriter, r *http.Request, ve *validation.RequestValidationError) {
	api.BadRequest(w, api.CodeValidation, ve.Error(), httpserver.RequestIDFromContext(r.Context()), ve.Details())
}

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation. It writes the error response and returns false on failure.
func decodeAndValidate[T any](w http.ResponseWriter, r *http.Request, dst *T) bool {
	if !api.DecodeJSON(w, r, httpserver.RequestIDFromContext(r.Context()), dst) {
		return false
	}
	if ve := validation.Struct(dst); ve != nil {
		writeValidation(w, r, ve)
		return false
	}
	return true
}

// requireUserID reads the authenticated user or writes a 401.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == "" {
		api.Unauthorized(w, api.CodeUnauthorized, "authentication required", httpserver.RequestIDFromContext(r.Context()))
		return "", false
	}
	return uid, true
}
