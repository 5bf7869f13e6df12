package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/movie-library/internal/platform/api"
	"github.com/example/movie-library/internal/platform/auth"
	"github.com/example/movie-library/services/movieapp/internal/reviews"
)

type submitReviewRequest struct {
	ImdbID     string  `json:"imdbId" validate:"required,max=20"`
	Rating     int     `json:"rating"`
	ReviewText *string `json:"reviewText"`
}

// SubmitReview creates or replaces the caller's review of a movie.
func SubmitReview(svc *reviews.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		var req submitReviewRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		rev, err := svc.Submit(r.Context(), uid, strings.TrimSpace(req.ImdbID), req.Rating, req.ReviewText)
		if err != nil {
			writeError(w, r, log, err, reviewResource)
			return
		}
		api.WriteJSON(w, http.StatusOK, rev)
	}
}

func DeleteReview(svc *reviews.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), uid, chi.URLParam(r, "imdbId")); err != nil {
			writeError(w, r, log, err, reviewResource)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// MovieReviews pages through other users' reviews. Anonymous callers see
// every review.
func MovieReviews(svc *reviews.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, _, ok := queryInt(w, r, "skip")
		if !ok {
			return
		}
		take, _, ok := queryInt(w, r, "take")
		if !ok {
			return
		}
		uid, _ := auth.UserIDFromContext(r.Context())

		page, err := svc.ListMovieReviews(r.Context(), chi.URLParam(r, "imdbId"), uid, skip, take)
		if err != nil {
			writeError(w, r, log, err, reviewResource)
			return
		}
		api.WriteJSON(w, http.StatusOK, page)
	}
}

func MovieStats(svc *reviews.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context(), chi.URLParam(r, "imdbId"))
		if err != nil {
			writeError(w, r, log, err, reviewResource)
			return
		}
		api.WriteJSON(w, http.StatusOK, stats)
	}
}

// MyReview writes the caller's review, or a JSON null when there is none.
func MyReview(svc *reviews.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		rev, err := svc.MyReview(r.Context(), uid, chi.URLParam(r, "imdbId"))
		if err != nil {
			writeError(w, r, log, err, reviewResource)
			return
		}
		if rev == nil {
			api.WriteJSON(w, http.StatusOK, nil)
			return
		}
		api.WriteJSON(w, http.StatusOK, rev)
	}
}

func MyReviews(svc *reviews.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		rows, err := svc.MyReviews(r.Context(), uid)
		if err != nil {
			writeError(w, r, log, err, reviewResource)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"reviews": rows})
	}
}
