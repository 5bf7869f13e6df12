package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/movie-library/internal/platform/api"
	"github.com/example/movie-library/internal/platform/httpserver"
	"github.com/example/movie-library/services/movieapp/internal/omdb"
)

// MovieSource is the external metadata lookup behind the /api/movies routes.
type MovieSource interface {
	Search(ctx context.Context, query string) ([]omdb.SearchResult, error)
	Details(ctx context.Context, imdbID string) (omdb.Details, error)
}

type movieSummary struct {
	Title  string `json:"title"`
	Year   string `json:"year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"type"`
	Poster string `json:"poster"`
}

type searchResponse struct {
	Movies []movieSummary `json:"movies"`
}

type movieDetails struct {
	Title      string `json:"title"`
	Year       string `json:"year"`
	Rated      string `json:"rated"`
	Runtime    string `json:"runtime"`
	Genre      string `json:"genre"`
	Director   string `json:"director"`
	Actors     string `json:"actors"`
	Plot       string `json:"plot"`
	Poster     string `json:"poster"`
	ImdbRating string `json:"imdbRating"`
	ImdbID     string `json:"imdbID"`
	Type       string `json:"type"`
}

func SearchMovies(src MovieSource, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("query"))
		if query == "" {
			api.BadRequest(w, api.CodeValidation, "Search query is required", httpserver.RequestIDFromContext(r.Context()), map[string]any{"field": "query"})
			return
		}
		results, err := src.Search(r.Context(), query)
		if err != nil {
			writeError(w, r, log, err, movieResource)
			return
		}
		resp := searchResponse{Movies: make([]movieSummary, 0, len(results))}
		for _, m := range results {
			resp.Movies = append(resp.Movies, movieSummary{Title: m.Title, Year: m.Year, ImdbID: m.ImdbID, Type: m.Type, Poster: m.Poster})
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

func MovieDetails(src MovieSource, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		imdbID := strings.TrimSpace(chi.URLParam(r, "imdbId"))
		if imdbID == "" {
			api.BadRequest(w, api.CodeValidation, "Movie ID is required", httpserver.RequestIDFromContext(r.Context()), nil)
			return
		}
		d, err := src.Details(r.Context(), imdbID)
		if err != nil {
			writeError(w, r, log, err, movieResource)
			return
		}
		api.WriteJSON(w, http.StatusOK, movieDetails{
			Title:      d.Title,
			Year:       d.Year,
			Rated:      d.Rated,
			Runtime:    d.Runtime,
			Genre:      d.Genre,
			Director:   d.Director,
			Actors:     d.Actors,
			Plot:       d.Plot,
			Poster:     d.Poster,
			ImdbRating: d.ImdbRating,
			ImdbID:     d.ImdbID,
			Type:       d.Type,
		})
	}
}
