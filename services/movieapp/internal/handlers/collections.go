package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/movie-library/internal/platform/api"
	"github.com/example/movie-library/services/movieapp/internal/library"
	"github.com/example/movie-library/services/movieapp/internal/store"
)

type createCollectionRequest struct {
	Name string `json:"name" validate:"required"`
}

type addMovieRequest struct {
	ImdbID string `json:"imdbId" validate:"required,max=20"`
	Title  string `json:"title" validate:"required,max=500"`
	Year   string `json:"year" validate:"max=20"`
	Poster string `json:"poster" validate:"max=2000"`
	Type   string `json:"type" validate:"max=50"`
}

type collectionRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func ListCollections(svc *library.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		cols, err := svc.ListCollections(r.Context(), uid)
		if err != nil {
			writeError(w, r, log, err, collectionResource)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"collections": cols})
	}
}

func CreateCollection(svc *library.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		var req createCollectionRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		c, err := svc.CreateCollection(r.Context(), uid, req.Name)
		if err != nil {
			writeError(w, r, log, err, collectionResource)
			return
		}
		api.WriteJSON(w, http.StatusCreated, c)
	}
}

func DeleteCollection(svc *library.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		if err := svc.DeleteCollection(r.Context(), uid, chi.URLParam(r, "collectionId")); err != nil {
			writeError(w, r, log, err, collectionResource)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListCollectionMovies serves one filtered, sorted page of a collection.
func ListCollectionMovies(svc *library.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		qs := r.URL.Query()

		var f store.MovieFilter
		f.Genres = store.ParseGenres(qs.Get("filterGenres"))
		from, set, ok := queryInt(w, r, "filterYearFrom")
		if !ok {
			return
		}
		if set {
			f.YearFrom = store.YearBound(from)
		}
		to, set, ok := queryInt(w, r, "filterYearTo")
		if !ok {
			return
		}
		if set {
			f.YearTo = store.YearBound(to)
		}
		minRating, set, ok := queryFloat(w, r, "minRating")
		if !ok {
			return
		}
		if set {
			f.MinRating = &minRating
		}
		page, _, ok := queryInt(w, r, "page")
		if !ok {
			return
		}
		pageSize, _, ok := queryInt(w, r, "pageSize")
		if !ok {
			return
		}

		q := store.NewCollectionMovieQuery(chi.URLParam(r, "collectionId"), f, qs.Get("sortBy"), qs.Get("sortOrder"), page, pageSize)
		res, err := svc.ListMovies(r.Context(), uid, q)
		if err != nil {
			writeError(w, r, log, err, collectionResource)
			return
		}
		api.WriteJSON(w, http.StatusOK, res)
	}
}

func AddCollectionMovie(svc *library.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		var req addMovieRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		m, err := svc.AddMovie(r.Context(), uid, chi.URLParam(r, "collectionId"), library.NewMovie{
			ImdbID: req.ImdbID,
			Title:  req.Title,
			Year:   req.Year,
			Poster: req.Poster,
			Type:   req.Type,
		})
		if err != nil {
			writeError(w, r, log, err, addMovieResource)
			return
		}
		api.WriteJSON(w, http.StatusCreated, m)
	}
}

func RemoveCollectionMovie(svc *library.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		if err := svc.RemoveMovie(r.Context(), uid, chi.URLParam(r, "collectionId"), chi.URLParam(r, "imdbId")); err != nil {
			writeError(w, r, log, err, movieResource)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func CollectionGenres(svc *library.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		genres, err := svc.CollectionGenres(r.Context(), uid, chi.URLParam(r, "collectionId"))
		if err != nil {
			writeError(w, r, log, err, collectionResource)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"genres": genres})
	}
}

// MovieCollections lists which of the caller's collections hold a movie.
func MovieCollections(svc *library.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		cols, err := svc.MovieCollections(r.Context(), uid, chi.URLParam(r, "imdbId"))
		if err != nil {
			writeError(w, r, log, err, collectionResource)
			return
		}
		refs := make([]collectionRef, 0, len(cols))
		for _, c := range cols {
			refs = append(refs, collectionRef{ID: c.ID, Name: c.Name})
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"collections": refs})
	}
}

func DashboardStats(svc *library.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		d, err := svc.Dashboard(r.Context(), uid)
		if err != nil {
			writeError(w, r, log, err, collectionResource)
			return
		}
		api.WriteJSON(w, http.StatusOK, d)
	}
}
