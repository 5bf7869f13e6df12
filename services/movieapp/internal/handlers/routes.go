package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/example/movie-library/internal/platform/api"
	"github.com/example/movie-library/internal/platform/auth"
	"github.com/example/movie-library/internal/platform/httpserver"
	"github.com/example/movie-library/services/movieapp/internal/accounts"
	"github.com/example/movie-library/services/movieapp/internal/library"
	"github.com/example/movie-library/services/movieapp/internal/reviews"
)

type Deps struct {
	ServiceName string
	Verifier    auth.JWTVerifier
	Accounts    *accounts.Service
	Library     *library.Service
	Reviews     *reviews.Service
	Movies      MovieSource
	// AuthRateLimit caps /api/auth requests per IP per minute; 0 disables it.
	AuthRateLimit int
	Log           *zap.Logger
}

// Mount registers the /api routes on r.
func Mount(r chi.Router, d Deps) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	requireUser := auth.RequireUser(d.Verifier)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", Health(d.ServiceName, time.Now))

		r.Route("/auth", func(r chi.Router) {
			if d.AuthRateLimit > 0 {
				r.Use(httprate.Limit(d.AuthRateLimit, time.Minute,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(rateLimited),
				))
			}
			r.Post("/register", Register(d.Accounts, log))
			r.Post("/login", Login(d.Accounts, log))
		})

		r.Route("/movies", func(r chi.Router) {
			r.Get("/search", SearchMovies(d.Movies, log))
			r.Get("/{imdbId}", MovieDetails(d.Movies, log))
		})

		r.Route("/library", func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/collections", ListCollections(d.Library, log))
			r.Post("/collections", CreateCollection(d.Library, log))
			r.Delete("/collections/{collectionId}", DeleteCollection(d.Library, log))
			r.Get("/collections/{collectionId}/movies", ListCollectionMovies(d.Library, log))
			r.Post("/collections/{collectionId}/movies", AddCollectionMovie(d.Library, log))
			r.Delete("/collections/{collectionId}/movies/{imdbId}", RemoveCollectionMovie(d.Library, log))
			r.Get("/collections/{collectionId}/genres", CollectionGenres(d.Library, log))
			r.Get("/movies/{imdbId}/collections", MovieCollections(d.Library, log))
			r.Get("/dashboard/stats", DashboardStats(d.Library, log))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(auth.OptionalUser(d.Verifier))
				r.Get("/movies/{imdbId}", MovieReviews(d.Reviews, log))
				r.Get("/movies/{imdbId}/stats", MovieStats(d.Reviews, log))
			})
			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Post("/", SubmitReview(d.Reviews, log))
				r.Delete("/{imdbId}", DeleteReview(d.Reviews, log))
				r.Get("/movies/{imdbId}/my-review", MyReview(d.Reviews, log))
				r.Get("/my-reviews", MyReviews(d.Reviews, log))
			})
		})
	})
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	api.RateLimited(w, api.CodeRateLimited, "Too many requests, try again later", httpserver.RequestIDFromContext(r.Context()), nil)
}
