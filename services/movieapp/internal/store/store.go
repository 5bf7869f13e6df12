// Package store persists users, collections, reviews and the derived rating
// cache. Postgres is the production backend; MemoryStore backs development
// and tests.
package store

import (
	"context"
	"time"

	"github.com/example/movie-library/services/movieapp/internal/domain"
)

// UserQueries covers account rows. Emails are stored lowercased.
type UserQueries interface {
	CreateUser(ctx context.Context, email, passwordHash string) (domain.User, error)
	// FindUserByEmail returns the user and its bcrypt hash.
	FindUserByEmail(ctx context.Context, email string) (domain.User, string, error)
}

// CollectionQueries covers collections and their movies. Collection lookups
// are scoped to the owner: a collection that exists but belongs to somebody
// else is reported as domain.ErrNotFound.
type CollectionQueries interface {
	CreateCollection(ctx context.Context, userID, name string, now time.Time) (domain.Collection, error)
	GetCollection(ctx context.Context, userID, collectionID string) (domain.Collection, error)
	// ListCollections returns the user's collections with movie counts,
	// oldest first.
	ListCollections(ctx context.Context, userID string) ([]domain.Collection, error)
	DeleteCollection(ctx context.Context, userID, collectionID string) error

	AddCollectionMovie(ctx context.Context, m domain.CollectionMovie) (domain.CollectionMovie, error)
	RemoveCollectionMovie(ctx context.Context, collectionID, imdbID string) error
	ListCollectionMovies(ctx context.Context, q CollectionMovieQuery) (CollectionMoviePage, error)
	// CollectionGenreValues returns the raw, non-empty genre strings of the
	// collection's movies.
	CollectionGenreValues(ctx context.Context, collectionID string) ([]string, error)
	// CollectionsContaining lists the user's collections holding imdbID,
	// ordered by name.
	CollectionsContaining(ctx context.Context, userID, imdbID string) ([]domain.Collection, error)
}

// ReviewQueries covers review rows and the rating cache derived from them.
type ReviewQueries interface {
	GetReview(ctx context.Context, userID, imdbID string) (domain.Review, error)
	InsertReview(ctx context.Context, r domain.Review) error
	UpdateReview(ctx context.Context, r domain.Review) error
	DeleteReview(ctx context.Context, userID, imdbID string) error
	// ListMovieReviews returns reviews newest first, skipping excludeUserID
	// when it is non-empty.
	ListMovieReviews(ctx context.Context, imdbID, excludeUserID string, offset, limit int) ([]domain.Review, error)
	ListUserReviews(ctx context.Context, userID string) ([]domain.Review, error)
	// SumRatings returns the sum and number of ratings for a movie.
	SumRatings(ctx context.Context, imdbID string) (sum, count int, err error)

	// LockMovie serializes rating cache refreshes for one movie until the
	// surrounding transaction ends.
	LockMovie(ctx context.Context, imdbID string) error
	GetRatingCache(ctx context.Context, imdbID string) (domain.RatingCache, error)
	UpsertRatingCache(ctx context.Context, c domain.RatingCache) error
	DeleteRatingCache(ctx context.Context, imdbID string) error
}

// DashboardQueries are the per-user aggregates behind the dashboard.
type DashboardQueries interface {
	CountCollections(ctx context.Context, userID string) (int, error)
	CountDistinctMovies(ctx context.Context, userID string) (int, error)
	// RatingHistogram maps each star value to the number of the user's
	// reviews carrying it. Values with no reviews are absent.
	RatingHistogram(ctx context.Context, userID string) (map[int]int, error)
	// UserGenreValues returns the raw, non-empty genre strings of every
	// movie row across the user's collections.
	UserGenreValues(ctx context.Context, userID string) ([]string, error)
	RecentAdditions(ctx context.Context, userID string, limit int) ([]domain.CollectionMovie, error)
	TopCollections(ctx context.Context, userID string, limit int) ([]domain.Collection, error)
}

type Queries interface {
	UserQueries
	CollectionQueries
	ReviewQueries
	DashboardQueries
}

// Store is Queries plus transactions. Inside InTx every call made through q
// commits or rolls back together; an error returned by fn rolls back.
type Store interface {
	Queries
	InTx(ctx context.Context, fn func(q Queries) error) error
	Ping(ctx context.Context) error
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
