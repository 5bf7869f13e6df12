// Package ratingcache keeps the per-movie rating aggregate in step with the
// review rows it is derived from.
package ratingcache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/example/movie-library/internal/platform/metrics"
	"github.com/example/movie-library/services/movieapp/internal/domain"
	"github.com/example/movie-library/services/movieapp/internal/store"
)

// Round1 rounds to one decimal place, halves away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Average is the mean of count ratings summing to sum, rounded with Round1.
func Average(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	return Round1(float64(sum) / float64(count))
}

type Maintainer struct {
	Now func() time.Time
	Log *zap.Logger
}

func New(log *zap.Logger) *Maintainer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Maintainer{Now: func() time.Time { return time.Now().UTC() }, Log: log}
}

// Refresh recomputes the cache row for imdbID from the current reviews. It
// must run on the same Queries as the review write so that both commit or
// roll back together.
func (m *Maintainer) Refresh(ctx context.Context, q store.Queries, imdbID string) (domain.MovieStats, error) {
	stats, err := m.refresh(ctx, q, imdbID)
	if err != nil {
		metrics.RecordRatingCacheRefresh("error")
		m.Log.Warn("rating cache refresh failed", zap.String("imdb_id", imdbID), zap.Error(err))
		return domain.MovieStats{}, err
	}
	return stats, nil
}

func (m *Maintainer) refresh(ctx context.Context, q store.Queries, imdbID string) (domain.MovieStats, error) {
	if err := q.LockMovie(ctx, imdbID); err != nil {
		return domain.MovieStats{}, fmt.Errorf("lock movie: %w", err)
	}
	sum, count, err := q.SumRatings(ctx, imdbID)
	if err != nil {
		return domain.MovieStats{}, fmt.Errorf("sum ratings: %w", err)
	}

	if count == 0 {
		if err := q.DeleteRatingCache(ctx, imdbID); err != nil {
			return domain.MovieStats{}, fmt.Errorf("delete rating cache: %w", err)
		}
		metrics.RecordRatingCacheRefresh("delete")
		return domain.MovieStats{}, nil
	}

	stats := domain.MovieStats{AverageRating: Average(sum, count), ReviewCount: count}
	err = q.UpsertRatingCache(ctx, domain.RatingCache{
		ImdbID:        imdbID,
		AverageRating: stats.AverageRating,
		ReviewCount:   stats.ReviewCount,
		UpdatedAt:     m.Now(),
	})
	if err != nil {
		return domain.MovieStats{}, fmt.Errorf("upsert rating cache: %w", err)
	}
	metrics.RecordRatingCacheRefresh("upsert")
	return stats, nil
}

// Stats returns the cached aggregate, filling the cache from the reviews
// when no row exists yet. Movies without reviews report zero values and get
// no row.
func (m *Maintainer) Stats(ctx context.Context, s store.Store, imdbID string) (domain.MovieStats, error) {
	c, err := s.GetRatingCache(ctx, imdbID)
	if err == nil {
		return domain.MovieStats{AverageRating: c.AverageRating, ReviewCount: c.ReviewCount}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.MovieStats{}, err
	}
	if _, count, err := s.SumRatings(ctx, imdbID); err != nil {
		return domain.MovieStats{}, fmt.Errorf("sum ratings: %w", err)
	} else if count == 0 {
		return domain.MovieStats{}, nil
	}

	var stats domain.MovieStats
	err = s.InTx(ctx, func(q store.Queries) error {
		var err error
		stats, err = m.Refresh(ctx, q, imdbID)
		return err
	})
	return stats, err
}
