package ratingcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/example/movie-library/internal/platform/metrics"
	"github.com/example/movie-library/services/movieapp/internal/domain"
	"github.com/example/movie-library/services/movieapp/internal/store"
)

func TestRound1(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{9.5, 9.5},
		{0.25, 0.3},
		{6.666, 6.7},
		{6.64, 6.6},
		{7, 7},
	}
	for _, tt := range tests {
		if got := Round1(tt.in); got != tt.want {
			t.Fatalf("Round1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAverage(t *testing.T) {
	if got := Average(19, 2); got != 9.5 {
		t.Fatalf("expected 9.5, got %v", got)
	}
	if got := Average(20, 3); got != 6.7 {
		t.Fatalf("expected 6.7, got %v", got)
	}
	if got := Average(0, 0); got != 0 {
		t.Fatalf("expected 0 for no ratings, got %v", got)
	}
}

func insertReview(t *testing.T, s store.Store, userID, imdbID string, rating int) {
	t.Helper()
	err := s.InsertReview(context.Background(), domain.Review{
		ID: userID + imdbID, UserID: userID, ImdbID: imdbID, Rating: rating, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("insert review: %v", err)
	}
}

func refresh(t *testing.T, m *Maintainer, s store.Store, imdbID string) domain.MovieStats {
	t.Helper()
	var stats domain.MovieStats
	err := s.InTx(context.Background(), func(q store.Queries) error {
		var err error
		stats, err = m.Refresh(context.Background(), q, imdbID)
		return err
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return stats
}

func TestRefresh_UpsertAndDelete(t *testing.T) {
	s := store.NewMemoryStore()
	m := New(nil)
	ctx := context.Background()
	before := testutil.ToFloat64(metrics.RatingCacheRefreshes.WithLabelValues("upsert"))

	insertReview(t, s, "u1", "tt1", 10)
	insertReview(t, s, "u2", "tt1", 9)
	stats := refresh(t, m, s, "tt1")
	if stats.AverageRating != 9.5 || stats.ReviewCount != 2 {
		t.Fatalf("expected 9.5/2, got %+v", stats)
	}
	c, err := s.GetRatingCache(ctx, "tt1")
	if err != nil || c.AverageRating != 9.5 || c.ReviewCount != 2 {
		t.Fatalf("unexpected cache row %+v (%v)", c, err)
	}

	if err := s.DeleteReview(ctx, "u2", "tt1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	stats = refresh(t, m, s, "tt1")
	if stats.AverageRating != 10 || stats.ReviewCount != 1 {
		t.Fatalf("expected 10/1, got %+v", stats)
	}

	_ = s.DeleteReview(ctx, "u1", "tt1")
	refresh(t, m, s, "tt1")
	if _, err := s.GetRatingCache(ctx, "tt1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected cache row removed, got %v", err)
	}

	// Deleting an absent row is fine.
	refresh(t, m, s, "tt1")

	after := testutil.ToFloat64(metrics.RatingCacheRefreshes.WithLabelValues("upsert"))
	if after-before != 2 {
		t.Fatalf("expected 2 upserts recorded, got %v", after-before)
	}
}

func TestStats_FillsMissingCache(t *testing.T) {
	s := store.NewMemoryStore()
	m := New(nil)
	ctx := context.Background()

	stats, err := m.Stats(ctx, s, "tt-none")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.AverageRating != 0 || stats.ReviewCount != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
	if _, err := s.GetRatingCache(ctx, "tt-none"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("expected no cache row for a movie without reviews")
	}

	// Reviews written without a refresh leave the cache missing.
	insertReview(t, s, "u1", "tt2", 4)
	insertReview(t, s, "u2", "tt2", 7)
	stats, err = m.Stats(ctx, s, "tt2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.AverageRating != 5.5 || stats.ReviewCount != 2 {
		t.Fatalf("expected 5.5/2, got %+v", stats)
	}
	if _, err := s.GetRatingCache(ctx, "tt2"); err != nil {
		t.Fatalf("expected cache row to be persisted: %v", err)
	}
}

type txCountingStore struct {
	*store.MemoryStore
	txs int
}

func (s *txCountingStore) InTx(ctx context.Context, fn func(q store.Queries) error) error {
	s.txs++
	return s.MemoryStore.InTx(ctx, fn)
}

func TestStats_UnreviewedMovieIsReadOnly(t *testing.T) {
	s := &txCountingStore{MemoryStore: store.NewMemoryStore()}
	m := New(nil)
	before := testutil.ToFloat64(metrics.RatingCacheRefreshes.WithLabelValues("delete"))

	for range 3 {
		stats, err := m.Stats(context.Background(), s, "tt-unseen")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats.ReviewCount != 0 || stats.AverageRating != 0 {
			t.Fatalf("expected zero stats, got %+v", stats)
		}
	}
	if s.txs != 0 {
		t.Fatalf("expected no transactions, got %d", s.txs)
	}
	if after := testutil.ToFloat64(metrics.RatingCacheRefreshes.WithLabelValues("delete")); after != before {
		t.Fatalf("expected no delete refreshes recorded, got %v", after-before)
	}

	insertReview(t, s.MemoryStore, "u1", "tt-unseen", 6)
	if _, err := m.Stats(context.Background(), s, "tt-unseen"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.txs != 1 {
		t.Fatalf("expected one fill transaction, got %d", s.txs)
	}
}
