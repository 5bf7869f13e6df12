package reviews

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/movie-library/services/movieapp/internal/domain"
	"github.com/example/movie-library/services/movieapp/internal/store"
)

var errCacheWrite = errors.New("cache write failed")

// faults selects which transactional writes fail.
type faults struct {
	upsertCache error
	deleteCache error
	insert      error
}

type faultyQueries struct {
	store.Queries
	f *faults
}

func (q faultyQueries) UpsertRatingCache(ctx context.Context, c domain.RatingCache) error {
	if q.f.upsertCache != nil {
		return q.f.upsertCache
	}
	return q.Queries.UpsertRatingCache(ctx, c)
}

func (q faultyQueries) DeleteRatingCache(ctx context.Context, imdbID string) error {
	if q.f.deleteCache != nil {
		return q.f.deleteCache
	}
	return q.Queries.DeleteRatingCache(ctx, imdbID)
}

func (q faultyQueries) InsertReview(ctx context.Context, r domain.Review) error {
	if q.f.insert != nil {
		return q.f.insert
	}
	return q.Queries.InsertReview(ctx, r)
}

// faultyStore injects faults into the queries handed to InTx callbacks.
type faultyStore struct {
	*store.MemoryStore
	f faults
}

func (s *faultyStore) InTx(ctx context.Context, fn func(q store.Queries) error) error {
	return s.MemoryStore.InTx(ctx, func(q store.Queries) error {
		return fn(faultyQueries{Queries: q, f: &s.f})
	})
}

func newFaultyFixture(t *testing.T) (*fixture, *faultyStore) {
	t.Helper()
	fs := &faultyStore{MemoryStore: store.NewMemoryStore()}
	f := &fixture{store: fs.MemoryStore, now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	f.svc = NewService(fs, nil, nil, nil)
	f.svc.Now = func() time.Time {
		f.now = f.now.Add(time.Second)
		return f.now
	}
	return f, fs
}

func (f *fixture) requireStats(t *testing.T, imdbID string, avg float64, count int) {
	t.Helper()
	c, err := f.store.GetRatingCache(context.Background(), imdbID)
	if err != nil {
		t.Fatalf("get rating cache: %v", err)
	}
	if c.AverageRating != avg || c.ReviewCount != count {
		t.Fatalf("expected cache %.1f/%d, got %.1f/%d", avg, count, c.AverageRating, c.ReviewCount)
	}
}

func TestSubmit_CacheFailureRollsBack(t *testing.T) {
	f, fs := newFaultyFixture(t)
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	ctx := context.Background()

	if _, err := f.svc.Submit(ctx, a, "tt1", 10, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	fs.f.upsertCache = errCacheWrite

	if _, err := f.svc.Submit(ctx, b, "tt1", 2, nil); !errors.Is(err, errCacheWrite) {
		t.Fatalf("expected cache error on insert, got %v", err)
	}
	if _, err := f.store.GetReview(ctx, b, "tt1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected inserted review rolled back, got %v", err)
	}

	if _, err := f.svc.Submit(ctx, a, "tt1", 1, text("Changed my mind entirely.")); !errors.Is(err, errCacheWrite) {
		t.Fatalf("expected cache error on update, got %v", err)
	}
	r, err := f.store.GetReview(ctx, a, "tt1")
	if err != nil {
		t.Fatalf("get review: %v", err)
	}
	if r.Rating != 10 || r.Text != nil || r.UpdatedAt != nil {
		t.Fatalf("expected original review untouched, got %+v", r)
	}
	f.requireStats(t, "tt1", 10, 1)
}

func TestDelete_CacheFailureRollsBack(t *testing.T) {
	f, fs := newFaultyFixture(t)
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	ctx := context.Background()

	if _, err := f.svc.Submit(ctx, a, "tt1", 10, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.svc.Submit(ctx, b, "tt1", 9, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	fs.f.upsertCache = errCacheWrite
	if err := f.svc.Delete(ctx, b, "tt1"); !errors.Is(err, errCacheWrite) {
		t.Fatalf("expected cache error, got %v", err)
	}
	if _, err := f.store.GetReview(ctx, b, "tt1"); err != nil {
		t.Fatalf("expected review kept after failed delete, got %v", err)
	}
	f.requireStats(t, "tt1", 9.5, 2)

	fs.f.upsertCache = nil
	if err := f.svc.Delete(ctx, b, "tt1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// The last review removes the cache row, so the delete path must fail too.
	fs.f.deleteCache = errCacheWrite
	if err := f.svc.Delete(ctx, a, "tt1"); !errors.Is(err, errCacheWrite) {
		t.Fatalf("expected cache error, got %v", err)
	}
	if _, err := f.store.GetReview(ctx, a, "tt1"); err != nil {
		t.Fatalf("expected last review kept after failed delete, got %v", err)
	}
	f.requireStats(t, "tt1", 10, 1)
}

func TestSubmit_ConcurrentInsertConflict(t *testing.T) {
	f, fs := newFaultyFixture(t)
	uid := f.user(t, "a@example.com")
	ctx := context.Background()

	fs.f.insert = domain.ErrConflict
	if _, err := f.svc.Submit(ctx, uid, "tt1", 7, nil); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := f.store.GetRatingCache(ctx, "tt1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no cache row, got %v", err)
	}
}
