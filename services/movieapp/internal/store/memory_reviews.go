package store

import (
	"context"
	"sort"

	"github.com/example/movie-library/services/movieapp/internal/domain"
)

func (d *memData) reviewIndex(userID, imdbID string) int {
	for i, r := range d.reviews {
		if r.UserID == userID && r.ImdbID == imdbID {
			return i
		}
	}
	return -1
}

func (d *memData) withEmail(r domain.Review) domain.Review {
	r.UserEmail = d.emailOf(r.UserID)
	return r
}

// sortedReviews returns the matching reviews newest first.
func (d *memData) sortedReviews(keep func(domain.Review) bool) []domain.Review {
	var out []domain.Review
	for _, r := range d.reviews {
		if keep(r) {
			out = append(out, d.withEmail(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) GetReview(_ context.Context, userID, imdbID string) (domain.Review, error) {
	defer s.rlock()()
	d := s.d()
	i := d.reviewIndex(userID, imdbID)
	if i < 0 {
		return domain.Review{}, domain.ErrNotFound
	}
	return d.withEmail(d.reviews[i]), nil
}

func (s *MemoryStore) InsertReview(_ context.Context, r domain.Review) error {
	defer s.lock()()
	d := s.d()
	if d.reviewIndex(r.UserID, r.ImdbID) >= 0 {
		return domain.ErrConflict
	}
	r.UserEmail = ""
	d.reviews = append(d.reviews, r)
	return nil
}

func (s *MemoryStore) UpdateReview(_ context.Context, r domain.Review) error {
	defer s.lock()()
	d := s.d()
	i := d.reviewIndex(r.UserID, r.ImdbID)
	if i < 0 {
		return domain.ErrNotFound
	}
	cur := d.reviews[i]
	cur.Rating = r.Rating
	cur.Text = r.Text
	cur.UpdatedAt = r.UpdatedAt
	d.reviews[i] = cur
	return nil
}

func (s *MemoryStore) DeleteReview(_ context.Context, userID, imdbID string) error {
	defer s.lock()()
	d := s.d()
	i := d.reviewIndex(userID, imdbID)
	if i < 0 {
		return domain.ErrNotFound
	}
	d.reviews = append(d.reviews[:i], d.reviews[i+1:]...)
	return nil
}

func (s *MemoryStore) ListMovieReviews(_ context.Context, imdbID, excludeUserID string, offset, limit int) ([]domain.Review, error) {
	defer s.rlock()()
	all := s.d().sortedReviews(func(r domain.Review) bool {
		return r.ImdbID == imdbID && (excludeUserID == "" || r.UserID != excludeUserID)
	})
	start := min(max(offset, 0), len(all))
	end := min(start+limit, len(all))
	return all[start:end], nil
}

func (s *MemoryStore) ListUserReviews(_ context.Context, userID string) ([]domain.Review, error) {
	defer s.rlock()()
	return s.d().sortedReviews(func(r domain.Review) bool { return r.UserID == userID }), nil
}

func (s *MemoryStore) SumRatings(_ context.Context, imdbID string) (int, int, error) {
	defer s.rlock()()
	sum, count := 0, 0
	for _, r := range s.d().reviews {
		if r.ImdbID == imdbID {
			sum += r.Rating
			count++
		}
	}
	return sum, count, nil
}

// LockMovie is a no-op: InTx already holds the store-wide write lock.
func (s *MemoryStore) LockMovie(context.Context, string) error { return nil }

func (s *MemoryStore) GetRatingCache(_ context.Context, imdbID string) (domain.RatingCache, error) {
	defer s.rlock()()
	c, ok := s.d().cache[imdbID]
	if !ok {
		return domain.RatingCache{}, domain.ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) UpsertRatingCache(_ context.Context, c domain.RatingCache) error {
	defer s.lock()()
	s.d().cache[c.ImdbID] = c
	return nil
}

func (s *MemoryStore) DeleteRatingCache(_ context.Context, imdbID string) error {
	defer s.lock()()
	delete(s.d().cache, imdbID)
	return nil
}
