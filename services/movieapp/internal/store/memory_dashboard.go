package store

import (
	"context"
	"sort"

	"github.com/example/movie-library/services/movieapp/internal/domain"
)

func (d *memData) ownedCollections(userID string) map[string]bool {
	owned := make(map[string]bool)
	for _, c := range d.collections {
		if c.UserID == userID {
			owned[c.ID] = true
		}
	}
	return owned
}

func (d *memData) userMovies(userID string) []domain.CollectionMovie {
	owned := d.ownedCollections(userID)
	var out []domain.CollectionMovie
	for _, m := range d.movies {
		if owned[m.CollectionID] {
			out = append(out, m)
		}
	}
	return out
}

func (s *MemoryStore) CountCollections(_ context.Context, userID string) (int, error) {
	defer s.rlock()()
	return len(s.d().ownedCollections(userID)), nil
}

func (s *MemoryStore) CountDistinctMovies(_ context.Context, userID string) (int, error) {
	defer s.rlock()()
	seen := make(map[string]bool)
	for _, m := range s.d().userMovies(userID) {
		seen[m.ImdbID] = true
	}
	return len(seen), nil
}

func (s *MemoryStore) RatingHistogram(_ context.Context, userID string) (map[int]int, error) {
	defer s.rlock()()
	out := make(map[int]int)
	for _, r := range s.d().reviews {
		if r.UserID == userID {
			out[r.Rating]++
		}
	}
	return out, nil
}

func (s *MemoryStore) UserGenreValues(_ context.Context, userID string) ([]string, error) {
	defer s.rlock()()
	var out []string
	for _, m := range s.d().userMovies(userID) {
		if m.Genre != nil && *m.Genre != "" {
			out = append(out, *m.Genre)
		}
	}
	return out, nil
}

func (s *MemoryStore) RecentAdditions(_ context.Context, userID string, limit int) ([]domain.CollectionMovie, error) {
	defer s.rlock()()
	movies := s.d().userMovies(userID)
	sort.SliceStable(movies, func(i, j int) bool { return movies[i].AddedAt.After(movies[j].AddedAt) })
	if len(movies) > limit {
		movies = movies[:limit]
	}
	return movies, nil
}

func (s *MemoryStore) TopCollections(_ context.Context, userID string, limit int) ([]domain.Collection, error) {
	defer s.rlock()()
	d := s.d()
	var out []domain.Collection
	for _, c := range d.collections {
		if c.UserID == userID {
			out = append(out, d.withCount(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MovieCount > out[j].MovieCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
