package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/movie-library/services/movieapp/internal/domain"
)

type memUser struct {
	domain.User
	hash string
}

// memData holds every table. Slices keep insertion order, which breaks ties
// the way an id column would.
type memData struct {
	users       []memUser
	collections []domain.Collection
	movies      []domain.CollectionMovie
	reviews     []domain.Review
	cache       map[string]domain.RatingCache
}

func (d *memData) clone() *memData {
	c := &memData{
		users:       append([]memUser(nil), d.users...),
		collections: append([]domain.Collection(nil), d.collections...),
		movies:      append([]domain.CollectionMovie(nil), d.movies...),
		reviews:     append([]domain.Review(nil), d.reviews...),
		cache:       make(map[string]domain.RatingCache, len(d.cache)),
	}
	for k, v := range d.cache {
		c.cache[k] = v
	}
	return c
}

// MemoryStore is a development and test implementation of Store. InTx holds
// the write lock for the whole callback and restores a snapshot when the
// callback fails.
type MemoryStore struct {
	mu   *sync.RWMutex
	data **memData
	inTx bool
}

func NewMemoryStore() *MemoryStore {
	d := &memData{cache: make(map[string]domain.RatingCache)}
	return &MemoryStore{mu: &sync.RWMutex{}, data: &d}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) InTx(_ context.Context, fn func(q Queries) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := (*s.data).clone()
	if err := fn(&MemoryStore{mu: s.mu, data: s.data, inTx: true}); err != nil {
		*s.data = snapshot
		return err
	}
	return nil
}

func noop() {}

func (s *MemoryStore) rlock() func() {
	if s.inTx {
		return noop
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return noop
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) d() *memData { return *s.data }

// users

func (s *MemoryStore) CreateUser(_ context.Context, email, passwordHash string) (domain.User, error) {
	defer s.lock()()
	d := s.d()
	for _, u := range d.users {
		if u.Email == email {
			return domain.User{}, domain.ErrConflict
		}
	}
	u := domain.User{ID: uuid.NewString(), Email: email, CreatedAt: time.Now().UTC()}
	d.users = append(d.users, memUser{User: u, hash: passwordHash})
	return u, nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (domain.User, string, error) {
	defer s.rlock()()
	for _, u := range s.d().users {
		if u.Email == email {
			return u.User, u.hash, nil
		}
	}
	return domain.User{}, "", domain.ErrNotFound
}

func (d *memData) emailOf(userID string) string {
	for _, u := range d.users {
		if u.ID == userID {
			return u.Email
		}
	}
	return ""
}

// collections

func (d *memData) movieCount(collectionID string) int {
	n := 0
	for _, m := range d.movies {
		if m.CollectionID == collectionID {
			n++
		}
	}
	return n
}

func (d *memData) withCount(c domain.Collection) domain.Collection {
	c.MovieCount = d.movieCount(c.ID)
	return c
}

func (s *MemoryStore) CreateCollection(_ context.Context, userID, name string, now time.Time) (domain.Collection, error) {
	defer s.lock()()
	d := s.d()
	for _, c := range d.collections {
		if c.UserID == userID && strings.EqualFold(c.Name, name) {
			return domain.Collection{}, domain.ErrConflict
		}
	}
	c := domain.Collection{ID: uuid.NewString(), UserID: userID, Name: name, CreatedAt: now}
	d.collections = append(d.collections, c)
	return c, nil
}

func (s *MemoryStore) GetCollection(_ context.Context, userID, collectionID string) (domain.Collection, error) {
	defer s.rlock()()
	d := s.d()
	for _, c := range d.collections {
		if c.ID == collectionID && c.UserID == userID {
			return d.withCount(c), nil
		}
	}
	return domain.Collection{}, domain.ErrNotFound
}

func (s *MemoryStore) ListCollections(_ context.Context, userID string) ([]domain.Collection, error) {
	defer s.rlock()()
	d := s.d()
	var out []domain.Collection
	for _, c := range d.collections {
		if c.UserID == userID {
			out = append(out, d.withCount(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) DeleteCollection(_ context.Context, userID, collectionID string) error {
	defer s.lock()()
	d := s.d()
	idx := -1
	for i, c := range d.collections {
		if c.ID == collectionID && c.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ErrNotFound
	}
	d.collections = append(d.collections[:idx], d.collections[idx+1:]...)

	kept := d.movies[:0]
	for _, m := range d.movies {
		if m.CollectionID != collectionID {
			kept = append(kept, m)
		}
	}
	d.movies = kept
	return nil
}

func (s *MemoryStore) AddCollectionMovie(_ context.Context, m domain.CollectionMovie) (domain.CollectionMovie, error) {
	defer s.lock()()
	d := s.d()
	for _, existing := range d.movies {
		if existing.CollectionID == m.CollectionID && existing.ImdbID == m.ImdbID {
			return domain.CollectionMovie{}, domain.ErrConflict
		}
	}
	m.ID = uuid.NewString()
	m.AverageRating = nil
	d.movies = append(d.movies, m)
	return m, nil
}

func (s *MemoryStore) RemoveCollectionMovie(_ context.Context, collectionID, imdbID string) error {
	defer s.lock()()
	d := s.d()
	for i, m := range d.movies {
		if m.CollectionID == collectionID && m.ImdbID == imdbID {
			d.movies = append(d.movies[:i], d.movies[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (d *memData) ratingOf(imdbID string) *float64 {
	if c, ok := d.cache[imdbID]; ok {
		avg := c.AverageRating
		return &avg
	}
	return nil
}

func (s *MemoryStore) ListCollectionMovies(_ context.Context, q CollectionMovieQuery) (CollectionMoviePage, error) {
	defer s.rlock()()
	d := s.d()

	var matched []domain.CollectionMovie
	for _, m := range d.movies {
		if m.CollectionID != q.CollectionID {
			continue
		}
		m.AverageRating = d.ratingOf(m.ImdbID)
		if q.Matches(m, m.AverageRating) {
			matched = append(matched, m)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return q.Less(matched[i], matched[j]) })

	total := len(matched)
	start := min(q.Offset(), total)
	end := min(start+q.PageSize, total)
	return CollectionMoviePage{
		Movies:      append([]domain.CollectionMovie{}, matched[start:end]...),
		TotalCount:  total,
		TotalPages:  q.TotalPages(total),
		CurrentPage: q.Page,
	}, nil
}

func (s *MemoryStore) CollectionGenreValues(_ context.Context, collectionID string) ([]string, error) {
	defer s.rlock()()
	var out []string
	for _, m := range s.d().movies {
		if m.CollectionID == collectionID && m.Genre != nil && *m.Genre != "" {
			out = append(out, *m.Genre)
		}
	}
	return out, nil
}

func (s *MemoryStore) CollectionsContaining(_ context.Context, userID, imdbID string) ([]domain.Collection, error) {
	defer s.rlock()()
	d := s.d()
	var out []domain.Collection
	for _, c := range d.collections {
		if c.UserID != userID {
			continue
		}
		for _, m := range d.movies {
			if m.CollectionID == c.ID && m.ImdbID == imdbID {
				out = append(out, d.withCount(c))
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
