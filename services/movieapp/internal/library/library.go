// Package library manages a user's collections, the movies in them and the
// dashboard built from both.
package library

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/example/movie-library/internal/platform/events"
	"github.com/example/movie-library/services/movieapp/internal/domain"
	"github.com/example/movie-library/services/movieapp/internal/omdb"
	"github.com/example/movie-library/services/movieapp/internal/store"
)

const (
	MaxCollectionName     = 100
	DefaultCollectionName = "Favorites"
)

// MetadataSource resolves the genre of a movie when it is added.
type MetadataSource interface {
	Details(ctx context.Context, imdbID string) (omdb.Details, error)
}

type Service struct {
	Store    store.Store
	Metadata MetadataSource
	Events   *events.Publisher
	Log      *zap.Logger
	Now      func() time.Time
}

func NewService(s store.Store, md MetadataSource, pub *events.Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		Store:    s,
		Metadata: md,
		Events:   pub,
		Log:      log,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// ValidateCollectionName trims name and checks it is usable.
func ValidateCollectionName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError("name", "Collection name is required")
	}
	if utf8.RuneCountInString(name) > MaxCollectionName {
		return "", domain.NewValidationError("name", fmt.Sprintf("Collection name cannot exceed %d characters", MaxCollectionName))
	}
	return name, nil
}

func (s *Service) CreateCollection(ctx context.Context, userID, name string) (domain.Collection, error) {
	name, err := ValidateCollectionName(name)
	if err != nil {
		return domain.Collection{}, err
	}
	c, err := s.Store.CreateCollection(ctx, userID, name, s.Now())
	if err != nil {
		return domain.Collection{}, err
	}
	s.Events.Publish(events.SubjectCollectionAdded, "collection_created", userID, map[string]any{
		"collection_id": c.ID,
		"name":          c.Name,
	})
	return c, nil
}

func (s *Service) ListCollections(ctx context.Context, userID string) ([]domain.Collection, error) {
	cols, err := s.Store.ListCollections(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cols == nil {
		cols = []domain.Collection{}
	}
	return cols, nil
}

func (s *Service) DeleteCollection(ctx context.Context, userID, collectionID string) error {
	if err := s.Store.DeleteCollection(ctx, userID, collectionID); err != nil {
		return err
	}
	s.Events.Publish(events.SubjectCollectionDelete, "collection_deleted", userID, map[string]any{
		"collection_id": collectionID,
	})
	return nil
}

// NewMovie is what the client knows about a movie when adding it.
type NewMovie struct {
	ImdbID string
	Title  string
	Year   string
	Poster string
	Type   string
}

// AddMovie puts a movie into one of the user's collections. The genre is
// looked up once here; a failed lookup stores the movie without a genre.
func (s *Service) AddMovie(ctx context.Context, userID, collectionID string, m NewMovie) (domain.CollectionMovie, error) {
	if strings.TrimSpace(m.ImdbID) == "" {
		return domain.CollectionMovie{}, domain.NewValidationError("imdbId", "Movie id is required")
	}
	if _, err := s.Store.GetCollection(ctx, userID, collectionID); err != nil {
		return domain.CollectionMovie{}, err
	}

	row := domain.CollectionMovie{
		CollectionID: collectionID,
		ImdbID:       strings.TrimSpace(m.ImdbID),
		Title:        m.Title,
		Year:         m.Year,
		Poster:       m.Poster,
		Type:         m.Type,
		Genre:        s.lookupGenre(ctx, m.ImdbID),
		AddedAt:      s.Now(),
	}
	added, err := s.Store.AddCollectionMovie(ctx, row)
	if err != nil {
		return domain.CollectionMovie{}, err
	}

	s.Events.Publish(events.SubjectMovieAdded, "movie_added", userID, map[string]any{
		"collection_id": collectionID,
		"imdb_id":       added.ImdbID,
	})
	return added, nil
}

func (s *Service) lookupGenre(ctx context.Context, imdbID string) *string {
	if s.Metadata == nil {
		return nil
	}
	d, err := s.Metadata.Details(ctx, imdbID)
	if err != nil {
		s.Log.Warn("genre lookup failed", zap.String("imdb_id", imdbID), zap.Error(err))
		return nil
	}
	g := strings.TrimSpace(d.Genre)
	if g == "" || g == "N/A" {
		return nil
	}
	return &g
}

func (s *Service) RemoveMovie(ctx context.Context, userID, collectionID, imdbID string) error {
	if _, err := s.Store.GetCollection(ctx, userID, collectionID); err != nil {
		return err
	}
	if err := s.Store.RemoveCollectionMovie(ctx, collectionID, imdbID); err != nil {
		return err
	}
	s.Events.Publish(events.SubjectMovieRemoved, "movie_removed", userID, map[string]any{
		"collection_id": collectionID,
		"imdb_id":       imdbID,
	})
	return nil
}

// ListMovies serves a filtered, sorted page of a collection the user owns.
func (s *Service) ListMovies(ctx context.Context, userID string, q store.CollectionMovieQuery) (store.CollectionMoviePage, error) {
	if _, err := s.Store.GetCollection(ctx, userID, q.CollectionID); err != nil {
		return store.CollectionMoviePage{}, err
	}
	page, err := s.Store.ListCollectionMovies(ctx, q)
	if err != nil {
		return store.CollectionMoviePage{}, err
	}
	if page.Movies == nil {
		page.Movies = []domain.CollectionMovie{}
	}
	return page, nil
}

// SplitGenres breaks a comma-separated genre string into trimmed, non-empty
// tokens.
func SplitGenres(raw string) []string {
	return store.ParseGenres(raw)
}

// CollectionGenres lists the distinct genres present in a collection,
// sorted.
func (s *Service) CollectionGenres(ctx context.Context, userID, collectionID string) ([]string, error) {
	if _, err := s.Store.GetCollection(ctx, userID, collectionID); err != nil {
		return nil, err
	}
	values, err := s.Store.CollectionGenreValues(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	out := []string{}
	for _, v := range values {
		for _, g := range SplitGenres(v) {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) MovieCollections(ctx context.Context, userID, imdbID string) ([]domain.Collection, error) {
	cols, err := s.Store.CollectionsContaining(ctx, userID, imdbID)
	if err != nil {
		return nil, err
	}
	if cols == nil {
		cols = []domain.Collection{}
	}
	return cols, nil
}
