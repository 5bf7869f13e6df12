package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/example/movie-library/services/movieapp/internal/domain"
)

const collectionColumns = `c.id, c.user_id, c.name, c.created_at,
	(SELECT count(*) FROM collection_movies cm WHERE cm.collection_id = c.id)`

func scanCollection(row pgx.Row) (domain.Collection, error) {
	var c domain.Collection
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt, &c.MovieCount)
	return c, err
}

func collectCollections(rows pgx.Rows, err error) ([]domain.Collection, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Collection, error) {
		return scanCollection(row)
	})
}

func (s *PostgresStore) CreateCollection(ctx context.Context, userID, name string, now time.Time) (domain.Collection, error) {
	const q = `INSERT INTO collections (id, user_id, name, created_at)
	           VALUES ($1, $2, $3, $4)
	           RETURNING id, user_id, name, created_at, 0`
	c, err := scanCollection(s.db.QueryRow(ctx, q, uuid.NewString(), userID, name, now))
	if err != nil {
		return domain.Collection{}, mapErr(err)
	}
	return c, nil
}

func (s *PostgresStore) GetCollection(ctx context.Context, userID, collectionID string) (domain.Collection, error) {
	if !validID(collectionID) {
		return domain.Collection{}, domain.ErrNotFound
	}
	q := `SELECT ` + collectionColumns + ` FROM collections c WHERE c.id = $1 AND c.user_id = $2`
	c, err := scanCollection(s.db.QueryRow(ctx, q, collectionID, userID))
	if err != nil {
		return domain.Collection{}, mapErr(err)
	}
	return c, nil
}

func (s *PostgresStore) ListCollections(ctx context.Context, userID string) ([]domain.Collection, error) {
	q := `SELECT ` + collectionColumns + ` FROM collections c
	      WHERE c.user_id = $1
	      ORDER BY c.created_at, c.id`
	return collectCollections(s.db.Query(ctx, q, userID))
}

func (s *PostgresStore) DeleteCollection(ctx context.Context, userID, collectionID string) error {
	if !validID(collectionID) {
		return domain.ErrNotFound
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM collections WHERE id = $1 AND user_id = $2`, collectionID, userID)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

func (s *PostgresStore) AddCollectionMovie(ctx context.Context, m domain.CollectionMovie) (domain.CollectionMovie, error) {
	const q = `INSERT INTO collection_movies (id, collection_id, imdb_id, title, year, poster, type, genre, added_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	m.ID = uuid.NewString()
	if _, err := s.db.Exec(ctx, q, m.ID, m.CollectionID, m.ImdbID, m.Title, m.Year, m.Poster, m.Type, m.Genre, m.AddedAt); err != nil {
		return domain.CollectionMovie{}, mapErr(err)
	}
	return m, nil
}

func (s *PostgresStore) RemoveCollectionMovie(ctx context.Context, collectionID, imdbID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM collection_movies WHERE collection_id = $1 AND imdb_id = $2`, collectionID, imdbID)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

const movieColumns = `cm.id, cm.collection_id, cm.imdb_id, cm.title, cm.year, cm.poster, cm.type, cm.genre, cm.added_at`

func scanMovie(row pgx.Row, withRating bool) (domain.CollectionMovie, error) {
	var m domain.CollectionMovie
	dest := []any{&m.ID, &m.CollectionID, &m.ImdbID, &m.Title, &m.Year, &m.Poster, &m.Type, &m.Genre, &m.AddedAt}
	if withRating {
		dest = append(dest, &m.AverageRating)
	}
	err := row.Scan(dest...)
	return m, err
}

func (s *PostgresStore) ListCollectionMovies(ctx context.Context, q CollectionMovieQuery) (CollectionMoviePage, error) {
	where, args := q.whereSQL()
	from := ` FROM collection_movies cm LEFT JOIN rating_cache rc ON rc.imdb_id = cm.imdb_id WHERE ` + where

	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*)`+from, args...).Scan(&total); err != nil {
		return CollectionMoviePage{}, fmt.Errorf("count collection movies: %w", err)
	}

	n := len(args)
	list := `SELECT ` + movieColumns + `, rc.average_rating::float8` + from +
		` ORDER BY ` + q.orderSQL() +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := s.db.Query(ctx, list, append(args, q.PageSize, q.Offset())...)
	if err != nil {
		return CollectionMoviePage{}, fmt.Errorf("list collection movies: %w", err)
	}
	movies, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CollectionMovie, error) {
		return scanMovie(row, true)
	})
	if err != nil {
		return CollectionMoviePage{}, err
	}

	return CollectionMoviePage{
		Movies:      movies,
		TotalCount:  total,
		TotalPages:  q.TotalPages(total),
		CurrentPage: q.Page,
	}, nil
}

func (s *PostgresStore) CollectionGenreValues(ctx context.Context, collectionID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT genre FROM collection_movies
	                              WHERE collection_id = $1 AND genre IS NOT NULL AND genre <> ''`, collectionID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PostgresStore) CollectionsContaining(ctx context.Context, userID, imdbID string) ([]domain.Collection, error) {
	q := `SELECT ` + collectionColumns + ` FROM collections c
	      WHERE c.user_id = $1
	        AND EXISTS (SELECT 1 FROM collection_movies m WHERE m.collection_id = c.id AND m.imdb_id = $2)
	      ORDER BY c.name, c.id`
	return collectCollections(s.db.Query(ctx, q, userID, imdbID))
}
