package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/example/movie-library/services/movieapp/internal/domain"
)

func (s *PostgresStore) CountCollections(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM collections WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

func (s *PostgresStore) CountDistinctMovies(ctx context.Context, userID string) (int, error) {
	const q = `SELECT count(DISTINCT cm.imdb_id)
	           FROM collection_movies cm JOIN collections c ON c.id = cm.collection_id
	           WHERE c.user_id = $1`
	var n int
	err := s.db.QueryRow(ctx, q, userID).Scan(&n)
	return n, err
}

func (s *PostgresStore) RatingHistogram(ctx context.Context, userID string) (map[int]int, error) {
	rows, err := s.db.Query(ctx, `SELECT rating, count(*) FROM reviews WHERE user_id = $1 GROUP BY rating`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, err
		}
		out[rating] = count
	}
	return out, rows.Err()
}

func (s *PostgresStore) UserGenreValues(ctx context.Context, userID string) ([]string, error) {
	const q = `SELECT cm.genre
	           FROM collection_movies cm JOIN collections c ON c.id = cm.collection_id
	           WHERE c.user_id = $1 AND cm.genre IS NOT NULL AND cm.genre <> ''`
	rows, err := s.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PostgresStore) RecentAdditions(ctx context.Context, userID string, limit int) ([]domain.CollectionMovie, error) {
	q := `SELECT ` + movieColumns + `
	      FROM collection_movies cm JOIN collections c ON c.id = cm.collection_id
	      WHERE c.user_id = $1
	      ORDER BY cm.added_at DESC, cm.id
	      LIMIT $2`
	rows, err := s.db.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CollectionMovie, error) {
		return scanMovie(row, false)
	})
}

func (s *PostgresStore) TopCollections(ctx context.Context, userID string, limit int) ([]domain.Collection, error) {
	const q = `SELECT c.id, c.user_id, c.name, c.created_at, count(cm.id) AS movie_count
	           FROM collections c LEFT JOIN collection_movies cm ON cm.collection_id = c.id
	           WHERE c.user_id = $1
	           GROUP BY c.id
	           ORDER BY movie_count DESC, c.created_at, c.id
	           LIMIT $2`
	return collectCollections(s.db.Query(ctx, q, userID, limit))
}
