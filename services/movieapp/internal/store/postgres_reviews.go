package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/movie-library/services/movieapp/internal/domain"
)

const reviewColumns = `r.id, r.user_id, u.email, r.imdb_id, r.rating, r.review_text, r.created_at, r.updated_at`

func scanReview(row pgx.Row) (domain.Review, error) {
	var r domain.Review
	err := row.Scan(&r.ID, &r.UserID, &r.UserEmail, &r.ImdbID, &r.Rating, &r.Text, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func collectReviews(rows pgx.Rows, err error) ([]domain.Review, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Review, error) {
		return scanReview(row)
	})
}

func (s *PostgresStore) GetReview(ctx context.Context, userID, imdbID string) (domain.Review, error) {
	q := `SELECT ` + reviewColumns + ` FROM reviews r JOIN users u ON u.id = r.user_id
	      WHERE r.user_id = $1 AND r.imdb_id = $2`
	r, err := scanReview(s.db.QueryRow(ctx, q, userID, imdbID))
	if err != nil {
		return domain.Review{}, mapErr(err)
	}
	return r, nil
}

func (s *PostgresStore) InsertReview(ctx context.Context, r domain.Review) error {
	const q = `INSERT INTO reviews (id, user_id, imdb_id, rating, review_text, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.Exec(ctx, q, r.ID, r.UserID, r.ImdbID, r.Rating, r.Text, r.CreatedAt, r.UpdatedAt)
	return mapErr(err)
}

func (s *PostgresStore) UpdateReview(ctx context.Context, r domain.Review) error {
	const q = `UPDATE reviews SET rating = $3, review_text = $4, updated_at = $5
	           WHERE user_id = $1 AND imdb_id = $2`
	tag, err := s.db.Exec(ctx, q, r.UserID, r.ImdbID, r.Rating, r.Text, r.UpdatedAt)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

func (s *PostgresStore) DeleteReview(ctx context.Context, userID, imdbID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM reviews WHERE user_id = $1 AND imdb_id = $2`, userID, imdbID)
	if err != nil {
		return err
	}
	return requireAffected(tag)
}

func (s *PostgresStore) ListMovieReviews(ctx context.Context, imdbID, excludeUserID string, offset, limit int) ([]domain.Review, error) {
	if excludeUserID == "" {
		q := `SELECT ` + reviewColumns + ` FROM reviews r JOIN users u ON u.id = r.user_id
		      WHERE r.imdb_id = $1
		      ORDER BY r.created_at DESC, r.id
		      OFFSET $2 LIMIT $3`
		return collectReviews(s.db.Query(ctx, q, imdbID, offset, limit))
	}
	q := `SELECT ` + reviewColumns + ` FROM reviews r JOIN users u ON u.id = r.user_id
	      WHERE r.imdb_id = $1 AND r.user_id <> $2
	      ORDER BY r.created_at DESC, r.id
	      OFFSET $3 LIMIT $4`
	return collectReviews(s.db.Query(ctx, q, imdbID, excludeUserID, offset, limit))
}

func (s *PostgresStore) ListUserReviews(ctx context.Context, userID string) ([]domain.Review, error) {
	q := `SELECT ` + reviewColumns + ` FROM reviews r JOIN users u ON u.id = r.user_id
	      WHERE r.user_id = $1
	      ORDER BY r.created_at DESC, r.id`
	return collectReviews(s.db.Query(ctx, q, userID))
}

func (s *PostgresStore) SumRatings(ctx context.Context, imdbID string) (int, int, error) {
	var sum, count int
	err := s.db.QueryRow(ctx, `SELECT COALESCE(SUM(rating), 0), COUNT(*) FROM reviews WHERE imdb_id = $1`, imdbID).
		Scan(&sum, &count)
	return sum, count, err
}

func (s *PostgresStore) LockMovie(ctx context.Context, imdbID string) error {
	_, err := s.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, imdbID)
	return err
}

func (s *PostgresStore) GetRatingCache(ctx context.Context, imdbID string) (domain.RatingCache, error) {
	var c domain.RatingCache
	err := s.db.QueryRow(ctx, `SELECT imdb_id, average_rating::float8, review_count, updated_at
	                           FROM rating_cache WHERE imdb_id = $1`, imdbID).
		Scan(&c.ImdbID, &c.AverageRating, &c.ReviewCount, &c.UpdatedAt)
	if err != nil {
		return domain.RatingCache{}, mapErr(err)
	}
	return c, nil
}

func (s *PostgresStore) UpsertRatingCache(ctx context.Context, c domain.RatingCache) error {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO rating_cache (imdb_id, average_rating, review_count, updated_at)
	           VALUES ($1, $2, $3, $4)
	           ON CONFLICT (imdb_id) DO UPDATE SET
	             average_rating = EXCLUDED.average_rating,
	             review_count = EXCLUDED.review_count,
	             updated_at = EXCLUDED.updated_at`
	_, err := s.db.Exec(ctx, q, c.ImdbID, c.AverageRating, c.ReviewCount, c.UpdatedAt)
	return err
}

func (s *PostgresStore) DeleteRatingCache(ctx context.Context, imdbID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM rating_cache WHERE imdb_id = $1`, imdbID)
	return err
}
