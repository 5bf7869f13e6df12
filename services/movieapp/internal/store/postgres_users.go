package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/movie-library/services/movieapp/internal/domain"
)

func (s *PostgresStore) CreateUser(ctx context.Context, email, passwordHash string) (domain.User, error) {
	const q = `INSERT INTO users (id, email, password_hash, created_at)
	           VALUES ($1, $2, $3, $4)
	           RETURNING id, email, created_at`
	var u domain.User
	err := s.db.QueryRow(ctx, q, uuid.NewString(), email, passwordHash, time.Now().UTC()).
		Scan(&u.ID, &u.Email, &u.CreatedAt)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	return u, nil
}

func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (domain.User, string, error) {
	const q = `SELECT id, email, created_at, password_hash FROM users WHERE email = $1`
	var u domain.User
	var hash string
	if err := s.db.QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.CreatedAt, &hash); err != nil {
		return domain.User{}, "", mapErr(err)
	}
	return u, hash, nil
}
