// Package accounts registers users and signs them in.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/movie-library/internal/platform/auth"
	"github.com/example/movie-library/internal/platform/events"
	"github.com/example/movie-library/services/movieapp/internal/domain"
	"github.com/example/movie-library/services/movieapp/internal/library"
	"github.com/example/movie-library/services/movieapp/internal/store"
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(s string) bool {
	if len(s) > 254 {
		return false
	}
	return emailRe.MatchString(s)
}

type Service struct {
	Store      store.Store
	Tokens     auth.Issuer
	Events     *events.Publisher
	Log        *zap.Logger
	Now        func() time.Time
	BcryptCost int
}

func NewService(s store.Store, tokens auth.Issuer, pub *events.Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		Store:      s,
		Tokens:     tokens,
		Events:     pub,
		Log:        log,
		Now:        func() time.Time { return time.Now().UTC() },
		BcryptCost: bcrypt.DefaultCost,
	}
}

// Register creates the user together with an empty Favorites collection.
func (s *Service) Register(ctx context.Context, email, password string) (domain.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return domain.User{}, domain.NewValidationError("email", "Email is required")
	}
	if !isValidEmail(email) {
		return domain.User{}, domain.NewValidationError("email", "Invalid email format")
	}
	if len(password) < MinPasswordLength {
		return domain.User{}, domain.NewValidationError("password", fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		return domain.User{}, domain.NewValidationError("password", fmt.Sprintf("Password cannot exceed %d bytes", MaxPasswordBytes))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	var u domain.User
	err = s.Store.InTx(ctx, func(q store.Queries) error {
		var err error
		if u, err = q.CreateUser(ctx, email, string(hash)); err != nil {
			return err
		}
		_, err = q.CreateCollection(ctx, u.ID, library.DefaultCollectionName, s.Now())
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	s.Log.Info("user registered", zap.String("user_id", u.ID))
	s.Events.Publish(events.SubjectUserRegistered, "user_registered", u.ID, nil)
	return u, nil
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Email     string    `json:"email"`
}

// Login checks the password and issues an access token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, domain.ErrInvalidCredentials
	}

	u, hash, err := s.Store.FindUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Session{}, domain.ErrInvalidCredentials
	}

	token, exp, err := s.Tokens.NewAccessToken(u.ID, u.Email, s.Now())
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, ExpiresAt: exp, Email: u.Email}, nil
}
