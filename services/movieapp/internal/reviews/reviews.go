// Package reviews implements star ratings with optional review text and
// keeps the rating cache consistent with every write.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/movie-library/internal/platform/events"
	"github.com/example/movie-library/services/movieapp/internal/domain"
	"github.com/example/movie-library/services/movieapp/internal/ratingcache"
	"github.com/example/movie-library/services/movieapp/internal/store"
)

const (
	MinRating     = 1
	MaxRating     = 10
	MinTextLength = 10
	MaxTextLength = 2000

	DefaultTake = 20
	MaxTake     = 100
)

type Service struct {
	Store  store.Store
	Cache  *ratingcache.Maintainer
	Events *events.Publisher
	Log    *zap.Logger
	Now    func() time.Time
}

func NewService(s store.Store, cache *ratingcache.Maintainer, pub *events.Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cache == nil {
		cache = ratingcache.New(log)
	}
	return &Service{
		Store:  s,
		Cache:  cache,
		Events: pub,
		Log:    log,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// normalizeText returns nil for blank text and enforces the length bounds
// otherwise. Length is counted in characters, untrimmed.
func normalizeText(text *string) (*string, error) {
	if text == nil || strings.TrimSpace(*text) == "" {
		return nil, nil
	}
	n := utf8.RuneCountInString(*text)
	if n < MinTextLength {
		return nil, domain.NewValidationError("reviewText", fmt.Sprintf("Review text must be at least %d characters", MinTextLength))
	}
	if n > MaxTextLength {
		return nil, domain.NewValidationError("reviewText", fmt.Sprintf("Review text cannot exceed %d characters", MaxTextLength))
	}
	t := *text
	return &t, nil
}

// Submit creates the caller's review of imdbID or replaces its rating and
// text. Updates keep the id and creation time and stamp UpdatedAt.
func (s *Service) Submit(ctx context.Context, userID, imdbID string, rating int, text *string) (domain.Review, error) {
	if rating < MinRating || rating > MaxRating {
		return domain.Review{}, domain.NewValidationError("rating", fmt.Sprintf("Rating must be between %d and %d", MinRating, MaxRating))
	}
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return domain.Review{}, domain.NewValidationError("imdbId", "Movie id is required")
	}
	body, err := normalizeText(text)
	if err != nil {
		return domain.Review{}, err
	}

	var saved domain.Review
	var stats domain.MovieStats
	created := false
	err = s.Store.InTx(ctx, func(q store.Queries) error {
		now := s.Now()
		existing, err := q.GetReview(ctx, userID, imdbID)
		switch {
		case err == nil:
			existing.Rating = rating
			existing.Text = body
			existing.UpdatedAt = &now
			if err := q.UpdateReview(ctx, existing); err != nil {
				return fmt.Errorf("update review: %w", err)
			}
		case errors.Is(err, domain.ErrNotFound):
			created = true
			r := domain.Review{
				ID:        uuid.NewString(),
				UserID:    userID,
				ImdbID:    imdbID,
				Rating:    rating,
				Text:      body,
				CreatedAt: now,
			}
			if err := q.InsertReview(ctx, r); err != nil {
				return fmt.Errorf("insert review: %w", err)
			}
		default:
			return fmt.Errorf("get review: %w", err)
		}

		stats, err = s.Cache.Refresh(ctx, q, imdbID)
		if err != nil {
			return err
		}
		saved, err = q.GetReview(ctx, userID, imdbID)
		return err
	})
	if err != nil {
		return domain.Review{}, err
	}

	s.Log.Info("review saved",
		zap.String("user_id", userID),
		zap.String("imdb_id", imdbID),
		zap.Int("rating", rating),
		zap.Bool("created", created),
	)
	s.Events.Publish(events.SubjectReviewSubmitted, "review_submitted", userID, map[string]any{
		"imdb_id":        imdbID,
		"rating":         rating,
		"created":        created,
		"average_rating": stats.AverageRating,
		"review_count":   stats.ReviewCount,
	})
	return saved, nil
}

// Delete removes the caller's review of imdbID.
func (s *Service) Delete(ctx context.Context, userID, imdbID string) error {
	var stats domain.MovieStats
	err := s.Store.InTx(ctx, func(q store.Queries) error {
		if err := q.DeleteReview(ctx, userID, imdbID); err != nil {
			return err
		}
		var err error
		stats, err = s.Cache.Refresh(ctx, q, imdbID)
		return err
	})
	if err != nil {
		return err
	}

	s.Events.Publish(events.SubjectReviewDeleted, "review_deleted", userID, map[string]any{
		"imdb_id":      imdbID,
		"review_count": stats.ReviewCount,
	})
	return nil
}

type Page struct {
	Reviews []domain.Review `json:"reviews"`
	HasMore bool            `json:"hasMore"`
}

// ListMovieReviews pages through a movie's reviews, newest first. A non-empty
// excludeUserID hides that user's own review.
func (s *Service) ListMovieReviews(ctx context.Context, imdbID, excludeUserID string, skip, take int) (Page, error) {
	if take <= 0 || take > MaxTake {
		take = DefaultTake
	}
	if skip < 0 {
		skip = 0
	}

	rows, err := s.Store.ListMovieReviews(ctx, imdbID, excludeUserID, skip, take+1)
	if err != nil {
		return Page{}, fmt.Errorf("list reviews: %w", err)
	}
	page := Page{Reviews: rows, HasMore: len(rows) > take}
	if page.HasMore {
		page.Reviews = rows[:take]
	}
	if page.Reviews == nil {
		page.Reviews = []domain.Review{}
	}
	return page, nil
}

func (s *Service) Stats(ctx context.Context, imdbID string) (domain.MovieStats, error) {
	return s.Cache.Stats(ctx, s.Store, imdbID)
}

// MyReview returns the caller's review of imdbID, or nil when there is none.
func (s *Service) MyReview(ctx context.Context, userID, imdbID string) (*domain.Review, error) {
	r, err := s.Store.GetReview(ctx, userID, imdbID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Service) MyReviews(ctx context.Context, userID string) ([]domain.Review, error) {
	rows, err := s.Store.ListUserReviews(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.Review{}
	}
	return rows, nil
}
