package library

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/movie-library/services/movieapp/internal/ratingcache"
)

const (
	topGenres      = 10
	recentLimit    = 5
	topCollections = 5
)

type RatingBucket struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

type RecentAddition struct {
	ImdbID  string    `json:"imdbId"`
	Title   string    `json:"title"`
	Year    string    `json:"year"`
	AddedAt time.Time `json:"addedAt"`
}

type TopCollection struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MovieCount int    `json:"movieCount"`
}

type Dashboard struct {
	TotalCollections   int              `json:"totalCollections"`
	TotalMovies        int              `json:"totalMovies"`
	TotalReviews       int              `json:"totalReviews"`
	AverageRating      float64          `json:"averageRating"`
	RatingDistribution []RatingBucket   `json:"ratingDistribution"`
	GenreDistribution  []GenreCount     `json:"genreDistribution"`
	RecentAdditions    []RecentAddition `json:"recentAdditions"`
	TopCollections     []TopCollection  `json:"topCollections"`
}

// Dashboard aggregates the user's collections and reviews.
func (s *Service) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	var d Dashboard
	var err error

	if d.TotalCollections, err = s.Store.CountCollections(ctx, userID); err != nil {
		return Dashboard{}, fmt.Errorf("count collections: %w", err)
	}
	if d.TotalMovies, err = s.Store.CountDistinctMovies(ctx, userID); err != nil {
		return Dashboard{}, fmt.Errorf("count movies: %w", err)
	}

	hist, err := s.Store.RatingHistogram(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("rating histogram: %w", err)
	}
	d.RatingDistribution, d.TotalReviews, d.AverageRating = ratingStats(hist)

	genres, err := s.Store.UserGenreValues(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("genres: %w", err)
	}
	d.GenreDistribution = GenreDistribution(genres, topGenres)

	recent, err := s.Store.RecentAdditions(ctx, userID, recentLimit)
	if err != nil {
		return Dashboard{}, fmt.Errorf("recent additions: %w", err)
	}
	d.RecentAdditions = make([]RecentAddition, 0, len(recent))
	for _, m := range recent {
		d.RecentAdditions = append(d.RecentAdditions, RecentAddition{ImdbID: m.ImdbID, Title: m.Title, Year: m.Year, AddedAt: m.AddedAt})
	}

	top, err := s.Store.TopCollections(ctx, userID, topCollections)
	if err != nil {
		return Dashboard{}, fmt.Errorf("top collections: %w", err)
	}
	d.TopCollections = make([]TopCollection, 0, len(top))
	for _, c := range top {
		d.TopCollections = append(d.TopCollections, TopCollection{ID: c.ID, Name: c.Name, MovieCount: c.MovieCount})
	}
	return d, nil
}

// ratingStats expands a histogram into ten buckets and derives the review
// count and rounded mean from it.
func ratingStats(hist map[int]int) ([]RatingBucket, int, float64) {
	buckets := make([]RatingBucket, 0, 10)
	sum, total := 0, 0
	for r := 1; r <= 10; r++ {
		n := hist[r]
		buckets = append(buckets, RatingBucket{Rating: r, Count: n})
		sum += r * n
		total += n
	}
	return buckets, total, ratingcache.Average(sum, total)
}

// GenreDistribution counts genre tokens across raw genre strings and keeps
// the limit most frequent, ties by name.
func GenreDistribution(values []string, limit int) []GenreCount {
	counts := make(map[string]int)
	for _, v := range values {
		for _, g := range SplitGenres(v) {
			counts[g]++
		}
	}
	out := make([]GenreCount, 0, len(counts))
	for g, n := range counts {
		out = append(out, GenreCount{Genre: g, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Genre < out[j].Genre
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
