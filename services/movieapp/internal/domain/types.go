package domain

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Collection is a named bucket of movies owned by one user.
type Collection struct {
	ID         string    `json:"id"`
	UserID     string    `json:"-"`
	Name       string    `json:"name"`
	MovieCount int       `json:"movieCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CollectionMovie is a movie's membership in one collection. Display fields
// are copied at add time; Genre is the raw comma-separated OMDb value.
type CollectionMovie struct {
	ID            string    `json:"id"`
	CollectionID  string    `json:"-"`
	ImdbID        string    `json:"imdbId"`
	Title         string    `json:"title"`
	Year          string    `json:"year"`
	Poster        string    `json:"poster"`
	Type          string    `json:"type"`
	Genre         *string   `json:"genre"`
	AverageRating *float64  `json:"averageRating"`
	AddedAt       time.Time `json:"addedAt"`
}

type Review struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	UserEmail string     `json:"userEmail"`
	ImdbID    string     `json:"imdbId"`
	Rating    int        `json:"rating"`
	Text      *string    `json:"reviewText"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

// RatingCache is the derived per-movie aggregate of Review rows.
type RatingCache struct {
	ImdbID        string
	AverageRating float64
	ReviewCount   int
	UpdatedAt     time.Time
}

type MovieStats struct {
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}
