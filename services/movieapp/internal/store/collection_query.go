package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/movie-library/services/movieapp/internal/domain"
)

const (
	SortTitle  = "title"
	SortYear   = "year"
	SortRating = "rating"
	SortAdded  = "added"

	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MovieFilter narrows a collection listing. Nil and empty fields do not
// filter.
type MovieFilter struct {
	// Genres match when any entry is a case-sensitive substring of the
	// movie's genre string. Movies without a genre never match.
	Genres []string
	// YearFrom and YearTo are inclusive bounds compared as strings, so "9"
	// sorts after "10".
	YearFrom *string
	YearTo   *string
	// MinRating excludes unrated movies.
	MinRating *float64
}

// CollectionMovieQuery is a normalized listing request for one collection.
type CollectionMovieQuery struct {
	CollectionID string
	Filter       MovieFilter
	SortBy       string
	Desc         bool
	Page         int
	PageSize     int
}

type CollectionMoviePage struct {
	Movies      []domain.CollectionMovie `json:"movies"`
	TotalCount  int                      `json:"totalCount"`
	TotalPages  int                      `json:"totalPages"`
	CurrentPage int                      `json:"currentPage"`
}

// ParseGenres splits a comma-separated genre list, trimming entries and
// dropping empty ones.
func ParseGenres(raw string) []string {
	var out []string
	for _, g := range strings.Split(raw, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// YearBound converts a numeric year bound to the string form used for
// comparison.
func YearBound(year int) *string {
	s := strconv.Itoa(year)
	return &s
}

// NewCollectionMovieQuery normalizes raw listing parameters. Unknown sort
// keys sort by date added, newest first. title defaults to ascending and
// only flips on sortOrder "desc"; year and rating default to descending and
// only flip on "asc". Pages below 1 become 1 and page sizes outside
// [1, MaxPageSize] become DefaultPageSize.
func NewCollectionMovieQuery(collectionID string, f MovieFilter, sortBy, sortOrder string, page, pageSize int) CollectionMovieQuery {
	q := CollectionMovieQuery{CollectionID: collectionID, Filter: f, Page: page, PageSize: pageSize}
	order := strings.ToLower(strings.TrimSpace(sortOrder))

	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case SortTitle:
		q.SortBy = SortTitle
		q.Desc = order == "desc"
	case SortYear:
		q.SortBy = SortYear
		q.Desc = order != "asc"
	case SortRating:
		q.SortBy = SortRating
		q.Desc = order != "asc"
	default:
		q.SortBy = SortAdded
		q.Desc = true
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		q.PageSize = DefaultPageSize
	}
	return q
}

func (q CollectionMovieQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// TotalPages is ceil(total / pageSize).
func (q CollectionMovieQuery) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + q.PageSize - 1) / q.PageSize
}

// whereSQL renders the filter against collection_movies cm left-joined with
// rating_cache rc. Placeholders start at $1 with the collection id.
func (q CollectionMovieQuery) whereSQL() (string, []any) {
	args := []any{q.CollectionID}
	conds := []string{"cm.collection_id = $1"}
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if len(q.Filter.Genres) > 0 {
		ors := make([]string, 0, len(q.Filter.Genres))
		for _, g := range q.Filter.Genres {
			ors = append(ors, fmt.Sprintf("strpos(cm.genre, %s) > 0", next(g)))
		}
		conds = append(conds, "cm.genre IS NOT NULL AND ("+strings.Join(ors, " OR ")+")")
	}
	if q.Filter.YearFrom != nil {
		conds = append(conds, `cm.year COLLATE "C" >= `+next(*q.Filter.YearFrom))
	}
	if q.Filter.YearTo != nil {
		conds = append(conds, `cm.year COLLATE "C" <= `+next(*q.Filter.YearTo))
	}
	if q.Filter.MinRating != nil {
		conds = append(conds, "rc.average_rating IS NOT NULL AND rc.average_rating >= "+next(*q.Filter.MinRating))
	}
	return strings.Join(conds, " AND "), args
}

// orderSQL renders the ORDER BY clause. Unrated movies sort as the lowest
// rating in both directions.
func (q CollectionMovieQuery) orderSQL() string {
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	switch q.SortBy {
	case SortTitle:
		return "lower(cm.title) " + dir + ", cm.id"
	case SortYear:
		return `cm.year COLLATE "C" ` + dir + ", cm.id"
	case SortRating:
		if q.Desc {
			return "rc.average_rating DESC NULLS LAST, cm.id"
		}
		return "rc.average_rating ASC NULLS FIRST, cm.id"
	default:
		return "cm.added_at DESC, cm.id"
	}
}

// Matches applies the filter to one movie row. rating is the cached average
// or nil when the movie is unrated.
func (q CollectionMovieQuery) Matches(m domain.CollectionMovie, rating *float64) bool {
	if len(q.Filter.Genres) > 0 {
		if m.Genre == nil {
			return false
		}
		found := false
		for _, g := range q.Filter.Genres {
			if strings.Contains(*m.Genre, g) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Filter.YearFrom != nil && m.Year < *q.Filter.YearFrom {
		return false
	}
	if q.Filter.YearTo != nil && m.Year > *q.Filter.YearTo {
		return false
	}
	if q.Filter.MinRating != nil && (rating == nil || *rating < *q.Filter.MinRating) {
		return false
	}
	return true
}

// Less orders two movie rows the same way orderSQL does. AverageRating must
// already be populated.
func (q CollectionMovieQuery) Less(a, b domain.CollectionMovie) bool {
	switch q.SortBy {
	case SortTitle:
		ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title)
		if ta == tb {
			return a.ID < b.ID
		}
		if q.Desc {
			return ta > tb
		}
		return ta < tb
	case SortYear:
		if a.Year == b.Year {
			return a.ID < b.ID
		}
		if q.Desc {
			return a.Year > b.Year
		}
		return a.Year < b.Year
	case SortRating:
		ra, rb := a.AverageRating, b.AverageRating
		switch {
		case ra == nil && rb == nil:
			return a.ID < b.ID
		case ra == nil:
			return !q.Desc
		case rb == nil:
			return q.Desc
		case *ra == *rb:
			return a.ID < b.ID
		case q.Desc:
			return *ra > *rb
		default:
			return *ra < *rb
		}
	default:
		if a.AddedAt.Equal(b.AddedAt) {
			return a.ID < b.ID
		}
		return a.AddedAt.After(b.AddedAt)
	}
}
