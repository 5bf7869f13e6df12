package store

import (
	"strings"
	"testing"
	"time"

	"github.com/example/movie-library/services/movieapp/internal/domain"
)

func strPtr(s string) *string   { return &s }
func fltPtr(f float64) *float64 { return &f }

func TestNewCollectionMovieQuery_Sort(t *testing.T) {
	tests := []struct {
		sortBy, sortOrder string
		wantSort          string
		wantDesc          bool
	}{
		{"title", "", SortTitle, false},
		{"Title", "DESC", SortTitle, true},
		{"title", "bogus", SortTitle, false},
		{"year", "", SortYear, true},
		{"year", "asc", SortYear, false},
		{"rating", "", SortRating, true},
		{"rating", "asc", SortRating, false},
		{"dateAdded", "asc", SortAdded, true},
		{"", "", SortAdded, true},
		{"popularity", "asc", SortAdded, true},
	}
	for _, tt := range tests {
		q := NewCollectionMovieQuery("c1", MovieFilter{}, tt.sortBy, tt.sortOrder, 1, 20)
		if q.SortBy != tt.wantSort || q.Desc != tt.wantDesc {
			t.Fatalf("sortBy=%q sortOrder=%q: got (%s, desc=%v), want (%s, desc=%v)",
				tt.sortBy, tt.sortOrder, q.SortBy, q.Desc, tt.wantSort, tt.wantDesc)
		}
	}
}

func TestNewCollectionMovieQuery_Paging(t *testing.T) {
	tests := []struct {
		page, pageSize         int
		wantPage, wantPageSize int
	}{
		{1, 20, 1, 20},
		{0, 20, 1, 20},
		{-3, 5, 1, 5},
		{2, 0, 2, DefaultPageSize},
		{2, 101, 2, DefaultPageSize},
		{3, 100, 3, 100},
	}
	for _, tt := range tests {
		q := NewCollectionMovieQuery("c1", MovieFilter{}, "", "", tt.page, tt.pageSize)
		if q.Page != tt.wantPage || q.PageSize != tt.wantPageSize {
			t.Fatalf("page=%d size=%d: got (%d, %d)", tt.page, tt.pageSize, q.Page, q.PageSize)
		}
	}
}

func TestTotalPages(t *testing.T) {
	q := NewCollectionMovieQuery("c1", MovieFilter{}, "", "", 1, 20)
	for total, want := range map[int]int{0: 0, 1: 1, 20: 1, 21: 2, 40: 2, 41: 3} {
		if got := q.TotalPages(total); got != want {
			t.Fatalf("TotalPages(%d) = %d, want %d", total, got, want)
		}
	}
}

func TestParseGenres(t *testing.T) {
	got := ParseGenres(" Action, ,Drama,,  Sci-Fi ")
	want := []string{"Action", "Drama", "Sci-Fi"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %v, want %v", got, want)
	}
	if ParseGenres(" , ") != nil {
		t.Fatal("expected no genres from blank entries")
	}
}

func TestWhereSQL(t *testing.T) {
	q := NewCollectionMovieQuery("c1", MovieFilter{
		Genres:    []string{"Action", "Drama"},
		YearFrom:  YearBound(2000),
		YearTo:    YearBound(2010),
		MinRating: fltPtr(7.5),
	}, "", "", 1, 20)

	where, args := q.whereSQL()
	wantWhere := `cm.collection_id = $1 AND cm.genre IS NOT NULL AND (strpos(cm.genre, $2) > 0 OR strpos(cm.genre, $3) > 0)` +
		` AND cm.year COLLATE "C" >= $4 AND cm.year COLLATE "C" <= $5` +
		` AND rc.average_rating IS NOT NULL AND rc.average_rating >= $6`
	if where != wantWhere {
		t.Fatalf("unexpected where:\n got %s\nwant %s", where, wantWhere)
	}
	if len(args) != 6 {
		t.Fatalf("expected 6 args, got %d", len(args))
	}
	if args[3] != "2000" || args[4] != "2010" {
		t.Fatalf("expected year bounds as strings, got %v %v", args[3], args[4])
	}
}

func TestWhereSQL_NoFilters(t *testing.T) {
	q := NewCollectionMovieQuery("c1", MovieFilter{}, "", "", 1, 20)
	where, args := q.whereSQL()
	if where != "cm.collection_id = $1" || len(args) != 1 {
		t.Fatalf("unexpected where %q args %v", where, args)
	}
}

func TestOrderSQL(t *testing.T) {
	tests := []struct {
		sortBy, sortOrder, want string
	}{
		{"title", "", "lower(cm.title) ASC, cm.id"},
		{"year", "", `cm.year COLLATE "C" DESC, cm.id`},
		{"rating", "", "rc.average_rating DESC NULLS LAST, cm.id"},
		{"rating", "asc", "rc.average_rating ASC NULLS FIRST, cm.id"},
		{"", "", "cm.added_at DESC, cm.id"},
	}
	for _, tt := range tests {
		q := NewCollectionMovieQuery("c1", MovieFilter{}, tt.sortBy, tt.sortOrder, 1, 20)
		if got := q.orderSQL(); got != tt.want {
			t.Fatalf("%s/%s: got %q, want %q", tt.sortBy, tt.sortOrder, got, tt.want)
		}
	}
}

func TestMatches_YearIsLexicographic(t *testing.T) {
	q := NewCollectionMovieQuery("c1", MovieFilter{YearFrom: YearBound(10)}, "", "", 1, 20)
	if !q.Matches(domain.CollectionMovie{Year: "9"}, nil) {
		t.Fatal(`expected year "9" to pass yearFrom "10" under string comparison`)
	}
	q = NewCollectionMovieQuery("c1", MovieFilter{YearFrom: YearBound(2000)}, "", "", 1, 20)
	if q.Matches(domain.CollectionMovie{Year: "1994"}, nil) {
		t.Fatal("expected 1994 to be excluded")
	}
	if !q.Matches(domain.CollectionMovie{Year: "2008"}, nil) {
		t.Fatal("expected 2008 to be included")
	}
}

func TestMatches_GenreAndRating(t *testing.T) {
	q := NewCollectionMovieQuery("c1", MovieFilter{Genres: []string{"Action"}, MinRating: fltPtr(8)}, "", "", 1, 20)

	if q.Matches(domain.CollectionMovie{Genre: nil}, fltPtr(9)) {
		t.Fatal("movie without genre must not match a genre filter")
	}
	if q.Matches(domain.CollectionMovie{Genre: strPtr("action, Drama")}, fltPtr(9)) {
		t.Fatal("genre match must be case-sensitive")
	}
	if !q.Matches(domain.CollectionMovie{Genre: strPtr("Action, Drama")}, fltPtr(8)) {
		t.Fatal("expected match at the rating threshold")
	}
	if q.Matches(domain.CollectionMovie{Genre: strPtr("Action")}, nil) {
		t.Fatal("unrated movie must not pass minRating")
	}
	if q.Matches(domain.CollectionMovie{Genre: strPtr("Action")}, fltPtr(7.9)) {
		t.Fatal("expected exclusion below threshold")
	}
}

func TestLess_RatingUnratedLowest(t *testing.T) {
	rated := domain.CollectionMovie{ID: "a", AverageRating: fltPtr(5)}
	unrated := domain.CollectionMovie{ID: "b"}

	desc := NewCollectionMovieQuery("c1", MovieFilter{}, "rating", "desc", 1, 20)
	if !desc.Less(rated, unrated) || desc.Less(unrated, rated) {
		t.Fatal("desc: rated must come before unrated")
	}
	asc := NewCollectionMovieQuery("c1", MovieFilter{}, "rating", "asc", 1, 20)
	if !asc.Less(unrated, rated) || asc.Less(rated, unrated) {
		t.Fatal("asc: unrated must come first")
	}
}

func TestLess_AddedNewestFirst(t *testing.T) {
	now := time.Now()
	older := domain.CollectionMovie{ID: "a", AddedAt: now.Add(-time.Minute)}
	newer := domain.CollectionMovie{ID: "b", AddedAt: now}
	q := NewCollectionMovieQuery("c1", MovieFilter{}, "", "", 1, 20)
	if !q.Less(newer, older) {
		t.Fatal("expected newest first")
	}
}
