package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/movie-library/internal/platform/auth"
	"github.com/example/movie-library/services/movieapp/internal/accounts"
	"github.com/example/movie-library/services/movieapp/internal/domain"
	"github.com/example/movie-library/services/movieapp/internal/library"
	"github.com/example/movie-library/services/movieapp/internal/omdb"
	"github.com/example/movie-library/services/movieapp/internal/reviews"
	"github.com/example/movie-library/services/movieapp/internal/store"
)

var testSecret = []byte("handler-secret")

// setupReq builds a request with chi URL params and optional user_id in context.
func setupReq(method, url string, body string, params map[string]string, userID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != "" {
		ctx = auth.WithUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}

// fakeMovies serves canned OMDb answers.
type fakeMovies struct {
	results []omdb.SearchResult
	details map[string]omdb.Details
	err     error
}

func (f *fakeMovies) Search(_ context.Context, _ string) ([]omdb.SearchResult, error) {
	return f.results, f.err
}

func (f *fakeMovies) Details(_ context.Context, id string) (omdb.Details, error) {
	if f.err != nil {
		return omdb.Details{}, f.err
	}
	d, ok := f.details[id]
	if !ok {
		return omdb.Details{}, domain.ErrNotFound
	}
	return d, nil
}

type fixture struct {
	store    *store.MemoryStore
	accounts *accounts.Service
	library  *library.Service
	reviews  *reviews.Service
	movies   *fakeMovies
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	movies := &fakeMovies{details: map[string]omdb.Details{
		"tt0133093": {Title: "The Matrix", Year: "1999", Genre: "Action, Sci-Fi", ImdbID: "tt0133093", Type: "movie"},
	}}
	acc := accounts.NewService(s, auth.Issuer{Secret: testSecret, TTL: time.Hour}, nil, nil)
	acc.BcryptCost = bcrypt.MinCost
	return &fixture{
		store:    s,
		accounts: acc,
		library:  library.NewService(s, movies, nil, nil),
		reviews:  reviews.NewService(s, nil, nil, nil),
		movies:   movies,
	}
}

// user creates an account directly in the store and returns its id.
func (f *fixture) user(t *testing.T, email string) string {
	t.Helper()
	u, err := f.store.CreateUser(context.Background(), email, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func (f *fixture) collection(t *testing.T, userID, name string) string {
	t.Helper()
	c, err := f.library.CreateCollection(context.Background(), userID, name)
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
	return c.ID
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
