package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/example/movie-library/internal/platform/api"
	"github.com/example/movie-library/services/movieapp/internal/accounts"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	handler := Register(f.accounts, nil)

	rr := serve(handler, setupReq(http.MethodPost, "/api/auth/register",
		`{"email":"  Neo@Example.com ","password":"password1"}`, nil, ""))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp registerResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Email != "neo@example.com" || resp.Message != "Registration successful" {
		t.Fatalf("unexpected response %+v", resp)
	}

	rr = serve(handler, setupReq(http.MethodPost, "/api/auth/register",
		`{"email":"neo@example.com","password":"password1"}`, nil, ""))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rr.Code)
	}
}

func TestRegister_Invalid(t *testing.T) {
	f := newFixture(t)
	handler := Register(f.accounts, nil)

	tests := []struct {
		name, body string
	}{
		{"malformed json", `{`},
		{"missing password", `{"email":"a@b.co"}`},
		{"bad email", `{"email":"nope","password":"password1"}`},
		{"short password", `{"email":"a@b.co","password":"short"}`},
		{"password over bcrypt limit", `{"email":"a@b.co","password":"` + strings.Repeat("x", 100) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(handler, setupReq(http.MethodPost, "/api/auth/register", tt.body, nil, ""))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	serve(Register(f.accounts, nil), setupReq(http.MethodPost, "/api/auth/register",
		`{"email":"trinity@example.com","password":"password1"}`, nil, ""))
	handler := Login(f.accounts, nil)

	rr := serve(handler, setupReq(http.MethodPost, "/api/auth/login",
		`{"email":"TRINITY@example.com","password":"password1"}`, nil, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var sess accounts.Session
	if err := json.NewDecoder(rr.Body).Decode(&sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sess.Token == "" || !sess.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected a live token, got %+v", sess)
	}

	rr = serve(handler, setupReq(http.MethodPost, "/api/auth/login",
		`{"email":"trinity@example.com","password":"wrong-password"}`, nil, ""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var resp api.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("expected INVALID_CREDENTIALS, got %q", resp.Error.Code)
	}
}

func TestHealth(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rr := serve(Health("movie-library", func() time.Time { return now }), setupReq(http.MethodGet, "/api/health", "", nil, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "Healthy" || body["service"] != "movie-library" {
		t.Fatalf("unexpected body %v", body)
	}
}
