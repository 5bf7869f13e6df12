package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/example/movie-library/internal/platform/api"
)

type ctxKeyUserID struct{}
type ctxKeyEmail struct{}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUserID{}).(string)
	return v, ok
}

// WithUserID injects user_id into context. Useful for testing.
func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID{}, uid)
}

func EmailFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyEmail{}).(string)
	return v, ok
}

type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// JWTVerifier validates HS256 access tokens. Issuer and Audience are only
// enforced when set.
type JWTVerifier struct {
	Secret   []byte
	Issuer   string
	Audience string
}

func (v JWTVerifier) Parse(tokenString string) (*Claims, error) {
	var opts []jwt.ParserOption
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return v.Secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// bearerClaims extracts and verifies the Bearer token of r.
// ok is false when no Authorization header is present.
func bearerClaims(verifier JWTVerifier, r *http.Request) (claims *Claims, ok bool, err error) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if authz == "" {
		return nil, false, nil
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, true, errors.New("malformed authorization header")
	}
	claims, err = verifier.Parse(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, true, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, true, errors.New("missing subject")
	}
	return claims, true, nil
}

func withClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID{}, claims.Subject)
	if claims.Email != "" {
		ctx = context.WithValue(ctx, ctxKeyEmail{}, claims.Email)
	}
	return ctx
}

// RequireUser middleware validates Bearer token and injects user_id into context.
func RequireUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok, err := bearerClaims(verifier, r)
			if !ok || err != nil {
				api.Unauthorized(w, api.CodeUnauthorized, "authentication required", "")
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalUser injects user_id when a valid Bearer token is present and
// otherwise lets the request through anonymously.
func OptionalUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok, err := bearerClaims(verifier, r)
			if ok && err == nil {
				r = r.WithContext(withClaims(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}
