// Package omdb is a small client for the OMDb movie metadata API.
package omdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/movie-library/internal/platform/metrics"
	"github.com/example/movie-library/services/movieapp/internal/domain"
)

const DefaultBaseURL = "https://www.omdbapi.com"

type Config struct {
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Config     Config
	CB         *gobreaker.CircuitBreaker
	Cache      Cache
	Log        *zap.Logger
}

// Option configures the Client.
type Option func(*Client)

func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Client) { c.CB = cb }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.Log = log }
}

// WithCache stores decoded responses. A nil cache disables caching.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.Cache = cache }
}

func New(baseURL string, cfg Config, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 300 * time.Millisecond
	}
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		Config:     cfg,
		Log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewBreaker opens after five consecutive failures and probes again after
// thirty seconds.
func NewBreaker(log *zap.Logger) *gobreaker.CircuitBreaker {
	if log == nil {
		log = zap.NewNop()
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "omdb",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.OMDbBreakerState.Set(float64(to))
		},
	})
}

type SearchResult struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

type searchResponse struct {
	Search   []SearchResult `json:"Search"`
	Response string         `json:"Response"`
	Error    string         `json:"Error"`
}

type Details struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Writer     string `json:"Writer"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Country    string `json:"Country"`
	Awards     string `json:"Awards"`
	Poster     string `json:"Poster"`
	Metascore  string `json:"Metascore"`
	ImdbRating string `json:"imdbRating"`
	ImdbVotes  string `json:"imdbVotes"`
	ImdbID     string `json:"imdbID"`
	Type       string `json:"Type"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

func found(response string) bool {
	return !strings.EqualFold(response, "False")
}

// Search looks titles up by free text. OMDb answering Response "False"
// (no match, too many results) yields an empty slice.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	key := "omdb:search:" + strings.ToLower(query)

	var cached []SearchResult
	if c.cacheGet(ctx, key, &cached) {
		metrics.RecordOMDbRequest("search", "cache_hit")
		return cached, nil
	}

	resp, err := doWithBreaker[searchResponse](ctx, c, c.endpoint(url.Values{"s": {query}}))
	if err != nil {
		metrics.RecordOMDbRequest("search", "error")
		return nil, fmt.Errorf("%w: omdb search: %v", domain.ErrUpstreamUnavailable, err)
	}
	if !found(resp.Response) || resp.Search == nil {
		metrics.RecordOMDbRequest("search", "empty")
		return []SearchResult{}, nil
	}
	metrics.RecordOMDbRequest("search", "ok")
	c.cacheSet(ctx, key, resp.Search)
	return resp.Search, nil
}

// Details fetches one title. Unknown ids return domain.ErrNotFound.
func (c *Client) Details(ctx context.Context, imdbID string) (Details, error) {
	imdbID = strings.TrimSpace(imdbID)
	key := "omdb:details:" + imdbID

	var cached Details
	if c.cacheGet(ctx, key, &cached) {
		metrics.RecordOMDbRequest("details", "cache_hit")
		return cached, nil
	}

	resp, err := doWithBreaker[Details](ctx, c, c.endpoint(url.Values{"i": {imdbID}}))
	if err != nil {
		metrics.RecordOMDbRequest("details", "error")
		return Details{}, fmt.Errorf("%w: omdb details: %v", domain.ErrUpstreamUnavailable, err)
	}
	if !found(resp.Response) {
		metrics.RecordOMDbRequest("details", "not_found")
		return Details{}, domain.ErrNotFound
	}
	metrics.RecordOMDbRequest("details", "ok")
	c.cacheSet(ctx, key, resp)
	return *resp, nil
}

func (c *Client) endpoint(params url.Values) string {
	params.Set("apikey", c.Config.APIKey)
	return c.BaseURL + "/?" + params.Encode()
}

func (c *Client) cacheGet(ctx context.Context, key string, dest any) bool {
	if c.Cache == nil {
		return false
	}
	ok, err := c.Cache.Get(ctx, key, dest)
	if err != nil {
		c.Log.Warn("omdb cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (c *Client) cacheSet(ctx context.Context, key string, value any) {
	if c.Cache == nil {
		return
	}
	if err := c.Cache.Set(ctx, key, value); err != nil {
		c.Log.Warn("omdb cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func doWithBreaker[T any](ctx context.Context, c *Client, u string) (*T, error) {
	if c.CB == nil {
		return doJSONWithRetry[T](ctx, c, u)
	}
	result, err := c.CB.Execute(func() (interface{}, error) {
		return doJSONWithRetry[T](ctx, c, u)
	})
	if err != nil {
		return nil, err
	}
	return result.(*T), nil
}

func doJSONWithRetry[T any](ctx context.Context, c *Client, u string) (*T, error) {
	var lastErr error
	for attempt := 0; attempt <= c.Config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.Config.RetryBaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			c.Log.Debug("retrying omdb request", zap.Int("attempt", attempt), zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		result, err := doJSON[T](ctx, c, u)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) {
			break
		}
		// The URL carries the api key, so it is not logged.
		c.Log.Warn("omdb request failed", zap.Int("attempt", attempt), zap.Error(err))
	}
	return nil, lastErr
}

func doJSON[T any](ctx context.Context, c *Client, u string) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("omdb: status %d body=%q", resp.StatusCode, string(b[:min(len(b), 200)]))
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("omdb: decode error: %w", err)
	}
	return &out, nil
}
