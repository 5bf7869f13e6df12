package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/movie-library/internal/platform/auth"
	"github.com/example/movie-library/internal/platform/config"
	"github.com/example/movie-library/internal/platform/db"
	"github.com/example/movie-library/internal/platform/events"
	"github.com/example/movie-library/internal/platform/httpserver"
	"github.com/example/movie-library/internal/platform/logging"
	"github.com/example/movie-library/internal/platform/metrics"
	"github.com/example/movie-library/internal/platform/natsconn"
	"github.com/example/movie-library/internal/platform/run"
	"github.com/example/movie-library/services/movieapp/internal/accounts"
	"github.com/example/movie-library/services/movieapp/internal/handlers"
	"github.com/example/movie-library/services/movieapp/internal/library"
	"github.com/example/movie-library/services/movieapp/internal/omdb"
	"github.com/example/movie-library/services/movieapp/internal/ratingcache"
	"github.com/example/movie-library/services/movieapp/internal/reviews"
	"github.com/example/movie-library/services/movieapp/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}

	code := serve(cfg, log)
	log.Info("exit", zap.Int("code", code))
	_ = log.Sync()
	run.Exit(code)
}

// serve wires the service and blocks until shutdown. It returns the process
// exit code so deferred cleanup runs before exiting.
func serve(cfg config.AppConfig, log *zap.Logger) int {
	ctx := context.Background()

	// store
	var st store.Store
	if cfg.Database.URL != "" {
		pool, err := db.Open(ctx, db.Options{URL: cfg.Database.URL, MaxConns: cfg.Database.MaxConns})
		if err != nil {
			log.Error("db open", zap.Error(err))
			return 1
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool, log, store.Migrations); err != nil {
			log.Error("db migrate", zap.Error(err))
			return 1
		}
		st = store.NewPostgresStore(pool)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")
		st = store.NewMemoryStore()
	}

	// omdb
	omdbOpts := []omdb.Option{
		omdb.WithLogger(log),
		omdb.WithCircuitBreaker(omdb.NewBreaker(log)),
	}
	if cfg.Redis.URL != "" {
		rc, err := omdb.NewRedisCache(cfg.Redis.URL, cfg.OMDb.CacheTTL)
		if err != nil {
			log.Error("redis cache", zap.Error(err))
			return 1
		}
		defer func() { _ = rc.Close() }()
		omdbOpts = append(omdbOpts, omdb.WithCache(rc))
	}
	if cfg.OMDb.APIKey == "" {
		log.Warn("OMDB_API_KEY not set, movie lookups will fail")
	}
	movies := omdb.New(cfg.OMDb.BaseURL, omdb.Config{
		APIKey:     cfg.OMDb.APIKey,
		Timeout:    cfg.OMDb.Timeout,
		MaxRetries: cfg.OMDb.MaxRetries,
	}, omdbOpts...)

	// events
	var publisher *events.Publisher
	if cfg.NATS.URL != "" {
		nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATS.URL, Name: cfg.ServiceName, Logger: log})
		if err != nil {
			log.Error("nats connect", zap.Error(err))
			return 1
		}
		defer func() { _ = nc.Drain() }()
		publisher = newPublisher(nc, log)
	}

	// services
	tokens := auth.Issuer{
		Secret:   []byte(cfg.JWT.Secret),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.TTL,
	}
	verifier := auth.JWTVerifier{Secret: tokens.Secret, Issuer: tokens.Issuer, Audience: tokens.Audience}
	cache := ratingcache.New(log)

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc:   func() error { return st.Ping(context.Background()) },
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Logger:      log,
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	handlers.Mount(r, handlers.Deps{
		ServiceName:   cfg.ServiceName,
		Verifier:      verifier,
		Accounts:      accounts.NewService(st, tokens, publisher, log),
		Library:       library.NewService(st, movies, publisher, log),
		Reviews:       reviews.NewService(st, cache, publisher, log),
		Movies:        movies,
		AuthRateLimit: cfg.HTTP.AuthRateLimit,
		Log:           log,
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Router: r})

	return run.New(log).WithSignals(
		func(context.Context) error { return srv.Start(log) },
		srv.Shutdown,
	)
}

// newPublisher enables JetStream publishing. Events are best effort, so a
// broker without JetStream degrades to a no-op publisher.
func newPublisher(nc *nats.Conn, log *zap.Logger) *events.Publisher {
	js, err := nc.JetStream()
	if err == nil {
		err = events.EnsureStream(js)
	}
	if err != nil {
		log.Warn("jetstream unavailable, events disabled", zap.Error(err))
		return events.New(nil, log)
	}
	return events.New(js, log)
}
