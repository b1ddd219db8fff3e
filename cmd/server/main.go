package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "mediatrack/searchservice/internal/api/http"
	"mediatrack/searchservice/internal/app"
	"mediatrack/searchservice/internal/metrics"
	"mediatrack/searchservice/internal/search"
	"mediatrack/searchservice/internal/sources/cheapshark"
	"mediatrack/searchservice/internal/sources/googlebooks"
	"mediatrack/searchservice/internal/sources/itunes"
	"mediatrack/searchservice/internal/sources/omdb"
	"mediatrack/searchservice/internal/sources/rawg"
	"mediatrack/searchservice/internal/sources/steam"
	"mediatrack/searchservice/internal/sources/tmdb"
	"mediatrack/searchservice/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "media-search")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "media-search"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Duration("requestTimeout", cfg.RequestTimeout),
		slog.Bool("hasGoogleBooksKey", cfg.GoogleBooksAPIKey != ""),
		slog.Bool("hasRAWGKey", cfg.RAWGAPIKey != ""),
		slog.Bool("hasOMDBKey", cfg.OMDBAPIKey != ""),
		slog.Bool("hasTMDBKey", cfg.TMDBAPIKey != ""),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Duration("cacheTTL", cfg.CacheTTL),
	)

	searchService := search.NewService(buildSources(cfg, logger), cfg.RequestTimeout, buildServiceOptions(cfg, logger)...)

	handler := apihttp.NewServer(searchService, apihttp.WithLogger(logger)).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	searchService.StartBackground(rootCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("media search service started",
		slog.String("addr", cfg.HTTPAddr),
		slog.Duration("timeout", cfg.RequestTimeout),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("media search service stopped")
}

// buildSources wires every adapter whose credentials are present. Keyless
// sources are always on; key-requiring sources are skipped with a log line
// when unconfigured.
func buildSources(cfg app.Config, logger *slog.Logger) []search.Source {
	newClient := func() *http.Client {
		return &http.Client{Timeout: cfg.RequestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	sources := []search.Source{
		googlebooks.NewSource(googlebooks.Config{
			Endpoint:  cfg.GoogleBooksEndpoint,
			APIKey:    cfg.GoogleBooksAPIKey,
			UserAgent: cfg.UserAgent,
			Client:    newClient(),
		}),
		itunes.NewSource(itunes.Config{
			Endpoint:  cfg.ITunesEndpoint,
			UserAgent: cfg.UserAgent,
			Client:    newClient(),
		}),
		steam.NewSource(steam.Config{
			SearchEndpoint:  cfg.SteamSearchEndpoint,
			DetailsEndpoint: cfg.SteamDetailsEndpoint,
			CountryCode:     cfg.SteamCountryCode,
			UserAgent:       cfg.UserAgent,
			Client:          newClient(),
		}),
		cheapshark.NewSource(cheapshark.Config{
			Endpoint:  cfg.CheapSharkEndpoint,
			UserAgent: cfg.UserAgent,
			Client:    newClient(),
		}),
	}

	if cfg.RAWGAPIKey != "" {
		sources = append(sources, rawg.NewSource(rawg.Config{
			Endpoint:  cfg.RAWGEndpoint,
			APIKey:    cfg.RAWGAPIKey,
			UserAgent: cfg.UserAgent,
			Client:    newClient(),
		}))
	} else {
		logger.Info("rawg api key not configured, source disabled")
	}

	if cfg.OMDBAPIKey != "" {
		sources = append(sources, omdb.NewSource(omdb.Config{
			Endpoint:  cfg.OMDBEndpoint,
			APIKey:    cfg.OMDBAPIKey,
			UserAgent: cfg.UserAgent,
			Client:    newClient(),
		}))
	} else {
		logger.Info("omdb api key not configured, source disabled")
	}

	if cfg.TMDBAPIKey != "" {
		sources = append(sources, tmdb.NewSource(tmdb.Config{
			Endpoint:  cfg.TMDBEndpoint,
			APIKey:    cfg.TMDBAPIKey,
			UserAgent: cfg.UserAgent,
			Client:    newClient(),
		}))
	} else {
		logger.Info("tmdb api key not configured, source disabled")
	}

	return sources
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildServiceOptions(cfg app.Config, logger *slog.Logger) []search.ServiceOption {
	var opts []search.ServiceOption

	if cfg.CacheDisabled {
		opts = append(opts, search.WithCacheDisabled(true))
		return opts
	}

	if cfg.CacheTTL > 0 {
		opts = append(opts, search.WithCacheTTL(cfg.CacheTTL))
	}

	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Warn("invalid redis url, using in-memory cache only", slog.String("error", err.Error()))
			return opts
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable, using in-memory cache only", slog.String("error", err.Error()))
			return opts
		}
		logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
		opts = append(opts, search.WithRedisCache(search.NewRedisCacheBackend(redisClient)))
	}

	return opts
}
