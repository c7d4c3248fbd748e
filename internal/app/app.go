package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deusflow/technews/internal/ai"
	"github.com/deusflow/technews/internal/cache"
	"github.com/deusflow/technews/internal/config"
	"github.com/deusflow/technews/internal/logger"
	"github.com/deusflow/technews/internal/metrics"
	"github.com/deusflow/technews/internal/newsapi"
	"github.com/deusflow/technews/internal/retry"
	"github.com/deusflow/technews/internal/rss"
	"github.com/deusflow/technews/internal/scraper"
	"github.com/deusflow/technews/internal/storage"
	"github.com/deusflow/technews/internal/topics"
)

const shutdownTimeout = 10 * time.Second

// App holds the service, its router and everything that needs closing.
type App struct {
	cfg     *config.Config
	svc     *Service
	router  *gin.Engine
	closers []io.Closer
}

// New wires config → source → AI backend → archive → service → routes.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	a := &App{cfg: cfg}

	topicExtractor := topics.NewExtractor()
	source, err := NewSource(cfg, topicExtractor)
	if err != nil {
		return nil, fmt.Errorf("news source: %w", err)
	}

	backend, err := a.newBackend(ctx)
	if err != nil {
		return nil, fmt.Errorf("ai backend: %w", err)
	}

	archive, err := a.openArchive(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("summary store: %w", err)
	}

	ttl := time.Duration(cfg.CacheTTL) * time.Second
	summarizer := ai.NewSummarizer(backend, retry.Config{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true})
	deps := Deps{
		Source:             source,
		Summarizer:         summarizer,
		Extractor:          scraper.New(cfg.ScrapeTimeout),
		Archive:            archive,
		NewsCache:          cache.NewNewsCache(ttl),
		Summaries:          cache.NewFullSummaryCache(),
		Topics:             topicExtractor,
		Metrics:            metrics.New(),
		CacheTTL:           ttl,
		SamplePages:        cfg.SamplePages,
		SummaryConcurrency: cfg.SummaryConcurrency,
	}
	a.svc = NewService(deps)
	a.router = NewRouter(a.svc, logger.L(), RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		Production:     cfg.IsProduction(),
		Debug:          cfg.Debug,
	})

	logger.Info("application initialised",
		"source", source.Name(),
		"ai", summarizer.Backend(),
		"summary_store", cfg.SummaryStore,
		"cache_ttl", ttl.String(),
		"origins", cfg.AllowedOrigins,
	)
	return a, nil
}

// NewSource builds the configured headlines provider.
func NewSource(cfg *config.Config, matcher rss.TopicMatcher) (Source, error) {
	switch cfg.NewsProvider {
	case "rss":
		feeds, err := rss.LoadFeeds(cfg.FeedsConfigPath)
		if err != nil {
			return nil, err
		}
		return rss.NewSource(feeds, matcher, cfg.RequestTimeout), nil
	case "newsapi":
		return newsapi.New(cfg.NewsAPIKey, cfg.NewsAPIBaseURL, cfg.RequestTimeout), nil
	default:
		return nil, fmt.Errorf("unknown news provider %q", cfg.NewsProvider)
	}
}

func (a *App) newBackend(ctx context.Context) (ai.Backend, error) {
	cfg := a.cfg
	switch cfg.AIProvider {
	case "openai":
		return ai.NewOpenAIBackend(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	case "gemini":
		b, err := ai.NewGeminiBackend(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, b)
		return b, nil
	case "anthropic":
		return ai.NewAnthropicBackend(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AIProvider)
	}
}

// openArchive returns nil for the memory store.
func (a *App) openArchive(ctx context.Context) (Archive, error) {
	cfg := a.cfg
	ttl := cache.FullSummaryTTL
	switch cfg.SummaryStore {
	case "", "memory":
		return nil, nil
	case "file":
		fs, err := storage.NewFileStore(cfg.SummaryStorePath, ttl)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, fs)
		return fs, nil
	case "postgres":
		ps, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL, ttl)
		if err != nil {
			return nil, err
		}
		if n, err := ps.Cleanup(ctx); err != nil {
			logger.Warn("summary cleanup failed", "error", err)
		} else if n > 0 {
			logger.Info("expired summaries removed", "count", n)
		}
		a.closers = append(a.closers, ps)
		return ps, nil
	case "redis":
		rs, err := storage.NewRedisStore(ctx, cfg.RedisURL, ttl)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rs)
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown summary store %q", cfg.SummaryStore)
	}
}

func (a *App) Service() *Service { return a.svc }

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler { return a.router }

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}

// Close releases backends and stores.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
