package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/adapters/driven/ai"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/adapters/driven/auth"
	bleveindex "github.com/Seedline-Foundation/Coindailynow-sub003/internal/adapters/driven/bleve"
	hnswindex "github.com/Seedline-Foundation/Coindailynow-sub003/internal/adapters/driven/hnsw"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/adapters/driven/memory"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/adapters/driven/postgres"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/adapters/driven/prometheus"
	redisadapter "github.com/Seedline-Foundation/Coindailynow-sub003/internal/adapters/driven/redis"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/adapters/driven/resilience"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/adapters/driven/vespa"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/adapters/driving/http"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/config"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driving"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/services"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/languages"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/postprocessors"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/runtime"
)

// app is the wired ranking engine shared by every command
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db      *postgres.DB
	metrics *prometheus.Metrics
	tokens  *auth.Adapter
	runtime *runtime.Services
	redis   *redis.Client

	auth            driving.AuthService
	search          driving.SearchService
	recommendations driving.RecommendationService

	checks  map[string]http.ReadinessCheck
	closers []func() error
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// buildApp connects every backend selected by cfg and wires the services.
// On error, resources acquired so far are released.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: prometheus.New(),
		tokens:  auth.NewAdapter(cfg.JWTSecret),
		checks:  make(map[string]http.ReadinessCheck),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	// ===== PostgreSQL =====
	logger.Info("connecting to postgres")
	a.db, err = postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, err
	}
	a.onClose(a.db.Close)
	if err := a.db.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	a.checks["postgres"] = a.db.Ping

	content := postgres.NewContentStore(a.db)
	engagements := postgres.NewEngagementStore(a.db)

	// ===== Caches =====
	results, embeddings, err := a.buildCaches(ctx)
	if err != nil {
		return nil, err
	}

	// ===== Embedding service =====
	embedder, err := ai.NewEmbeddingService(ai.Settings{
		Config: ai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		},
		RateLimit: cfg.Embedding.RateLimit,
		RateBurst: cfg.Embedding.RateBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}
	if embedder == nil && cfg.SemanticEnabled() {
		logger.Warn("no embedding endpoint configured, semantic retrieval disabled")
	}

	// ===== Indexes =====
	lexical, semantic, err := a.buildIndexes(ctx, content, embedder)
	if err != nil {
		return nil, err
	}

	if cfg.Breaker.Enabled {
		breaker := resilience.Config{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			OpenTimeout:      cfg.Breaker.OpenTimeout,
		}
		lexical = resilience.NewLexicalIndex(lexical, breaker, logger)
		if semantic != nil {
			semantic = resilience.NewSemanticIndex(semantic, breaker, logger)
		}
		if embedder != nil {
			embedder = resilience.NewEmbeddingService(embedder, breaker, logger)
		}
	}
	a.checks["lexical_index"] = lexical.HealthCheck

	// ===== Runtime services =====
	semanticBackend := ""
	if semantic != nil {
		semanticBackend = cfg.SemanticBackend
	}
	a.runtime = runtime.NewServices(domain.NewRuntimeConfig(cfg.LexicalBackend, semanticBackend, cfg.CacheBackend))
	a.onClose(a.runtime.Close)
	a.runtime.SetSemanticIndex(semantic)
	if embedder != nil {
		if err := a.runtime.ValidateAndSetEmbedding(ctx, embedder); err != nil {
			logger.Warn("embedding service unhealthy, serving lexical results only", "error", err)
		}
	}
	logger.Info("runtime config",
		"lexical", cfg.LexicalBackend,
		"semantic", semanticBackend,
		"cache", cfg.CacheBackend,
		"semantic_available", a.runtime.Config().CanDoSemanticSearch(),
	)

	// ===== Core services =====
	ranking := cfg.Ranking
	lexicon := ranking.Lexicon
	clock := runtime.SystemClock{}

	cache := services.NewCacheManager(results, embeddings, ranking.Cache, a.metrics, logger)
	fusion := services.NewFusionEngine(ranking.Fusion, lexicon)
	diversity := services.NewDiversityReranker(ranking.Diversity)
	profiles := services.NewProfileBuilder(engagements, lexicon, ranking.Profile, clock, logger)

	a.search = services.NewSearchService(
		services.NewQueryContextBuilder(languages.NewDefaultRegistry(), lexicon),
		services.NewRetrievalCoordinator(lexical, a.runtime, cache, clock, a.metrics, ranking.Coordinator, logger),
		fusion,
		diversity,
		cache,
		profiles,
		postprocessors.DefaultPipeline(clock),
		clock,
		a.metrics,
		logger,
	)
	a.recommendations = services.NewRecommendationService(
		content,
		engagements,
		profiles,
		fusion,
		diversity,
		cache,
		lexicon,
		ranking.Recommendations,
		clock,
		a.metrics,
		logger,
	)
	a.auth = services.NewAuthService(a.tokens, clock)

	return a, nil
}

// buildCaches returns the result and embedding stores
func (a *app) buildCaches(ctx context.Context) (driven.CacheStore, driven.CacheStore, error) {
	if a.cfg.CacheBackend != config.BackendRedis {
		return memory.NewCacheStore(a.cfg.CacheCapacity, nil), memory.NewCacheStore(a.cfg.CacheCapacity, nil), nil
	}

	client, err := a.redisClient(ctx)
	if err != nil {
		return nil, nil, err
	}

	results := redisadapter.NewCacheStore(client, "newsrank:results:")
	a.checks["redis"] = results.Ping
	return results, redisadapter.NewCacheStore(client, "newsrank:embeddings:"), nil
}

// redisClient connects on first use; the cache and the engagement stream share it
func (a *app) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}

	a.logger.Info("connecting to redis")
	opts, err := redis.ParseURL(a.cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.onClose(client.Close)
	a.redis = client
	return client, nil
}

// buildIndexes returns the lexical index and, when semantic retrieval is
// possible, the semantic index. In-process indexes are seeded from postgres.
func (a *app) buildIndexes(ctx context.Context, content *postgres.ContentStore, embedder driven.EmbeddingService) (driven.LexicalIndex, driven.SemanticIndex, error) {
	var vespaClient *vespa.Client
	vespaFor := func() *vespa.Client {
		if vespaClient == nil {
			vespaClient = vespa.NewClient(vespa.Config{
				BaseURL: a.cfg.Vespa.URL,
				Schema:  a.cfg.Vespa.Schema,
				Timeout: a.cfg.Vespa.Timeout,
			})
		}
		return vespaClient
	}

	var seed []*domain.Article
	seedArticles := func() ([]*domain.Article, error) {
		if seed != nil {
			return seed, nil
		}
		articles, err := content.ListArticles(ctx, a.cfg.SeedLimit)
		if err != nil {
			return nil, fmt.Errorf("load articles for indexing: %w", err)
		}
		seed = articles
		return seed, nil
	}

	var lexical driven.LexicalIndex
	switch a.cfg.LexicalBackend {
	case config.BackendBleve:
		idx, err := bleveindex.NewLexicalIndex(a.cfg.BleveIndexPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open bleve index: %w", err)
		}
		a.onClose(idx.Close)
		articles, err := seedArticles()
		if err != nil {
			return nil, nil, err
		}
		if err := idx.Index(ctx, articles); err != nil {
			return nil, nil, fmt.Errorf("index articles: %w", err)
		}
		a.logger.Info("bleve index ready", "articles", len(articles))
		lexical = idx
	default:
		lexical = vespa.NewLexicalIndex(vespaFor())
		if err := lexical.HealthCheck(ctx); err != nil {
			a.logger.Warn("vespa health check failed, search may not work", "error", err)
		}
	}

	if !a.cfg.SemanticEnabled() || embedder == nil {
		return lexical, nil, nil
	}

	switch a.cfg.SemanticBackend {
	case config.BackendHNSW:
		idx := hnswindex.NewSemanticIndex(embedder.Dimensions())
		articles, err := seedArticles()
		if err != nil {
			return nil, nil, err
		}
		vectors, err := content.ListEmbeddings(ctx, a.cfg.Embedding.Model)
		if err != nil {
			return nil, nil, fmt.Errorf("load embeddings: %w", err)
		}
		added, err := idx.Load(ctx, articles, vectors)
		if err != nil {
			return nil, nil, fmt.Errorf("load hnsw index: %w", err)
		}
		a.logger.Info("hnsw index ready", "vectors", added, "skipped", len(vectors)-added)
		return lexical, idx, nil
	default:
		return lexical, vespa.NewSemanticIndex(vespaFor()), nil
	}
}
