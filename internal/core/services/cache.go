package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Cache namespaces, also used as metric labels
const (
	NamespaceSearch          = "search"
	NamespaceEmbedding       = "embedding"
	NamespaceRecommendations = "recommendations"
)

// CacheConfig holds the TTL classes of the cache manager
type CacheConfig struct {
	ResultTTL         time.Duration `yaml:"result_ttl"`
	EmbeddingTTL      time.Duration `yaml:"embedding_ttl"`
	RecommendationTTL time.Duration `yaml:"recommendation_ttl"`
}

// DefaultCacheConfig returns the default TTLs
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		ResultTTL:         5 * time.Minute,
		EmbeddingTTL:      24 * time.Hour,
		RecommendationTTL: 5 * time.Minute,
	}
}

// CacheManager fronts the result and embedding stores.
// Store failures are logged and reported as misses; they never fail a request.
// A nil *CacheManager behaves as an always-missing cache.
type CacheManager struct {
	results    driven.CacheStore
	embeddings driven.CacheStore
	config     CacheConfig
	metrics    driven.RankingMetrics
	logger     *slog.Logger
}

// NewCacheManager creates a CacheManager. embeddings may be the same store as results.
func NewCacheManager(results, embeddings driven.CacheStore, config CacheConfig, metrics driven.RankingMetrics, logger *slog.Logger) *CacheManager {
	if logger == nil {
		logger = slog.Default()
	}
	if embeddings == nil {
		embeddings = results
	}
	return &CacheManager{
		results:    results,
		embeddings: embeddings,
		config:     config,
		metrics:    metrics,
		logger:     logger,
	}
}

// hashParts returns the blake2b-256 hex digest of the canonical JSON of parts.
// Struct fields marshal in declaration order and map keys sorted, so equal
// inputs always hash equally.
func hashParts(parts ...any) string {
	data, err := json.Marshal(parts)
	if err != nil {
		data = fmt.Appendf(nil, "%v", parts)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ResultKey derives the search result key from the normalized query, the
// effective options and the user identity. Personalized keys carry the user
// id in clear text so they can be invalidated with the user's profile.
func ResultKey(normalizedQuery string, opts domain.SearchOptions, userID string) string {
	if userID == "" {
		return NamespaceSearch + ":" + hashParts(normalizedQuery, opts, userID)
	}
	return NamespaceSearch + ":user:" + userID + ":" + hashParts(normalizedQuery, opts, userID)
}

// EmbeddingKey derives the embedding key from the exact text sent to the model
func EmbeddingKey(text string) string {
	return NamespaceEmbedding + ":" + hashParts(text)
}

// RecommendationKey derives the recommendation key. The user id stays in
// clear text so a user's entries can be invalidated by pattern.
func RecommendationKey(req domain.RecommendationRequest) string {
	return NamespaceRecommendations + ":" + req.UserID + ":" + hashParts(req)
}

// GetResult returns a cached search result marked as cached
func (m *CacheManager) GetResult(ctx context.Context, key string) (*domain.SearchResult, bool) {
	if m == nil || m.results == nil {
		return nil, false
	}
	var res domain.SearchResult
	if !m.get(ctx, m.results, NamespaceSearch, key, &res) {
		return nil, false
	}
	res.Cached = true
	return &res, true
}

// PutResult stores a search result under the result TTL
func (m *CacheManager) PutResult(ctx context.Context, key string, res *domain.SearchResult) {
	if m == nil || m.results == nil || res == nil {
		return
	}
	m.put(ctx, m.results, key, res, m.config.ResultTTL)
}

// GetEmbedding returns a cached query embedding
func (m *CacheManager) GetEmbedding(ctx context.Context, text string) ([]float32, bool) {
	if m == nil || m.embeddings == nil {
		return nil, false
	}
	var vec []float32
	if !m.get(ctx, m.embeddings, NamespaceEmbedding, EmbeddingKey(text), &vec) || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

// PutEmbedding stores a query embedding under the embedding TTL
func (m *CacheManager) PutEmbedding(ctx context.Context, text string, vec []float32) {
	if m == nil || m.embeddings == nil || len(vec) == 0 {
		return
	}
	m.put(ctx, m.embeddings, EmbeddingKey(text), vec, m.config.EmbeddingTTL)
}

// GetRecommendations returns a cached recommendation result marked as cached
func (m *CacheManager) GetRecommendations(ctx context.Context, key string) (*domain.RecommendationResult, bool) {
	if m == nil || m.results == nil {
		return nil, false
	}
	var res domain.RecommendationResult
	if !m.get(ctx, m.results, NamespaceRecommendations, key, &res) {
		return nil, false
	}
	res.Cached = true
	return &res, true
}

// PutRecommendations stores a recommendation result
func (m *CacheManager) PutRecommendations(ctx context.Context, key string, res *domain.RecommendationResult) {
	if m == nil || m.results == nil || res == nil {
		return
	}
	m.put(ctx, m.results, key, res, m.config.RecommendationTTL)
}

// InvalidateUser drops every cached recommendation and personalized search
// result of a user
func (m *CacheManager) InvalidateUser(ctx context.Context, userID string) (int, error) {
	if m == nil || m.results == nil || userID == "" {
		return 0, nil
	}
	user := escapeGlob(userID)
	total := 0
	for _, pattern := range []string{
		NamespaceRecommendations + ":" + user + ":*",
		NamespaceSearch + ":user:" + user + ":*",
	} {
		n, err := m.results.Invalidate(ctx, pattern)
		if err != nil {
			m.logger.Warn("cache invalidation failed", "user_id", userID, "pattern", pattern, "error", err)
			return total, err
		}
		total += n
	}
	return total, nil
}

func (m *CacheManager) get(ctx context.Context, store driven.CacheStore, namespace, key string, dst any) bool {
	data, found, err := store.Get(ctx, key)
	if err != nil {
		m.logger.Warn("cache read failed", "namespace", namespace, "error", err)
		found = false
	}
	if found {
		if err := json.Unmarshal(data, dst); err != nil {
			m.logger.Warn("cache entry undecodable", "namespace", namespace, "error", err)
			found = false
		}
	}
	if m.metrics != nil {
		m.metrics.ObserveCache(namespace, found)
	}
	return found
}

func (m *CacheManager) put(ctx context.Context, store driven.CacheStore, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		m.logger.Warn("cache entry not encodable", "key", key, "error", err)
		return
	}
	if err := store.Set(ctx, key, data, ttl); err != nil {
		m.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// escapeGlob quotes glob metacharacters so a user id matches literally
func escapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[]\`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
