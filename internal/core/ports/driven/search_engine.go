package driven

import (
	"context"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

// LexicalOptions narrows a full-text query
type LexicalOptions struct {
	Language   string
	Limit      int
	Fuzziness  string // "AUTO", "0", "1", "2"; empty means backend default
	Categories []string
	Tags       []string
	Type       domain.ResultType
}

// LexicalResult is the response of a full-text query
type LexicalResult struct {
	Total int
	Hits  []*domain.SourceHit
	Took  time.Duration
}

// LexicalIndex is the full-text search collaborator (Vespa bm25 or bleve).
// Its scores are opaque floats; the ranking core never recomputes them.
type LexicalIndex interface {
	// Search runs a full-text query. Hits carry Origin = lexical.
	Search(ctx context.Context, query string, opts LexicalOptions) (*LexicalResult, error)

	// HealthCheck verifies the index is reachable
	HealthCheck(ctx context.Context) error
}

// SemanticOptions narrows a vector similarity query
type SemanticOptions struct {
	Language      string
	Limit         int
	MinSimilarity float64
}

// SemanticIndex is the vector similarity collaborator (Vespa nearestNeighbor or hnsw).
// Hit scores are similarities bounded to [0, 1].
type SemanticIndex interface {
	// Search finds the articles nearest to the query vector
	Search(ctx context.Context, embedding []float32, opts SemanticOptions) ([]*domain.SourceHit, error)

	// HealthCheck verifies the index is reachable
	HealthCheck(ctx context.Context) error
}
