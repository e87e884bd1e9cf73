package driven

import (
	"context"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

// CandidateFilter selects recommendation candidates
type CandidateFilter struct {
	Since      time.Time
	Categories []string
	ExcludeIDs []string
	Limit      int
}

// ArticleEmbedding is a stored article vector used to seed in-process indexes
type ArticleEmbedding struct {
	ArticleID string
	Model     string
	Vector    []float32
}

// ContentStore is read-only access to published article metadata (PostgreSQL)
type ContentStore interface {
	// ListCandidates returns published articles matching the filter, newest first
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]*domain.Article, error)

	// ListTrending returns articles published since the given time ordered by
	// view count, with RecentEngagements counting the last 24 hours
	ListTrending(ctx context.Context, since time.Time, limit int) ([]*domain.Article, error)

	// ListArticles returns up to limit published articles for index seeding
	ListArticles(ctx context.Context, limit int) ([]*domain.Article, error)

	// ListEmbeddings returns stored vectors for the given model
	ListEmbeddings(ctx context.Context, model string) ([]*ArticleEmbedding, error)
}
