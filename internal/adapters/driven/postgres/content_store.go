package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ContentStore = (*ContentStore)(nil)

const articleColumns = `a.id, a.title, a.content, a.excerpt, a.language, a.category, a.tags, a.author,
		a.published_at, a.reading_time_minutes, a.word_count,
		a.view_count, a.like_count, a.share_count, a.comment_count, a.quality_score`

// ContentStore implements driven.ContentStore over the articles table
type ContentStore struct {
	db *DB
}

// NewContentStore creates a new ContentStore
func NewContentStore(db *DB) *ContentStore {
	return &ContentStore{db: db}
}

// ListCandidates returns published articles matching the filter, newest first
func (s *ContentStore) ListCandidates(ctx context.Context, filter driven.CandidateFilter) ([]*domain.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles a
		WHERE a.status = 'published'
		  AND a.published_at >= $1
		  AND (cardinality($2::text[]) = 0 OR a.category = ANY($2))
		  AND NOT (a.id = ANY($3))
		ORDER BY a.published_at DESC, a.view_count DESC
		LIMIT $4
	`

	rows, err := s.db.QueryContext(ctx, query,
		filter.Since,
		pq.Array(nonNil(filter.Categories)),
		pq.Array(nonNil(filter.ExcludeIDs)),
		filter.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows, false)
}

// ListTrending returns articles published since the given time, most viewed
// first, with RecentEngagements counting the last 24 hours
func (s *ContentStore) ListTrending(ctx context.Context, since time.Time, limit int) ([]*domain.Article, error) {
	query := `
		SELECT ` + articleColumns + `,
			COUNT(e.id) FILTER (WHERE e.created_at >= NOW() - INTERVAL '24 hours') AS recent
		FROM articles a
		LEFT JOIN user_engagements e ON e.article_id = a.id
		WHERE a.status = 'published' AND a.published_at >= $1
		GROUP BY a.id
		ORDER BY a.view_count DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list trending: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows, true)
}

// ListArticles returns up to limit published articles for index seeding
func (s *ContentStore) ListArticles(ctx context.Context, limit int) ([]*domain.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles a
		WHERE a.status = 'published'
		ORDER BY a.published_at DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows, false)
}

// ListEmbeddings returns stored vectors for the given model
func (s *ContentStore) ListEmbeddings(ctx context.Context, model string) ([]*driven.ArticleEmbedding, error) {
	query := `
		SELECT article_id, model, embedding
		FROM article_embeddings
		WHERE model = $1
	`

	rows, err := s.db.QueryContext(ctx, query, model)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	defer rows.Close()

	var embeddings []*driven.ArticleEmbedding
	for rows.Next() {
		var e driven.ArticleEmbedding
		var vector pq.Float64Array
		if err := rows.Scan(&e.ArticleID, &e.Model, &vector); err != nil {
			return nil, err
		}
		e.Vector = make([]float32, len(vector))
		for i, v := range vector {
			e.Vector[i] = float32(v)
		}
		embeddings = append(embeddings, &e)
	}
	return embeddings, rows.Err()
}

func scanArticles(rows *sql.Rows, withRecent bool) ([]*domain.Article, error) {
	var articles []*domain.Article
	for rows.Next() {
		var a domain.Article
		var publishedAt sql.NullTime
		dest := []any{
			&a.ID, &a.Title, &a.Content, &a.Excerpt, &a.Language, &a.Category,
			pq.Array(&a.Tags), &a.Author, &publishedAt,
			&a.ReadingTimeMinutes, &a.WordCount,
			&a.ViewCount, &a.LikeCount, &a.ShareCount, &a.CommentCount, &a.QualityScore,
		}
		if withRecent {
			dest = append(dest, &a.RecentEngagements)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if publishedAt.Valid {
			a.PublishedAt = publishedAt.Time
		}
		articles = append(articles, &a)
	}
	return articles, rows.Err()
}

// nonNil keeps empty filters as '{}' rather than NULL
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
