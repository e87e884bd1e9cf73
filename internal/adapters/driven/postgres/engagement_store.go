package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EngagementStore = (*EngagementStore)(nil)

// EngagementStore implements driven.EngagementStore over users and user_engagements
type EngagementStore struct {
	db *DB
}

// NewEngagementStore creates a new EngagementStore
func NewEngagementStore(db *DB) *EngagementStore {
	return &EngagementStore{db: db}
}

// GetReader resolves a user id
func (s *EngagementStore) GetReader(ctx context.Context, userID string) (*domain.Reader, error) {
	query := `SELECT id, preferred_languages, country FROM users WHERE id = $1`

	var r domain.Reader
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&r.ID, pq.Array(&r.PreferredLanguages), &r.Country)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reader: %w", err)
	}
	return &r, nil
}

// RecentEngagements returns the newest engagements of a user with their
// article attached. Engagements whose article was deleted carry a nil Article.
func (s *EngagementStore) RecentEngagements(ctx context.Context, userID string, limit int) ([]*domain.Engagement, error) {
	query := `
		SELECT e.user_id, COALESCE(e.article_id, ''), e.action_type, e.duration_seconds, e.device_type, e.created_at,
			a.id, a.title, a.content, a.excerpt, a.language, a.category, a.tags, a.author,
			a.published_at, a.view_count, a.like_count, a.share_count, a.comment_count, a.quality_score
		FROM user_engagements e
		LEFT JOIN articles a ON a.id = e.article_id
		WHERE e.user_id = $1
		ORDER BY e.created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent engagements: %w", err)
	}
	defer rows.Close()

	var engagements []*domain.Engagement
	for rows.Next() {
		var e domain.Engagement
		var action string
		var art nullableArticle
		if err := rows.Scan(
			&e.UserID, &e.ArticleID, &action, &e.DurationSeconds, &e.Device, &e.CreatedAt,
			&art.id, &art.title, &art.content, &art.excerpt, &art.language, &art.category,
			pq.Array(&art.tags), &art.author, &art.publishedAt,
			&art.views, &art.likes, &art.shares, &art.comments, &art.quality,
		); err != nil {
			return nil, err
		}
		e.Action = domain.ActionType(action)
		e.Article = art.article()
		engagements = append(engagements, &e)
	}
	return engagements, rows.Err()
}

// ReadArticleIDs returns ids of articles the user viewed since the given time
func (s *EngagementStore) ReadArticleIDs(ctx context.Context, userID string, since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT article_id
		FROM user_engagements
		WHERE user_id = $1 AND action_type = $2 AND created_at >= $3 AND article_id IS NOT NULL
	`

	rows, err := s.db.QueryContext(ctx, query, userID, string(domain.ActionView), since)
	if err != nil {
		return nil, fmt.Errorf("read article ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// nullableArticle holds the LEFT JOINed article columns
type nullableArticle struct {
	id, title, content, excerpt    sql.NullString
	language, category, author     sql.NullString
	tags                           []string
	publishedAt                    sql.NullTime
	views, likes, shares, comments sql.NullInt64
	quality                        sql.NullFloat64
}

func (n nullableArticle) article() *domain.Article {
	if !n.id.Valid {
		return nil
	}
	a := &domain.Article{
		ID:           n.id.String,
		Title:        n.title.String,
		Content:      n.content.String,
		Excerpt:      n.excerpt.String,
		Language:     n.language.String,
		Category:     n.category.String,
		Tags:         n.tags,
		Author:       n.author.String,
		ViewCount:    n.views.Int64,
		LikeCount:    n.likes.Int64,
		ShareCount:   n.shares.Int64,
		CommentCount: n.comments.Int64,
		QualityScore: n.quality.Float64,
	}
	if n.publishedAt.Valid {
		a.PublishedAt = n.publishedAt.Time
	}
	return a
}
