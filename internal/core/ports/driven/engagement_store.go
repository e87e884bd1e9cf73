package driven

import (
	"context"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

// EngagementStore is read-only access to reader engagement history (PostgreSQL).
// Writes happen elsewhere; the ranking core only invalidates its caches.
type EngagementStore interface {
	// GetReader resolves a user id. Returns domain.ErrNotFound if unknown.
	GetReader(ctx context.Context, userID string) (*domain.Reader, error)

	// RecentEngagements returns at most limit engagements, newest first,
	// each with its article metadata attached when the article still exists
	RecentEngagements(ctx context.Context, userID string, limit int) ([]*domain.Engagement, error)

	// ReadArticleIDs returns ids of articles the user viewed since the given time
	ReadArticleIDs(ctx context.Context, userID string, since time.Time) ([]string, error)
}

// EngagementHandler processes one engagement event
type EngagementHandler func(ctx context.Context, event *domain.EngagementEvent) error

// EngagementSubscriber delivers engagement events from the message bus
type EngagementSubscriber interface {
	// Subscribe registers handler and returns once the subscription is active.
	// Delivery stops when ctx is cancelled or Close is called.
	Subscribe(ctx context.Context, handler EngagementHandler) error

	// Close drains the subscription
	Close() error
}
