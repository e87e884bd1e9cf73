package driving

import (
	"context"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

// RecommendationService produces personalized article recommendations
type RecommendationService interface {
	// GetRecommendations ranks recent articles for a reader
	GetRecommendations(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResult, error)

	// Trending returns regionally relevant articles with high recent engagement
	Trending(ctx context.Context, limit int) ([]domain.TrendingArticle, error)

	// InvalidateUser drops the cached profile and every personalized
	// result after a new engagement
	InvalidateUser(ctx context.Context, userID string) error
}
