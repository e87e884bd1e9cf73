package driving

import (
	"context"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

// SearchService ranks articles for a query
type SearchService interface {
	// Search runs the full ranking pipeline. It returns domain.ErrInvalidQuery
	// without a result for bad input. When every source fails it returns the
	// failed envelope together with an error wrapping domain.ErrAllSourcesFailed.
	// Any other degradation is reported through the envelope only.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error)

	// PersonalizedSearch is Search with the user's profile applied during fusion
	PersonalizedSearch(ctx context.Context, query string, userID string, opts domain.SearchOptions) (*domain.SearchResult, error)

	// Suggest provides search suggestions/autocomplete
	Suggest(ctx context.Context, prefix string, limit int) ([]domain.SearchSuggestion, error)
}
