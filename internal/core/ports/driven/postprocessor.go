package driven

import (
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

// ResultProcessor adjusts a ranked result before it is cached and returned.
// Processors form a pipeline: whitespace -> mobile -> bandwidth -> analytics.
// A processor must not modify the hits of its input; it returns a new result.
type ResultProcessor interface {
	// Process applies the processor to one result
	Process(req *domain.RetrievalRequest, result domain.SearchResult) domain.SearchResult

	// Name returns the processor name for logging/debugging.
	Name() string

	// Order returns the processor order in the pipeline (lower = earlier).
	Order() int
}

// ResultPipeline chains multiple result processors in order.
type ResultPipeline interface {
	// Process applies all processors in order.
	Process(req *domain.RetrievalRequest, result domain.SearchResult) domain.SearchResult

	// Add adds a processor to the pipeline.
	// Processors are sorted by Order() before processing.
	Add(processor ResultProcessor)

	// List returns processor names in order.
	List() []string
}
