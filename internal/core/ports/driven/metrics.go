package driven

import (
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

// RankingMetrics records pipeline observations (Prometheus)
type RankingMetrics interface {
	ObserveSearch(method domain.SearchMethod, cached bool, elapsed time.Duration)
	ObserveSource(source domain.Source, status domain.SourceStatus, elapsed time.Duration)
	ObserveRecommendation(cached, personalized bool, elapsed time.Duration)
	ObserveCache(namespace string, hit bool)
}
