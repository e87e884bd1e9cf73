package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven/mocks"
)

func TestRateLimitedEmbedder_Delegates(t *testing.T) {
	inner := mocks.NewMockEmbeddingService()
	r := NewRateLimitedEmbedder(inner, 0, 0)

	vec, err := r.EmbedQuery(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 8 || r.Dimensions() != 8 || r.Model() != inner.Model() {
		t.Errorf("expected delegation to the wrapped service")
	}
	if _, err := r.Embed(context.Background(), []string{"a", "b"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRateLimitedEmbedder_WaitRespectsContext(t *testing.T) {
	inner := mocks.NewMockEmbeddingService()
	// One token, refilled every ten seconds
	r := NewRateLimitedEmbedder(inner, 0.1, 1)

	if _, err := r.EmbedQuery(context.Background(), "first"); err != nil {
		t.Fatalf("first call should use the burst token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := r.EmbedQuery(ctx, "second")
	if err == nil {
		t.Fatal("expected the limiter to give up before the deadline")
	}

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	if _, err := r.Embed(cancelled, []string{"x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
