package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

var _ driven.EngagementSubscriber = (*MockEngagementSubscriber)(nil)

// MockEngagementSubscriber delivers events published through Publish
type MockEngagementSubscriber struct {
	mu           sync.Mutex
	handler      driven.EngagementHandler
	ctx          context.Context
	closed       bool
	subscribeErr error
}

// NewMockEngagementSubscriber creates a new MockEngagementSubscriber
func NewMockEngagementSubscriber() *MockEngagementSubscriber {
	return &MockEngagementSubscriber{}
}

func (m *MockEngagementSubscriber) Subscribe(ctx context.Context, handler driven.EngagementHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeErr != nil {
		return m.subscribeErr
	}
	m.handler = handler
	m.ctx = ctx
	return nil
}

func (m *MockEngagementSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.handler = nil
	return nil
}

// Publish synchronously delivers event to the registered handler
func (m *MockEngagementSubscriber) Publish(event *domain.EngagementEvent) error {
	m.mu.Lock()
	handler, ctx := m.handler, m.ctx
	m.mu.Unlock()
	if handler == nil {
		return errors.New("no active subscription")
	}
	return handler(ctx, event)
}

func (m *MockEngagementSubscriber) SetSubscribeError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribeErr = err
}

func (m *MockEngagementSubscriber) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
