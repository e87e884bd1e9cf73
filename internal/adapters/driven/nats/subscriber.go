// Package nats delivers engagement events published by the platform's
// engagement tracker.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EngagementSubscriber = (*EngagementSubscriber)(nil)

// ErrMalformedEvent is returned for payloads without a user id
var ErrMalformedEvent = errors.New("malformed engagement event")

// Options tunes the connection
type Options struct {
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
}

// EngagementSubscriber consumes engagement events through a queue group so
// each event is handled by one replica
type EngagementSubscriber struct {
	conn    *nats.Conn
	subject string
	queue   string
	logger  *slog.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// Connect dials the server and returns a subscriber for subject
func Connect(url, subject, queue string, opts Options, logger *slog.Logger) (*EngagementSubscriber, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 2 * time.Second
	}
	if opts.ReconnectWait <= 0 {
		opts.ReconnectWait = 2 * time.Second
	}
	if opts.MaxReconnects <= 0 {
		opts.MaxReconnects = 60
	}

	conn, err := nats.Connect(
		url,
		nats.Name("newsrank"),
		nats.Timeout(opts.ConnectTimeout),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return NewEngagementSubscriber(conn, subject, queue, logger), nil
}

// NewEngagementSubscriber uses an existing connection
func NewEngagementSubscriber(conn *nats.Conn, subject, queue string, logger *slog.Logger) *EngagementSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &EngagementSubscriber{
		conn:    conn,
		subject: subject,
		queue:   queue,
		logger:  logger,
	}
}

// Subscribe registers handler and returns once the server has the
// subscription. The subscription drains when ctx is cancelled.
func (s *EngagementSubscriber) Subscribe(ctx context.Context, handler driven.EngagementHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		return errors.New("nats: already subscribed")
	}

	sub, err := s.conn.QueueSubscribe(s.subject, s.queue, func(msg *nats.Msg) {
		s.handleMessage(ctx, handler, msg)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("nats flush: %w", err)
	}
	s.sub = sub

	go func() {
		<-ctx.Done()
		if err := s.drain(); err != nil {
			s.logger.Warn("nats drain failed", "error", err)
		}
	}()
	return nil
}

// handleMessage decodes one message and runs handler. Failures are logged;
// a missed invalidation only delays freshness until the cache TTL.
func (s *EngagementSubscriber) handleMessage(ctx context.Context, handler driven.EngagementHandler, msg *nats.Msg) {
	if ctx.Err() != nil {
		return
	}
	event, err := DecodeEvent(msg.Data)
	if err != nil {
		s.logger.Warn("dropping engagement event", "subject", msg.Subject, "error", err)
		return
	}
	if err := handler(ctx, event); err != nil {
		s.logger.Error("engagement handler failed", "user_id", event.UserID, "error", err)
	}
}

// DecodeEvent parses a JSON event. A bare user id is accepted as well.
func DecodeEvent(data []byte) (*domain.EngagementEvent, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, ErrMalformedEvent
	}

	var event domain.EngagementEvent
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal([]byte(trimmed), &event); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
	} else {
		event.UserID = trimmed
	}

	if event.UserID == "" {
		return nil, ErrMalformedEvent
	}
	if event.Action != "" && !event.Action.IsValid() {
		return nil, fmt.Errorf("%w: unknown action %q", ErrMalformedEvent, event.Action)
	}
	return &event, nil
}

func (s *EngagementSubscriber) drain() error {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub == nil {
		return nil
	}
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	return nil
}

// Close drains the subscription and closes the connection
func (s *EngagementSubscriber) Close() error {
	err := s.drain()
	if s.conn != nil && !s.conn.IsClosed() {
		s.conn.Close()
	}
	return err
}
