package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

const (
	// DefaultEngagementStream is the stream engagement events are appended to
	DefaultEngagementStream = "newsrank:engagements"

	readCount    = 32
	blockTimeout = 500 * time.Millisecond
	retryBackoff = time.Second
)

// Verify interface compliance
var _ driven.EngagementSubscriber = (*EngagementStream)(nil)

// EngagementStream consumes engagement events from a Redis stream through a
// consumer group, so each event is handled by one replica. Handled entries
// are acknowledged and deleted to keep the stream short.
type EngagementStream struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngagementStream creates the consumer group if needed.
// The consumer name should be unique per replica; empty uses hostname and PID.
func NewEngagementStream(ctx context.Context, client *redis.Client, stream, group, consumer string, logger *slog.Logger) (*EngagementStream, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if stream == "" {
		stream = DefaultEngagementStream
	}
	if group == "" {
		group = "newsrank"
	}
	if consumer == "" {
		host, _ := os.Hostname()
		consumer = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	if logger == nil {
		logger = slog.Default()
	}

	// New groups start at the end of the stream; older events concern
	// caches that have long expired
	err := client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil && !isGroupExistsError(err) {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &EngagementStream{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		logger:   logger.With("stream", stream, "group", group),
	}, nil
}

// Publish appends an event to the stream and returns the entry id
func (s *EngagementStream) Publish(ctx context.Context, event *domain.EngagementEvent) (string, error) {
	if event == nil || event.UserID == "" {
		return "", fmt.Errorf("%w: engagement without user", domain.ErrInvalidInput)
	}
	values := map[string]any{
		"user_id":     event.UserID,
		"article_id":  event.ArticleID,
		"action_type": string(event.Action),
	}
	if !event.RecordedAt.IsZero() {
		values["recorded_at"] = event.RecordedAt.UTC().Format(time.RFC3339Nano)
	}
	id, err := s.client.XAdd(ctx, &redis.XAddArgs{Stream: s.stream, Values: values}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish engagement: %w", err)
	}
	return id, nil
}

// Subscribe starts consuming in the background. Entries delivered to this
// consumer before a restart are replayed first.
func (s *EngagementStream) Subscribe(ctx context.Context, handler driven.EngagementHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("engagement stream already subscribed")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.consume(ctx, handler, s.done)

	s.logger.Info("subscribed to engagement stream", "consumer", s.consumer)
	return nil
}

func (s *EngagementStream) consume(ctx context.Context, handler driven.EngagementHandler, done chan struct{}) {
	defer close(done)

	pending := true
	for ctx.Err() == nil {
		args := &redis.XReadGroupArgs{
			Group:    s.group,
			Consumer: s.consumer,
			Streams:  []string{s.stream, ">"},
			Count:    readCount,
			Block:    blockTimeout,
		}
		if pending {
			args.Streams[1] = "0"
			args.Block = -1
		}

		streams, err := s.client.XReadGroup(ctx, args).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				pending = false
				continue
			}
			if ctx.Err() != nil {
				return
			}
			if pending {
				s.logger.Warn("skipping pending engagement replay", "error", err)
				pending = false
				continue
			}
			s.logger.Warn("failed to read engagement stream", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryBackoff):
			}
			continue
		}

		var messages []redis.XMessage
		for _, stream := range streams {
			messages = append(messages, stream.Messages...)
		}
		if pending && len(messages) == 0 {
			pending = false
			continue
		}
		for _, msg := range messages {
			s.handle(ctx, handler, msg)
		}
	}
}

func (s *EngagementStream) handle(ctx context.Context, handler driven.EngagementHandler, msg redis.XMessage) {
	event, err := decodeEngagement(msg.Values)
	if err != nil {
		s.logger.Warn("dropping engagement event", "id", msg.ID, "error", err)
	} else if err := handler(ctx, event); err != nil {
		s.logger.Error("engagement handler failed", "id", msg.ID, "user_id", event.UserID, "error", err)
	}

	// Use a fresh context so a shutdown does not leave handled entries pending
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	pipe := s.client.Pipeline()
	pipe.XAck(ackCtx, s.stream, s.group, msg.ID)
	pipe.XDel(ackCtx, s.stream, msg.ID)
	if _, err := pipe.Exec(ackCtx); err != nil {
		s.logger.Warn("failed to ack engagement event", "id", msg.ID, "error", err)
	}
}

// Close stops consuming and waits for the in-flight batch
func (s *EngagementStream) Close() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// decodeEngagement maps stream entry fields onto an event
func decodeEngagement(values map[string]any) (*domain.EngagementEvent, error) {
	field := func(name string) string {
		v, _ := values[name].(string)
		return v
	}

	event := &domain.EngagementEvent{
		UserID:    field("user_id"),
		ArticleID: field("article_id"),
		Action:    domain.ActionType(field("action_type")),
	}
	if event.UserID == "" {
		return nil, errors.New("missing user_id")
	}
	if event.Action != "" && !event.Action.IsValid() {
		return nil, fmt.Errorf("unknown action_type %q", event.Action)
	}
	if raw := field("recorded_at"); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid recorded_at: %w", err)
		}
		event.RecordedAt = at
	}
	return event, nil
}

func isGroupExistsError(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}
