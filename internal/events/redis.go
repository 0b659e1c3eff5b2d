package events

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// HistoryKey is the list holding the most recent events, newest first.
const HistoryKey = "franky:events"

// RedisNotifier publishes events on a channel and keeps a capped history list.
type RedisNotifier struct {
	client  rueidis.Client
	channel string
	history int64
	logger  *zap.Logger
}

// NewRedisNotifier creates a notifier on top of an existing client.
func NewRedisNotifier(client rueidis.Client, channel string, history int64, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:  client,
		channel: channel,
		history: max(history, 1),
		logger:  logger.Named("events"),
	}
}

// Notify records the event in the history list and publishes it.
func (n *RedisNotifier) Notify(ctx context.Context, event *ChangeEvent) error {
	payload, err := sonic.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	cmds := rueidis.Commands{
		n.client.B().Lpush().Key(HistoryKey).Element(string(payload)).Build(),
		n.client.B().Ltrim().Key(HistoryKey).Start(0).Stop(n.history - 1).Build(),
		n.client.B().Publish().Channel(n.channel).Message(string(payload)).Build(),
	}

	for _, resp := range n.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("failed to publish change event: %w", err)
		}
	}

	n.logger.Debug("Published change event",
		zap.String("eventID", event.ID.String()),
		zap.String("kind", string(event.Kind)),
		zap.String("subject", event.Subject))

	return nil
}

// History returns up to limit of the most recent events, newest first.
// Entries that fail to decode are skipped.
func (n *RedisNotifier) History(ctx context.Context, limit int64) ([]*ChangeEvent, error) {
	if limit <= 0 {
		return []*ChangeEvent{}, nil
	}

	raw, err := n.client.Do(ctx,
		n.client.B().Lrange().Key(HistoryKey).Start(0).Stop(limit-1).Build(),
	).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to read change history: %w", err)
	}

	events := make([]*ChangeEvent, 0, len(raw))
	for _, entry := range raw {
		var event ChangeEvent
		if err := sonic.UnmarshalString(entry, &event); err != nil {
			n.logger.Warn("Skipping malformed change event", zap.Error(err))
			continue
		}
		events = append(events, &event)
	}

	return events, nil
}
