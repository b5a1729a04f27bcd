package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"rentalhub/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const NotificationQueue = "rentalhub:notifications"

// Notifier hands notifications to the external delivery pipeline.
type Notifier interface {
	Notify(ctx context.Context, notification *models.Notification) error
}

type redisNotifier struct {
	client *redis.Client
	queue  string
	logger *slog.Logger
}

// NewRedisNotifier enqueues JSON notifications on a redis list the mailer consumes.
func NewRedisNotifier(client *redis.Client, logger *slog.Logger) Notifier {
	return &redisNotifier{client: client, queue: NotificationQueue, logger: logger}
}

func (n *redisNotifier) Notify(ctx context.Context, notification *models.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	if notification.Type == "" {
		notification.Type = models.NotificationTypeEmail
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := n.client.LPush(ctx, n.queue, payload).Err(); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}

	n.logger.Debug("notification queued",
		slog.String("event", string(notification.Event)),
		slog.String("recipient_id", notification.RecipientID.String()),
	)
	return nil
}

// notifyAfterCommit is fire-and-forget: delivery failures are logged, never surfaced.
func notifyAfterCommit(ctx context.Context, notifier Notifier, logger *slog.Logger, notification *models.Notification) {
	if notifier == nil {
		return
	}
	if err := notifier.Notify(ctx, notification); err != nil {
		logger.Error("failed to queue notification",
			slog.String("event", string(notification.Event)),
			slog.String("error", err.Error()),
		)
	}
}
