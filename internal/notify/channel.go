// Package notify implements the two match-notification delivery modes:
// immediate push for premium accounts and scheduled poll-and-check digests
// for free accounts.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"jobdesk-core/internal/logging"
	"jobdesk-core/pkg/models"
)

// Publisher pushes match alerts to per-user Redis channels. The websocket
// edge subscribes to these channels; that transport is outside this service.
type Publisher struct {
	client *redis.Client
	logger logging.Logger
}

// NewPublisher returns a Publisher over the given Redis client.
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{
		client: client,
		logger: logging.GetGlobalLogger(),
	}
}

func pushChannel(userID string) string {
	return fmt.Sprintf("notify:push:%s", userID)
}

// Publish delivers a match alert to the user's push channel.
func (p *Publisher) Publish(ctx context.Context, alert models.MatchAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal match alert: %w", err)
	}
	if err := p.client.Publish(ctx, pushChannel(alert.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish match alert: %w", err)
	}

	p.logger.Debug("Match alert pushed", map[string]interface{}{
		"user_id": alert.UserID,
		"job_id":  alert.JobID,
		"score":   alert.Score,
	})
	return nil
}

// Subscribe opens a subscription to a user's push channel.
func (p *Publisher) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	return p.client.Subscribe(ctx, pushChannel(userID))
}
