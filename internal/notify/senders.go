package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"guardian-backend/internal/models"
)

const publishTimeout = 5 * time.Second

// RedisAlertPublisher delivers sound and push alerts by publishing to the
// child's redis channel; the websocket hub relays them to connected clients
// (the monitoring device for sounds, parent apps for pushes).
type RedisAlertPublisher struct {
	client *redis.Client
}

func NewRedisAlertPublisher(client *redis.Client) *RedisAlertPublisher {
	return &RedisAlertPublisher{client: client}
}

func (p *RedisAlertPublisher) PlayAlert(childID string, kind models.AlertKind) error {
	return p.publish(childID, models.WSMessage{
		Type:    "sound_alert",
		Payload: models.SoundAlertEvent{Kind: kind},
	})
}

func (p *RedisAlertPublisher) PushAlert(childID string, kind models.AlertKind, sessionID, details string) error {
	return p.publish(childID, models.WSMessage{
		Type:    "alert",
		Payload: models.AlertPush{Kind: kind, SessionID: sessionID, Details: details},
	})
}

func (p *RedisAlertPublisher) publish(childID string, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal alert message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.client.Publish(ctx, AlertChannel(childID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish alert for child %s: %w", childID, err)
	}
	return nil
}

// AlertChannel is the redis pub/sub channel carrying a child's live alerts.
func AlertChannel(childID string) string {
	return "child_alerts:" + childID
}
