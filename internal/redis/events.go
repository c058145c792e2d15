package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"upload-service/internal/models"
)

const publishTimeout = 2 * time.Second

// PublishEvent publishes a file event as JSON on the configured channel.
// Subscribers (the website build, cache warmers) react to "upload" and
// "delete" events; nothing is retained when no subscriber is listening.
func (c *Client) PublishEvent(ctx context.Context, event models.FileEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := c.rdb.Publish(ctx, c.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
