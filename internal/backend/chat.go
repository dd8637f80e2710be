package backend

import (
	"context"

	"github.com/richxcame/rider-client/pkg/models"
)

// ChatMessages loads the message history of a ride.
func (c *Client) ChatMessages(ctx context.Context, rideID string) ([]models.ChatMessage, error) {
	if err := requireID("ride id", rideID); err != nil {
		return nil, err
	}
	var resp struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	if err := c.get(ctx, ridePath(rideID, "messages"), &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SaveChatMessage persists a message and returns the stored copy.
func (c *Client) SaveChatMessage(ctx context.Context, msg models.ChatMessage) (*models.ChatMessage, error) {
	if err := requireID("ride id", msg.RideID); err != nil {
		return nil, err
	}
	var saved models.ChatMessage
	if err := c.postOnce(ctx, ridePath(msg.RideID, "messages"), "msg-"+msg.ID, msg, &saved); err != nil {
		return nil, err
	}
	if saved.ID == "" {
		saved = msg
	}
	return &saved, nil
}
