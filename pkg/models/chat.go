package models

import "time"

// SenderRole identifies who wrote a chat message
type SenderRole string

const (
	SenderCustomer SenderRole = "customer"
	SenderDriver   SenderRole = "driver"
)

// ChatMessage is a single message in a ride's chat
type ChatMessage struct {
	ID         string     `json:"id"`
	RideID     string     `json:"ride_id"`
	ChatID     string     `json:"chat_id"`
	SenderID   string     `json:"sender_id"`
	SenderRole SenderRole `json:"sender_role"`
	Message    string     `json:"message"`
	IsRead     bool       `json:"is_read"`
	IsDeleted  bool       `json:"is_deleted"`
	CreatedAt  time.Time  `json:"created_at"`
}
