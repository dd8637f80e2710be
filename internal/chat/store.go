package chat

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/database"
	"github.com/richxcame/rider-client/pkg/models"
)

// MessageAPI is the part of the backend client that serves chat history.
type MessageAPI interface {
	ChatMessages(ctx context.Context, rideID string) ([]models.ChatMessage, error)
	SaveChatMessage(ctx context.Context, msg models.ChatMessage) (*models.ChatMessage, error)
}

// APIStore keeps messages through the backend REST API.
type APIStore struct {
	api MessageAPI
}

// NewAPIStore creates an API-backed store
func NewAPIStore(api MessageAPI) *APIStore {
	return &APIStore{api: api}
}

// History returns the ride's messages
func (s *APIStore) History(ctx context.Context, rideID string) ([]models.ChatMessage, error) {
	return s.api.ChatMessages(ctx, rideID)
}

// Save persists msg
func (s *APIStore) Save(ctx context.Context, msg models.ChatMessage) (*models.ChatMessage, error) {
	return s.api.SaveChatMessage(ctx, msg)
}

// DB is satisfied by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps messages in the chat_messages table
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a new chat store
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// History retrieves the non-deleted messages of a ride, oldest first
func (s *PostgresStore) History(ctx context.Context, rideID string) ([]models.ChatMessage, error) {
	query := `
		SELECT id, ride_id, chat_id, sender_id, sender_role, message, is_read, is_deleted, created_at
		FROM chat_messages
		WHERE ride_id = $1 AND is_deleted = false
		ORDER BY created_at ASC
	`

	rows, err := s.db.Query(ctx, query, rideID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var m models.ChatMessage
		err := rows.Scan(&m.ID, &m.RideID, &m.ChatID, &m.SenderID, &m.SenderRole,
			&m.Message, &m.IsRead, &m.IsDeleted, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chat messages: %w", err)
	}

	return messages, nil
}

// Save inserts msg. Saving the same id twice keeps the first copy.
func (s *PostgresStore) Save(ctx context.Context, msg models.ChatMessage) (*models.ChatMessage, error) {
	query := `
		INSERT INTO chat_messages (id, ride_id, chat_id, sender_id, sender_role, message, is_read, is_deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, false, $7)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := s.db.Exec(ctx, query, msg.ID, msg.RideID, msg.ChatID, msg.SenderID,
		string(msg.SenderRole), msg.Message, msg.CreatedAt)
	if err != nil {
		if database.IsRetryable(err) {
			return nil, common.NewAppError(http.StatusServiceUnavailable, "chat storage is temporarily unavailable", err)
		}
		return nil, fmt.Errorf("failed to save chat message: %w", err)
	}

	return &msg, nil
}
