package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"match-service/internal/models"
)

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message; the database assigns seq and created_at.
func (r *MessageRepo) CreateMessage(ctx context.Context, matchID, authorGroupID, text string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (id, match_id, author_group_id, text) VALUES ($1, $2, $3, $4)
        RETURNING id, seq, match_id, author_group_id, text, created_at`, uuid.NewString(), matchID, authorGroupID, text).StructScan(&msg)
	if isForeignKeyViolation(err) {
		return models.Message{}, ErrMatchNotFound
	}
	return msg, err
}

// ListMessages returns the conversation in order.
func (r *MessageRepo) ListMessages(ctx context.Context, matchID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, seq, match_id, author_group_id, text, created_at FROM messages
        WHERE match_id=$1
        ORDER BY created_at ASC, seq ASC`, matchID)
	return msgs, err
}
