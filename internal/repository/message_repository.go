package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tradeclub/escrow-backend/internal/models"
)

// MessageRepository отвечает за журнал сделки. Журнал append-only:
// методов редактирования и удаления не существует намеренно.
type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append добавляет запись в журнал сделки.
func (r *MessageRepository) Append(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (deal_id, author_id, is_system, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		msg.DealID,
		msg.AuthorID,
		msg.IsSystem,
		msg.Content,
	).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return fmt.Errorf("message repository: append %w", err)
	}
	return nil
}

// ListByDeal возвращает журнал сделки в строгом порядке (created_at, id).
func (r *MessageRepository) ListByDeal(ctx context.Context, dealID uuid.UUID, limit, offset int) ([]models.Message, error) {
	query := `
		SELECT * FROM messages
		WHERE deal_id = $1
		ORDER BY created_at, id
	`
	args := []interface{}{dealID}
	argIndex := 2

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, offset)
	}

	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("message repository: list %w", err)
	}
	return messages, nil
}
