package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/polesharing-api/internal/market"
	"github.com/rajivgeraev/polesharing-api/internal/models"
)

const messageColumns = `id, item_id, sender_id, receiver_id, content, image_url, is_read, is_system, created_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID,
		&m.ItemID,
		&m.SenderID,
		&m.ReceiverID,
		&m.Content,
		&m.ImageURL,
		&m.IsRead,
		&m.IsSystem,
		&m.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, market.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения сообщения: %w", err)
	}
	return &m, nil
}

func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO messages (id, item_id, sender_id, receiver_id, content, image_url, is_read, is_system, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, m.ID, m.ItemID, m.SenderID, m.ReceiverID, m.Content, m.ImageURL, m.IsRead, m.IsSystem, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка вставки сообщения: %w", err)
	}
	return nil
}

// MessagesByItem возвращает сообщения товара в хронологическом
// порядке; seq разрешает равные created_at по порядку вставки
func (s *Store) MessagesByItem(ctx context.Context, itemID uuid.UUID) ([]models.Message, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE item_id = $1
		ORDER BY created_at ASC, seq ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса сообщений: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

func (s *Store) MarkMessagesRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		UPDATE messages SET is_read = true WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса прочтения: %w", err)
	}
	return nil
}

func (s *Store) MessagesByUser(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC, seq DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса сообщений пользователя: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

func (s *Store) UnreadMessagesByReceiver(ctx context.Context) (map[uuid.UUID][]models.Message, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE is_read = false AND receiver_id IS NOT NULL
		ORDER BY receiver_id, created_at ASC, seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса непрочитанных сообщений: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.Message)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out[*m.ReceiverID] = append(out[*m.ReceiverID], *m)
	}
	return out, rows.Err()
}

func (s *Store) UserEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	var email string
	err := s.db.QueryRow(ctx, `SELECT COALESCE(email, '') FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", market.ErrNotFound
		}
		return "", fmt.Errorf("ошибка получения email пользователя: %w", err)
	}
	return email, nil
}

func collectMessages(rows pgx.Rows) ([]models.Message, error) {
	var messages []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}
