package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/polesharing-api/internal/market"
	"github.com/rajivgeraev/polesharing-api/internal/models"
)

const itemColumns = `id, owner_id, title, description, price, image_url, status, views,
	is_in_airhall, airhall_image_url, airhall_location, created_at, updated_at`

func scanItem(row pgx.Row) (*models.Item, error) {
	var item models.Item
	err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.Title,
		&item.Description,
		&item.Price,
		&item.ImageURL,
		&item.Status,
		&item.Views,
		&item.IsInAirhall,
		&item.AirhallImageURL,
		&item.AirhallLocation,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, market.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения товара: %w", err)
	}
	return &item, nil
}

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO items (id, owner_id, title, description, price, image_url, status, views,
			is_in_airhall, airhall_image_url, airhall_location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, item.ID, item.OwnerID, item.Title, item.Description, item.Price, item.ImageURL,
		item.Status, item.Views, item.IsInAirhall, item.AirhallImageURL,
		item.AirhallLocation, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка вставки товара: %w", err)
	}
	return nil
}

func (s *Store) ItemByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	row := s.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	return scanItem(row)
}

// ItemByIDForUpdate читает товар с блокировкой строки. Вне транзакции
// блокировка бессмысленна, поэтому FOR UPDATE добавляется только
// внутри WithTx
func (s *Store) ItemByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	if s.tx != nil {
		query += ` FOR UPDATE`
	}
	return scanItem(s.db.QueryRow(ctx, query, id))
}

func (s *Store) UpdateItem(ctx context.Context, item *models.Item) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE items
		SET title = $1, description = $2, price = $3, image_url = $4, status = $5,
			is_in_airhall = $6, airhall_image_url = $7, airhall_location = $8, updated_at = $9
		WHERE id = $10
	`, item.Title, item.Description, item.Price, item.ImageURL, item.Status,
		item.IsInAirhall, item.AirhallImageURL, item.AirhallLocation, item.UpdatedAt, item.ID)
	if err != nil {
		return fmt.Errorf("ошибка обновления товара: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

func (s *Store) IncrementItemViews(ctx context.Context, id uuid.UUID) (int, error) {
	var views int
	err := s.db.QueryRow(ctx, `
		UPDATE items SET views = views + 1 WHERE id = $1 RETURNING views
	`, id).Scan(&views)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, market.ErrNotFound
		}
		return 0, fmt.Errorf("ошибка увеличения счетчика просмотров: %w", err)
	}
	return views, nil
}

func (s *Store) ListItems(ctx context.Context, filter market.ItemFilter) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var conditions []string
	var args []any

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса товаров: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
