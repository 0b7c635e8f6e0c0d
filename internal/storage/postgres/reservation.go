package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/polesharing-api/internal/market"
	"github.com/rajivgeraev/polesharing-api/internal/models"
)

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var r models.Reservation
	err := row.Scan(&r.ID, &r.ItemID, &r.UserID, &r.CreatedAt, &r.ExpiresAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, market.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения бронирования: %w", err)
	}
	return &r, nil
}

func (s *Store) CreateReservation(ctx context.Context, r *models.Reservation) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO reservations (id, item_id, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.ID, r.ItemID, r.UserID, r.CreatedAt, r.ExpiresAt)
	if err != nil {
		return fmt.Errorf("ошибка вставки бронирования: %w", err)
	}
	return nil
}

func (s *Store) ReservationByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	return scanReservation(s.db.QueryRow(ctx, `
		SELECT id, item_id, user_id, created_at, expires_at
		FROM reservations WHERE id = $1
	`, id))
}

func (s *Store) ReservationByItem(ctx context.Context, itemID uuid.UUID) (*models.Reservation, error) {
	return scanReservation(s.db.QueryRow(ctx, `
		SELECT id, item_id, user_id, created_at, expires_at
		FROM reservations WHERE item_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, itemID))
}

func (s *Store) DeleteReservation(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления бронирования: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteReservationsByItem(ctx context.Context, itemID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM reservations WHERE item_id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("ошибка удаления бронирований товара: %w", err)
	}
	return nil
}

func (s *Store) ListReservationsByUser(ctx context.Context, userID uuid.UUID) ([]models.Reservation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, item_id, user_id, created_at, expires_at
		FROM reservations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса бронирований: %w", err)
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *r)
	}
	return reservations, rows.Err()
}
