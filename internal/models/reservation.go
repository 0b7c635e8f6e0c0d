package models

import (
	"time"

	"github.com/google/uuid"
)

// ReservationTTL — срок действия бронирования по умолчанию
const ReservationTTL = 24 * time.Hour

// Reservation представляет бронирование товара на ограниченный срок
type Reservation struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"item_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// Дополнительные поля для API
	Item *Item `json:"item,omitempty"`
}

// IsExpired сообщает, истекло ли бронирование на момент now.
// Истекшее бронирование не удаляется фоновым процессом: оно
// считается недействительным и убирается при следующем обращении
func (r *Reservation) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
