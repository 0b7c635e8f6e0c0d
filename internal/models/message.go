package models

import (
	"time"

	"github.com/google/uuid"
)

// Message представляет сообщение в переписке по товару.
// Переписка всегда идет между владельцем товара и одним покупателем,
// отдельной сущности "диалог" нет — собеседник выводится из истории.
// SenderID и ReceiverID могут быть пустыми только у системных
// и у старых (legacy) сообщений
type Message struct {
	ID         string     `json:"id"` // ULID: сортировка по ID = хронологический порядок
	ItemID     uuid.UUID  `json:"item_id"`
	SenderID   *uuid.UUID `json:"sender_id,omitempty"`
	ReceiverID *uuid.UUID `json:"receiver_id,omitempty"`
	Content    string     `json:"content"`
	ImageURL   string     `json:"image_url,omitempty"`
	IsRead     bool       `json:"is_read"`
	IsSystem   bool       `json:"is_system"`
	CreatedAt  time.Time  `json:"created_at"`

	// Дополнительные поля для API
	Sender *User `json:"sender,omitempty"`
}
