package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus описывает состояние жизненного цикла товара
type ItemStatus string

const (
	StatusActive   ItemStatus = "active"
	StatusReserved ItemStatus = "reserved"
	StatusSold     ItemStatus = "sold"
)

// Item представляет товар в системе
type Item struct {
	ID              uuid.UUID  `json:"id"`
	OwnerID         uuid.UUID  `json:"owner_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Price           float64    `json:"price"`
	ImageURL        string     `json:"image_url,omitempty"`
	Status          ItemStatus `json:"status"`
	Views           int        `json:"views"`
	IsInAirhall     bool       `json:"is_in_airhall"`
	AirhallImageURL string     `json:"airhall_image_url,omitempty"`
	AirhallLocation string     `json:"airhall_location,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Дополнительные поля для API
	Owner *User `json:"owner,omitempty"`
}

// IsListed сообщает, должен ли товар попадать в публичную выдачу.
// Проданные товары исключаются из всех списков
func (i *Item) IsListed() bool {
	return i.Status == StatusActive || i.Status == StatusReserved
}
