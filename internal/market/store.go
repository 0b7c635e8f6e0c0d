package market

import (
	"context"

	"github.com/google/uuid"

	"github.com/rajivgeraev/polesharing-api/internal/models"
)

// ItemFilter задает условия выборки товаров
type ItemFilter struct {
	Statuses []models.ItemStatus
	OwnerID  *uuid.UUID
	Limit    int
	Offset   int
}

// Store — хранилище движка. Реализации: Postgres (боевая) и
// in-memory (тесты/разработка).
//
// WithTx выполняет fn атомарно; внутри транзакции конкурирующие
// операции над одним товаром сериализуются (Postgres делает это
// через SELECT ... FOR UPDATE в ItemByIDForUpdate). Все переходы
// вида "прочитал — решил — записал" обязаны идти через WithTx
type Store interface {
	WithTx(ctx context.Context, fn func(Store) error) error

	CreateItem(ctx context.Context, item *models.Item) error
	ItemByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ItemByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	IncrementItemViews(ctx context.Context, id uuid.UUID) (int, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]models.Item, error)

	CreateReservation(ctx context.Context, r *models.Reservation) error
	ReservationByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	ReservationByItem(ctx context.Context, itemID uuid.UUID) (*models.Reservation, error)
	DeleteReservation(ctx context.Context, id uuid.UUID) error
	DeleteReservationsByItem(ctx context.Context, itemID uuid.UUID) error
	ListReservationsByUser(ctx context.Context, userID uuid.UUID) ([]models.Reservation, error)

	CreateMessage(ctx context.Context, m *models.Message) error
	MessagesByItem(ctx context.Context, itemID uuid.UUID) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, ids []string) error
	MessagesByUser(ctx context.Context, userID uuid.UUID) ([]models.Message, error)
	UnreadMessagesByReceiver(ctx context.Context) (map[uuid.UUID][]models.Message, error)
	UserEmail(ctx context.Context, userID uuid.UUID) (string, error)
}
