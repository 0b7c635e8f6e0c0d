package market

import (
	"context"

	"github.com/google/uuid"

	"github.com/rajivgeraev/polesharing-api/internal/models"
)

// Reserve бронирует товар на 24 часа для user.
//
// Истекшие бронирования снимаются лениво: если на товаре висит
// просроченный холд, он удаляется прямо здесь, в точке конкуренции,
// и создается новый — фонового процесса очистки нет. Одновременно у
// товара может быть не больше одного действующего бронирования; из
// двух конкурентных запросов выигрывает ровно один, второй получает
// ErrAlreadyReserved
func (e *Engine) Reserve(ctx context.Context, itemID, user uuid.UUID) (*models.Reservation, error) {
	var created *models.Reservation

	err := e.store.WithTx(ctx, func(st Store) error {
		item, err := st.ItemByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item.Status == models.StatusSold {
			return ErrInvalidTransition
		}
		if item.OwnerID == user {
			return ErrOwnerCannotReserve
		}

		now := e.now()

		if item.Status == models.StatusReserved {
			existing, err := st.ReservationByItem(ctx, itemID)
			switch {
			case err == ErrNotFound:
				// статус reserved без строки бронирования: считаем холд
				// уже снятым и продолжаем
			case err != nil:
				return err
			case existing.IsExpired(now):
				if err := st.DeleteReservation(ctx, existing.ID); err != nil {
					return err
				}
			default:
				return ErrAlreadyReserved
			}
		}

		r := &models.Reservation{
			ID:        uuid.New(),
			ItemID:    itemID,
			UserID:    user,
			CreatedAt: now,
			ExpiresAt: now.Add(models.ReservationTTL),
		}
		if err := st.CreateReservation(ctx, r); err != nil {
			return err
		}

		item.Status = models.StatusReserved
		item.UpdatedAt = now
		if err := st.UpdateItem(ctx, item); err != nil {
			return err
		}

		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// CancelReservation отменяет бронирование. Разрешено только его
// держателю. Отмена истекшего бронирования — ошибка: холд уже
// недействителен, и вызывающая сторона не должна считать отмену
// успешной
func (e *Engine) CancelReservation(ctx context.Context, reservationID, actor uuid.UUID) error {
	return e.store.WithTx(ctx, func(st Store) error {
		r, err := st.ReservationByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if r.UserID != actor {
			return ErrPermissionDenied
		}
		if r.IsExpired(e.now()) {
			return ErrReservationExpired
		}

		item, err := st.ItemByIDForUpdate(ctx, r.ItemID)
		if err != nil {
			return err
		}

		if err := st.DeleteReservation(ctx, r.ID); err != nil {
			return err
		}

		if item.Status == models.StatusReserved {
			item.Status = models.StatusActive
			item.UpdatedAt = e.now()
			if err := st.UpdateItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

// MyReservations возвращает бронирования пользователя
func (e *Engine) MyReservations(ctx context.Context, userID uuid.UUID) ([]models.Reservation, error) {
	return e.store.ListReservationsByUser(ctx, userID)
}
