package market

import "errors"

// Ошибки бизнес-правил. Все они локальные и неповторяемые:
// обработчики отдают их клиенту как есть, без скрытого восстановления
var (
	ErrNotFound           = errors.New("запись не найдена")
	ErrPermissionDenied   = errors.New("нет прав на это действие")
	ErrAlreadyReserved    = errors.New("товар уже забронирован")
	ErrReservationExpired = errors.New("бронирование уже истекло")
	ErrOwnerCannotReserve = errors.New("владелец не может бронировать свой товар")
	ErrInvalidTransition  = errors.New("недопустимый переход статуса товара")
	ErrInvalidState       = errors.New("недопустимое состояние товара")
	ErrNoCounterpart      = errors.New("нет собеседника: по товару еще не писал ни один покупатель")
)
