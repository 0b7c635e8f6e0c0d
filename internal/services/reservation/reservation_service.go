package reservation

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/polesharing-api/internal/market"
	"github.com/rajivgeraev/polesharing-api/internal/utils"
)

// ReservationService представляет сервис для работы с бронированиями
type ReservationService struct {
	engine     *market.Engine
	jwtService *utils.JWTService
}

// NewReservationService создает новый экземпляр ReservationService
func NewReservationService(engine *market.Engine, jwtService *utils.JWTService) *ReservationService {
	return &ReservationService{
		engine:     engine,
		jwtService: jwtService,
	}
}

// ReserveItem ставит товар на бронь на 24 часа
func (s *ReservationService) ReserveItem(c fiber.Ctx) error {
	userUUID, err := currentUser(c)
	if err != nil {
		return err
	}

	itemUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID товара"})
	}

	res, err := s.engine.Reserve(c.Context(), itemUUID, userUUID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"reservation": res,
	})
}

// CancelReservation снимает бронь. Отменить может только тот, кто
// бронировал, и только пока бронь не истекла
func (s *ReservationService) CancelReservation(c fiber.Ctx) error {
	userUUID, err := currentUser(c)
	if err != nil {
		return err
	}

	resUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID брони"})
	}

	if err := s.engine.CancelReservation(c.Context(), resUUID, userUUID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetMyReservations возвращает брони текущего пользователя вместе с
// товарами и признаком истечения
func (s *ReservationService) GetMyReservations(c fiber.Ctx) error {
	userUUID, err := currentUser(c)
	if err != nil {
		return err
	}

	reservations, err := s.engine.MyReservations(c.Context(), userUUID)
	if err != nil {
		log.Printf("Ошибка запроса бронирований: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения бронирований"})
	}

	now := time.Now()
	result := make([]fiber.Map, 0, len(reservations))
	for _, r := range reservations {
		entry := fiber.Map{
			"reservation": r,
			"is_expired":  r.IsExpired(now),
		}
		if item, err := s.engine.Item(c.Context(), r.ItemID); err == nil {
			entry["item"] = item
		}
		result = append(result, entry)
	}

	return c.JSON(fiber.Map{
		"reservations": result,
		"count":        len(result),
	})
}

// currentUser извлекает UUID текущего пользователя из контекста
func currentUser(c fiber.Ctx) (uuid.UUID, error) {
	userID, _ := c.Locals("userID").(string)
	if userID == "" {
		return uuid.Nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}
	return userUUID, nil
}

// respondError переводит ошибки бизнес-правил в HTTP-статусы
func respondError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, market.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Не найдено"})
	case errors.Is(err, market.ErrOwnerCannotReserve):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Нельзя бронировать свой товар"})
	case errors.Is(err, market.ErrPermissionDenied):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Нет прав на это действие"})
	case errors.Is(err, market.ErrAlreadyReserved):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Товар уже забронирован"})
	case errors.Is(err, market.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Товар уже продан"})
	case errors.Is(err, market.ErrReservationExpired):
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "Срок брони истек"})
	default:
		log.Printf("Ошибка операции с бронированием: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Внутренняя ошибка"})
	}
}
