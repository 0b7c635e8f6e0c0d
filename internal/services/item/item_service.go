package item

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/polesharing-api/internal/db"
	"github.com/rajivgeraev/polesharing-api/internal/market"
	"github.com/rajivgeraev/polesharing-api/internal/services/image"
	"github.com/rajivgeraev/polesharing-api/internal/utils"
	"github.com/rajivgeraev/polesharing-api/internal/ws"
)

// ItemService представляет сервис для работы с товарами
type ItemService struct {
	engine     *market.Engine
	hub        *ws.Manager
	images     *image.Service
	jwtService *utils.JWTService
}

// NewItemService создает новый экземпляр ItemService
func NewItemService(engine *market.Engine, hub *ws.Manager, images *image.Service, jwtService *utils.JWTService) *ItemService {
	return &ItemService{
		engine:     engine,
		hub:        hub,
		images:     images,
		jwtService: jwtService,
	}
}

// CreateItem обрабатывает создание нового товара
func (s *ItemService) CreateItem(c fiber.Ctx) error {
	userUUID, err := currentUser(c)
	if err != nil {
		return err
	}

	// Извлекаем данные из запроса
	var requestData struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		ImageURL    string  `json:"image_url"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	// Валидация обязательных полей
	if requestData.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Название обязательно"})
	}
	if requestData.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Цена не может быть отрицательной"})
	}

	// HEIC-изображения приводим к JPEG. Если конвертация не удалась,
	// это явное решение: логируем и сохраняем исходную ссылку
	imageURL := requestData.ImageURL
	if s.images != nil && image.NeedsNormalization(imageURL) {
		normalized, err := s.images.NormalizeImage(c.Context(), imageURL)
		if err != nil {
			log.Printf("Конвертация изображения не удалась, сохраняем оригинал: %v", err)
		} else {
			imageURL = normalized
		}
	}

	item, err := s.engine.CreateItem(c.Context(), market.CreateItemInput{
		OwnerID:     userUUID,
		Title:       requestData.Title,
		Description: requestData.Description,
		Price:       requestData.Price,
		ImageURL:    imageURL,
	})
	if err != nil {
		log.Printf("Ошибка создания товара: %v", err)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"item":    item,
	})
}

// GetPublicItems возвращает публичный список товаров: только active и
// reserved, проданные не показываются
func (s *ItemService) GetPublicItems(c fiber.Ctx) error {
	limit := 20
	offsetStr := c.Query("offset", "0")
	offset, _ := strconv.Atoi(offsetStr)

	items, err := s.engine.ListPublic(c.Context(), limit, offset)
	if err != nil {
		log.Printf("Ошибка запроса товаров: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения товаров"})
	}

	return c.JSON(fiber.Map{
		"items":  items,
		"count":  len(items),
		"limit":  limit,
		"offset": offset,
	})
}

// GetMyItems возвращает товары текущего пользователя, включая проданные
func (s *ItemService) GetMyItems(c fiber.Ctx) error {
	userUUID, err := currentUser(c)
	if err != nil {
		return err
	}

	items, err := s.engine.ItemsByOwner(c.Context(), userUUID)
	if err != nil {
		log.Printf("Ошибка запроса товаров пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения товаров"})
	}

	return c.JSON(fiber.Map{
		"items": items,
		"count": len(items),
	})
}

// GetItem возвращает карточку товара: сам товар, переписку зрителя и
// данные владельца. Каждый просмотр карточки увеличивает счетчик,
// включая просмотры владельцем
func (s *ItemService) GetItem(c fiber.Ctx) error {
	userUUID, err := currentUser(c)
	if err != nil {
		return err
	}

	itemUUID, err := parseID(c, "id", "Неверный формат ID товара")
	if err != nil {
		return err
	}

	item, err := s.engine.Item(c.Context(), itemUUID)
	if err != nil {
		return respondError(c, err)
	}

	views, err := s.engine.RecordView(c.Context(), itemUUID, &userUUID)
	if err != nil {
		log.Printf("Ошибка учета просмотра: %v", err)
		// Карточку все равно показываем
	} else {
		item.Views = views
	}

	conv, err := s.engine.ResolveConversation(c.Context(), itemUUID, userUUID)
	if err != nil {
		return respondError(c, err)
	}
	notifyRead(s.hub, userUUID, conv)

	// Получаем информацию о владельце
	var owner fiber.Map
	if user, err := db.GetUserByID(item.OwnerID); err == nil {
		owner = fiber.Map{
			"id":         user.ID,
			"username":   user.Username,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"avatar_url": user.AvatarURL,
		}
	}

	return c.JSON(fiber.Map{
		"item":         item,
		"owner":        owner,
		"conversation": conv,
		"is_owner":     item.OwnerID == userUUID,
	})
}

// UpdateItem обновляет существующий товар
func (s *ItemService) UpdateItem(c fiber.Ctx) error {
	userUUID, err := currentUser(c)
	if err != nil {
		return err
	}

	itemUUID, err := parseID(c, "id", "Неверный формат ID товара")
	if err != nil {
		return err
	}

	var requestData struct {
		Title           *string  `json:"title"`
		Description     *string  `json:"description"`
		Price           *float64 `json:"price"`
		ImageURL        *string  `json:"image_url"`
		AirhallImageURL *string  `json:"airhall_image_url"`
		AirhallLocation *string  `json:"airhall_location"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.Title != nil && *requestData.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Название обязательно"})
	}

	item, err := s.engine.UpdateItem(c.Context(), itemUUID, userUUID, market.UpdateItemInput{
		Title:           requestData.Title,
		Description:     requestData.Description,
		Price:           requestData.Price,
		ImageURL:        requestData.ImageURL,
		AirhallImageURL: requestData.AirhallImageURL,
		AirhallLocation: requestData.AirhallLocation,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"item":    item,
	})
}

// MarkSold помечает товар проданным. Активное бронирование при этом
// снимается
func (s *ItemService) MarkSold(c fiber.Ctx) error {
	userUUID, err := currentUser(c)
	if err != nil {
		return err
	}

	itemUUID, err := parseID(c, "id", "Неверный формат ID товара")
	if err != nil {
		return err
	}

	item, err := s.engine.MarkSold(c.Context(), itemUUID, userUUID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"item":    item,
	})
}

// ToggleAirhall включает или выключает размещение товара в Airhall
func (s *ItemService) ToggleAirhall(c fiber.Ctx) error {
	userUUID, err := currentUser(c)
	if err != nil {
		return err
	}

	itemUUID, err := parseID(c, "id", "Неверный формат ID товара")
	if err != nil {
		return err
	}

	var requestData struct {
		Enable   bool   `json:"enable"`
		ImageURL string `json:"image_url"`
		Location string `json:"location"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	// Витринное изображение тоже приводим к JPEG
	imageURL := requestData.ImageURL
	if s.images != nil && image.NeedsNormalization(imageURL) {
		normalized, err := s.images.NormalizeImage(c.Context(), imageURL)
		if err != nil {
			log.Printf("Конвертация изображения не удалась, сохраняем оригинал: %v", err)
		} else {
			imageURL = normalized
		}
	}

	item, err := s.engine.SetAirhall(c.Context(), itemUUID, userUUID, requestData.Enable, imageURL, requestData.Location)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"item":    item,
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

// parseID читает UUID из параметра маршрута
func parseID(c fiber.Ctx, param, errMsg string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": errMsg})
	}
	return id, nil
}

// notifyRead уведомляет отправителей о прочтении их сообщений
func notifyRead(hub *ws.Manager, reader uuid.UUID, conv *market.Conversation) {
	if hub == nil || conv == nil || conv.Counterpart == nil || len(conv.MarkedRead) == 0 {
		return
	}
	for _, id := range conv.MarkedRead {
		hub.SendToUser(conv.Counterpart.String(), ws.Event{
			Type:      ws.EventMessageRead,
			ItemID:    conv.ItemID.String(),
			MessageID: id,
			UserID:    reader.String(),
		})
	}
}

// respondError переводит ошибки бизнес-правил в HTTP-статусы
func respondError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, market.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Товар не найден"})
	case errors.Is(err, market.ErrPermissionDenied):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Нет прав на это действие"})
	case errors.Is(err, market.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Товар уже продан"})
	case errors.Is(err, market.ErrInvalidState):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Для витрины Airhall нужно изображение"})
	default:
		log.Printf("Ошибка операции с товаром: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Внутренняя ошибка"})
	}
}
