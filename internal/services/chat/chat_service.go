package chat

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/polesharing-api/internal/market"
	"github.com/rajivgeraev/polesharing-api/internal/utils"
	"github.com/rajivgeraev/polesharing-api/internal/ws"
)

// ChatService представляет сервис для переписки по товарам
type ChatService struct {
	engine     *market.Engine
	hub        *ws.Manager
	jwtService *utils.JWTService
}

// NewChatService создает новый экземпляр ChatService
func NewChatService(engine *market.Engine, hub *ws.Manager, jwtService *utils.JWTService) *ChatService {
	return &ChatService{
		engine:     engine,
		hub:        hub,
		jwtService: jwtService,
	}
}

// SendMessage отправляет сообщение по товару. Получатель выводится из
// переписки: владелец отвечает последнему написавшему покупателю,
// покупатель всегда пишет владельцу
func (s *ChatService) SendMessage(c fiber.Ctx) error {
	userUUID, err := currentUser(c)
	if err != nil {
		return err
	}

	itemUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID товара"})
	}

	var requestData struct {
		Text     string `json:"text"`
		ImageURL string `json:"image_url"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	text := strings.TrimSpace(requestData.Text)
	if text == "" && requestData.ImageURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Сообщение не может быть пустым"})
	}

	msg, err := s.engine.SendMessage(c.Context(), itemUUID, userUUID, text, requestData.ImageURL)
	if err != nil {
		return respondError(c, err)
	}

	// Уведомляем получателя по WebSocket
	if s.hub != nil && msg.ReceiverID != nil {
		payload, _ := json.Marshal(msg)
		s.hub.SendToUser(msg.ReceiverID.String(), ws.Event{
			Type:      ws.EventNewMessage,
			ItemID:    itemUUID.String(),
			MessageID: msg.ID,
			UserID:    userUUID.String(),
			Payload:   payload,
		})
		s.notifyUnread(c, *msg.ReceiverID)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": msg,
	})
}

// notifyUnread отправляет пользователю обновленный счетчик
// непрочитанных по всем товарам
func (s *ChatService) notifyUnread(c fiber.Ctx, userID uuid.UUID) {
	msgs, err := s.engine.MessagesByUser(c.Context(), userID)
	if err != nil {
		log.Printf("Ошибка подсчета непрочитанных: %v", err)
		return
	}

	unread := 0
	for _, m := range msgs {
		if m.ReceiverID != nil && *m.ReceiverID == userID && !m.IsRead {
			unread++
		}
	}
	s.hub.NotifyUnreadCount(userID.String(), unread)
}

// GetConversation возвращает переписку зрителя по товару и помечает
// входящие сообщения прочитанными
func (s *ChatService) GetConversation(c fiber.Ctx) error {
	userUUID, err := currentUser(c)
	if err != nil {
		return err
	}

	itemUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID товара"})
	}

	conv, err := s.engine.ResolveConversation(c.Context(), itemUUID, userUUID)
	if err != nil {
		return respondError(c, err)
	}

	// Сообщаем отправителям о прочтении
	if s.hub != nil && conv.Counterpart != nil {
		for _, id := range conv.MarkedRead {
			s.hub.SendToUser(conv.Counterpart.String(), ws.Event{
				Type:      ws.EventMessageRead,
				ItemID:    itemUUID.String(),
				MessageID: id,
				UserID:    userUUID.String(),
			})
		}
	}

	return c.JSON(fiber.Map{
		"conversation": conv,
	})
}

// GetMyMessages возвращает все сообщения пользователя по всем товарам
func (s *ChatService) GetMyMessages(c fiber.Ctx) error {
	userUUID, err := currentUser(c)
	if err != nil {
		return err
	}

	messages, err := s.engine.MessagesByUser(c.Context(), userUUID)
	if err != nil {
		log.Printf("Ошибка запроса сообщений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения сообщений"})
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
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
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Товар не найден"})
	case errors.Is(err, market.ErrNoCounterpart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "По этому товару вам еще никто не писал"})
	case errors.Is(err, market.ErrPermissionDenied):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Нет прав на это действие"})
	default:
		log.Printf("Ошибка операции с сообщениями: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Внутренняя ошибка"})
	}
}
