package chat

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/polesharing-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API переписки
func (s *ChatService) SetupRoutes(app *fiber.App) {
	auth := middleware.AuthMiddleware(s.jwtService)

	// Переписка привязана к товару
	app.Get("/api/items/:id/messages", s.GetConversation, auth)
	app.Post("/api/items/:id/messages", s.SendMessage, auth)

	// Группа для API сообщений
	api := app.Group("/api/messages")
	api.Use(auth)

	// Маршрут для всех сообщений пользователя
	api.Get("/my", s.GetMyMessages)
}
