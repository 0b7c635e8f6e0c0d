package auth

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/polesharing-api/internal/db"
	"github.com/rajivgeraev/polesharing-api/internal/middleware"
	"github.com/rajivgeraev/polesharing-api/internal/utils"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *AuthService) SetupRoutes(app *fiber.App) {
	app.Post("/api/auth/telegram", s.TelegramAuthHandler)

	// Профиль текущего пользователя
	app.Get("/api/profile", s.ProfileHandler, middleware.AuthMiddleware(s.jwtService))
}

// ProfileHandler возвращает профиль текущего пользователя
func (s *AuthService) ProfileHandler(c fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	user, err := db.GetUserByID(userUUID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":         user.ID,
			"username":   user.Username,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"avatar_url": user.AvatarURL,
		},
	})
}

// GetJWTService возвращает JWT-сервис для переиспользования в других сервисах
func (s *AuthService) GetJWTService() *utils.JWTService {
	return s.jwtService
}
