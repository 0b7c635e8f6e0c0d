package image

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/polesharing-api/internal/middleware"
	"github.com/rajivgeraev/polesharing-api/internal/utils"
)

// SetupRoutes настраивает маршруты для API загрузки изображений
func (s *Service) SetupRoutes(app *fiber.App, jwtService *utils.JWTService) {
	// Маршрут для получения параметров прямой загрузки
	app.Get("/api/upload/params", s.GenerateUploadParams, middleware.AuthMiddleware(jwtService))
}
