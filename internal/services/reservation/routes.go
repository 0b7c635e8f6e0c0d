package reservation

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/polesharing-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API бронирований
func (s *ReservationService) SetupRoutes(app *fiber.App) {
	auth := middleware.AuthMiddleware(s.jwtService)

	// Бронирование привязано к товару
	app.Post("/api/items/:id/reserve", s.ReserveItem, auth)

	// Группа для API бронирований
	api := app.Group("/api/reservations")
	api.Use(auth)

	// Маршрут для списка своих бронирований
	api.Get("/my", s.GetMyReservations)

	// Маршрут для отмены брони
	api.Delete("/:id", s.CancelReservation)
}
