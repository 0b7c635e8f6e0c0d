package item

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/polesharing-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API товаров
func (s *ItemService) SetupRoutes(app *fiber.App) {
	// Группа для API товаров
	api := app.Group("/api/items")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для создания товара
	api.Post("/create", s.CreateItem)

	// Маршрут для получения списка своих товаров
	api.Get("/my", s.GetMyItems)

	// Маршрут для карточки товара (с перепиской и учетом просмотра)
	api.Get("/:id", s.GetItem)

	// Маршрут для обновления товара
	api.Put("/:id", s.UpdateItem)

	// Маршрут для отметки о продаже
	api.Post("/:id/sold", s.MarkSold)

	// Маршрут для витрины Airhall
	api.Post("/:id/airhall", s.ToggleAirhall)
}

// SetupPublicRoutes настраивает публичные маршруты для товаров
func (s *ItemService) SetupPublicRoutes(app *fiber.App) {
	// Публичная лента: только активные и забронированные товары
	app.Get("/api/items", s.GetPublicItems)
}
