package ws

import (
	"log"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v3"
	"github.com/valyala/fasthttp"

	"github.com/rajivgeraev/polesharing-api/internal/utils"
)

// Handler апгрейдит HTTP-соединения в WebSocket
type Handler struct {
	manager    *Manager
	jwtService *utils.JWTService
	upgrader   websocket.FastHTTPUpgrader
}

// NewHandler создает Handler
func NewHandler(manager *Manager, jwtService *utils.JWTService) *Handler {
	return &Handler{
		manager:    manager,
		jwtService: jwtService,
		upgrader: websocket.FastHTTPUpgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(ctx *fasthttp.RequestCtx) bool { return true },
		},
	}
}

// SetupRoutes регистрирует WebSocket маршрут
func (h *Handler) SetupRoutes(app *fiber.App) {
	app.Get("/api/ws", h.Serve)
}

// Serve обслуживает WebSocket соединение. Токен передается query
// параметром, потому что браузерный WebSocket не умеет заголовки
func (h *Handler) Serve(c fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Токен не указан"})
	}

	userID, err := h.jwtService.ExtractUserID(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Невалидный токен"})
	}

	err = h.upgrader.Upgrade(c.RequestCtx(), func(conn *websocket.Conn) {
		client := NewClient(userID, conn, h.manager)
		client.Run()
	})
	if err != nil {
		log.Printf("Ошибка апгрейда WebSocket: %v", err)
		return err
	}
	return nil
}
