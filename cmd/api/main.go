package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/rajivgeraev/polesharing-api/internal/analytics"
	"github.com/rajivgeraev/polesharing-api/internal/config"
	"github.com/rajivgeraev/polesharing-api/internal/db"
	"github.com/rajivgeraev/polesharing-api/internal/market"
	"github.com/rajivgeraev/polesharing-api/internal/notifier"
	"github.com/rajivgeraev/polesharing-api/internal/services/auth"
	"github.com/rajivgeraev/polesharing-api/internal/services/chat"
	"github.com/rajivgeraev/polesharing-api/internal/services/image"
	"github.com/rajivgeraev/polesharing-api/internal/services/item"
	"github.com/rajivgeraev/polesharing-api/internal/services/reservation"
	"github.com/rajivgeraev/polesharing-api/internal/storage/postgres"
	"github.com/rajivgeraev/polesharing-api/internal/ws"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	// Хранилище и аналитика
	store := postgres.NewStore(db.Pool)
	sink := analytics.NewClient(cfg.AmplitudeConfig.APIKey, cfg.AmplitudeConfig.Endpoint)
	engine := market.NewEngine(store, sink)

	// WebSocket-менеджер
	hub := ws.NewManager()
	defer hub.Shutdown()

	// Сервис изображений: без ключей Cloudinary работаем без конвертации
	imageService, err := image.NewService(cfg)
	if err != nil {
		log.Printf("⚠️ Cloudinary недоступен, конвертация изображений выключена: %v", err)
		imageService = nil
	}

	// Фоновая рассылка о непрочитанных сообщениях
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	digests := notifier.New(store, notifier.NewSMTPMailer(cfg.SMTPConfig))
	go digests.Run(ctx, cfg.DigestInterval)

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Polesharing API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Создаём сервисы
	authService := auth.NewAuthService(cfg, sink)
	jwtService := authService.GetJWTService()
	itemService := item.NewItemService(engine, hub, imageService, jwtService)
	reservationService := reservation.NewReservationService(engine, jwtService)
	chatService := chat.NewChatService(engine, hub, jwtService)
	wsHandler := ws.NewHandler(hub, jwtService)

	// Регистрируем маршруты. Публичная лента раньше остальных, чтобы
	// не попасть под авторизацию группы /api/items
	itemService.SetupPublicRoutes(app)
	authService.SetupRoutes(app)
	itemService.SetupRoutes(app)
	reservationService.SetupRoutes(app)
	chatService.SetupRoutes(app)
	wsHandler.SetupRoutes(app)
	if imageService != nil {
		imageService.SetupRoutes(app, jwtService)
	}

	// Запускаем сервер
	log.Println("✅ Polesharing API запущен на порту 8080")
	log.Fatal(app.Listen(":8080"))
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
