package auth

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"github.com/rajivgeraev/polesharing-api/internal/config"
	"github.com/rajivgeraev/polesharing-api/internal/db"
	"github.com/rajivgeraev/polesharing-api/internal/market"
	"github.com/rajivgeraev/polesharing-api/internal/utils"
)

// AuthService – структура для обработки авторизации
type AuthService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	sink       market.EventSink
}

// NewAuthService – конструктор AuthService
func NewAuthService(cfg *config.Config, sink market.EventSink) *AuthService {
	if sink == nil {
		sink = market.NopSink{}
	}
	return &AuthService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		sink:       sink,
	}
}

// TelegramAuthHandler проверяет initData, создает или обновляет
// пользователя и возвращает JWT
func (s *AuthService) TelegramAuthHandler(c fiber.Ctx) error {
	var payload struct {
		InitData string `json:"init_data"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	// Проверяем initData
	expiration := 24 * time.Hour
	if err := initdata.Validate(payload.InitData, s.cfg.TelegramBotToken, expiration); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid Telegram data"})
	}

	// Парсим данные
	data, err := initdata.Parse(payload.InitData)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to parse initData"})
	}

	rawData, _ := json.Marshal(data.User)

	user, created, err := db.CreateOrUpdateTelegramUser(
		data.User.ID,
		data.User.Username,
		data.User.FirstName,
		data.User.LastName,
		data.User.PhotoURL,
		data.User.IsPremium,
		data.User.LanguageCode,
		rawData,
	)
	if err != nil {
		log.Printf("❌ Ошибка сохранения пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save user"})
	}

	if created {
		s.sink.Track(market.EventUserRegistered, user.ID.String(), map[string]any{
			"telegram_id": data.User.ID,
		})
	}

	// Генерируем JWT
	jwtToken, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate JWT"})
	}

	return c.JSON(fiber.Map{
		"token": jwtToken,
		"user": fiber.Map{
			"id":         user.ID,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"username":   user.Username,
			"avatar_url": user.AvatarURL,
		},
	})
}
