package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config структура конфигурации
type Config struct {
	TelegramBotToken string
	JWTSecret        string
	DatabaseURL      string
	DatabaseConfig   DatabaseConfig
	CloudinaryConfig CloudinaryConfig
	AmplitudeConfig  AmplitudeConfig
	SMTPConfig       SMTPConfig
	DigestInterval   time.Duration // периодичность рассылки о непрочитанных
	AppEnv           string
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// CloudinaryConfig содержит конфигурацию для Cloudinary
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
	UploadFolder string
}

// AmplitudeConfig содержит конфигурацию аналитики.
// Ключ передается сервисам явно при создании, глобального состояния нет
type AmplitudeConfig struct {
	APIKey   string
	Endpoint string
}

// SMTPConfig содержит конфигурацию почтовой рассылки
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// LoadConfig загружает переменные из .env
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "polesharing_user"),
		Password: getEnv("PGPASSWORD", "polesharing_pass"),
		Name:     getEnv("PGDATABASE", "polesharing"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
	}

	// Формируем строку подключения к базе данных
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)

	cloudinaryConfig := CloudinaryConfig{
		CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
		APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
		UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "polesharing"),
		UploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "items"),
	}

	amplitudeConfig := AmplitudeConfig{
		APIKey:   getEnv("AMPLITUDE_API_KEY", ""),
		Endpoint: getEnv("AMPLITUDE_ENDPOINT", "https://api2.amplitude.com/2/httpapi"),
	}

	smtpConfig := SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     getEnv("SMTP_PORT", "587"),
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "noreply@polesharing.app"),
	}

	digestInterval, err := time.ParseDuration(getEnv("DIGEST_INTERVAL", "1h"))
	if err != nil {
		log.Printf("⚠️ Неверный DIGEST_INTERVAL, используем 1h: %v", err)
		digestInterval = time.Hour
	}

	cfg := &Config{
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		DatabaseURL:      dbURL,
		DatabaseConfig:   dbConfig,
		CloudinaryConfig: cloudinaryConfig,
		AmplitudeConfig:  amplitudeConfig,
		SMTPConfig:       smtpConfig,
		DigestInterval:   digestInterval,
		AppEnv:           getEnv("APP_ENV", "production"),
	}

	if cfg.TelegramBotToken == "" || cfg.JWTSecret == "" {
		log.Fatal("❌ Ошибка: Не заданы обязательные переменные окружения")
	}

	return cfg
}

// getEnv получает переменную окружения или использует дефолтное значение
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
