package image

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/polesharing-api/internal/config"
)

// Service предоставляет методы для работы с изображениями в Cloudinary
type Service struct {
	cfg          *config.Config
	cld          *cloudinary.Cloudinary
	uploadFolder string
	uploadPreset string
}

// NewService создает новый экземпляр Service
func NewService(cfg *config.Config) (*Service, error) {
	cld, err := cloudinary.NewFromParams(
		cfg.CloudinaryConfig.CloudName,
		cfg.CloudinaryConfig.APIKey,
		cfg.CloudinaryConfig.APISecret,
	)
	if err != nil {
		return nil, fmt.Errorf("инициализация Cloudinary: %w", err)
	}

	return &Service{
		cfg:          cfg,
		cld:          cld,
		uploadFolder: cfg.CloudinaryConfig.UploadFolder,
		uploadPreset: cfg.CloudinaryConfig.UploadPreset,
	}, nil
}

// NeedsNormalization сообщает, нужно ли приводить изображение к JPEG.
// iOS отдает фотографии в HEIC, который не открывается в браузерах
func NeedsNormalization(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".heic")
}

// NormalizeImage перезагружает изображение в Cloudinary с конвертацией
// в JPEG и возвращает новую ссылку
func (s *Service) NormalizeImage(ctx context.Context, sourceURL string) (string, error) {
	resp, err := s.cld.Upload.Upload(ctx, sourceURL, uploader.UploadParams{
		Folder: s.uploadFolder,
		Format: "jpg",
	})
	if err != nil {
		return "", fmt.Errorf("конвертация изображения: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("конвертация изображения: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// GenerateSignature создаёт корректную подпись для Cloudinary
func (s *Service) GenerateSignature(params map[string]string) string {
	// Сортируем ключи параметров
	var keys []string
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Формируем строку для подписи
	var signParts []string
	for _, k := range keys {
		signParts = append(signParts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	signatureString := strings.Join(signParts, "&")

	// Добавляем API-секрет в конец строки
	signatureString += s.cfg.CloudinaryConfig.APISecret

	// Создаем SHA-1 хеш
	h := sha1.New()
	h.Write([]byte(signatureString))

	// Возвращаем подпись в виде шестнадцатеричной строки
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateUploadParams создаёт параметры для прямой загрузки изображений
func (s *Service) GenerateUploadParams(c fiber.Ctx) error {
	// Генерируем ID для товара, если не передан
	itemID := c.Query("item_id")
	if itemID == "" {
		itemID = uuid.New().String()
	}

	// Текущий timestamp
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	// Параметры для подписи
	params := map[string]string{
		"timestamp": timestamp,
	}

	// Генерируем подпись
	signature := s.GenerateSignature(params)

	// Возвращаем параметры
	return c.JSON(fiber.Map{
		"timestamp":  timestamp,
		"signature":  signature,
		"api_key":    s.cfg.CloudinaryConfig.APIKey,
		"cloud_name": s.cfg.CloudinaryConfig.CloudName,
		"item_id":    itemID,
	})
}
