package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// User представляет пользователя в системе
type User struct {
	ID          uuid.UUID
	Username    string
	FirstName   string
	LastName    string
	Email       string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt time.Time
	IsActive    bool
}

// TelegramUser представляет данные пользователя из Telegram
type TelegramUser struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	TelegramID   int64
	Username     string
	FirstName    string
	LastName     string
	PhotoURL     string
	IsPremium    bool
	LanguageCode string
	RawData      []byte // JSONB данные
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateOrUpdateTelegramUser создает нового пользователя через Telegram или
// обновляет существующего. Второе возвращаемое значение — true, если
// пользователь был создан впервые (для события регистрации)
func CreateOrUpdateTelegramUser(telegramID int64, username, firstName, lastName, photoURL string,
	isPremium bool, languageCode string, rawData []byte) (*User, bool, error) {
	ctx, cancel := GetContext()
	defer cancel()

	// Начинаем транзакцию
	tx, err := Pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Проверяем, существует ли пользователь Telegram
	var telegramUserID uuid.UUID
	var userID uuid.UUID
	created := false

	err = tx.QueryRow(ctx, `
		SELECT id, user_id FROM telegram_users WHERE telegram_id = $1
	`, telegramID).Scan(&telegramUserID, &userID)
	if err != nil && err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("ошибка при проверке существования пользователя Telegram: %w", err)
	}

	if err == pgx.ErrNoRows {
		// Создаем запись в users
		err = tx.QueryRow(ctx, `
			INSERT INTO users (first_name, last_name, username, avatar_url, last_login_at)
			VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
			RETURNING id
		`, firstName, lastName, username, photoURL).Scan(&userID)
		if err != nil {
			return nil, false, fmt.Errorf("ошибка при создании пользователя: %w", err)
		}

		// Создаем запись в telegram_users
		err = tx.QueryRow(ctx, `
			INSERT INTO telegram_users (user_id, telegram_id, username, first_name, last_name, photo_url, is_premium, language_code, raw_data)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`, userID, telegramID, username, firstName, lastName, photoURL, isPremium, languageCode, rawData).Scan(&telegramUserID)
		if err != nil {
			return nil, false, fmt.Errorf("ошибка при создании Telegram пользователя: %w", err)
		}

		created = true
	} else {
		// Обновляем last_login_at и данные Telegram
		_, err = tx.Exec(ctx, `
			UPDATE users
			SET last_login_at = CURRENT_TIMESTAMP
			WHERE id = $1
		`, userID)
		if err != nil {
			return nil, false, fmt.Errorf("ошибка при обновлении времени входа пользователя: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE telegram_users
			SET username = $1, first_name = $2, last_name = $3, photo_url = $4,
				is_premium = $5, language_code = $6, raw_data = $7, updated_at = CURRENT_TIMESTAMP
			WHERE id = $8
		`, username, firstName, lastName, photoURL, isPremium, languageCode, rawData, telegramUserID)
		if err != nil {
			return nil, false, fmt.Errorf("ошибка при обновлении Telegram пользователя: %w", err)
		}
	}

	// Получаем пользователя
	user, err := getUserByID(ctx, tx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	// Фиксируем транзакцию
	if err = tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return user, created, nil
}

// getUserByID получает пользователя по ID внутри транзакции
func getUserByID(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*User, error) {
	var user User
	var username, firstName, lastName, email, avatarURL pgtype.Text

	err := tx.QueryRow(ctx, `
		SELECT id, username, first_name, last_name, email, avatar_url,
			   created_at, updated_at, last_login_at, is_active
		FROM users WHERE id = $1
	`, userID).Scan(
		&user.ID, &username, &firstName, &lastName, &email, &avatarURL,
		&user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt, &user.IsActive,
	)
	if err != nil {
		return nil, err
	}

	// Преобразуем nullable поля
	if username.Valid {
		user.Username = username.String
	}
	if firstName.Valid {
		user.FirstName = firstName.String
	}
	if lastName.Valid {
		user.LastName = lastName.String
	}
	if email.Valid {
		user.Email = email.String
	}
	if avatarURL.Valid {
		user.AvatarURL = avatarURL.String
	}

	return &user, nil
}

// GetUserByID получает пользователя по ID (публичная версия)
func GetUserByID(userID uuid.UUID) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	tx, err := Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	user, err := getUserByID(ctx, tx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("пользователь не найден")
		}
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return user, nil
}
