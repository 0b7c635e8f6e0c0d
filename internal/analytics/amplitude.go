// Package analytics отправляет события в Amplitude. Доставка —
// best-effort: ошибки логируются и глотаются на этой границе, операции
// движка от них не зависят
package analytics

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Client реализует market.EventSink поверх Amplitude HTTP API v2
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	// async=false используется в тестах, чтобы дождаться отправки
	async bool
}

// NewClient создает клиент Amplitude. Если apiKey пустой, события
// только логируются и никуда не отправляются
func NewClient(apiKey, endpoint string) *Client {
	return &Client{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		async:      true,
	}
}

// NewSyncClient создает клиент с синхронной отправкой (для тестов)
func NewSyncClient(apiKey, endpoint string) *Client {
	c := NewClient(apiKey, endpoint)
	c.async = false
	return c
}

type amplitudeEvent struct {
	UserID          string         `json:"user_id,omitempty"`
	EventType       string         `json:"event_type"`
	EventProperties map[string]any `json:"event_properties,omitempty"`
	Time            int64          `json:"time"`
}

type amplitudePayload struct {
	APIKey string           `json:"api_key"`
	Events []amplitudeEvent `json:"events"`
}

// Track отправляет событие. Не блокирует вызывающую операцию и
// никогда не возвращает ошибку наружу
func (c *Client) Track(event string, userID string, properties map[string]any) {
	if c.apiKey == "" {
		log.Printf("Событие аналитики (не отправлено): %s", event)
		return
	}

	payload := amplitudePayload{
		APIKey: c.apiKey,
		Events: []amplitudeEvent{{
			UserID:          userID,
			EventType:       event,
			EventProperties: properties,
			Time:            time.Now().UnixMilli(),
		}},
	}

	if c.async {
		go c.send(event, payload)
	} else {
		c.send(event, payload)
	}
}

func (c *Client) send(event string, payload amplitudePayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Ошибка сериализации события %s: %v", event, err)
		return
	}

	resp, err := c.httpClient.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("Ошибка отправки события %s: %v", event, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("Amplitude вернул статус %d для события %s", resp.StatusCode, event)
	}
}
