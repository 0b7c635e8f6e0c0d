// Package ws — realtime-уведомления о переписке по товарам
package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager представляет центральный менеджер для всех WebSocket соединений
type Manager struct {
	clients      map[uuid.UUID]*Client
	clientsMutex sync.RWMutex
	userClients  map[string]map[uuid.UUID]bool // userID -> map[clientID]bool
	userMutex    sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
}

// EventType определяет тип события WebSocket
type EventType string

const (
	EventNewMessage   EventType = "new_message"
	EventMessageRead  EventType = "message_read"
	EventUnreadCount  EventType = "unread_count"
	EventConnected    EventType = "connected"
	EventDisconnected EventType = "disconnected"
)

// Event представляет структуру сообщения для WebSocket.
// Переписка идентифицируется товаром: отдельного ID диалога нет
type Event struct {
	Type      EventType       `json:"type"`
	ItemID    string          `json:"item_id,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewManager создает новый экземпляр Manager
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[string]map[uuid.UUID]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// AddClient регистрирует нового клиента
func (m *Manager) AddClient(client *Client) {
	m.clientsMutex.Lock()
	m.clients[client.ID] = client
	m.clientsMutex.Unlock()

	// Связываем клиент с пользователем
	m.userMutex.Lock()
	if _, exists := m.userClients[client.UserID]; !exists {
		m.userClients[client.UserID] = make(map[uuid.UUID]bool)
	}
	m.userClients[client.UserID][client.ID] = true
	m.userMutex.Unlock()

	log.Printf("WebSocket клиент %s подключен для пользователя %s", client.ID, client.UserID)
}

// RemoveClient удаляет клиента
func (m *Manager) RemoveClient(clientID uuid.UUID) {
	m.clientsMutex.RLock()
	client, exists := m.clients[clientID]
	m.clientsMutex.RUnlock()

	if !exists {
		return
	}

	userID := client.UserID

	// Удаляем клиент из связи с пользователем
	m.userMutex.Lock()
	if clients, ok := m.userClients[userID]; ok {
		delete(clients, clientID)
		if len(clients) == 0 {
			delete(m.userClients, userID)
		}
	}
	m.userMutex.Unlock()

	// Удаляем клиент из общего списка
	m.clientsMutex.Lock()
	delete(m.clients, clientID)
	m.clientsMutex.Unlock()

	log.Printf("WebSocket клиент %s отключен для пользователя %s", clientID, userID)
}

// SendToUser отправляет событие всем соединениям конкретного пользователя.
// Отправка best-effort: если пользователь не в сети, событие пропадает —
// сообщение все равно сохранено в БД
func (m *Manager) SendToUser(userID string, event Event) {
	if userID == "" {
		return
	}

	m.userMutex.RLock()
	clientIDs, exists := m.userClients[userID]
	m.userMutex.RUnlock()

	if !exists || len(clientIDs) == 0 {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("Ошибка сериализации события: %v", err)
		return
	}

	for clientID := range clientIDs {
		m.clientsMutex.RLock()
		client, exists := m.clients[clientID]
		m.clientsMutex.RUnlock()

		if !exists {
			continue
		}

		// Отправляем в неблокирующем режиме через горутину
		go func(c *Client) {
			select {
			case c.send <- eventJSON:
			default:
				// Канал заполнен, клиент слишком медленный — закрываем соединение
				log.Printf("Канал отправки переполнен для клиента %s, закрываем соединение", c.ID)
				c.conn.Close()
				m.RemoveClient(c.ID)
			}
		}(client)
	}
}

// NotifyUnreadCount отправляет пользователю число непрочитанных сообщений
func (m *Manager) NotifyUnreadCount(userID string, unread int) {
	payload, _ := json.Marshal(map[string]int{"count": unread})

	m.SendToUser(userID, Event{
		Type:      EventUnreadCount,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// Shutdown корректно завершает работу менеджера WebSocket
func (m *Manager) Shutdown() {
	m.cancel()

	m.clientsMutex.Lock()
	for _, client := range m.clients {
		client.conn.Close()
	}
	m.clients = make(map[uuid.UUID]*Client)
	m.clientsMutex.Unlock()

	m.userMutex.Lock()
	m.userClients = make(map[string]map[uuid.UUID]bool)
	m.userMutex.Unlock()
}
