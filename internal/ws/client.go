package ws

import (
	"log"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
)

const (
	// Максимальное время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping клиенту
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер сообщения от клиента
	maxMessageSize = 512 * 1024 // 512KB

	// Размер буфера для отправляемых сообщений
	writeBufferSize = 256
)

// Client представляет собой отдельное WebSocket соединение
type Client struct {
	ID      uuid.UUID
	UserID  string
	conn    *websocket.Conn
	send    chan []byte // Буферизованный канал исходящих сообщений
	manager *Manager
	done    chan struct{}
}

// NewClient создает новый экземпляр Client
func NewClient(userID string, conn *websocket.Conn, manager *Manager) *Client {
	return &Client{
		ID:      uuid.New(),
		UserID:  userID,
		conn:    conn,
		send:    make(chan []byte, writeBufferSize),
		manager: manager,
		done:    make(chan struct{}),
	}
}

// Run регистрирует клиента и обслуживает соединение до его закрытия.
// Блокирует вызывающую горутину (требование прокладки fasthttp)
func (c *Client) Run() {
	c.manager.AddClient(c)

	go c.writePump()
	c.readPump()
}

// readPump обрабатывает входящие сообщения от клиента
func (c *Client) readPump() {
	defer func() {
		c.manager.RemoveClient(c.ID)
		c.conn.Close()
		close(c.done)
	}()

	// Настраиваем соединение
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Клиент ничего не присылает по делу: сервер только пушит события.
	// Читаем, чтобы обрабатывать pong и видеть закрытие соединения
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Неожиданное закрытие соединения: %v", err)
			}
			break
		}
	}
}

// writePump отправляет сообщения клиенту
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Ошибка записи сообщения: %v", err)
				return
			}
		case <-ticker.C:
			// Ping для поддержания соединения
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
