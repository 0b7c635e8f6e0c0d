package market

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/rajivgeraev/polesharing-api/internal/models"
)

// Общий монотонный источник энтропии для ULID: сообщения с одинаковой
// меткой времени получают разные, строго возрастающие ID
var (
	msgEntropyMu sync.Mutex
	msgEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// newMessageID создает ULID для сообщения: лексикографический порядок
// ID совпадает с хронологическим
func newMessageID(t time.Time) string {
	msgEntropyMu.Lock()
	defer msgEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), msgEntropy).String()
}

// SendMessage отправляет сообщение по товару. Получатель не
// указывается явно, а выводится тем же правилом, что и собеседник в
// переписке: покупатель пишет владельцу, владелец отвечает автору
// последнего чужого сообщения. Владелец не может начать переписку
// первым — если покупатели еще не писали, возвращается
// ErrNoCounterpart
func (e *Engine) SendMessage(ctx context.Context, itemID, sender uuid.UUID, content, imageURL string) (*models.Message, error) {
	var created *models.Message
	var first bool

	err := e.store.WithTx(ctx, func(st Store) error {
		item, err := st.ItemByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		msgs, err := st.MessagesByItem(ctx, itemID)
		if err != nil {
			return err
		}

		receiver, ok := Counterpart(item, sender, msgs)
		if !ok {
			return ErrNoCounterpart
		}

		first = len(msgs) == 0

		now := e.now()
		senderID, receiverID := sender, receiver
		m := &models.Message{
			ID:         newMessageID(now),
			ItemID:     itemID,
			SenderID:   &senderID,
			ReceiverID: &receiverID,
			Content:    content,
			ImageURL:   imageURL,
			IsRead:     false,
			IsSystem:   false,
			CreatedAt:  now,
		}
		if err := st.CreateMessage(ctx, m); err != nil {
			return err
		}

		created = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.sink.Track(EventMessageSent, sender.String(), map[string]any{
		"item_id":        itemID.String(),
		"receiver_id":    created.ReceiverID.String(),
		"message_length": len(created.Content),
		"has_image":      created.ImageURL != "",
	})
	if first {
		e.sink.Track(EventFirstMessage, sender.String(), map[string]any{
			"item_id":   itemID.String(),
			"sender_id": sender.String(),
		})
	}

	return created, nil
}

// MessagesByUser возвращает все сообщения, где пользователь является
// отправителем или получателем, от новых к старым
func (e *Engine) MessagesByUser(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	return e.store.MessagesByUser(ctx, userID)
}
