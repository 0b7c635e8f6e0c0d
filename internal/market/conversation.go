package market

import (
	"context"

	"github.com/google/uuid"

	"github.com/rajivgeraev/polesharing-api/internal/models"
)

// Conversation — разрешенная переписка для пары (товар, зритель)
type Conversation struct {
	ItemID      uuid.UUID        `json:"item_id"`
	Counterpart *uuid.UUID       `json:"counterpart,omitempty"`
	Messages    []models.Message `json:"messages"`

	// MarkedRead — ID сообщений, помеченных прочитанными при этом
	// разрешении (для уведомления отправителя)
	MarkedRead []string `json:"-"`
}

// Counterpart вычисляет собеседника зрителя по товару.
//
// Покупатель всегда разговаривает с владельцем. Владелец разговаривает
// с автором самого свежего чужого сообщения: если после покупателя B1
// напишет покупатель B2, переписка владельца целиком переключается на
// B2, и ветка B1 для владельца пропадает. Это осознанное поведение:
// у владельца одна активная переписка на товар, а не входящие от всех
// покупателей. Если покупатели еще не писали, собеседника нет.
//
// msgs должны быть отсортированы хронологически (порядок вставки
// разрешает равные времена)
func Counterpart(item *models.Item, viewer uuid.UUID, msgs []models.Message) (uuid.UUID, bool) {
	if viewer != item.OwnerID {
		return item.OwnerID, true
	}

	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.IsSystem || m.SenderID == nil {
			continue
		}
		if *m.SenderID != item.OwnerID {
			return *m.SenderID, true
		}
	}

	return uuid.Nil, false
}

// VisibleMessages отбирает из msgs сообщения, которые зритель вправе
// видеть: только переписку пары {viewer, counterpart}. Системные
// сообщения и сообщения без адресата показываются только владельцу.
// Порядок msgs сохраняется
func VisibleMessages(item *models.Item, viewer, counterpart uuid.UUID, msgs []models.Message) []models.Message {
	var visible []models.Message
	for _, m := range msgs {
		if m.IsSystem || m.SenderID == nil || m.ReceiverID == nil {
			if viewer == item.OwnerID {
				visible = append(visible, m)
			}
			continue
		}

		sender, receiver := *m.SenderID, *m.ReceiverID
		if (sender == viewer && receiver == counterpart) ||
			(sender == counterpart && receiver == viewer) {
			visible = append(visible, m)
		}
	}
	return visible
}

// ResolveConversation вычисляет переписку зрителя по товару и в той же
// транзакции помечает прочитанными все видимые входящие сообщения
// зрителя. Если зритель — владелец и покупатели еще не писали,
// возвращается переписка без собеседника и сообщений (это не ошибка)
func (e *Engine) ResolveConversation(ctx context.Context, itemID, viewer uuid.UUID) (*Conversation, error) {
	var conv *Conversation

	err := e.store.WithTx(ctx, func(st Store) error {
		item, err := st.ItemByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		msgs, err := st.MessagesByItem(ctx, itemID)
		if err != nil {
			return err
		}

		counterpart, ok := Counterpart(item, viewer, msgs)
		if !ok {
			conv = &Conversation{ItemID: itemID}
			return nil
		}

		visible := VisibleMessages(item, viewer, counterpart, msgs)

		var unreadIDs []string
		for i := range visible {
			m := &visible[i]
			if m.ReceiverID != nil && *m.ReceiverID == viewer && !m.IsRead {
				unreadIDs = append(unreadIDs, m.ID)
				m.IsRead = true
			}
		}

		if len(unreadIDs) > 0 {
			if err := st.MarkMessagesRead(ctx, unreadIDs); err != nil {
				return err
			}
		}

		conv = &Conversation{
			ItemID:      itemID,
			Counterpart: &counterpart,
			Messages:    visible,
			MarkedRead:  unreadIDs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return conv, nil
}
