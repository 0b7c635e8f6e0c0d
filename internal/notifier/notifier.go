// Package notifier рассылает письма о непрочитанных сообщениях.
// Это внешняя периодическая задача: движок знает только про флаг
// прочтения, сама рассылка живет здесь
package notifier

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rajivgeraev/polesharing-api/internal/market"
)

// Mailer отправляет письмо получателю
type Mailer interface {
	Send(to, subject, body string) error
}

// Notifier периодически собирает непрочитанные сообщения по
// получателям и отправляет каждому одно письмо-дайджест
type Notifier struct {
	store  market.Store
	mailer Mailer
}

// New создает Notifier
func New(store market.Store, mailer Mailer) *Notifier {
	return &Notifier{store: store, mailer: mailer}
}

// Run запускает периодическую рассылку до отмены контекста
func (n *Notifier) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("✅ Рассылка о непрочитанных запущена, интервал %s", interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Рассылка о непрочитанных остановлена")
			return
		case <-ticker.C:
			if err := n.SendDigests(ctx); err != nil {
				log.Printf("Ошибка рассылки дайджеста: %v", err)
			}
		}
	}
}

// SendDigests отправляет дайджест каждому пользователю с
// непрочитанными сообщениями. Пользователи без email пропускаются
func (n *Notifier) SendDigests(ctx context.Context) error {
	byReceiver, err := n.store.UnreadMessagesByReceiver(ctx)
	if err != nil {
		return fmt.Errorf("ошибка запроса непрочитанных сообщений: %w", err)
	}

	for receiverID, msgs := range byReceiver {
		email, err := n.store.UserEmail(ctx, receiverID)
		if err != nil || email == "" {
			continue
		}

		subject := "У вас есть непрочитанные сообщения"
		body := fmt.Sprintf("У вас %d непрочитанных сообщений.\n\n", len(msgs))
		for _, m := range msgs {
			body += fmt.Sprintf("- %s\n", m.Content)
		}

		if err := n.mailer.Send(email, subject, body); err != nil {
			log.Printf("Ошибка отправки дайджеста на %s: %v", email, err)
		}
	}

	return nil
}
