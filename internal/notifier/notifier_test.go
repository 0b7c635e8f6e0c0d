package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/polesharing-api/internal/models"
	"github.com/rajivgeraev/polesharing-api/internal/storage/memory"
)

type fakeMailer struct {
	sent []sentMail
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func TestSendDigests(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	sender := uuid.New()
	withEmail := uuid.New()
	withoutEmail := uuid.New()
	store.SeedUserEmail(withEmail, "dancer@example.com")

	itemID := uuid.New()
	require.NoError(t, store.CreateMessage(ctx, &models.Message{
		ID: "m1", ItemID: itemID, SenderID: &sender, ReceiverID: &withEmail,
		Content: "Здравствуйте, актуально?", CreatedAt: time.Now(),
	}))
	require.NoError(t, store.CreateMessage(ctx, &models.Message{
		ID: "m2", ItemID: itemID, SenderID: &sender, ReceiverID: &withEmail,
		Content: "Могу забрать завтра", CreatedAt: time.Now(),
	}))
	// Пользователь без email письмо не получает
	require.NoError(t, store.CreateMessage(ctx, &models.Message{
		ID: "m3", ItemID: itemID, SenderID: &sender, ReceiverID: &withoutEmail,
		Content: "Без адреса", CreatedAt: time.Now(),
	}))
	// Прочитанное в дайджест не попадает
	require.NoError(t, store.CreateMessage(ctx, &models.Message{
		ID: "m4", ItemID: itemID, SenderID: &sender, ReceiverID: &withEmail,
		Content: "Уже прочитано", IsRead: true, CreatedAt: time.Now(),
	}))

	mailer := &fakeMailer{}
	n := New(store, mailer)

	require.NoError(t, n.SendDigests(ctx))

	require.Len(t, mailer.sent, 1)
	mail := mailer.sent[0]
	assert.Equal(t, "dancer@example.com", mail.to)
	assert.Contains(t, mail.body, "2 непрочитанных")
	assert.Contains(t, mail.body, "Здравствуйте, актуально?")
	assert.NotContains(t, mail.body, "Уже прочитано")
}

func TestSendDigestsNothingUnread(t *testing.T) {
	store := memory.NewStore()
	mailer := &fakeMailer{}
	n := New(store, mailer)

	require.NoError(t, n.SendDigests(context.Background()))
	assert.Empty(t, mailer.sent)
}
