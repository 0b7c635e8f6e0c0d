package market

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/polesharing-api/internal/models"
)

func TestCounterpartForBuyer(t *testing.T) {
	owner := uuid.New()
	buyer := uuid.New()
	item := &models.Item{ID: uuid.New(), OwnerID: owner}

	// Покупатель пишет владельцу даже в пустой переписке
	got, ok := Counterpart(item, buyer, nil)
	assert.True(t, ok)
	assert.Equal(t, owner, got)
}

func TestCounterpartForOwner(t *testing.T) {
	owner := uuid.New()
	b1 := uuid.New()
	b2 := uuid.New()
	item := &models.Item{ID: uuid.New(), OwnerID: owner}

	// Покупатели еще не писали — собеседника нет
	_, ok := Counterpart(item, owner, nil)
	assert.False(t, ok)

	msgs := []models.Message{
		msg(item.ID, &b1, &owner, 1),
	}
	got, ok := Counterpart(item, owner, msgs)
	require.True(t, ok)
	assert.Equal(t, b1, got)

	// Владелец ответил — собеседник не меняется
	msgs = append(msgs, msg(item.ID, &owner, &b1, 2))
	got, ok = Counterpart(item, owner, msgs)
	require.True(t, ok)
	assert.Equal(t, b1, got)

	// Написал второй покупатель — переписка владельца переключается
	// на него целиком
	msgs = append(msgs, msg(item.ID, &b2, &owner, 3))
	got, ok = Counterpart(item, owner, msgs)
	require.True(t, ok)
	assert.Equal(t, b2, got)
}

func TestCounterpartSkipsSystemMessages(t *testing.T) {
	owner := uuid.New()
	b1 := uuid.New()
	item := &models.Item{ID: uuid.New(), OwnerID: owner}

	system := msg(item.ID, nil, &owner, 2)
	system.IsSystem = true

	msgs := []models.Message{
		msg(item.ID, &b1, &owner, 1),
		system,
	}
	got, ok := Counterpart(item, owner, msgs)
	require.True(t, ok)
	assert.Equal(t, b1, got)
}

func TestVisibleMessagesPairIsolation(t *testing.T) {
	owner := uuid.New()
	b1 := uuid.New()
	b2 := uuid.New()
	item := &models.Item{ID: uuid.New(), OwnerID: owner}

	msgs := []models.Message{
		msg(item.ID, &b1, &owner, 1),
		msg(item.ID, &owner, &b1, 2),
		msg(item.ID, &b2, &owner, 3),
	}

	// B1 видит только свою переписку с владельцем
	visible := VisibleMessages(item, b1, owner, msgs)
	require.Len(t, visible, 2)
	assert.Equal(t, b1, *visible[0].SenderID)
	assert.Equal(t, owner, *visible[1].SenderID)

	// Владелец с собеседником B2 не видит ветку B1
	visible = VisibleMessages(item, owner, b2, msgs)
	require.Len(t, visible, 1)
	assert.Equal(t, b2, *visible[0].SenderID)
}

func TestVisibleMessagesSystemOnlyForOwner(t *testing.T) {
	owner := uuid.New()
	b1 := uuid.New()
	item := &models.Item{ID: uuid.New(), OwnerID: owner}

	system := msg(item.ID, nil, nil, 1)
	system.IsSystem = true
	msgs := []models.Message{system}

	assert.Len(t, VisibleMessages(item, owner, b1, msgs), 1)
	assert.Empty(t, VisibleMessages(item, b1, owner, msgs))
}

func TestResolveConversationSwitchesToLatestBuyer(t *testing.T) {
	e, _, clk := newTestEngine(t)
	ctx := context.Background()
	owner := uuid.New()
	b1 := uuid.New()
	b2 := uuid.New()

	item := createItem(t, e, owner)

	// B1 пишет, владелец отвечает, затем пишет B2
	_, err := e.SendMessage(ctx, item.ID, b1, "Здравствуйте, актуально?", "")
	require.NoError(t, err)
	clk.advance(time.Minute)
	_, err = e.SendMessage(ctx, item.ID, owner, "Да, актуально", "")
	require.NoError(t, err)
	clk.advance(time.Minute)
	_, err = e.SendMessage(ctx, item.ID, b2, "Еще продаете?", "")
	require.NoError(t, err)

	conv, err := e.ResolveConversation(ctx, item.ID, owner)
	require.NoError(t, err)
	require.NotNil(t, conv.Counterpart)
	assert.Equal(t, b2, *conv.Counterpart)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "Еще продаете?", conv.Messages[0].Content)

	// Ветка B1 для владельца пропала, но сам B1 свою переписку видит
	conv, err = e.ResolveConversation(ctx, item.ID, b1)
	require.NoError(t, err)
	require.NotNil(t, conv.Counterpart)
	assert.Equal(t, owner, *conv.Counterpart)
	assert.Len(t, conv.Messages, 2)

	// B2 видит только собственное сообщение, чужая ветка ему не видна
	conv, err = e.ResolveConversation(ctx, item.ID, b2)
	require.NoError(t, err)
	require.NotNil(t, conv.Counterpart)
	assert.Equal(t, owner, *conv.Counterpart)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "Еще продаете?", conv.Messages[0].Content)
}

func TestResolveConversationOwnerColdStart(t *testing.T) {
	e, _, _ := newTestEngine(t)
	owner := uuid.New()

	item := createItem(t, e, owner)

	// Покупатели не писали: переписка пустая, это не ошибка
	conv, err := e.ResolveConversation(context.Background(), item.ID, owner)
	require.NoError(t, err)
	assert.Nil(t, conv.Counterpart)
	assert.Empty(t, conv.Messages)
}

func TestResolveConversationMarksRead(t *testing.T) {
	e, _, clk := newTestEngine(t)
	ctx := context.Background()
	owner := uuid.New()
	buyer := uuid.New()

	item := createItem(t, e, owner)

	sent, err := e.SendMessage(ctx, item.ID, buyer, "Привет", "")
	require.NoError(t, err)
	clk.advance(time.Second)

	// Владелец открыл переписку — входящее помечено прочитанным
	conv, err := e.ResolveConversation(ctx, item.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{sent.ID}, conv.MarkedRead)
	require.Len(t, conv.Messages, 1)
	assert.True(t, conv.Messages[0].IsRead)

	// Повторное открытие ничего не помечает
	conv, err = e.ResolveConversation(ctx, item.ID, owner)
	require.NoError(t, err)
	assert.Empty(t, conv.MarkedRead)
}

func TestSendMessage(t *testing.T) {
	e, sink, _ := newTestEngine(t)
	ctx := context.Background()
	owner := uuid.New()
	buyer := uuid.New()

	item := createItem(t, e, owner)

	// Владелец не может начать переписку первым
	_, err := e.SendMessage(ctx, item.ID, owner, "Купите кто-нибудь", "")
	assert.ErrorIs(t, err, ErrNoCounterpart)

	first, err := e.SendMessage(ctx, item.ID, buyer, "Здравствуйте!", "")
	require.NoError(t, err)
	require.NotNil(t, first.ReceiverID)
	assert.Equal(t, owner, *first.ReceiverID)
	assert.False(t, first.IsRead)

	// Первое сообщение по товару дает отдельное событие
	assert.Contains(t, sink.names(), EventMessageSent)
	assert.Contains(t, sink.names(), EventFirstMessage)

	// Ответ владельца уходит покупателю, события first больше нет
	reply, err := e.SendMessage(ctx, item.ID, owner, "Добрый день", "")
	require.NoError(t, err)
	assert.Equal(t, buyer, *reply.ReceiverID)

	count := 0
	for _, name := range sink.names() {
		if name == EventFirstMessage {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestMessagesByUser(t *testing.T) {
	e, _, clk := newTestEngine(t)
	ctx := context.Background()
	owner := uuid.New()
	buyer := uuid.New()

	item := createItem(t, e, owner)

	_, err := e.SendMessage(ctx, item.ID, buyer, "Первое", "")
	require.NoError(t, err)
	clk.advance(time.Minute)
	_, err = e.SendMessage(ctx, item.ID, owner, "Второе", "")
	require.NoError(t, err)

	msgs, err := e.MessagesByUser(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	// От новых к старым
	assert.Equal(t, "Второе", msgs[0].Content)
}

// msg — вспомогательный конструктор сообщения с возрастающим временем
func msg(itemID uuid.UUID, sender, receiver *uuid.UUID, minute int) models.Message {
	return models.Message{
		ID:         newMessageID(time.Date(2025, 6, 1, 12, minute, 0, 0, time.UTC)),
		ItemID:     itemID,
		SenderID:   sender,
		ReceiverID: receiver,
		CreatedAt:  time.Date(2025, 6, 1, 12, minute, 0, 0, time.UTC),
	}
}
