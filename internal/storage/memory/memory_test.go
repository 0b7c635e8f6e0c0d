package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/polesharing-api/internal/market"
	"github.com/rajivgeraev/polesharing-api/internal/models"
)

func TestListItemsFilterAndPagination(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := uuid.New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	statuses := []models.ItemStatus{
		models.StatusActive,
		models.StatusReserved,
		models.StatusSold,
		models.StatusActive,
	}
	for i, status := range statuses {
		require.NoError(t, s.CreateItem(ctx, &models.Item{
			ID:        uuid.New(),
			OwnerID:   owner,
			Title:     "Товар",
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	// Публичный фильтр не отдает проданные
	items, err := s.ListItems(ctx, market.ItemFilter{
		Statuses: []models.ItemStatus{models.StatusActive, models.StatusReserved},
	})
	require.NoError(t, err)
	assert.Len(t, items, 3)
	for _, it := range items {
		assert.NotEqual(t, models.StatusSold, it.Status)
	}

	// От новых к старым
	assert.True(t, items[0].CreatedAt.After(items[1].CreatedAt))

	// Страницы
	page, err := s.ListItems(ctx, market.ItemFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = s.ListItems(ctx, market.ItemFilter{Limit: 2, Offset: 3})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	page, err = s.ListItems(ctx, market.ItemFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMessagesByItemKeepsInsertionOrder(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	itemID := uuid.New()
	sender := uuid.New()
	receiver := uuid.New()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Одинаковое время создания: порядок определяется вставкой
	for _, id := range []string{"01A", "01B", "01C"} {
		require.NoError(t, s.CreateMessage(ctx, &models.Message{
			ID:         id,
			ItemID:     itemID,
			SenderID:   &sender,
			ReceiverID: &receiver,
			CreatedAt:  at,
		}))
	}

	msgs, err := s.MessagesByItem(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "01A", msgs[0].ID)
	assert.Equal(t, "01B", msgs[1].ID)
	assert.Equal(t, "01C", msgs[2].ID)
}

func TestMarkMessagesRead(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	itemID := uuid.New()
	sender := uuid.New()
	receiver := uuid.New()

	for _, id := range []string{"m1", "m2"} {
		require.NoError(t, s.CreateMessage(ctx, &models.Message{
			ID:         id,
			ItemID:     itemID,
			SenderID:   &sender,
			ReceiverID: &receiver,
			CreatedAt:  time.Now(),
		}))
	}

	require.NoError(t, s.MarkMessagesRead(ctx, []string{"m1"}))

	msgs, err := s.MessagesByItem(ctx, itemID)
	require.NoError(t, err)
	assert.True(t, msgs[0].IsRead)
	assert.False(t, msgs[1].IsRead)
}

func TestUnreadMessagesByReceiver(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	itemID := uuid.New()
	sender := uuid.New()
	r1 := uuid.New()
	r2 := uuid.New()

	require.NoError(t, s.CreateMessage(ctx, &models.Message{
		ID: "m1", ItemID: itemID, SenderID: &sender, ReceiverID: &r1, CreatedAt: time.Now(),
	}))
	require.NoError(t, s.CreateMessage(ctx, &models.Message{
		ID: "m2", ItemID: itemID, SenderID: &sender, ReceiverID: &r2, IsRead: true, CreatedAt: time.Now(),
	}))
	// Системное сообщение без адресата в рассылку не попадает
	require.NoError(t, s.CreateMessage(ctx, &models.Message{
		ID: "m3", ItemID: itemID, IsSystem: true, CreatedAt: time.Now(),
	}))

	unread, err := s.UnreadMessagesByReceiver(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	require.Len(t, unread[r1], 1)
	assert.Equal(t, "m1", unread[r1][0].ID)
}

func TestWithTxSharesState(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	itemID := uuid.New()

	err := s.WithTx(ctx, func(st market.Store) error {
		if err := st.CreateItem(ctx, &models.Item{ID: itemID, Status: models.StatusActive}); err != nil {
			return err
		}
		// Вложенная транзакция видит те же данные
		return st.WithTx(ctx, func(inner market.Store) error {
			_, err := inner.ItemByID(ctx, itemID)
			return err
		})
	})
	require.NoError(t, err)

	item, err := s.ItemByID(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, item.Status)
}

func TestUserEmail(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	userID := uuid.New()

	_, err := s.UserEmail(ctx, userID)
	assert.ErrorIs(t, err, market.ErrNotFound)

	s.SeedUserEmail(userID, "dancer@example.com")

	email, err := s.UserEmail(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "dancer@example.com", email)
}
