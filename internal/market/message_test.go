package market

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageIDsDistinctAtSameInstant(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Одна метка времени — разные, возрастающие ID
	a := newMessageID(at)
	b := newMessageID(at)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func TestSendMessageIDsDistinctUnderFrozenClock(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	owner := uuid.New()
	buyer := uuid.New()

	item := createItem(t, e, owner)

	// Часы движка стоят: оба сообщения создаются в один момент,
	// ключи при этом не должны совпасть
	first, err := e.SendMessage(ctx, item.ID, buyer, "Первое", "")
	require.NoError(t, err)
	second, err := e.SendMessage(ctx, item.ID, buyer, "Второе", "")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	msgs, err := e.MessagesByUser(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}
