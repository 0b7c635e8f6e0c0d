package analytics

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackSendsEvent(t *testing.T) {
	var got amplitudePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewSyncClient("test-key", srv.URL)
	c.Track("item_created", "user-1", map[string]any{"price": 3500.0})

	assert.Equal(t, "test-key", got.APIKey)
	require.Len(t, got.Events, 1)
	assert.Equal(t, "item_created", got.Events[0].EventType)
	assert.Equal(t, "user-1", got.Events[0].UserID)
	assert.Equal(t, 3500.0, got.Events[0].EventProperties["price"])
	assert.NotZero(t, got.Events[0].Time)
}

func TestTrackWithoutKeyDoesNothing(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewSyncClient("", srv.URL)
	c.Track("item_created", "user-1", nil)

	assert.False(t, called)
}

func TestTrackSurvivesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewSyncClient("test-key", srv.URL)
	// Ошибка доставки не должна ронять вызывающий код
	c.Track("item_viewed", "user-1", nil)
}
