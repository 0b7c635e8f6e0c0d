package market

// Названия событий аналитики
const (
	EventItemCreated          = "item_created"
	EventItemSold             = "item_sold"
	EventItemViewed           = "item_viewed"
	EventMessageSent          = "message_sent"
	EventFirstMessage         = "first_message_received"
	EventAirhallStatusChanged = "airhall_status_changed"
	EventUserRegistered       = "user_registered"
)

// EventSink принимает события аналитики. Доставка — best-effort:
// сбой отправки никогда не влияет на исход вызвавшей операции
type EventSink interface {
	Track(event string, userID string, properties map[string]any)
}

// NopSink — заглушка, отбрасывающая все события
type NopSink struct{}

// Track ничего не делает
func (NopSink) Track(event string, userID string, properties map[string]any) {}
