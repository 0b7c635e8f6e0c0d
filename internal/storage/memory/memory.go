// Package memory содержит хранилище движка в памяти. Используется в
// тестах и для локальной разработки без Postgres. Транзакция здесь —
// это просто захват общего мьютекса: операции сериализуются целиком,
// отката при ошибке нет (мутации применяются по ходу fn)
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rajivgeraev/polesharing-api/internal/market"
	"github.com/rajivgeraev/polesharing-api/internal/models"
)

// Store — потокобезопасная обертка над state
type Store struct {
	mu sync.Mutex
	st state
}

// NewStore создает пустое хранилище в памяти
func NewStore() *Store {
	return &Store{
		st: state{
			items:        make(map[uuid.UUID]models.Item),
			reservations: make(map[uuid.UUID]models.Reservation),
			emails:       make(map[uuid.UUID]string),
		},
	}
}

// SeedUserEmail регистрирует email пользователя (для тестов и
// локальной разработки)
func (s *Store) SeedUserEmail(userID uuid.UUID, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.emails[userID] = email
}

// WithTx выполняет fn под общим мьютексом
func (s *Store) WithTx(ctx context.Context, fn func(market.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.st)
}

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateItem(ctx, item)
}

func (s *Store) ItemByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ItemByID(ctx, id)
}

func (s *Store) ItemByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ItemByIDForUpdate(ctx, id)
}

func (s *Store) UpdateItem(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateItem(ctx, item)
}

func (s *Store) IncrementItemViews(ctx context.Context, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.IncrementItemViews(ctx, id)
}

func (s *Store) ListItems(ctx context.Context, filter market.ItemFilter) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListItems(ctx, filter)
}

func (s *Store) CreateReservation(ctx context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateReservation(ctx, r)
}

func (s *Store) ReservationByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ReservationByID(ctx, id)
}

func (s *Store) ReservationByItem(ctx context.Context, itemID uuid.UUID) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ReservationByItem(ctx, itemID)
}

func (s *Store) DeleteReservation(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteReservation(ctx, id)
}

func (s *Store) DeleteReservationsByItem(ctx context.Context, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteReservationsByItem(ctx, itemID)
}

func (s *Store) ListReservationsByUser(ctx context.Context, userID uuid.UUID) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListReservationsByUser(ctx, userID)
}

func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateMessage(ctx, m)
}

func (s *Store) MessagesByItem(ctx context.Context, itemID uuid.UUID) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.MessagesByItem(ctx, itemID)
}

func (s *Store) MarkMessagesRead(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.MarkMessagesRead(ctx, ids)
}

func (s *Store) MessagesByUser(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.MessagesByUser(ctx, userID)
}

func (s *Store) UnreadMessagesByReceiver(ctx context.Context) (map[uuid.UUID][]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UnreadMessagesByReceiver(ctx)
}

func (s *Store) UserEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UserEmail(ctx, userID)
}

// state хранит данные без блокировок; вся синхронизация — в Store
type state struct {
	items        map[uuid.UUID]models.Item
	reservations map[uuid.UUID]models.Reservation
	messages     []models.Message // в порядке вставки
	emails       map[uuid.UUID]string
}

// WithTx внутри уже открытой транзакции просто выполняет fn
func (st *state) WithTx(ctx context.Context, fn func(market.Store) error) error {
	return fn(st)
}

func (st *state) CreateItem(ctx context.Context, item *models.Item) error {
	st.items[item.ID] = *item
	return nil
}

func (st *state) ItemByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item, ok := st.items[id]
	if !ok {
		return nil, market.ErrNotFound
	}
	return &item, nil
}

func (st *state) ItemByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return st.ItemByID(ctx, id)
}

func (st *state) UpdateItem(ctx context.Context, item *models.Item) error {
	if _, ok := st.items[item.ID]; !ok {
		return market.ErrNotFound
	}
	st.items[item.ID] = *item
	return nil
}

func (st *state) IncrementItemViews(ctx context.Context, id uuid.UUID) (int, error) {
	item, ok := st.items[id]
	if !ok {
		return 0, market.ErrNotFound
	}
	item.Views++
	st.items[id] = item
	return item.Views, nil
}

func (st *state) ListItems(ctx context.Context, filter market.ItemFilter) ([]models.Item, error) {
	var out []models.Item
	for _, item := range st.items {
		if filter.OwnerID != nil && item.OwnerID != *filter.OwnerID {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, s := range filter.Statuses {
				if item.Status == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, item)
	}

	// от новых к старым, как в публичной выдаче
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (st *state) CreateReservation(ctx context.Context, r *models.Reservation) error {
	st.reservations[r.ID] = *r
	return nil
}

func (st *state) ReservationByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	r, ok := st.reservations[id]
	if !ok {
		return nil, market.ErrNotFound
	}
	return &r, nil
}

func (st *state) ReservationByItem(ctx context.Context, itemID uuid.UUID) (*models.Reservation, error) {
	for _, r := range st.reservations {
		if r.ItemID == itemID {
			r := r
			return &r, nil
		}
	}
	return nil, market.ErrNotFound
}

func (st *state) DeleteReservation(ctx context.Context, id uuid.UUID) error {
	if _, ok := st.reservations[id]; !ok {
		return market.ErrNotFound
	}
	delete(st.reservations, id)
	return nil
}

func (st *state) DeleteReservationsByItem(ctx context.Context, itemID uuid.UUID) error {
	for id, r := range st.reservations {
		if r.ItemID == itemID {
			delete(st.reservations, id)
		}
	}
	return nil
}

func (st *state) ListReservationsByUser(ctx context.Context, userID uuid.UUID) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, r := range st.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (st *state) CreateMessage(ctx context.Context, m *models.Message) error {
	st.messages = append(st.messages, *m)
	return nil
}

func (st *state) MessagesByItem(ctx context.Context, itemID uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	for _, m := range st.messages {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	// хронологически; стабильная сортировка сохраняет порядок вставки
	// при равных временах
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (st *state) MarkMessagesRead(ctx context.Context, ids []string) error {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for i := range st.messages {
		if want[st.messages[i].ID] {
			st.messages[i].IsRead = true
		}
	}
	return nil
}

func (st *state) MessagesByUser(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	for _, m := range st.messages {
		if (m.SenderID != nil && *m.SenderID == userID) ||
			(m.ReceiverID != nil && *m.ReceiverID == userID) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (st *state) UnreadMessagesByReceiver(ctx context.Context) (map[uuid.UUID][]models.Message, error) {
	out := make(map[uuid.UUID][]models.Message)
	for _, m := range st.messages {
		if m.ReceiverID == nil || m.IsRead {
			continue
		}
		out[*m.ReceiverID] = append(out[*m.ReceiverID], m)
	}
	return out, nil
}

func (st *state) UserEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	email, ok := st.emails[userID]
	if !ok {
		return "", market.ErrNotFound
	}
	return email, nil
}
