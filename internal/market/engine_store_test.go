package market

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/rajivgeraev/polesharing-api/internal/models"
)

// testStore — минимальное хранилище в памяти для тестов движка.
// Пакетное хранилище storage/memory отсюда не импортируется, чтобы не
// создавать цикл импортов
type testStore struct {
	items        map[uuid.UUID]models.Item
	reservations map[uuid.UUID]models.Reservation
	messages     []models.Message
	emails       map[uuid.UUID]string
}

func newTestStore() *testStore {
	return &testStore{
		items:        make(map[uuid.UUID]models.Item),
		reservations: make(map[uuid.UUID]models.Reservation),
		emails:       make(map[uuid.UUID]string),
	}
}

func (s *testStore) WithTx(ctx context.Context, fn func(Store) error) error {
	return fn(s)
}

func (s *testStore) CreateItem(ctx context.Context, item *models.Item) error {
	s.items[item.ID] = *item
	return nil
}

func (s *testStore) ItemByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (s *testStore) ItemByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return s.ItemByID(ctx, id)
}

func (s *testStore) UpdateItem(ctx context.Context, item *models.Item) error {
	if _, ok := s.items[item.ID]; !ok {
		return ErrNotFound
	}
	s.items[item.ID] = *item
	return nil
}

func (s *testStore) IncrementItemViews(ctx context.Context, id uuid.UUID) (int, error) {
	item, ok := s.items[id]
	if !ok {
		return 0, ErrNotFound
	}
	item.Views++
	s.items[id] = item
	return item.Views, nil
}

func (s *testStore) ListItems(ctx context.Context, filter ItemFilter) ([]models.Item, error) {
	var out []models.Item
	for _, item := range s.items {
		if filter.OwnerID != nil && item.OwnerID != *filter.OwnerID {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				if item.Status == st {
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

func (s *testStore) CreateReservation(ctx context.Context, r *models.Reservation) error {
	s.reservations[r.ID] = *r
	return nil
}

func (s *testStore) ReservationByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	r, ok := s.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *testStore) ReservationByItem(ctx context.Context, itemID uuid.UUID) (*models.Reservation, error) {
	for _, r := range s.reservations {
		if r.ItemID == itemID {
			r := r
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (s *testStore) DeleteReservation(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.reservations[id]; !ok {
		return ErrNotFound
	}
	delete(s.reservations, id)
	return nil
}

func (s *testStore) DeleteReservationsByItem(ctx context.Context, itemID uuid.UUID) error {
	for id, r := range s.reservations {
		if r.ItemID == itemID {
			delete(s.reservations, id)
		}
	}
	return nil
}

func (s *testStore) ListReservationsByUser(ctx context.Context, userID uuid.UUID) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, r := range s.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *testStore) CreateMessage(ctx context.Context, m *models.Message) error {
	s.messages = append(s.messages, *m)
	return nil
}

func (s *testStore) MessagesByItem(ctx context.Context, itemID uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	for _, m := range s.messages {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *testStore) MarkMessagesRead(ctx context.Context, ids []string) error {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for i := range s.messages {
		if want[s.messages[i].ID] {
			s.messages[i].IsRead = true
		}
	}
	return nil
}

func (s *testStore) MessagesByUser(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	for _, m := range s.messages {
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

func (s *testStore) UnreadMessagesByReceiver(ctx context.Context) (map[uuid.UUID][]models.Message, error) {
	out := make(map[uuid.UUID][]models.Message)
	for _, m := range s.messages {
		if m.ReceiverID == nil || m.IsRead {
			continue
		}
		out[*m.ReceiverID] = append(out[*m.ReceiverID], m)
	}
	return out, nil
}

func (s *testStore) UserEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	email, ok := s.emails[userID]
	if !ok {
		return "", ErrNotFound
	}
	return email, nil
}
