package market

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/polesharing-api/internal/models"
)

// Engine реализует правила маркетплейса: жизненный цикл товара,
// бронирования, маршрутизацию сообщений и счетчик просмотров.
// Каждая операция выполняется как одна транзакция хранилища
type Engine struct {
	store Store
	sink  EventSink
	now   func() time.Time
}

// NewEngine создает новый экземпляр Engine
func NewEngine(store Store, sink EventSink) *Engine {
	if sink == nil {
		sink = NopSink{}
	}
	return &Engine{
		store: store,
		sink:  sink,
		now:   time.Now,
	}
}

// CreateItemInput — данные для создания товара
type CreateItemInput struct {
	OwnerID     uuid.UUID
	Title       string
	Description string
	Price       float64
	ImageURL    string
}

// CreateItem создает новый товар в статусе active
func (e *Engine) CreateItem(ctx context.Context, in CreateItemInput) (*models.Item, error) {
	now := e.now()
	item := &models.Item{
		ID:          uuid.New(),
		OwnerID:     in.OwnerID,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		Status:      models.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := e.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	e.sink.Track(EventItemCreated, in.OwnerID.String(), map[string]any{
		"item_id":   item.ID.String(),
		"title":     item.Title,
		"price":     item.Price,
		"seller_id": in.OwnerID.String(),
	})

	return item, nil
}

// Item возвращает товар по ID
func (e *Engine) Item(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return e.store.ItemByID(ctx, id)
}

// ListPublic возвращает товары для публичной выдачи: только active и
// reserved, проданные не показываются никогда
func (e *Engine) ListPublic(ctx context.Context, limit, offset int) ([]models.Item, error) {
	return e.store.ListItems(ctx, ItemFilter{
		Statuses: []models.ItemStatus{models.StatusActive, models.StatusReserved},
		Limit:    limit,
		Offset:   offset,
	})
}

// ItemsByOwner возвращает все товары владельца, включая проданные
func (e *Engine) ItemsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Item, error) {
	return e.store.ListItems(ctx, ItemFilter{OwnerID: &ownerID})
}

// UpdateItemInput — изменяемые поля товара. nil означает "не трогать"
type UpdateItemInput struct {
	Title           *string
	Description     *string
	Price           *float64
	ImageURL        *string
	AirhallImageURL *string
	AirhallLocation *string
}

// UpdateItem изменяет товар. Разрешено только владельцу. Если товар
// находится в Airhall, после изменения у него по-прежнему должно быть
// изображение для витрины — иначе ErrInvalidState и никакая часть
// изменений не применяется
func (e *Engine) UpdateItem(ctx context.Context, itemID, actor uuid.UUID, in UpdateItemInput) (*models.Item, error) {
	var updated *models.Item

	err := e.store.WithTx(ctx, func(st Store) error {
		item, err := st.ItemByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item.OwnerID != actor {
			return ErrPermissionDenied
		}

		if in.Title != nil {
			item.Title = *in.Title
		}
		if in.Description != nil {
			item.Description = *in.Description
		}
		if in.Price != nil {
			item.Price = *in.Price
		}
		if in.ImageURL != nil {
			item.ImageURL = *in.ImageURL
		}
		if in.AirhallImageURL != nil {
			item.AirhallImageURL = *in.AirhallImageURL
		}
		if in.AirhallLocation != nil {
			item.AirhallLocation = *in.AirhallLocation
		}

		if item.IsInAirhall && item.AirhallImageURL == "" {
			return ErrInvalidState
		}

		item.UpdatedAt = e.now()
		if err := st.UpdateItem(ctx, item); err != nil {
			return err
		}

		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// SetAirhall включает или выключает размещение товара в витрине
// Airhall. Разрешено только владельцу и только пока товар не продан.
// Для включения обязательно изображение витрины; при выключении
// изображение и локация очищаются
func (e *Engine) SetAirhall(ctx context.Context, itemID, actor uuid.UUID, enable bool, imageURL, location string) (*models.Item, error) {
	var updated *models.Item

	err := e.store.WithTx(ctx, func(st Store) error {
		item, err := st.ItemByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item.OwnerID != actor {
			return ErrPermissionDenied
		}
		if item.Status == models.StatusSold {
			return ErrInvalidTransition
		}

		if enable {
			if imageURL == "" {
				imageURL = item.AirhallImageURL
			}
			if imageURL == "" {
				return ErrInvalidState
			}
			item.IsInAirhall = true
			item.AirhallImageURL = imageURL
			if location != "" {
				item.AirhallLocation = location
			}
		} else {
			item.IsInAirhall = false
			item.AirhallImageURL = ""
			item.AirhallLocation = ""
		}

		item.UpdatedAt = e.now()
		if err := st.UpdateItem(ctx, item); err != nil {
			return err
		}

		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.sink.Track(EventAirhallStatusChanged, actor.String(), map[string]any{
		"item_id":       itemID.String(),
		"title":         updated.Title,
		"is_in_airhall": updated.IsInAirhall,
	})

	return updated, nil
}

// MarkSold переводит товар в статус sold. Разрешено только владельцу.
// Статус sold терминальный: повторная продажа невозможна. Активное
// бронирование при продаже принудительно снимается в той же
// транзакции — единственный случай, когда бронирование удаляется без
// явной отмены держателем
func (e *Engine) MarkSold(ctx context.Context, itemID, actor uuid.UUID) (*models.Item, error) {
	var sold *models.Item

	err := e.store.WithTx(ctx, func(st Store) error {
		item, err := st.ItemByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item.OwnerID != actor {
			return ErrPermissionDenied
		}
		if item.Status == models.StatusSold {
			return ErrInvalidTransition
		}

		if err := st.DeleteReservationsByItem(ctx, itemID); err != nil {
			return err
		}

		item.Status = models.StatusSold
		item.UpdatedAt = e.now()
		if err := st.UpdateItem(ctx, item); err != nil {
			return err
		}

		sold = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	timeToSell := e.now().Sub(sold.CreatedAt)
	e.sink.Track(EventItemSold, actor.String(), map[string]any{
		"item_id":            sold.ID.String(),
		"title":              sold.Title,
		"price":              sold.Price,
		"time_to_sell_days":  int(timeToSell.Hours() / 24),
		"time_to_sell_hours": int(timeToSell.Hours()) % 24,
		"is_in_airhall":      sold.IsInAirhall,
	})

	return sold, nil
}

// RecordView увеличивает счетчик просмотров товара. Каждый вызов
// увеличивает счетчик: дедупликации повторных просмотров нет,
// просмотры владельца и анонимные тоже считаются. viewer может быть
// nil для неавторизованного зрителя
func (e *Engine) RecordView(ctx context.Context, itemID uuid.UUID, viewer *uuid.UUID) (int, error) {
	views, err := e.store.IncrementItemViews(ctx, itemID)
	if err != nil {
		return 0, err
	}

	viewerID := ""
	if viewer != nil {
		viewerID = viewer.String()
	}
	e.sink.Track(EventItemViewed, viewerID, map[string]any{
		"item_id": itemID.String(),
		"views":   views,
	})

	return views, nil
}
