package event

import (
	"context"

	"cdp/core"
	"cdp/store"

	"github.com/fox-one/pkg/store/db"
)

type eventStore struct {
	db *db.DB
}

// New new event store
func New(db *db.DB) core.EventStore {
	return &eventStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Event{})
		if err := tx.AutoMigrate(core.Event{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *eventStore) Create(ctx context.Context, event *core.Event) error {
	return store.Update(ctx, s.db).Create(event).Error
}

func (s *eventStore) FindTrace(ctx context.Context, traceID string) (*core.Event, error) {
	var event core.Event
	err := store.View(ctx, s.db).Where("trace_id = ?", traceID).First(&event).Error
	if store.IsErrNotFound(err) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &event, nil
}

func (s *eventStore) List(ctx context.Context, vaultID string, fromID int64, limit int) ([]*core.Event, error) {
	query := store.View(ctx, s.db).Where("id > ?", fromID)
	if vaultID != "" {
		query = query.Where("vault_id = ?", vaultID)
	}

	var events []*core.Event
	if err := query.Order("id").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}
