package system

import (
	"context"

	"cdp/core"

	"github.com/fox-one/pkg/property"
)

const pausedKey = "cdp_system_paused"

type systemStore struct {
	properties property.Store
}

// New system store backed by the property table
func New(properties property.Store) core.SystemStore {
	return &systemStore{properties: properties}
}

func (s *systemStore) Paused(ctx context.Context) (bool, error) {
	v, err := s.properties.Get(ctx, pausedKey)
	if err != nil {
		return false, err
	}

	return v.Int64() != 0, nil
}

func (s *systemStore) SetPaused(ctx context.Context, paused bool) error {
	var flag int64
	if paused {
		flag = 1
	}

	return s.properties.Save(ctx, pausedKey, flag)
}
