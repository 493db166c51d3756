// Package memory keeps every store in process memory. It backs the
// simulate command and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cdp/core"

	"github.com/fox-one/pkg/store/db"
)

// DB in-memory database shared by the stores it hands out
type DB struct {
	mu          sync.RWMutex
	collaterals map[string]*core.CollateralConfig
	nextID      uint64
	vaults      map[string]*core.Vault
	events      []*core.Event
	paused      bool
	delegations []*core.Delegation
}

// New returns an empty database
func New() *DB {
	return &DB{
		collaterals: map[string]*core.CollateralConfig{},
		vaults:      map[string]*core.Vault{},
	}
}

// Collaterals collateral store view
func (d *DB) Collaterals() core.CollateralStore { return (*collateralStore)(d) }

// Vaults vault store view
func (d *DB) Vaults() core.VaultStore { return (*vaultStore)(d) }

// Events event store view
func (d *DB) Events() core.EventStore { return (*eventStore)(d) }

// System system store view
func (d *DB) System() core.SystemStore { return (*systemStore)(d) }

// Delegations delegation store view
func (d *DB) Delegations() core.DelegationStore { return (*delegationStore)(d) }

// Transactor snapshot based transactor
func (d *DB) Transactor() core.Transactor { return (*transactor)(d) }

type snapshot struct {
	collaterals map[string]*core.CollateralConfig
	nextID      uint64
	vaults      map[string]*core.Vault
	events      int
	paused      bool
	delegations []*core.Delegation
}

func (d *DB) snapshot() *snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := &snapshot{
		collaterals: make(map[string]*core.CollateralConfig, len(d.collaterals)),
		nextID:      d.nextID,
		vaults:      make(map[string]*core.Vault, len(d.vaults)),
		events:      len(d.events),
		paused:      d.paused,
		delegations: append([]*core.Delegation(nil), d.delegations...),
	}

	for k, c := range d.collaterals {
		s.collaterals[k] = c.Clone()
	}

	for k, v := range d.vaults {
		s.vaults[k] = v.Clone()
	}

	return s
}

func (d *DB) restore(s *snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.collaterals = s.collaterals
	d.nextID = s.nextID
	d.vaults = s.vaults
	d.events = d.events[:s.events]
	d.paused = s.paused
	d.delegations = s.delegations
}

type txKey struct{}

type transactor DB

func (t *transactor) Tx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	d := (*DB)(t)
	s := d.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		d.restore(s)
		return err
	}

	return nil
}

type collateralStore DB

func (s *collateralStore) Create(_ context.Context, cfg *core.CollateralConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collaterals[cfg.CollateralType]; ok {
		return db.ErrOptimisticLock
	}

	s.nextID++
	cfg.ID = s.nextID
	now := time.Now()
	cfg.CreatedAt, cfg.UpdatedAt = now, now
	s.collaterals[cfg.CollateralType] = cfg.Clone()
	return nil
}

func (s *collateralStore) Find(_ context.Context, collateralType string) (*core.CollateralConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.collaterals[collateralType]
	if !ok {
		return nil, core.ErrUnknownCollateral
	}

	return cfg.Clone(), nil
}

func (s *collateralStore) All(_ context.Context) ([]*core.CollateralConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfgs := make([]*core.CollateralConfig, 0, len(s.collaterals))
	for _, cfg := range s.collaterals {
		cfgs = append(cfgs, cfg.Clone())
	}

	sort.Slice(cfgs, func(i, j int) bool { return cfgs[i].ID < cfgs[j].ID })
	return cfgs, nil
}

func (s *collateralStore) Update(_ context.Context, cfg *core.CollateralConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.collaterals[cfg.CollateralType]
	if !ok {
		return core.ErrUnknownCollateral
	}

	if stored.Version != cfg.Version {
		return db.ErrOptimisticLock
	}

	cfg.Version++
	cfg.UpdatedAt = time.Now()
	s.collaterals[cfg.CollateralType] = cfg.Clone()
	return nil
}

type vaultStore DB

func (s *vaultStore) Create(_ context.Context, vault *core.Vault) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vaults[vault.ID]; ok {
		return db.ErrOptimisticLock
	}

	now := time.Now()
	vault.CreatedAt, vault.UpdatedAt = now, now
	s.vaults[vault.ID] = vault.Clone()
	return nil
}

func (s *vaultStore) Find(_ context.Context, id string) (*core.Vault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vault, ok := s.vaults[id]
	if !ok {
		return nil, core.ErrVaultNotFound
	}

	return vault.Clone(), nil
}

func (s *vaultStore) FindByOwner(_ context.Context, owner, collateralType string) (*core.Vault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, vault := range s.vaults {
		if vault.Owner == owner && vault.CollateralType == collateralType {
			return vault.Clone(), nil
		}
	}

	return nil, core.ErrVaultNotFound
}

func (s *vaultStore) ListByCollateral(_ context.Context, collateralType string) ([]*core.Vault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var vaults []*core.Vault
	for _, vault := range s.vaults {
		if vault.CollateralType == collateralType {
			vaults = append(vaults, vault.Clone())
		}
	}

	sort.Slice(vaults, func(i, j int) bool { return vaults[i].ID < vaults[j].ID })
	return vaults, nil
}

func (s *vaultStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.vaults)), nil
}

func (s *vaultStore) Update(_ context.Context, vault *core.Vault) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.vaults[vault.ID]
	if !ok {
		return core.ErrVaultNotFound
	}

	if stored.Version != vault.Version {
		return db.ErrOptimisticLock
	}

	vault.Version++
	vault.UpdatedAt = time.Now()
	s.vaults[vault.ID] = vault.Clone()
	return nil
}

type eventStore DB

func (s *eventStore) Create(_ context.Context, event *core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events {
		if e.TraceID != "" && e.TraceID == event.TraceID {
			return fmt.Errorf("duplicate trace id %s", event.TraceID)
		}
	}

	event.ID = int64(len(s.events)) + 1
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	cp := *event
	s.events = append(s.events, &cp)
	return nil
}

func (s *eventStore) FindTrace(_ context.Context, traceID string) (*core.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, event := range s.events {
		if event.TraceID == traceID {
			cp := *event
			return &cp, nil
		}
	}

	return nil, nil
}

func (s *eventStore) List(_ context.Context, vaultID string, fromID int64, limit int) ([]*core.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []*core.Event
	for _, event := range s.events {
		if event.ID <= fromID || (vaultID != "" && event.VaultID != vaultID) {
			continue
		}

		cp := *event
		events = append(events, &cp)
		if limit > 0 && len(events) >= limit {
			break
		}
	}

	return events, nil
}

type systemStore DB

func (s *systemStore) Paused(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.paused, nil
}

func (s *systemStore) SetPaused(_ context.Context, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paused = paused
	return nil
}

type delegationStore DB

func (s *delegationStore) index(owner, delegate string) int {
	for i, d := range s.delegations {
		if d.Owner == owner && d.Delegate == delegate {
			return i
		}
	}

	return -1
}

func (s *delegationStore) Grant(_ context.Context, owner, delegate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index(owner, delegate) >= 0 {
		return nil
	}

	s.nextID++
	s.delegations = append(s.delegations, &core.Delegation{
		ID:        int64(s.nextID),
		Owner:     owner,
		Delegate:  delegate,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *delegationStore) Revoke(_ context.Context, owner, delegate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(owner, delegate); i >= 0 {
		s.delegations = append(s.delegations[:i:i], s.delegations[i+1:]...)
	}

	return nil
}

func (s *delegationStore) Granted(_ context.Context, owner, delegate string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.index(owner, delegate) >= 0, nil
}

func (s *delegationStore) ListByOwner(_ context.Context, owner string) ([]*core.Delegation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var delegations []*core.Delegation
	for _, d := range s.delegations {
		if d.Owner == owner {
			cp := *d
			delegations = append(delegations, &cp)
		}
	}

	return delegations, nil
}
