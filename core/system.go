package core

import "context"

// Transactor runs fn so that every store write inside it commits or rolls
// back together. Nested calls join the outer transaction.
type Transactor interface {
	Tx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SystemStore protocol-wide switches
type SystemStore interface {
	Paused(ctx context.Context) (bool, error)
	SetPaused(ctx context.Context, paused bool) error
}
