// Package store holds the database session helpers shared by the gorm stores.
//
// A transaction opened by the Transactor travels in the context, so stores
// called inside it write through the same *db.DB without taking a tx param.
package store

import (
	"context"

	"cdp/core"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

type txKey struct{}

// WithTx binds tx to ctx
func WithTx(ctx context.Context, tx *db.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// Session returns the tx bound to ctx, or fallback outside a transaction
func Session(ctx context.Context, fallback *db.DB) *db.DB {
	if tx, ok := ctx.Value(txKey{}).(*db.DB); ok {
		return tx
	}

	return fallback
}

// View read handle. Inside a transaction reads go through the tx, since
// db.DB keeps its read handle outside it and would miss the tx's writes.
func View(ctx context.Context, fallback *db.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*db.DB); ok {
		return tx.Update()
	}

	return fallback.View()
}

// Update write handle, joining the transaction bound to ctx
func Update(ctx context.Context, fallback *db.DB) *gorm.DB {
	return Session(ctx, fallback).Update()
}

// IsErrNotFound reports whether err is a gorm record not found error
func IsErrNotFound(err error) bool {
	return store.IsErrNotFound(err)
}

type transactor struct {
	db *db.DB
}

// NewTransactor returns a core.Transactor over database
func NewTransactor(database *db.DB) core.Transactor {
	return &transactor{db: database}
}

// Tx runs fn in a database transaction; a nested call joins the outer one
func (t *transactor) Tx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*db.DB); ok {
		return fn(ctx)
	}

	return t.db.Tx(func(tx *db.DB) error {
		return fn(WithTx(ctx, tx))
	})
}
