package vault

import (
	"context"
	"fmt"
	"time"

	"cdp/core"
	"cdp/pkg/id"

	"github.com/fox-one/pkg/logger"
)

// interaction external call issued after the ledger effects of an operation;
// undo compensates it when a later interaction fails
type interaction struct {
	name string
	do   func(ctx context.Context) error
	undo func(ctx context.Context) error
}

// operation state of one public call
type operation struct {
	kind    core.EventKind
	caller  string
	traceID string
	now     time.Time

	event *core.Event
	extra core.EventExtra

	interactions  []interaction
	// interactions done and not undone
	done          int
	notifications []func(ctx context.Context)
}

func (op *operation) interact(name string, do, undo func(ctx context.Context) error) {
	op.interactions = append(op.interactions, interaction{name: name, do: do, undo: undo})
}

func (op *operation) notify(fn func(ctx context.Context)) {
	op.notifications = append(op.notifications, fn)
}

// record starts the event of the operation
func (op *operation) record(vault *core.Vault, collateralType string) *core.Event {
	op.event = &core.Event{
		TraceID:        op.traceID,
		Kind:           op.kind,
		CollateralType: collateralType,
		Caller:         op.caller,
		CreatedAt:      op.now,
	}

	if vault != nil {
		op.event.VaultID = vault.ID
	}

	return op.event
}

// execute runs the queued interactions in order. On the first failure the
// ones already done are undone in reverse order.
func (op *operation) execute(ctx context.Context) error {
	log := logger.FromContext(ctx)

	for i, it := range op.interactions {
		sub := id.SubTraceID(op.traceID, i+1)
		log.WithField("sub_trace", sub).Debugln(it.name)

		if err := it.do(id.WithTraceID(ctx, sub)); err != nil {
			op.undo(ctx)
			return fmt.Errorf("%s: %w", it.name, err)
		}

		op.done = i + 1
	}

	return nil
}

// undo compensates the interactions done so far, newest first
func (op *operation) undo(ctx context.Context) {
	log := logger.FromContext(ctx)

	for j := op.done - 1; j >= 0; j-- {
		done := op.interactions[j]
		if done.undo == nil {
			continue
		}

		if err := done.undo(id.WithTraceID(ctx, id.SubTraceID(op.traceID, j+1))); err != nil {
			log.WithError(err).Errorln("undo", done.name)
		}
	}

	op.done = 0
}
