// Package memtx gives the in-memory repositories the same all-or-nothing
// behaviour the Postgres driver gets from a database transaction.
//
// Transactions are serialised. Repositories apply their writes immediately and
// register an undo step with OnRollback; when the transaction function fails
// the undo steps run in reverse order.
package memtx

import (
	"context"
	"sync"
)

type journalKey struct{}

type journal struct {
	undo []func()
}

type UnitOfWork struct {
	mu sync.Mutex
}

func NewUnitOfWork() *UnitOfWork {
	return &UnitOfWork{}
}

func (u *UnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	j := &journal{}
	err := fn(context.WithValue(ctx, journalKey{}, j))
	if err != nil {
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
	}
	return err
}

// OnRollback registers undo for the transaction bound to ctx. Outside a
// transaction it is a no-op and the write stands on its own.
func OnRollback(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}
