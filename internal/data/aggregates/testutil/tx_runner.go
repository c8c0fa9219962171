package testutil

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/skillsdna-backend/internal/data/aggregates"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
)

// SavepointRunner runs each InTx body inside a nested transaction (savepoint) of an
// outer test transaction, so aggregates can be exercised against a rolled-back test DB.
// FailAfterBody forces a rollback after the body succeeds; FailTimes injects failures
// before the body for the first N calls.
type SavepointRunner struct {
	Tx *gorm.DB

	mu            sync.Mutex
	FailAfterBody error
	FailBefore    error
	FailTimes     int
	Calls         int
}

var _ aggregates.TxRunner = (*SavepointRunner)(nil)

func (r *SavepointRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.Calls++
	failBefore := r.FailBefore
	if r.FailTimes > 0 {
		r.FailTimes--
	} else {
		failBefore = nil
	}
	failAfter := r.FailAfterBody
	r.mu.Unlock()

	if failBefore != nil {
		return failBefore
	}
	return r.Tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
			return err
		}
		return failAfter
	})
}
