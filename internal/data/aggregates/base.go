package aggregates

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/skillsdna-backend/internal/data/dberr"
	"github.com/yungbote/skillsdna-backend/internal/platform/apierr"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

const (
	defaultTxAttempts = 3
	defaultMinBackoff = 20 * time.Millisecond
	defaultMaxBackoff = 250 * time.Millisecond
	backoffJitterFrac = 0.2
)

type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
	// TxAttempts bounds whole-transaction retries on retryable failures (deadlocks, busy SQLite).
	TxAttempts int
	// MinBackoff and MaxBackoff pace those retries; the wait doubles per attempt with jitter.
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Now        func() time.Time
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.TxAttempts <= 0 {
		d.TxAttempts = defaultTxAttempts
	}
	if d.MinBackoff <= 0 {
		d.MinBackoff = defaultMinBackoff
	}
	if d.MaxBackoff < d.MinBackoff {
		d.MaxBackoff = max(defaultMaxBackoff, d.MinBackoff)
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// executeWrite runs fn in a transaction, retrying the whole transaction on retryable
// failures, and reports the outcome through the hooks.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}

	var err error
	for attempt := 1; attempt <= deps.TxAttempts; attempt++ {
		err = classify(deps.Runner.InTx(ctx, fn))
		if err == nil || !errors.Is(err, dberr.ErrRetryable) || ctx.Err() != nil {
			break
		}
		if attempt == deps.TxAttempts {
			break
		}
		deps.Hooks.IncRetry(op)
		wait := computeBackoff(deps.MinBackoff, deps.MaxBackoff, attempt)
		if deps.Log != nil {
			deps.Log.Warn("aggregate write retrying", "op", op, "attempt", attempt, "backoff", wait, "error", err)
		}
		if !sleepCtx(ctx, wait) {
			break
		}
	}

	status := operationStatus(err)
	if status == "conflict" {
		deps.Hooks.IncConflict(op)
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return err
}

func computeBackoff(minB, maxB time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(minB) * math.Pow(2, float64(attempt-1)))
	if d > maxB {
		d = maxB
	}
	delta := float64(d) * backoffJitterFrac
	low := float64(d) - delta
	high := float64(d) + delta
	if low < 0 {
		low = 0
	}
	return time.Duration(low + rand.Float64()*(high-low))
}

// sleepCtx waits for d and reports false when ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// classify tags infrastructure errors and leaves API errors untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apierr.As(err); ok {
		return err
	}
	return dberr.Classify(err)
}

func operationStatus(err error) string {
	if err == nil {
		return "success"
	}
	if e, ok := apierr.As(err); ok {
		switch {
		case e.Status == http.StatusConflict:
			return "conflict"
		case e.Status >= 400 && e.Status < 500:
			return "rejected"
		}
		return "failure"
	}
	switch {
	case errors.Is(err, dberr.ErrConflict):
		return "conflict"
	case errors.Is(err, dberr.ErrRetryable):
		return "retryable"
	}
	return "failure"
}
