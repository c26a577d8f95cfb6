package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/erazemk/blagajna/internal/model"
)

// Postgres SQLSTATEs worth retrying.
var transientPQCodes = map[pq.ErrorCode]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

// do runs fn under a per-attempt timeout and retries transient failures
// with exponential backoff.
func (s *Store) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 0

	attempt := func() error {
		actx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		err := classify(fn(actx))
		if err == nil || errors.Is(err, model.ErrTransientStore) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, _ time.Duration) {
		if s.onRetry != nil {
			s.onRetry(op, err)
		}
	}

	err := backoff.RetryNotify(attempt, backoff.WithContext(backoff.WithMaxRetries(b, s.retries), ctx), notify)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) && !errors.Is(err, model.ErrTransientStore) {
		return fmt.Errorf("%s: %w: %w", op, model.ErrTransientStore, err)
	}
	return err
}

// classify marks transient driver errors with ErrTransientStore.
func classify(err error) error {
	if err == nil || errors.Is(err, model.ErrTransientStore) {
		return err
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %w", model.ErrTransientStore, err)
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}

	var perr *pq.Error
	if errors.As(err, &perr) {
		return transientPQCodes[perr.Code]
	}

	return false
}
