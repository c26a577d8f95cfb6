package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// Defaults for Options fields left zero.
const (
	DefaultTimeout    = 5 * time.Second
	DefaultMaxRetries = 3
)

// Options tunes how the store talks to the database.
type Options struct {
	// Timeout bounds a single attempt of an operation.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a transient failure.
	// Negative disables retries.
	MaxRetries int
	// Now supplies timestamps. Defaults to time.Now.
	Now func() time.Time
	// OnRetry is called before each retry.
	OnRetry func(op string, err error)
}

// Store is the persistence layer for items and sales. It is safe for
// concurrent use; all callers share the one pooled handle.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
	retries uint64
	now     func() time.Time
	onRetry func(op string, err error)
}

// New wraps an open database handle.
func New(db *sqlx.DB, opts Options) *Store {
	s := &Store{
		db:      db,
		timeout: opts.Timeout,
		now:     opts.Now,
		onRetry: opts.OnRetry,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	switch {
	case opts.MaxRetries > 0:
		s.retries = uint64(opts.MaxRetries)
	case opts.MaxRetries == 0:
		s.retries = DefaultMaxRetries
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// DB returns the underlying handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// queryer is the read surface shared by *sqlx.DB and *sqlx.Tx.
type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	Rebind(query string) string
}
