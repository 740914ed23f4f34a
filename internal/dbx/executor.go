package dbx

import (
	"context"
	"database/sql"
	"sync"
)

// Executor serializes writers: at most one Do callback runs at a time,
// each inside its own transaction. Concurrent ingestion pages and the
// folder replace all funnel through a single Executor so they never race
// on the same connection.
type Executor struct {
	mu sync.Mutex
	db *sql.DB
}

func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// DB exposes the underlying pool for read-only queries.
func (e *Executor) DB() *sql.DB {
	return e.db
}

// Do waits for the writer slot, then runs fn inside WithTx. It returns
// ctx.Err() without touching the database if ctx ended meanwhile.
func (e *Executor) Do(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return WithTx(ctx, e.db, nil, fn)
}
