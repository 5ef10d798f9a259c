package postgresql

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/classboard/backoffice-go/internal/domain/assignment"
	"github.com/classboard/backoffice-go/internal/pkg/database"
)

type txKey struct{}

// WithTransaction executes fn inside a database transaction. The
// transaction travels in the context, so every repository call fn makes
// through GetQuerier joins it.
func WithTransaction(ctx context.Context, db *database.DB, fn func(ctx context.Context) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.Error("Rollback failed during panic recovery", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetQuerier returns the context's transaction when one is open, the pool
// otherwise. Repositories call it on every operation so the same code runs
// inside and outside transactions.
func GetQuerier(ctx context.Context, db *database.DB) database.Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db.Pool
}

// AcquireAssignmentLock takes a transaction-scoped advisory lock keyed by
// (employeeID, date). The lock is released automatically at commit or
// rollback, so the conflict read and the insert share one critical section
// across every instance of the service.
func AcquireAssignmentLock(ctx context.Context, tx pgx.Tx, employeeID string, date time.Time) error {
	h := fnv.New64a()
	h.Write([]byte(employeeID))
	h.Write([]byte(date.Format("2006-01-02")))

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", int64(h.Sum64())); err != nil {
		return fmt.Errorf("acquire assignment lock: %w", err)
	}
	return nil
}

// AssignmentLock is the postgres-backed critical section: fn runs inside a
// transaction that holds the (employee, date) advisory lock, so concurrent
// creators on any instance serialize on the database.
type AssignmentLock struct {
	db *database.DB
}

func NewAssignmentLock(db *database.DB) assignment.CriticalSection {
	return &AssignmentLock{db: db}
}

// Locked implements assignment.CriticalSection.
func (l *AssignmentLock) Locked(ctx context.Context, employeeID string, date time.Time, fn func(ctx context.Context) error) error {
	return WithTransaction(ctx, l.db, func(txCtx context.Context) error {
		tx, ok := txCtx.Value(txKey{}).(pgx.Tx)
		if !ok {
			return fmt.Errorf("transaction missing from context")
		}
		if err := AcquireAssignmentLock(txCtx, tx, employeeID, date); err != nil {
			return err
		}
		return fn(txCtx)
	})
}
