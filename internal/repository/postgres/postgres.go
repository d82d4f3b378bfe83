// Package postgres implements internal/repository against PostgreSQL
// via database/sql and the lib/pq driver, following the teacher's
// hand-written-SQL convention (no ORM).
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clinicroster/scheduler/internal/repository"
	_ "github.com/lib/pq"
)

// DB wraps a SQL database connection for all PostgreSQL operations.
type DB struct {
	*sql.DB
}

// New creates a new PostgreSQL database connection and verifies it.
func New(connString string) (*DB, error) {
	sqldb, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{sqldb}, nil
}

func (db *DB) Close() error { return db.DB.Close() }

func (db *DB) Health(ctx context.Context) error { return db.PingContext(ctx) }

func (db *DB) BeginTx(ctx context.Context) (repository.Transaction, error) {
	sqltx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &tx{tx: sqltx}, nil
}

func (db *DB) StaffRepository() repository.StaffRepository { return &staffRepo{q: db.DB} }
func (db *DB) TaskTypeRepository() repository.TaskTypeRepository { return &taskTypeRepo{q: db.DB} }
func (db *DB) ScheduleRepository() repository.ScheduleRepository { return &scheduleRepo{q: db.DB} }
func (db *DB) AssignmentRepository() repository.AssignmentRepository {
	return &assignmentRepo{q: db.DB}
}
func (db *DB) EventRepository() repository.EventRepository { return &eventRepo{q: db.DB} }
func (db *DB) RuleRepository() repository.RuleRepository   { return &ruleRepo{q: db.DB} }
func (db *DB) ResourceRepository() repository.ResourceRepository {
	return &resourceRepo{q: db.DB}
}
func (db *DB) ResourceBookingRepository() repository.ResourceBookingRepository {
	return &bookingRepo{q: db.DB}
}

// tx adapts a *sql.Tx to the repository.Transaction facet accessors,
// reusing the same repo implementations over the narrower querier interface.
type tx struct {
	tx *sql.Tx
}

func (t *tx) Commit() error   { return t.tx.Commit() }
func (t *tx) Rollback() error { return t.tx.Rollback() }

func (t *tx) StaffRepository() repository.StaffRepository { return &staffRepo{q: t.tx} }
func (t *tx) TaskTypeRepository() repository.TaskTypeRepository { return &taskTypeRepo{q: t.tx} }
func (t *tx) ScheduleRepository() repository.ScheduleRepository { return &scheduleRepo{q: t.tx} }
func (t *tx) AssignmentRepository() repository.AssignmentRepository {
	return &assignmentRepo{q: t.tx}
}
func (t *tx) EventRepository() repository.EventRepository { return &eventRepo{q: t.tx} }
func (t *tx) RuleRepository() repository.RuleRepository   { return &ruleRepo{q: t.tx} }
func (t *tx) ResourceRepository() repository.ResourceRepository {
	return &resourceRepo{q: t.tx}
}
func (t *tx) ResourceBookingRepository() repository.ResourceBookingRepository {
	return &bookingRepo{q: t.tx}
}

// querier is satisfied by both *sql.DB and *sql.Tx, letting every repo
// implementation work unmodified inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
