package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/tickify/tickify/pkg/util"
)

// Querier is the subset of pgx operations shared by *pgxpool.Pool and
// pgx.Tx, so every repository works both inside and outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the repositories behind a single transactional boundary.
// Coordinator operations that touch more than one entity run their writes
// through WithinTx so they commit or roll back as one unit.
type Store interface {
	Tickets() TicketRepository
	Comments() CommentRepository
	Notifications() NotificationRepository
	Users() UserRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type pgxStore struct {
	pool *pgxpool.Pool
	q    Querier
}

// NewStore returns a Postgres-backed Store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgxStore{pool: pool, q: pool}
}

func (s *pgxStore) Tickets() TicketRepository {
	return &ticketRepository{q: s.q}
}

func (s *pgxStore) Comments() CommentRepository {
	return &commentRepository{q: s.q}
}

func (s *pgxStore) Notifications() NotificationRepository {
	return &notificationRepository{q: s.q}
}

func (s *pgxStore) Users() UserRepository {
	return &userRepository{q: s.q}
}

// WithinTx runs fn against a Store bound to one pgx.Tx. Nested calls reuse
// the enclosing transaction.
func (s *pgxStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperrors.MapError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	txStore := &pgxStore{pool: nil, q: tx}
	if err := fn(txStore); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
