package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("record already exists")
	ErrReferenced = errors.New("record is still referenced")
)

// DBTX is the query surface shared by *pgxpool.Pool, pgx.Tx and pgxmock.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner is a DBTX that can open transactions.
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store groups the repositories over one connection, or over one transaction inside WithTx.
type Store interface {
	Users() UserRepository
	Properties() PropertyRepository
	Units() UnitRepository
	Tenants() TenantRepository
	Leases() LeaseRepository
	Payments() PaymentRepository
	WithTx(ctx context.Context, fn func(Store) error) error
}

type pgStore struct {
	pool TxBeginner
	db   DBTX
	inTx bool
}

func NewStore(pool TxBeginner) Store {
	return &pgStore{pool: pool, db: pool}
}

func (s *pgStore) Users() UserRepository           { return NewUserRepo(s.db) }
func (s *pgStore) Properties() PropertyRepository { return NewPropertyRepo(s.db) }
func (s *pgStore) Units() UnitRepository           { return NewUnitRepo(s.db) }
func (s *pgStore) Tenants() TenantRepository       { return NewTenantRepo(s.db) }
func (s *pgStore) Leases() LeaseRepository         { return NewLeaseRepo(s.db) }
func (s *pgStore) Payments() PaymentRepository     { return NewPaymentRepo(s.db) }

// WithTx runs fn against a transactional Store. Nested calls join the outer transaction.
func (s *pgStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&pgStore{pool: s.pool, db: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", ErrReferenced, pgErr.ConstraintName)
		}
	}
	return err
}
