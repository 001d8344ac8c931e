package postgres

import (
	"context"
	"database/sql"

	"swiftride/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// TxManager runs functions inside database transactions, handing them
// transaction-scoped repositories.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// RunInTx begins a transaction, invokes fn with repositories bound to it,
// and commits when fn returns nil. Any error rolls the whole transaction
// back. The rollback is deferred so a panic inside fn also releases the
// transaction instead of leaking an open connection; after a successful
// commit it is a no-op (ErrTxDone).
func (m *TxManager) RunInTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	sqlTx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = sqlTx.Rollback() }()

	tx := repository.Tx{
		Rides:   NewRideRepositoryWithTx(sqlTx),
		Trips:   NewTripRepositoryWithTx(sqlTx),
		Drivers: NewDriverRepositoryWithTx(sqlTx),
	}

	if err := fn(tx); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// Ensure TxManager implements repository.TxRunner.
var _ repository.TxRunner = (*TxManager)(nil)
