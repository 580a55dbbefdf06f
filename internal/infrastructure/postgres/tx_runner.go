package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(tx inventory.TxStores) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stores := inventory.TxStores{
		Movements: NewMovementRepository(tx),
		Stocks:    NewStockItemRepository(tx),
		Lots:      NewLotRepository(tx),
		Locker:    advisoryLocker{tx: tx},
	}
	if err := fn(stores); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// advisoryLocker bloqueo consultivo por ubicación, liberado en Commit/Rollback.
type advisoryLocker struct {
	tx pgx.Tx
}

func (l advisoryLocker) LockLocation(ctx context.Context, locationID string) error {
	if _, err := l.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "location:"+locationID); err != nil {
		return fmt.Errorf("advisory lock %s: %w", locationID, err)
	}
	return nil
}
