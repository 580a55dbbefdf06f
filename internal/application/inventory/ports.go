package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// LocationLocker serializa admisiones sobre una misma ubicación dentro de una transacción.
// El bloqueo se libera al terminar la transacción.
type LocationLocker interface {
	LockLocation(ctx context.Context, locationID string) error
}

// TxStores repositorios atados a una misma transacción.
type TxStores struct {
	Movements repository.MovementRepository
	Stocks    repository.StockItemRepository
	Lots      repository.LotRepository
	Locker    LocationLocker
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: si fn devuelve error se hace Rollback.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx TxStores) error) error
}
