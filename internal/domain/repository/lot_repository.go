package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LotRepository define el puerto de persistencia para lotes.
type LotRepository interface {
	// FindByLotNumber devuelve nil, nil si el lote no existe.
	FindByLotNumber(ctx context.Context, workspaceID, itemID, lotNumber string) (*entity.Lot, error)
	FindByID(ctx context.Context, id string) (*entity.Lot, error)
	Save(ctx context.Context, lot entity.Lot) error
}
