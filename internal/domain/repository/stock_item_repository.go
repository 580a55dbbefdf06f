package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockItemRepository define el puerto para consultar/actualizar saldos por ítem+ubicación.
// Usado dentro de transacciones para garantizar consistencia.
type StockItemRepository interface {
	// FindByItemAndLocation devuelve nil, nil si no existe saldo.
	FindByItemAndLocation(ctx context.Context, workspaceID, itemID, locationID string) (*entity.StockItem, error)
	// FindByItemAndLocationForUpdate igual que FindByItemAndLocation pero bloquea la fila (SELECT FOR UPDATE).
	FindByItemAndLocationForUpdate(ctx context.Context, workspaceID, itemID, locationID string) (*entity.StockItem, error)
	Save(ctx context.Context, item entity.StockItem) error

	// Lecturas agregadas sobre un conjunto de ubicaciones (suma de árbol).
	SumQuantityByLocations(ctx context.Context, workspaceID string, locationIDs []string) (decimal.Decimal, error)
	DistinctItemsByLocations(ctx context.Context, workspaceID string, locationIDs []string) ([]string, error)
	DistinctLotsByLocations(ctx context.Context, workspaceID string, locationIDs []string) ([]string, error)
	ListByLocations(ctx context.Context, workspaceID string, locationIDs []string) ([]entity.StockItem, error)
}
