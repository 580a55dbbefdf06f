package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// CatalogGateway lectura del catálogo de ítems (enriquecimiento y admisión por tipo/peso).
// Su ausencia no debe romper el ledger.
type CatalogGateway interface {
	// GetItemInfo devuelve nil, nil si el ítem no está en el catálogo.
	GetItemInfo(ctx context.Context, itemID string) (*entity.ItemInfo, error)
}

// UnitGateway lectura de unidades de medida (solo nombres para respuestas).
type UnitGateway interface {
	GetUnitName(ctx context.Context, unitID string) (string, error)
}
