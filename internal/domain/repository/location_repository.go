package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LocationRepository puerto de lectura de la jerarquía de ubicaciones.
// El CRUD de ubicaciones vive fuera del ledger.
type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Location, error)
	// GetDescendantIDs devuelve todos los descendientes (sin incluir id).
	// Debe terminar aunque existan ciclos accidentales en los datos.
	GetDescendantIDs(ctx context.Context, id string) ([]string, error)
}

// LocationSettingsRepository puerto de la política de admisión por ubicación.
type LocationSettingsRepository interface {
	// FindByLocationID devuelve nil, nil si la ubicación no tiene política (sin restricciones).
	FindByLocationID(ctx context.Context, locationID string) (*entity.LocationStockSettings, error)
}
