package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.LocationRepository         = (*LocationRepo)(nil)
	_ repository.LocationSettingsRepository = (*LocationSettingsRepo)(nil)
)

// LocationRepo lectura de la jerarquía de ubicaciones sobre PostgreSQL.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// GetByID obtiene una ubicación por ID. nil, nil si no existe.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	query := `
		SELECT id, workspace_id, parent_id, name, code, created_at, updated_at
		FROM locations WHERE id = $1`
	var (
		l        entity.Location
		parentID *string
		code     *string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.WorkspaceID, &parentID, &l.Name, &code, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	l.ParentID = derefString(parentID)
	l.Code = derefString(code)
	return &l, nil
}

// GetDescendantIDs todos los descendientes de id. UNION (no UNION ALL) descarta filas
// repetidas, así que un ciclo en parent_id no hace iterar la consulta para siempre.
func (r *LocationRepo) GetDescendantIDs(ctx context.Context, id string) ([]string, error) {
	query := `
		WITH RECURSIVE tree(id) AS (
			SELECT id FROM locations WHERE parent_id = $1
			UNION
			SELECT l.id FROM locations l JOIN tree t ON l.parent_id = t.id
		)
		SELECT id FROM tree WHERE id <> $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("location descendants: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan location descendants: %w", err)
	}
	return ids, nil
}

// Save crea o actualiza una ubicación (usado por el CLI y los tests de integración).
func (r *LocationRepo) Save(ctx context.Context, l entity.Location) error {
	query := `
		INSERT INTO locations (id, workspace_id, parent_id, name, code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET parent_id = EXCLUDED.parent_id, name = EXCLUDED.name,
			code = EXCLUDED.code, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.WorkspaceID, nullString(l.ParentID), l.Name, nullString(l.Code), l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	return nil
}

// LocationSettingsRepo política de admisión por ubicación sobre PostgreSQL.
type LocationSettingsRepo struct {
	q Querier
}

// NewLocationSettingsRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationSettingsRepository(q Querier) *LocationSettingsRepo {
	return &LocationSettingsRepo{q: q}
}

// FindByLocationID nil, nil si la ubicación no tiene política.
func (r *LocationSettingsRepo) FindByLocationID(ctx context.Context, locationID string) (*entity.LocationStockSettings, error) {
	query := `
		SELECT location_id, workspace_id, max_quantity, max_weight, max_volume, allowed_item_types,
			allow_mixed_lots, allow_mixed_skus, fifo_enforced, active, updated_at
		FROM location_stock_settings WHERE location_id = $1`
	var s entity.LocationStockSettings
	err := r.q.QueryRow(ctx, query, locationID).Scan(
		&s.LocationID, &s.WorkspaceID, &s.MaxQuantity, &s.MaxWeight, &s.MaxVolume, &s.AllowedItemTypes,
		&s.AllowMixedLots, &s.AllowMixedSKUs, &s.FIFOEnforced, &s.Active, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location settings: %w", err)
	}
	return &s, nil
}

// Save crea o reemplaza la política de una ubicación.
func (r *LocationSettingsRepo) Save(ctx context.Context, s entity.LocationStockSettings) error {
	allowed := s.AllowedItemTypes
	if allowed == nil {
		allowed = []string{}
	}
	query := `
		INSERT INTO location_stock_settings (location_id, workspace_id, max_quantity, max_weight, max_volume,
			allowed_item_types, allow_mixed_lots, allow_mixed_skus, fifo_enforced, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (location_id) DO UPDATE SET
			max_quantity = EXCLUDED.max_quantity, max_weight = EXCLUDED.max_weight,
			max_volume = EXCLUDED.max_volume, allowed_item_types = EXCLUDED.allowed_item_types,
			allow_mixed_lots = EXCLUDED.allow_mixed_lots, allow_mixed_skus = EXCLUDED.allow_mixed_skus,
			fifo_enforced = EXCLUDED.fifo_enforced, active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		s.LocationID, s.WorkspaceID, s.MaxQuantity, s.MaxWeight, s.MaxVolume, allowed,
		s.AllowMixedLots, s.AllowMixedSKUs, s.FIFOEnforced, s.Active, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save location settings: %w", err)
	}
	return nil
}
