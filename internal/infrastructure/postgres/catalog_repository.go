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
	_ repository.CatalogGateway = (*CatalogRepo)(nil)
	_ repository.UnitGateway    = (*CatalogRepo)(nil)
)

// CatalogRepo lectura de ítems y unidades sobre PostgreSQL. El ledger no escribe el catálogo
// salvo en el CLI de carga inicial (SaveItem / SaveUnit).
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

// GetItemInfo nil, nil si el ítem no existe.
func (r *CatalogRepo) GetItemInfo(ctx context.Context, itemID string) (*entity.ItemInfo, error) {
	query := `
		SELECT id, sku, name, item_type, unit_id, unit_weight
		FROM items WHERE id = $1`
	var (
		info     entity.ItemInfo
		itemType *string
		unitID   *string
	)
	err := r.q.QueryRow(ctx, query, itemID).Scan(
		&info.ID, &info.SKU, &info.Name, &itemType, &unitID, &info.UnitWeight,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	info.ItemType = derefString(itemType)
	info.UnitID = derefString(unitID)
	return &info, nil
}

// GetUnitName "" si la unidad no existe.
func (r *CatalogRepo) GetUnitName(ctx context.Context, unitID string) (string, error) {
	var name string
	err := r.q.QueryRow(ctx, `SELECT name FROM units WHERE id = $1`, unitID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get unit: %w", err)
	}
	return name, nil
}

// SaveItem crea o actualiza un ítem del catálogo.
func (r *CatalogRepo) SaveItem(ctx context.Context, workspaceID string, info entity.ItemInfo) error {
	query := `
		INSERT INTO items (id, workspace_id, sku, name, item_type, unit_id, unit_weight)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET sku = EXCLUDED.sku, name = EXCLUDED.name,
			item_type = EXCLUDED.item_type, unit_id = EXCLUDED.unit_id, unit_weight = EXCLUDED.unit_weight`
	_, err := r.q.Exec(ctx, query,
		info.ID, workspaceID, info.SKU, info.Name, nullString(info.ItemType), nullString(info.UnitID), info.UnitWeight,
	)
	if err != nil {
		return fmt.Errorf("save item: %w", err)
	}
	return nil
}

// SaveUnit crea o renombra una unidad de medida.
func (r *CatalogRepo) SaveUnit(ctx context.Context, id, name string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO units (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, id, name)
	if err != nil {
		return fmt.Errorf("save unit: %w", err)
	}
	return nil
}
