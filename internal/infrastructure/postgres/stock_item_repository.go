package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

const stockItemColumns = `id, workspace_id, item_id, location_id, lot_id, serial_number,
	quantity, reserved_quantity, expiration_date, created_at, updated_at`

// StockItemRepo implementación de StockItemRepository sobre PostgreSQL (usable con pool o tx).
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

// FindByItemAndLocation obtiene el saldo sin bloquear. nil, nil si no existe.
func (r *StockItemRepo) FindByItemAndLocation(ctx context.Context, workspaceID, itemID, locationID string) (*entity.StockItem, error) {
	query := `SELECT ` + stockItemColumns + `
		FROM stock_items WHERE workspace_id = $1 AND item_id = $2 AND location_id = $3`
	return r.findOne(ctx, query, workspaceID, itemID, locationID)
}

// FindByItemAndLocationForUpdate obtiene el saldo y bloquea la fila (SELECT FOR UPDATE).
func (r *StockItemRepo) FindByItemAndLocationForUpdate(ctx context.Context, workspaceID, itemID, locationID string) (*entity.StockItem, error) {
	query := `SELECT ` + stockItemColumns + `
		FROM stock_items WHERE workspace_id = $1 AND item_id = $2 AND location_id = $3
		FOR UPDATE`
	return r.findOne(ctx, query, workspaceID, itemID, locationID)
}

func (r *StockItemRepo) findOne(ctx context.Context, query string, args ...any) (*entity.StockItem, error) {
	s, err := scanStockItem(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	return s, nil
}

// Save inserta o actualiza el saldo del par (ítem, ubicación).
func (r *StockItemRepo) Save(ctx context.Context, item entity.StockItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO stock_items (` + stockItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (workspace_id, item_id, location_id)
		DO UPDATE SET lot_id = EXCLUDED.lot_id,
			serial_number = EXCLUDED.serial_number,
			quantity = EXCLUDED.quantity,
			reserved_quantity = EXCLUDED.reserved_quantity,
			expiration_date = EXCLUDED.expiration_date,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.WorkspaceID, item.ItemID, item.LocationID,
		nullString(item.LotID), nullString(item.SerialNumber),
		item.Quantity, item.ReservedQuantity, item.ExpirationDate,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %v", domain.ErrInvariantViolation, err)
		}
		return fmt.Errorf("upsert stock item: %w", err)
	}
	return nil
}

// SumQuantityByLocations suma de cantidades en mano sobre el conjunto de ubicaciones.
func (r *StockItemRepo) SumQuantityByLocations(ctx context.Context, workspaceID string, locationIDs []string) (decimal.Decimal, error) {
	if len(locationIDs) == 0 {
		return decimal.Zero, nil
	}
	var total decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM stock_items WHERE workspace_id = $1 AND location_id = ANY($2)`,
		workspaceID, locationIDs,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum stock by locations: %w", err)
	}
	return total, nil
}

// DistinctItemsByLocations ítems con cantidad positiva en las ubicaciones.
func (r *StockItemRepo) DistinctItemsByLocations(ctx context.Context, workspaceID string, locationIDs []string) ([]string, error) {
	return r.distinct(ctx, "item_id", workspaceID, locationIDs)
}

// DistinctLotsByLocations lotes presentes en las ubicaciones. Un par (ítem, ubicación)
// puede tener varios lotes: se cuenta cada lote con saldo neto positivo en el ledger,
// más el lot_id del saldo cuando el ledger no tiene movimientos de ese lote.
func (r *StockItemRepo) DistinctLotsByLocations(ctx context.Context, workspaceID string, locationIDs []string) ([]string, error) {
	if len(locationIDs) == 0 {
		return nil, nil
	}
	inbound, outbound := quantityTypes()
	rows, err := r.q.Query(ctx, `
		WITH held AS (
			SELECT item_id, location_id, lot_id FROM stock_items
			WHERE workspace_id = $1 AND location_id = ANY($2) AND quantity > 0
		), net AS (
			SELECT m.item_id, m.location_id, m.lot_id,
				SUM(CASE WHEN m.type = ANY($3) THEN m.quantity
					WHEN m.type = ANY($4) THEN -m.quantity ELSE 0 END) AS qty
			FROM movements m
			JOIN held h ON h.item_id = m.item_id AND h.location_id = m.location_id
			WHERE m.workspace_id = $1 AND m.status = 'COMPLETED' AND m.lot_id IS NOT NULL
			GROUP BY m.item_id, m.location_id, m.lot_id
		)
		SELECT lot_id FROM net WHERE qty > 0
		UNION
		SELECT h.lot_id FROM held h
		WHERE h.lot_id IS NOT NULL AND NOT EXISTS (
			SELECT 1 FROM net n
			WHERE n.item_id = h.item_id AND n.location_id = h.location_id AND n.lot_id = h.lot_id)
		ORDER BY 1`,
		workspaceID, locationIDs, inbound, outbound)
	if err != nil {
		return nil, fmt.Errorf("distinct lots: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan distinct lots: %w", err)
	}
	return ids, nil
}

// quantityTypes tipos que suman y que restan cantidad en mano.
func quantityTypes() (inbound, outbound []string) {
	for _, t := range entity.AllMovementTypes() {
		switch {
		case t.AddsStock():
			inbound = append(inbound, t.String())
		case t.RemovesStock():
			outbound = append(outbound, t.String())
		}
	}
	return inbound, outbound
}

// distinct column es siempre una constante interna.
func (r *StockItemRepo) distinct(ctx context.Context, column, workspaceID string, locationIDs []string) ([]string, error) {
	if len(locationIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`
		SELECT DISTINCT %[1]s FROM stock_items
		WHERE workspace_id = $1 AND location_id = ANY($2) AND quantity > 0 AND %[1]s IS NOT NULL
		ORDER BY %[1]s`, column)
	rows, err := r.q.Query(ctx, query, workspaceID, locationIDs)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan distinct %s: %w", column, err)
	}
	return ids, nil
}

// ListByLocations saldos de las ubicaciones (cálculo de peso del árbol).
func (r *StockItemRepo) ListByLocations(ctx context.Context, workspaceID string, locationIDs []string) ([]entity.StockItem, error) {
	if len(locationIDs) == 0 {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+stockItemColumns+`
		FROM stock_items WHERE workspace_id = $1 AND location_id = ANY($2)
		ORDER BY location_id, item_id`, workspaceID, locationIDs)
	if err != nil {
		return nil, fmt.Errorf("list stock by locations: %w", err)
	}
	defer rows.Close()
	var list []entity.StockItem
	for rows.Next() {
		s, err := scanStockItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

func scanStockItem(row pgx.Row) (*entity.StockItem, error) {
	var (
		s      entity.StockItem
		lotID  *string
		serial *string
	)
	err := row.Scan(
		&s.ID, &s.WorkspaceID, &s.ItemID, &s.LocationID, &lotID, &serial,
		&s.Quantity, &s.ReservedQuantity, &s.ExpirationDate, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.LotID = derefString(lotID)
	s.SerialNumber = derefString(serial)
	return &s, nil
}
