package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

const lotColumns = `id, workspace_id, item_id, lot_number, identifiers, expiration_date,
	production_date, reception_date, attributes, status, source_type, source_id,
	created_at, updated_at`

// LotRepo implementación de LotRepository sobre PostgreSQL (usable con pool o tx).
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

// FindByLotNumber obtiene el lote por número dentro del workspace e ítem. nil, nil si no existe.
func (r *LotRepo) FindByLotNumber(ctx context.Context, workspaceID, itemID, lotNumber string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots
		WHERE workspace_id = $1 AND item_id = $2 AND lot_number = $3`
	return r.findOne(ctx, query, workspaceID, itemID, lotNumber)
}

// FindByID obtiene un lote por ID. nil, nil si no existe.
func (r *LotRepo) FindByID(ctx context.Context, id string) (*entity.Lot, error) {
	return r.findOne(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1`, id)
}

func (r *LotRepo) findOne(ctx context.Context, query string, args ...any) (*entity.Lot, error) {
	lot, err := scanLot(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return lot, nil
}

// Save inserta el lote o actualiza su estado y atributos.
// Un segundo lote con el mismo número para el mismo ítem devuelve ErrDuplicate.
func (r *LotRepo) Save(ctx context.Context, lot entity.Lot) error {
	identifiers, err := jsonb(lot.Identifiers)
	if err != nil {
		return fmt.Errorf("encode lot identifiers: %w", err)
	}
	attributes, err := jsonb(lot.Attributes)
	if err != nil {
		return fmt.Errorf("encode lot attributes: %w", err)
	}
	query := `
		INSERT INTO lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			identifiers = EXCLUDED.identifiers,
			expiration_date = EXCLUDED.expiration_date,
			attributes = EXCLUDED.attributes,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`
	_, err = r.q.Exec(ctx, query,
		lot.ID, lot.WorkspaceID, lot.ItemID, lot.LotNumber, identifiers, lot.ExpirationDate,
		lot.ProductionDate, lot.ReceptionDate, attributes, string(lot.Status),
		nullString(lot.SourceType), nullString(lot.SourceID), lot.CreatedAt, lot.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("save lot: %w", err)
	}
	return nil
}

func scanLot(row pgx.Row) (*entity.Lot, error) {
	var (
		l                    entity.Lot
		status               string
		identifiers, attrs   []byte
		sourceType, sourceID *string
	)
	err := row.Scan(
		&l.ID, &l.WorkspaceID, &l.ItemID, &l.LotNumber, &identifiers, &l.ExpirationDate,
		&l.ProductionDate, &l.ReceptionDate, &attrs, &status, &sourceType, &sourceID,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Status = entity.LotStatus(status)
	l.SourceType = derefString(sourceType)
	l.SourceID = derefString(sourceID)
	if l.Identifiers, err = fromJSONB[string](identifiers); err != nil {
		return nil, fmt.Errorf("decode lot identifiers: %w", err)
	}
	if l.Attributes, err = fromJSONB[any](attrs); err != nil {
		return nil, fmt.Errorf("decode lot attributes: %w", err)
	}
	return &l, nil
}
