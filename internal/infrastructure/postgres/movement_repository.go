package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, workspace_id, type, item_id, location_id, quantity, status,
	lot_id, lot_number, expiration_date, source_location_id, destination_location_id,
	reference_type, reference_id, reason, balance_after, metadata, failure_reason,
	created_by, created_at, processed_at`

// MovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Save inserta el movimiento o actualiza su estado (FAILED → PENDING → COMPLETED).
// Los campos de identidad no se reescriben. Al completarse toma el siguiente ledger_seq;
// como se guarda con la fila de saldo bloqueada, el orden por par es el de aplicación.
func (r *MovementRepo) Save(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	meta, err := jsonb(m.Metadata)
	if err != nil {
		return fmt.Errorf("encode movement metadata: %w", err)
	}
	query := `
		INSERT INTO movements (` + movementColumns + `, ledger_seq)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21,
			CASE WHEN $7::text = 'COMPLETED' THEN nextval('movements_ledger_seq') END)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			lot_id = EXCLUDED.lot_id,
			balance_after = EXCLUDED.balance_after,
			metadata = EXCLUDED.metadata,
			failure_reason = EXCLUDED.failure_reason,
			processed_at = EXCLUDED.processed_at,
			ledger_seq = EXCLUDED.ledger_seq
		WHERE movements.status <> 'COMPLETED'`
	tag, err := r.q.Exec(ctx, query,
		m.ID, m.WorkspaceID, string(m.Type), m.ItemID, m.LocationID, m.Quantity, string(m.Status),
		nullString(m.LotID), nullString(m.LotNumber), m.ExpirationDate,
		nullString(m.SourceLocationID), nullString(m.DestinationLocationID),
		nullString(m.ReferenceType), nullString(m.ReferenceID), nullString(m.Reason),
		m.BalanceAfter, meta, nullString(m.FailureReason),
		nullString(m.CreatedBy), m.CreatedAt, m.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("save movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: el movimiento %s ya está completado", domain.ErrConflict, m.ID)
	}
	return nil
}

// FindByID obtiene un movimiento por ID. nil, nil si no existe.
func (r *MovementRepo) FindByID(ctx context.Context, id string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// Search lista movimientos por criterios, ordenados por created_at o por orden de aplicación.
func (r *MovementRepo) Search(ctx context.Context, c repository.MovementCriteria) ([]*entity.Movement, error) {
	where, args := movementWhere(c)
	order := "ASC"
	if c.SortDesc {
		order = "DESC"
	}
	orderBy := fmt.Sprintf(" ORDER BY created_at %s, id %s", order, order)
	if c.OrderBy == repository.OrderByApplied {
		orderBy = fmt.Sprintf(" ORDER BY ledger_seq %s NULLS LAST, created_at %s, id %s", order, order, order)
	}
	query := `SELECT ` + movementColumns + ` FROM movements` + where + orderBy
	pos := len(args) + 1
	if c.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", pos)
		args = append(args, c.Limit)
		pos++
	}
	if c.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", pos)
		args = append(args, c.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Count total de movimientos que cumplen los criterios (ignora Limit/Offset).
func (r *MovementRepo) Count(ctx context.Context, c repository.MovementCriteria) (int, error) {
	where, args := movementWhere(c)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM movements`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return n, nil
}

func movementWhere(c repository.MovementCriteria) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if c.WorkspaceID != "" {
		add("workspace_id = $%d", c.WorkspaceID)
	}
	if c.ItemID != "" {
		add("item_id = $%d", c.ItemID)
	}
	if c.LocationID != "" {
		add("location_id = $%d", c.LocationID)
	}
	if c.Type != "" {
		add("type = $%d", string(c.Type))
	}
	if c.Status != "" {
		add("status = $%d", string(c.Status))
	}
	if c.LotID != "" {
		add("lot_id = $%d", c.LotID)
	}
	if c.ReferenceType != "" {
		add("reference_type = $%d", c.ReferenceType)
	}
	if c.ReferenceID != "" {
		add("reference_id = $%d", c.ReferenceID)
	}
	timeColumn := "created_at"
	if c.OrderBy == repository.OrderByApplied {
		timeColumn = "processed_at"
	}
	if c.From != nil {
		add(timeColumn+" >= $%d", *c.From)
	}
	if c.To != nil {
		add(timeColumn+" <= $%d", *c.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var (
		m                                   entity.Movement
		typ, status                         string
		lotID, lotNumber, source, dest      *string
		refType, refID, reason, failure, by *string
		meta                                []byte
	)
	err := row.Scan(
		&m.ID, &m.WorkspaceID, &typ, &m.ItemID, &m.LocationID, &m.Quantity, &status,
		&lotID, &lotNumber, &m.ExpirationDate, &source, &dest,
		&refType, &refID, &reason, &m.BalanceAfter, &meta, &failure,
		&by, &m.CreatedAt, &m.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	m.Status = entity.MovementStatus(status)
	m.LotID = derefString(lotID)
	m.LotNumber = derefString(lotNumber)
	m.SourceLocationID = derefString(source)
	m.DestinationLocationID = derefString(dest)
	m.ReferenceType = derefString(refType)
	m.ReferenceID = derefString(refID)
	m.Reason = derefString(reason)
	m.FailureReason = derefString(failure)
	m.CreatedBy = derefString(by)
	if m.Metadata, err = fromJSONB[any](meta); err != nil {
		return nil, fmt.Errorf("decode movement metadata: %w", err)
	}
	return &m, nil
}
