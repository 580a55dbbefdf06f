package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Movement representa la intención (y luego el registro) de un cambio en el saldo
// de un StockItem. Quantity es siempre una magnitud positiva; el signo lo da el tipo.
// Una vez COMPLETED es inmutable; BalanceAfter se estampa una sola vez antes de completar.
type Movement struct {
	ID                    string
	WorkspaceID           string
	Type                  MovementType
	ItemID                string
	LocationID            string
	Quantity              decimal.Decimal
	Status                MovementStatus
	LotID                 string
	LotNumber             string
	ExpirationDate        *time.Time
	SourceLocationID      string
	DestinationLocationID string
	ReferenceType         string // factura, orden, conteo, transfer...
	ReferenceID           string
	Reason                string
	BalanceAfter          *decimal.Decimal
	Metadata              map[string]any
	FailureReason         string
	CreatedBy             string
	CreatedAt             time.Time
	ProcessedAt           *time.Time
}

// MovementInput datos para construir un movimiento nuevo en estado PENDING.
type MovementInput struct {
	ID                    string // opcional; se genera si viene vacío
	WorkspaceID           string
	Type                  MovementType
	ItemID                string
	LocationID            string
	Quantity              decimal.Decimal
	LotNumber             string
	ExpirationDate        *time.Time
	SourceLocationID      string
	DestinationLocationID string
	ReferenceType         string
	ReferenceID           string
	Reason                string
	Metadata              map[string]any
	CreatedBy             string
}

// NewMovement valida la entrada y construye un movimiento PENDING.
func NewMovement(in MovementInput, now time.Time) (*Movement, error) {
	if !in.Type.IsValid() {
		return nil, domain.ErrInvalidMovementType
	}
	if strings.TrimSpace(in.WorkspaceID) == "" || strings.TrimSpace(in.ItemID) == "" || strings.TrimSpace(in.LocationID) == "" {
		return nil, fmt.Errorf("%w: workspace_id, item_id y location_id son requeridos", domain.ErrInvalidInput)
	}
	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity debe ser mayor que cero", domain.ErrInvalidInput)
	}
	switch in.Type {
	case MovementTypeTransferOut:
		if in.DestinationLocationID == "" {
			return nil, fmt.Errorf("%w: TRANSFER_OUT requiere destination_location_id", domain.ErrInvalidInput)
		}
	case MovementTypeTransferIn:
		if in.SourceLocationID == "" {
			return nil, fmt.Errorf("%w: TRANSFER_IN requiere source_location_id", domain.ErrInvalidInput)
		}
	}
	id := in.ID
	if id == "" {
		id = uuid.New().String()
	}
	meta := in.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return &Movement{
		ID:                    id,
		WorkspaceID:           in.WorkspaceID,
		Type:                  in.Type,
		ItemID:                in.ItemID,
		LocationID:            in.LocationID,
		Quantity:              in.Quantity,
		Status:                MovementStatusPending,
		LotNumber:             strings.TrimSpace(in.LotNumber),
		ExpirationDate:        in.ExpirationDate,
		SourceLocationID:      in.SourceLocationID,
		DestinationLocationID: in.DestinationLocationID,
		ReferenceType:         in.ReferenceType,
		ReferenceID:           in.ReferenceID,
		Reason:                in.Reason,
		Metadata:              meta,
		CreatedBy:             in.CreatedBy,
		CreatedAt:             now,
	}, nil
}

// SignedQuantity cantidad con el signo del efecto sobre la cantidad en mano.
func (m *Movement) SignedQuantity() decimal.Decimal {
	return m.Quantity.Mul(decimal.NewFromInt(int64(m.Type.QuantityMultiplier())))
}

// HasLot indica si el movimiento referencia un lote (por id o por número).
func (m *Movement) HasLot() bool {
	return m.LotID != "" || m.LotNumber != ""
}

// IsExpired indica si la fecha de vencimiento declarada ya pasó.
func (m *Movement) IsExpired(now time.Time) bool {
	return m.ExpirationDate != nil && m.ExpirationDate.Before(now)
}

// IsProcessable solo los movimientos PENDING pueden aplicarse.
func (m *Movement) IsProcessable() bool {
	return m.Status == MovementStatusPending
}

// WithBalanceAfter estampa el saldo posterior; solo una vez.
func (m *Movement) WithBalanceAfter(balance decimal.Decimal) error {
	if m.BalanceAfter != nil {
		return domain.ErrBalanceAlreadySet
	}
	if m.Status != MovementStatusPending {
		return fmt.Errorf("%w: %s no admite saldo posterior", domain.ErrInvalidTransition, m.Status)
	}
	b := balance
	m.BalanceAfter = &b
	return nil
}

// Complete marca el movimiento como aplicado. Transición de un solo sentido.
func (m *Movement) Complete(at time.Time) error {
	if err := m.transition(MovementStatusCompleted); err != nil {
		return err
	}
	m.ProcessedAt = &at
	return nil
}

// Cancel anula un movimiento pendiente.
func (m *Movement) Cancel(at time.Time, reason string) error {
	if err := m.transition(MovementStatusCancelled); err != nil {
		return err
	}
	m.ProcessedAt = &at
	if reason != "" {
		m.Reason = reason
	}
	return nil
}

// Fail registra un rechazo; el movimiento puede volver a PENDING con Retry.
func (m *Movement) Fail(reason string) error {
	if err := m.transition(MovementStatusFailed); err != nil {
		return err
	}
	m.FailureReason = reason
	return nil
}

// Retry devuelve un movimiento fallido a PENDING.
func (m *Movement) Retry() error {
	if err := m.transition(MovementStatusPending); err != nil {
		return err
	}
	m.FailureReason = ""
	return nil
}

func (m *Movement) transition(next MovementStatus) error {
	if !m.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, m.Status, next)
	}
	m.Status = next
	return nil
}
