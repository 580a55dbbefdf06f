package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// LotStatus estado de un lote.
type LotStatus string

const (
	LotStatusActive     LotStatus = "ACTIVE"
	LotStatusQuarantine LotStatus = "QUARANTINE"
	LotStatusExpired    LotStatus = "EXPIRED"
	LotStatusDepleted   LotStatus = "DEPLETED"
	LotStatusBlocked    LotStatus = "BLOCKED"
)

// IsTerminal vencido y agotado no vuelven a uso ordinario.
func (s LotStatus) IsTerminal() bool {
	return s == LotStatusExpired || s == LotStatusDepleted
}

// Identificadores secundarios conocidos.
const (
	LotIdentifierSupplierLot = "supplier_lot"
)

// LotSourceMovement origen de lotes materializados por el motor.
const LotSourceMovement = "movement"

// Lot agrupa stock de un ítem con trazabilidad de lote/vencimiento.
// Inmutable: las transiciones devuelven una copia.
type Lot struct {
	ID             string
	WorkspaceID    string
	ItemID         string
	LotNumber      string
	Identifiers    map[string]string
	ExpirationDate *time.Time
	ProductionDate *time.Time
	ReceptionDate  *time.Time
	Attributes     map[string]any
	Status         LotStatus
	SourceType     string
	SourceID       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewLotFromMovement materializa un lote ACTIVE a partir del primer movimiento que lo referencia.
func NewLotFromMovement(m *Movement, now time.Time) Lot {
	reception := now
	lot := Lot{
		ID:             uuid.New().String(),
		WorkspaceID:    m.WorkspaceID,
		ItemID:         m.ItemID,
		LotNumber:      m.LotNumber,
		Identifiers:    map[string]string{},
		ExpirationDate: m.ExpirationDate,
		ReceptionDate:  &reception,
		Attributes:     map[string]any{},
		Status:         LotStatusActive,
		SourceType:     LotSourceMovement,
		SourceID:       m.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if v, ok := m.Metadata[LotIdentifierSupplierLot].(string); ok && v != "" {
		lot.Identifiers[LotIdentifierSupplierLot] = v
	}
	return lot
}

// IsExpired indica si la fecha de vencimiento ya pasó o el lote fue marcado vencido.
func (l Lot) IsExpired(now time.Time) bool {
	if l.Status == LotStatusExpired {
		return true
	}
	return l.ExpirationDate != nil && l.ExpirationDate.Before(now)
}

// IsUsable lote activo y no vencido.
func (l Lot) IsUsable(now time.Time) bool {
	return l.Status == LotStatusActive && !l.IsExpired(now)
}

// DaysUntilExpiry días hasta el vencimiento, -1 si no tiene fecha.
func (l Lot) DaysUntilExpiry(now time.Time) int {
	if l.ExpirationDate == nil {
		return -1
	}
	return int(l.ExpirationDate.Sub(now).Hours() / 24)
}

func (l Lot) Quarantine(now time.Time) (Lot, error) { return l.withStatus(LotStatusQuarantine, now) }
func (l Lot) Activate(now time.Time) (Lot, error)   { return l.withStatus(LotStatusActive, now) }
func (l Lot) Block(now time.Time) (Lot, error)      { return l.withStatus(LotStatusBlocked, now) }

// MarkExpired y MarkDepleted siempre se permiten salvo desde el mismo estado.
func (l Lot) MarkExpired(now time.Time) (Lot, error)  { return l.withStatus(LotStatusExpired, now) }
func (l Lot) MarkDepleted(now time.Time) (Lot, error) { return l.withStatus(LotStatusDepleted, now) }

func (l Lot) withStatus(next LotStatus, now time.Time) (Lot, error) {
	if l.Status == next {
		return l, nil
	}
	if l.Status.IsTerminal() && (next == LotStatusActive || next == LotStatusQuarantine || next == LotStatusBlocked) {
		return l, fmt.Errorf("%w: lote %s en %s → %s", domain.ErrInvalidTransition, l.LotNumber, l.Status, next)
	}
	out := l
	out.Identifiers = cloneStrings(l.Identifiers)
	out.Attributes = cloneAny(l.Attributes)
	out.Status = next
	out.UpdatedAt = now
	return out, nil
}

func cloneStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAny(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
