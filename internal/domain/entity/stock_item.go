package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// StockItem representa el saldo de un ítem en una ubicación (aggregate root).
// Invariante: 0 <= ReservedQuantity <= Quantity. Disponible = Quantity - ReservedQuantity,
// nunca se persiste.
//
// Las operaciones usan receptor por valor y devuelven una copia nueva; el valor
// original nunca queda en un estado intermedio.
type StockItem struct {
	ID               string
	WorkspaceID      string
	ItemID           string
	LocationID       string
	LotID            string // opcional
	SerialNumber     string // opcional
	Quantity         decimal.Decimal
	ReservedQuantity decimal.Decimal
	ExpirationDate   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewStockItem crea un saldo en cero para un par (ítem, ubicación) nunca visto.
func NewStockItem(workspaceID, itemID, locationID string, now time.Time) StockItem {
	return StockItem{
		ID:               uuid.New().String(),
		WorkspaceID:      workspaceID,
		ItemID:           itemID,
		LocationID:       locationID,
		Quantity:         decimal.Zero,
		ReservedQuantity: decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate verifica las invariantes de cantidad.
func (s StockItem) Validate() error {
	if s.Quantity.IsNegative() {
		return fmt.Errorf("%w: cantidad %s negativa", domain.ErrInvariantViolation, s.Quantity)
	}
	if s.ReservedQuantity.IsNegative() {
		return fmt.Errorf("%w: reservado %s negativo", domain.ErrInvariantViolation, s.ReservedQuantity)
	}
	if s.ReservedQuantity.GreaterThan(s.Quantity) {
		return fmt.Errorf("%w: reservado %s mayor que cantidad %s",
			domain.ErrInvariantViolation, s.ReservedQuantity, s.Quantity)
	}
	return nil
}

// AvailableQuantity cantidad libre para despachar o reservar.
func (s StockItem) AvailableQuantity() decimal.Decimal {
	return s.Quantity.Sub(s.ReservedQuantity)
}

// HasAvailableStock indica si hay al menos qty disponible (límite inclusivo).
func (s StockItem) HasAvailableStock(qty decimal.Decimal) bool {
	return s.AvailableQuantity().GreaterThanOrEqual(qty)
}

// AdjustQuantity suma delta (positivo o negativo) a la cantidad en mano.
// Un ajuste negativo no puede dejar la cantidad bajo cero ni bajo lo reservado.
func (s StockItem) AdjustQuantity(delta decimal.Decimal) (StockItem, error) {
	next := s.Quantity.Add(delta)
	if next.IsNegative() {
		return s, fmt.Errorf("%w: cantidad resultante %s negativa", domain.ErrInvariantViolation, next)
	}
	if next.LessThan(s.ReservedQuantity) {
		return s, fmt.Errorf("%w: cantidad resultante %s menor que reservado %s",
			domain.ErrInvariantViolation, next, s.ReservedQuantity)
	}
	out := s
	out.Quantity = next
	return out, nil
}

// Reserve aparta qty del disponible.
func (s StockItem) Reserve(qty decimal.Decimal) (StockItem, error) {
	if !qty.IsPositive() {
		return s, fmt.Errorf("%w: reserva debe ser positiva", domain.ErrInvalidInput)
	}
	available := s.AvailableQuantity()
	if qty.GreaterThan(available) {
		return s, fmt.Errorf("%w: disponible %s, solicitado %s", domain.ErrInsufficientAvailable, available, qty)
	}
	out := s
	out.ReservedQuantity = s.ReservedQuantity.Add(qty)
	return out, nil
}

// Release devuelve qty reservada al disponible.
func (s StockItem) Release(qty decimal.Decimal) (StockItem, error) {
	if !qty.IsPositive() {
		return s, fmt.Errorf("%w: liberación debe ser positiva", domain.ErrInvalidInput)
	}
	if qty.GreaterThan(s.ReservedQuantity) {
		return s, fmt.Errorf("%w: reservado %s, solicitado %s", domain.ErrOverRelease, s.ReservedQuantity, qty)
	}
	out := s
	out.ReservedQuantity = s.ReservedQuantity.Sub(qty)
	return out, nil
}

// IsExpired indica si el saldo tiene fecha de vencimiento pasada.
func (s StockItem) IsExpired(now time.Time) bool {
	return s.ExpirationDate != nil && s.ExpirationDate.Before(now)
}
