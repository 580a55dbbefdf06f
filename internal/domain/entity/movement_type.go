package entity

import (
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// MovementType clasifica el efecto de un movimiento sobre el stock (value object).
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementTypeReceipt       MovementType = "RECEIPT"        // recepción de compra
	MovementTypeShipment      MovementType = "SHIPMENT"       // despacho
	MovementTypeAdjustmentIn  MovementType = "ADJUSTMENT_IN"  // ajuste positivo
	MovementTypeAdjustmentOut MovementType = "ADJUSTMENT_OUT" // ajuste negativo
	MovementTypeTransferIn    MovementType = "TRANSFER_IN"    // traslado, lado destino
	MovementTypeTransferOut   MovementType = "TRANSFER_OUT"   // traslado, lado origen
	MovementTypeReturn        MovementType = "RETURN"
	MovementTypeDamage        MovementType = "DAMAGE"
	MovementTypeExpiration    MovementType = "EXPIRATION"
	MovementTypeInstallation  MovementType = "INSTALLATION"
	MovementTypeProduction    MovementType = "PRODUCTION"
	MovementTypeConsumption   MovementType = "CONSUMPTION"
	MovementTypeReserve       MovementType = "RESERVE"
	MovementTypeRelease       MovementType = "RELEASE"
	MovementTypeCount         MovementType = "COUNT"      // conteo físico, solo auditoría
	MovementTypeRelocation    MovementType = "RELOCATION" // reubicación interna, solo auditoría
	MovementTypeCustom        MovementType = "CUSTOM"
)

// movementTraits propiedades fijas de cada tipo; no se pueden sobreescribir.
type movementTraits struct {
	quantity    int
	reservation int
	transfer    bool
}

// traits es la tabla cerrada de tipos. Agregar un tipo nuevo sin fila aquí
// hace fallar TestMovementType_TablaCompleta.
func (t MovementType) traits() (movementTraits, bool) {
	switch t {
	case MovementTypeReceipt, MovementTypeAdjustmentIn, MovementTypeReturn, MovementTypeProduction:
		return movementTraits{quantity: 1}, true
	case MovementTypeShipment, MovementTypeAdjustmentOut, MovementTypeDamage,
		MovementTypeExpiration, MovementTypeInstallation, MovementTypeConsumption:
		return movementTraits{quantity: -1}, true
	case MovementTypeTransferIn:
		return movementTraits{quantity: 1, transfer: true}, true
	case MovementTypeTransferOut:
		return movementTraits{quantity: -1, transfer: true}, true
	case MovementTypeReserve:
		return movementTraits{reservation: 1}, true
	case MovementTypeRelease:
		return movementTraits{reservation: -1}, true
	case MovementTypeCount, MovementTypeRelocation, MovementTypeCustom:
		return movementTraits{}, true
	}
	return movementTraits{}, false
}

// AllMovementTypes devuelve el conjunto cerrado de tipos.
func AllMovementTypes() []MovementType {
	return []MovementType{
		MovementTypeReceipt, MovementTypeShipment,
		MovementTypeAdjustmentIn, MovementTypeAdjustmentOut,
		MovementTypeTransferIn, MovementTypeTransferOut,
		MovementTypeReturn, MovementTypeDamage, MovementTypeExpiration,
		MovementTypeInstallation, MovementTypeProduction, MovementTypeConsumption,
		MovementTypeReserve, MovementTypeRelease,
		MovementTypeCount, MovementTypeRelocation, MovementTypeCustom,
	}
}

// ParseMovementType normaliza y valida un tipo recibido como texto.
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", domain.ErrInvalidMovementType
	}
	return t, nil
}

// IsValid indica si el tipo pertenece al conjunto cerrado.
func (t MovementType) IsValid() bool {
	_, ok := t.traits()
	return ok
}

// QuantityMultiplier efecto sobre la cantidad en mano: +1, -1 o 0.
func (t MovementType) QuantityMultiplier() int {
	tr, _ := t.traits()
	return tr.quantity
}

// ReservationMultiplier efecto sobre la cantidad reservada: +1, -1 o 0.
func (t MovementType) ReservationMultiplier() int {
	tr, _ := t.traits()
	return tr.reservation
}

func (t MovementType) AddsStock() bool    { return t.QuantityMultiplier() > 0 }
func (t MovementType) RemovesStock() bool { return t.QuantityMultiplier() < 0 }

func (t MovementType) AffectsReservation() bool { return t.ReservationMultiplier() != 0 }
func (t MovementType) Reserves() bool           { return t.ReservationMultiplier() > 0 }
func (t MovementType) Releases() bool           { return t.ReservationMultiplier() < 0 }

// IsTransfer indica si el tipo es una de las dos patas de un traslado.
func (t MovementType) IsTransfer() bool {
	tr, _ := t.traits()
	return tr.transfer
}

// IsInbound movimientos que requieren admisión de capacidad.
func (t MovementType) IsInbound() bool { return t.AddsStock() }

// IsNeutral tipos que no tocan cantidades pero quedan en el ledger.
func (t MovementType) IsNeutral() bool {
	return t.QuantityMultiplier() == 0 && t.ReservationMultiplier() == 0
}

func (t MovementType) String() string { return string(t) }
