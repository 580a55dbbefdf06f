package inventory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CapacityKind etiqueta del resultado de admisión.
type CapacityKind string

const (
	CapacityValid                CapacityKind = "VALID"
	CapacityExceedsMaxQuantity   CapacityKind = "EXCEEDS_MAX_QUANTITY"
	CapacityExceedsMaxWeight     CapacityKind = "EXCEEDS_MAX_WEIGHT"
	CapacityItemTypeNotAllowed   CapacityKind = "ITEM_TYPE_NOT_ALLOWED"
	CapacityMixedLotsNotAllowed  CapacityKind = "MIXED_LOTS_NOT_ALLOWED"
	CapacityMixedItemsNotAllowed CapacityKind = "MIXED_ITEMS_NOT_ALLOWED"
	CapacityLocationNotActive    CapacityKind = "LOCATION_NOT_ACTIVE"
)

// QuantityExceeded contexto de EXCEEDS_MAX_QUANTITY.
type QuantityExceeded struct {
	LocationID string          `json:"location_id"`
	Current    decimal.Decimal `json:"current"`
	Requested  decimal.Decimal `json:"requested"`
	Max        decimal.Decimal `json:"max"`
}

// WeightExceeded contexto de EXCEEDS_MAX_WEIGHT.
type WeightExceeded struct {
	LocationID string          `json:"location_id"`
	Current    decimal.Decimal `json:"current"`
	Requested  decimal.Decimal `json:"requested"`
	Max        decimal.Decimal `json:"max"`
}

// ItemTypeRejected contexto de ITEM_TYPE_NOT_ALLOWED.
type ItemTypeRejected struct {
	LocationID string   `json:"location_id"`
	ItemType   string   `json:"item_type"`
	Allowed    []string `json:"allowed"`
}

// MixedLots contexto de MIXED_LOTS_NOT_ALLOWED.
type MixedLots struct {
	LocationID     string   `json:"location_id"`
	IncomingLotID  string   `json:"incoming_lot_id"`
	ExistingLotIDs []string `json:"existing_lot_ids"`
}

// MixedItems contexto de MIXED_ITEMS_NOT_ALLOWED.
type MixedItems struct {
	LocationID      string   `json:"location_id"`
	IncomingItemID  string   `json:"incoming_item_id"`
	ExistingItemIDs []string `json:"existing_item_ids"`
}

// LocationInactive contexto de LOCATION_NOT_ACTIVE.
type LocationInactive struct {
	LocationID string `json:"location_id"`
}

// CapacityValidationResult resultado etiquetado de la admisión: Kind indica
// el caso y solo el payload de ese caso viene no nulo.
type CapacityValidationResult struct {
	Kind             CapacityKind      `json:"kind"`
	QuantityExceeded *QuantityExceeded `json:"quantity_exceeded,omitempty"`
	WeightExceeded   *WeightExceeded   `json:"weight_exceeded,omitempty"`
	ItemTypeRejected *ItemTypeRejected `json:"item_type_rejected,omitempty"`
	MixedLots        *MixedLots        `json:"mixed_lots,omitempty"`
	MixedItems       *MixedItems       `json:"mixed_items,omitempty"`
	LocationInactive *LocationInactive `json:"location_inactive,omitempty"`
}

func CapacityOK() CapacityValidationResult {
	return CapacityValidationResult{Kind: CapacityValid}
}

func NewExceedsMaxQuantity(locationID string, current, requested, maxQty decimal.Decimal) CapacityValidationResult {
	return CapacityValidationResult{
		Kind:             CapacityExceedsMaxQuantity,
		QuantityExceeded: &QuantityExceeded{LocationID: locationID, Current: current, Requested: requested, Max: maxQty},
	}
}

func NewExceedsMaxWeight(locationID string, current, requested, maxQty decimal.Decimal) CapacityValidationResult {
	return CapacityValidationResult{
		Kind:           CapacityExceedsMaxWeight,
		WeightExceeded: &WeightExceeded{LocationID: locationID, Current: current, Requested: requested, Max: maxQty},
	}
}

func NewItemTypeNotAllowed(locationID, itemType string, allowed []string) CapacityValidationResult {
	return CapacityValidationResult{
		Kind:             CapacityItemTypeNotAllowed,
		ItemTypeRejected: &ItemTypeRejected{LocationID: locationID, ItemType: itemType, Allowed: allowed},
	}
}

func NewMixedLotsNotAllowed(locationID, incoming string, existing []string) CapacityValidationResult {
	return CapacityValidationResult{
		Kind:      CapacityMixedLotsNotAllowed,
		MixedLots: &MixedLots{LocationID: locationID, IncomingLotID: incoming, ExistingLotIDs: existing},
	}
}

func NewMixedItemsNotAllowed(locationID, incoming string, existing []string) CapacityValidationResult {
	return CapacityValidationResult{
		Kind:       CapacityMixedItemsNotAllowed,
		MixedItems: &MixedItems{LocationID: locationID, IncomingItemID: incoming, ExistingItemIDs: existing},
	}
}

func NewLocationNotActive(locationID string) CapacityValidationResult {
	return CapacityValidationResult{
		Kind:             CapacityLocationNotActive,
		LocationInactive: &LocationInactive{LocationID: locationID},
	}
}

// IsValid indica si la ubicación puede recibir el stock.
func (r CapacityValidationResult) IsValid() bool { return r.Kind == CapacityValid }

// Code código legible por máquina.
func (r CapacityValidationResult) Code() string { return string(r.Kind) }

// Message mensaje para humanos con los números del caso.
func (r CapacityValidationResult) Message() string {
	switch r.Kind {
	case CapacityValid:
		return "capacidad disponible"
	case CapacityExceedsMaxQuantity:
		q := r.QuantityExceeded
		return fmt.Sprintf("la ubicación %s excede su cantidad máxima: actual %s, solicitado %s, máximo %s",
			q.LocationID, q.Current, q.Requested, q.Max)
	case CapacityExceedsMaxWeight:
		w := r.WeightExceeded
		return fmt.Sprintf("la ubicación %s excede su peso máximo: actual %s, solicitado %s, máximo %s",
			w.LocationID, w.Current, w.Requested, w.Max)
	case CapacityItemTypeNotAllowed:
		t := r.ItemTypeRejected
		return fmt.Sprintf("la ubicación %s no admite el tipo de ítem %q (permitidos: %s)",
			t.LocationID, t.ItemType, strings.Join(t.Allowed, ", "))
	case CapacityMixedLotsNotAllowed:
		l := r.MixedLots
		return fmt.Sprintf("la ubicación %s no admite mezclar lotes: ya contiene %s",
			l.LocationID, strings.Join(l.ExistingLotIDs, ", "))
	case CapacityMixedItemsNotAllowed:
		i := r.MixedItems
		return fmt.Sprintf("la ubicación %s no admite mezclar ítems: ya contiene %s",
			i.LocationID, strings.Join(i.ExistingItemIDs, ", "))
	case CapacityLocationNotActive:
		return fmt.Sprintf("la ubicación %s no está activa", r.LocationInactive.LocationID)
	}
	return string(r.Kind)
}
