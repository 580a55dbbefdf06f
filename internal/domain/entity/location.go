package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Location representa una ubicación de almacenamiento (bodega, zona, estante...).
// La jerarquía se arma con ParentID; vacío si es raíz.
type Location struct {
	ID          string
	WorkspaceID string
	ParentID    string
	Name        string
	Code        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LocationStockSettings política de admisión de una ubicación.
// Si una ubicación no tiene registro, se considera sin restricciones.
type LocationStockSettings struct {
	LocationID       string
	WorkspaceID      string
	MaxQuantity      *decimal.Decimal
	MaxWeight        *decimal.Decimal
	MaxVolume        *decimal.Decimal
	AllowedItemTypes []string // vacío = cualquier tipo
	AllowMixedLots   bool
	AllowMixedSKUs   bool
	FIFOEnforced     bool
	Active           bool
	UpdatedAt        time.Time
}

// AllowsItemType verifica la lista blanca de tipos de ítem.
func (s LocationStockSettings) AllowsItemType(itemType string) bool {
	if len(s.AllowedItemTypes) == 0 {
		return true
	}
	for _, t := range s.AllowedItemTypes {
		if t == itemType {
			return true
		}
	}
	return false
}
