package entity

import "github.com/shopspring/decimal"

// ItemInfo datos de catálogo de un ítem usados para enriquecer consultas
// y para la admisión por tipo/peso. El catálogo es externo al ledger.
type ItemInfo struct {
	ID         string
	SKU        string
	Name       string
	ItemType   string
	UnitID     string
	UnitWeight *decimal.Decimal // peso por unidad; nil si el catálogo no lo conoce
}
