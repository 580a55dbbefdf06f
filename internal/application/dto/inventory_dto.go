package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
type RegisterMovementRequest struct {
	Type                  string          `json:"type"`
	ItemID                string          `json:"item_id"`
	LocationID            string          `json:"location_id"`
	Quantity              decimal.Decimal `json:"quantity"`
	LotNumber             string          `json:"lot_number,omitempty"`
	ExpirationDate        *time.Time      `json:"expiration_date,omitempty"`
	SourceLocationID      string          `json:"source_location_id,omitempty"`
	DestinationLocationID string          `json:"destination_location_id,omitempty"`
	ReferenceType         string          `json:"reference_type,omitempty"`
	ReferenceID           string          `json:"reference_id,omitempty"`
	Reason                string          `json:"reason,omitempty"`
	Metadata              map[string]any  `json:"metadata,omitempty"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	ItemID         string          `json:"item_id"`
	FromLocationID string          `json:"from_location_id"`
	ToLocationID   string          `json:"to_location_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	LotNumber      string          `json:"lot_number,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	ReferenceID    string          `json:"reference_id,omitempty"`
}

// MovementResponse movimiento del ledger, enriquecido con datos de catálogo si existen.
type MovementResponse struct {
	ID                    string           `json:"id"`
	WorkspaceID           string           `json:"workspace_id"`
	Type                  string           `json:"type"`
	Status                string           `json:"status"`
	ItemID                string           `json:"item_id"`
	ItemName              string           `json:"item_name,omitempty"`
	SKU                   string           `json:"sku,omitempty"`
	UnitName              string           `json:"unit_name,omitempty"`
	LocationID            string           `json:"location_id"`
	Quantity              decimal.Decimal  `json:"quantity"`
	SignedQuantity        decimal.Decimal  `json:"signed_quantity"`
	BalanceAfter          *decimal.Decimal `json:"balance_after,omitempty"`
	LotID                 string           `json:"lot_id,omitempty"`
	LotNumber             string           `json:"lot_number,omitempty"`
	SourceLocationID      string           `json:"source_location_id,omitempty"`
	DestinationLocationID string           `json:"destination_location_id,omitempty"`
	ReferenceType         string           `json:"reference_type,omitempty"`
	ReferenceID           string           `json:"reference_id,omitempty"`
	Reason                string           `json:"reason,omitempty"`
	FailureReason         string           `json:"failure_reason,omitempty"`
	Metadata              map[string]any   `json:"metadata,omitempty"`
	CreatedBy             string           `json:"created_by,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	ProcessedAt           *time.Time       `json:"processed_at,omitempty"`
}

// MovementListResponse página de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// StockItemResponse saldo de un ítem en una ubicación. Available es derivado.
type StockItemResponse struct {
	ID               string          `json:"id"`
	WorkspaceID      string          `json:"workspace_id"`
	ItemID           string          `json:"item_id"`
	ItemName         string          `json:"item_name,omitempty"`
	SKU              string          `json:"sku,omitempty"`
	UnitName         string          `json:"unit_name,omitempty"`
	LocationID       string          `json:"location_id"`
	LotID            string          `json:"lot_id,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity"`
	Available        decimal.Decimal `json:"available"`
	ExpirationDate   *time.Time      `json:"expiration_date,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ValidationErrorDTO una regla violada.
type ValidationErrorDTO struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Capacity any    `json:"capacity,omitempty"`
}

// ProcessResultResponse resultado de aplicar (o rechazar) un movimiento.
type ProcessResultResponse struct {
	Success         bool                 `json:"success"`
	Movement        MovementResponse     `json:"movement"`
	PreviousBalance decimal.Decimal      `json:"previous_balance"`
	NewBalance      decimal.Decimal      `json:"new_balance"`
	Delta           decimal.Decimal      `json:"delta"`
	Errors          []ValidationErrorDTO `json:"errors,omitempty"`
}

// TransferResultResponse resultado de un traslado.
type TransferResultResponse struct {
	Success bool                   `json:"success"`
	Out     *ProcessResultResponse `json:"out,omitempty"`
	In      *ProcessResultResponse `json:"in,omitempty"`
}

// ValidationResponse resultado de validar sin aplicar.
type ValidationResponse struct {
	Valid  bool                 `json:"valid"`
	Errors []ValidationErrorDTO `json:"errors"`
}

// ValidationFailedResponse cuerpo 422 cuando el motor rechaza un movimiento o traslado.
type ValidationFailedResponse struct {
	Code     string               `json:"code"`
	Message  string               `json:"message"`
	Errors   []ValidationErrorDTO `json:"errors"`
	Movement *MovementResponse    `json:"movement,omitempty"`
}
