package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
)

// PageLimits tamaños de página del ledger (LEDGER_DEFAULT_PAGE_SIZE / LEDGER_MAX_PAGE_SIZE).
type PageLimits struct {
	Default int
	Max     int
}

func (p PageLimits) clamp(limit int) int {
	def, maxSize := p.Default, p.Max
	if def <= 0 {
		def = 20
	}
	if maxSize <= 0 {
		maxSize = 100
	}
	if limit <= 0 {
		return def
	}
	if limit > maxSize {
		return maxSize
	}
	return limit
}

// LedgerQueryUseCase consultas de solo lectura sobre movimientos y saldos.
// El catálogo y las unidades solo enriquecen; si fallan, se responde sin esos datos.
type LedgerQueryUseCase struct {
	movements repository.MovementRepository
	stocks    repository.StockItemRepository
	catalog   repository.CatalogGateway
	units     repository.UnitGateway
	pages     PageLimits
	log       zerolog.Logger
}

// NewLedgerQueryUseCase construye el caso de uso. catalog y units pueden ser nil.
func NewLedgerQueryUseCase(
	movements repository.MovementRepository,
	stocks repository.StockItemRepository,
	catalog repository.CatalogGateway,
	units repository.UnitGateway,
	pages PageLimits,
	log zerolog.Logger,
) *LedgerQueryUseCase {
	return &LedgerQueryUseCase{
		movements: movements,
		stocks:    stocks,
		catalog:   catalog,
		units:     units,
		pages:     pages,
		log:       log,
	}
}

// SearchMovements lista movimientos del workspace con filtros y paginación.
func (uc *LedgerQueryUseCase) SearchMovements(ctx context.Context, criteria repository.MovementCriteria) (*dto.MovementListResponse, error) {
	if criteria.WorkspaceID == "" {
		return nil, fmt.Errorf("%w: workspace_id requerido", domain.ErrInvalidInput)
	}
	criteria.Limit = uc.pages.clamp(criteria.Limit)
	if criteria.Offset < 0 {
		criteria.Offset = 0
	}

	list, err := uc.movements.Search(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("search movements: %w", err)
	}
	total, err := uc.movements.Count(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("count movements: %w", err)
	}

	enricher := uc.newEnricher()
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		resp := ToMovementResponse(m)
		enricher.movement(ctx, &resp)
		items = append(items, resp)
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: criteria.Limit, Offset: criteria.Offset, Total: total},
	}, nil
}

// GetMovement devuelve un movimiento del workspace; ErrNotFound si no existe o es de otro workspace.
func (uc *LedgerQueryUseCase) GetMovement(ctx context.Context, workspaceID, id string) (*dto.MovementResponse, error) {
	m, err := uc.movements.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get movement: %w", err)
	}
	if m == nil || m.WorkspaceID != workspaceID {
		return nil, domain.ErrNotFound
	}
	resp := ToMovementResponse(m)
	uc.newEnricher().movement(ctx, &resp)
	return &resp, nil
}

// GetStock saldo del ítem en la ubicación; ErrNotFound si nunca hubo movimientos.
func (uc *LedgerQueryUseCase) GetStock(ctx context.Context, workspaceID, itemID, locationID string) (*dto.StockItemResponse, error) {
	if itemID == "" || locationID == "" {
		return nil, fmt.Errorf("%w: item_id y location_id son requeridos", domain.ErrInvalidInput)
	}
	stock, err := uc.stocks.FindByItemAndLocation(ctx, workspaceID, itemID, locationID)
	if err != nil {
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	if sameWorkspace(stock, workspaceID) == nil {
		return nil, domain.ErrNotFound
	}
	resp := ToStockItemResponse(stock)
	info := uc.newEnricher().item(ctx, stock.ItemID)
	if info != nil {
		resp.ItemName = info.name
		resp.SKU = info.sku
		resp.UnitName = info.unit
	}
	return &resp, nil
}

type itemLabels struct {
	name string
	sku  string
	unit string
}

// enricher cachea las consultas al catálogo durante una misma respuesta.
type enricher struct {
	uc    *LedgerQueryUseCase
	items map[string]*itemLabels
}

func (uc *LedgerQueryUseCase) newEnricher() *enricher {
	return &enricher{uc: uc, items: map[string]*itemLabels{}}
}

func (e *enricher) movement(ctx context.Context, resp *dto.MovementResponse) {
	if l := e.item(ctx, resp.ItemID); l != nil {
		resp.ItemName = l.name
		resp.SKU = l.sku
		resp.UnitName = l.unit
	}
}

func (e *enricher) item(ctx context.Context, itemID string) *itemLabels {
	if l, ok := e.items[itemID]; ok {
		return l
	}
	var labels *itemLabels
	if e.uc.catalog != nil {
		info, err := e.uc.catalog.GetItemInfo(ctx, itemID)
		if err != nil {
			e.uc.log.Warn().Err(err).Str("item_id", itemID).Msg("catálogo no disponible, respuesta sin enriquecer")
		} else if info != nil {
			labels = &itemLabels{name: info.Name, sku: info.SKU}
			if e.uc.units != nil && info.UnitID != "" {
				unit, err := e.uc.units.GetUnitName(ctx, info.UnitID)
				if err != nil {
					e.uc.log.Warn().Err(err).Str("unit_id", info.UnitID).Msg("unidad no disponible")
				} else {
					labels.unit = unit
				}
			}
		}
	}
	e.items[itemID] = labels
	return labels
}

// ToMovementResponse mapea la entidad al DTO (sin enriquecimiento).
func ToMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:                    m.ID,
		WorkspaceID:           m.WorkspaceID,
		Type:                  m.Type.String(),
		Status:                m.Status.String(),
		ItemID:                m.ItemID,
		LocationID:            m.LocationID,
		Quantity:              m.Quantity,
		SignedQuantity:        m.SignedQuantity(),
		BalanceAfter:          m.BalanceAfter,
		LotID:                 m.LotID,
		LotNumber:             m.LotNumber,
		SourceLocationID:      m.SourceLocationID,
		DestinationLocationID: m.DestinationLocationID,
		ReferenceType:         m.ReferenceType,
		ReferenceID:           m.ReferenceID,
		Reason:                m.Reason,
		FailureReason:         m.FailureReason,
		Metadata:              m.Metadata,
		CreatedBy:             m.CreatedBy,
		CreatedAt:             m.CreatedAt,
		ProcessedAt:           m.ProcessedAt,
	}
}

// ToStockItemResponse mapea el saldo al DTO con Available derivado.
func ToStockItemResponse(s *entity.StockItem) dto.StockItemResponse {
	return dto.StockItemResponse{
		ID:               s.ID,
		WorkspaceID:      s.WorkspaceID,
		ItemID:           s.ItemID,
		LocationID:       s.LocationID,
		LotID:            s.LotID,
		Quantity:         s.Quantity,
		ReservedQuantity: s.ReservedQuantity,
		Available:        s.AvailableQuantity(),
		ExpirationDate:   s.ExpirationDate,
		UpdatedAt:        s.UpdatedAt,
	}
}

// ToProcessResultResponse mapea el resultado de Process al DTO HTTP.
func ToProcessResultResponse(r *ProcessResult) dto.ProcessResultResponse {
	resp := dto.ProcessResultResponse{
		Success:         r.Success,
		PreviousBalance: r.PreviousBalance,
		NewBalance:      r.NewBalance,
		Delta:           r.Delta,
		Errors:          ToValidationErrors(r.Validation),
	}
	if r.Movement != nil {
		resp.Movement = ToMovementResponse(r.Movement)
	}
	return resp
}

// ToValidationErrors lista de errores de validación para respuestas.
func ToValidationErrors(v inventory.ValidationResult) []dto.ValidationErrorDTO {
	out := make([]dto.ValidationErrorDTO, 0, len(v.Errors))
	for _, e := range v.Errors {
		item := dto.ValidationErrorDTO{Code: string(e.Code), Message: e.Message}
		if e.Capacity != nil {
			item.Capacity = e.Capacity
		}
		out = append(out, item)
	}
	return out
}
