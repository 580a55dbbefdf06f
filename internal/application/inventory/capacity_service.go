package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// CapacityRequest stock que se quiere admitir en una ubicación.
// ItemType es opcional; si viene vacío se busca en el catálogo.
type CapacityRequest struct {
	WorkspaceID string
	LocationID  string
	Quantity    decimal.Decimal
	ItemID      string
	ItemType    string
	LotID       string
}

// CapacityStats resumen de ocupación de una ubicación y sus descendientes.
type CapacityStats struct {
	LocationID        string           `json:"location_id"`
	CurrentQuantity   decimal.Decimal  `json:"current_quantity"`
	MaxQuantity       *decimal.Decimal `json:"max_quantity,omitempty"`
	AvailableQuantity *decimal.Decimal `json:"available_quantity,omitempty"` // nil = sin límite
	PercentageUsed    decimal.Decimal  `json:"percentage_used"`
	UniqueItems       int              `json:"unique_items"`
	LocationCount     int              `json:"location_count"`
	Active            bool             `json:"active"`
}

// CapacityService control de admisión jerárquico: decide si una ubicación (y su árbol)
// puede recibir más stock. La suma del árbol no se bloquea; ver MovementService.Process.
type CapacityService struct {
	settings  repository.LocationSettingsRepository
	locations repository.LocationRepository
	stocks    repository.StockItemRepository
	catalog   repository.CatalogGateway // opcional
	log       zerolog.Logger
}

// NewCapacityService construye el servicio. catalog puede ser nil.
func NewCapacityService(
	settings repository.LocationSettingsRepository,
	locations repository.LocationRepository,
	stocks repository.StockItemRepository,
	catalog repository.CatalogGateway,
	log zerolog.Logger,
) *CapacityService {
	return &CapacityService{
		settings:  settings,
		locations: locations,
		stocks:    stocks,
		catalog:   catalog,
		log:       log,
	}
}

// withStocks copia del servicio leyendo saldos desde otro repositorio (p. ej. atado a una tx).
func (s *CapacityService) withStocks(stocks repository.StockItemRepository) *CapacityService {
	cp := *s
	cp.stocks = stocks
	return &cp
}

// CanAcceptStock evalúa la política de la ubicación en orden:
// sin política → válido; inactiva; tipo de ítem; cantidad máxima del árbol;
// peso máximo; mezcla de ítems; mezcla de lotes.
func (s *CapacityService) CanAcceptStock(ctx context.Context, req CapacityRequest) (inventory.CapacityValidationResult, error) {
	settings, err := s.settings.FindByLocationID(ctx, req.LocationID)
	if err != nil {
		return inventory.CapacityValidationResult{}, fmt.Errorf("capacity settings: %w", err)
	}
	if settings == nil {
		return inventory.CapacityOK(), nil
	}
	if !settings.Active {
		return inventory.NewLocationNotActive(req.LocationID), nil
	}

	var info *entity.ItemInfo
	if (req.ItemType == "" && len(settings.AllowedItemTypes) > 0) || settings.MaxWeight != nil {
		info = s.itemInfo(ctx, req.ItemID)
	}

	if len(settings.AllowedItemTypes) > 0 {
		itemType := req.ItemType
		if itemType == "" && info != nil {
			itemType = info.ItemType
		}
		if !settings.AllowsItemType(itemType) {
			return inventory.NewItemTypeNotAllowed(req.LocationID, itemType, settings.AllowedItemTypes), nil
		}
	}

	tree, err := s.treeIDs(ctx, req.LocationID)
	if err != nil {
		return inventory.CapacityValidationResult{}, err
	}

	if settings.MaxQuantity != nil {
		current, err := s.stocks.SumQuantityByLocations(ctx, req.WorkspaceID, tree)
		if err != nil {
			return inventory.CapacityValidationResult{}, fmt.Errorf("capacity tree sum: %w", err)
		}
		if current.Add(req.Quantity).GreaterThan(*settings.MaxQuantity) {
			return inventory.NewExceedsMaxQuantity(req.LocationID, current, req.Quantity, *settings.MaxQuantity), nil
		}
	}

	// Solo se evalúa si el catálogo conoce el peso unitario del ítem entrante.
	if settings.MaxWeight != nil && info != nil && info.UnitWeight != nil {
		current, err := s.treeWeight(ctx, req.WorkspaceID, tree)
		if err != nil {
			return inventory.CapacityValidationResult{}, err
		}
		requested := req.Quantity.Mul(*info.UnitWeight)
		if current.Add(requested).GreaterThan(*settings.MaxWeight) {
			return inventory.NewExceedsMaxWeight(req.LocationID, current, requested, *settings.MaxWeight), nil
		}
	}

	if !settings.AllowMixedSKUs && req.ItemID != "" {
		items, err := s.stocks.DistinctItemsByLocations(ctx, req.WorkspaceID, tree)
		if err != nil {
			return inventory.CapacityValidationResult{}, fmt.Errorf("capacity distinct items: %w", err)
		}
		if others := without(items, req.ItemID); len(others) > 0 {
			return inventory.NewMixedItemsNotAllowed(req.LocationID, req.ItemID, others), nil
		}
	}

	if !settings.AllowMixedLots && req.LotID != "" {
		lots, err := s.stocks.DistinctLotsByLocations(ctx, req.WorkspaceID, tree)
		if err != nil {
			return inventory.CapacityValidationResult{}, fmt.Errorf("capacity distinct lots: %w", err)
		}
		if others := without(lots, req.LotID); len(others) > 0 {
			return inventory.NewMixedLotsNotAllowed(req.LocationID, req.LotID, others), nil
		}
	}

	return inventory.CapacityOK(), nil
}

// GetAvailableCapacity cantidad que aún cabe en el árbol. nil = sin límite.
func (s *CapacityService) GetAvailableCapacity(ctx context.Context, workspaceID, locationID string) (*decimal.Decimal, error) {
	settings, err := s.settings.FindByLocationID(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("capacity settings: %w", err)
	}
	if settings == nil || settings.MaxQuantity == nil {
		return nil, nil
	}
	tree, err := s.treeIDs(ctx, locationID)
	if err != nil {
		return nil, err
	}
	current, err := s.stocks.SumQuantityByLocations(ctx, workspaceID, tree)
	if err != nil {
		return nil, fmt.Errorf("capacity tree sum: %w", err)
	}
	available := decimal.Max(settings.MaxQuantity.Sub(current), decimal.Zero)
	return &available, nil
}

// IsLocationFull true si la ubicación tiene máximo y el árbol ya lo alcanzó.
func (s *CapacityService) IsLocationFull(ctx context.Context, workspaceID, locationID string) (bool, error) {
	available, err := s.GetAvailableCapacity(ctx, workspaceID, locationID)
	if err != nil {
		return false, err
	}
	return available != nil && !available.IsPositive(), nil
}

// GetCapacityStats suma del árbol, ítems distintos y porcentaje de uso.
func (s *CapacityService) GetCapacityStats(ctx context.Context, workspaceID, locationID string) (CapacityStats, error) {
	stats := CapacityStats{LocationID: locationID, Active: true}

	settings, err := s.settings.FindByLocationID(ctx, locationID)
	if err != nil {
		return stats, fmt.Errorf("capacity settings: %w", err)
	}
	tree, err := s.treeIDs(ctx, locationID)
	if err != nil {
		return stats, err
	}
	stats.LocationCount = len(tree)

	var (
		current decimal.Decimal
		items   []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.stocks.SumQuantityByLocations(gctx, workspaceID, tree)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.stocks.DistinctItemsByLocations(gctx, workspaceID, tree)
		return err
	})
	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("capacity stats: %w", err)
	}

	stats.CurrentQuantity = current
	stats.UniqueItems = len(items)
	stats.PercentageUsed = decimal.Zero
	if settings != nil {
		stats.Active = settings.Active
		if settings.MaxQuantity != nil {
			maxQty := *settings.MaxQuantity
			available := decimal.Max(maxQty.Sub(current), decimal.Zero)
			stats.MaxQuantity = &maxQty
			stats.AvailableQuantity = &available
			if maxQty.IsPositive() {
				stats.PercentageUsed = current.Div(maxQty).Mul(decimal.NewFromInt(100)).Round(2)
			}
		}
	}
	return stats, nil
}

// treeIDs la ubicación más todos sus descendientes, sin repetidos.
func (s *CapacityService) treeIDs(ctx context.Context, locationID string) ([]string, error) {
	desc, err := s.locations.GetDescendantIDs(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("location descendants: %w", err)
	}
	seen := map[string]struct{}{locationID: {}}
	ids := []string{locationID}
	for _, id := range desc {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *CapacityService) treeWeight(ctx context.Context, workspaceID string, tree []string) (decimal.Decimal, error) {
	items, err := s.stocks.ListByLocations(ctx, workspaceID, tree)
	if err != nil {
		return decimal.Zero, fmt.Errorf("capacity tree weight: %w", err)
	}
	total := decimal.Zero
	weights := map[string]*decimal.Decimal{}
	for _, it := range items {
		w, ok := weights[it.ItemID]
		if !ok {
			if info := s.itemInfo(ctx, it.ItemID); info != nil {
				w = info.UnitWeight
			}
			weights[it.ItemID] = w
		}
		if w != nil {
			total = total.Add(it.Quantity.Mul(*w))
		}
	}
	return total, nil
}

// itemInfo consulta el catálogo; un fallo del catálogo no bloquea la admisión.
func (s *CapacityService) itemInfo(ctx context.Context, itemID string) *entity.ItemInfo {
	if s.catalog == nil || itemID == "" {
		return nil
	}
	info, err := s.catalog.GetItemInfo(ctx, itemID)
	if err != nil {
		s.log.Warn().Err(err).Str("item_id", itemID).Msg("catálogo no disponible para admisión")
		return nil
	}
	return info
}

func without(ids []string, id string) []string {
	var out []string
	for _, v := range ids {
		if v != id && v != "" {
			out = append(out, v)
		}
	}
	return out
}
