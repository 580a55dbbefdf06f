package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

// StockItemRepo saldos en memoria.
type StockItemRepo struct {
	v view
}

func (r *StockItemRepo) FindByItemAndLocation(_ context.Context, workspaceID, itemID, locationID string) (*entity.StockItem, error) {
	st, ok := r.v.stock(stockKey{workspaceID, itemID, locationID})
	if !ok {
		return nil, nil
	}
	return &st, nil
}

// FindByItemAndLocationForUpdate dentro de una tx bloquea el par (ítem, ubicación)
// hasta que la tx termina, exista o no el saldo.
func (r *StockItemRepo) FindByItemAndLocationForUpdate(ctx context.Context, workspaceID, itemID, locationID string) (*entity.StockItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.v.tx != nil {
		r.v.tx.lock(r.v.s.rowLocks, "stock:"+workspaceID+"|"+itemID+"|"+locationID)
	}
	return r.FindByItemAndLocation(ctx, workspaceID, itemID, locationID)
}

func (r *StockItemRepo) Save(_ context.Context, item entity.StockItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if r.v.tx != nil {
		r.v.tx.stocks[keyOf(item)] = item
		return nil
	}
	r.v.s.PutStock(item)
	return nil
}

func (r *StockItemRepo) SumQuantityByLocations(ctx context.Context, workspaceID string, locationIDs []string) (decimal.Decimal, error) {
	list, err := r.ListByLocations(ctx, workspaceID, locationIDs)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, st := range list {
		total = total.Add(st.Quantity)
	}
	return total, nil
}

func (r *StockItemRepo) DistinctItemsByLocations(ctx context.Context, workspaceID string, locationIDs []string) ([]string, error) {
	return r.distinct(ctx, workspaceID, locationIDs, func(st entity.StockItem) string { return st.ItemID })
}

// DistinctLotsByLocations lotes con saldo neto positivo en el ledger de cada par con stock;
// el lot_id del saldo cuenta solo si el ledger no tiene movimientos de ese lote en el par.
func (r *StockItemRepo) DistinctLotsByLocations(ctx context.Context, workspaceID string, locationIDs []string) ([]string, error) {
	list, err := r.ListByLocations(ctx, workspaceID, locationIDs)
	if err != nil {
		return nil, err
	}
	type pairLot struct {
		pair  stockKey
		lotID string
	}
	held := map[stockKey]string{}
	for _, st := range list {
		if st.Quantity.IsPositive() {
			held[keyOf(st)] = st.LotID
		}
	}
	net := map[pairLot]decimal.Decimal{}
	for _, sm := range r.v.allMovements() {
		m := sm.m
		k := stockKey{m.WorkspaceID, m.ItemID, m.LocationID}
		if _, ok := held[k]; !ok || m.Status != entity.MovementStatusCompleted || m.LotID == "" {
			continue
		}
		pl := pairLot{k, m.LotID}
		net[pl] = net[pl].Add(m.SignedQuantity())
	}

	seen := map[string]struct{}{}
	for pl, qty := range net {
		if qty.IsPositive() {
			seen[pl.lotID] = struct{}{}
		}
	}
	for k, lotID := range held {
		if _, inLedger := net[pairLot{k, lotID}]; lotID != "" && !inLedger {
			seen[lotID] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (r *StockItemRepo) distinct(ctx context.Context, workspaceID string, locationIDs []string, field func(entity.StockItem) string) ([]string, error) {
	list, err := r.ListByLocations(ctx, workspaceID, locationIDs)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var out []string
	for _, st := range list {
		id := field(st)
		if id == "" || !st.Quantity.IsPositive() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (r *StockItemRepo) ListByLocations(ctx context.Context, workspaceID string, locationIDs []string) ([]entity.StockItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wanted := make(map[string]struct{}, len(locationIDs))
	for _, id := range locationIDs {
		wanted[id] = struct{}{}
	}
	var out []entity.StockItem
	for _, st := range r.v.allStocks() {
		if st.WorkspaceID != workspaceID {
			continue
		}
		if _, ok := wanted[st.LocationID]; ok {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LocationID != out[j].LocationID {
			return out[i].LocationID < out[j].LocationID
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}
