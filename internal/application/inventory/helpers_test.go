package inventory_test

import (
	"context"
	"testing"
	"time"

	appinv "github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const ws = "ws-1"

var now = time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

type fixture struct {
	store    *memory.Store
	capacity *appinv.CapacityService
	svc      *appinv.MovementService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	capacity := appinv.NewCapacityService(store.Settings(), store.Locations(), store.Stocks(), store.Catalog(), zerolog.Nop())
	svc := appinv.NewMovementService(
		memory.NewTxRunner(store), store.Stocks(), store.Lots(), capacity, zerolog.Nop(),
		appinv.WithClock(func() time.Time { return now }),
	)
	return &fixture{store: store, capacity: capacity, svc: svc}
}

// seed deja un saldo (cantidad, reservado) sin pasar por el motor.
func (f *fixture) seed(itemID, locationID, qty, reserved string) {
	s := entity.NewStockItem(ws, itemID, locationID, now)
	s.Quantity = d(qty)
	s.ReservedQuantity = d(reserved)
	f.store.PutStock(s)
}

func (f *fixture) stock(t *testing.T, itemID, locationID string) *entity.StockItem {
	t.Helper()
	s, err := f.store.Stocks().FindByItemAndLocation(context.Background(), ws, itemID, locationID)
	require.NoError(t, err)
	return s
}

func (f *fixture) location(id, parent string) {
	f.store.PutLocation(entity.Location{ID: id, WorkspaceID: ws, ParentID: parent, Name: id})
}

func newMovement(t *testing.T, mt entity.MovementType, itemID, locationID, qty string, opts ...func(*entity.MovementInput)) *entity.Movement {
	t.Helper()
	in := entity.MovementInput{
		WorkspaceID: ws,
		Type:        mt,
		ItemID:      itemID,
		LocationID:  locationID,
		Quantity:    d(qty),
	}
	for _, o := range opts {
		o(&in)
	}
	m, err := entity.NewMovement(in, now)
	require.NoError(t, err)
	return m
}

func withLot(number string) func(*entity.MovementInput) {
	return func(in *entity.MovementInput) { in.LotNumber = number }
}

func withExpiration(at time.Time) func(*entity.MovementInput) {
	return func(in *entity.MovementInput) { in.ExpirationDate = &at }
}

func withMetadata(k string, v any) func(*entity.MovementInput) {
	return func(in *entity.MovementInput) {
		if in.Metadata == nil {
			in.Metadata = map[string]any{}
		}
		in.Metadata[k] = v
	}
}
