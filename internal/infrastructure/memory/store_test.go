package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ctx = context.Background()
	now = time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
)

func stock(item, loc, qty string) entity.StockItem {
	s := entity.NewStockItem("ws-1", item, loc, now)
	s.Quantity = decimal.RequireFromString(qty)
	return s
}

func TestTxRunner_RollbackDescartaTodo(t *testing.T) {
	store := memory.NewStore()
	runner := memory.NewTxRunner(store)
	boom := errors.New("falla")

	err := runner.Run(ctx, func(tx inventory.TxStores) error {
		require.NoError(t, tx.Stocks.Save(ctx, stock("item-1", "loc-1", "5")))
		m, err := entity.NewMovement(entity.MovementInput{
			WorkspaceID: "ws-1", Type: entity.MovementTypeReceipt, ItemID: "item-1", LocationID: "loc-1",
			Quantity: decimal.NewFromInt(5),
		}, now)
		require.NoError(t, err)
		require.NoError(t, tx.Movements.Save(ctx, m))

		// Dentro de la tx se leen las escrituras propias.
		got, err := tx.Stocks.FindByItemAndLocation(ctx, "ws-1", "item-1", "loc-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Stocks().FindByItemAndLocation(ctx, "ws-1", "item-1", "loc-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	n, err := store.Movements().Count(ctx, repository.MovementCriteria{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTxRunner_CommitAplica(t *testing.T) {
	store := memory.NewStore()
	err := memory.NewTxRunner(store).Run(ctx, func(tx inventory.TxStores) error {
		return tx.Stocks.Save(ctx, stock("item-1", "loc-1", "5"))
	})
	require.NoError(t, err)

	got, err := store.Stocks().FindByItemAndLocation(ctx, "ws-1", "item-1", "loc-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, decimal.NewFromInt(5).Equal(got.Quantity))
}

func TestTxRunner_BloqueoDeFilaSerializa(t *testing.T) {
	store := memory.NewStore()
	runner := memory.NewTxRunner(store)

	locked := make(chan struct{})
	releaseFirst := make(chan struct{})
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_ = runner.Run(ctx, func(tx inventory.TxStores) error {
			if _, err := tx.Stocks.FindByItemAndLocationForUpdate(ctx, "ws-1", "item-1", "loc-1"); err != nil {
				return err
			}
			close(locked)
			<-releaseFirst
			return tx.Stocks.Save(ctx, stock("item-1", "loc-1", "7"))
		})
	}()
	<-locked

	seen := make(chan *entity.StockItem, 1)
	go func() {
		_ = runner.Run(ctx, func(tx inventory.TxStores) error {
			s, err := tx.Stocks.FindByItemAndLocationForUpdate(ctx, "ws-1", "item-1", "loc-1")
			seen <- s
			return err
		})
	}()

	select {
	case <-seen:
		t.Fatal("la segunda tx no debió obtener el bloqueo")
	case <-time.After(50 * time.Millisecond):
	}
	close(releaseFirst)
	<-firstDone

	select {
	case s := <-seen:
		require.NotNil(t, s, "la segunda tx ve lo confirmado por la primera")
		assert.True(t, decimal.NewFromInt(7).Equal(s.Quantity))
	case <-time.After(2 * time.Second):
		t.Fatal("la segunda tx quedó bloqueada")
	}
}

func TestTxRunner_LoteDuplicadoAlConfirmar(t *testing.T) {
	store := memory.NewStore()
	runner := memory.NewTxRunner(store)
	lot := func(id string) entity.Lot {
		return entity.Lot{ID: id, WorkspaceID: "ws-1", ItemID: "item-1", LotNumber: "L-1", Status: entity.LotStatusActive}
	}

	inFirst := make(chan struct{})
	proceed := make(chan struct{})
	errs := make(chan error, 1)
	go func() {
		errs <- runner.Run(ctx, func(tx inventory.TxStores) error {
			if err := tx.Lots.Save(ctx, lot("a")); err != nil {
				return err
			}
			close(inFirst)
			<-proceed
			return nil
		})
	}()
	<-inFirst
	require.NoError(t, runner.Run(ctx, func(tx inventory.TxStores) error {
		return tx.Lots.Save(ctx, lot("b"))
	}))
	close(proceed)
	assert.ErrorIs(t, <-errs, domain.ErrDuplicate)

	// Fuera de tx el duplicado se detecta al guardar.
	assert.ErrorIs(t, store.Lots().Save(ctx, lot("c")), domain.ErrDuplicate)
}

func TestMovementRepo_DevuelveCopias(t *testing.T) {
	store := memory.NewStore()
	m, err := entity.NewMovement(entity.MovementInput{
		WorkspaceID: "ws-1", Type: entity.MovementTypeCount, ItemID: "item-1", LocationID: "loc-1",
		Quantity: decimal.NewFromInt(1), Metadata: map[string]any{"origen": "conteo"},
	}, now)
	require.NoError(t, err)
	require.NoError(t, store.Movements().Save(ctx, m))

	m.Metadata["origen"] = "modificado"
	got, err := store.Movements().FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "conteo", got.Metadata["origen"])

	got.Reason = "otro"
	again, err := store.Movements().FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Reason)
}

func TestMovementRepo_CompletadoEsInmutable(t *testing.T) {
	store := memory.NewStore()
	m, err := entity.NewMovement(entity.MovementInput{
		WorkspaceID: "ws-1", Type: entity.MovementTypeReceipt, ItemID: "item-1", LocationID: "loc-1",
		Quantity: decimal.NewFromInt(2),
	}, now)
	require.NoError(t, err)
	require.NoError(t, m.WithBalanceAfter(decimal.NewFromInt(2)))
	require.NoError(t, m.Complete(now))
	require.NoError(t, store.Movements().Save(ctx, m))

	m.Reason = "reescrito"
	assert.ErrorIs(t, store.Movements().Save(ctx, m), domain.ErrConflict)

	err = memory.NewTxRunner(store).Run(ctx, func(tx inventory.TxStores) error {
		return tx.Movements.Save(ctx, m)
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := store.Movements().FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Reason)
}

func TestMovementRepo_OrdenYFiltros(t *testing.T) {
	store := memory.NewStore()
	for i, mt := range []entity.MovementType{entity.MovementTypeReceipt, entity.MovementTypeShipment, entity.MovementTypeReceipt} {
		m, err := entity.NewMovement(entity.MovementInput{
			WorkspaceID: "ws-1", Type: mt, ItemID: "item-1", LocationID: "loc-1",
			Quantity: decimal.NewFromInt(int64(i + 1)),
		}, now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, store.Movements().Save(ctx, m))
	}

	list, err := store.Movements().Search(ctx, repository.MovementCriteria{WorkspaceID: "ws-1", SortDesc: true})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, decimal.NewFromInt(3).Equal(list[0].Quantity))

	list, err = store.Movements().Search(ctx, repository.MovementCriteria{Type: entity.MovementTypeReceipt, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, decimal.NewFromInt(3).Equal(list[0].Quantity))

	from := now.Add(30 * time.Second)
	n, err := store.Movements().Count(ctx, repository.MovementCriteria{From: &from})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLocationRepo_DescendientesConCiclo(t *testing.T) {
	store := memory.NewStore()
	store.PutLocation(entity.Location{ID: "wh", WorkspaceID: "ws-1"})
	store.PutLocation(entity.Location{ID: "z1", WorkspaceID: "ws-1", ParentID: "wh"})
	store.PutLocation(entity.Location{ID: "s1", WorkspaceID: "ws-1", ParentID: "z1"})
	store.PutLocation(entity.Location{ID: "x", WorkspaceID: "ws-1", ParentID: "y"})
	store.PutLocation(entity.Location{ID: "y", WorkspaceID: "ws-1", ParentID: "x"})

	ids, err := store.Locations().GetDescendantIDs(ctx, "wh")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"z1", "s1"}, ids)

	ids, err = store.Locations().GetDescendantIDs(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, ids)
}

func TestStockItemRepo_Agregados(t *testing.T) {
	store := memory.NewStore()
	a := stock("item-b", "loc-1", "4")
	a.LotID = "lot-1"
	store.PutStock(a)
	store.PutStock(stock("item-a", "loc-2", "6"))
	store.PutStock(stock("item-c", "loc-2", "0"))
	store.PutStock(stock("item-z", "loc-3", "100"))

	repo := store.Stocks()
	locs := []string{"loc-1", "loc-2"}

	total, err := repo.SumQuantityByLocations(ctx, "ws-1", locs)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(total))

	items, err := repo.DistinctItemsByLocations(ctx, "ws-1", locs)
	require.NoError(t, err)
	assert.Equal(t, []string{"item-a", "item-b"}, items)

	lots, err := repo.DistinctLotsByLocations(ctx, "ws-1", locs)
	require.NoError(t, err)
	assert.Equal(t, []string{"lot-1"}, lots)

	total, err = repo.SumQuantityByLocations(ctx, "ws-2", locs)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestStockItemRepo_RechazaSaldoInvalido(t *testing.T) {
	store := memory.NewStore()
	bad := stock("item-1", "loc-1", "1")
	bad.ReservedQuantity = decimal.NewFromInt(2)
	assert.Error(t, store.Stocks().Save(ctx, bad))
}
