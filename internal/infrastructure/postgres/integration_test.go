package postgres_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/bootstrap"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// dockerAvailable testcontainers puede entrar en pánico si no encuentra el daemon.
func dockerAvailable() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// startPostgres levanta un PostgreSQL efímero con el esquema aplicado.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("test de integración omitido en modo -short")
	}
	if !dockerAvailable() {
		t.Skip("docker no disponible")
	}
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("stock_ledger"),
		tcpostgres.WithUsername("ledger"),
		tcpostgres.WithPassword("ledger"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := postgres.NewPoolFromDSN(ctx, dsn, 20)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.ApplySchema(ctx, pool))
	require.NoError(t, postgres.ApplySchema(ctx, pool), "el esquema es idempotente")
	return pool
}

func services(pool *pgxpool.Pool) *bootstrap.Services {
	log := logger.New(logger.Config{Env: "test", Level: "error", Out: io.Discard})
	return bootstrap.NewPostgresServices(pool, config.LedgerConfig{DefaultPageSize: 20, MaxPageSize: 100}, log)
}

func newMovement(t *testing.T, mt entity.MovementType, itemID, locationID, qty string) *entity.Movement {
	t.Helper()
	m, err := entity.NewMovement(entity.MovementInput{
		WorkspaceID: "ws-1",
		Type:        mt,
		ItemID:      itemID,
		LocationID:  locationID,
		Quantity:    decimal.RequireFromString(qty),
		CreatedBy:   "it",
	}, time.Now())
	require.NoError(t, err)
	return m
}

func TestPostgres_Ledger(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	svc := services(pool)

	locations := postgres.NewLocationRepository(pool)
	settings := postgres.NewLocationSettingsRepository(pool)
	catalog := postgres.NewCatalogRepository(pool)

	require.NoError(t, locations.Save(ctx, entity.Location{ID: "bodega", WorkspaceID: "ws-1", Name: "Bodega"}))
	require.NoError(t, locations.Save(ctx, entity.Location{ID: "estante", WorkspaceID: "ws-1", ParentID: "bodega", Name: "Estante"}))
	require.NoError(t, catalog.SaveUnit(ctx, "kg", "Kilogramo"))
	require.NoError(t, catalog.SaveItem(ctx, "ws-1", entity.ItemInfo{ID: "it-1", SKU: "SKU-1", Name: "Harina", UnitID: "kg"}))
	maxQty := decimal.NewFromInt(10)
	require.NoError(t, settings.Save(ctx, entity.LocationStockSettings{
		LocationID: "bodega", WorkspaceID: "ws-1", MaxQuantity: &maxQty,
		AllowMixedLots: true, AllowMixedSKUs: true, Active: true,
	}))

	t.Run("entrada y salida actualizan saldo y ledger", func(t *testing.T) {
		res, err := svc.Movements.Process(ctx, newMovement(t, entity.MovementTypeReceipt, "it-1", "estante", "4.5"))
		require.NoError(t, err)
		require.True(t, res.Success, res.Errors())

		res, err = svc.Movements.Process(ctx, newMovement(t, entity.MovementTypeShipment, "it-1", "estante", "1.5"))
		require.NoError(t, err)
		require.True(t, res.Success, res.Errors())
		assert.True(t, res.NewBalance.Equal(decimal.NewFromInt(3)))

		stock, err := svc.Query.GetStock(ctx, "ws-1", "it-1", "estante")
		require.NoError(t, err)
		assert.True(t, stock.Quantity.Equal(decimal.NewFromInt(3)))
		assert.Equal(t, "Kilogramo", stock.UnitName)
	})

	t.Run("rechazo persistido como FAILED", func(t *testing.T) {
		m := newMovement(t, entity.MovementTypeShipment, "it-1", "estante", "50")
		res, err := svc.Movements.Process(ctx, m)
		require.NoError(t, err)
		require.False(t, res.Success)
		require.NoError(t, svc.Movements.RecordFailure(ctx, m, res.Validation))

		page, err := svc.Query.SearchMovements(ctx, repository.MovementCriteria{WorkspaceID: "ws-1", Status: entity.MovementStatusFailed})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.NotEmpty(t, page.Items[0].FailureReason)
	})

	t.Run("capacidad del árbol bajo concurrencia", func(t *testing.T) {
		// bodega admite 10 en total y estante ya tiene 3.
		var (
			wg sync.WaitGroup
			mu sync.Mutex
			ok int
		)
		for i := 0; i < 12; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := svc.Movements.Process(ctx, newMovement(t, entity.MovementTypeReceipt, "it-1", "bodega", "1"))
				if err == nil && res.Success {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 7, ok)

		stats, err := svc.Capacity.GetCapacityStats(ctx, "ws-1", "bodega")
		require.NoError(t, err)
		assert.True(t, stats.CurrentQuantity.Equal(maxQty))
		assert.Equal(t, 2, stats.LocationCount)
	})

	t.Run("lote materializado una sola vez", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			m, err := entity.NewMovement(entity.MovementInput{
				WorkspaceID: "ws-1", Type: entity.MovementTypeReceipt, ItemID: "it-2", LocationID: "muelle",
				Quantity: decimal.NewFromInt(2), LotNumber: "L-1",
			}, time.Now())
			require.NoError(t, err)
			res, err := svc.Movements.Process(ctx, m)
			require.NoError(t, err)
			require.True(t, res.Success, res.Errors())
		}
		lot, err := postgres.NewLotRepository(pool).FindByLotNumber(ctx, "ws-1", "it-2", "L-1")
		require.NoError(t, err)
		require.NotNil(t, lot)

		var count int
		require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM lots WHERE item_id = 'it-2'`).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("traslado atómico", func(t *testing.T) {
		res, err := svc.Movements.ProcessTransfer(ctx, inventory.TransferInput{
			WorkspaceID: "ws-1", ItemID: "it-2", FromLocationID: "muelle", ToLocationID: "patio",
			Quantity: decimal.NewFromInt(3), CreatedBy: "it",
		})
		require.NoError(t, err)
		require.True(t, res.Success)

		res, err = svc.Movements.ProcessTransfer(ctx, inventory.TransferInput{
			WorkspaceID: "ws-1", ItemID: "it-2", FromLocationID: "muelle", ToLocationID: "patio",
			Quantity: decimal.NewFromInt(5),
		})
		require.NoError(t, err)
		assert.False(t, res.Success)

		muelle, err := svc.Query.GetStock(ctx, "ws-1", "it-2", "muelle")
		require.NoError(t, err)
		patio, err := svc.Query.GetStock(ctx, "ws-1", "it-2", "patio")
		require.NoError(t, err)
		assert.True(t, muelle.Quantity.Equal(decimal.NewFromInt(1)))
		assert.True(t, patio.Quantity.Equal(decimal.NewFromInt(3)))
	})

	t.Run("kardex desde el ledger persistido", func(t *testing.T) {
		report, err := svc.Reports.BuildKardex(ctx, "ws-1", "it-1", "estante", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "SKU-1", report.SKU)
		assert.Len(t, report.Lines, 2)
		assert.True(t, report.ClosingBalance.Equal(decimal.NewFromInt(3)))
	})

	t.Run("cantidades sin redondeo", func(t *testing.T) {
		var last *inventory.ProcessResult
		for _, qty := range []string{"1.0000004", "0.0000004"} {
			res, err := svc.Movements.Process(ctx, newMovement(t, entity.MovementTypeReceipt, "it-3", "rampa", qty))
			require.NoError(t, err)
			require.True(t, res.Success, res.Errors())
			last = res
		}
		want := decimal.RequireFromString("1.0000008")
		assert.True(t, last.NewBalance.Equal(want), last.NewBalance.String())

		stock, err := svc.Query.GetStock(ctx, "ws-1", "it-3", "rampa")
		require.NoError(t, err)
		assert.True(t, stock.Quantity.Equal(want), stock.Quantity.String())

		stored, err := svc.Query.GetMovement(ctx, "ws-1", last.Movement.ID)
		require.NoError(t, err)
		assert.True(t, stored.Quantity.Equal(decimal.RequireFromString("0.0000004")), stored.Quantity.String())
		require.NotNil(t, stored.BalanceAfter)
		assert.True(t, stored.BalanceAfter.Equal(want), stored.BalanceAfter.String())
	})

	t.Run("kardex en orden de aplicación", func(t *testing.T) {
		early := newMovement(t, entity.MovementTypeReceipt, "it-4", "rampa", "5")
		early.CreatedAt = early.CreatedAt.Add(-time.Hour)
		late := newMovement(t, entity.MovementTypeReceipt, "it-4", "rampa", "10")
		for _, m := range []*entity.Movement{late, early} {
			res, err := svc.Movements.Process(ctx, m)
			require.NoError(t, err)
			require.True(t, res.Success, res.Errors())
		}

		report, err := svc.Reports.BuildKardex(ctx, "ws-1", "it-4", "rampa", nil, nil)
		require.NoError(t, err)
		require.Len(t, report.Lines, 2)
		assert.True(t, report.OpeningBalance.IsZero())
		assert.True(t, report.Lines[0].Balance.Equal(decimal.NewFromInt(10)))
		assert.True(t, report.Lines[1].Balance.Equal(decimal.NewFromInt(15)))

		from := time.Now().Add(24 * time.Hour)
		report, err = svc.Reports.BuildKardex(ctx, "ws-1", "it-4", "rampa", &from, nil)
		require.NoError(t, err)
		assert.Empty(t, report.Lines)
		assert.True(t, report.OpeningBalance.Equal(decimal.NewFromInt(15)), report.OpeningBalance.String())
		assert.True(t, report.ClosingBalance.Equal(decimal.NewFromInt(15)))
	})

	t.Run("varios lotes en el mismo saldo", func(t *testing.T) {
		lots := postgres.NewLotRepository(pool)
		for _, number := range []string{"A", "B"} {
			m, err := entity.NewMovement(entity.MovementInput{
				WorkspaceID: "ws-1", Type: entity.MovementTypeReceipt, ItemID: "it-5", LocationID: "silo",
				Quantity: decimal.NewFromInt(4), LotNumber: number,
			}, time.Now())
			require.NoError(t, err)
			res, err := svc.Movements.Process(ctx, m)
			require.NoError(t, err)
			require.True(t, res.Success, res.Errors())
		}
		lotA, err := lots.FindByLotNumber(ctx, "ws-1", "it-5", "A")
		require.NoError(t, err)
		lotB, err := lots.FindByLotNumber(ctx, "ws-1", "it-5", "B")
		require.NoError(t, err)

		repo := postgres.NewStockItemRepository(pool)
		ids, err := repo.DistinctLotsByLocations(ctx, "ws-1", []string{"silo"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{lotA.ID, lotB.ID}, ids)

		m, err := entity.NewMovement(entity.MovementInput{
			WorkspaceID: "ws-1", Type: entity.MovementTypeShipment, ItemID: "it-5", LocationID: "silo",
			Quantity: decimal.NewFromInt(4), LotNumber: "A",
		}, time.Now())
		require.NoError(t, err)
		res, err := svc.Movements.Process(ctx, m)
		require.NoError(t, err)
		require.True(t, res.Success, res.Errors())

		ids, err = repo.DistinctLotsByLocations(ctx, "ws-1", []string{"silo"})
		require.NoError(t, err)
		assert.Equal(t, []string{lotB.ID}, ids)
	})
}

func TestPostgres_DescendientesConCiclo(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	repo := postgres.NewLocationRepository(pool)

	require.NoError(t, repo.Save(ctx, entity.Location{ID: "a", WorkspaceID: "ws-1", Name: "A"}))
	require.NoError(t, repo.Save(ctx, entity.Location{ID: "b", WorkspaceID: "ws-1", ParentID: "a", Name: "B"}))
	require.NoError(t, repo.Save(ctx, entity.Location{ID: "c", WorkspaceID: "ws-1", ParentID: "b", Name: "C"}))
	_, err := pool.Exec(ctx, `UPDATE locations SET parent_id = 'c' WHERE id = 'a'`)
	require.NoError(t, err)

	ids, err := repo.GetDescendantIDs(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, ids)
}
