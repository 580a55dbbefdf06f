// Package bootstrap arma los servicios del ledger sobre un almacenamiento concreto.
package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Services casos de uso listos para el router HTTP y el CLI.
type Services struct {
	Movements *inventory.MovementService
	Capacity  *inventory.CapacityService
	Query     *inventory.LedgerQueryUseCase
	Reports   *inventory.LedgerReportUseCase
}

type stores struct {
	tx        inventory.TxRunner
	stocks    repository.StockItemRepository
	movements repository.MovementRepository
	lots      repository.LotRepository
	locations repository.LocationRepository
	settings  repository.LocationSettingsRepository
	catalog   repository.CatalogGateway
	units     repository.UnitGateway
}

// NewPostgresServices servicios sobre PostgreSQL.
func NewPostgresServices(pool *pgxpool.Pool, cfg config.LedgerConfig, log *logger.Logger) *Services {
	catalog := postgres.NewCatalogRepository(pool)
	return build(stores{
		tx:        postgres.NewTxRunner(pool),
		stocks:    postgres.NewStockItemRepository(pool),
		movements: postgres.NewMovementRepository(pool),
		lots:      postgres.NewLotRepository(pool),
		locations: postgres.NewLocationRepository(pool),
		settings:  postgres.NewLocationSettingsRepository(pool),
		catalog:   catalog,
		units:     catalog,
	}, cfg, log)
}

// NewMemoryServices servicios sobre el almacén en memoria (tests y demos).
func NewMemoryServices(store *memory.Store, cfg config.LedgerConfig, log *logger.Logger) *Services {
	return build(stores{
		tx:        memory.NewTxRunner(store),
		stocks:    store.Stocks(),
		movements: store.Movements(),
		lots:      store.Lots(),
		locations: store.Locations(),
		settings:  store.Settings(),
		catalog:   store.Catalog(),
		units:     store.Catalog(),
	}, cfg, log)
}

func build(s stores, cfg config.LedgerConfig, log *logger.Logger) *Services {
	capacity := inventory.NewCapacityService(s.settings, s.locations, s.stocks, s.catalog, log.Component("capacity"))
	return &Services{
		Movements: inventory.NewMovementService(s.tx, s.stocks, s.lots, capacity, log.Component("movements")),
		Capacity:  capacity,
		Query: inventory.NewLedgerQueryUseCase(s.movements, s.stocks, s.catalog, s.units,
			inventory.PageLimits{Default: cfg.DefaultPageSize, Max: cfg.MaxPageSize}, log.Component("ledger_query")),
		Reports: inventory.NewLedgerReportUseCase(s.movements, s.catalog, pdf.NewKardexPDFGenerator()),
	}
}
