package inventory_test

import (
	"context"
	"errors"
	"testing"

	appinv "github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalog implementa repository.CatalogGateway.
type MockCatalog struct{ mock.Mock }

func (m *MockCatalog) GetItemInfo(ctx context.Context, itemID string) (*entity.ItemInfo, error) {
	args := m.Called(ctx, itemID)
	info, _ := args.Get(0).(*entity.ItemInfo)
	return info, args.Error(1)
}

func newCapacity(store *memory.Store, catalog *MockCatalog) *appinv.CapacityService {
	return appinv.NewCapacityService(store.Settings(), store.Locations(), store.Stocks(), catalog, zerolog.Nop())
}

func putStock(store *memory.Store, itemID, locationID, qty string) {
	s := entity.NewStockItem(ws, itemID, locationID, now)
	s.Quantity = d(qty)
	store.PutStock(s)
}

func openSettings(locationID string) entity.LocationStockSettings {
	return entity.LocationStockSettings{
		LocationID: locationID, WorkspaceID: ws, Active: true, AllowMixedLots: true, AllowMixedSKUs: true,
	}
}

func TestCanAcceptStock_SinPoliticaEsValido(t *testing.T) {
	store := memory.NewStore()
	catalog := new(MockCatalog)
	svc := newCapacity(store, catalog)

	res, err := svc.CanAcceptStock(ctx, appinv.CapacityRequest{WorkspaceID: ws, LocationID: "libre", Quantity: d("1000000"), ItemID: "item-1"})
	require.NoError(t, err)
	assert.True(t, res.IsValid())
	catalog.AssertNotCalled(t, "GetItemInfo", mock.Anything, mock.Anything)
}

func TestCanAcceptStock_TipoDeItem(t *testing.T) {
	store := memory.NewStore()
	settings := openSettings("frio")
	settings.AllowedItemTypes = []string{"frozen", "chilled"}
	store.PutSettings(settings)

	catalog := new(MockCatalog)
	catalog.On("GetItemInfo", mock.Anything, "helado").Return(&entity.ItemInfo{ID: "helado", ItemType: "frozen"}, nil)
	catalog.On("GetItemInfo", mock.Anything, "tornillo").Return(&entity.ItemInfo{ID: "tornillo", ItemType: "hardware"}, nil)
	svc := newCapacity(store, catalog)

	res, err := svc.CanAcceptStock(ctx, appinv.CapacityRequest{WorkspaceID: ws, LocationID: "frio", Quantity: d("1"), ItemID: "helado"})
	require.NoError(t, err)
	assert.True(t, res.IsValid())

	res, err = svc.CanAcceptStock(ctx, appinv.CapacityRequest{WorkspaceID: ws, LocationID: "frio", Quantity: d("1"), ItemID: "tornillo"})
	require.NoError(t, err)
	require.Equal(t, inventory.CapacityItemTypeNotAllowed, res.Kind)
	assert.Equal(t, "hardware", res.ItemTypeRejected.ItemType)

	// El tipo explícito evita la consulta al catálogo.
	res, err = svc.CanAcceptStock(ctx, appinv.CapacityRequest{WorkspaceID: ws, LocationID: "frio", Quantity: d("1"), ItemID: "otro", ItemType: "chilled"})
	require.NoError(t, err)
	assert.True(t, res.IsValid())
	catalog.AssertNotCalled(t, "GetItemInfo", mock.Anything, "otro")
	catalog.AssertExpectations(t)
}

func TestCanAcceptStock_CatalogoCaidoNoBloqueaPeso(t *testing.T) {
	store := memory.NewStore()
	settings := openSettings("loc-1")
	settings.MaxWeight = dp("10")
	store.PutSettings(settings)
	putStock(store, "item-1", "loc-1", "100")

	catalog := new(MockCatalog)
	catalog.On("GetItemInfo", mock.Anything, "item-1").Return(nil, errors.New("timeout"))
	svc := newCapacity(store, catalog)

	res, err := svc.CanAcceptStock(ctx, appinv.CapacityRequest{WorkspaceID: ws, LocationID: "loc-1", Quantity: d("50"), ItemID: "item-1"})
	require.NoError(t, err)
	assert.True(t, res.IsValid(), "sin peso unitario conocido no se evalúa el límite de peso")
}

func TestCanAcceptStock_PesoMaximo(t *testing.T) {
	store := memory.NewStore()
	settings := openSettings("loc-1")
	settings.MaxWeight = dp("100")
	store.PutSettings(settings)
	putStock(store, "item-1", "loc-1", "40")

	catalog := new(MockCatalog)
	catalog.On("GetItemInfo", mock.Anything, "item-1").Return(&entity.ItemInfo{ID: "item-1", UnitWeight: dp("2")}, nil)
	svc := newCapacity(store, catalog)

	res, err := svc.CanAcceptStock(ctx, appinv.CapacityRequest{WorkspaceID: ws, LocationID: "loc-1", Quantity: d("10"), ItemID: "item-1"})
	require.NoError(t, err)
	assert.True(t, res.IsValid(), "80 + 20 = 100 está en el límite")

	res, err = svc.CanAcceptStock(ctx, appinv.CapacityRequest{WorkspaceID: ws, LocationID: "loc-1", Quantity: d("11"), ItemID: "item-1"})
	require.NoError(t, err)
	require.Equal(t, inventory.CapacityExceedsMaxWeight, res.Kind)
	assert.True(t, d("80").Equal(res.WeightExceeded.Current))
	assert.True(t, d("22").Equal(res.WeightExceeded.Requested))
	assert.True(t, d("100").Equal(res.WeightExceeded.Max))
}

func TestCanAcceptStock_OrdenDeReglas(t *testing.T) {
	store := memory.NewStore()
	settings := entity.LocationStockSettings{
		LocationID: "loc-1", WorkspaceID: ws, Active: true, MaxQuantity: dp("5"),
	}
	store.PutSettings(settings)
	putStock(store, "item-1", "loc-1", "5")
	svc := newCapacity(store, new(MockCatalog))

	// Excede cantidad y además mezcla ítems: se informa la primera regla.
	res, err := svc.CanAcceptStock(ctx, appinv.CapacityRequest{WorkspaceID: ws, LocationID: "loc-1", Quantity: d("1"), ItemID: "item-2"})
	require.NoError(t, err)
	assert.Equal(t, inventory.CapacityExceedsMaxQuantity, res.Kind)
}

func TestCanAcceptStock_SaldosEnCeroNoCuentanComoMezcla(t *testing.T) {
	store := memory.NewStore()
	store.PutSettings(entity.LocationStockSettings{LocationID: "bin", WorkspaceID: ws, Active: true})
	putStock(store, "item-1", "bin", "0")
	svc := newCapacity(store, new(MockCatalog))

	res, err := svc.CanAcceptStock(ctx, appinv.CapacityRequest{WorkspaceID: ws, LocationID: "bin", Quantity: d("1"), ItemID: "item-2", LotID: "lot-2"})
	require.NoError(t, err)
	assert.True(t, res.IsValid())
}

func TestCapacidad_Estadisticas(t *testing.T) {
	store := memory.NewStore()
	store.PutLocation(entity.Location{ID: "wh", WorkspaceID: ws, Name: "Bodega"})
	store.PutLocation(entity.Location{ID: "z1", WorkspaceID: ws, ParentID: "wh", Name: "Zona 1"})
	settings := openSettings("wh")
	settings.MaxQuantity = dp("200")
	store.PutSettings(settings)
	putStock(store, "item-1", "wh", "20")
	putStock(store, "item-2", "z1", "30")
	putStock(store, "item-3", "z1", "0")
	svc := newCapacity(store, new(MockCatalog))

	stats, err := svc.GetCapacityStats(ctx, ws, "wh")
	require.NoError(t, err)
	assert.Equal(t, "wh", stats.LocationID)
	assert.True(t, d("50").Equal(stats.CurrentQuantity))
	assert.True(t, d("25").Equal(stats.PercentageUsed))
	require.NotNil(t, stats.AvailableQuantity)
	assert.True(t, d("150").Equal(*stats.AvailableQuantity))
	assert.Equal(t, 2, stats.UniqueItems)
	assert.Equal(t, 2, stats.LocationCount)
	assert.True(t, stats.Active)

	available, err := svc.GetAvailableCapacity(ctx, ws, "wh")
	require.NoError(t, err)
	assert.True(t, d("150").Equal(*available))

	full, err := svc.IsLocationFull(ctx, ws, "wh")
	require.NoError(t, err)
	assert.False(t, full)
}

func TestCapacidad_SinLimite(t *testing.T) {
	store := memory.NewStore()
	putStock(store, "item-1", "suelta", "7")
	svc := newCapacity(store, new(MockCatalog))

	available, err := svc.GetAvailableCapacity(ctx, ws, "suelta")
	require.NoError(t, err)
	assert.Nil(t, available)

	full, err := svc.IsLocationFull(ctx, ws, "suelta")
	require.NoError(t, err)
	assert.False(t, full)

	stats, err := svc.GetCapacityStats(ctx, ws, "suelta")
	require.NoError(t, err)
	assert.Nil(t, stats.MaxQuantity)
	assert.True(t, stats.PercentageUsed.IsZero())
	assert.True(t, d("7").Equal(stats.CurrentQuantity))
	assert.Equal(t, 1, stats.LocationCount)
}

func TestCapacidad_DisponibleNuncaNegativo(t *testing.T) {
	store := memory.NewStore()
	settings := openSettings("loc-1")
	settings.MaxQuantity = dp("10")
	store.PutSettings(settings)
	// Saldo previo a que se bajara el límite.
	putStock(store, "item-1", "loc-1", "15")
	svc := newCapacity(store, new(MockCatalog))

	available, err := svc.GetAvailableCapacity(ctx, ws, "loc-1")
	require.NoError(t, err)
	assert.True(t, available.IsZero())

	full, err := svc.IsLocationFull(ctx, ws, "loc-1")
	require.NoError(t, err)
	assert.True(t, full)

	stats, err := svc.GetCapacityStats(ctx, ws, "loc-1")
	require.NoError(t, err)
	assert.True(t, d("150").Equal(stats.PercentageUsed))
}
