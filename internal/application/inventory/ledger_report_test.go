package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	appinv "github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPDFGenerator implementa appinv.LedgerPDFGenerator.
type MockPDFGenerator struct{ mock.Mock }

func (m *MockPDFGenerator) GenerateKardexPDF(ctx context.Context, report *appinv.KardexReport) ([]byte, error) {
	args := m.Called(ctx, report)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func TestBuildKardex_SaldosYTotales(t *testing.T) {
	f := newFixture(t)
	f.seed("item-1", "loc-1", "5", "0") // saldo anterior al ledger
	f.process(t, entity.MovementTypeReceipt, "item-1", "loc-1", "10")
	f.process(t, entity.MovementTypeReserve, "item-1", "loc-1", "3")
	f.process(t, entity.MovementTypeShipment, "item-1", "loc-1", "4")
	f.process(t, entity.MovementTypeCount, "item-1", "loc-1", "11")
	f.process(t, entity.MovementTypeDamage, "item-1", "loc-1", "1")
	f.process(t, entity.MovementTypeReceipt, "item-2", "loc-1", "99")

	uc := appinv.NewLedgerReportUseCase(f.store.Movements(), nil, new(MockPDFGenerator))
	report, err := uc.BuildKardex(ctx, ws, "item-1", "loc-1", nil, nil)
	require.NoError(t, err)

	require.Len(t, report.Lines, 3, "reservas y conteos no son líneas del kardex")
	assert.True(t, d("5").Equal(report.OpeningBalance))
	assert.True(t, d("10").Equal(report.ClosingBalance))
	assert.True(t, d("10").Equal(report.TotalIn))
	assert.True(t, d("5").Equal(report.TotalOut))

	assert.Equal(t, entity.MovementTypeReceipt, report.Lines[0].Type)
	assert.True(t, d("15").Equal(report.Lines[0].Balance))
	assert.True(t, d("4").Equal(report.Lines[1].Out))
	assert.True(t, report.Lines[1].In.IsZero())
	assert.True(t, d("10").Equal(report.Lines[2].Balance))
}

func TestBuildKardex_SinMovimientos(t *testing.T) {
	f := newFixture(t)
	uc := appinv.NewLedgerReportUseCase(f.store.Movements(), nil, new(MockPDFGenerator))

	report, err := uc.BuildKardex(ctx, ws, "item-1", "loc-1", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Lines)
	assert.True(t, report.OpeningBalance.IsZero())
	assert.True(t, report.ClosingBalance.IsZero())
}

func TestBuildKardex_RangoPosteriorConservaElSaldo(t *testing.T) {
	f := newFixture(t)
	f.process(t, entity.MovementTypeReceipt, "item-1", "loc-1", "100")
	f.process(t, entity.MovementTypeReserve, "item-1", "loc-1", "30")

	uc := appinv.NewLedgerReportUseCase(f.store.Movements(), nil, new(MockPDFGenerator))
	from := now.Add(24 * time.Hour)
	report, err := uc.BuildKardex(ctx, ws, "item-1", "loc-1", &from, nil)
	require.NoError(t, err)

	assert.Empty(t, report.Lines)
	assert.True(t, d("100").Equal(report.OpeningBalance), report.OpeningBalance.String())
	assert.True(t, d("100").Equal(report.ClosingBalance), report.ClosingBalance.String())
}

func TestBuildKardex_OrdenDeAplicacionNoDeCreacion(t *testing.T) {
	f := newFixture(t)
	early := newMovement(t, entity.MovementTypeReceipt, "item-1", "loc-1", "5")
	early.CreatedAt = now.Add(-time.Hour)
	late := newMovement(t, entity.MovementTypeReceipt, "item-1", "loc-1", "10")

	// Se aplica primero el creado después.
	for _, m := range []*entity.Movement{late, early} {
		res, err := f.svc.Process(ctx, m)
		require.NoError(t, err)
		require.True(t, res.Success, res.Errors())
	}

	uc := appinv.NewLedgerReportUseCase(f.store.Movements(), nil, new(MockPDFGenerator))
	report, err := uc.BuildKardex(ctx, ws, "item-1", "loc-1", nil, nil)
	require.NoError(t, err)

	require.Len(t, report.Lines, 2)
	assert.True(t, report.OpeningBalance.IsZero(), report.OpeningBalance.String())
	assert.True(t, d("10").Equal(report.Lines[0].Balance))
	assert.True(t, d("15").Equal(report.Lines[1].Balance))
	assert.True(t, d("15").Equal(report.ClosingBalance))
}

func TestBuildKardex_Validaciones(t *testing.T) {
	f := newFixture(t)
	uc := appinv.NewLedgerReportUseCase(f.store.Movements(), nil, new(MockPDFGenerator))

	_, err := uc.BuildKardex(ctx, ws, "", "loc-1", nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	from, to := now, now.Add(-time.Hour)
	_, err = uc.BuildKardex(ctx, ws, "item-1", "loc-1", &from, &to)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGenerateKardex_NombreDeArchivo(t *testing.T) {
	f := newFixture(t)
	f.store.PutItem(entity.ItemInfo{ID: "item-1", SKU: "SKU-1", Name: "Harina"})
	f.process(t, entity.MovementTypeReceipt, "item-1", "loc-1", "3")

	gen := new(MockPDFGenerator)
	gen.On("GenerateKardexPDF", mock.Anything, mock.MatchedBy(func(r *appinv.KardexReport) bool {
		return r.SKU == "SKU-1" && r.ItemName == "Harina" && len(r.Lines) == 1
	})).Return([]byte("%PDF-1.4"), nil).Once()

	uc := appinv.NewLedgerReportUseCase(f.store.Movements(), f.store.Catalog(), gen)
	pdf, name, err := uc.GenerateKardex(ctx, ws, "item-1", "loc-1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)
	assert.Regexp(t, `^kardex_SKU-1_\d{8}\.pdf$`, name)
	gen.AssertExpectations(t)
}

func TestGenerateKardex_ErrorDelGenerador(t *testing.T) {
	f := newFixture(t)
	gen := new(MockPDFGenerator)
	gen.On("GenerateKardexPDF", mock.Anything, mock.Anything).Return(nil, errors.New("fuente no encontrada"))

	uc := appinv.NewLedgerReportUseCase(f.store.Movements(), nil, gen)
	_, _, err := uc.GenerateKardex(ctx, ws, "item-1", "loc-1", nil, nil)
	assert.ErrorContains(t, err, "fuente no encontrada")
}
