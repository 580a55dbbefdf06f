package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	appinv "github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKardexPDF(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	report := &appinv.KardexReport{
		WorkspaceID:    "ws-1",
		ItemID:         "it-1",
		ItemName:       "Harina",
		SKU:            "SKU-1",
		LocationID:     "loc-1",
		GeneratedAt:    now,
		OpeningBalance: decimal.Zero,
		TotalIn:        decimal.NewFromInt(10),
		TotalOut:       decimal.NewFromInt(4),
		ClosingBalance: decimal.NewFromInt(6),
		Lines: []appinv.KardexLine{
			{Date: now, Type: entity.MovementTypeReceipt, Reference: "OC-1", In: decimal.NewFromInt(10), Balance: decimal.NewFromInt(10)},
			{Date: now, Type: entity.MovementTypeShipment, Reference: "FV-7", Out: decimal.NewFromInt(4), Balance: decimal.NewFromInt(6)},
		},
	}

	out, err := pdf.NewKardexPDFGenerator().GenerateKardexPDF(context.Background(), report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateKardexPDF_SinLineas(t *testing.T) {
	out, err := pdf.NewKardexPDFGenerator().GenerateKardexPDF(context.Background(), &appinv.KardexReport{
		ItemID: "it-1", LocationID: "loc-1", GeneratedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestGenerateKardexPDF_ReporteNil(t *testing.T) {
	_, err := pdf.NewKardexPDFGenerator().GenerateKardexPDF(context.Background(), nil)
	assert.Error(t, err)
}
