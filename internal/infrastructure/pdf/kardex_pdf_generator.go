// Package pdf genera el kardex (historial de movimientos con saldo) de un ítem
// en una ubicación.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Ítem + SKU            │  Ubicación + Periodo       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Tipo | Referencia | Lote | Entra | Sale | Saldo │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Saldo inicial / Entradas / Salidas / Saldo final   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	appinventory "github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// KardexPDFGenerator implementa inventory.LedgerPDFGenerator usando Maroto v2.
type KardexPDFGenerator struct{}

// NewKardexPDFGenerator construye el generador.
func NewKardexPDFGenerator() *KardexPDFGenerator { return &KardexPDFGenerator{} }

// GenerateKardexPDF genera el PDF y devuelve sus bytes.
func (g *KardexPDFGenerator) GenerateKardexPDF(_ context.Context, report *appinventory.KardexReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("pdf: reporte vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Kardex de inventario", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	if len(report.Lines) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos en el periodo", props.Text{
				Size: 8, Align: align.Center, Color: colorGray, Top: 2,
			}),
		)))
	}
	m.AddRows(lineRows(report.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(report))
	m.AddRows(footerRow(report.GeneratedAt))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: ítem (izq) y ubicación + periodo (der).
func headerRow(r *appinventory.KardexReport) core.Row {
	title := nonEmpty(r.ItemName, r.ItemID)
	sku := "SKU: " + nonEmpty(r.SKU, "—")

	return row.New(18).Add(
		col.New(7).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(sku, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("KARDEX", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Ubicación: "+r.LocationID, props.Text{
				Size: 8, Align: align.Right, Top: 7,
			}),
			text.New("Periodo: "+period(r.From, r.To), props.Text{
				Size: 8, Align: align.Right, Top: 12, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Tipo", 2, align.Left),
		h("Referencia", 3, align.Left),
		h("Lote", 2, align.Left),
		h("Entra", 1, align.Right),
		h("Sale", 1, align.Right),
		h("Saldo", 1, align.Right),
	)
}

func lineRows(lines []appinventory.KardexLine) []core.Row {
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 7.5, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	rows := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, row.New(6).Add(
			cell(l.Date.Format("02/01/2006 15:04"), 2, align.Left),
			cell(l.Type.String(), 2, align.Left),
			cell(nonEmpty(l.Reference, "—"), 3, align.Left),
			cell(nonEmpty(l.LotNumber, "—"), 2, align.Left),
			cell(quantity(l.In), 1, align.Right),
			cell(quantity(l.Out), 1, align.Right),
			cell(l.Balance.String(), 1, align.Right),
		))
	}
	return rows
}

func totalsRow(r *appinventory.KardexReport) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	return row.New(24).Add(
		col.New(6),
		col.New(3).Add(
			label("Saldo inicial:", 0),
			label("Entradas:", 5),
			label("Salidas:", 10),
			label("Saldo final:", 15),
		),
		col.New(3).Add(
			text.New(r.OpeningBalance.String(), props.Text{Size: 9, Align: align.Right, Right: 1}),
			text.New(r.TotalIn.String(), props.Text{Size: 9, Align: align.Right, Right: 1, Top: 5}),
			text.New(r.TotalOut.String(), props.Text{Size: 9, Align: align.Right, Right: 1, Top: 10}),
			text.New(r.ClosingBalance.String(), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 15,
			}),
		),
	)
}

func footerRow(at time.Time) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New("Generado el "+at.Format("02/01/2006 15:04"), props.Text{
			Size: 6.5, Color: colorGray, Top: 3,
		}),
	))
}

func period(from, to *time.Time) string {
	f, t := "inicio", "hoy"
	if from != nil {
		f = from.Format("02/01/2006")
	}
	if to != nil {
		t = to.Format("02/01/2006")
	}
	return f + " – " + t
}

func quantity(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
