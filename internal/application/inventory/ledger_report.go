package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// kardexBatch tamaño de lote al recorrer el ledger para el reporte.
const kardexBatch = 500

// KardexLine una fila del kardex: un movimiento completado y el saldo resultante.
type KardexLine struct {
	Date      time.Time
	Type      entity.MovementType
	Reference string
	LotNumber string
	In        decimal.Decimal
	Out       decimal.Decimal
	Balance   decimal.Decimal
}

// KardexReport datos del reporte kardex de un ítem en una ubicación.
type KardexReport struct {
	WorkspaceID    string
	ItemID         string
	ItemName       string
	SKU            string
	LocationID     string
	From           *time.Time
	To             *time.Time
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	TotalIn        decimal.Decimal
	TotalOut       decimal.Decimal
	Lines          []KardexLine
	GeneratedAt    time.Time
}

// LedgerPDFGenerator puerto de salida para renderizar el kardex.
type LedgerPDFGenerator interface {
	GenerateKardexPDF(ctx context.Context, report *KardexReport) ([]byte, error)
}

// LedgerReportUseCase arma el kardex a partir del ledger y lo entrega en PDF.
type LedgerReportUseCase struct {
	movements repository.MovementRepository
	catalog   repository.CatalogGateway
	generator LedgerPDFGenerator
	now       func() time.Time
}

// NewLedgerReportUseCase construye el caso de uso. catalog puede ser nil.
func NewLedgerReportUseCase(
	movements repository.MovementRepository,
	catalog repository.CatalogGateway,
	generator LedgerPDFGenerator,
) *LedgerReportUseCase {
	return &LedgerReportUseCase{
		movements: movements,
		catalog:   catalog,
		generator: generator,
		now:       time.Now,
	}
}

// BuildKardex recorre los movimientos completados en el orden en que se aplicaron al saldo;
// el rango filtra por fecha de proceso. Reservas, liberaciones y movimientos neutros no
// aparecen: no cambian la cantidad en mano.
func (uc *LedgerReportUseCase) BuildKardex(ctx context.Context, workspaceID, itemID, locationID string, from, to *time.Time) (*KardexReport, error) {
	if workspaceID == "" || itemID == "" || locationID == "" {
		return nil, fmt.Errorf("%w: item_id y location_id son requeridos", domain.ErrInvalidInput)
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, fmt.Errorf("%w: rango de fechas invertido", domain.ErrInvalidInput)
	}

	report := &KardexReport{
		WorkspaceID: workspaceID,
		ItemID:      itemID,
		LocationID:  locationID,
		From:        from,
		To:          to,
		GeneratedAt: uc.now(),
	}
	if uc.catalog != nil {
		if info, err := uc.catalog.GetItemInfo(ctx, itemID); err == nil && info != nil {
			report.ItemName = info.Name
			report.SKU = info.SKU
		}
	}

	criteria := repository.MovementCriteria{
		WorkspaceID: workspaceID,
		ItemID:      itemID,
		LocationID:  locationID,
		Status:      entity.MovementStatusCompleted,
		From:        from,
		To:          to,
		OrderBy:     repository.OrderByApplied,
		Limit:       kardexBatch,
	}
	first := true
	for {
		batch, err := uc.movements.Search(ctx, criteria)
		if err != nil {
			return nil, fmt.Errorf("kardex: buscar movimientos: %w", err)
		}
		for _, m := range batch {
			if m.Type.QuantityMultiplier() == 0 || m.BalanceAfter == nil {
				continue
			}
			signed := m.SignedQuantity()
			if first {
				report.OpeningBalance = m.BalanceAfter.Sub(signed)
				first = false
			}
			line := KardexLine{
				Date:      processedAt(m),
				Type:      m.Type,
				Reference: reference(m),
				LotNumber: m.LotNumber,
				Balance:   *m.BalanceAfter,
			}
			if signed.IsPositive() {
				line.In = m.Quantity
				report.TotalIn = report.TotalIn.Add(m.Quantity)
			} else {
				line.Out = m.Quantity
				report.TotalOut = report.TotalOut.Add(m.Quantity)
			}
			report.Lines = append(report.Lines, line)
			report.ClosingBalance = *m.BalanceAfter
		}
		if len(batch) < criteria.Limit {
			break
		}
		criteria.Offset += len(batch)
	}
	if first {
		opening, err := uc.balanceBefore(ctx, workspaceID, itemID, locationID, from)
		if err != nil {
			return nil, err
		}
		report.OpeningBalance = opening
		report.ClosingBalance = opening
	}
	return report, nil
}

// balanceBefore saldo en mano al inicio del rango: el del último movimiento completado
// hasta from. Todo movimiento completado registra el saldo en mano resultante.
func (uc *LedgerReportUseCase) balanceBefore(ctx context.Context, workspaceID, itemID, locationID string, from *time.Time) (decimal.Decimal, error) {
	if from == nil {
		return decimal.Zero, nil
	}
	criteria := repository.MovementCriteria{
		WorkspaceID: workspaceID,
		ItemID:      itemID,
		LocationID:  locationID,
		Status:      entity.MovementStatusCompleted,
		To:          from,
		OrderBy:     repository.OrderByApplied,
		SortDesc:    true,
		Limit:       kardexBatch,
	}
	for {
		batch, err := uc.movements.Search(ctx, criteria)
		if err != nil {
			return decimal.Zero, fmt.Errorf("kardex: saldo inicial: %w", err)
		}
		for _, m := range batch {
			if m.BalanceAfter != nil {
				return *m.BalanceAfter, nil
			}
		}
		if len(batch) < criteria.Limit {
			return decimal.Zero, nil
		}
		criteria.Offset += len(batch)
	}
}

func processedAt(m *entity.Movement) time.Time {
	if m.ProcessedAt != nil {
		return *m.ProcessedAt
	}
	return m.CreatedAt
}

// GenerateKardex arma el reporte y lo renderiza. Devuelve los bytes y el nombre de archivo.
func (uc *LedgerReportUseCase) GenerateKardex(ctx context.Context, workspaceID, itemID, locationID string, from, to *time.Time) ([]byte, string, error) {
	report, err := uc.BuildKardex(ctx, workspaceID, itemID, locationID, from, to)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err := uc.generator.GenerateKardexPDF(ctx, report)
	if err != nil {
		return nil, "", fmt.Errorf("kardex: generación fallida: %w", err)
	}
	name := itemID
	if report.SKU != "" {
		name = report.SKU
	}
	return pdfBytes, fmt.Sprintf("kardex_%s_%s.pdf", name, report.GeneratedAt.Format("20060102")), nil
}

func reference(m *entity.Movement) string {
	switch {
	case m.ReferenceType != "" && m.ReferenceID != "":
		return m.ReferenceType + " " + m.ReferenceID
	case m.ReferenceID != "":
		return m.ReferenceID
	}
	return m.Reason
}
