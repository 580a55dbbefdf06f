package entity_test

import (
	"testing"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLotFromMovement(t *testing.T) {
	exp := t0.Add(90 * 24 * time.Hour)
	in := movementInput(entity.MovementTypeReceipt, "50")
	in.LotNumber = "L-2024-01"
	in.ExpirationDate = &exp
	in.Metadata = map[string]any{entity.LotIdentifierSupplierLot: "SUP-77"}
	m, err := entity.NewMovement(in, t0)
	require.NoError(t, err)

	lot := entity.NewLotFromMovement(m, t0)

	assert.NotEmpty(t, lot.ID)
	assert.Equal(t, "L-2024-01", lot.LotNumber)
	assert.Equal(t, entity.LotStatusActive, lot.Status)
	assert.Equal(t, entity.LotSourceMovement, lot.SourceType)
	assert.Equal(t, m.ID, lot.SourceID)
	assert.Equal(t, "SUP-77", lot.Identifiers[entity.LotIdentifierSupplierLot])
	assert.Equal(t, t0, *lot.ReceptionDate)
	assert.True(t, lot.IsUsable(t0))
	assert.Equal(t, 90, lot.DaysUntilExpiry(t0))
}

func TestLot_VencidoNoEsUsable(t *testing.T) {
	exp := t0.Add(-time.Hour)
	lot := entity.Lot{LotNumber: "L1", Status: entity.LotStatusActive, ExpirationDate: &exp}
	assert.True(t, lot.IsExpired(t0))
	assert.False(t, lot.IsUsable(t0))

	noDate := entity.Lot{Status: entity.LotStatusExpired}
	assert.True(t, noDate.IsExpired(t0), "marcado vencido aunque no tenga fecha")
	assert.Equal(t, -1, noDate.DaysUntilExpiry(t0))
}

func TestLot_Transiciones(t *testing.T) {
	lot := entity.Lot{LotNumber: "L1", Status: entity.LotStatusActive, Attributes: map[string]any{"grade": "A"}}

	q, err := lot.Quarantine(t0)
	require.NoError(t, err)
	assert.Equal(t, entity.LotStatusQuarantine, q.Status)
	assert.Equal(t, entity.LotStatusActive, lot.Status, "el original no cambia")
	assert.False(t, q.IsUsable(t0))

	q.Attributes["grade"] = "B"
	assert.Equal(t, "A", lot.Attributes["grade"], "los mapas se copian")

	a, err := q.Activate(t0)
	require.NoError(t, err)
	assert.True(t, a.IsUsable(t0))

	b, err := a.Block(t0)
	require.NoError(t, err)
	assert.Equal(t, entity.LotStatusBlocked, b.Status)

	dep, err := b.MarkDepleted(t0)
	require.NoError(t, err)
	_, err = dep.Activate(t0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = dep.Quarantine(t0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	exp, err := a.MarkExpired(t0)
	require.NoError(t, err)
	_, err = exp.Activate(t0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	same, err := exp.MarkExpired(t0)
	require.NoError(t, err)
	assert.Equal(t, exp.Status, same.Status)
}

func TestLocationStockSettings_AllowsItemType(t *testing.T) {
	open := entity.LocationStockSettings{}
	assert.True(t, open.AllowsItemType("anything"))

	cold := entity.LocationStockSettings{AllowedItemTypes: []string{"perishable", "frozen"}}
	assert.True(t, cold.AllowsItemType("frozen"))
	assert.False(t, cold.AllowsItemType("hardware"))
}
