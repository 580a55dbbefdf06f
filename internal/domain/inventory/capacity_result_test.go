package inventory_test

import (
	"encoding/json"
	"testing"

	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacityResult_SoloUnPayloadPorCaso(t *testing.T) {
	q := inventory.NewExceedsMaxQuantity("loc-1", decimal.NewFromInt(80), decimal.NewFromInt(30), decimal.NewFromInt(100))

	assert.False(t, q.IsValid())
	assert.Equal(t, "EXCEEDS_MAX_QUANTITY", q.Code())
	require.NotNil(t, q.QuantityExceeded)
	assert.Nil(t, q.WeightExceeded)
	assert.Nil(t, q.MixedItems)
	assert.Contains(t, q.Message(), "actual 80")
	assert.Contains(t, q.Message(), "solicitado 30")
	assert.Contains(t, q.Message(), "máximo 100")

	ok := inventory.CapacityOK()
	assert.True(t, ok.IsValid())
	assert.Equal(t, "VALID", ok.Code())
}

func TestCapacityResult_Mensajes(t *testing.T) {
	cases := []struct {
		result inventory.CapacityValidationResult
		want   string
	}{
		{inventory.NewLocationNotActive("loc-9"), "loc-9 no está activa"},
		{inventory.NewItemTypeNotAllowed("loc-1", "hardware", []string{"frozen"}), `"hardware"`},
		{inventory.NewMixedItemsNotAllowed("loc-1", "item-2", []string{"item-1"}), "ya contiene item-1"},
		{inventory.NewMixedLotsNotAllowed("loc-1", "lot-b", []string{"lot-a"}), "ya contiene lot-a"},
		{inventory.NewExceedsMaxWeight("loc-1", decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.NewFromInt(12)), "peso máximo"},
	}
	for _, c := range cases {
		assert.False(t, c.result.IsValid(), c.result.Code())
		assert.Contains(t, c.result.Message(), c.want)
	}
}

func TestCapacityResult_JSONEtiquetado(t *testing.T) {
	r := inventory.NewLocationNotActive("loc-1")
	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "LOCATION_NOT_ACTIVE", out["kind"])
	assert.Contains(t, out, "location_inactive")
	assert.NotContains(t, out, "quantity_exceeded")
}

func TestValidationResult_Acumula(t *testing.T) {
	var r inventory.ValidationResult
	assert.True(t, r.IsValid())

	r.Add(inventory.CodeInsufficientStock, "stock insuficiente")
	r.AddCapacity(inventory.NewLocationNotActive("loc-1"))

	assert.False(t, r.IsValid())
	assert.Equal(t, []inventory.ValidationCode{inventory.CodeInsufficientStock, inventory.CodeCapacity}, r.Codes())
	assert.True(t, r.HasCode(inventory.CodeCapacity))
	assert.False(t, r.HasCode(inventory.CodeExpiredLot))
	require.NotNil(t, r.Errors[1].Capacity)
	assert.Equal(t, inventory.CapacityLocationNotActive, r.Errors[1].Capacity.Kind)
	assert.Equal(t, "stock insuficiente; la ubicación loc-1 no está activa", r.Summary())
}
