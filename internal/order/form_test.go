package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestForm(side Side) *Form {
	return NewForm(side, NewAssetSet([]string{"XAU-s", "XAG-s", "BTC", "USDT"}))
}

func TestValidate_BuyOrder(t *testing.T) {
	form := newTestForm(SideBuy)
	form.SetField(FieldSymbol, "XAU-s")
	form.SetField(FieldQuantity, "1.5")

	req, err := form.Validate()
	require.NoError(t, err)
	assert.Equal(t, SideBuy, req.Side)
	assert.Equal(t, "XAU-s", req.Symbol)
	assert.Equal(t, "1.5", req.Quantity.String())
	assert.Empty(t, req.RequestID, "request id is assigned at submission time, not validation time")
}

func TestValidate_QuantityGating(t *testing.T) {
	for _, bad := range []string{"", "0", "-1", "abc", "0.0"} {
		form := newTestForm(SideBuy)
		form.SetField(FieldSymbol, "XAU-s")
		form.SetField(FieldQuantity, bad)

		_, err := form.Validate()
		require.Error(t, err, "quantity %q should not validate", bad)

		verr, ok := err.(*ValidationError)
		require.True(t, ok)
		assert.Equal(t, CodeEmptyOrNonPositiveQuantity, verr.Code)
		assert.Equal(t, "Enter a valid quantity > 0", verr.Message)

		msg, found := form.FieldError(FieldQuantity)
		assert.True(t, found)
		assert.Equal(t, "Enter a valid quantity > 0", msg)
	}
}

func TestValidate_ExactDecimalSemantics(t *testing.T) {
	// A value that is not representable in binary floating point must
	// round-trip unchanged.
	form := newTestForm(SideBuy)
	form.SetField(FieldSymbol, "XAU-s")
	form.SetField(FieldQuantity, "0.1")

	req, err := form.Validate()
	require.NoError(t, err)
	assert.Equal(t, "0.1", req.Quantity.String())
}

func TestValidate_UnsupportedAsset(t *testing.T) {
	form := newTestForm(SideBuy)
	form.SetField(FieldSymbol, "DOGE")
	form.SetField(FieldQuantity, "1")

	_, err := form.Validate()
	require.Error(t, err)
	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, CodeUnsupportedAsset, verr.Code)
	assert.Equal(t, FieldSymbol, verr.Field)
}

func TestValidate_Convert(t *testing.T) {
	form := newTestForm(SideConvert)
	form.SetField(FieldFromAsset, "BTC")
	form.SetField(FieldToAsset, "USDT")
	form.SetField(FieldQuantity, "0.25")

	req, err := form.Validate()
	require.NoError(t, err)
	assert.True(t, req.IsConvert())
	assert.Equal(t, "BTC", req.FromAsset)
	assert.Equal(t, "USDT", req.ToAsset)
}

func TestValidate_IdenticalAssets(t *testing.T) {
	form := newTestForm(SideConvert)
	form.SetField(FieldFromAsset, "BTC")
	form.SetField(FieldToAsset, "BTC")
	form.SetField(FieldQuantity, "0.25")

	_, err := form.Validate()
	require.Error(t, err)
	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, CodeIdenticalAssets, verr.Code)
}

func TestSetField_ClearsFieldError(t *testing.T) {
	form := newTestForm(SideBuy)
	form.SetField(FieldSymbol, "XAU-s")
	form.SetField(FieldQuantity, "")

	_, err := form.Validate()
	require.Error(t, err)
	_, found := form.FieldError(FieldQuantity)
	require.True(t, found)

	form.SetField(FieldQuantity, "2")
	_, found = form.FieldError(FieldQuantity)
	assert.False(t, found, "editing a field should clear its displayed error")

	_, err = form.Validate()
	assert.NoError(t, err)
}

func TestClearQuantity_KeepsSideAndSymbol(t *testing.T) {
	form := newTestForm(SideSell)
	form.SetField(FieldSymbol, "XAG-s")
	form.SetField(FieldQuantity, "3")

	_, err := form.Validate()
	require.NoError(t, err)

	form.ClearQuantity()
	assert.Equal(t, "", form.Quantity())

	// Symbol and side survive; only a new amount is needed.
	form.SetField(FieldQuantity, "4")
	req, err := form.Validate()
	require.NoError(t, err)
	assert.Equal(t, SideSell, req.Side)
	assert.Equal(t, "XAG-s", req.Symbol)
}
