package order

import (
	"github.com/shopspring/decimal"
)

// Field names a user-editable input on the order ticket.
type Field string

const (
	FieldSide      Field = "side"
	FieldSymbol    Field = "symbol"
	FieldQuantity  Field = "quantity"
	FieldFromAsset Field = "from_asset"
	FieldToAsset   Field = "to_asset"
)

// Form holds the draft order as the user types it. It never touches the
// network; a rendering layer reads FieldError to show inline messages.
type Form struct {
	allowed AssetSet

	side      Side
	symbol    string
	fromAsset string
	toAsset   string
	quantity  string

	fieldErrors map[Field]string
}

// NewForm creates a draft order form. The side preselects buy/sell vs
// convert semantics; the allow-list gates which symbols validate.
func NewForm(side Side, allowed AssetSet) *Form {
	return &Form{
		allowed:     allowed,
		side:        side,
		fieldErrors: make(map[Field]string),
	}
}

// SetField updates a draft field and clears any error previously displayed
// for it. Unknown fields are ignored.
func (f *Form) SetField(field Field, value string) {
	switch field {
	case FieldSide:
		f.side = Side(value)
	case FieldSymbol:
		f.symbol = value
	case FieldQuantity:
		f.quantity = value
	case FieldFromAsset:
		f.fromAsset = value
	case FieldToAsset:
		f.toAsset = value
	default:
		return
	}
	delete(f.fieldErrors, field)
}

// FieldError returns the message last recorded for a field, if any.
func (f *Form) FieldError(field Field) (string, bool) {
	msg, ok := f.fieldErrors[field]
	return msg, ok
}

// Quantity returns the raw quantity input.
func (f *Form) Quantity() string {
	return f.quantity
}

// ClearQuantity empties the quantity input, leaving side and symbol in
// place so a follow-up order only needs a new amount.
func (f *Form) ClearQuantity() {
	f.quantity = ""
	delete(f.fieldErrors, FieldQuantity)
}

// Validate checks the draft and returns a fully-formed OrderRequest with
// an empty RequestID, or a *ValidationError. Quantity parsing is exact
// decimal; binary floats are never involved. Expected-invalid input is an
// error value, never a panic.
func (f *Form) Validate() (OrderRequest, error) {
	qty, err := parseQuantity(f.quantity)
	if err != nil {
		verr := err.(*ValidationError)
		f.fieldErrors[verr.Field] = verr.Message
		return OrderRequest{}, verr
	}

	if f.side == SideConvert {
		if !f.allowed.Contains(f.fromAsset) {
			verr := newValidationError(CodeUnsupportedAsset, FieldFromAsset, "Unsupported asset: "+f.fromAsset)
			f.fieldErrors[verr.Field] = verr.Message
			return OrderRequest{}, verr
		}
		if !f.allowed.Contains(f.toAsset) {
			verr := newValidationError(CodeUnsupportedAsset, FieldToAsset, "Unsupported asset: "+f.toAsset)
			f.fieldErrors[verr.Field] = verr.Message
			return OrderRequest{}, verr
		}
		if f.fromAsset == f.toAsset {
			verr := newValidationError(CodeIdenticalAssets, FieldToAsset, "Choose two different assets")
			f.fieldErrors[verr.Field] = verr.Message
			return OrderRequest{}, verr
		}
		return OrderRequest{
			Side:      SideConvert,
			FromAsset: f.fromAsset,
			ToAsset:   f.toAsset,
			Quantity:  qty,
		}, nil
	}

	if !f.allowed.Contains(f.symbol) {
		verr := newValidationError(CodeUnsupportedAsset, FieldSymbol, "Unsupported asset: "+f.symbol)
		f.fieldErrors[verr.Field] = verr.Message
		return OrderRequest{}, verr
	}

	return OrderRequest{
		Side:     f.side,
		Symbol:   f.symbol,
		Quantity: qty,
	}, nil
}

func parseQuantity(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Decimal{}, newValidationError(
			CodeEmptyOrNonPositiveQuantity, FieldQuantity, "Enter a valid quantity > 0")
	}
	qty, err := decimal.NewFromString(raw)
	if err != nil || qty.Sign() <= 0 {
		return decimal.Decimal{}, newValidationError(
			CodeEmptyOrNonPositiveQuantity, FieldQuantity, "Enter a valid quantity > 0")
	}
	return qty, nil
}
