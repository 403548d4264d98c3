package order

// ValidationCode identifies why a draft order failed validation.
type ValidationCode string

const (
	CodeEmptyOrNonPositiveQuantity ValidationCode = "EMPTY_OR_NON_POSITIVE_QUANTITY"
	CodeUnsupportedAsset           ValidationCode = "UNSUPPORTED_ASSET"
	CodeIdenticalAssets            ValidationCode = "IDENTICAL_ASSETS"
)

// ValidationError is a local error raised before any network activity.
// Field names the form field the message belongs to.
type ValidationError struct {
	Code    ValidationCode
	Field   Field
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(code ValidationCode, field Field, msg string) *ValidationError {
	return &ValidationError{Code: code, Field: field, Message: msg}
}
