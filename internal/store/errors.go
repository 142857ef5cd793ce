package store

// DuplicateField identifies which unique column a save collided on.
type DuplicateField string

const (
	DuplicateSKU     DuplicateField = "SKU"
	DuplicateBarcode DuplicateField = "barcode"
)

// DuplicateError is returned when the store rejects a save because of a
// uniqueness violation. Callers route it to the duplicate-resolution
// flow instead of a generic error, and must not clear the form.
type DuplicateError struct {
	Field DuplicateField
}

func (e *DuplicateError) Error() string {
	switch e.Field {
	case DuplicateSKU:
		return "a product with this SKU already exists"
	case DuplicateBarcode:
		return "a product with this barcode already exists"
	default:
		return "a product with the same unique value already exists"
	}
}
