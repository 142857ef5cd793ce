package models

import "time"

// Product represents a catalog record in the hosted table store.
// SKU and barcode are each unique across records; the store enforces that.
type Product struct {
	ID               int64     `json:"id,omitempty"`
	Name             string    `json:"name"`
	StyleNumber      string    `json:"style_number"`
	SKU              string    `json:"sku"`
	Barcode          string    `json:"barcode"`
	BrandName        string    `json:"brand_name"`
	ProductCategory  string    `json:"product_category"`
	RetailPrice      *float64  `json:"retail_price"`
	SupplyPrice      *float64  `json:"supply_price"`
	SizeOrDimensions string    `json:"size_or_dimensions"`
	Color            string    `json:"color"`
	Quantity         int       `json:"quantity"`
	Tags             string    `json:"tags"`
	Description      string    `json:"description"`
	Notes            string    `json:"notes"`
	Verified         bool      `json:"verified"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// AppUser is an entry in the lightweight staff name list used to
// attribute captures to a person.
type AppUser struct {
	ID        int64     `json:"id,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// CapturedImage pairs the transport-ready payload of a label photo with
// the preview file served back to the browser.
type CapturedImage struct {
	ID         string `json:"id"`
	PreviewURL string `json:"preview_url"`
	MIME       string `json:"mime"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`

	// Data is the re-encoded bytes shared by the preview file and the
	// vision transport payload.
	Data []byte `json:"-"`

	// PreviewPath is the file backing PreviewURL; removed when the
	// image is cleared or replaced.
	PreviewPath string `json:"-"`
}
