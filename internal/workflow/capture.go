// Package workflow holds the per-capture-session state machine: images
// in, extraction merged, form edited, record saved.
package workflow

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rackline/labelscan/internal/barcode"
	"github.com/rackline/labelscan/internal/models"
	"github.com/rackline/labelscan/internal/sku"
	"github.com/rackline/labelscan/internal/vision"
)

// BarcodeSource records where the barcode field's current value came
// from. A scanned value is never overwritten by extraction.
type BarcodeSource string

const (
	SourceNone      BarcodeSource = ""
	SourceScanned   BarcodeSource = "scanned"
	SourceExtracted BarcodeSource = "extracted"
	SourceManual    BarcodeSource = "manual"
)

// Form mirrors the editable controls of the capture screen. Price and
// quantity stay strings until Collect coerces them.
type Form struct {
	Name             string `json:"name"`
	StyleNumber      string `json:"style_number"`
	SKU              string `json:"sku"`
	Barcode          string `json:"barcode"`
	BrandName        string `json:"brand_name"`
	ProductCategory  string `json:"product_category"`
	RetailPrice      string `json:"retail_price"`
	SupplyPrice      string `json:"supply_price"`
	SizeOrDimensions string `json:"size_or_dimensions"`
	Color            string `json:"color"`
	Quantity         string `json:"quantity"`
	Tags             string `json:"tags"`
	Description      string `json:"description"`
	Notes            string `json:"notes"`
	Verified         bool   `json:"verified"`
}

// DuplicateWarning is shown while the typed barcode matches an existing
// record.
type DuplicateWarning struct {
	Barcode    string `json:"barcode"`
	ExistingID int64  `json:"existing_id"`
}

// Capture is one in-progress product capture. All mutation goes through
// the Service, which holds mu.
type Capture struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	mu            sync.Mutex
	form          Form
	images        []models.CapturedImage
	extraction    *vision.Fields
	editingID     *int64
	barcodeSource BarcodeSource
	warning       *DuplicateWarning

	stream   *frameStream
	reader   *barcode.Reader
	debounce *debouncer
}

// Snapshot is the read-only view returned to the browser.
type Snapshot struct {
	ID        string                 `json:"id"`
	Form      Form                   `json:"form"`
	Images    []models.CapturedImage `json:"images"`
	EditingID *int64                 `json:"editing_id"`
	Scanning  bool                   `json:"scanning"`
	Warning   *DuplicateWarning      `json:"duplicate_warning"`
}

// populate writes extracted fields into the form, leaving the barcode
// untouched when its source is scanned, then re-derives the SKU.
// Callers hold c.mu.
func (c *Capture) populate(f *vision.Fields) {
	c.form.Name = f.Name
	c.form.StyleNumber = f.StyleNumber
	c.form.BrandName = f.BrandName
	c.form.ProductCategory = f.ProductCategory
	c.form.RetailPrice = formatPrice(f.RetailPrice)
	c.form.SupplyPrice = formatPrice(f.SupplyPrice)
	c.form.SizeOrDimensions = f.SizeOrDimensions
	c.form.Color = f.Color
	c.form.Tags = f.Tags
	c.form.Description = f.Description
	c.form.Notes = f.Notes

	if c.barcodeSource != SourceScanned && f.Barcode != "" {
		c.form.Barcode = f.Barcode
		c.barcodeSource = SourceExtracted
	}

	c.refreshSKU()
}

// populateFromProduct loads an existing record for editing.
func (c *Capture) populateFromProduct(p *models.Product) {
	c.form = Form{
		Name:             p.Name,
		StyleNumber:      p.StyleNumber,
		SKU:              p.SKU,
		Barcode:          p.Barcode,
		BrandName:        p.BrandName,
		ProductCategory:  p.ProductCategory,
		RetailPrice:      formatPricePtr(p.RetailPrice),
		SupplyPrice:      formatPricePtr(p.SupplyPrice),
		SizeOrDimensions: p.SizeOrDimensions,
		Color:            p.Color,
		Quantity:         strconv.Itoa(p.Quantity),
		Tags:             p.Tags,
		Description:      p.Description,
		Notes:            p.Notes,
		Verified:         p.Verified,
	}
	c.barcodeSource = SourceManual
	c.warning = nil
}

// refreshSKU re-derives the SKU from the current style, brand, color,
// and size fields. Callers hold c.mu.
func (c *Capture) refreshSKU() {
	c.form.SKU = sku.Generate(c.form.StyleNumber, c.form.BrandName, c.form.Color, c.form.SizeOrDimensions)
}

// collect reads the form back into a product record, coercing prices to
// numeric-or-null and quantity to an integer defaulting to 1. Callers
// hold c.mu.
func (c *Capture) collect() *models.Product {
	return &models.Product{
		Name:             strings.TrimSpace(c.form.Name),
		StyleNumber:      strings.TrimSpace(c.form.StyleNumber),
		SKU:              strings.ToUpper(strings.TrimSpace(c.form.SKU)),
		Barcode:          strings.TrimSpace(c.form.Barcode),
		BrandName:        strings.TrimSpace(c.form.BrandName),
		ProductCategory:  strings.TrimSpace(c.form.ProductCategory),
		RetailPrice:      parsePrice(c.form.RetailPrice),
		SupplyPrice:      parsePrice(c.form.SupplyPrice),
		SizeOrDimensions: strings.TrimSpace(c.form.SizeOrDimensions),
		Color:            strings.TrimSpace(c.form.Color),
		Quantity:         parseQuantity(c.form.Quantity),
		Tags:             strings.TrimSpace(c.form.Tags),
		Description:      strings.TrimSpace(c.form.Description),
		Notes:            strings.TrimSpace(c.form.Notes),
		Verified:         c.form.Verified,
	}
}

func parsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseQuantity(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 1 {
		return 1
	}
	return v
}

func formatPrice(v float64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatPricePtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
