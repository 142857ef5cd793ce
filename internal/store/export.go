package store

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/rackline/labelscan/internal/models"
)

// exportPageSize is how many records one export page requests.
const exportPageSize = 500

// csvColumns is the fixed 18-column layout of the export artifact.
var csvColumns = []string{
	"ID", "Created At", "Updated At", "Item Name", "Style Number",
	"SKU", "Barcode", "Brand", "Category", "Retail Price",
	"Supply Price", "Size", "Color", "Quantity", "Tags",
	"Description", "Notes", "Verified",
}

// ExportFilename stamps the artifact with the given date.
func ExportFilename(format string, now time.Time) string {
	return fmt.Sprintf("products_%s.%s", now.Format("2006-01-02"), format)
}

// ExportCSV pages through every record and renders the fixed table.
// Text fields are double-quoted with internal quotes doubled; numeric
// fields are written bare. Returns the number of exported records.
func (c *Client) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	if _, err := io.WriteString(w, strings.Join(csvColumns, ",")+"\n"); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}

	count := 0
	err := c.forEachPage(ctx, func(products []models.Product) error {
		for i := range products {
			if _, err := io.WriteString(w, csvRow(&products[i])); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return count, err
	}
	return count, nil
}

func csvRow(p *models.Product) string {
	fields := []string{
		strconv.FormatInt(p.ID, 10),
		quoteCSV(formatTimestamp(p.CreatedAt)),
		quoteCSV(formatTimestamp(p.UpdatedAt)),
		quoteCSV(p.Name),
		quoteCSV(p.StyleNumber),
		quoteCSV(p.SKU),
		quoteCSV(p.Barcode),
		quoteCSV(p.BrandName),
		quoteCSV(p.ProductCategory),
		formatPrice(p.RetailPrice),
		formatPrice(p.SupplyPrice),
		quoteCSV(p.SizeOrDimensions),
		quoteCSV(p.Color),
		strconv.Itoa(p.Quantity),
		quoteCSV(p.Tags),
		quoteCSV(p.Description),
		quoteCSV(p.Notes),
		strconv.FormatBool(p.Verified),
	}
	return strings.Join(fields, ",") + "\n"
}

// quoteCSV wraps a text field in double quotes, doubling any internal
// quotes.
func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

// parquetRow mirrors the CSV layout for the Parquet export.
type parquetRow struct {
	ID          int64    `parquet:"id"`
	CreatedAt   string   `parquet:"created_at"`
	UpdatedAt   string   `parquet:"updated_at"`
	Name        string   `parquet:"item_name"`
	StyleNumber string   `parquet:"style_number"`
	SKU         string   `parquet:"sku"`
	Barcode     string   `parquet:"barcode"`
	Brand       string   `parquet:"brand"`
	Category    string   `parquet:"category"`
	RetailPrice *float64 `parquet:"retail_price,optional"`
	SupplyPrice *float64 `parquet:"supply_price,optional"`
	Size        string   `parquet:"size"`
	Color       string   `parquet:"color"`
	Quantity    int32    `parquet:"quantity"`
	Tags        string   `parquet:"tags"`
	Description string   `parquet:"description"`
	Notes       string   `parquet:"notes"`
	Verified    bool     `parquet:"verified"`
}

// ExportParquet writes the same rows as ExportCSV in Parquet form.
func (c *Client) ExportParquet(ctx context.Context, w io.Writer) (int, error) {
	writer := parquet.NewGenericWriter[parquetRow](w)

	count := 0
	err := c.forEachPage(ctx, func(products []models.Product) error {
		rows := make([]parquetRow, 0, len(products))
		for i := range products {
			p := &products[i]
			rows = append(rows, parquetRow{
				ID:          p.ID,
				CreatedAt:   formatTimestamp(p.CreatedAt),
				UpdatedAt:   formatTimestamp(p.UpdatedAt),
				Name:        p.Name,
				StyleNumber: p.StyleNumber,
				SKU:         p.SKU,
				Barcode:     p.Barcode,
				Brand:       p.BrandName,
				Category:    p.ProductCategory,
				RetailPrice: p.RetailPrice,
				SupplyPrice: p.SupplyPrice,
				Size:        p.SizeOrDimensions,
				Color:       p.Color,
				Quantity:    int32(p.Quantity),
				Tags:        p.Tags,
				Description: p.Description,
				Notes:       p.Notes,
				Verified:    p.Verified,
			})
		}
		if _, err := writer.Write(rows); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
		count += len(rows)
		return nil
	})
	if err != nil {
		return count, err
	}

	if err := writer.Close(); err != nil {
		return count, fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return count, nil
}

// forEachPage walks all records in fixed-size pages.
func (c *Client) forEachPage(ctx context.Context, fn func([]models.Product) error) error {
	for offset := 0; ; offset += exportPageSize {
		page, err := c.ListProducts(ctx, offset, exportPageSize)
		if err != nil {
			return fmt.Errorf("failed to fetch export page at offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			return nil
		}
		if err := fn(page); err != nil {
			return err
		}
		if len(page) < exportPageSize {
			return nil
		}
	}
}
