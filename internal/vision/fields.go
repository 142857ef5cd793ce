package vision

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Fields is the partial product record extracted from one label photo.
type Fields struct {
	Name             string  `json:"name"`
	StyleNumber      string  `json:"style_number"`
	Barcode          string  `json:"barcode"`
	BrandName        string  `json:"brand_name"`
	ProductCategory  string  `json:"product_category"`
	RetailPrice      float64 `json:"retail_price"`
	SupplyPrice      float64 `json:"supply_price"`
	SizeOrDimensions string  `json:"size_or_dimensions"`
	Color            string  `json:"color"`
	Tags             string  `json:"tags"`
	Description      string  `json:"description"`
	Notes            string  `json:"notes"`
}

// IsEmpty reports whether nothing usable was extracted.
func (f *Fields) IsEmpty() bool {
	return f.Name == "" && f.StyleNumber == "" && f.Barcode == "" &&
		f.BrandName == "" && f.ProductCategory == "" &&
		f.RetailPrice == 0 && f.SupplyPrice == 0 &&
		f.SizeOrDimensions == "" && f.Color == "" &&
		f.Tags == "" && f.Description == "" && f.Notes == ""
}

type envelope struct {
	Success bool    `json:"success"`
	Data    *Fields `json:"data"`
	Error   string  `json:"error"`
}

// parseResponse decodes one provider response. Models occasionally wrap
// the JSON in markdown fences, so those are stripped first.
func parseResponse(raw string) (*Fields, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if isRateLimitMessage(env.Error) {
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, env.Error)
	}
	if !env.Success {
		if env.Error == "" {
			return nil, fmt.Errorf("%w: response reported failure with no reason", ErrMalformedResponse)
		}
		return nil, fmt.Errorf("extraction failed: %s", env.Error)
	}
	if env.Data == nil || env.Data.IsEmpty() {
		return nil, fmt.Errorf("%w: empty data object", ErrMalformedResponse)
	}

	return env.Data, nil
}

func isRateLimitMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests")
}
