package vision

import (
	"fmt"
	"strings"
)

// Merge combines per-image extractions in image order. The first image
// is authoritative for every field; later images may only raise the
// retail price (when positive) and append to notes.
func Merge(results []*Fields) *Fields {
	if len(results) == 0 || results[0] == nil {
		return &Fields{}
	}

	merged := *results[0]
	for k := 1; k < len(results); k++ {
		r := results[k]
		if r == nil {
			continue
		}
		if r.RetailPrice > 0 {
			merged.RetailPrice = r.RetailPrice
		}
		if notes := strings.TrimSpace(r.Notes); notes != "" {
			if merged.Notes != "" {
				merged.Notes = fmt.Sprintf("%s; Additional from image %d: %s", merged.Notes, k+1, notes)
			} else {
				merged.Notes = fmt.Sprintf("Image %d: %s", k+1, notes)
			}
		}
	}
	return &merged
}
