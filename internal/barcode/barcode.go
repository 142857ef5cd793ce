// Package barcode validates retail barcodes and wraps the third-party
// decoder behind a start/stop/capture reader.
package barcode

// IsValidCode reports whether s is a UPC-A or EAN-13 code: exactly 12 or
// 13 digits, nothing else.
func IsValidCode(s string) bool {
	if len(s) != 12 && len(s) != 13 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
