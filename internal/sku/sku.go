// Package sku derives stock-keeping-unit codes from the style, brand,
// color, and size fields of a product record.
package sku

import (
	_ "embed"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed codes.yaml
var codesYAML []byte

type codeTable struct {
	Brands map[string]string `yaml:"brands"`
	Colors map[string]string `yaml:"colors"`
}

var codes codeTable

func init() {
	if err := yaml.Unmarshal(codesYAML, &codes); err != nil {
		panic("sku: invalid embedded code table: " + err.Error())
	}
}

// MaxLength is the hard cap on an assembled SKU.
const MaxLength = 15

// Generate assembles a SKU from the four source fields. The style number
// is mandatory: an empty style yields an empty SKU. Present segments are
// joined with hyphens and the result is truncated to MaxLength.
func Generate(style, brand, color, size string) string {
	styleSeg := styleSegment(style)
	if styleSeg == "" {
		return ""
	}

	segments := []string{styleSeg}
	if seg := brandSegment(brand); seg != "" {
		segments = append(segments, seg)
	}
	if seg := colorSegment(color); seg != "" {
		segments = append(segments, seg)
	}
	if seg := sizeSegment(size); seg != "" {
		segments = append(segments, seg)
	}

	out := strings.Join(segments, "-")
	if len(out) > MaxLength {
		out = out[:MaxLength]
	}
	return out
}

// styleSegment uppercases the style number, keeps only letters, digits,
// hyphen, underscore, period, and slash, and truncates to 8 characters
// when the cleaned value is longer than 10.
func styleSegment(style string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToUpper(r)
		case r == '-' || r == '_' || r == '.' || r == '/':
			return r
		default:
			return -1
		}
	}, strings.TrimSpace(style))

	if len(cleaned) > 10 {
		cleaned = cleaned[:8]
	}
	return cleaned
}

func brandSegment(brand string) string {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return ""
	}
	if code, ok := codes.Brands[strings.ToLower(brand)]; ok {
		return code
	}
	return leadingLetters(brand, 2)
}

func colorSegment(color string) string {
	color = strings.TrimSpace(color)
	if color == "" {
		return ""
	}
	if code, ok := codes.Colors[strings.ToLower(color)]; ok {
		return code
	}
	return leadingLetters(color, 3)
}

// sizeSegment strips whitespace, uppercases, drops anything outside
// [A-Z0-9X], and truncates to 6 characters.
func sizeSegment(size string) string {
	cleaned := strings.Map(func(r rune) rune {
		r = unicode.ToUpper(r)
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, size)

	if len(cleaned) > 6 {
		cleaned = cleaned[:6]
	}
	return cleaned
}

// leadingLetters returns the first n runes of s, uppercased.
func leadingLetters(s string, n int) string {
	runes := []rune(strings.ToUpper(s))
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}
