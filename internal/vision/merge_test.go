package vision

import "testing"

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		results  []*Fields
		expected Fields
	}{
		{
			name: "second image updates price and appends notes",
			results: []*Fields{
				{Name: "X", RetailPrice: 10},
				{RetailPrice: 15, Notes: "dented"},
			},
			expected: Fields{Name: "X", RetailPrice: 15, Notes: "Image 2: dented"},
		},
		{
			name: "first image is authoritative for everything else",
			results: []*Fields{
				{Name: "Shirt", StyleNumber: "ST-1", Barcode: "036000291452", Color: "Black"},
				{Name: "Other", StyleNumber: "ST-2", Barcode: "4006381333931", Color: "White"},
			},
			expected: Fields{Name: "Shirt", StyleNumber: "ST-1", Barcode: "036000291452", Color: "Black"},
		},
		{
			name: "non-positive price from later image is ignored",
			results: []*Fields{
				{Name: "X", RetailPrice: 10},
				{Name: "X", RetailPrice: 0},
				{Name: "X", RetailPrice: -5},
			},
			expected: Fields{Name: "X", RetailPrice: 10},
		},
		{
			name: "notes accumulate across images",
			results: []*Fields{
				{Name: "X", Notes: "stained"},
				{Notes: "dented"},
				{Notes: "missing tag"},
			},
			expected: Fields{
				Name:  "X",
				Notes: "stained; Additional from image 2: dented; Additional from image 3: missing tag",
			},
		},
		{
			name: "whitespace-only notes do not append",
			results: []*Fields{
				{Name: "X"},
				{Notes: "   "},
			},
			expected: Fields{Name: "X"},
		},
		{
			name:     "single image passes through",
			results:  []*Fields{{Name: "X", RetailPrice: 10, Notes: "as-is"}},
			expected: Fields{Name: "X", RetailPrice: 10, Notes: "as-is"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.results)
			if *got != tt.expected {
				t.Errorf("Merge() = %+v, want %+v", *got, tt.expected)
			}
		})
	}
}
