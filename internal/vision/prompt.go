package vision

import "fmt"

// buildExtractionPrompt asks the model for the structured fields of a
// retail product label. position is 1-based; the model is told which
// image of the set it is looking at so follow-up images focus on price
// tags and supplementary details.
func buildExtractionPrompt(position, total int) string {
	return fmt.Sprintf(`You are an expert retail merchandiser entering products into an inventory system. You are looking at image %d of %d photographs of the SAME product's labels and tags.

INSTRUCTIONS:
1. Carefully read ALL text visible on the label, including:
   - Product name
   - Style or model number
   - Brand name
   - Barcode digits printed under the barcode (12 or 13 digits)
   - Retail price and supplier/wholesale price
   - Size or dimensions
   - Color
   - Category (e.g. "Shirts", "Footwear", "Accessories")
   - Care instructions or other free text

2. Extract exactly what is printed. Do not invent or infer values that
   are not visible.

3. For missing fields use an empty string, or 0 for prices.

OUTPUT FORMAT:
Respond with ONLY a JSON object:

{
  "success": true,
  "data": {
    "name": "...",
    "style_number": "...",
    "barcode": "...",
    "brand_name": "...",
    "product_category": "...",
    "retail_price": 0,
    "supply_price": 0,
    "size_or_dimensions": "...",
    "color": "...",
    "tags": "...",
    "description": "...",
    "notes": "..."
  },
  "error": ""
}

If the image is unreadable or is not a product label, respond with
{"success": false, "data": null, "error": "<short reason>"}.`, position, total)
}
