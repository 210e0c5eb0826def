package scanning

import "context"

// ReceiptData contains the receipt fields extracted from an image.
// Amounts are decimal strings; the receipt validator decides whether they are acceptable.
type ReceiptData struct {
	Retailer     string     `json:"retailer"`
	PurchaseDate string     `json:"purchaseDate"` // ISO 8601 format
	PurchaseTime string     `json:"purchaseTime"` // HH:MM, 24-hour clock
	Items        []ItemData `json:"items"`
	Total        string     `json:"total"`
}

// ItemData is one extracted line item
type ItemData struct {
	ShortDescription string `json:"shortDescription"`
	Price            string `json:"price"`
}

// Scanner defines the interface for receipt scanning operations
type Scanner interface {
	// ScanReceipt analyzes a receipt image/PDF and extracts its contents
	ScanReceipt(ctx context.Context, imageData []byte, contentType string) (*ReceiptData, error)
	// Close closes the scanner and releases resources
	Close() error
}

// receiptScanPrompt is the shared prompt used by all LLM providers for scanning receipts
const receiptScanPrompt = `You are analyzing a store receipt. Carefully read all text in the image and extract the following information:

1. **Retailer**: The store or business name printed at the top of the receipt, e.g. "Target", "Walgreens", "M&M Corner Market". Use only letters, digits, spaces, "-" and "&".

2. **Purchase date**: The transaction date, converted to ISO 8601 format (YYYY-MM-DD).

3. **Purchase time**: The transaction time on a 24-hour clock in HH:MM format (e.g. "14:33" for 2:33 PM). Drop seconds.

4. **Items**: Every purchased line item, in the order printed. For each item give a short description (letters, digits, spaces and "-" only) and its price.

5. **Total**: The final total, grand total, or amount due.

Return ONLY valid JSON in this exact format:
{
  "retailer": "Store Name",
  "purchaseDate": "YYYY-MM-DD",
  "purchaseTime": "HH:MM",
  "items": [
    {"shortDescription": "Item description", "price": "0.00"}
  ],
  "total": "0.00"
}

Important:
- Every price and the total must be a string with exactly two decimal places and no currency symbol
- Do not include tax, discounts or subtotal lines as items
- If you cannot find a field, use null for that field
- Do not include any text before or after the JSON
- Do not use markdown code blocks`
