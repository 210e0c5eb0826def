package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// amountText accepts an amount written either as a JSON string or a JSON number
type amountText string

func (a *amountText) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = amountText(normalizeAmount(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*a = amountText(normalizeAmount(n.String()))
	return nil
}

type rawReceipt struct {
	Retailer     string     `json:"retailer"`
	PurchaseDate string     `json:"purchaseDate"`
	PurchaseTime string     `json:"purchaseTime"`
	Items        []rawItem  `json:"items"`
	Total        amountText `json:"total"`
}

type rawItem struct {
	ShortDescription string     `json:"shortDescription"`
	Price            amountText `json:"price"`
}

// parseReceiptJSON parses the JSON response from a model
func parseReceiptJSON(text string) (*ReceiptData, error) {
	// Remove markdown code blocks if present
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var raw rawReceipt
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	data := &ReceiptData{
		Retailer:     strings.TrimSpace(raw.Retailer),
		PurchaseDate: normalizeDate(raw.PurchaseDate),
		PurchaseTime: normalizeTime(raw.PurchaseTime),
		Items:        make([]ItemData, 0, len(raw.Items)),
		Total:        string(raw.Total),
	}
	for _, item := range raw.Items {
		data.Items = append(data.Items, ItemData{
			ShortDescription: strings.TrimSpace(item.ShortDescription),
			Price:            string(item.Price),
		})
	}

	return data, nil
}

// normalizeDate rewrites common date formats as YYYY-MM-DD.
// Unrecognized values are returned unchanged so validation can reject them.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	formats := []string{
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
		"1/2/2006",
		"01/02/06",
		"02-01-2006",
		"Jan 2, 2006",
		"January 2, 2006",
	}
	for _, format := range formats {
		if d, err := time.Parse(format, s); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return s
}

// normalizeTime rewrites common clock formats as 24-hour HH:MM
func normalizeTime(s string) string {
	s = strings.TrimSpace(s)
	formats := []string{
		"15:04",
		"15:04:05",
		"3:04 PM",
		"3:04PM",
		"3:04:05 PM",
		"3:04 pm",
		"3:04pm",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.Format("15:04")
		}
	}
	return s
}

// normalizeAmount strips currency decoration and pads values with at most two
// fractional digits to exactly two. Anything else is returned unchanged.
func normalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil || d.Exponent() < -2 {
		return s
	}
	return d.StringFixed(2)
}
