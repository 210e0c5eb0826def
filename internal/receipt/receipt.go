package receipt

// Receipt represents a validated purchase receipt.
// Amounts keep the exact text that was submitted; they are parsed as decimals when scored.
type Receipt struct {
	Retailer     string `json:"retailer"`
	PurchaseDate string `json:"purchaseDate"` // YYYY-MM-DD
	PurchaseTime string `json:"purchaseTime"` // HH:MM, 24-hour clock
	Items        []Item `json:"items"`
	Total        string `json:"total"`
}

// Item represents a single line item on a receipt
type Item struct {
	ShortDescription string `json:"shortDescription"`
	Price            string `json:"price"`
}

// RuleScore is the contribution of one scoring rule
type RuleScore struct {
	Rule   string `json:"rule"`
	Points int    `json:"points"`
}

// ScoreRecord is the stored result of scoring a receipt. It is never modified after creation.
type ScoreRecord struct {
	ID     string      `json:"id"`
	Points int         `json:"points"`
	Rules  []RuleScore `json:"rules"`
}
