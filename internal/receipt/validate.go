package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// maxAmount caps amounts at 12 integer digits so scoring stays inside an int
var maxAmount = decimal.New(1, 12)

var (
	retailerPattern    = regexp.MustCompile(`^[A-Za-z0-9\s&-]+$`)
	descriptionPattern = regexp.MustCompile(`^[A-Za-z0-9\s-]+$`)
	timePattern        = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Validate checks an untyped receipt payload, as produced by decoding JSON into an
// interface value, and returns the typed Receipt. Checks run in a fixed order and the
// first failure is returned as a *ValidationError.
func Validate(raw any) (*Receipt, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, invalid(ReasonInvalidFormat, "receipt must be an object")
	}

	for _, field := range []string{"retailer", "purchaseDate", "purchaseTime", "total"} {
		if !truthy(obj[field]) {
			return nil, invalid(ReasonInvalidFormat, "missing %s", field)
		}
	}
	rawItems, ok := obj["items"].([]any)
	if !ok {
		return nil, invalid(ReasonInvalidFormat, "items must be a list")
	}

	retailer, ok := obj["retailer"].(string)
	if !ok || !retailerPattern.MatchString(retailer) {
		return nil, invalid(ReasonInvalidRetailer, "retailer %v", obj["retailer"])
	}

	total, ok := obj["total"].(string)
	if !ok || !isAmount(total) {
		return nil, invalid(ReasonInvalidTotal, "total %v", obj["total"])
	}

	items := make([]Item, 0, len(rawItems))
	for i, rawItem := range rawItems {
		item, err := validateItem(rawItem)
		if err != nil {
			return nil, invalid(ReasonInvalidItem, "item %d: %v", i, err)
		}
		items = append(items, item)
	}

	date, ok := obj["purchaseDate"].(string)
	if !ok || !isDate(date) {
		return nil, invalid(ReasonInvalidDateTime, "purchase date %v", obj["purchaseDate"])
	}
	clock, ok := obj["purchaseTime"].(string)
	if !ok || !isClock(clock) {
		return nil, invalid(ReasonInvalidDateTime, "purchase time %v", obj["purchaseTime"])
	}

	return &Receipt{
		Retailer:     retailer,
		PurchaseDate: date,
		PurchaseTime: clock,
		Items:        items,
		Total:        total,
	}, nil
}

func validateItem(raw any) (Item, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Item{}, errors.New("not an object")
	}
	desc, ok := obj["shortDescription"].(string)
	if !ok || desc == "" {
		return Item{}, errors.New("missing shortDescription")
	}
	price, ok := obj["price"].(string)
	if !ok || price == "" {
		return Item{}, errors.New("missing price")
	}
	if !descriptionPattern.MatchString(desc) {
		return Item{}, fmt.Errorf("invalid shortDescription %q", desc)
	}
	if !isAmount(price) {
		return Item{}, fmt.Errorf("invalid price %q", price)
	}
	return Item{ShortDescription: desc, Price: price}, nil
}

// isAmount reports whether text is a non-negative decimal below maxAmount written with
// exactly two fractional digits. Re-rendering the parsed value must reproduce the text,
// which rejects "3", "3.1", "3.100", "+3.00", "03.00" and exponent forms.
func isAmount(text string) bool {
	d, err := decimal.NewFromString(text)
	if err != nil || d.IsNegative() || d.GreaterThanOrEqual(maxAmount) {
		return false
	}
	return d.StringFixed(2) == text
}

func isDate(text string) bool {
	_, err := time.Parse(dateLayout, text)
	return err == nil
}

func isClock(text string) bool {
	if !timePattern.MatchString(text) {
		return false
	}
	_, err := time.Parse(timeLayout, text)
	return err == nil
}

// truthy follows JSON-payload presence rules: null, false, "", and zero are absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}
