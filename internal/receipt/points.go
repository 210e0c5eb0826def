package receipt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Rule names, in the order they are summed
const (
	RuleRetailer          = "retailer"
	RuleRoundDollar       = "round_dollar"
	RuleQuarterMultiple   = "quarter_multiple"
	RuleItemPairs         = "item_pairs"
	RuleDescriptionLength = "description_length"
	RuleOddDay            = "odd_day"
	RuleAfternoon         = "afternoon"
)

var (
	quarter = decimal.RequireFromString("0.25")
	fifth   = decimal.RequireFromString("0.2")
)

// Score returns the total points awarded for a validated receipt
func Score(r *Receipt) int {
	return sumRules(Breakdown(r))
}

// Breakdown returns the contribution of every scoring rule in a fixed order.
// The receipt must have passed Validate; malformed amounts or dates panic.
func Breakdown(r *Receipt) []RuleScore {
	total := decimal.RequireFromString(r.Total)
	return []RuleScore{
		{Rule: RuleRetailer, Points: retailerPoints(r.Retailer)},
		{Rule: RuleRoundDollar, Points: roundDollarPoints(total)},
		{Rule: RuleQuarterMultiple, Points: quarterMultiplePoints(total)},
		{Rule: RuleItemPairs, Points: len(r.Items) / 2 * 5},
		{Rule: RuleDescriptionLength, Points: descriptionPoints(r.Items)},
		{Rule: RuleOddDay, Points: oddDayPoints(r.PurchaseDate)},
		{Rule: RuleAfternoon, Points: afternoonPoints(r.PurchaseTime)},
	}
}

// retailerPoints counts ASCII letters and digits
func retailerPoints(retailer string) int {
	n := 0
	for i := 0; i < len(retailer); i++ {
		c := retailer[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			n++
		}
	}
	return n
}

func roundDollarPoints(total decimal.Decimal) int {
	if total.IsInteger() {
		return 50
	}
	return 0
}

func quarterMultiplePoints(total decimal.Decimal) int {
	if total.Mod(quarter).IsZero() {
		return 25
	}
	return 0
}

func descriptionPoints(items []Item) int {
	points := 0
	for _, item := range items {
		n := utf8.RuneCountInString(strings.TrimSpace(item.ShortDescription))
		if n == 0 || n%3 != 0 {
			continue
		}
		price := decimal.RequireFromString(item.Price)
		points += int(price.Mul(fifth).Ceil().IntPart())
	}
	return points
}

func oddDayPoints(date string) int {
	if mustParse(dateLayout, date).Day()%2 == 1 {
		return 6
	}
	return 0
}

// afternoonPoints awards purchases strictly between 14:00 and 16:00
func afternoonPoints(clock string) int {
	t := mustParse(timeLayout, clock)
	h, m := t.Hour(), t.Minute()
	if (h == 14 && m > 0) || (h > 14 && h < 16) {
		return 10
	}
	return 0
}

func mustParse(layout, value string) time.Time {
	t, err := time.Parse(layout, value)
	if err != nil {
		panic(fmt.Sprintf("receipt: scoring unvalidated value %q: %v", value, err))
	}
	return t
}
