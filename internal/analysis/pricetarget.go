package analysis

import "github.com/shopspring/decimal"

// PriceTarget is the consensus price projection: high, low and average.
type PriceTarget struct {
	High             Money   `json:"high"`
	Low              Money   `json:"low"`
	Average          Money   `json:"average"`
	NumberOfAnalysts Counter `json:"number_of_analysts"`
}

// Validate checks the integrity of the price target. The first failing rule
// is returned: an inverted range, then an average outside [Low, High], then
// a zero analyst count.
func (p PriceTarget) Validate() error {
	if p.High.LessThan(p.Low) {
		return ErrRangeInverted
	}
	if p.Average.LessThan(p.Low) || p.Average.GreaterThan(p.High) {
		return ErrAverageOutOfBounds
	}
	if p.NumberOfAnalysts == 0 {
		return ErrNoAnalysts
	}
	return nil
}

var hundred = decimal.NewFromInt(100)

// Upside is the percentage by which the average target exceeds price.
// ok is false when price is not positive.
func (p PriceTarget) Upside(price Money) (pct decimal.Decimal, ok bool) {
	if !price.IsPositive() {
		return decimal.Zero, false
	}
	return p.Average.Sub(price).Div(price).Mul(hundred), true
}
