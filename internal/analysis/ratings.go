package analysis

import (
	"fmt"
	"strings"
)

// RatingType is an analyst recommendation/position.
type RatingType int

const (
	Buy RatingType = iota + 1
	Outperform
	Hold
	Underperform
	Sell
)

// RatingTypes lists every category from most to least bullish.
var RatingTypes = []RatingType{Buy, Outperform, Hold, Underperform, Sell}

// Weight is the category's position on the 1 (Buy) to 5 (Sell) scale, or 0
// for a value outside the enumeration.
func (r RatingType) Weight() uint64 {
	switch r {
	case Buy:
		return 1
	case Outperform:
		return 2
	case Hold:
		return 3
	case Underperform:
		return 4
	case Sell:
		return 5
	default:
		return 0
	}
}

func (r RatingType) String() string {
	switch r {
	case Buy:
		return "buy"
	case Outperform:
		return "outperform"
	case Hold:
		return "hold"
	case Underperform:
		return "underperform"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("rating(%d)", int(r))
	}
}

// ParseRatingType accepts the lower-case names produced by String.
func ParseRatingType(s string) (RatingType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "outperform":
		return Outperform, nil
	case "hold":
		return Hold, nil
	case "underperform":
		return Underperform, nil
	case "sell":
		return Sell, nil
	}
	return 0, fmt.Errorf("unknown rating type %q", s)
}

func (r RatingType) MarshalText() ([]byte, error) {
	if r < Buy || r > Sell {
		return nil, fmt.Errorf("unknown rating type %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *RatingType) UnmarshalText(b []byte) error {
	v, err := ParseRatingType(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Ratings is the set of recommendation counts over some period.
type Ratings struct {
	// Counts per category; not every category has to be present.
	Ratings map[RatingType]Counter `json:"ratings"`
	// ScaleMark is a provider-supplied standardized consensus, independent
	// of ScaledAverage.
	ScaleMark *float32 `json:"scale_mark,omitempty"`
}

// Total is the number of recommendations across all categories.
func (r Ratings) Total() uint64 {
	var n uint64
	for _, c := range r.Ratings {
		n += uint64(c)
	}
	return n
}

// ScaledAverage is the count-weighted mean of the category weights
// (Buy=1 .. Sell=5). ok is false when there are no ratings or every count
// is zero. Keys outside the enumeration are ignored.
func (r Ratings) ScaledAverage() (avg float64, ok bool) {
	if len(r.Ratings) == 0 {
		return 0, false
	}
	var count, total uint64
	for k, v := range r.Ratings {
		w := k.Weight()
		if w == 0 {
			continue
		}
		count += uint64(v)
		total += w * uint64(v)
	}
	if count == 0 {
		return 0, false
	}
	return float64(total) / float64(count), true
}
