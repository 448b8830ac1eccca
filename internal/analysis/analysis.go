// Package analysis holds the market-analysis aggregates returned by data
// providers: analyst ratings, price targets and EPS consensus.
//
// Everything here is a plain value. Nothing is validated on construction;
// callers decide when to run Validate or ScaledAverage.
package analysis

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Counter is used to count things (analysts, estimates, ratings).
type Counter = uint32

// Money is a monetary amount with a total order.
type Money = decimal.Decimal

// Date is a calendar day, stored as UTC midnight.
type Date = time.Time

// NewDate returns the calendar day y-m-d.
func NewDate(y int, m time.Month, d int) Date {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Symbol identifies a tradable instrument.
type Symbol string

// Symbols is a set of symbols.
type Symbols map[Symbol]struct{}

// NewSymbols builds a set from the given symbols; duplicates collapse.
func NewSymbols(symbols ...Symbol) Symbols {
	s := make(Symbols, len(symbols))
	for _, sym := range symbols {
		s.Add(sym)
	}
	return s
}

func (s Symbols) Add(sym Symbol) { s[sym] = struct{}{} }

func (s Symbols) Contains(sym Symbol) bool {
	_, ok := s[sym]
	return ok
}

func (s Symbols) Len() int { return len(s) }

// Sorted returns the members in lexical order.
func (s Symbols) Sorted() []Symbol {
	out := make([]Symbol, 0, len(s))
	for sym := range s {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s Symbols) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array into the set.
func (s *Symbols) UnmarshalJSON(b []byte) error {
	var list []Symbol
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*s = NewSymbols(list...)
	return nil
}

// FinancialPeriod tags a company reporting period. Quarter 0 means the full
// fiscal year.
type FinancialPeriod struct {
	Year    int `json:"year" yaml:"year"`
	Quarter int `json:"quarter" yaml:"quarter"`
}

func (p FinancialPeriod) IsYear() bool { return p.Quarter == 0 }

func (p FinancialPeriod) String() string {
	if p.IsYear() {
		return fmt.Sprintf("FY%d", p.Year)
	}
	return fmt.Sprintf("Q%d %d", p.Quarter, p.Year)
}

// Snapshot is a value observed at a point in time.
type Snapshot[T any] struct {
	Value     T         `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Bounded is a value that holds over the half-open interval [Start, End).
type Bounded[T any] struct {
	Value T         `json:"value"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the validity interval.
func (b Bounded[T]) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}
