package analysis

import "fmt"

// ValidationKind names the rule an aggregate broke.
type ValidationKind int

const (
	RangeInverted ValidationKind = iota + 1
	AverageOutOfBounds
	NoAnalysts
	DateOrderInverted
	NoEstimates
)

func (k ValidationKind) String() string {
	switch k {
	case RangeInverted:
		return "range_inverted"
	case AverageOutOfBounds:
		return "average_out_of_bounds"
	case NoAnalysts:
		return "no_analysts"
	case DateOrderInverted:
		return "date_order_inverted"
	case NoEstimates:
		return "no_estimates"
	default:
		return fmt.Sprintf("validation_kind(%d)", int(k))
	}
}

// ValidationError describes a logically inconsistent aggregate. It is a
// normal result for the caller to inspect, not a failure of the program.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is matches any *ValidationError of the same kind, so the Err* values below
// work with errors.Is regardless of message.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

var (
	ErrRangeInverted = &ValidationError{
		Kind:    RangeInverted,
		Message: "high price target cannot be lower than low price target",
	}
	ErrAverageOutOfBounds = &ValidationError{
		Kind:    AverageOutOfBounds,
		Message: "average price target must be within the high and low bounds",
	}
	ErrNoAnalysts = &ValidationError{
		Kind:    NoAnalysts,
		Message: "number of analysts cannot be zero for a valid price target",
	}
	ErrDateOrderInverted = &ValidationError{
		Kind:    DateOrderInverted,
		Message: "fiscal end date should be before the next report date",
	}
	ErrNoEstimates = &ValidationError{
		Kind:    NoEstimates,
		Message: "number of estimates cannot be zero for a valid EPS consensus",
	}
)
