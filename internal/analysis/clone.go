package analysis

import "slices"

// Clone returns an independent copy of the set. A nil set stays nil.
func (s Symbols) Clone() Symbols {
	if s == nil {
		return nil
	}
	out := make(Symbols, len(s))
	for sym := range s {
		out.Add(sym)
	}
	return out
}

// Clone returns a copy that shares no map or pointer with r.
func (r Ratings) Clone() Ratings {
	out := Ratings{}
	if r.Ratings != nil {
		out.Ratings = make(map[RatingType]Counter, len(r.Ratings))
		for k, v := range r.Ratings {
			out.Ratings[k] = v
		}
	}
	if r.ScaleMark != nil {
		m := *r.ScaleMark
		out.ScaleMark = &m
	}
	return out
}

// ClonePriceTarget copies a price target snapshot. Nil stays nil.
func ClonePriceTarget(s *Snapshot[PriceTarget]) *Snapshot[PriceTarget] {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// CloneRatingsHistory deep-copies bounded ratings. Nil stays nil.
func CloneRatingsHistory(in []Bounded[Ratings]) []Bounded[Ratings] {
	if in == nil {
		return nil
	}
	out := make([]Bounded[Ratings], len(in))
	for i, b := range in {
		out[i] = Bounded[Ratings]{Value: b.Value.Clone(), Start: b.Start, End: b.End}
	}
	return out
}

// CloneEPS copies EPS consensus rows. Nil stays nil.
func CloneEPS(in []EPSConsensus) []EPSConsensus {
	return slices.Clone(in)
}
