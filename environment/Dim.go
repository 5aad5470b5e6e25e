package environment

import (
	"fmt"
	"math"
)

// SpaceError is returned when a Spec describes a space whose
// dimensionality cannot be resolved
type SpaceError struct {
	Type        SpecType
	Cardinality Cardinality
	Reason      string
}

// Error satisfies the error interface
func (s *SpaceError) Error() string {
	return fmt.Sprintf("unsupported %v space of type %q: %v", s.Type,
		s.Cardinality, s.Reason)
}

// Dim returns the dimensionality of the vectors that encode values in
// the space described by s. A discrete space of N values has
// dimensionality N, since values are one-hot encoded. A continuous
// space has dimensionality equal to the product of its shape, which
// for a flat Spec is the length of its Shape.
func Dim(s Spec) (int, error) {
	switch s.Cardinality {
	case Discrete:
		return discreteDim(s)

	case Continuous:
		if s.Shape == nil || s.Shape.Len() == 0 {
			return 0, &SpaceError{s.Type, s.Cardinality, "empty shape"}
		}
		return s.Shape.Len(), nil
	}

	return 0, &SpaceError{s.Type, s.Cardinality, "unknown cardinality"}
}

// discreteDim returns the number of values in a discrete space
func discreteDim(s Spec) (int, error) {
	if s.LowerBound == nil || s.UpperBound == nil {
		return 0, &SpaceError{s.Type, s.Cardinality, "missing bounds"}
	}
	if s.LowerBound.Len() != 1 || s.UpperBound.Len() != 1 {
		return 0, &SpaceError{s.Type, s.Cardinality,
			fmt.Sprintf("want 1 dimension, have %v", s.UpperBound.Len())}
	}

	low, high := s.LowerBound.AtVec(0), s.UpperBound.AtVec(0)
	if low != math.Trunc(low) || high != math.Trunc(high) {
		return 0, &SpaceError{s.Type, s.Cardinality,
			fmt.Sprintf("non-integral bounds [%v, %v]", low, high)}
	}
	if high < low {
		return 0, &SpaceError{s.Type, s.Cardinality,
			fmt.Sprintf("empty range [%v, %v]", low, high)}
	}

	return int(high-low) + 1, nil
}
