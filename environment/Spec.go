package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an acion, an observation, a discount, or a reward
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
	Reward
)

func (s SpecType) String() string {
	switch s {
	case Action:
		return "Action"
	case Observation:
		return "Observation"
	case Discount:
		return "Discount"
	case Reward:
		return "Reward"
	}
	return fmt.Sprintf("SpecType(%d)", int(s))
}

// Cardinality determines the cardinality of a number (discrete or continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of an action, observation, discount, or reward in
// an environment.
//
// Discrete specifications are 1-dimensional: a discrete space of N
// values has LowerBound [0] and UpperBound [N-1]. Continuous
// specifications are flat, multi-dimensional boxes should be flattened.
type Spec struct {
	Shape      *mat.VecDense
	Type       SpecType
	LowerBound *mat.VecDense
	UpperBound *mat.VecDense
	Cardinality
}

// NewSpec constructs a new environment specification
// The shape argument outlines the shape of the data described by the
// specification. The argument t outlines what the specification is
// describing (e.g. actions, observations, etc.). The cardinality
// arguments describes whether the values that the spec describes are
// continuous or discrete.
func NewSpec(shape *mat.VecDense, t SpecType, lowerBound,
	upperBound *mat.VecDense, cardinality Cardinality) Spec {
	if shape.Len() != lowerBound.Len() {
		panic(fmt.Sprintf("shape length %v must match lower bounds length %v",
			shape.Len(), lowerBound.Len()))
	}
	if shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("shape length %v must match upper bounds length %v",
			shape.Len(), upperBound.Len()))
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}

// NewDiscreteSpec returns the specification of a discrete space with
// n values {0, 1, ..., n-1}
func NewDiscreteSpec(t SpecType, n int) Spec {
	if n < 1 {
		panic(fmt.Sprintf("newDiscreteSpec: need at least one value, got %v", n))
	}
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, nil)
	upperBound := mat.NewVecDense(1, []float64{float64(n - 1)})

	return NewSpec(shape, t, lowerBound, upperBound, Discrete)
}

// NewBoxSpec returns the specification of a continuous box bounded
// elementwise by low and high
func NewBoxSpec(t SpecType, low, high []float64) Spec {
	lowerBound := mat.NewVecDense(len(low), low)
	upperBound := mat.NewVecDense(len(high), high)
	shape := mat.NewVecDense(len(low), nil)

	return NewSpec(shape, t, lowerBound, upperBound, Continuous)
}
