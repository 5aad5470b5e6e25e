// Package environment outlines the interfaces and structs needed to
// implement concrete environments and to describe their observation
// and action spaces
package environment

import (
	"github.com/samuelfneumann/sunrise/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when an episode ends
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Describer describes the layout of the observations and actions of an
// environment
type Describer interface {
	ObservationSpec() Spec
	ActionSpec() Spec
}

// InfoSizer is implemented by environments that report auxiliary data
// on each timestep. InfoSizes maps each auxiliary field name to the
// length of the vector reported for it.
type InfoSizer interface {
	InfoSizes() map[string]int
}

// Environment implements a simulated environment
type Environment interface {
	Describer
	Reset() (timestep.TimeStep, error) // Resets between episodes
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)
	DiscountSpec() Spec
}
