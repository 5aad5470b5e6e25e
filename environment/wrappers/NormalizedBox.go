package wrappers

import (
	"fmt"

	"github.com/samuelfneumann/sunrise/environment"
	"github.com/samuelfneumann/sunrise/timestep"
	"github.com/samuelfneumann/sunrise/utils/matutils"
	"gonum.org/v1/gonum/mat"
)

// NormalizedBox wraps a continuous-action environment so that actions
// are taken from the box [-1, 1]^n. Each action is clipped to [-1, 1]
// and then mapped affinely onto the wrapped environment's action
// bounds before stepping, so that -1 maps to the lower bound and 1
// maps to the upper bound.
//
// Environments with discrete actions are passed through unchanged.
type NormalizedBox struct {
	environment.Environment
	low, high *mat.VecDense
	discrete  bool
}

// NewNormalizedBox returns a new NormalizedBox wrapping env
func NewNormalizedBox(env environment.Environment) (*NormalizedBox, error) {
	spec := env.ActionSpec()
	if spec.Cardinality == environment.Discrete {
		return &NormalizedBox{Environment: env, discrete: true}, nil
	}

	if spec.LowerBound == nil || spec.UpperBound == nil ||
		spec.LowerBound.Len() != spec.UpperBound.Len() {
		return nil, fmt.Errorf("newNormalizedBox: action bounds are " +
			"malformed")
	}
	for i := 0; i < spec.LowerBound.Len(); i++ {
		if spec.LowerBound.AtVec(i) > spec.UpperBound.AtVec(i) {
			return nil, fmt.Errorf("newNormalizedBox: lower bound %v > "+
				"upper bound %v at index %v", spec.LowerBound.AtVec(i),
				spec.UpperBound.AtVec(i), i)
		}
	}

	return &NormalizedBox{
		Environment: env,
		low:         mat.VecDenseCopyOf(spec.LowerBound),
		high:        mat.VecDenseCopyOf(spec.UpperBound),
	}, nil
}

// Step rescales action into the wrapped environment's bounds and
// takes one step in the wrapped environment
func (n *NormalizedBox) Step(action *mat.VecDense) (timestep.TimeStep,
	bool, error) {
	if n.discrete {
		return n.Environment.Step(action)
	}

	scaled, err := n.Scale(action)
	if err != nil {
		return timestep.TimeStep{}, true, fmt.Errorf("step: %w", err)
	}
	return n.Environment.Step(scaled)
}

// Scale maps a normalized action onto the wrapped environment's
// action bounds
func (n *NormalizedBox) Scale(action *mat.VecDense) (*mat.VecDense, error) {
	if action.Len() != n.low.Len() {
		return nil, fmt.Errorf("scale: action should be %v-dimensional, "+
			"have %v", n.low.Len(), action.Len())
	}

	scaled := mat.VecDenseCopyOf(action)
	matutils.VecClip(scaled, -1, 1)
	for i := 0; i < scaled.Len(); i++ {
		low, high := n.low.AtVec(i), n.high.AtVec(i)
		scaled.SetVec(i, low+(scaled.AtVec(i)+1.0)*0.5*(high-low))
	}
	return scaled, nil
}

// ActionSpec returns the action specification of the environment.
// Continuous actions are reported in [-1, 1].
func (n *NormalizedBox) ActionSpec() environment.Spec {
	if n.discrete {
		return n.Environment.ActionSpec()
	}

	size := n.low.Len()
	low := make([]float64, size)
	high := make([]float64, size)
	for i := range low {
		low[i], high[i] = -1, 1
	}
	return environment.NewBoxSpec(environment.Action, low, high)
}

// InfoSizes forwards the auxiliary info declaration of the wrapped
// environment, returning nil if it declares none
func (n *NormalizedBox) InfoSizes() map[string]int {
	if sizer, ok := n.Environment.(environment.InfoSizer); ok {
		return sizer.InfoSizes()
	}
	return nil
}

// Unwrap returns the wrapped environment
func (n *NormalizedBox) Unwrap() environment.Environment {
	return n.Environment
}
