// Package random implements a policy which selects actions uniformly
// at random from an environment's action space
package random

import (
	"fmt"

	env "github.com/samuelfneumann/sunrise/environment"
	"github.com/samuelfneumann/sunrise/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Policy selects actions uniformly at random. Discrete actions are
// drawn from {0, 1, ..., N-1} and continuous actions from the box
// bounding the action space.
type Policy struct {
	discrete bool
	actions  int
	dims     []distuv.Uniform
	rng      *rand.Rand
}

// New returns a new uniform random policy over the action space of e
func New(e env.Describer, seed uint64) (*Policy, error) {
	spec := e.ActionSpec()
	dim, err := env.Dim(spec)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	source := rand.NewSource(seed)
	if spec.Cardinality == env.Discrete {
		return &Policy{discrete: true, actions: dim, rng: rand.New(source)}, nil
	}

	dims := make([]distuv.Uniform, dim)
	for i := range dims {
		low, high := spec.LowerBound.AtVec(i), spec.UpperBound.AtVec(i)
		if high < low {
			return nil, fmt.Errorf("new: action dimension %v has empty "+
				"bounds [%v, %v]", i, low, high)
		}
		dims[i] = distuv.Uniform{Min: low, Max: high, Src: source}
	}

	return &Policy{dims: dims}, nil
}

// SelectAction implements the agent.Policy interface
func (p *Policy) SelectAction(timestep.TimeStep) (*mat.VecDense, error) {
	if p.discrete {
		a := float64(p.rng.Intn(p.actions))
		return mat.NewVecDense(1, []float64{a}), nil
	}

	action := mat.NewVecDense(len(p.dims), nil)
	for i := range p.dims {
		action.SetVec(i, p.dims[i].Rand())
	}
	return action, nil
}
