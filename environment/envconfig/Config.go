// Package envconfig creates environments by name with default physical
// parameters and tasks
package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/sunrise/environment"
	"github.com/samuelfneumann/sunrise/environment/gym"
	"github.com/samuelfneumann/sunrise/environment/pendulum"
	"github.com/samuelfneumann/sunrise/environment/wrappers"
	ts "github.com/samuelfneumann/sunrise/timestep"
	"gonum.org/v1/gonum/spatial/r1"
)

// Environments available without Gym
const (
	Pendulum         = "Pendulum-v0"
	PendulumDiscrete = "PendulumDiscrete-v0"
)

// Defaults for natively implemented environments
const (
	PendulumCutoff   int     = 200
	PendulumDiscount float64 = 0.99
)

// Create returns the environment with the given name as well as the
// first timestep of the environment. Pendulum and PendulumDiscrete
// are implemented natively; any other name is created through Gym.
// Environments with continuous actions are wrapped in a
// wrappers.NormalizedBox.
func Create(name string, seed uint64) (env.Environment, ts.TimeStep, error) {
	var (
		e     env.Environment
		first ts.TimeStep
		err   error
	)

	switch name {
	case Pendulum:
		e, first, err = pendulum.NewContinuous(pendulumStarter(seed),
			PendulumCutoff, PendulumDiscount)

	case PendulumDiscrete:
		e, first, err = pendulum.NewDiscrete(pendulumStarter(seed),
			PendulumCutoff, PendulumDiscount)

	default:
		e, first, err = gym.New(name, PendulumDiscount, seed)
	}
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create %v: %w", name, err)
	}

	if e.ActionSpec().Cardinality == env.Continuous {
		e, err = wrappers.NewNormalizedBox(e)
		if err != nil {
			return nil, ts.TimeStep{}, fmt.Errorf("create %v: %w", name, err)
		}
	}

	return e, first, nil
}

// pendulumStarter returns the starting state distribution of the
// pendulum environments
func pendulumStarter(seed uint64) env.Starter {
	angle := r1.Interval{Min: -pendulum.AngleBound, Max: pendulum.AngleBound}
	speed := r1.Interval{Min: -1.0, Max: 1.0}
	return env.NewUniformStarter([]r1.Interval{angle, speed}, seed)
}
