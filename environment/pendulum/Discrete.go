package pendulum

import (
	"fmt"

	"github.com/samuelfneumann/sunrise/environment"
	"github.com/samuelfneumann/sunrise/timestep"
	"gonum.org/v1/gonum/mat"
)

// torques maps discrete actions to the torque applied at the base
var torques = [NumDiscreteActions]float64{
	MinContinuousAction,
	MinContinuousAction / 2.0,
	0.0,
	MaxContinuousAction / 2.0,
	MaxContinuousAction,
}

// Discrete implements the pendulum environment with NumDiscreteActions
// actions. Action i applies torque torques[i], from full torque counter
// clockwise through no torque to full torque clockwise.
type Discrete struct {
	*base
}

// NewDiscrete creates and returns a new Discrete environment whose
// episodes are cut off after cutoff steps
func NewDiscrete(s environment.Starter, cutoff int,
	discount float64) (*Discrete, timestep.TimeStep, error) {
	baseEnv, firstStep, err := newBase(s, cutoff, discount)
	if err != nil {
		return nil, timestep.TimeStep{}, err
	}

	return &Discrete{baseEnv}, firstStep, nil
}

// Step takes one environmental step given action a and returns the next
// timestep and whether or not the episode has ended. Actions are
// 1-dimensional vectors holding the action index.
func (p *Discrete) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	if action.Len() != ActionDims {
		return timestep.TimeStep{}, true, fmt.Errorf("step: actions should "+
			"be %v-dimensional, have %v", ActionDims, action.Len())
	}

	a := action.AtVec(0)
	index := int(a)
	if float64(index) != a || index < 0 || index >= NumDiscreteActions {
		return timestep.TimeStep{}, true, fmt.Errorf("step: illegal action %v",
			a)
	}

	nextState := p.nextState(p.lastStep, torques[index])
	nextStep, last := p.update(nextState, nil)
	return nextStep, last, nil
}

// ActionSpec returns the action specification of the environment
func (p *Discrete) ActionSpec() environment.Spec {
	return environment.NewDiscreteSpec(environment.Action, NumDiscreteActions)
}

// String converts the environment to a string representation
func (p *Discrete) String() string {
	str := "Discrete Pendulum  |  theta: %v  |  theta dot: %v"
	theta := p.lastStep.Observation.AtVec(0)
	thetadot := p.lastStep.Observation.AtVec(1)

	return fmt.Sprintf(str, theta, thetadot)
}
