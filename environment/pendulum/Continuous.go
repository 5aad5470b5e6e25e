package pendulum

import (
	"fmt"

	"github.com/samuelfneumann/sunrise/environment"
	"github.com/samuelfneumann/sunrise/timestep"
	"github.com/samuelfneumann/sunrise/utils/floatutils"
	"gonum.org/v1/gonum/mat"
)

// TorqueInfo is the auxiliary info field holding the torque applied
// on each step of the Continuous environment
const TorqueInfo = "torque"

// Continuous implements the pendulum environment with continuous,
// 1-dimensional actions. Actions determine the torque applied to the
// pendulum at its fixed base and are clipped to
// [MinContinuousAction, MaxContinuousAction].
//
// The torque actually applied on each step is reported in the TorqueInfo
// field of each TimeStep's Info.
type Continuous struct {
	*base
}

// NewContinuous creates and returns a new Continuous environment whose
// episodes are cut off after cutoff steps
func NewContinuous(s environment.Starter, cutoff int,
	discount float64) (*Continuous, timestep.TimeStep, error) {
	baseEnv, firstStep, err := newBase(s, cutoff, discount)
	if err != nil {
		return nil, timestep.TimeStep{}, err
	}

	return &Continuous{baseEnv}, firstStep, nil
}

// Step takes one environmental step given action a and returns the next
// timestep and whether or not the episode has ended
func (p *Continuous) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	if action.Len() != ActionDims {
		return timestep.TimeStep{}, true, fmt.Errorf("step: actions should "+
			"be %v-dimensional, have %v", ActionDims, action.Len())
	}

	torque := floatutils.ClipInterval(action.AtVec(0), p.torqueBounds)

	nextState := p.nextState(p.lastStep, torque)
	info := map[string]*mat.VecDense{
		TorqueInfo: mat.NewVecDense(1, []float64{torque}),
	}

	nextStep, last := p.update(nextState, info)
	return nextStep, last, nil
}

// ActionSpec returns the action specification of the environment
func (p *Continuous) ActionSpec() environment.Spec {
	return environment.NewBoxSpec(environment.Action,
		[]float64{MinContinuousAction}, []float64{MaxContinuousAction})
}

// InfoSizes implements the environment.InfoSizer interface
func (p *Continuous) InfoSizes() map[string]int {
	return map[string]int{TorqueInfo: 1}
}

// String converts the environment to a string representation
func (p *Continuous) String() string {
	str := "Continuous Pendulum  |  theta: %v  |  theta dot: %v"
	theta := p.lastStep.Observation.AtVec(0)
	thetadot := p.lastStep.Observation.AtVec(1)

	return fmt.Sprintf(str, theta, thetadot)
}
