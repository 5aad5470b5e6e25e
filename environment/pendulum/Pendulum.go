// Package pendulum implements the pendulum classic control environment
// with a swing-up task
package pendulum

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/sunrise/environment"
	"github.com/samuelfneumann/sunrise/timestep"
	"github.com/samuelfneumann/sunrise/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// default physical constants
const (
	AngleBound  float64 = math.Pi // +/- Angle bounds
	SpeedBound  float64 = 8.0     // +/- Speed bounds
	TorqueBound float64 = 2.0     // +/- Torque bounds

	MaxContinuousAction float64 = TorqueBound
	MinContinuousAction float64 = -MaxContinuousAction

	// NumDiscreteActions is the number of actions of the Discrete
	// environment
	NumDiscreteActions int = 5

	dt              float64 = 0.05
	Gravity         float64 = 9.8
	Mass            float64 = 1.0
	Length          float64 = 1.0
	ActionDims      int     = 1
	ObservationDims int     = 2
)

// base implements the physics shared by the Continuous and Discrete
// pendulum environments. A pendulum is attached to a fixed base and
// the agent applies an underpowered torque at the base, so that the
// pendulum must be rocked back and forth to swing it upright.
//
// Observations are the angle of the pendulum from the positive y-axis,
// normalized to [-AngleBound, AngleBound], and the angular velocity,
// clipped to [-SpeedBound, SpeedBound]. Rewards are the cosine of the
// angle, so the agent receives 1.0 on each step the pendulum points
// straight up. Episodes are cut off after a fixed number of steps.
type base struct {
	environment.Starter
	environment.Ender
	angleBounds  r1.Interval
	speedBounds  r1.Interval
	torqueBounds r1.Interval
	lastStep     timestep.TimeStep
	discount     float64
}

// newBase creates and returns a new base environment
func newBase(s environment.Starter, cutoff int, discount float64) (*base,
	timestep.TimeStep, error) {
	p := &base{
		Starter:      s,
		Ender:        environment.NewStepLimit(cutoff),
		angleBounds:  r1.Interval{Min: -AngleBound, Max: AngleBound},
		speedBounds:  r1.Interval{Min: -SpeedBound, Max: SpeedBound},
		torqueBounds: r1.Interval{Min: -TorqueBound, Max: TorqueBound},
		discount:     discount,
	}

	firstStep, err := p.Reset()
	if err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: %w", err)
	}
	return p, firstStep, nil
}

// LastTimeStep returns the last TimeStep that occurred in the
// environment
func (p *base) LastTimeStep() timestep.TimeStep {
	return p.lastStep
}

// Reset resets the environment and returns a starting state drawn from the
// Starter
func (p *base) Reset() (timestep.TimeStep, error) {
	state := p.Start()
	if err := validateState(state, p.angleBounds, p.speedBounds); err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	startStep := timestep.New(timestep.First, 0, p.discount, state, 0)
	p.lastStep = startStep
	return startStep, nil
}

// nextState computes the next state of the environment given a
// timestep and an amount of torque to apply to the fixed base of the
// pendulum. The torque is first clipped to the appropriate torque
// bounds.
func (p *base) nextState(t timestep.TimeStep, torque float64) *mat.VecDense {
	obs := t.Observation
	th, thdot := obs.AtVec(0), obs.AtVec(1)

	torque = floatutils.ClipInterval(torque, p.torqueBounds)

	newthdot := thdot + (-3*Gravity/(2*Length)*math.Sin(th+math.Pi)+
		3.0/(Mass*math.Pow(Length, 2))*torque)*dt
	newth := th + (newthdot * dt)

	// Clip the angular velocity
	newthdot = floatutils.ClipInterval(newthdot, p.speedBounds)

	newth = normalizeAngle(newth, p.angleBounds)

	return mat.NewVecDense(ObservationDims, []float64{newth, newthdot})
}

// update moves the environment to newState and returns the resulting
// timestep
func (p *base) update(newState *mat.VecDense,
	info map[string]*mat.VecDense) (timestep.TimeStep, bool) {
	reward := math.Cos(newState.AtVec(0))
	nextStep := timestep.New(timestep.Mid, reward, p.discount, newState,
		p.lastStep.Number+1)
	nextStep.Info = info

	// Check if the step is the last in the episode and adjust step type
	// if necessary
	p.End(&nextStep)

	p.lastStep = nextStep
	return nextStep, nextStep.Last()
}

// DiscountSpec returns the discount specification of the environment
func (p *base) DiscountSpec() environment.Spec {
	return environment.NewBoxSpec(environment.Discount,
		[]float64{p.discount}, []float64{p.discount})
}

// ObservationSpec returns the observation specification of the environment
func (p *base) ObservationSpec() environment.Spec {
	return environment.NewBoxSpec(environment.Observation,
		[]float64{p.angleBounds.Min, p.speedBounds.Min},
		[]float64{p.angleBounds.Max, p.speedBounds.Max})
}

// RewardSpec returns the reward specification of the environment
func (p *base) RewardSpec() environment.Spec {
	return environment.NewBoxSpec(environment.Reward, []float64{-1},
		[]float64{1})
}

// normalizeAngle normalizes the pendulum angle to the appropriate limits
func normalizeAngle(th float64, angleBounds r1.Interval) float64 {
	if th > angleBounds.Max {
		divisor := int(th / angleBounds.Max)
		return -math.Pi + th - (angleBounds.Max * float64(divisor))
	} else if th < angleBounds.Min {
		divisor := int(th / angleBounds.Min)
		return math.Pi + th - (angleBounds.Min * float64(divisor))
	}
	return th
}

// validateState validates the state to ensure that the angle and angular
// velocity are within the environmental limits
func validateState(obs mat.Vector, angleBounds, speedBounds r1.Interval) error {
	if obs.Len() != ObservationDims {
		return fmt.Errorf("state must have %v dimensions, have %v",
			ObservationDims, obs.Len())
	}

	if th := obs.AtVec(0); th > angleBounds.Max || th < angleBounds.Min {
		return fmt.Errorf("theta %v is not within bounds %v", th, angleBounds)
	}

	if thdot := obs.AtVec(1); thdot > speedBounds.Max || thdot < speedBounds.Min {
		return fmt.Errorf("theta dot %v is not within bounds %v", thdot,
			speedBounds)
	}
	return nil
}
