// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType denotes why an episode ended. A Cutoff ending is caused by a
// step limit and should not be treated as terminal when bootstrapping.
type EndType int

const (
	NotEnded EndType = iota
	TerminalStateReached
	Cutoff
)

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType
	EndType
	Reward      float64
	Discount    float64
	Observation *mat.VecDense
	Number      int

	// Info holds auxiliary per-step data reported by the environment,
	// keyed by field name
	Info map[string]*mat.VecDense
}

// New returns a new TimeStep
func New(t StepType, r, d float64, o *mat.VecDense, n int) TimeStep {
	return TimeStep{StepType: t, Reward: r, Discount: d, Observation: o,
		Number: n}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// Terminal returns whether the episode ended by reaching a terminal
// state, as opposed to being cut off
func (t *TimeStep) Terminal() bool {
	return t.Last() && t.EndType == TerminalStateReached
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Discount, t.Number)
}
