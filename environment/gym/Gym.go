// Package gym provides access to OpenAI's Gym environments.
//
// All environments in the Classic Control and MuJoCo suites can be
// used. All environments only work with their default tasks and episode
// cutoffs.
//
// This is made possible through the Go bindings for OpenAI Gym,
// found at https://github.com/samuelfneumann/GoGym.
package gym

import (
	"fmt"

	"github.com/samuelfneumann/gogym"
	env "github.com/samuelfneumann/sunrise/environment"
	ts "github.com/samuelfneumann/sunrise/timestep"
	"gonum.org/v1/gonum/mat"
)

// GymEnv implements access to an OpenAI Gym environment using GoGym
type GymEnv struct {
	gogym.Environment

	currentStep ts.TimeStep
	discount    float64
	obsSpec     env.Spec
	actSpec     env.Spec
}

// New returns a new GymEnv with the given name, which must be a legal
// name from the OpenAI Gym suite.
func New(name string, discount float64, seed uint64) (*GymEnv,
	ts.TimeStep, error) {
	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not create "+
			"environment: %w", err)
	}

	obsSpec, err := spec(goGymEnv.ObservationSpace(), env.Observation)
	if err != nil {
		goGymEnv.Close()
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}
	actSpec, err := spec(goGymEnv.ActionSpace(), env.Action)
	if err != nil {
		goGymEnv.Close()
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}

	goGymEnv.Seed(int(seed))
	gymEnv := &GymEnv{
		Environment: goGymEnv,
		discount:    discount,
		obsSpec:     obsSpec,
		actSpec:     actSpec,
	}

	t, err := gymEnv.Reset()
	if err != nil {
		goGymEnv.Close()
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}

	return gymEnv, t, nil
}

// Step takes a single environmental step. Gym does not distinguish
// time limits from terminal states, so every ending is reported as
// terminal.
func (g *GymEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	obs, reward, done, err := g.Environment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"GoGym environment: %w", err)
	}

	t := ts.New(ts.Mid, reward, g.discount, obs, g.currentStep.Number+1)
	if done {
		t.StepType = ts.Last
		t.EndType = ts.TerminalStateReached
	}
	g.currentStep = t

	return t, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %w", err)
	}

	t := ts.New(ts.First, 0, g.discount, obs, 0)
	g.currentStep = t

	return t, nil
}

// CurrentTimeStep returns the current timestep in the environment
func (g *GymEnv) CurrentTimeStep() ts.TimeStep {
	return g.currentStep
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	return g.obsSpec
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() env.Spec {
	return g.actSpec
}

// DiscountSpec returns the discount specification of the environment
func (g *GymEnv) DiscountSpec() env.Spec {
	return env.NewBoxSpec(env.Discount, []float64{g.discount},
		[]float64{g.discount})
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.Environment.Close()
	return nil
}

// space is the part of a GoGym space used to build a Spec
type space interface {
	Low() []*mat.VecDense
	High() []*mat.VecDense
}

// spec converts a GoGym space into a Spec. Box spaces become
// continuous specs with the box's bounds. Discrete spaces of n values
// become discrete specs of size n.
func spec(s space, t env.SpecType) (env.Spec, error) {
	switch s.(type) {
	case *gogym.BoxSpace:
		low := s.Low()[0]
		high := s.High()[0]
		shape := mat.NewVecDense(low.Len(), nil)
		return env.NewSpec(shape, t, low, high, env.Continuous), nil

	case *gogym.DiscreteSpace:
		high := s.High()[0]
		if high.Len() != 1 {
			return env.Spec{}, &env.SpaceError{Type: t,
				Cardinality: env.Discrete,
				Reason:      fmt.Sprintf("%v bounds", high.Len())}
		}
		return env.NewDiscreteSpec(t, int(high.AtVec(0))+1), nil
	}

	return env.Spec{}, &env.SpaceError{Type: t,
		Reason: fmt.Sprintf("unsupported GoGym space %T", s)}
}
