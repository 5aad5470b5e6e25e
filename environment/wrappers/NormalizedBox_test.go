package wrappers

import (
	"testing"

	"github.com/samuelfneumann/sunrise/environment"
	"github.com/samuelfneumann/sunrise/environment/pendulum"
	"github.com/samuelfneumann/sunrise/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// boxEnv records the last action it was stepped with
type boxEnv struct {
	low, high []float64
	last      *mat.VecDense
}

func (b *boxEnv) ObservationSpec() environment.Spec {
	return environment.NewBoxSpec(environment.Observation, []float64{0},
		[]float64{1})
}

func (b *boxEnv) ActionSpec() environment.Spec {
	return environment.NewBoxSpec(environment.Action, b.low, b.high)
}

func (b *boxEnv) DiscountSpec() environment.Spec {
	return environment.NewBoxSpec(environment.Discount, []float64{1},
		[]float64{1})
}

func (b *boxEnv) Reset() (timestep.TimeStep, error) {
	return timestep.New(timestep.First, 0, 1, mat.NewVecDense(1, nil), 0), nil
}

func (b *boxEnv) Step(a *mat.VecDense) (timestep.TimeStep, bool, error) {
	b.last = a
	return timestep.New(timestep.Mid, 0, 1, mat.NewVecDense(1, nil), 1),
		false, nil
}

func TestNormalizedBoxScale(t *testing.T) {
	inner := &boxEnv{low: []float64{-2, 0}, high: []float64{2, 10}}
	env, err := NewNormalizedBox(inner)
	require.NoError(t, err)

	spec := env.ActionSpec()
	assert.Equal(t, []float64{-1, -1}, spec.LowerBound.RawVector().Data)
	assert.Equal(t, []float64{1, 1}, spec.UpperBound.RawVector().Data)

	cases := []struct {
		in, want []float64
	}{
		{[]float64{-1, -1}, []float64{-2, 0}},
		{[]float64{1, 1}, []float64{2, 10}},
		{[]float64{0, 0.5}, []float64{0, 7.5}},
		{[]float64{-3, 4}, []float64{-2, 10}},
	}
	for _, c := range cases {
		_, _, err := env.Step(mat.NewVecDense(2, c.in))
		require.NoError(t, err)
		assert.InDeltaSlice(t, c.want, inner.last.RawVector().Data, 1e-12,
			"action %v", c.in)
	}

	_, _, err = env.Step(mat.NewVecDense(3, nil))
	assert.Error(t, err)
	assert.Nil(t, env.InfoSizes())
}

func TestNormalizedBoxMalformed(t *testing.T) {
	_, err := NewNormalizedBox(&boxEnv{low: []float64{1}, high: []float64{0}})
	assert.Error(t, err)
}

func TestNormalizedBoxPendulum(t *testing.T) {
	starter := environment.NewUniformStarter([]r1.Interval{
		{Min: -0.1, Max: 0.1}, {Min: -0.1, Max: 0.1}}, 3)

	cont, _, err := pendulum.NewContinuous(starter, 200, 0.99)
	require.NoError(t, err)
	env, err := NewNormalizedBox(cont)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{pendulum.TorqueInfo: 1}, env.InfoSizes())
	step, _, err := env.Step(mat.NewVecDense(1, []float64{0.5}))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, step.Info[pendulum.TorqueInfo].AtVec(0), 1e-12)

	disc, _, err := pendulum.NewDiscrete(starter, 200, 0.99)
	require.NoError(t, err)
	env, err = NewNormalizedBox(disc)
	require.NoError(t, err)
	assert.Equal(t, environment.Discrete, env.ActionSpec().Cardinality)
	_, _, err = env.Step(mat.NewVecDense(1, []float64{4}))
	assert.NoError(t, err)
}
