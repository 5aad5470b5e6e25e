package expreplay

import (
	"testing"

	"github.com/samuelfneumann/sunrise/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// transition returns a transition whose fields are all filled with v
func transition(featureSize, actionSize, ensembleSize int,
	v float64) timestep.Transition {
	t := timestep.Transition{
		State:     constVec(featureSize, v),
		Action:    constVec(actionSize, v),
		Reward:    v,
		NextState: constVec(featureSize, v+1),
	}
	if ensembleSize > 0 {
		t.Mask = constVec(ensembleSize, 1)
	}
	return t
}

func constVec(n int, v float64) *mat.VecDense {
	data := make([]float64, n)
	for i := range data {
		data[i] = v
	}
	return mat.NewVecDense(n, data)
}

func ensembleConfig(capacity, ensembleSize int) Config {
	return Config{
		Strategy:     Ensemble,
		MaxCapacity:  capacity,
		EnsembleSize: ensembleSize,
	}
}

func TestNewValidatesConfig(t *testing.T) {
	tests := map[string]Config{
		"zero capacity":      {Strategy: Plain},
		"no ensemble":        {Strategy: Ensemble, MaxCapacity: 5},
		"unknown strategy":   {Strategy: "Prioritized", MaxCapacity: 5},
		"inverted range":     {Strategy: RandomDrop, MaxCapacity: 5, EnsembleSize: 2, RandomDrop: RandomDropConfig{Lower: 3, Upper: 1}},
		"probability > 1":    {Strategy: GaussianDrop, MaxCapacity: 5, EnsembleSize: 2, GaussianDrop: GaussianDropConfig{Prob: 1.5}},
		"negative deviation": {Strategy: GaussianDrop, MaxCapacity: 5, EnsembleSize: 2, GaussianDrop: GaussianDropConfig{Prob: 0.5, Std: -1}},
	}

	for name, c := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(c, 2, 1, nil, 1)
			assert.Error(t, err)
		})
	}
}

func TestAddStoresMask(t *testing.T) {
	buffer, err := New(ensembleConfig(10, 5), 3, 2, nil, 1)
	require.NoError(t, err)

	tr := transition(3, 2, 5, 0.5)
	tr.Mask = mat.NewVecDense(5, []float64{1, 0, 1, 0, 0})
	require.NoError(t, buffer.Add(tr))

	batch, err := buffer.Sample(4)
	require.NoError(t, err)
	assert.Equal(t, 5, batch.EnsembleSize)
	assert.Len(t, batch.Mask, 4*5)
	assert.Equal(t, []float64{1, 0, 1, 0, 0}, batch.Mask[:5])
	assert.Equal(t, 0.0, batch.MaskAt(0, 1))
}

func TestAddRejectsWrongMaskLength(t *testing.T) {
	buffer, err := New(ensembleConfig(10, 5), 3, 2, nil, 1)
	require.NoError(t, err)

	tr := transition(3, 2, 4, 0.5)
	err = buffer.Add(tr)
	require.Error(t, err)
	assert.True(t, IsSizeMismatch(err))
	assert.Equal(t, 0, buffer.Len())

	tr.Mask = nil
	assert.True(t, IsSizeMismatch(buffer.Add(tr)))
}

func TestPlainIgnoresMasks(t *testing.T) {
	buffer, err := New(Config{Strategy: Plain, MaxCapacity: 4}, 2, 1, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, buffer.EnsembleSize())

	require.NoError(t, buffer.Add(transition(2, 1, 0, 1)))
	require.NoError(t, buffer.Add(transition(2, 1, 3, 2)))

	batch, err := buffer.Recent(2)
	require.NoError(t, err)
	assert.Nil(t, batch.Mask)
	assert.Equal(t, 1.0, batch.MaskAt(1, 2))
}

func TestAddRejectsWrongSizes(t *testing.T) {
	buffer, err := New(ensembleConfig(10, 2), 3, 2, nil, 1)
	require.NoError(t, err)

	badState := transition(3, 2, 2, 0)
	badState.State = constVec(4, 0)

	badAction := transition(3, 2, 2, 0)
	badAction.Action = constVec(1, 0)

	badNext := transition(3, 2, 2, 0)
	badNext.NextState = nil

	for _, tr := range []timestep.Transition{badState, badAction, badNext} {
		err := buffer.Add(tr)
		assert.True(t, IsSizeMismatch(err), "error: %v", err)
	}
	assert.Equal(t, 0, buffer.Len())
}

func TestEnvInfo(t *testing.T) {
	buffer, err := New(ensembleConfig(10, 2), 1, 1, map[string]int{"foo": 3},
		1)
	require.NoError(t, err)

	tr := transition(1, 1, 2, 0)
	assert.True(t, IsSizeMismatch(buffer.Add(tr)), "missing info field")

	tr.EnvInfo = map[string]*mat.VecDense{"foo": constVec(2, 1)}
	assert.True(t, IsSizeMismatch(buffer.Add(tr)), "wrong info size")

	tr.EnvInfo = map[string]*mat.VecDense{
		"foo": constVec(3, 1),
		"bar": constVec(1, 1),
	}
	assert.True(t, IsSizeMismatch(buffer.Add(tr)), "undeclared info field")

	tr.EnvInfo = map[string]*mat.VecDense{
		"foo": mat.NewVecDense(3, []float64{7, 8, 9}),
	}
	require.NoError(t, buffer.Add(tr))

	batch, err := buffer.Recent(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8, 9}, batch.EnvInfo["foo"])
}

func TestRingOverwrite(t *testing.T) {
	capacity := 4
	buffer, err := New(ensembleConfig(capacity, 1), 1, 1, nil, 1)
	require.NoError(t, err)

	for i := 0; i < capacity+3; i++ {
		require.NoError(t, buffer.Add(transition(1, 1, 1, float64(i))))
		assert.Equal(t, min(i+1, capacity), buffer.Len())
	}

	batch, err := buffer.Recent(10)
	require.NoError(t, err)
	assert.Equal(t, capacity, batch.Size)
	assert.Equal(t, []float64{3, 4, 5, 6}, batch.Reward)

	batch, err = buffer.Recent(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, batch.State)
	assert.Equal(t, []float64{6, 7}, batch.NextState)
}

func TestSampleDrawsStoredTransitions(t *testing.T) {
	buffer, err := New(ensembleConfig(100, 2), 1, 1, nil, 42)
	require.NoError(t, err)

	_, err = buffer.Sample(1)
	assert.True(t, IsEmptyBuffer(err))

	for i := 0; i < 5; i++ {
		tr := transition(1, 1, 2, float64(i))
		tr.Terminal = i == 4
		require.NoError(t, buffer.Add(tr))
	}

	_, err = buffer.Sample(0)
	assert.Error(t, err)

	batch, err := buffer.Sample(64)
	require.NoError(t, err)
	assert.Equal(t, 64, batch.Size)
	for i, r := range batch.Reward {
		assert.GreaterOrEqual(t, r, 0.0)
		assert.LessOrEqual(t, r, 4.0)
		assert.Equal(t, r, batch.State[i])
		assert.Equal(t, r == 4, batch.Terminal[i] == 1)
	}
}

func TestTensors(t *testing.T) {
	buffer, err := New(ensembleConfig(10, 3), 2, 4, map[string]int{"foo": 1},
		1)
	require.NoError(t, err)

	tr := transition(2, 4, 3, 1)
	tr.EnvInfo = map[string]*mat.VecDense{"foo": constVec(1, 2)}
	require.NoError(t, buffer.Add(tr))

	batch, err := buffer.Sample(5)
	require.NoError(t, err)

	tensors := batch.Tensors()
	assert.Equal(t, []int{5, 2}, []int(tensors[ObservationsKey].Shape()))
	assert.Equal(t, []int{5, 4}, []int(tensors[ActionsKey].Shape()))
	assert.Equal(t, []int{5, 1}, []int(tensors[RewardsKey].Shape()))
	assert.Equal(t, []int{5, 1}, []int(tensors[TerminalsKey].Shape()))
	assert.Equal(t, []int{5, 2}, []int(tensors[NextObservationsKey].Shape()))
	assert.Equal(t, []int{5, 3}, []int(tensors[MasksKey].Shape()))
	assert.Equal(t, []int{5, 1}, []int(tensors["foo"].Shape()))
}

func TestMemberMasks(t *testing.T) {
	buffer, err := New(ensembleConfig(10, 3), 2, 4, nil, 1)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		tr := transition(2, 4, 3, float64(i))
		tr.Mask = mat.NewVecDense(3, []float64{1, float64(i % 2), 0})
		require.NoError(t, buffer.Add(tr))
	}

	batch, err := buffer.Recent(4)
	require.NoError(t, err)

	view, err := batch.MemberMasks(1)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Shape().TotalSize())
	assert.Equal(t, []float64{0, 1, 0, 1},
		view.Materialize().Data().([]float64))

	view, err = batch.MemberMasks(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 1},
		view.Materialize().Data().([]float64))

	_, err = batch.MemberMasks(3)
	assert.Error(t, err)
}
