package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestBernoulliLengthAndValues(t *testing.T) {
	gen, err := NewBernoulli(5, 0.5, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, gen.Size())

	for i := 0; i < 100; i++ {
		m := gen.Mask()
		require.Equal(t, 5, m.Len())
		for j := 0; j < m.Len(); j++ {
			v := m.AtVec(j)
			assert.True(t, v == 0 || v == 1, "mask entry %v", v)
		}
	}
}

func TestBernoulliExtremes(t *testing.T) {
	never, err := NewBernoulli(4, 0, 1)
	require.NoError(t, err)
	always, err := NewBernoulli(4, 1, 1)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		assert.Equal(t, 0.0, mat.Sum(never.Mask()))
		assert.Equal(t, 4.0, mat.Sum(always.Mask()))
	}
}

func TestBernoulliMean(t *testing.T) {
	gen, err := NewBernoulli(10, 0.3, 7)
	require.NoError(t, err)

	counts := make([]float64, 10)
	draws := 5000
	for i := 0; i < draws; i++ {
		floats.Add(counts, gen.Mask().RawVector().Data)
	}

	for member, count := range counts {
		assert.InDelta(t, 0.3, count/float64(draws), 0.05, "member %v", member)
	}
}

func TestNewBernoulliErrors(t *testing.T) {
	_, err := NewBernoulli(0, 0.5, 1)
	assert.Error(t, err)
	_, err = NewBernoulli(3, 1.5, 1)
	assert.Error(t, err)
}

func TestFull(t *testing.T) {
	m := NewFull(3).Mask()
	assert.Equal(t, []float64{1, 1, 1}, m.RawVector().Data)
}
