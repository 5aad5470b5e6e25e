package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestDimDiscrete(t *testing.T) {
	for _, n := range []int{1, 2, 4, 17} {
		dim, err := Dim(NewDiscreteSpec(Action, n))
		require.NoError(t, err)
		assert.Equal(t, n, dim)
	}
}

func TestDimContinuous(t *testing.T) {
	spec := NewBoxSpec(Action, []float64{-1, -1, -1}, []float64{1, 1, 1})
	dim, err := Dim(spec)
	require.NoError(t, err)
	assert.Equal(t, 3, dim)
}

func TestDimUnsupportedCardinality(t *testing.T) {
	spec := NewBoxSpec(Action, []float64{0}, []float64{1})
	spec.Cardinality = "MultiBinary"

	_, err := Dim(spec)
	require.Error(t, err)

	var spaceErr *SpaceError
	require.ErrorAs(t, err, &spaceErr)
	assert.Equal(t, Cardinality("MultiBinary"), spaceErr.Cardinality)
	assert.Contains(t, err.Error(), "MultiBinary")
}

func TestDimMalformedDiscrete(t *testing.T) {
	tests := map[string]Spec{
		"two dimensions": NewSpec(mat.NewVecDense(2, nil), Action,
			mat.NewVecDense(2, nil), mat.NewVecDense(2, []float64{1, 1}),
			Discrete),
		"non-integral": NewSpec(mat.NewVecDense(1, nil), Action,
			mat.NewVecDense(1, nil), mat.NewVecDense(1, []float64{2.5}),
			Discrete),
		"empty range": NewSpec(mat.NewVecDense(1, nil), Action,
			mat.NewVecDense(1, []float64{3}), mat.NewVecDense(1, []float64{1}),
			Discrete),
	}

	for name, spec := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Dim(spec)
			var spaceErr *SpaceError
			assert.ErrorAs(t, err, &spaceErr)
		})
	}
}
