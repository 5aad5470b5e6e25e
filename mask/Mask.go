// Package mask implements generators of per-ensemble-member bootstrap
// masks, which determine the ensemble members that train on each
// transition
package mask

import (
	"fmt"

	"github.com/samuelfneumann/sunrise/utils/matutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Generator generates a mask for a single transition
type Generator interface {
	// Mask returns a new mask with one entry per ensemble member
	Mask() *mat.VecDense

	// Size returns the length of the generated masks
	Size() int
}

// Bernoulli generates masks whose entries are independent Bernoulli
// draws, so that each ensemble member trains on a transition with
// probability p independently of the others
type Bernoulli struct {
	size int
	dist distuv.Bernoulli
}

// NewBernoulli returns a new Bernoulli mask generator for an ensemble
// of size members, each included with probability p
func NewBernoulli(size int, p float64, seed uint64) (*Bernoulli, error) {
	if size < 1 {
		return nil, fmt.Errorf("newBernoulli: size must be >= 1, have %v",
			size)
	}
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("newBernoulli: p must be in [0, 1], have %v",
			p)
	}

	source := rand.NewSource(seed)
	return &Bernoulli{
		size: size,
		dist: distuv.Bernoulli{P: p, Src: source},
	}, nil
}

// Mask implements the Generator interface
func (b *Bernoulli) Mask() *mat.VecDense {
	m := mat.NewVecDense(b.size, nil)
	for i := 0; i < b.size; i++ {
		m.SetVec(i, b.dist.Rand())
	}
	return m
}

// Size implements the Generator interface
func (b *Bernoulli) Size() int {
	return b.size
}

// Full generates masks which include every ensemble member
type Full struct {
	size int
}

// NewFull returns a new Full mask generator
func NewFull(size int) Full {
	return Full{size}
}

// Mask implements the Generator interface
func (f Full) Mask() *mat.VecDense {
	return matutils.VecOnes(f.size)
}

// Size implements the Generator interface
func (f Full) Size() int {
	return f.size
}
