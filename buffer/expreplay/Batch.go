package expreplay

import (
	"fmt"

	"github.com/samuelfneumann/sunrise/utils/tensorutils"
	"gorgonia.org/tensor"
)

// Keys of the tensors returned by Batch.Tensors
const (
	ObservationsKey     = "observations"
	ActionsKey          = "actions"
	RewardsKey          = "rewards"
	TerminalsKey        = "terminals"
	NextObservationsKey = "next_observations"
	MasksKey            = "masks"
)

// Batch is a batch of transitions drawn from a replay buffer. All
// fields are stored row-major: row i of State holds the i-th
// observation, and so on. Terminal holds 1.0 for terminal transitions
// and 0.0 otherwise. Mask is nil if the buffer stores no masks.
type Batch struct {
	Size         int
	FeatureSize  int
	ActionSize   int
	EnsembleSize int
	InfoSizes    map[string]int

	State     []float64
	Action    []float64
	Reward    []float64
	Terminal  []float64
	NextState []float64
	Mask      []float64
	EnvInfo   map[string][]float64
}

// newBatch allocates a Batch of size transitions
func newBatch(size, featureSize, actionSize, ensembleSize int,
	infoSizes map[string]int) Batch {
	var mask []float64
	if ensembleSize > 0 {
		mask = make([]float64, size*ensembleSize)
	}

	sizes := make(map[string]int, len(infoSizes))
	info := make(map[string][]float64, len(infoSizes))
	for key, infoSize := range infoSizes {
		sizes[key] = infoSize
		info[key] = make([]float64, size*infoSize)
	}

	return Batch{
		Size:         size,
		FeatureSize:  featureSize,
		ActionSize:   actionSize,
		EnsembleSize: ensembleSize,
		InfoSizes:    sizes,

		State:     make([]float64, size*featureSize),
		Action:    make([]float64, size*actionSize),
		Reward:    make([]float64, size),
		Terminal:  make([]float64, size),
		NextState: make([]float64, size*featureSize),
		Mask:      mask,
		EnvInfo:   info,
	}
}

// MaskAt returns the mask of transition i for ensemble member k, or
// 1.0 if the batch holds no masks
func (b Batch) MaskAt(i, k int) float64 {
	if b.Mask == nil {
		return 1.0
	}
	return b.Mask[i*b.EnsembleSize+k]
}

// Tensors returns the batch as a map of (Size x d) dense tensors keyed
// by field name. The tensors share their backing data with the Batch.
// Auxiliary info fields are keyed by their own names, and the masks
// are only included if the batch has them.
func (b Batch) Tensors() map[string]*tensor.Dense {
	tensors := map[string]*tensor.Dense{
		ObservationsKey:     dense(b.State, b.Size, b.FeatureSize),
		ActionsKey:          dense(b.Action, b.Size, b.ActionSize),
		RewardsKey:          dense(b.Reward, b.Size, 1),
		TerminalsKey:        dense(b.Terminal, b.Size, 1),
		NextObservationsKey: dense(b.NextState, b.Size, b.FeatureSize),
	}

	if b.Mask != nil {
		tensors[MasksKey] = dense(b.Mask, b.Size, b.EnsembleSize)
	}
	for key, size := range b.InfoSizes {
		tensors[key] = dense(b.EnvInfo[key], b.Size, size)
	}

	return tensors
}

// MemberMasks returns a view of the mask column of ensemble member k,
// one entry per transition
func (b Batch) MemberMasks(k int) (tensor.View, error) {
	if b.Mask == nil {
		return nil, fmt.Errorf("memberMasks: batch holds no masks")
	}
	if k < 0 || k >= b.EnsembleSize {
		return nil, fmt.Errorf("memberMasks: member %v out of range [0, %v)",
			k, b.EnsembleSize)
	}

	masks := dense(b.Mask, b.Size, b.EnsembleSize)
	return masks.Slice(nil, tensorutils.NewSlice(k, k+1, 1))
}

func dense(backing []float64, rows, cols int) *tensor.Dense {
	return tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(backing))
}
