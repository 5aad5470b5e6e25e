// Package envreplay adapts an expreplay.ExperienceReplayer to the
// observation and action spaces of an environment.
//
// A Buffer derives the observation and action dimensionality from an
// environment's specifications and encodes discrete actions as one-hot
// vectors before delegating storage to the underlying replay buffer.
// Storage, eviction, and sampling are entirely owned by the underlying
// buffer.
//
// Buffers are not safe for concurrent use.
package envreplay

import (
	"errors"
	"fmt"
	"math"

	"github.com/samuelfneumann/sunrise/buffer/expreplay"
	env "github.com/samuelfneumann/sunrise/environment"
	"github.com/samuelfneumann/sunrise/timestep"
	"gonum.org/v1/gonum/mat"
)

var errOutOfRange = errors.New("discrete action out of range")

// ActionError is returned when a discrete action does not name one of
// the values of the action space
type ActionError struct {
	Action float64
	N      int
	Err    error
}

// Error satisfies the error interface
func (a *ActionError) Error() string {
	return fmt.Sprintf("addSample: %v: action %v not in [0, %v)", a.Err,
		a.Action, a.N)
}

// Unwrap returns the underlying error
func (a *ActionError) Unwrap() error {
	return a.Err
}

// IsOutOfRange returns whether or not an error reports that a discrete
// action was outside of the action space
func IsOutOfRange(err error) bool {
	return errors.Is(err, errOutOfRange)
}

// Buffer is a replay buffer bound to the spaces of an environment
type Buffer struct {
	expreplay.ExperienceReplayer

	discrete   bool
	featureDim int
	actionDim  int
	infoSizes  map[string]int
}

// New returns a new Buffer for environment e.
//
// The configuration c determines the storage strategy, capacity,
// ensemble size, and log directory of the underlying buffer, and is
// passed through unchanged. If infoSizes is nil, the auxiliary info
// fields are taken from e if it implements environment.InfoSizer, and
// otherwise no auxiliary info is stored. A non-nil infoSizes overrides
// the environment's declaration.
func New(c expreplay.Config, e env.Describer, infoSizes map[string]int,
	seed uint64) (*Buffer, error) {
	actionSpec := e.ActionSpec()

	featureDim, err := env.Dim(e.ObservationSpec())
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	actionDim, err := env.Dim(actionSpec)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	sizes := ResolveInfoSizes(e, infoSizes)

	buffer, err := c.Create(featureDim, actionDim, sizes, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create replay buffer: %w", err)
	}

	return &Buffer{
		ExperienceReplayer: buffer,
		discrete:           actionSpec.Cardinality == env.Discrete,
		featureDim:         featureDim,
		actionDim:          actionDim,
		infoSizes:          sizes,
	}, nil
}

// ResolveInfoSizes returns the auxiliary info fields to store for
// environment e: override if it is non-nil, otherwise the fields the
// environment declares, otherwise none.
func ResolveInfoSizes(e env.Describer, override map[string]int) map[string]int {
	var source map[string]int
	if override != nil {
		source = override
	} else if sizer, ok := e.(env.InfoSizer); ok {
		source = sizer.InfoSizes()
	}

	sizes := make(map[string]int, len(source))
	for key, size := range source {
		sizes[key] = size
	}
	return sizes
}

// FeatureDim returns the dimensionality of stored observations
func (b *Buffer) FeatureDim() int {
	return b.featureDim
}

// ActionDim returns the dimensionality of stored actions. For discrete
// action spaces this is the number of actions.
func (b *Buffer) ActionDim() int {
	return b.actionDim
}

// InfoSizes returns the auxiliary info fields stored by the buffer
func (b *Buffer) InfoSizes() map[string]int {
	sizes := make(map[string]int, len(b.infoSizes))
	for key, size := range b.infoSizes {
		sizes[key] = size
	}
	return sizes
}

// Storage returns the underlying replay buffer
func (b *Buffer) Storage() expreplay.ExperienceReplayer {
	return b.ExperienceReplayer
}

// Discrete returns whether the buffer one-hot encodes actions
func (b *Buffer) Discrete() bool {
	return b.discrete
}

// AddSample adds a single environment transition to the buffer.
//
// If the action space is discrete, action must hold a single integral
// value a in [0, ActionDim()), and the one-hot encoding of a is stored.
// Otherwise action is stored as is. The mask holds one entry per
// ensemble member and is ignored by buffers which do not store masks.
// Errors from the underlying buffer are returned unchanged.
func (b *Buffer) AddSample(obs, action *mat.VecDense, reward float64,
	terminal bool, nextObs, mask *mat.VecDense,
	envInfo map[string]*mat.VecDense) error {
	if b.discrete {
		oneHot, err := b.oneHot(action)
		if err != nil {
			return err
		}
		action = oneHot
	}

	return b.Add(timestep.Transition{
		State:     obs,
		Action:    action,
		Reward:    reward,
		NextState: nextObs,
		Terminal:  terminal,
		Mask:      mask,
		EnvInfo:   envInfo,
	})
}

// oneHot returns the one-hot encoding of a discrete action
func (b *Buffer) oneHot(action *mat.VecDense) (*mat.VecDense, error) {
	if action == nil || action.Len() != 1 {
		var length int
		if action != nil {
			length = action.Len()
		}
		return nil, fmt.Errorf("addSample: discrete actions must be "+
			"1-dimensional, have length %v", length)
	}

	a := action.AtVec(0)
	if a != math.Trunc(a) || a < 0 || a >= float64(b.actionDim) {
		return nil, &ActionError{Action: a, N: b.actionDim, Err: errOutOfRange}
	}

	oneHot := mat.NewVecDense(b.actionDim, nil)
	oneHot.SetVec(int(a), 1.0)
	return oneHot, nil
}
