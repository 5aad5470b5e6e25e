// Package agent defines the interfaces through which experiments reach
// the learning components of an ensemble agent
package agent

import (
	"github.com/samuelfneumann/sunrise/buffer/expreplay"
	"github.com/samuelfneumann/sunrise/timestep"
	"gonum.org/v1/gonum/mat"
)

// ModelDir is the directory, relative to a log directory, in which
// Checkpointers save their checkpoints
const ModelDir = "model"

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. Discrete actions are
// returned as 1-dimensional vectors holding the index of the action.
type Policy interface {
	SelectAction(t timestep.TimeStep) (*mat.VecDense, error)
}

// Trainer implements a learning algorithm that updates an ensemble
// from batches of replayed experience
type Trainer interface {
	// Train performs a single update using batch
	Train(batch expreplay.Batch) error
}

// Checkpointer is a Trainer which can save its state at the end of an
// epoch
type Checkpointer interface {
	Trainer
	Checkpoint(epoch int) error
}

// RemovalChecker is a Trainer which periodically inspects the most
// recent experience to decide whether ensemble members should be
// replaced
type RemovalChecker interface {
	Trainer
	CheckRemoval(recent expreplay.Batch) error
}

// Restorer is a Trainer which can restore the state saved by
// Checkpoint when an experiment is resumed
type Restorer interface {
	Trainer
	Restore(epoch int) error
}
