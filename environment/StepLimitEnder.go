package environment

import "github.com/samuelfneumann/sunrise/timestep"

// StepLimit implements the Ender interface to end episodes at specific
// timestep limits
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended End() marks the timestep as the Last step of an
// episode that was cut off.
func (s StepLimit) End(t *timestep.TimeStep) bool {
	if t.Number >= s.episodeSteps {
		t.StepType = timestep.Last
		t.EndType = timestep.Cutoff
		return true
	}
	return false
}
