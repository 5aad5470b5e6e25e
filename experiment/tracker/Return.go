package tracker

import (
	"gonum.org/v1/gonum/stat"

	ts "github.com/samuelfneumann/sunrise/timestep"
)

// Return tracks and saves the episodic return in an experiment. When
// an environment returns a TimeStep, this Tracker will extract the
// reward and accumulate the return for each episode in the experiment.
//
// Note: An episode must finish for this Tracker to save its data.
// If the last episode in an experiment does not finish, that episode's
// return will not be saved.
type Return struct {
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) *Return {
	return &Return{filename: filename}
}

// Track tracks the rewards seen on a timestep. By calling this method
// on every timestep, the Tracker will store all rewards seen in the
// episode, and save the cumulative reward for that episode as the
// episodic return. A First timestep starts a new episode, discarding
// the return of any unfinished episode.
func (r *Return) Track(step ts.TimeStep) {
	if step.First() {
		r.currentReturn = 0.0
		return
	}

	r.currentReturn += step.Reward
	if step.Last() {
		r.episodeReturns = append(r.episodeReturns, r.currentReturn)
		r.currentReturn = 0.0
	}
}

// Returns returns the returns of all finished episodes
func (r *Return) Returns() []float64 {
	return append([]float64(nil), r.episodeReturns...)
}

// Mean returns the mean return of all finished episodes since from,
// an index into Returns(). If no episodes have finished since from, Mean
// returns 0 and false.
func (r *Return) Mean(from int) (float64, bool) {
	if from < 0 || from >= len(r.episodeReturns) {
		return 0, false
	}
	return stat.Mean(r.episodeReturns[from:], nil), true
}

// Save saves the data tracked by the Return Tracker to disk.
func (r *Return) Save() error {
	return save(r.filename, r.episodeReturns)
}
