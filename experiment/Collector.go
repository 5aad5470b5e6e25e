package experiment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/sunrise/agent"
	"github.com/samuelfneumann/sunrise/buffer/envreplay"
	env "github.com/samuelfneumann/sunrise/environment"
	"github.com/samuelfneumann/sunrise/experiment/tracker"
	"github.com/samuelfneumann/sunrise/mask"
	ts "github.com/samuelfneumann/sunrise/timestep"
)

// Collector steps an environment with a policy. If it has a buffer,
// each transition is stored in the buffer together with a freshly
// drawn ensemble mask. Episodes are cut off after a maximum path
// length; such cutoffs are not terminal.
type Collector struct {
	env           env.Environment
	policy        agent.Policy
	buffer        *envreplay.Buffer
	masks         mask.Generator
	maxPathLength int
	trackers      []tracker.Tracker
	logger        zerolog.Logger

	current    ts.TimeStep
	pathLength int
	steps      int
	episodes   int
}

// NewCollector returns a new Collector stepping e from its first
// timestep first. If buffer is nil, transitions are not stored and
// masks may be nil.
func NewCollector(e env.Environment, first ts.TimeStep, policy agent.Policy,
	buffer *envreplay.Buffer, masks mask.Generator, maxPathLength int,
	logger zerolog.Logger) (*Collector, error) {
	if maxPathLength <= 0 {
		return nil, fmt.Errorf("newCollector: max path length must be "+
			"positive, have %v", maxPathLength)
	}
	if buffer != nil && masks == nil {
		return nil, fmt.Errorf("newCollector: storing transitions needs " +
			"a mask generator")
	}

	return &Collector{
		env:           e,
		policy:        policy,
		buffer:        buffer,
		masks:         masks,
		maxPathLength: maxPathLength,
		logger:        logger,
		current:       first,
	}, nil
}

// Register registers a tracker.Tracker with the Collector so that it
// sees every timestep the Collector generates
func (c *Collector) Register(t tracker.Tracker) {
	c.trackers = append(c.trackers, t)
	t.Track(c.current)
}

// Steps returns the number of environment steps taken
func (c *Collector) Steps() int {
	return c.steps
}

// Episodes returns the number of finished episodes
func (c *Collector) Episodes() int {
	return c.episodes
}

// Collect takes n environment steps, returning the number of steps
// taken. It stops early if ctx is cancelled.
func (c *Collector) Collect(ctx context.Context, n int) (int, error) {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := c.step(); err != nil {
			return i, fmt.Errorf("collect: %w", err)
		}
	}
	return n, nil
}

// step takes a single environment step
func (c *Collector) step() error {
	action, err := c.policy.SelectAction(c.current)
	if err != nil {
		return fmt.Errorf("could not select action: %w", err)
	}

	next, done, err := c.env.Step(action)
	if err != nil {
		return err
	}
	c.pathLength++
	c.steps++

	if !done && c.pathLength >= c.maxPathLength {
		next.StepType = ts.Last
		next.EndType = ts.Cutoff
		done = true
	}
	terminal := done && next.EndType != ts.Cutoff

	if c.buffer != nil {
		err := c.buffer.AddSample(c.current.Observation, action, next.Reward,
			terminal, next.Observation, c.masks.Mask(), next.Info)
		if err != nil {
			return fmt.Errorf("could not store transition: %w", err)
		}
	}
	c.track(next)

	if !done {
		c.current = next
		return nil
	}

	c.episodes++
	c.logger.Debug().
		Int("episode", c.episodes).
		Int("length", c.pathLength).
		Bool("terminal", terminal).
		Msg("episode finished")

	first, err := c.env.Reset()
	if err != nil {
		return err
	}
	c.current = first
	c.pathLength = 0
	c.track(first)
	return nil
}

// track sends a timestep to each registered tracker
func (c *Collector) track(t ts.TimeStep) {
	for _, tr := range c.trackers {
		tr.Track(t)
	}
}
