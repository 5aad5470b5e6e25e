// Package expreplay implements fixed-capacity experience replay
// buffers which store transitions, along with per-ensemble-member
// masks, in flat caches with ring-buffer overwrite semantics.
package expreplay

import (
	"fmt"
	"sort"

	"github.com/samuelfneumann/sunrise/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer, overwriting the oldest
	// transition if the buffer is full
	Add(t timestep.Transition) error

	// Sample samples a batch of transitions uniformly with replacement
	Sample(batchSize int) (Batch, error)

	// Recent returns the n most recently added transitions in the
	// order they were added
	Recent(n int) (Batch, error)

	// Len returns the current number of samples in the buffer
	Len() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// EnsembleSize returns the length of the masks stored in the
	// buffer, or 0 if the buffer stores no masks
	EnsembleSize() int

	// Config returns the configuration the buffer was created with
	Config() Config

	// Save saves a snapshot of the buffer for the given epoch under
	// the buffer's log directory
	Save(epoch int) error

	// Load replaces the contents of the buffer with the snapshot for
	// the given epoch under logDir
	Load(logDir string, epoch int) error
}

// cache implements a concrete ExperienceReplayer where elements are
// overwritten in a FiFo manner once the cache is full.
type cache struct {
	config Config

	stateCache     []float64
	actionCache    []float64
	rewardCache    []float64
	terminalCache  []float64
	nextStateCache []float64
	maskCache      []float64
	infoCache      map[string][]float64

	currentInUsePos int
	isFull          bool

	rng *rand.Rand

	featureSize  int
	actionSize   int
	ensembleSize int
	infoSizes    map[string]int
}

// New creates and returns a new ExperienceReplayer. The featureSize
// and actionSize parameters define the size of the observation and
// action vectors. The infoSizes parameter declares the auxiliary
// per-step fields to store and the size of each; it may be nil.
//
// Pixel observations should be flattened before adding to the buffer.
func New(c Config, featureSize, actionSize int, infoSizes map[string]int,
	seed uint64) (ExperienceReplayer, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if featureSize < 1 {
		return nil, fmt.Errorf("new: featureSize must be >= 1, have %v",
			featureSize)
	}
	if actionSize < 1 {
		return nil, fmt.Errorf("new: actionSize must be >= 1, have %v",
			actionSize)
	}

	sizes := make(map[string]int, len(infoSizes))
	infoCache := make(map[string][]float64, len(infoSizes))
	for key, size := range infoSizes {
		if size < 1 {
			return nil, fmt.Errorf("new: info field %q must have size >= 1, "+
				"have %v", key, size)
		}
		sizes[key] = size
		infoCache[key] = make([]float64, c.MaxCapacity*size)
	}

	var ensembleSize int
	var maskCache []float64
	if c.Strategy.Masked() {
		ensembleSize = c.EnsembleSize
		maskCache = make([]float64, c.MaxCapacity*ensembleSize)
	}

	return &cache{
		config: c,

		stateCache:     make([]float64, c.MaxCapacity*featureSize),
		actionCache:    make([]float64, c.MaxCapacity*actionSize),
		rewardCache:    make([]float64, c.MaxCapacity),
		terminalCache:  make([]float64, c.MaxCapacity),
		nextStateCache: make([]float64, c.MaxCapacity*featureSize),
		maskCache:      maskCache,
		infoCache:      infoCache,

		rng: rand.New(rand.NewSource(seed)),

		featureSize:  featureSize,
		actionSize:   actionSize,
		ensembleSize: ensembleSize,
		infoSizes:    sizes,
	}, nil
}

// String returns the string representation of the cache
func (c *cache) String() string {
	baseStr := "%v Cache | Size: %v/%v | States: %v \nActions: %v " +
		"\nRewards: %v \nTerminals: %v \nNext States: %v \nMasks: %v"
	return fmt.Sprintf(baseStr, c.config.Strategy, c.Len(), c.MaxCapacity(),
		c.stateCache, c.actionCache, c.rewardCache, c.terminalCache,
		c.nextStateCache, c.maskCache)
}

// Len returns the current number of elements in the cache that
// are available for sampling
func (c *cache) Len() int {
	if c.isFull {
		return c.MaxCapacity()
	}
	return c.currentInUsePos
}

// MaxCapacity returns the maximum number of elements that are allowed
// in the cache
func (c *cache) MaxCapacity() int {
	return c.config.MaxCapacity
}

// EnsembleSize returns the length of stored masks
func (c *cache) EnsembleSize() int {
	return c.ensembleSize
}

// Config returns the Config used to create the cache
func (c *cache) Config() Config {
	return c.config
}

// validate checks that every field of a transition has the size
// declared when the cache was created
func (c *cache) validate(t timestep.Transition) error {
	if err := checkLen("state", t.State, c.featureSize); err != nil {
		return err
	}
	if err := checkLen("next state", t.NextState, c.featureSize); err != nil {
		return err
	}
	if err := checkLen("action", t.Action, c.actionSize); err != nil {
		return err
	}
	if c.config.Strategy.Masked() {
		if err := checkLen("mask", t.Mask, c.ensembleSize); err != nil {
			return err
		}
	}

	for key, size := range c.infoSizes {
		if err := checkLen("info "+key, t.EnvInfo[key], size); err != nil {
			return err
		}
	}
	if len(t.EnvInfo) != len(c.infoSizes) {
		keys := make([]string, 0, len(t.EnvInfo))
		for key := range t.EnvInfo {
			if _, ok := c.infoSizes[key]; !ok {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		return fmt.Errorf("%w: undeclared info fields %v", errSizeMismatch,
			keys)
	}

	return nil
}

// Add adds a transition to the cache. The transition is validated
// before anything is written, so a failed Add leaves the cache
// unchanged.
func (c *cache) Add(t timestep.Transition) error {
	if err := c.validate(t); err != nil {
		return &ExpReplayError{Op: "add", Err: err}
	}

	index := c.currentInUsePos

	// Copy states
	stateInd := index * c.featureSize
	mat.Col(c.stateCache[stateInd:stateInd+c.featureSize], 0, t.State)
	mat.Col(c.nextStateCache[stateInd:stateInd+c.featureSize], 0,
		t.NextState)

	// Copy actions
	actionInd := index * c.actionSize
	mat.Col(c.actionCache[actionInd:actionInd+c.actionSize], 0, t.Action)

	// Copy masks
	if c.config.Strategy.Masked() {
		maskInd := index * c.ensembleSize
		mat.Col(c.maskCache[maskInd:maskInd+c.ensembleSize], 0, t.Mask)
	}

	// Copy auxiliary info
	for key, size := range c.infoSizes {
		infoInd := index * size
		mat.Col(c.infoCache[key][infoInd:infoInd+size], 0, t.EnvInfo[key])
	}

	c.rewardCache[index] = t.Reward
	c.terminalCache[index] = boolToFloat(t.Terminal)

	if !c.isFull && index+1 == c.MaxCapacity() {
		c.isFull = true
	}
	c.currentInUsePos = (c.currentInUsePos + 1) % c.MaxCapacity()
	return nil
}

// Sample samples and returns a batch of transitions from the replay
// buffer. Indices are drawn uniformly with replacement.
func (c *cache) Sample(batchSize int) (Batch, error) {
	if batchSize < 1 {
		return Batch{}, &ExpReplayError{
			Op:  "sample",
			Err: fmt.Errorf("batch size must be >= 1, have %v", batchSize),
		}
	}
	if c.Len() == 0 {
		return Batch{}, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}

	indices := make([]int, batchSize)
	for i := range indices {
		indices[i] = c.rng.Intn(c.Len())
	}

	return c.gather(indices), nil
}

// Recent returns the min(n, Len()) most recently added transitions,
// oldest first
func (c *cache) Recent(n int) (Batch, error) {
	if n < 1 {
		return Batch{}, &ExpReplayError{
			Op:  "recent",
			Err: fmt.Errorf("n must be >= 1, have %v", n),
		}
	}
	if c.Len() == 0 {
		return Batch{}, &ExpReplayError{Op: "recent", Err: errEmptyCache}
	}

	return c.gather(c.insertOrder(n)), nil
}

// insertOrder returns the slots of the min(n, Len()) most recently
// inserted transitions in the order they were inserted
func (c *cache) insertOrder(n int) []int {
	if n > c.Len() {
		n = c.Len()
	}

	capacity := c.MaxCapacity()
	start := (c.currentInUsePos - n + capacity) % capacity

	indices := make([]int, n)
	for i := range indices {
		indices[i] = (start + i) % capacity
	}
	return indices
}

// gather copies the transitions at the given slots into a new Batch
func (c *cache) gather(indices []int) Batch {
	b := newBatch(len(indices), c.featureSize, c.actionSize, c.ensembleSize,
		c.infoSizes)

	for i, index := range indices {
		copyRow(b.State, c.stateCache, i, index, c.featureSize)
		copyRow(b.NextState, c.nextStateCache, i, index, c.featureSize)
		copyRow(b.Action, c.actionCache, i, index, c.actionSize)
		if c.ensembleSize > 0 {
			copyRow(b.Mask, c.maskCache, i, index, c.ensembleSize)
		}
		for key, size := range c.infoSizes {
			copyRow(b.EnvInfo[key], c.infoCache[key], i, index, size)
		}

		b.Reward[i] = c.rewardCache[index]
		b.Terminal[i] = c.terminalCache[index]
	}

	return b
}

// copyRow copies row src of a flat row-major cache with rows of length
// size into row dst of a batch
func copyRow(batch, cache []float64, dst, src, size int) {
	copy(batch[dst*size:(dst+1)*size], cache[src*size:(src+1)*size])
}

// checkLen returns an error if v is nil or does not have length size
func checkLen(field string, v *mat.VecDense, size int) error {
	if v == nil {
		return fmt.Errorf("%w: missing %v", errSizeMismatch, field)
	}
	if v.Len() != size {
		return fmt.Errorf("%w: invalid %v size \n\twant(%v)\n\thave(%v)",
			errSizeMismatch, field, size, v.Len())
	}
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
