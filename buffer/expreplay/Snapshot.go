package expreplay

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
)

// SnapshotDir is the directory, relative to a log directory, in which
// buffer snapshots are stored
const SnapshotDir = "buffer"

var snapshotName = regexp.MustCompile(`^buffer_(\d+)\.gob$`)

// snapshot is the gob-encoded on-disk form of a cache
type snapshot struct {
	Strategy     Strategy
	MaxCapacity  int
	FeatureSize  int
	ActionSize   int
	EnsembleSize int
	InfoSizes    map[string]int

	States     []float64
	Actions    []float64
	Rewards    []float64
	Terminals  []float64
	NextStates []float64
	Masks      []float64
	Info       map[string][]float64

	CurrentInUsePos int
	IsFull          bool
}

// SnapshotPath returns the path of the snapshot for epoch under logDir
func SnapshotPath(logDir string, epoch int) string {
	return filepath.Join(logDir, SnapshotDir,
		fmt.Sprintf("buffer_%d.gob", epoch))
}

// Save saves the contents of the cache to disk
func (c *cache) Save(epoch int) error {
	if c.config.LogDir == "" {
		return fmt.Errorf("save: no log directory configured")
	}

	path := SnapshotPath(c.config.LogDir, epoch)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save: could not create snapshot directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %w", err)
	}
	defer file.Close()

	s := snapshot{
		Strategy:     c.config.Strategy,
		MaxCapacity:  c.MaxCapacity(),
		FeatureSize:  c.featureSize,
		ActionSize:   c.actionSize,
		EnsembleSize: c.ensembleSize,
		InfoSizes:    c.infoSizes,

		States:     c.stateCache,
		Actions:    c.actionCache,
		Rewards:    c.rewardCache,
		Terminals:  c.terminalCache,
		NextStates: c.nextStateCache,
		Masks:      c.maskCache,
		Info:       c.infoCache,

		CurrentInUsePos: c.currentInUsePos,
		IsFull:          c.isFull,
	}

	if err := gob.NewEncoder(file).Encode(s); err != nil {
		return fmt.Errorf("save: could not encode buffer: %w", err)
	}
	return file.Close()
}

// Load replaces the contents of the cache with a snapshot previously
// saved by a cache with the same layout
func (c *cache) Load(logDir string, epoch int) error {
	file, err := os.Open(SnapshotPath(logDir, epoch))
	if err != nil {
		return fmt.Errorf("load: could not open snapshot: %w", err)
	}
	defer file.Close()

	var s snapshot
	if err := gob.NewDecoder(file).Decode(&s); err != nil {
		return fmt.Errorf("load: could not decode snapshot: %w", err)
	}

	if err := c.compatible(s); err != nil {
		return &ExpReplayError{Op: "load", Err: err}
	}

	c.stateCache = s.States
	c.actionCache = s.Actions
	c.rewardCache = s.Rewards
	c.terminalCache = s.Terminals
	c.nextStateCache = s.NextStates
	c.maskCache = s.Masks
	if s.Info != nil {
		c.infoCache = s.Info
	}
	c.currentInUsePos = s.CurrentInUsePos
	c.isFull = s.IsFull

	return nil
}

// compatible returns an error if s was saved by a cache with a layout
// different from c
func (c *cache) compatible(s snapshot) error {
	switch {
	case s.Strategy != c.config.Strategy:
		return fmt.Errorf("%w: strategy %v != %v", errIncompatibleSnapshot,
			s.Strategy, c.config.Strategy)

	case s.MaxCapacity != c.MaxCapacity():
		return fmt.Errorf("%w: capacity %v != %v", errIncompatibleSnapshot,
			s.MaxCapacity, c.MaxCapacity())

	case s.FeatureSize != c.featureSize || s.ActionSize != c.actionSize:
		return fmt.Errorf("%w: (feature, action) size (%v, %v) != (%v, %v)",
			errIncompatibleSnapshot, s.FeatureSize, s.ActionSize,
			c.featureSize, c.actionSize)

	case s.EnsembleSize != c.ensembleSize:
		return fmt.Errorf("%w: ensemble size %v != %v",
			errIncompatibleSnapshot, s.EnsembleSize, c.ensembleSize)

	case len(s.InfoSizes) != len(c.infoSizes) ||
		(len(s.InfoSizes) > 0 && !reflect.DeepEqual(s.InfoSizes, c.infoSizes)):
		return fmt.Errorf("%w: info sizes %v != %v", errIncompatibleSnapshot,
			s.InfoSizes, c.infoSizes)
	}

	return nil
}

// LatestEpoch returns the highest epoch for which a snapshot exists
// under logDir
func LatestEpoch(logDir string) (int, error) {
	entries, err := os.ReadDir(filepath.Join(logDir, SnapshotDir))
	if err != nil {
		return 0, fmt.Errorf("latestEpoch: %w", err)
	}

	latest := -1
	for _, entry := range entries {
		match := snapshotName.FindStringSubmatch(entry.Name())
		if match == nil || entry.IsDir() {
			continue
		}
		epoch, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if epoch > latest {
			latest = epoch
		}
	}

	if latest < 0 {
		return 0, ErrNoSnapshot
	}
	return latest, nil
}
