// Package dryrun implements a Trainer which consumes replayed batches
// without updating any model. It records statistics of the data each
// ensemble member would have trained on, which makes it useful for
// checking the data pipeline of an experiment end to end.
package dryrun

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/sunrise/agent"
	"github.com/samuelfneumann/sunrise/buffer/expreplay"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Type is the agent.Type under which dry-run Trainers are registered
const Type agent.Type = "dryrun"

func init() {
	agent.Register(Type, func(o agent.Options) (agent.Trainer, error) {
		if o.EnsembleSize < 1 {
			return nil, fmt.Errorf("dryrun: ensemble size must be "+
				"positive, have %v", o.EnsembleSize)
		}
		return New(o.EnsembleSize, o.LogDir, o.Logger), nil
	})
}

// Stats holds the statistics accumulated by a Trainer
type Stats struct {
	Updates    int
	Samples    int
	MeanReward float64

	// Coverage[k] is the fraction of sampled transitions on which
	// ensemble member k would have trained
	Coverage []float64

	// RecentReward[k] is the mean reward of the transitions in the
	// last removal-check window that member k would have trained on
	RecentReward []float64
}

// Trainer is a dry-run agent.Trainer
type Trainer struct {
	ensembleSize int
	logDir       string
	logger       zerolog.Logger

	updates      int
	rewardSum    float64
	rewardCount  int
	maskSums     []float64
	recentReward []float64
}

// New returns a new Trainer for an ensemble of ensembleSize members
// which saves checkpoints under logDir
func New(ensembleSize int, logDir string, logger zerolog.Logger) *Trainer {
	return &Trainer{
		ensembleSize: ensembleSize,
		logDir:       logDir,
		logger:       logger,
		maskSums:     make([]float64, ensembleSize),
		recentReward: make([]float64, ensembleSize),
	}
}

// Train implements the agent.Trainer interface
func (t *Trainer) Train(batch expreplay.Batch) error {
	if batch.Size == 0 {
		return fmt.Errorf("train: empty batch")
	}

	t.updates++
	t.rewardSum += floats.Sum(batch.Reward)
	t.rewardCount += batch.Size

	for i := 0; i < batch.Size; i++ {
		for k := 0; k < t.ensembleSize; k++ {
			t.maskSums[k] += batch.MaskAt(i, k)
		}
	}
	return nil
}

// CheckRemoval implements the agent.RemovalChecker interface. No
// member is ever removed, the per-member mean reward of the window is
// recorded and logged.
func (t *Trainer) CheckRemoval(recent expreplay.Batch) error {
	weights := make([]float64, recent.Size)
	for k := 0; k < t.ensembleSize; k++ {
		for i := range weights {
			weights[i] = recent.MaskAt(i, k)
		}

		if floats.Sum(weights) == 0 {
			t.recentReward[k] = 0
			continue
		}
		t.recentReward[k] = stat.Mean(recent.Reward, weights)
	}

	t.logger.Debug().
		Int("window", recent.Size).
		Floats64("recent_reward", t.recentReward).
		Msg("removal check")
	return nil
}

// Stats returns the statistics accumulated so far
func (t *Trainer) Stats() Stats {
	coverage := make([]float64, t.ensembleSize)
	if t.rewardCount > 0 {
		floats.ScaleTo(coverage, 1/float64(t.rewardCount), t.maskSums)
	}

	var meanReward float64
	if t.rewardCount > 0 {
		meanReward = t.rewardSum / float64(t.rewardCount)
	}

	recent := make([]float64, t.ensembleSize)
	copy(recent, t.recentReward)

	return Stats{
		Updates:      t.updates,
		Samples:      t.rewardCount,
		MeanReward:   meanReward,
		Coverage:     coverage,
		RecentReward: recent,
	}
}

// Checkpoint implements the agent.Checkpointer interface by saving the
// accumulated statistics
func (t *Trainer) Checkpoint(epoch int) error {
	if t.logDir == "" {
		return nil
	}

	path := CheckpointPath(t.logDir, epoch)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("checkpoint: could not open save file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(t.Stats()); err != nil {
		return fmt.Errorf("checkpoint: could not encode stats: %w", err)
	}
	return file.Close()
}

// Restore implements the agent.Restorer interface by loading the
// statistics saved by Checkpoint at epoch
func (t *Trainer) Restore(epoch int) error {
	s, err := LoadStats(CheckpointPath(t.logDir, epoch))
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if len(s.Coverage) != t.ensembleSize {
		return fmt.Errorf("restore: checkpoint has %v members, want %v",
			len(s.Coverage), t.ensembleSize)
	}

	t.updates = s.Updates
	t.rewardCount = s.Samples
	t.rewardSum = s.MeanReward * float64(s.Samples)
	floats.ScaleTo(t.maskSums, float64(s.Samples), s.Coverage)
	copy(t.recentReward, s.RecentReward)
	return nil
}

// CheckpointPath returns the path of the checkpoint saved under logDir
// at epoch
func CheckpointPath(logDir string, epoch int) string {
	return filepath.Join(logDir, agent.ModelDir, fmt.Sprintf("dryrun_%d.gob", epoch))
}

// LoadStats loads statistics saved by Checkpoint
func LoadStats(path string) (Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("loadStats: %w", err)
	}
	defer file.Close()

	var s Stats
	if err := gob.NewDecoder(file).Decode(&s); err != nil {
		return Stats{}, fmt.Errorf("loadStats: could not decode: %w", err)
	}
	return s, nil
}
