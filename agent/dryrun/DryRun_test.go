package dryrun

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/sunrise/agent"
	"github.com/samuelfneumann/sunrise/buffer/expreplay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batch() expreplay.Batch {
	return expreplay.Batch{
		Size:         4,
		EnsembleSize: 2,
		Reward:       []float64{1, 2, 3, 4},
		Mask: []float64{
			1, 0,
			1, 1,
			0, 1,
			1, 0,
		},
	}
}

func TestTrainStats(t *testing.T) {
	trainer := New(2, "", zerolog.Nop())
	require.NoError(t, trainer.Train(batch()))
	require.NoError(t, trainer.Train(batch()))

	stats := trainer.Stats()
	assert.Equal(t, 2, stats.Updates)
	assert.InDelta(t, 2.5, stats.MeanReward, 1e-12)
	assert.InDeltaSlice(t, []float64{0.75, 0.5}, stats.Coverage, 1e-12)

	assert.Error(t, trainer.Train(expreplay.Batch{}))
}

func TestCheckRemoval(t *testing.T) {
	trainer := New(3, "", zerolog.Nop())

	b := batch()
	b.EnsembleSize = 3
	b.Mask = []float64{
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
		1, 0, 0,
	}
	require.NoError(t, trainer.CheckRemoval(b))

	stats := trainer.Stats()
	assert.InDeltaSlice(t, []float64{7.0 / 3, 2.5, 0}, stats.RecentReward,
		1e-12)
}

func TestCheckpoint(t *testing.T) {
	dir := t.TempDir()
	trainer := New(2, dir, zerolog.Nop())
	require.NoError(t, trainer.Train(batch()))
	require.NoError(t, trainer.Checkpoint(3))

	stats, err := LoadStats(filepath.Join(dir, agent.ModelDir, "dryrun_3.gob"))
	require.NoError(t, err)
	assert.Equal(t, trainer.Stats(), stats)

	restored := New(2, dir, zerolog.Nop())
	require.NoError(t, restored.Restore(3))
	assert.Equal(t, trainer.Stats(), restored.Stats())
	assert.Error(t, New(3, dir, zerolog.Nop()).Restore(3))
	assert.Error(t, restored.Restore(4))
}

func TestRegistered(t *testing.T) {
	var _ agent.Restorer = &Trainer{}
	var _ agent.RemovalChecker = &Trainer{}
	var _ agent.Checkpointer = &Trainer{}

	assert.Contains(t, agent.Registered(), Type)
	trainer, err := agent.Create(Type, agent.Options{EnsembleSize: 2,
		Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.IsType(t, &Trainer{}, trainer)

	_, err = agent.Create(Type, agent.Options{})
	assert.Error(t, err)
	_, err = agent.Create("missing", agent.Options{})
	assert.Error(t, err)
}
