package experiment

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/sunrise/agent/dryrun"
	"github.com/samuelfneumann/sunrise/buffer/expreplay"
	"github.com/samuelfneumann/sunrise/environment/envconfig"
	"github.com/samuelfneumann/sunrise/experiment/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() Config {
	c := Default()
	c.Env = envconfig.Pendulum
	c.ReplayBufferSize = 500
	c.AlgorithmKwargs = AlgorithmConfig{
		NumEpochs:                 3,
		NumEvalStepsPerEpoch:      20,
		NumTrainsPerTrainLoop:     5,
		NumExplStepsPerTrainLoop:  30,
		MinNumStepsBeforeTraining: 10,
		MaxPathLength:             25,
		BatchSize:                 8,
		SaveFrequency:             1,
		RemovalCheckFrequency:     20,
		RemovalCheckBufferSize:    15,
	}
	return c
}

func TestRun(t *testing.T) {
	c, err := SetupLogDir(t.TempDir(), "test", smallConfig())
	require.NoError(t, err)

	b, err := Build(c, zerolog.Nop())
	require.NoError(t, err)

	var out bytes.Buffer
	b.SetProgress(&out)
	require.NoError(t, b.Run(context.Background()))

	assert.Equal(t, 10+3*30, b.buffer.Len())
	assert.Equal(t, 3*5, b.Updates())
	assert.Equal(t, 3, b.StartEpoch())
	assert.Contains(t, out.String(), "100.00%")

	// 60 evaluation steps finish two paths of length 25
	returns := b.Returns()
	require.Len(t, returns, 2)
	for _, r := range returns {
		assert.LessOrEqual(t, r, 25.0)
		assert.GreaterOrEqual(t, r, -25.0)
	}
	saved, err := tracker.LoadData(filepath.Join(c.LogDir, EvalReturnsFile))
	require.NoError(t, err)
	assert.Equal(t, returns, saved)

	latest, err := expreplay.LatestEpoch(c.LogDir)
	require.NoError(t, err)
	assert.Equal(t, 2, latest)
	for epoch := 0; epoch < 3; epoch++ {
		_, err := os.Stat(dryrun.CheckpointPath(c.LogDir, epoch))
		assert.NoError(t, err, "epoch %v", epoch)
	}

	trainer := b.trainer.(*dryrun.Trainer)
	stats := trainer.Stats()
	assert.Equal(t, 15, stats.Updates)
	assert.Len(t, stats.Coverage, c.NumEnsemble)

	// Removal checks ran on a window of recent experience
	recent := 0.0
	for _, r := range stats.RecentReward {
		recent += r * r
	}
	assert.Greater(t, recent, 0.0)
}

func TestResume(t *testing.T) {
	c, err := SetupLogDir(t.TempDir(), "test", smallConfig())
	require.NoError(t, err)

	b, err := Build(c, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Run(context.Background()))

	c.AlgorithmKwargs.NumEpochs = 5
	resumed, err := Build(c, zerolog.Nop())
	require.NoError(t, err)

	epoch, err := resumed.Resume(c.LogDir)
	require.NoError(t, err)
	assert.Equal(t, 2, epoch)
	assert.Equal(t, 3, resumed.StartEpoch())
	assert.Equal(t, 100, resumed.buffer.Len())

	require.NoError(t, resumed.Run(context.Background()))
	assert.Equal(t, 100+2*30, resumed.buffer.Len())
	assert.Equal(t, 2*5, resumed.Updates())

	stats := resumed.trainer.(*dryrun.Trainer).Stats()
	assert.Equal(t, 25, stats.Updates, "restored updates carry over")

	latest, err := expreplay.LatestEpoch(c.LogDir)
	require.NoError(t, err)
	assert.Equal(t, 4, latest)
}

func TestResumeWithoutSnapshot(t *testing.T) {
	c, err := SetupLogDir(t.TempDir(), "test", smallConfig())
	require.NoError(t, err)

	b, err := Build(c, zerolog.Nop())
	require.NoError(t, err)
	_, err = b.Resume(c.LogDir)
	assert.True(t, errors.Is(err, expreplay.ErrNoSnapshot))
}

func TestRunCancelled(t *testing.T) {
	b, err := Build(smallConfig(), zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = b.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, b.buffer.Len())
}

func TestRunWithoutLogDir(t *testing.T) {
	c := smallConfig()
	c.AlgorithmKwargs.NumEpochs = 1
	b, err := Build(c, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Run(context.Background()))
	assert.Equal(t, 40, b.buffer.Len())
}

func TestBuildInvalid(t *testing.T) {
	c := smallConfig()
	c.Trainer = "missing"
	_, err := Build(c, zerolog.Nop())
	assert.Error(t, err)

	c = smallConfig()
	c.NumEnsemble = 0
	_, err = Build(c, zerolog.Nop())
	assert.Error(t, err)
}
