package experiment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/sunrise/buffer/expreplay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, Sunrise, c.Version)
	assert.Equal(t, 3, c.NumEnsemble)
	assert.Equal(t, 210, c.AlgorithmKwargs.NumEpochs)
	assert.Equal(t, 0, c.AlgorithmKwargs.SaveFrequency)
	assert.Equal(t, 2000, c.AlgorithmKwargs.RemovalCheckBufferSize)

	d := DefaultDynamic()
	require.NoError(t, d.Validate())
	assert.Equal(t, DynamicSunrise, d.Version)
	assert.Equal(t, 10, d.NumEnsemble)
	assert.Equal(t, 1000, d.AlgorithmKwargs.NumEpochs)
	assert.Equal(t, 100, d.AlgorithmKwargs.SaveFrequency)
	assert.Equal(t, 10000, d.AlgorithmKwargs.MinNumStepsBeforeTraining)
	assert.Equal(t, 0.2, d.Dynamic.DiversityThreshold)

	r := d.ReplayConfig()
	assert.Equal(t, expreplay.Ensemble, r.Strategy)
	assert.Equal(t, 1_000_000, r.MaxCapacity)
	assert.Equal(t, 10, r.EnsembleSize)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"env":        func(c *Config) { c.Env = "" },
		"ensemble":   func(c *Config) { c.NumEnsemble = 0 },
		"ber mean":   func(c *Config) { c.BerMean = 1.5 },
		"batch size": func(c *Config) { c.AlgorithmKwargs.BatchSize = 0 },
		"path":       func(c *Config) { c.AlgorithmKwargs.MaxPathLength = 0 },
		"save":       func(c *Config) { c.AlgorithmKwargs.SaveFrequency = -1 },
		"window":     func(c *Config) { c.AlgorithmKwargs.RemovalCheckBufferSize = 0 },
		"capacity":   func(c *Config) { c.ReplayBufferSize = 0 },
		"strategy":   func(c *Config) { c.Buffer.Strategy = "Unknown" },
		"drop": func(c *Config) {
			c.Buffer.Strategy = expreplay.GaussianDrop
			c.Buffer.GaussianDrop.Prob = 2
		},
	}

	for name, mutate := range cases {
		c := Default()
		mutate(&c)
		assert.Error(t, c.Validate(), name)
	}
}

func TestSetupLogDir(t *testing.T) {
	root := t.TempDir()
	c := Default()

	c, err := SetupLogDir(root, "exp", c)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "exp"), filepath.Dir(c.LogDir))
	assert.Contains(t, filepath.Base(c.LogDir), RunPrefix(c.Env, c.Seed))

	for _, sub := range []string{"buffer", "model"} {
		info, err := os.Stat(filepath.Join(c.LogDir, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	read, err := ReadVariant(c.LogDir)
	require.NoError(t, err)
	assert.Equal(t, c, read)

	// Runs started in the same second still get distinct directories
	other, err := SetupLogDir(root, "exp", Default())
	require.NoError(t, err)
	assert.NotEqual(t, c.LogDir, other.LogDir)
}

func TestFindResumeDir(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"Hopper-v2_1_a", "Hopper-v2_10_b",
		"Hopper-v2_2_x", "Hopper-v2_2_y"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, name), 0o755))
	}

	dir, err := FindResumeDir(root, "Hopper-v2", 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Hopper-v2_1_a"), dir)

	_, err = FindResumeDir(root, "Hopper-v2", 2)
	assert.Error(t, err)
	_, err = FindResumeDir(root, "Hopper-v2", 3)
	assert.Error(t, err)
	_, err = FindResumeDir(filepath.Join(root, "missing"), "Hopper-v2", 1)
	assert.Error(t, err)
}
