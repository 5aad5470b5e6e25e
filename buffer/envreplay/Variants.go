package envreplay

import (
	"github.com/samuelfneumann/sunrise/buffer/expreplay"
	env "github.com/samuelfneumann/sunrise/environment"
)

// NewPlain returns a Buffer over a baseline ring buffer which stores
// no masks
func NewPlain(maxCapacity int, e env.Describer, infoSizes map[string]int,
	seed uint64) (*Buffer, error) {
	c := expreplay.Config{
		Strategy:    expreplay.Plain,
		MaxCapacity: maxCapacity,
	}
	return New(c, e, infoSizes, seed)
}

// NewEnsemble returns a Buffer which stores one mask entry per
// ensemble member and saves snapshots under logDir
func NewEnsemble(maxCapacity int, e env.Describer, ensembleSize int,
	logDir string, infoSizes map[string]int, seed uint64) (*Buffer, error) {
	c := expreplay.Config{
		Strategy:     expreplay.Ensemble,
		MaxCapacity:  maxCapacity,
		EnsembleSize: ensembleSize,
		LogDir:       logDir,
	}
	return New(c, e, infoSizes, seed)
}

// NewRandomDrop returns a Buffer using the RandomDrop strategy
func NewRandomDrop(maxCapacity int, e env.Describer, ensembleSize int,
	logDir string, drop expreplay.RandomDropConfig, infoSizes map[string]int,
	seed uint64) (*Buffer, error) {
	c := expreplay.Config{
		Strategy:     expreplay.RandomDrop,
		MaxCapacity:  maxCapacity,
		EnsembleSize: ensembleSize,
		LogDir:       logDir,
		RandomDrop:   drop,
	}
	return New(c, e, infoSizes, seed)
}

// NewGaussianDrop returns a Buffer using the GaussianDrop strategy
func NewGaussianDrop(maxCapacity int, e env.Describer, ensembleSize int,
	logDir string, drop expreplay.GaussianDropConfig,
	infoSizes map[string]int, seed uint64) (*Buffer, error) {
	c := expreplay.Config{
		Strategy:     expreplay.GaussianDrop,
		MaxCapacity:  maxCapacity,
		EnsembleSize: ensembleSize,
		LogDir:       logDir,
		GaussianDrop: drop,
	}
	return New(c, e, infoSizes, seed)
}
