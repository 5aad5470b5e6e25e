package expreplay

import "fmt"

// Strategy determines how a buffer treats the per-member masks of the
// transitions it stores
type Strategy string

const (
	// Plain is a baseline ring buffer which does not store masks
	Plain Strategy = "Plain"

	// Ensemble stores one bootstrap mask entry per ensemble member
	Ensemble Strategy = "Ensemble"

	// RandomDrop stores masks and carries the parameters of a
	// randomised, ranged member-inclusion strategy
	RandomDrop Strategy = "RandomDrop"

	// GaussianDrop stores masks and carries the parameters of a
	// Gaussian-perturbed member-inclusion strategy
	GaussianDrop Strategy = "GaussianDrop"
)

// Masked returns whether buffers using the Strategy store masks
func (s Strategy) Masked() bool {
	return s != Plain
}

// RandomDropConfig holds the parameters of the RandomDrop strategy
type RandomDropConfig struct {
	SingleFlag bool
	EqualFlag  bool
	Lower      float64
	Upper      float64
}

// GaussianDropConfig holds the parameters of the GaussianDrop strategy
type GaussianDropConfig struct {
	Prob float64
	Std  float64
}

// Config implements a specific configuration of an ExperienceReplayer.
// Only the fields relevant to the chosen Strategy are used, the rest
// are ignored. Configs are JSON serializable.
type Config struct {
	Strategy
	MaxCapacity  int
	EnsembleSize int

	// LogDir is the directory under which snapshots are saved
	LogDir string

	RandomDrop   RandomDropConfig
	GaussianDrop GaussianDropConfig
}

// Validate returns an error if the Config is not usable
func (c Config) Validate() error {
	if c.MaxCapacity < 1 {
		return fmt.Errorf("validate: maxCapacity must be >= 1, have %v",
			c.MaxCapacity)
	}

	switch c.Strategy {
	case Plain:
		return nil

	case Ensemble:

	case RandomDrop:
		if c.RandomDrop.Lower > c.RandomDrop.Upper {
			return fmt.Errorf("validate: random drop lower bound %v > "+
				"upper bound %v", c.RandomDrop.Lower, c.RandomDrop.Upper)
		}

	case GaussianDrop:
		if c.GaussianDrop.Prob < 0 || c.GaussianDrop.Prob > 1 {
			return fmt.Errorf("validate: gaussian drop prob must be in "+
				"[0, 1], have %v", c.GaussianDrop.Prob)
		}
		if c.GaussianDrop.Std < 0 {
			return fmt.Errorf("validate: gaussian drop std must be >= 0, "+
				"have %v", c.GaussianDrop.Std)
		}

	default:
		return fmt.Errorf("validate: no such strategy %q", c.Strategy)
	}

	if c.EnsembleSize < 1 {
		return fmt.Errorf("validate: ensembleSize must be >= 1 for "+
			"strategy %v, have %v", c.Strategy, c.EnsembleSize)
	}
	return nil
}

// Create creates and returns the ExperienceReplayer with the specified
// Config.
func (c Config) Create(featureSize, actionSize int, infoSizes map[string]int,
	seed uint64) (ExperienceReplayer, error) {
	return New(c, featureSize, actionSize, infoSizes, seed)
}
