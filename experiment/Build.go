package experiment

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/sunrise/agent"
	"github.com/samuelfneumann/sunrise/agent/random"
	"github.com/samuelfneumann/sunrise/buffer/envreplay"
	"github.com/samuelfneumann/sunrise/environment/envconfig"
	"github.com/samuelfneumann/sunrise/mask"
)

// Build creates the environments, buffer, collectors and trainer of
// the experiment c and returns the BatchRL which runs it. The trainer
// is created from the registered agent.Type c.Trainer. Both collectors
// act with a uniform random policy; exploration transitions are stored
// with Bernoulli(c.BerMean) ensemble masks.
//
// Snapshots are saved to and resumed from c.LogDir.
func Build(c Config, logger zerolog.Logger) (*BatchRL, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	explEnv, explFirst, err := envconfig.Create(c.Env, c.Seed)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	evalEnv, evalFirst, err := envconfig.Create(c.Env, c.Seed+1)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	buffer, err := envreplay.New(c.ReplayConfig(), explEnv, nil, c.Seed)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	masks, err := mask.NewBernoulli(c.NumEnsemble, c.BerMean, c.Seed+2)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	explPolicy, err := random.New(explEnv, c.Seed)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	evalPolicy, err := random.New(evalEnv, c.Seed+1)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	maxPath := c.AlgorithmKwargs.MaxPathLength
	expl, err := NewCollector(explEnv, explFirst, explPolicy, buffer, masks,
		maxPath, logger.With().Str("collector", "exploration").Logger())
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	eval, err := NewCollector(evalEnv, evalFirst, evalPolicy, nil, nil,
		maxPath, logger.With().Str("collector", "evaluation").Logger())
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	trainer, err := agent.Create(c.Trainer, agent.Options{
		EnsembleSize: c.NumEnsemble,
		LogDir:       c.LogDir,
		Seed:         c.Seed,
		Logger:       logger.With().Str("trainer", string(c.Trainer)).Logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	logger.Info().
		Str("env", c.Env).
		Str("buffer", string(c.Buffer.Strategy)).
		Int("num_ensemble", c.NumEnsemble).
		Int("obs_dim", buffer.FeatureDim()).
		Int("action_dim", buffer.ActionDim()).
		Str("log_dir", c.LogDir).
		Msg("experiment built")

	return NewBatchRL(c, trainer, buffer, expl, eval, logger), nil
}
