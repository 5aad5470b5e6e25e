// Package experiment implements the outer loop of ensemble off-policy
// experiments: collecting experience into an ensemble replay buffer,
// training on replayed batches, evaluating and checkpointing
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/sunrise/agent"
	"github.com/samuelfneumann/sunrise/agent/dryrun"
	"github.com/samuelfneumann/sunrise/buffer/expreplay"
)

// Versions of experiments
const (
	Sunrise        = "sunrise"
	DynamicSunrise = "dsunrise"
)

// AlgorithmConfig configures the batch RL loop
type AlgorithmConfig struct {
	NumEpochs                 int `json:"num_epochs"`
	NumEvalStepsPerEpoch      int `json:"num_eval_steps_per_epoch"`
	NumTrainsPerTrainLoop     int `json:"num_trains_per_train_loop"`
	NumExplStepsPerTrainLoop  int `json:"num_expl_steps_per_train_loop"`
	MinNumStepsBeforeTraining int `json:"min_num_steps_before_training"`
	MaxPathLength             int `json:"max_path_length"`
	BatchSize                 int `json:"batch_size"`

	// SaveFrequency is the number of epochs between snapshots of the
	// buffer and trainer, 0 disables snapshots
	SaveFrequency int `json:"save_frequency"`

	// RemovalCheckFrequency is the number of exploration steps between
	// removal checks, 0 disables them
	RemovalCheckFrequency  int `json:"removal_check_frequency"`
	RemovalCheckBufferSize int `json:"removal_check_buffer_size"`
}

// TrainerConfig holds the hyperparameters handed to the trainer. They
// are recorded in the variant for the trainer's use.
type TrainerConfig struct {
	Discount                  float64 `json:"discount"`
	SoftTargetTau             float64 `json:"soft_target_tau"`
	TargetUpdatePeriod        int     `json:"target_update_period"`
	PolicyLR                  float64 `json:"policy_lr"`
	QfLR                      float64 `json:"qf_lr"`
	RewardScale               float64 `json:"reward_scale"`
	UseAutomaticEntropyTuning bool    `json:"use_automatic_entropy_tuning"`
}

// DynamicConfig holds the parameters of dynamic ensemble management
type DynamicConfig struct {
	DiversityThreshold         float64 `json:"diversity_threshold"`
	DiversityCriticalThreshold float64 `json:"diversity_critical_threshold"`
	PerformanceGamma           float64 `json:"performance_gamma"`
	WindowSize                 float64 `json:"window_size"`
	Noise                      float64 `json:"noise"`
	RetrainSteps               int     `json:"retrain_steps"`
}

// BufferConfig selects the replay buffer strategy and its parameters
type BufferConfig struct {
	Strategy     expreplay.Strategy           `json:"strategy"`
	RandomDrop   expreplay.RandomDropConfig   `json:"random_drop"`
	GaussianDrop expreplay.GaussianDropConfig `json:"gaussian_drop"`
}

// Config is the variant of an experiment. It is written to
// variant.json in the experiment's log directory.
type Config struct {
	Algorithm        string  `json:"algorithm"`
	Version          string  `json:"version"`
	LayerSize        int     `json:"layer_size"`
	NumLayer         int     `json:"num_layer"`
	ReplayBufferSize int     `json:"replay_buffer_size"`
	NumEnsemble      int     `json:"num_ensemble"`
	BerMean          float64 `json:"ber_mean"`
	InferenceType    float64 `json:"inference_type"`
	Temperature      float64 `json:"temperature"`
	Env              string  `json:"env"`
	Seed             uint64  `json:"seed"`
	MaxCPU           int     `json:"max_cpu,omitempty"`

	Trainer agent.Type `json:"trainer"`

	AlgorithmKwargs AlgorithmConfig `json:"algorithm_kwargs"`
	TrainerKwargs   TrainerConfig   `json:"trainer_kwargs"`
	Dynamic         DynamicConfig   `json:"dynamic"`
	Buffer          BufferConfig    `json:"buffer"`

	LogDir    string `json:"log_dir,omitempty"`
	ResumeDir string `json:"resume_dir,omitempty"`
}

// Default returns the configuration of a SUNRISE experiment
func Default() Config {
	return Config{
		Algorithm:        "SAC",
		Version:          Sunrise,
		LayerSize:        256,
		NumLayer:         2,
		ReplayBufferSize: 1_000_000,
		NumEnsemble:      3,
		BerMean:          0.5,
		InferenceType:    0.0,
		Temperature:      20.0,
		Env:              "Ant-v5",
		Seed:             1,
		Trainer:          dryrun.Type,
		AlgorithmKwargs: AlgorithmConfig{
			NumEpochs:                 210,
			NumEvalStepsPerEpoch:      1000,
			NumTrainsPerTrainLoop:     1000,
			NumExplStepsPerTrainLoop:  1000,
			MinNumStepsBeforeTraining: 1000,
			MaxPathLength:             1000,
			BatchSize:                 256,
			SaveFrequency:             0,
			RemovalCheckFrequency:     10000,
			RemovalCheckBufferSize:    2000,
		},
		TrainerKwargs: TrainerConfig{
			Discount:                  0.99,
			SoftTargetTau:             5e-3,
			TargetUpdatePeriod:        1,
			PolicyLR:                  3e-4,
			QfLR:                      3e-4,
			RewardScale:               1,
			UseAutomaticEntropyTuning: true,
		},
		Dynamic: DynamicConfig{
			DiversityThreshold:         0.006,
			DiversityCriticalThreshold: 0.005,
			PerformanceGamma:           0.95,
			WindowSize:                 1000,
			Noise:                      0.1,
			RetrainSteps:               0,
		},
		Buffer: BufferConfig{Strategy: expreplay.Ensemble},
	}
}

// DefaultDynamic returns the configuration of a Dynamic-SUNRISE
// experiment
func DefaultDynamic() Config {
	c := Default()
	c.Version = DynamicSunrise
	c.NumEnsemble = 10
	c.MaxCPU = 8
	c.AlgorithmKwargs.NumEpochs = 1000
	c.AlgorithmKwargs.SaveFrequency = 100
	c.AlgorithmKwargs.MinNumStepsBeforeTraining = 10000
	c.AlgorithmKwargs.RemovalCheckBufferSize = 10000
	c.Dynamic = DynamicConfig{
		DiversityThreshold:         0.2,
		DiversityCriticalThreshold: 0.1,
		PerformanceGamma:           0.95,
		WindowSize:                 1000,
		Noise:                      0.1,
		RetrainSteps:               0,
	}
	return c
}

// ReplayConfig returns the replay buffer configuration of the
// experiment
func (c Config) ReplayConfig() expreplay.Config {
	return expreplay.Config{
		Strategy:     c.Buffer.Strategy,
		MaxCapacity:  c.ReplayBufferSize,
		EnsembleSize: c.NumEnsemble,
		LogDir:       c.LogDir,
		RandomDrop:   c.Buffer.RandomDrop,
		GaussianDrop: c.Buffer.GaussianDrop,
	}
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.Env == "" {
		return fmt.Errorf("env is required")
	}
	if c.NumEnsemble < 1 {
		return fmt.Errorf("num_ensemble must be positive")
	}
	if c.BerMean < 0 || c.BerMean > 1 {
		return fmt.Errorf("ber_mean must be in [0, 1], have %v", c.BerMean)
	}
	if c.Trainer == "" {
		return fmt.Errorf("trainer is required")
	}

	a := c.AlgorithmKwargs
	if a.NumEpochs < 0 {
		return fmt.Errorf("num_epochs must be non-negative")
	}
	if a.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if a.MaxPathLength <= 0 {
		return fmt.Errorf("max_path_length must be positive")
	}
	if a.NumEvalStepsPerEpoch < 0 || a.NumExplStepsPerTrainLoop < 0 ||
		a.NumTrainsPerTrainLoop < 0 || a.MinNumStepsBeforeTraining < 0 {
		return fmt.Errorf("step counts must be non-negative")
	}
	if a.SaveFrequency < 0 {
		return fmt.Errorf("save_frequency must be non-negative")
	}
	if a.RemovalCheckFrequency < 0 {
		return fmt.Errorf("removal_check_frequency must be non-negative")
	}
	if a.RemovalCheckFrequency > 0 && a.RemovalCheckBufferSize <= 0 {
		return fmt.Errorf("removal_check_buffer_size must be positive")
	}

	if err := c.ReplayConfig().Validate(); err != nil {
		return fmt.Errorf("buffer: %w", err)
	}
	return nil
}
