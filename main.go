package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/sunrise/agent"
	"github.com/samuelfneumann/sunrise/buffer/expreplay"
	"github.com/samuelfneumann/sunrise/experiment"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// strategies maps --buffer values to buffer strategies
var strategies = map[string]expreplay.Strategy{
	"plain":         expreplay.Plain,
	"ensemble":      expreplay.Ensemble,
	"random-drop":   expreplay.RandomDrop,
	"gaussian-drop": expreplay.GaussianDrop,
}

// options holds the command line settings which are not part of the
// experiment variant
type options struct {
	expDir   string
	expName  string
	buffer   string
	trainer  string
	logLevel string
	progress bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sunrise",
		Short: "Ensemble SAC experiment driver",
		Long: `Runs SUNRISE and Dynamic-SUNRISE experiments.

Experience is collected into an ensemble replay buffer which stores a
bootstrap mask per transition, and replayed to a registered trainer.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newExperimentCmd(experiment.Sunrise, "Run a SUNRISE experiment",
			experiment.Default()),
		newExperimentCmd(experiment.DynamicSunrise,
			"Run a Dynamic-SUNRISE experiment", experiment.DefaultDynamic()),
	)
	return root
}

func newExperimentCmd(use, short string, defaults experiment.Config) *cobra.Command {
	cfg := defaults
	opts := &options{
		expDir:   "data",
		expName:  "experiment",
		buffer:   "ensemble",
		trainer:  string(defaults.Trainer),
		logLevel: "info",
	}
	v := viper.New()

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyEnv(cmd.Flags(), v); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts)
		},
	}

	f := cmd.Flags()
	a := &cfg.AlgorithmKwargs

	// Architecture
	f.IntVar(&cfg.NumLayer, "num-layer", cfg.NumLayer, "Number of hidden layers")
	f.IntVar(&cfg.LayerSize, "layer-size", cfg.LayerSize, "Units per hidden layer")

	// Train
	f.IntVar(&a.BatchSize, "batch-size", a.BatchSize, "Batch size of each update")
	f.IntVar(&a.SaveFrequency, "save-freq", a.SaveFrequency, "Epochs between snapshots (0 disables)")
	f.IntVar(&a.NumEpochs, "epochs", a.NumEpochs, "Number of epochs")
	f.IntVar(&a.NumEvalStepsPerEpoch, "num-eval-steps", a.NumEvalStepsPerEpoch, "Evaluation steps per epoch")
	f.IntVar(&a.NumTrainsPerTrainLoop, "num-trains", a.NumTrainsPerTrainLoop, "Updates per train loop")
	f.IntVar(&a.NumExplStepsPerTrainLoop, "num-expl-steps", a.NumExplStepsPerTrainLoop, "Exploration steps per train loop")
	f.IntVar(&a.MinNumStepsBeforeTraining, "min-steps-before-training", a.MinNumStepsBeforeTraining, "Exploration steps before the first epoch")
	f.IntVar(&a.MaxPathLength, "max-path-length", a.MaxPathLength, "Maximum episode length")
	f.IntVar(&cfg.ReplayBufferSize, "replay-buffer-size", cfg.ReplayBufferSize, "Replay buffer capacity")
	f.StringVar(&opts.trainer, "trainer", opts.trainer, "Registered trainer type")

	// Misc
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	f.StringVar(&opts.expDir, "exp-dir", opts.expDir, "Root directory of experiment logs")
	f.StringVar(&opts.expName, "exp-name", opts.expName, "Experiment name")
	f.StringVar(&opts.logLevel, "log-level", opts.logLevel, "Log level (debug, info, warn, error)")
	f.BoolVar(&opts.progress, "progress", opts.progress, "Display a progress bar")

	// Env
	f.StringVar(&cfg.Env, "env", cfg.Env, "Environment ID")

	// Ensemble
	f.IntVar(&cfg.NumEnsemble, "num-ensemble", cfg.NumEnsemble, "Number of ensemble members")
	f.Float64Var(&cfg.BerMean, "ber-mean", cfg.BerMean, "Bernoulli mask mean")

	// Inference
	f.Float64Var(&cfg.InferenceType, "inference-type", cfg.InferenceType, "UCB exploration weight")

	// Corrective feedback
	f.Float64Var(&cfg.Temperature, "temperature", cfg.Temperature, "Weighted Bellman backup temperature")
	f.IntVar(&a.RemovalCheckBufferSize, "removal-check-buffer-size", a.RemovalCheckBufferSize, "Transitions handed to each removal check")
	f.IntVar(&a.RemovalCheckFrequency, "removal-check-frequency", a.RemovalCheckFrequency, "Exploration steps between removal checks (0 disables)")

	// Buffer
	f.StringVar(&opts.buffer, "buffer", opts.buffer, "Buffer strategy (plain, ensemble, random-drop, gaussian-drop)")
	f.BoolVar(&cfg.Buffer.RandomDrop.SingleFlag, "random-drop-single", false, "Random drop single flag")
	f.BoolVar(&cfg.Buffer.RandomDrop.EqualFlag, "random-drop-equal", false, "Random drop equal flag")
	f.Float64Var(&cfg.Buffer.RandomDrop.Lower, "random-drop-lower", 0, "Random drop lower bound")
	f.Float64Var(&cfg.Buffer.RandomDrop.Upper, "random-drop-upper", 0, "Random drop upper bound")
	f.Float64Var(&cfg.Buffer.GaussianDrop.Prob, "gaussian-drop-prob", 0, "Gaussian drop probability")
	f.Float64Var(&cfg.Buffer.GaussianDrop.Std, "gaussian-drop-std", 0, "Gaussian drop standard deviation")

	if use == experiment.DynamicSunrise {
		d := &cfg.Dynamic
		f.IntVar(&cfg.MaxCPU, "max-cpu", cfg.MaxCPU, "Maximum number of CPUs to use")
		f.Float64Var(&d.DiversityThreshold, "diversity-threshold", d.DiversityThreshold, "Diversity threshold")
		f.Float64Var(&d.DiversityCriticalThreshold, "diversity-critical-threshold", d.DiversityCriticalThreshold, "Critical diversity threshold")
		f.Float64Var(&d.PerformanceGamma, "performance-gamma", d.PerformanceGamma, "Performance discount")
		f.Float64Var(&d.WindowSize, "window-size", d.WindowSize, "Performance window size")
		f.Float64Var(&d.Noise, "noise", d.Noise, "Noise added to replacement members")
		f.IntVar(&d.RetrainSteps, "retrain-steps", d.RetrainSteps, "Retraining steps of replacement members")
		f.StringVar(&cfg.ResumeDir, "resume-dir", "", "Resume from the last snapshot of the matching run in this directory")
	}

	// Bind flags to viper for environment variable support
	v.BindPFlags(f)
	v.SetEnvPrefix("SUNRISE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

// applyEnv sets each flag not given on the command line from its
// SUNRISE_* environment variable, if set
func applyEnv(flags *pflag.FlagSet, v *viper.Viper) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		if setErr := flags.Set(f.Name, v.GetString(f.Name)); setErr != nil {
			err = fmt.Errorf("flag %v: %w", f.Name, setErr)
		}
	})
	return err
}

// run runs the experiment cfg
func run(ctx context.Context, cfg experiment.Config, opts *options) error {
	level, err := zerolog.ParseLevel(opts.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)

	strategy, ok := strategies[opts.buffer]
	if !ok {
		return fmt.Errorf("no such buffer strategy %q", opts.buffer)
	}
	cfg.Buffer.Strategy = strategy
	cfg.Trainer = agent.Type(opts.trainer)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.MaxCPU > 0 {
		runtime.GOMAXPROCS(min(cfg.MaxCPU, runtime.NumCPU()))
	}

	if cfg.ResumeDir != "" {
		dir, err := experiment.FindResumeDir(cfg.ResumeDir, cfg.Env, cfg.Seed)
		if err != nil {
			return err
		}
		cfg.LogDir = dir
		logger.Info().Str("dir", dir).Msg("resuming")
	} else {
		cfg, err = experiment.SetupLogDir(opts.expDir, opts.expName, cfg)
		if err != nil {
			return err
		}
	}

	b, err := experiment.Build(cfg, logger)
	if err != nil {
		return err
	}
	if cfg.ResumeDir != "" {
		if _, err := b.Resume(cfg.LogDir); err != nil {
			return err
		}
	}
	if opts.progress {
		b.SetProgress(os.Stdout)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil {
		return err
	}
	logger.Info().Str("log_dir", cfg.LogDir).Msg("experiment finished")
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
