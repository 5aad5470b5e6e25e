package experiment

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/sunrise/agent"
	"github.com/samuelfneumann/sunrise/buffer/envreplay"
	"github.com/samuelfneumann/sunrise/buffer/expreplay"
	"github.com/samuelfneumann/sunrise/experiment/tracker"
	"github.com/samuelfneumann/sunrise/utils/progressbar"
)

// Files written to the log directory at the end of a run
const (
	EvalReturnsFile = "eval_returns.gob"
	EvalLengthsFile = "eval_lengths.gob"
)

// BatchRL runs the epoch loop of an off-policy ensemble experiment.
//
// Before the first epoch, MinNumStepsBeforeTraining exploration steps
// fill the buffer. Each epoch then evaluates the policy for
// NumEvalStepsPerEpoch steps without storing anything, takes
// NumExplStepsPerTrainLoop exploration steps and performs
// NumTrainsPerTrainLoop updates on batches sampled from the buffer.
// Every RemovalCheckFrequency exploration steps, a RemovalChecker
// trainer is handed the RemovalCheckBufferSize most recent transitions.
// Every SaveFrequency epochs the buffer and trainer are snapshotted.
type BatchRL struct {
	cfg     AlgorithmConfig
	logDir  string
	trainer agent.Trainer
	buffer  *envreplay.Buffer
	expl    *Collector
	eval    *Collector
	logger  zerolog.Logger

	returns *tracker.Return
	lengths *tracker.EpisodeLength
	out     io.Writer

	startEpoch int
	explSteps  int
	updates    int
}

// NewBatchRL returns a new BatchRL. The exploration Collector must
// store into buffer and the evaluation Collector should store nothing.
func NewBatchRL(c Config, trainer agent.Trainer, buffer *envreplay.Buffer,
	expl, eval *Collector, logger zerolog.Logger) *BatchRL {
	b := &BatchRL{
		cfg:     c.AlgorithmKwargs,
		logDir:  c.LogDir,
		trainer: trainer,
		buffer:  buffer,
		expl:    expl,
		eval:    eval,
		logger:  logger,
		returns: tracker.NewReturn(filepath.Join(c.LogDir, EvalReturnsFile)),
		lengths: tracker.NewEpisodeLength(filepath.Join(c.LogDir,
			EvalLengthsFile)),
	}
	eval.Register(b.returns)
	eval.Register(b.lengths)
	return b
}

// SetProgress displays a progress bar over epochs on out
func (b *BatchRL) SetProgress(out io.Writer) {
	b.out = out
}

// Returns returns the returns of all finished evaluation episodes
func (b *BatchRL) Returns() []float64 {
	return b.returns.Returns()
}

// StartEpoch returns the epoch the next call to Run starts from
func (b *BatchRL) StartEpoch() int {
	return b.startEpoch
}

// Updates returns the number of trainer updates performed
func (b *BatchRL) Updates() int {
	return b.updates
}

// Resume restores the latest buffer snapshot in dir, and the trainer
// checkpoint of the same epoch if the trainer is an agent.Restorer, so
// that Run continues from the following epoch. It returns the restored
// epoch.
func (b *BatchRL) Resume(dir string) (int, error) {
	epoch, err := expreplay.LatestEpoch(dir)
	if err != nil {
		return 0, fmt.Errorf("resume: %w", err)
	}

	if err := b.buffer.Load(dir, epoch); err != nil {
		return 0, fmt.Errorf("resume: %w", err)
	}
	if r, ok := b.trainer.(agent.Restorer); ok {
		if err := r.Restore(epoch); err != nil {
			return 0, fmt.Errorf("resume: %w", err)
		}
	}

	b.startEpoch = epoch + 1
	b.explSteps = b.cfg.MinNumStepsBeforeTraining +
		b.startEpoch*b.cfg.NumExplStepsPerTrainLoop

	b.logger.Info().
		Str("dir", dir).
		Int("epoch", epoch).
		Int("buffer_size", b.buffer.Len()).
		Msg("resumed")
	return epoch, nil
}

// Run runs the experiment until all epochs have finished or ctx is
// cancelled
func (b *BatchRL) Run(ctx context.Context) error {
	if b.startEpoch == 0 && b.cfg.MinNumStepsBeforeTraining > 0 {
		b.logger.Info().
			Int("steps", b.cfg.MinNumStepsBeforeTraining).
			Msg("collecting initial experience")
		if err := b.explore(ctx, b.cfg.MinNumStepsBeforeTraining); err != nil {
			return fmt.Errorf("run: %w", err)
		}
	}

	bar := progressbar.NewManualProgressBar(b.out, 50, b.cfg.NumEpochs)
	bar.Set(b.startEpoch)
	defer bar.Close()

	for epoch := b.startEpoch; epoch < b.cfg.NumEpochs; epoch++ {
		if err := b.runEpoch(ctx, epoch); err != nil {
			return fmt.Errorf("run: epoch %v: %w", epoch, err)
		}
		b.startEpoch = epoch + 1

		bar.Increment()
		bar.Display()
	}

	if b.logDir == "" {
		return nil
	}
	if err := b.returns.Save(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := b.lengths.Save(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// runEpoch runs a single epoch
func (b *BatchRL) runEpoch(ctx context.Context, epoch int) error {
	finished := len(b.returns.Returns())
	if _, err := b.eval.Collect(ctx, b.cfg.NumEvalStepsPerEpoch); err != nil {
		return fmt.Errorf("evaluation: %w", err)
	}

	if err := b.explore(ctx, b.cfg.NumExplStepsPerTrainLoop); err != nil {
		return err
	}

	if err := b.train(); err != nil {
		return err
	}

	event := b.logger.Info().
		Int("epoch", epoch).
		Int("expl_steps", b.explSteps).
		Int("updates", b.updates).
		Int("buffer_size", b.buffer.Len())
	if mean, ok := b.returns.Mean(finished); ok {
		event = event.Float64("eval_return", mean)
	}
	event.Msg("epoch finished")

	if b.cfg.SaveFrequency > 0 && epoch%b.cfg.SaveFrequency == 0 {
		return b.save(epoch)
	}
	return nil
}

// explore takes n exploration steps, running removal checks as needed
func (b *BatchRL) explore(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if _, err := b.expl.Collect(ctx, 1); err != nil {
			return fmt.Errorf("exploration: %w", err)
		}
		b.explSteps++

		freq := b.cfg.RemovalCheckFrequency
		if freq > 0 && b.explSteps%freq == 0 {
			if err := b.checkRemoval(); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkRemoval hands the most recent transitions to the trainer if it
// is an agent.RemovalChecker
func (b *BatchRL) checkRemoval() error {
	checker, ok := b.trainer.(agent.RemovalChecker)
	if !ok {
		return nil
	}

	recent, err := b.buffer.Recent(b.cfg.RemovalCheckBufferSize)
	if err != nil {
		return fmt.Errorf("removal check: %w", err)
	}
	if err := checker.CheckRemoval(recent); err != nil {
		return fmt.Errorf("removal check: %w", err)
	}
	return nil
}

// train performs the updates of one train loop
func (b *BatchRL) train() error {
	for i := 0; i < b.cfg.NumTrainsPerTrainLoop; i++ {
		batch, err := b.buffer.Sample(b.cfg.BatchSize)
		if expreplay.IsEmptyBuffer(err) {
			b.logger.Warn().Msg("skipping training on empty buffer")
			return nil
		} else if err != nil {
			return fmt.Errorf("train: %w", err)
		}

		if err := b.trainer.Train(batch); err != nil {
			return fmt.Errorf("train: %w", err)
		}
		b.updates++
	}
	return nil
}

// save snapshots the buffer and checkpoints the trainer
func (b *BatchRL) save(epoch int) error {
	if b.logDir == "" {
		b.logger.Warn().Int("epoch", epoch).Msg("no log dir, not saving")
		return nil
	}

	if err := b.buffer.Save(epoch); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if c, ok := b.trainer.(agent.Checkpointer); ok {
		if err := c.Checkpoint(epoch); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}

	b.logger.Info().Int("epoch", epoch).Msg("saved snapshot")
	return nil
}
