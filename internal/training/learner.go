package training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"landlord-rl/internal/experience"
	"landlord-rl/internal/game"
	"landlord-rl/internal/model"
)

// ErrTooManySkips is returned when a learner has skipped more consecutive
// updates on non-finite losses than its configured limit allows.
var ErrTooManySkips = errors.New("learner: consecutive non-finite losses exceeded limit")

// Learner is the single consumer of one role's pool. Each step drains one
// full batch, regresses predictions toward the Monte Carlo targets,
// applies one gradient update and republishes the parameters as a new
// immutable snapshot.
type Learner struct {
	role  game.Role
	pool  *experience.Pool
	store *SnapshotStore

	// mu guards the model against concurrent access from the checkpoint
	// path; the learner loop itself is single-goroutine.
	mu    sync.Mutex
	model model.Model

	lr           float32
	maxSkips     int
	consecSkips  int
	frames       atomic.Uint64
	version      atomic.Uint64
	lastLoss     atomic.Uint64 // float32 bits
	totalBatches atomic.Uint64

	logger zerolog.Logger
}

// LearnerConfig carries one learner's wiring.
type LearnerConfig struct {
	Role         game.Role
	Pool         *experience.Pool
	Model        model.Model
	Store        *SnapshotStore
	LearningRate float32
	// MaxConsecutiveSkips bounds how many non-finite-loss batches in a
	// row are tolerated before the learner gives up.
	MaxConsecutiveSkips int
	Logger              zerolog.Logger
}

// NewLearner wires one role's learner.
func NewLearner(cfg LearnerConfig) *Learner {
	return &Learner{
		role:     cfg.Role,
		pool:     cfg.Pool,
		model:    cfg.Model,
		store:    cfg.Store,
		lr:       cfg.LearningRate,
		maxSkips: cfg.MaxConsecutiveSkips,
		logger:   cfg.Logger.With().Str("component", "learner").Stringer("role", cfg.Role).Logger(),
	}
}

// Role returns the role this learner trains.
func (l *Learner) Role() game.Role { return l.role }

// Frames returns the trained-frame counter.
func (l *Learner) Frames() uint64 { return l.frames.Load() }

// LastLoss returns the most recent finite batch loss.
func (l *Learner) LastLoss() float32 {
	return math.Float32frombits(uint32(l.lastLoss.Load()))
}

// Batches returns how many gradient updates have been applied.
func (l *Learner) Batches() uint64 { return l.totalBatches.Load() }

// restore seeds counters from a checkpoint before the learner runs.
func (l *Learner) restore(frames, version uint64) {
	l.frames.Store(frames)
	l.version.Store(version)
}

// CheckpointState copies the model's parameters and optimizer state for
// durable storage. The copy is taken under the same lock TrainStep holds,
// so it never observes a half-applied update.
func (l *Learner) CheckpointState() (model.Params, model.OptimizerState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.model.SnapshotParams(), l.model.OptimizerState()
}

// PublishSnapshot publishes the model's current parameters under the next
// version. The pipeline calls this once at startup so actors have a
// snapshot before the first update; afterwards only Step publishes.
func (l *Learner) PublishSnapshot() {
	l.store.Publish(&Snapshot{
		Role:    l.role,
		Version: l.version.Add(1),
		Frames:  l.frames.Load(),
		Params:  l.model.SnapshotParams(),
	})
}

// Step performs one drain/update/publish cycle. A non-finite loss skips
// the update, leaving the parameters unchanged, and only counts toward
// the consecutive-skip limit; the batch itself is discarded.
func (l *Learner) Step(ctx context.Context) error {
	batch, err := l.pool.Drain(ctx)
	if err != nil {
		return err
	}

	states := make([][]float32, len(batch))
	actions := make([][]float32, len(batch))
	targets := make([]float32, len(batch))
	for i, rec := range batch {
		states[i] = rec.State
		actions[i] = rec.Action
		targets[i] = rec.Target
	}

	l.mu.Lock()
	loss := l.model.TrainStep(states, actions, targets, l.lr)
	l.mu.Unlock()
	if math.IsNaN(float64(loss)) || math.IsInf(float64(loss), 0) {
		l.consecSkips++
		l.logger.Warn().
			Int("consecutive_skips", l.consecSkips).
			Int("limit", l.maxSkips).
			Msg("Non-finite loss, skipping update")
		if l.maxSkips > 0 && l.consecSkips >= l.maxSkips {
			return fmt.Errorf("%w: %d for role %s", ErrTooManySkips, l.consecSkips, l.role)
		}
		return nil
	}
	l.consecSkips = 0
	l.lastLoss.Store(uint64(math.Float32bits(loss)))
	l.totalBatches.Add(1)
	l.frames.Add(uint64(len(batch)))

	l.PublishSnapshot()
	return nil
}

// Run drains and trains until the context is cancelled or the skip limit
// trips. Cancellation is only honored between batches.
func (l *Learner) Run(ctx context.Context) error {
	for {
		if err := l.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			l.logger.Error().Err(err).Msg("Learner terminating")
			return err
		}
	}
}
