package training

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"landlord-rl/internal/experience"
	"landlord-rl/internal/game"
	"landlord-rl/internal/model"
)

// PipelineConfig is the training configuration boundary: everything here
// is fixed at startup.
type PipelineConfig struct {
	NumActors     int
	BatchSize     int
	BufferBatches int // pool capacity as a multiple of batch size
	LearningRate  float32
	Momentum      float32
	Epsilon       float64
	Objective     string
	// TotalFrames stops training once the summed per-role frame counters
	// reach it. Zero means run until cancelled.
	TotalFrames         uint64
	CheckpointPath      string
	CheckpointInterval  time.Duration
	PushStallTimeout    time.Duration
	MaxConsecutiveSkips int
	Seed                int64
}

// Pipeline owns the full actor/learner fan-in for all three roles: one
// (pool, model, learner) triple per role built from the same generic
// parts, plus N actors feeding all of them.
type Pipeline struct {
	cfg       PipelineConfig
	objective ObjectiveFunc
	pools     [game.NumRoles]*experience.Pool
	models    [game.NumRoles]*model.Linear
	learners  [game.NumRoles]*Learner
	actors    []*Actor
	store     *SnapshotStore
	logger    zerolog.Logger
}

// NewPipeline builds all components and, when a checkpoint exists at the
// configured path, restores every role from it exactly. A checkpoint
// that does not match the configuration is a fatal error.
func NewPipeline(cfg PipelineConfig, logger zerolog.Logger) (*Pipeline, error) {
	objective, err := ObjectiveByName(cfg.Objective)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:       cfg,
		objective: objective,
		store:     NewSnapshotStore(),
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}

	initRNG := rand.New(rand.NewSource(cfg.Seed))
	for _, role := range game.Roles() {
		pool, err := experience.NewPool(role, cfg.BufferBatches*cfg.BatchSize, cfg.BatchSize, cfg.PushStallTimeout, logger)
		if err != nil {
			return nil, err
		}
		p.pools[role] = pool
		p.models[role] = model.NewLinear(experience.StateLen, experience.ActionLen, cfg.Momentum, initRNG)
		p.learners[role] = NewLearner(LearnerConfig{
			Role:                role,
			Pool:                pool,
			Model:               p.models[role],
			Store:               p.store,
			LearningRate:        cfg.LearningRate,
			MaxConsecutiveSkips: cfg.MaxConsecutiveSkips,
			Logger:              logger,
		})
	}

	if cfg.CheckpointPath != "" {
		if err := p.restoreCheckpoint(); err != nil {
			return nil, err
		}
	}

	for _, role := range game.Roles() {
		p.learners[role].PublishSnapshot()
	}

	for i := 0; i < cfg.NumActors; i++ {
		p.actors = append(p.actors, NewActor(ActorConfig{
			ID:        i,
			Pools:     p.pools,
			Store:     p.store,
			Objective: objective,
			Epsilon:   cfg.Epsilon,
			Seed:      cfg.Seed + int64(i) + 1,
			Logger:    logger,
		}))
	}
	return p, nil
}

func (p *Pipeline) restoreCheckpoint() error {
	cp, err := LoadCheckpoint(p.cfg.CheckpointPath, p.cfg.Objective)
	if errors.Is(err, os.ErrNotExist) {
		p.logger.Info().Str("path", p.cfg.CheckpointPath).Msg("No checkpoint found, starting fresh")
		return nil
	}
	if err != nil {
		return fmt.Errorf("pipeline: restore: %w", err)
	}

	for _, role := range game.Roles() {
		rc := cp.RoleState(role)
		if err := p.models[role].LoadParams(rc.Params); err != nil {
			return fmt.Errorf("pipeline: restore role %s: %w", role, err)
		}
		if err := p.models[role].LoadOptimizerState(rc.Optimizer); err != nil {
			return fmt.Errorf("pipeline: restore role %s optimizer: %w", role, err)
		}
		p.learners[role].restore(rc.Frames, rc.Version)
	}
	p.logger.Info().
		Time("saved_at", cp.SavedAt).
		Uint64("total_frames", p.TotalFrames()).
		Msg("Resumed from checkpoint")
	return nil
}

// TotalFrames sums the trained-frame counters across roles.
func (p *Pipeline) TotalFrames() uint64 {
	var total uint64
	for _, role := range game.Roles() {
		total += p.learners[role].Frames()
	}
	return total
}

// Learner exposes one role's learner, for status reporting.
func (p *Pipeline) Learner(role game.Role) *Learner { return p.learners[role] }

// LearnerFrames reports the trained-frame counter for one role.
func (p *Pipeline) LearnerFrames(role game.Role) uint64 {
	return p.learners[role].Frames()
}

// LearnerLoss reports the most recent batch loss for a role's learner.
func (p *Pipeline) LearnerLoss(role game.Role) float64 {
	return float64(p.learners[role].LastLoss())
}

// PoolStats reports every pool's current statistics.
func (p *Pipeline) PoolStats() [game.NumRoles]experience.Stats {
	var out [game.NumRoles]experience.Stats
	for _, role := range game.Roles() {
		out[role] = p.pools[role].Stats()
	}
	return out
}

// SnapshotVersions reports the published snapshot version per role.
func (p *Pipeline) SnapshotVersions() [game.NumRoles]uint64 {
	return p.store.Versions()
}

// SaveCheckpoint writes the current training state durably. Safe to call
// while learners are mid-update; each role's parameters and optimizer
// state are copied under that learner's lock.
func (p *Pipeline) SaveCheckpoint() error {
	if p.cfg.CheckpointPath == "" {
		return nil
	}
	cp := &Checkpoint{
		SavedAt:         time.Now(),
		EncodingVersion: experience.EncodingVersion,
		Objective:       p.cfg.Objective,
	}
	for _, role := range game.Roles() {
		params, opt := p.learners[role].CheckpointState()
		cp.Roles = append(cp.Roles, RoleCheckpoint{
			Role:      role.String(),
			Params:    params,
			Optimizer: opt,
			Frames:    p.learners[role].Frames(),
			Version:   p.store.Versions()[role],
		})
	}
	return SaveCheckpoint(p.cfg.CheckpointPath, cp)
}

// Run starts every learner and actor and blocks until the frame target
// is reached, the context is cancelled, or a worker fails. Workers stop
// at episode/batch boundaries only; the final checkpoint is written
// after all of them have drained out.
func (p *Pipeline) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(p.actors)+game.NumRoles)
	var wg sync.WaitGroup

	for _, role := range game.Roles() {
		wg.Add(1)
		go func(l *Learner) {
			defer wg.Done()
			if err := l.Run(runCtx); err != nil {
				errCh <- err
				cancel()
			}
		}(p.learners[role])
	}
	for _, a := range p.actors {
		wg.Add(1)
		go func(a *Actor) {
			defer wg.Done()
			if err := a.Run(runCtx); err != nil {
				errCh <- err
				cancel()
			}
		}(a)
	}

	// Stop watcher: the global frame target is a shared read-only goal
	// checked out-of-band, never a lock across roles.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if p.cfg.TotalFrames > 0 && p.TotalFrames() >= p.cfg.TotalFrames {
					p.logger.Info().
						Uint64("total_frames", p.TotalFrames()).
						Uint64("target", p.cfg.TotalFrames).
						Msg("Frame target reached, stopping")
					cancel()
					return
				}
			}
		}
	}()

	if p.cfg.CheckpointPath != "" && p.cfg.CheckpointInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(p.cfg.CheckpointInterval)
			defer ticker.Stop()
			for {
				select {
				case <-runCtx.Done():
					return
				case <-ticker.C:
					if err := p.SaveCheckpoint(); err != nil {
						p.logger.Error().Err(err).Msg("Periodic checkpoint failed")
					} else {
						p.logger.Info().Uint64("total_frames", p.TotalFrames()).Msg("Checkpoint written")
					}
				}
			}
		}()
	}

	wg.Wait()

	var runErr error
	select {
	case runErr = <-errCh:
	default:
	}

	if err := p.SaveCheckpoint(); err != nil {
		p.logger.Error().Err(err).Msg("Final checkpoint failed")
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}
