package stats

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"landlord-rl/internal/experience"
	"landlord-rl/internal/game"
)

// Sink receives recorded samples. *DB satisfies it.
type Sink interface {
	InsertSample(ctx context.Context, runID int64, s Sample) error
}

// PipelineStatus is the subset of the training pipeline the recorder reads.
// It is satisfied by *training.Pipeline.
type PipelineStatus interface {
	PoolStats() [game.NumRoles]experience.Stats
	SnapshotVersions() [game.NumRoles]uint64
	LearnerFrames(role game.Role) uint64
	LearnerLoss(role game.Role) float64
}

// Recorder periodically samples training progress into a sink
type Recorder struct {
	sink       Sink
	runID      int64
	pipeline   PipelineStatus
	interval   time.Duration
	lastFrames [game.NumRoles]uint64
	lastCheck  time.Time
	logger     zerolog.Logger
}

// NewRecorder creates a recorder writing samples for the given run
func NewRecorder(sink Sink, runID int64, p PipelineStatus, interval time.Duration, logger zerolog.Logger) *Recorder {
	return &Recorder{
		sink:     sink,
		runID:    runID,
		pipeline: p,
		interval: interval,
		logger:   logger.With().Str("component", "stats").Int64("run_id", runID).Logger(),
	}
}

// Run samples until the context is cancelled. Insert failures are logged
// and do not stop training.
func (r *Recorder) Run(ctx context.Context) {
	for _, role := range game.Roles() {
		r.lastFrames[role] = r.pipeline.LearnerFrames(role)
	}
	r.lastCheck = time.Now()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.record(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Recorder) record(ctx context.Context) {
	now := time.Now()
	elapsed := now.Sub(r.lastCheck).Seconds()
	stats := r.pipeline.PoolStats()
	versions := r.pipeline.SnapshotVersions()

	for _, role := range game.Roles() {
		frames := r.pipeline.LearnerFrames(role)
		var fps float64
		if elapsed > 0 {
			fps = float64(frames-r.lastFrames[role]) / elapsed
		}
		r.lastFrames[role] = frames

		s := stats[role]
		fill := 0.0
		if s.Capacity > 0 {
			fill = float64(s.Full) / float64(s.Capacity)
		}
		sample := Sample{
			Role:            role.String(),
			Frames:          frames,
			FramesPerSec:    fps,
			Loss:            r.pipeline.LearnerLoss(role),
			SnapshotVersion: versions[role],
			BufferFill:      fill,
		}
		if err := r.sink.InsertSample(ctx, r.runID, sample); err != nil {
			r.logger.Warn().Err(err).Str("role", sample.Role).Msg("Failed to record training sample")
		}
	}
	r.lastCheck = now
}
