package monitoring

import (
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"landlord-rl/internal/experience"
	"landlord-rl/internal/game"
)

// PipelineStatus is the subset of the training pipeline the monitor reads.
// It is satisfied by *training.Pipeline.
type PipelineStatus interface {
	TotalFrames() uint64
	PoolStats() [game.NumRoles]experience.Stats
	SnapshotVersions() [game.NumRoles]uint64
	LearnerLoss(role game.Role) float64
}

// ProgressMonitor periodically logs training throughput and buffer health
type ProgressMonitor struct {
	mu         sync.Mutex
	pipeline   PipelineStatus
	interval   time.Duration
	lastFrames uint64
	lastCheck  time.Time
	stopChan   chan struct{}
	logger     zerolog.Logger
}

// NewProgressMonitor creates a progress monitor reporting at the given interval
func NewProgressMonitor(p PipelineStatus, interval time.Duration, logger zerolog.Logger) *ProgressMonitor {
	return &ProgressMonitor{
		pipeline: p,
		interval: interval,
		stopChan: make(chan struct{}),
		logger:   logger.With().Str("component", "monitor").Logger(),
	}
}

// Start begins periodic reporting
func (pm *ProgressMonitor) Start() {
	pm.mu.Lock()
	pm.lastFrames = pm.pipeline.TotalFrames()
	pm.lastCheck = time.Now()
	pm.mu.Unlock()

	go pm.monitor()
	pm.logger.Info().
		Dur("interval", pm.interval).
		Msg("Started progress monitoring")
}

// Stop stops the monitor
func (pm *ProgressMonitor) Stop() {
	close(pm.stopChan)
}

func (pm *ProgressMonitor) monitor() {
	ticker := time.NewTicker(pm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pm.report()
		case <-pm.stopChan:
			return
		}
	}
}

// report logs one snapshot of throughput, per-role buffer fill and loss
func (pm *ProgressMonitor) report() {
	pm.mu.Lock()
	now := time.Now()
	frames := pm.pipeline.TotalFrames()
	elapsed := now.Sub(pm.lastCheck).Seconds()
	var fps float64
	if elapsed > 0 {
		fps = float64(frames-pm.lastFrames) / elapsed
	}
	pm.lastFrames = frames
	pm.lastCheck = now
	pm.mu.Unlock()

	ev := pm.logger.Info().
		Uint64("frames", frames).
		Float64("frames_per_sec", fps).
		Int("goroutines", runtime.NumGoroutine())

	stats := pm.pipeline.PoolStats()
	versions := pm.pipeline.SnapshotVersions()
	for _, role := range game.Roles() {
		s := stats[role]
		fill := 0.0
		if s.Capacity > 0 {
			fill = float64(s.Full) / float64(s.Capacity)
		}
		ev = ev.
			Float64(role.String()+"_fill", fill).
			Uint64(role.String()+"_version", versions[role]).
			Float64(role.String()+"_loss", pm.pipeline.LearnerLoss(role))
	}
	ev.Msg("Training progress")
}
