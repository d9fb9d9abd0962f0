package experience

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"landlord-rl/internal/game"
)

var (
	// ErrPushStalled is returned when a push has been blocked longer than
	// the pool's stall timeout. It signals a stuck or dead learner, not a
	// transient full buffer.
	ErrPushStalled = errors.New("experience pool push stalled")
)

// Pool is the bounded holding area between the actors producing one
// role's training records and the single learner consuming them.
//
// Slots live in a fixed array; ownership of a slot index moves through
// two buffered channels acting as the free and full index queues. An
// index is in exactly one place at a time (free queue, full queue, or
// held by the one goroutine currently reading/writing the slot), so no
// slot is ever reachable by two callers and no index is ever lost.
//
// Many actors push concurrently. Exactly one learner drains; the pool
// does not support concurrent drains on the same role and the pipeline
// never creates more than one learner per role.
type Pool struct {
	role      game.Role
	slots     []TrainingRecord
	free      chan int
	full      chan int
	batchSize int

	// A push blocked longer than stallTimeout reports ErrPushStalled
	// instead of hanging silently. Zero disables the timeout.
	stallTimeout time.Duration

	// pushed and drained both count individual records.
	pushed  atomic.Uint64
	drained atomic.Uint64

	logger zerolog.Logger
}

// NewPool builds a pool for one role. Capacity must be a positive whole
// multiple of batchSize so a drain can always complete in one claim pass.
func NewPool(role game.Role, capacity, batchSize int, stallTimeout time.Duration, logger zerolog.Logger) (*Pool, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("experience: batch size must be positive, got %d", batchSize)
	}
	if capacity <= 0 || capacity%batchSize != 0 {
		return nil, fmt.Errorf("experience: capacity %d must be a whole multiple of batch size %d", capacity, batchSize)
	}

	p := &Pool{
		role:         role,
		slots:        make([]TrainingRecord, capacity),
		free:         make(chan int, capacity),
		full:         make(chan int, capacity),
		batchSize:    batchSize,
		stallTimeout: stallTimeout,
		logger:       logger.With().Str("component", "experience_pool").Stringer("role", role).Logger(),
	}
	for i := 0; i < capacity; i++ {
		p.free <- i
	}
	return p, nil
}

// Role returns the role this pool serves.
func (p *Pool) Role() game.Role { return p.role }

// Capacity returns the fixed slot count.
func (p *Pool) Capacity() int { return len(p.slots) }

// BatchSize returns the drain batch size the pool was sized for.
func (p *Pool) BatchSize() int { return p.batchSize }

// Push blocks until a free slot exists, writes rec into it and hands the
// slot to the full queue. Blocking here is the actors' backpressure and
// is expected under fast self-play; only a stall past the timeout or a
// cancelled context ends the call early.
func (p *Pool) Push(ctx context.Context, rec TrainingRecord) error {
	if rec.Role != p.role {
		// Records for the wrong role indicate a wiring defect upstream.
		return fmt.Errorf("experience: record for role %s pushed to %s pool", rec.Role, p.role)
	}

	var idx int
	if p.stallTimeout > 0 {
		timer := time.NewTimer(p.stallTimeout)
		defer timer.Stop()
		select {
		case idx = <-p.free:
		case <-timer.C:
			p.logger.Error().Dur("stall_timeout", p.stallTimeout).Msg("Push blocked past stall timeout; learner may be stuck")
			return fmt.Errorf("%w: role %s blocked for %s", ErrPushStalled, p.role, p.stallTimeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	} else {
		select {
		case idx = <-p.free:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.slots[idx] = rec
	p.full <- idx
	p.pushed.Add(1)
	return nil
}

// Drain blocks until batchSize full slots exist, claims exactly that
// many, copies the records out and returns the slots to the free queue.
// It never returns a short batch: on cancellation mid-claim, already
// claimed slots go back to the full queue untouched.
func (p *Pool) Drain(ctx context.Context) ([]TrainingRecord, error) {
	claimed := make([]int, 0, p.batchSize)
	for len(claimed) < p.batchSize {
		select {
		case idx := <-p.full:
			claimed = append(claimed, idx)
		case <-ctx.Done():
			for _, idx := range claimed {
				p.full <- idx
			}
			return nil, ctx.Err()
		}
	}

	batch := make([]TrainingRecord, p.batchSize)
	for i, idx := range claimed {
		batch[i] = p.slots[idx]
		p.slots[idx] = TrainingRecord{}
		p.free <- idx
	}
	p.drained.Add(uint64(p.batchSize))
	return batch, nil
}

// Stats is a point-in-time view of the pool for monitoring. Free+Full can
// momentarily undercount capacity by the slots currently held by a pusher
// or the drainer; no index is ever in both queues.
type Stats struct {
	Role         string
	Capacity     int
	Free         int
	Full         int
	TotalPushed  uint64
	TotalDrained uint64
}

// Stats returns current pool statistics.
func (p *Pool) Stats() Stats {
	return Stats{
		Role:         p.role.String(),
		Capacity:     len(p.slots),
		Free:         len(p.free),
		Full:         len(p.full),
		TotalPushed:  p.pushed.Load(),
		TotalDrained: p.drained.Load(),
	}
}
