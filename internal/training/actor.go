package training

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"landlord-rl/internal/experience"
	"landlord-rl/internal/game"
	"landlord-rl/internal/model"
)

// Actor is one self-play worker. It plays full episodes against the
// freshest parameter snapshots, encodes every decision and pushes the
// resulting records into the per-role pools. Actors never touch model
// parameters; their only side effect is buffer mutation.
type Actor struct {
	id        int
	pools     [game.NumRoles]*experience.Pool
	store     *SnapshotStore
	objective ObjectiveFunc
	epsilon   float64
	rng       *rand.Rand
	logger    zerolog.Logger

	// DecisionObserver, when set, is invoked with the snapshot version
	// used for every decision. Tests use it to verify that one episode
	// runs under exactly one snapshot per role.
	DecisionObserver func(role game.Role, snapshotVersion uint64)
}

// ActorConfig carries the per-actor wiring.
type ActorConfig struct {
	ID        int
	Pools     [game.NumRoles]*experience.Pool
	Store     *SnapshotStore
	Objective ObjectiveFunc
	// Epsilon is the exploration rate: with probability epsilon a random
	// legal move is played instead of the argmax. Zero disables
	// exploration and makes action selection deterministic.
	Epsilon float64
	Seed    int64
	Logger  zerolog.Logger
}

// NewActor wires one self-play worker.
func NewActor(cfg ActorConfig) *Actor {
	return &Actor{
		id:        cfg.ID,
		pools:     cfg.Pools,
		store:     cfg.Store,
		objective: cfg.Objective,
		epsilon:   cfg.Epsilon,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		logger:    cfg.Logger.With().Str("component", "actor").Int("actor_id", cfg.ID).Logger(),
	}
}

// Run generates episodes until the context is cancelled. Cancellation is
// only honored between episodes; an episode in flight always finishes.
func (a *Actor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := a.RunEpisode(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			a.logger.Error().Err(err).Msg("Actor terminating on episode failure")
			return err
		}
	}
}

// RunEpisode plays one full episode and pushes its training records.
// The per-role snapshots are read once at episode start and never swapped
// mid-episode, even if the learners publish newer ones concurrently.
func (a *Actor) RunEpisode(ctx context.Context) error {
	var snaps [game.NumRoles]*Snapshot
	for _, r := range game.Roles() {
		snaps[r] = a.store.Current(r)
		if snaps[r] == nil {
			return fmt.Errorf("actor %d: no snapshot published for role %s", a.id, r)
		}
	}

	env := game.NewEnv(a.rng)
	collector := experience.NewEpisodeCollector(uuid.New().String())

	for !env.Done() {
		seat := env.Turn()
		moves := env.LegalMoves()
		if len(moves) == 0 {
			// The oracle guarantees at least one legal move (pass when
			// following); an empty set is a contract violation.
			return fmt.Errorf("actor %d: move oracle returned no legal moves for %s", a.id, seat)
		}

		state := experience.EncodeState(env.Observe(seat))
		encoded := experience.EncodeActions(moves)
		choice := a.selectAction(snaps[seat].Params, state, encoded)

		if a.DecisionObserver != nil {
			a.DecisionObserver(seat, snaps[seat].Version)
		}
		collector.Record(seat, state, encoded[choice])

		if _, _, err := env.Step(moves[choice]); err != nil {
			// The actor chose from the oracle's own set, so a rejection
			// means actor and oracle disagree on legality. Fatal.
			return fmt.Errorf("actor %d: environment rejected oracle move: %w", a.id, err)
		}
	}

	records := collector.Finalize(a.objective(env.Result()))
	for _, role := range game.Roles() {
		for _, rec := range records[role] {
			if err := a.pools[role].Push(ctx, rec); err != nil {
				return fmt.Errorf("actor %d: push for role %s: %w", a.id, role, err)
			}
		}
	}
	return nil
}

// selectAction picks the argmax-scored action, or with probability
// epsilon a uniformly random one.
func (a *Actor) selectAction(params model.Params, state []float32, actions [][]float32) int {
	if a.epsilon > 0 && a.rng.Float64() < a.epsilon {
		return a.rng.Intn(len(actions))
	}
	best := 0
	bestScore := model.Score(params, state, actions[0])
	for i := 1; i < len(actions); i++ {
		if s := model.Score(params, state, actions[i]); s > bestScore {
			best = i
			bestScore = s
		}
	}
	return best
}
