package experience

import (
	"landlord-rl/internal/game"
)

// TrainingRecord is one (state, action, target) triple. The target is the
// terminal outcome of the episode the record came from, broadcast to every
// decision of that role in the episode. Records are immutable once built.
type TrainingRecord struct {
	EpisodeID string
	Role      game.Role
	State     []float32
	Action    []float32
	Target    float32
}

// EpisodeCollector accumulates the (state, action) pairs of one episode.
// The target is unknown until the episode ends, so pairs are collected
// eagerly and the outcome is stamped over all of them in Finalize. One
// collector serves one episode of one actor; it is never shared.
type EpisodeCollector struct {
	episodeID string
	records   [game.NumRoles][]TrainingRecord
	finalized bool
}

// NewEpisodeCollector starts collecting one episode's decisions.
func NewEpisodeCollector(episodeID string) *EpisodeCollector {
	return &EpisodeCollector{episodeID: episodeID}
}

// Record stores one decision. state and action are retained, not copied;
// the caller must not reuse the slices.
func (c *EpisodeCollector) Record(role game.Role, state, action []float32) {
	if c.finalized {
		panic("experience: record after finalize")
	}
	c.records[role] = append(c.records[role], TrainingRecord{
		EpisodeID: c.episodeID,
		Role:      role,
		State:     state,
		Action:    action,
	})
}

// Len returns the number of decisions recorded for a role so far.
func (c *EpisodeCollector) Len(role game.Role) int {
	return len(c.records[role])
}

// Finalize broadcasts each role's terminal outcome onto every record of
// that role and returns the per-role record slices. The collector cannot
// be reused afterwards.
func (c *EpisodeCollector) Finalize(outcome [game.NumRoles]float32) [game.NumRoles][]TrainingRecord {
	if c.finalized {
		panic("experience: finalize called twice")
	}
	c.finalized = true
	for _, role := range game.Roles() {
		for i := range c.records[role] {
			c.records[role][i].Target = outcome[role]
		}
	}
	return c.records
}
