package training

import (
	"sync/atomic"

	"landlord-rl/internal/game"
	"landlord-rl/internal/model"
)

// Snapshot is one immutable, versioned copy of a role's parameters, the
// unit of publication from a learner to the actors. Fields are never
// mutated after publication; a newer snapshot replaces the whole value.
type Snapshot struct {
	Role    game.Role
	Version uint64
	Frames  uint64
	Params  model.Params
}

// SnapshotStore is the publish/subscribe point between each role's
// learner and all actors. Publication is an atomic pointer swap, so a
// reader always observes a whole snapshot, never a torn one. Only the
// role's learner publishes; every actor reads.
type SnapshotStore struct {
	cells [game.NumRoles]atomic.Pointer[Snapshot]
}

// NewSnapshotStore creates an empty store. Current returns nil for a
// role until its first Publish; the pipeline publishes initial snapshots
// before starting any actor.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Publish atomically replaces the role's snapshot.
func (s *SnapshotStore) Publish(snap *Snapshot) {
	s.cells[snap.Role].Store(snap)
}

// Current returns the latest published snapshot for the role. Actors
// call this once per episode start, which pins one snapshot for the
// whole episode regardless of concurrent publishes.
func (s *SnapshotStore) Current(role game.Role) *Snapshot {
	return s.cells[role].Load()
}

// Versions reports the current snapshot version per role, for the status
// endpoint and progress logs. Unpublished roles report zero.
func (s *SnapshotStore) Versions() [game.NumRoles]uint64 {
	var v [game.NumRoles]uint64
	for _, r := range game.Roles() {
		if snap := s.Current(r); snap != nil {
			v[r] = snap.Version
		}
	}
	return v
}
