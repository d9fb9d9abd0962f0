package training

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"landlord-rl/internal/experience"
	"landlord-rl/internal/game"
	"landlord-rl/internal/model"
)

// ErrCheckpointMismatch is returned when a checkpoint does not match the
// current configuration. The caller must treat it as fatal at startup;
// nothing is ever partially restored.
var ErrCheckpointMismatch = errors.New("checkpoint does not match current configuration")

// RoleCheckpoint is one role's durable training state.
type RoleCheckpoint struct {
	Role      string
	Params    model.Params
	Optimizer model.OptimizerState
	Frames    uint64
	Version   uint64
}

// Checkpoint is one durable snapshot of the whole training run: all
// three roles' parameters, optimizer state and frame counters, plus the
// metadata needed to refuse restoring into an incompatible setup.
type Checkpoint struct {
	SavedAt         time.Time
	EncodingVersion int
	Objective       string
	Roles           []RoleCheckpoint
}

// SaveCheckpoint writes cp to path atomically: the gob is written to a
// temp file in the same directory and renamed over the target, so a
// crash mid-write never corrupts the previous checkpoint.
func SaveCheckpoint(path string, cp *Checkpoint) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("checkpoint: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(cp); err != nil {
		tmp.Close()
		return fmt.Errorf("checkpoint: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("checkpoint: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("checkpoint: rename: %w", err)
	}
	return nil
}

// LoadCheckpoint reads and validates a checkpoint file. It checks the
// feature-encoding version, the objective and the role set before
// anything is handed to a model, so a mismatch restores nothing.
func LoadCheckpoint(path, objective string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cp Checkpoint
	if err := gob.NewDecoder(f).Decode(&cp); err != nil {
		return nil, fmt.Errorf("checkpoint: decode %s: %w", path, err)
	}

	if cp.EncodingVersion != experience.EncodingVersion {
		return nil, fmt.Errorf("%w: feature encoding v%d, running v%d",
			ErrCheckpointMismatch, cp.EncodingVersion, experience.EncodingVersion)
	}
	if cp.Objective != objective {
		return nil, fmt.Errorf("%w: objective %q, running %q",
			ErrCheckpointMismatch, cp.Objective, objective)
	}
	if len(cp.Roles) != game.NumRoles {
		return nil, fmt.Errorf("%w: %d roles, want %d",
			ErrCheckpointMismatch, len(cp.Roles), game.NumRoles)
	}
	seen := make(map[game.Role]bool, game.NumRoles)
	for _, rc := range cp.Roles {
		role, ok := game.ParseRole(rc.Role)
		if !ok || seen[role] {
			return nil, fmt.Errorf("%w: bad role entry %q", ErrCheckpointMismatch, rc.Role)
		}
		seen[role] = true
	}
	return &cp, nil
}

// RoleState returns the entry for one role. Valid after LoadCheckpoint.
func (cp *Checkpoint) RoleState(role game.Role) RoleCheckpoint {
	for _, rc := range cp.Roles {
		if rc.Role == role.String() {
			return rc
		}
	}
	return RoleCheckpoint{}
}
