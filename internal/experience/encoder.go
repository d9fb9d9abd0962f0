package experience

import (
	"landlord-rl/internal/game"
)

// Feature layout version. Bump whenever the encoding below changes shape
// or meaning; checkpoints carry it and refuse to restore across versions.
const EncodingVersion = 1

// Count planes are one-hot over "at least n copies of rank r", n in 1..4,
// matching how hands are compared in play.
const countPlanes = 4

const (
	planeLen = countPlanes * game.NumRanks // 60

	// State layout, in order: own hand, unseen cards, trick, played cards
	// per seat, hand sizes per seat, bomb count, role one-hot.
	stateHandOff   = 0
	stateUnseenOff = stateHandOff + planeLen
	stateTrickOff  = stateUnseenOff + planeLen
	statePlayedOff = stateTrickOff + planeLen
	stateSizesOff  = statePlayedOff + game.NumRoles*planeLen
	stateBombsOff  = stateSizesOff + game.NumRoles
	stateRoleOff   = stateBombsOff + 1

	// StateLen is the fixed length of every encoded observation.
	StateLen = stateRoleOff + game.NumRoles

	// ActionLen is the fixed length of every encoded action.
	ActionLen = planeLen
)

const (
	maxHandSize = 20.0
	maxBombs    = 14.0 // 13 bombs plus the rocket
)

// encodeCounts writes the four count planes for h into dst.
func encodeCounts(dst []float32, h game.Hand) {
	for r := 0; r < game.NumRanks; r++ {
		c := int(h[r])
		for n := 0; n < countPlanes && n < c; n++ {
			dst[n*game.NumRanks+r] = 1
		}
	}
}

// EncodeState flattens an observation into a fixed-shape feature vector.
func EncodeState(obs game.Observation) []float32 {
	f := make([]float32, StateLen)
	encodeCounts(f[stateHandOff:stateUnseenOff], obs.Hand)
	encodeCounts(f[stateUnseenOff:stateTrickOff], obs.Unseen)
	if !obs.Trick.IsPass() {
		encodeCounts(f[stateTrickOff:statePlayedOff], obs.Trick.Counts)
	}
	for _, r := range game.Roles() {
		off := statePlayedOff + int(r)*planeLen
		encodeCounts(f[off:off+planeLen], obs.Played[r])
		f[stateSizesOff+int(r)] = float32(obs.HandSizes[r]) / maxHandSize
	}
	f[stateBombsOff] = float32(obs.Bombs) / maxBombs
	f[stateRoleOff+int(obs.Role)] = 1
	return f
}

// EncodeAction flattens a move into a fixed-shape feature vector. Pass
// encodes as all zeros.
func EncodeAction(m game.Move) []float32 {
	f := make([]float32, ActionLen)
	if !m.IsPass() {
		encodeCounts(f, m.Counts)
	}
	return f
}

// EncodeActions encodes a legal-action set in one pass, preserving order.
func EncodeActions(moves []game.Move) [][]float32 {
	out := make([][]float32, len(moves))
	for i, m := range moves {
		out[i] = EncodeAction(m)
	}
	return out
}
