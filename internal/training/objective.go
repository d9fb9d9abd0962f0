package training

import (
	"fmt"
	"math"

	"landlord-rl/internal/game"
)

// ObjectiveFunc maps a terminal game result to the per-role training
// target. The rest of the pipeline is objective-agnostic: the actor
// broadcasts whatever values come back onto the episode's records.
type ObjectiveFunc func(game.Result) [game.NumRoles]float32

// Objective names accepted by the configuration.
const (
	ObjectiveWinLoss = "winloss"
	ObjectiveMargin  = "margin"
)

// WinLossObjective scores the winning side +1 and the losing side -1.
func WinLossObjective(res game.Result) [game.NumRoles]float32 {
	landlord := float32(-1)
	if res.Winner == game.LandlordSide {
		landlord = 1
	}
	return [game.NumRoles]float32{landlord, -landlord, -landlord}
}

// MarginObjective scores a base stake of 1 doubled once per bomb played,
// signed by side: the landlord and the peasants always receive opposite
// signs of the same margin.
func MarginObjective(res game.Result) [game.NumRoles]float32 {
	margin := float32(math.Pow(2, float64(res.Bombs)))
	landlord := -margin
	if res.Winner == game.LandlordSide {
		landlord = margin
	}
	return [game.NumRoles]float32{landlord, -landlord, -landlord}
}

// ObjectiveByName resolves a configured objective selector.
func ObjectiveByName(name string) (ObjectiveFunc, error) {
	switch name {
	case ObjectiveWinLoss:
		return WinLossObjective, nil
	case ObjectiveMargin:
		return MarginObjective, nil
	default:
		return nil, fmt.Errorf("training: unknown objective %q (want %q or %q)",
			name, ObjectiveWinLoss, ObjectiveMargin)
	}
}
