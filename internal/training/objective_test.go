package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landlord-rl/internal/game"
)

func TestWinLossObjective_LandlordWin(t *testing.T) {
	out := WinLossObjective(game.Result{Winner: game.LandlordSide, Bombs: 3})
	assert.Equal(t, [game.NumRoles]float32{1, -1, -1}, out)
}

func TestWinLossObjective_PeasantWin(t *testing.T) {
	out := WinLossObjective(game.Result{Winner: game.PeasantSide})
	assert.Equal(t, [game.NumRoles]float32{-1, 1, 1}, out)
}

func TestMarginObjective_DoublesPerBomb(t *testing.T) {
	out := MarginObjective(game.Result{Winner: game.LandlordSide, Bombs: 0})
	assert.Equal(t, [game.NumRoles]float32{1, -1, -1}, out)

	out = MarginObjective(game.Result{Winner: game.LandlordSide, Bombs: 2})
	assert.Equal(t, [game.NumRoles]float32{4, -4, -4}, out)

	out = MarginObjective(game.Result{Winner: game.PeasantSide, Bombs: 1})
	assert.Equal(t, [game.NumRoles]float32{-2, 2, 2}, out)
}

func TestMarginObjective_OppositeSigns(t *testing.T) {
	for bombs := 0; bombs < 5; bombs++ {
		for _, winner := range []game.Side{game.LandlordSide, game.PeasantSide} {
			out := MarginObjective(game.Result{Winner: winner, Bombs: bombs})
			assert.Equal(t, out[game.PeasantDown], out[game.PeasantUp])
			assert.Equal(t, -out[game.Landlord], out[game.PeasantDown])
		}
	}
}

func TestObjectiveByName(t *testing.T) {
	fn, err := ObjectiveByName(ObjectiveWinLoss)
	require.NoError(t, err)
	require.NotNil(t, fn)

	fn, err = ObjectiveByName(ObjectiveMargin)
	require.NoError(t, err)
	require.NotNil(t, fn)

	_, err = ObjectiveByName("elo")
	assert.Error(t, err)
}
