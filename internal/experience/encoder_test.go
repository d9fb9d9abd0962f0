package experience

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landlord-rl/internal/game"
	"landlord-rl/internal/testutil"
)

func TestEncodeState_Shape(t *testing.T) {
	e := game.NewEnv(testutil.NewTestRNG(1))
	f := EncodeState(e.Observe(game.Landlord))
	assert.Len(t, f, StateLen)
}

func TestEncodeState_HandPlanes(t *testing.T) {
	hands := [game.NumRoles]game.Hand{
		game.NewHand(game.Rank3, game.Rank3, game.Rank3, game.RankK),
		game.NewHand(game.Rank4),
		game.NewHand(game.Rank5),
	}
	e := game.NewEnvFromDeal(hands)
	f := EncodeState(e.Observe(game.Landlord))

	// Three 3s light the first three count planes for rank 3 and no more.
	assert.Equal(t, float32(1), f[int(game.Rank3)])
	assert.Equal(t, float32(1), f[game.NumRanks+int(game.Rank3)])
	assert.Equal(t, float32(1), f[2*game.NumRanks+int(game.Rank3)])
	assert.Equal(t, float32(0), f[3*game.NumRanks+int(game.Rank3)])

	// One king lights only the first plane.
	assert.Equal(t, float32(1), f[int(game.RankK)])
	assert.Equal(t, float32(0), f[game.NumRanks+int(game.RankK)])
}

func TestEncodeState_RoleOneHot(t *testing.T) {
	e := game.NewEnv(testutil.NewTestRNG(2))
	for _, role := range game.Roles() {
		f := EncodeState(e.Observe(role))
		for _, other := range game.Roles() {
			want := float32(0)
			if other == role {
				want = 1
			}
			assert.Equal(t, want, f[StateLen-game.NumRoles+int(other)])
		}
	}
}

func TestEncodeState_Deterministic(t *testing.T) {
	e := game.NewEnv(testutil.NewTestRNG(3))
	obs := e.Observe(game.PeasantUp)
	assert.Equal(t, EncodeState(obs), EncodeState(obs))
}

func TestEncodeAction_PassIsZero(t *testing.T) {
	f := EncodeAction(game.Pass)
	require.Len(t, f, ActionLen)
	for _, v := range f {
		assert.Equal(t, float32(0), v)
	}
}

func TestEncodeAction_PairPlanes(t *testing.T) {
	m := game.Move{Kind: game.KindPair, Rank: game.RankQ, Counts: game.NewHand(game.RankQ, game.RankQ)}
	f := EncodeAction(m)
	assert.Equal(t, float32(1), f[int(game.RankQ)])
	assert.Equal(t, float32(1), f[game.NumRanks+int(game.RankQ)])
	assert.Equal(t, float32(0), f[2*game.NumRanks+int(game.RankQ)])
}

func TestEncodeActions_PreservesOrder(t *testing.T) {
	moves := []game.Move{
		game.Pass,
		{Kind: game.KindSolo, Rank: game.Rank7, Counts: game.NewHand(game.Rank7)},
	}
	encoded := EncodeActions(moves)
	require.Len(t, encoded, 2)
	assert.Equal(t, float32(0), encoded[0][int(game.Rank7)])
	assert.Equal(t, float32(1), encoded[1][int(game.Rank7)])
}
