package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landlord-rl/internal/testutil"
)

// playRandom drives a game to termination with uniformly random legal
// moves and returns the final result.
func playRandom(t *testing.T, e *Env, seed int64) Result {
	t.Helper()
	rng := testutil.NewTestRNG(seed)
	for !e.Done() {
		moves := e.LegalMoves()
		require.NotEmpty(t, moves, "acting seat must always have a move")
		_, _, err := e.Step(moves[rng.Intn(len(moves))])
		require.NoError(t, err)
	}
	return e.Result()
}

func TestEnv_RandomPlayoutTerminates(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		e := NewEnv(testutil.NewTestRNG(seed))
		res := playRandom(t, e, seed+100)
		assert.True(t, res.Winner == LandlordSide || res.Winner == PeasantSide)
		assert.LessOrEqual(t, e.MoveCount(), 200)
	}
}

func TestEnv_LandlordLeadsFirst(t *testing.T) {
	e := NewEnv(testutil.NewTestRNG(3))
	assert.Equal(t, Landlord, e.Turn())
	for _, m := range e.LegalMoves() {
		assert.False(t, m.IsPass(), "leader may not pass")
	}
}

func TestEnv_TrickRotation(t *testing.T) {
	hands := [NumRoles]Hand{
		NewHand(Rank3, RankK),
		NewHand(Rank4, Rank5),
		NewHand(Rank6, Rank7),
	}
	e := NewEnvFromDeal(hands)

	// Landlord leads a 3, both peasants pass; the trick returns to the
	// landlord, who must lead again rather than pass.
	_, _, err := e.Step(Move{Kind: KindSolo, Rank: Rank3, Counts: NewHand(Rank3)})
	require.NoError(t, err)
	_, _, err = e.Step(Pass)
	require.NoError(t, err)
	_, _, err = e.Step(Pass)
	require.NoError(t, err)

	assert.Equal(t, Landlord, e.Turn())
	_, _, err = e.Step(Pass)
	assert.ErrorIs(t, err, ErrIllegalMove)
}

func TestEnv_StepRejectsUnheldCards(t *testing.T) {
	hands := [NumRoles]Hand{
		NewHand(Rank3),
		NewHand(Rank4),
		NewHand(Rank5),
	}
	e := NewEnvFromDeal(hands)
	_, _, err := e.Step(Move{Kind: KindSolo, Rank: RankA, Counts: NewHand(RankA)})
	assert.ErrorIs(t, err, ErrIllegalMove)
}

func TestEnv_StepRejectsWeakerFollow(t *testing.T) {
	hands := [NumRoles]Hand{
		NewHand(RankK, Rank3),
		NewHand(Rank4, Rank5),
		NewHand(Rank6, Rank7),
	}
	e := NewEnvFromDeal(hands)
	_, _, err := e.Step(Move{Kind: KindSolo, Rank: RankK, Counts: NewHand(RankK)})
	require.NoError(t, err)

	// 4 does not beat K.
	_, _, err = e.Step(Move{Kind: KindSolo, Rank: Rank4, Counts: NewHand(Rank4)})
	assert.ErrorIs(t, err, ErrIllegalMove)
}

func TestEnv_TerminalOutcome(t *testing.T) {
	hands := [NumRoles]Hand{
		NewHand(Rank3),
		NewHand(Rank4, Rank4),
		NewHand(Rank5, Rank5),
	}
	e := NewEnvFromDeal(hands)

	done, res, err := e.Step(Move{Kind: KindSolo, Rank: Rank3, Counts: NewHand(Rank3)})
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, LandlordSide, res.Winner)
	assert.True(t, e.Done())

	_, _, err = e.Step(Pass)
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestEnv_PeasantWinBelongsToBothPeasants(t *testing.T) {
	hands := [NumRoles]Hand{
		NewHand(Rank3, Rank3),
		NewHand(RankA),
		NewHand(Rank5, Rank5),
	}
	e := NewEnvFromDeal(hands)

	_, _, err := e.Step(Move{Kind: KindSolo, Rank: Rank3, Counts: NewHand(Rank3)})
	require.NoError(t, err)
	done, res, err := e.Step(Move{Kind: KindSolo, Rank: RankA, Counts: NewHand(RankA)})
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, PeasantSide, res.Winner)
}

func TestEnv_BombCounting(t *testing.T) {
	hands := [NumRoles]Hand{
		NewHand(Rank9, Rank9, Rank9, Rank9, Rank3),
		NewHand(RankBlackJoker, RankRedJoker, Rank4),
		NewHand(Rank5, Rank5),
	}
	e := NewEnvFromDeal(hands)

	_, _, err := e.Step(Move{Kind: KindBomb, Rank: Rank9, Counts: NewHand(Rank9, Rank9, Rank9, Rank9)})
	require.NoError(t, err)
	_, _, err = e.Step(Move{Kind: KindRocket, Rank: RankRedJoker, Counts: NewHand(RankBlackJoker, RankRedJoker)})
	require.NoError(t, err)
	_, _, err = e.Step(Pass)
	require.NoError(t, err)
	_, _, err = e.Step(Pass)
	require.NoError(t, err)

	done, res, err := e.Step(Move{Kind: KindSolo, Rank: Rank4, Counts: NewHand(Rank4)})
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, 2, res.Bombs)
	assert.Equal(t, PeasantSide, res.Winner)
}

func TestEnv_ObserveUnseen(t *testing.T) {
	e := NewEnv(testutil.NewTestRNG(11))
	obs := e.Observe(Landlord)

	assert.Equal(t, Landlord, obs.Role)
	assert.Equal(t, 20, obs.Hand.Size())
	assert.Equal(t, 34, obs.Unseen.Size())
	assert.Equal(t, [NumRoles]int{20, 17, 17}, obs.HandSizes)
	assert.True(t, obs.Trick.IsPass())

	var all Hand
	all.Add(obs.Hand)
	all.Add(obs.Unseen)
	assert.Equal(t, DeckSize, all.Size())
}
