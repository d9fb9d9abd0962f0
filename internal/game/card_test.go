package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landlord-rl/internal/testutil"
)

func TestNewDeck_Composition(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, DeckSize)

	counts := NewHand(deck...)
	for r := Rank3; r <= Rank2; r++ {
		assert.Equal(t, int8(4), counts[r], "rank %s", r)
	}
	assert.Equal(t, int8(1), counts[RankBlackJoker])
	assert.Equal(t, int8(1), counts[RankRedJoker])
}

func TestDeal_Sizes(t *testing.T) {
	rng := testutil.NewTestRNG(1)
	hands, faceUp := Deal(rng)

	assert.Equal(t, 20, hands[Landlord].Size())
	assert.Equal(t, 17, hands[PeasantDown].Size())
	assert.Equal(t, 17, hands[PeasantUp].Size())

	// Face-up cards are already part of the landlord hand.
	var total Hand
	for _, h := range hands {
		total.Add(h)
	}
	assert.Equal(t, DeckSize, total.Size())
	for _, c := range faceUp {
		assert.GreaterOrEqual(t, hands[Landlord][c], int8(1))
	}
}

func TestDeal_Deterministic(t *testing.T) {
	a, fa := Deal(testutil.NewTestRNG(7))
	b, fb := Deal(testutil.NewTestRNG(7))
	assert.Equal(t, a, b)
	assert.Equal(t, fa, fb)
}

func TestHand_RemoveContains(t *testing.T) {
	h := NewHand(Rank3, Rank3, RankK)
	m := NewHand(Rank3, RankK)
	require.True(t, h.Contains(m))
	h.Remove(m)
	assert.Equal(t, 1, h.Size())
	assert.False(t, h.Contains(NewHand(RankK)))
}

func TestRole_Order(t *testing.T) {
	assert.Equal(t, PeasantDown, Landlord.Next())
	assert.Equal(t, PeasantUp, PeasantDown.Next())
	assert.Equal(t, Landlord, PeasantUp.Next())
	assert.False(t, Landlord.IsPeasant())
	assert.True(t, PeasantUp.IsPeasant())
}

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		got, ok := ParseRole(r.String())
		require.True(t, ok)
		assert.Equal(t, r, got)
	}
	_, ok := ParseRole("dealer")
	assert.False(t, ok)
}
