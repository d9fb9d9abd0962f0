package game

import (
	"math/rand"
	"strings"
)

// Card is a rank index. Suits never matter in this game, so a card is
// fully identified by its rank bucket.
type Card int8

// Rank indices, weakest to strongest. Twos are above aces and below the
// jokers, and neither twos nor jokers can appear in chains.
const (
	Rank3 Card = iota
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	Rank9
	Rank10
	RankJ
	RankQ
	RankK
	RankA
	Rank2
	RankBlackJoker
	RankRedJoker

	NumRanks = 15

	// MaxChainRank is the highest rank allowed inside a chain (the ace).
	MaxChainRank = RankA
)

// DeckSize is the full deck: four of each normal rank plus two jokers.
const DeckSize = 54

var rankNames = [NumRanks]string{
	"3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "2", "bj", "RJ",
}

func (c Card) String() string {
	if c < 0 || c >= NumRanks {
		return "?"
	}
	return rankNames[c]
}

// Hand is a rank-count vector. It doubles as the representation of any
// multiset of cards (a hand, a move's cards, the pile of played cards).
type Hand [NumRanks]int8

// NewHand builds a hand from individual cards.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h[c]++
	}
	return h
}

// Size returns the total number of cards in the hand.
func (h Hand) Size() int {
	n := 0
	for _, c := range h {
		n += int(c)
	}
	return n
}

// Contains reports whether every card of m is present in h.
func (h Hand) Contains(m Hand) bool {
	for r, c := range m {
		if h[r] < c {
			return false
		}
	}
	return true
}

// Remove subtracts m from h. The caller must have checked Contains first.
func (h *Hand) Remove(m Hand) {
	for r, c := range m {
		h[r] -= c
	}
}

// Add merges m into h.
func (h *Hand) Add(m Hand) {
	for r, c := range m {
		h[r] += c
	}
}

func (h Hand) String() string {
	var sb strings.Builder
	for r := Card(0); r < NumRanks; r++ {
		for i := int8(0); i < h[r]; i++ {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(r.String())
		}
	}
	if sb.Len() == 0 {
		return "(empty)"
	}
	return sb.String()
}

// NewDeck returns the 54 cards of a full deck in rank order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for r := Rank3; r <= Rank2; r++ {
		deck = append(deck, r, r, r, r)
	}
	deck = append(deck, RankBlackJoker, RankRedJoker)
	return deck
}

// Deal shuffles a deck with rng and splits it into the three seat hands
// plus the three face-up cards that go to the landlord. The landlord's
// returned hand already includes the face-up cards (20 cards total, the
// peasants hold 17 each).
func Deal(rng *rand.Rand) (hands [3]Hand, faceUp [3]Card) {
	deck := NewDeck()
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	for i := 0; i < 17; i++ {
		hands[Landlord][deck[i]]++
		hands[PeasantDown][deck[17+i]]++
		hands[PeasantUp][deck[34+i]]++
	}
	for i := 0; i < 3; i++ {
		faceUp[i] = deck[51+i]
		hands[Landlord][faceUp[i]]++
	}
	return hands, faceUp
}
