package game

import "strings"

// MoveKind is the combination category of a move. Two moves can only be
// compared rank-against-rank when they share a kind and shape, except that
// bombs beat every non-bomb and the rocket beats everything.
type MoveKind uint8

const (
	KindPass MoveKind = iota
	KindSolo
	KindPair
	KindTrio
	KindTrioSolo
	KindTrioPair
	KindChain
	KindPairChain
	KindAirplane
	KindAirplaneSolo
	KindAirplanePair
	KindFourTwoSolo
	KindFourTwoPair
	KindBomb
	KindRocket

	NumMoveKinds = 15
)

var kindNames = [NumMoveKinds]string{
	"pass", "solo", "pair", "trio", "trio+solo", "trio+pair",
	"chain", "pair-chain", "airplane", "airplane+solos", "airplane+pairs",
	"four+two-solos", "four+two-pairs", "bomb", "rocket",
}

func (k MoveKind) String() string {
	if k >= NumMoveKinds {
		return "unknown"
	}
	return kindNames[k]
}

// Move is one play: its category, the principal rank the category is
// compared on, the chain length in groups (chains, pair chains and
// airplanes; zero elsewhere) and the full multiset of cards put down.
// Kickers contribute to Counts but never to comparison.
type Move struct {
	Kind   MoveKind
	Rank   Card
	ChainN int8
	Counts Hand
}

// Pass is the empty move.
var Pass = Move{Kind: KindPass, Rank: -1}

// IsPass reports whether the move plays no cards.
func (m Move) IsPass() bool {
	return m.Kind == KindPass
}

// Size returns the number of cards the move puts down.
func (m Move) Size() int {
	return m.Counts.Size()
}

// Beats reports whether m can legally be played over prev, where prev is
// the move currently holding the trick. Pass never beats anything.
func (m Move) Beats(prev Move) bool {
	switch m.Kind {
	case KindPass:
		return false
	case KindRocket:
		return true
	case KindBomb:
		if prev.Kind == KindRocket {
			return false
		}
		if prev.Kind == KindBomb {
			return m.Rank > prev.Rank
		}
		return true
	}
	if prev.Kind == KindBomb || prev.Kind == KindRocket {
		return false
	}
	return m.Kind == prev.Kind && m.ChainN == prev.ChainN && m.Rank > prev.Rank
}

func (m Move) String() string {
	if m.IsPass() {
		return "pass"
	}
	var sb strings.Builder
	sb.WriteString(m.Kind.String())
	sb.WriteByte(' ')
	sb.WriteString(m.Counts.String())
	return sb.String()
}
