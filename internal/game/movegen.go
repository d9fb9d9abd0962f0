package game

// Legal-move enumeration. LegalMoves is the single entry point: given a
// hand and the move currently holding the trick (Pass when leading), it
// returns the exhaustive, duplicate-free set of legal plays.
//
// Kickers attached to trios, airplanes and fours are enumerated as
// distinct ranks, which keeps the set finite and duplicate-free without
// changing which principal ranks are playable.

const (
	minChainLen     = 5
	maxChainLen     = 12
	minPairChainLen = 3
	maxPairChainLen = 10
	minAirplaneLen  = 2
	maxAirplaneLen  = 6
)

// LegalMoves enumerates every legal play for hand over prev. When prev is
// Pass the player leads and may play any category but not pass; otherwise
// pass is always available alongside every move that beats prev.
func LegalMoves(hand Hand, prev Move) []Move {
	if prev.IsPass() {
		return leadMoves(hand)
	}
	return followMoves(hand, prev)
}

func leadMoves(hand Hand) []Move {
	out := make([]Move, 0, 32)
	out = genSolos(out, hand, -1)
	out = genPairs(out, hand, -1)
	out = genTrios(out, hand, -1)
	out = genTrioKickers(out, hand, -1, false)
	out = genTrioKickers(out, hand, -1, true)
	for n := int8(minChainLen); n <= maxChainLen; n++ {
		out = genChains(out, hand, KindChain, n, -1)
	}
	for n := int8(minPairChainLen); n <= maxPairChainLen; n++ {
		out = genChains(out, hand, KindPairChain, n, -1)
	}
	for n := int8(minAirplaneLen); n <= maxAirplaneLen; n++ {
		out = genAirplanes(out, hand, n, -1, KindAirplane)
		out = genAirplanes(out, hand, n, -1, KindAirplaneSolo)
		out = genAirplanes(out, hand, n, -1, KindAirplanePair)
	}
	out = genFourTwo(out, hand, -1, false)
	out = genFourTwo(out, hand, -1, true)
	out = genBombs(out, hand, -1)
	out = genRocket(out, hand)
	return out
}

func followMoves(hand Hand, prev Move) []Move {
	out := make([]Move, 0, 8)
	out = append(out, Pass)

	switch prev.Kind {
	case KindSolo:
		out = genSolos(out, hand, prev.Rank)
	case KindPair:
		out = genPairs(out, hand, prev.Rank)
	case KindTrio:
		out = genTrios(out, hand, prev.Rank)
	case KindTrioSolo:
		out = genTrioKickers(out, hand, prev.Rank, false)
	case KindTrioPair:
		out = genTrioKickers(out, hand, prev.Rank, true)
	case KindChain:
		out = genChains(out, hand, KindChain, prev.ChainN, prev.Rank)
	case KindPairChain:
		out = genChains(out, hand, KindPairChain, prev.ChainN, prev.Rank)
	case KindAirplane, KindAirplaneSolo, KindAirplanePair:
		out = genAirplanes(out, hand, prev.ChainN, prev.Rank, prev.Kind)
	case KindFourTwoSolo:
		out = genFourTwo(out, hand, prev.Rank, false)
	case KindFourTwoPair:
		out = genFourTwo(out, hand, prev.Rank, true)
	case KindBomb:
		out = genBombs(out, hand, prev.Rank)
		out = genRocket(out, hand)
		return out
	case KindRocket:
		return out
	}

	// Bombs and the rocket beat any non-bomb category.
	out = genBombs(out, hand, -1)
	out = genRocket(out, hand)
	return out
}

func genSolos(out []Move, hand Hand, above Card) []Move {
	for r := above + 1; r < NumRanks; r++ {
		if hand[r] >= 1 {
			out = append(out, Move{Kind: KindSolo, Rank: r, Counts: NewHand(r)})
		}
	}
	return out
}

func genPairs(out []Move, hand Hand, above Card) []Move {
	for r := above + 1; r <= Rank2; r++ {
		if hand[r] >= 2 {
			var c Hand
			c[r] = 2
			out = append(out, Move{Kind: KindPair, Rank: r, Counts: c})
		}
	}
	return out
}

func genTrios(out []Move, hand Hand, above Card) []Move {
	for r := above + 1; r <= Rank2; r++ {
		if hand[r] >= 3 {
			var c Hand
			c[r] = 3
			out = append(out, Move{Kind: KindTrio, Rank: r, Counts: c})
		}
	}
	return out
}

func genTrioKickers(out []Move, hand Hand, above Card, pairKicker bool) []Move {
	kind := KindTrioSolo
	need := int8(1)
	if pairKicker {
		kind = KindTrioPair
		need = 2
	}
	for r := above + 1; r <= Rank2; r++ {
		if hand[r] < 3 {
			continue
		}
		for k := Card(0); k < NumRanks; k++ {
			if k == r || hand[k] < need {
				continue
			}
			if pairKicker && k > Rank2 {
				continue // no joker pairs
			}
			var c Hand
			c[r] = 3
			c[k] = need
			out = append(out, Move{Kind: kind, Rank: r, Counts: c})
		}
	}
	return out
}

// genChains emits solo chains (need=1) or pair chains (need=2) of exactly
// length groups, with top rank above the given floor.
func genChains(out []Move, hand Hand, kind MoveKind, length int8, above Card) []Move {
	need := int8(1)
	if kind == KindPairChain {
		need = 2
	}
	for top := max8(above+1, Card(length-1)); top <= MaxChainRank; top++ {
		ok := true
		var c Hand
		for r := top - Card(length) + 1; r <= top; r++ {
			if hand[r] < need {
				ok = false
				break
			}
			c[r] = need
		}
		if ok {
			out = append(out, Move{Kind: kind, Rank: top, ChainN: length, Counts: c})
		}
	}
	return out
}

func genAirplanes(out []Move, hand Hand, length int8, above Card, kind MoveKind) []Move {
	if kind == KindAirplaneSolo && length > 5 {
		return out // 4n cards exceed a 20-card hand past 5 trios
	}
	if kind == KindAirplanePair && length > 4 {
		return out
	}
	for top := max8(above+1, Card(length-1)); top <= MaxChainRank; top++ {
		ok := true
		var body Hand
		for r := top - Card(length) + 1; r <= top; r++ {
			if hand[r] < 3 {
				ok = false
				break
			}
			body[r] = 3
		}
		if !ok {
			continue
		}
		switch kind {
		case KindAirplane:
			out = append(out, Move{Kind: kind, Rank: top, ChainN: length, Counts: body})
		case KindAirplaneSolo:
			out = appendWithKickers(out, hand, body, kind, top, length, int(length), 1)
		case KindAirplanePair:
			out = appendWithKickers(out, hand, body, kind, top, length, int(length), 2)
		}
	}
	return out
}

func genFourTwo(out []Move, hand Hand, above Card, pairKickers bool) []Move {
	kind := KindFourTwoSolo
	need := int8(1)
	if pairKickers {
		kind = KindFourTwoPair
		need = 2
	}
	for r := above + 1; r <= Rank2; r++ {
		if hand[r] != 4 {
			continue
		}
		var body Hand
		body[r] = 4
		out = appendWithKickers(out, hand, body, kind, r, 0, 2, need)
	}
	return out
}

// appendWithKickers attaches every combination of k distinct kicker ranks
// (each contributing need cards) to body and appends the resulting moves.
func appendWithKickers(out []Move, hand, body Hand, kind MoveKind, rank Card, chainN int8, k int, need int8) []Move {
	var candidates []Card
	for r := Card(0); r < NumRanks; r++ {
		if body[r] > 0 || hand[r] < need {
			continue
		}
		if need == 2 && r > Rank2 {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) < k {
		return out
	}
	picked := make([]Card, 0, k)
	var rec func(start int)
	rec = func(start int) {
		if len(picked) == k {
			c := body
			for _, kr := range picked {
				c[kr] = need
			}
			out = append(out, Move{Kind: kind, Rank: rank, ChainN: chainN, Counts: c})
			return
		}
		for i := start; i <= len(candidates)-(k-len(picked)); i++ {
			picked = append(picked, candidates[i])
			rec(i + 1)
			picked = picked[:len(picked)-1]
		}
	}
	rec(0)
	return out
}

func genBombs(out []Move, hand Hand, above Card) []Move {
	for r := above + 1; r <= Rank2; r++ {
		if hand[r] == 4 {
			var c Hand
			c[r] = 4
			out = append(out, Move{Kind: KindBomb, Rank: r, Counts: c})
		}
	}
	return out
}

func genRocket(out []Move, hand Hand) []Move {
	if hand[RankBlackJoker] >= 1 && hand[RankRedJoker] >= 1 {
		var c Hand
		c[RankBlackJoker] = 1
		c[RankRedJoker] = 1
		out = append(out, Move{Kind: KindRocket, Rank: RankRedJoker, Counts: c})
	}
	return out
}

func max8(a, b Card) Card {
	if a > b {
		return a
	}
	return b
}
