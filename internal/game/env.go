package game

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrIllegalMove indicates the caller tried to play cards it does not
	// hold or that do not beat the trick. This is a contract violation
	// between the move generator and the caller, never a runtime condition.
	ErrIllegalMove = errors.New("illegal move")
	// ErrGameOver is returned by Step after the game has ended.
	ErrGameOver = errors.New("game is over")
)

// Side is the winning faction of a finished game.
type Side uint8

const (
	LandlordSide Side = iota
	PeasantSide
)

func (s Side) String() string {
	if s == LandlordSide {
		return "landlord"
	}
	return "peasants"
}

// Result is the terminal outcome of one episode: who won and how many
// bombs (rocket included) were played, which scales the margin objective.
type Result struct {
	Winner Side
	Bombs  int
}

// Observation is everything one seat may condition its decision on: its
// own hand, the union of cards it cannot see, the move holding the trick,
// and the public play history.
type Observation struct {
	Role      Role
	Hand      Hand
	Unseen    Hand // cards still held by the other two seats
	Trick     Move // Pass when leading
	Played    [NumRoles]Hand
	HandSizes [NumRoles]int
	Bombs     int
}

// Env is one game from deal to terminal outcome. It is not safe for
// concurrent use; each actor owns its environments outright.
type Env struct {
	hands     [NumRoles]Hand
	faceUp    [3]Card
	played    [NumRoles]Hand
	turn      Role
	trick     Move // last non-pass move; Pass when the trick is open
	trickOwn  Role // seat that played trick
	bombs     int
	done      bool
	result    Result
	moveCount int
}

// NewEnv deals a fresh game using rng. The landlord leads.
func NewEnv(rng *rand.Rand) *Env {
	e := &Env{turn: Landlord, trick: Pass}
	e.hands, e.faceUp = Deal(rng)
	return e
}

// NewEnvFromDeal builds a game from fixed hands, for tests and replays.
func NewEnvFromDeal(hands [NumRoles]Hand) *Env {
	return &Env{hands: hands, turn: Landlord, trick: Pass}
}

// Turn returns the seat to act.
func (e *Env) Turn() Role { return e.turn }

// Done reports whether the game has ended.
func (e *Env) Done() bool { return e.done }

// Result returns the terminal outcome. Valid only once Done.
func (e *Env) Result() Result { return e.result }

// MoveCount returns the number of moves played so far, passes included.
func (e *Env) MoveCount() int { return e.moveCount }

// FaceUp returns the three public landlord cards.
func (e *Env) FaceUp() [3]Card { return e.faceUp }

// leading reports whether the acting seat opens a fresh trick: either
// nothing has been played yet, or both other seats passed on its move.
func (e *Env) leading() bool {
	return e.trick.IsPass() || e.trickOwn == e.turn
}

// LegalMoves enumerates the legal plays for the acting seat.
func (e *Env) LegalMoves() []Move {
	if e.done {
		return nil
	}
	if e.leading() {
		return LegalMoves(e.hands[e.turn], Pass)
	}
	return LegalMoves(e.hands[e.turn], e.trick)
}

// Step applies one move for the acting seat and advances the turn. done
// and the terminal outcome are populated only when the move empties the
// actor's hand.
func (e *Env) Step(m Move) (done bool, result Result, err error) {
	if e.done {
		return false, Result{}, ErrGameOver
	}
	seat := e.turn
	lead := e.leading()

	if m.IsPass() {
		if lead {
			return false, Result{}, fmt.Errorf("%w: %s cannot pass on an open trick", ErrIllegalMove, seat)
		}
	} else {
		if !e.hands[seat].Contains(m.Counts) {
			return false, Result{}, fmt.Errorf("%w: %s does not hold %s", ErrIllegalMove, seat, m)
		}
		if !lead && !m.Beats(e.trick) {
			return false, Result{}, fmt.Errorf("%w: %s does not beat %s", ErrIllegalMove, m, e.trick)
		}
		e.hands[seat].Remove(m.Counts)
		e.played[seat].Add(m.Counts)
		e.trick = m
		e.trickOwn = seat
		if m.Kind == KindBomb || m.Kind == KindRocket {
			e.bombs++
		}
	}
	e.moveCount++

	if e.hands[seat].Size() == 0 {
		e.done = true
		side := PeasantSide
		if seat == Landlord {
			side = LandlordSide
		}
		e.result = Result{Winner: side, Bombs: e.bombs}
		return true, e.result, nil
	}

	e.turn = seat.Next()
	return false, Result{}, nil
}

// Observe builds the decision-time view for a seat.
func (e *Env) Observe(seat Role) Observation {
	obs := Observation{
		Role:   seat,
		Hand:   e.hands[seat],
		Played: e.played,
		Bombs:  e.bombs,
	}
	if !e.leading() || seat != e.turn {
		obs.Trick = e.trick
	} else {
		obs.Trick = Pass
	}
	for _, r := range Roles() {
		obs.HandSizes[r] = e.hands[r].Size()
		if r != seat {
			obs.Unseen.Add(e.hands[r])
		}
	}
	return obs
}
