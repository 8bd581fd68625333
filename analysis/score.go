package analysis

import (
	"fmt"
	"time"

	"github.com/notnil/chess"
)

// MateOffset is the magnitude a mate-in-0 score converts to. It is larger
// than any centipawn score an engine reports in practice.
const MateOffset = 5000

// Kind tags the representation an engine used for a score.
type Kind int

const (
	Centipawn Kind = iota + 1
	Mate
)

func (k Kind) String() string {
	switch k {
	case Centipawn:
		return "cp"
	case Mate:
		return "mate"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Evaluation is an engine score relative to the side to move. For Mate the
// value is the signed distance to mate: positive when the side to move
// mates, negative when it is being mated. Mate 0 means the side to move is
// already checkmated.
type Evaluation struct {
	Kind  Kind
	Value int
}

// Cp returns a centipawn evaluation.
func Cp(v int) Evaluation { return Evaluation{Kind: Centipawn, Value: v} }

// MateIn returns a mate-distance evaluation.
func MateIn(n int) Evaluation { return Evaluation{Kind: Mate, Value: n} }

// Mated is the evaluation of a checkmated side to move.
func Mated() Evaluation { return MateIn(0) }

func (e Evaluation) String() string {
	return fmt.Sprintf("%s(%+d)", e.Kind, e.Value)
}

// Report is the structured answer of an evaluation engine for one position.
type Report struct {
	Score    Evaluation
	POV      chess.Color // side the score is relative to
	Depth    int
	Nodes    int64
	BestMove string
}

// Limit bounds a single analysis request. A zero field is not sent.
type Limit struct {
	MoveTime time.Duration
	Depth    int
}

// ParseError reports an evaluation that cannot be turned into a score.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed evaluation %q: %s", e.Input, e.Reason)
}

// Normalize converts ev, reported relative to pov, to a single signed scale
// from White's point of view. Mate in n maps to MateOffset-n for the mating
// side, so every mate outranks every centipawn score and nearer mates are
// more extreme. A checkmated side to move gets -MateOffset.
func Normalize(ev Evaluation, pov chess.Color) (int, error) {
	var score int
	switch ev.Kind {
	case Centipawn:
		score = ev.Value
	case Mate:
		if ev.Value <= 0 {
			score = -(MateOffset + ev.Value)
		} else {
			score = MateOffset - ev.Value
		}
	default:
		return 0, &ParseError{Input: ev.String(), Reason: "unexpected score tag"}
	}

	switch pov {
	case chess.White:
		return score, nil
	case chess.Black:
		return -score, nil
	default:
		return 0, &ParseError{Input: ev.String(), Reason: "score is not relative to a side"}
	}
}
