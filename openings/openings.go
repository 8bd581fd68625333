// Package openings computes which first move wins most often for White.
package openings

import (
	"errors"

	"github.com/jacokyle01/chess-insights/dataset"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	// MinTurns drops games too short to say anything about the opening.
	MinTurns = 19
	// MinShare is the fraction of games a first move needs to get a ratio.
	MinShare = 0.03
)

var (
	ErrNoGames   = errors.New("no decisive games to analyse")
	ErrNoOpening = errors.New("no first move played often enough")
)

type Stats struct {
	// Games are the games that were counted.
	Games      []dataset.Game
	FirstMoves map[string]int
	WhiteWins  map[string]int
	WinRatio   map[string]float64
	// Order lists first moves in the order they were first seen.
	Order []string
	Best  string
}

func decisive(g dataset.Game) bool {
	return g.Turns >= MinTurns && (g.VictoryStatus == "mate" || g.VictoryStatus == "resign")
}

// Analyze counts the first moves of long games that ended in mate or
// resignation and finds the move with the best White win ratio.
func Analyze(games []dataset.Game) (*Stats, error) {
	st := &Stats{
		FirstMoves: make(map[string]int),
		WhiteWins:  make(map[string]int),
		WinRatio:   make(map[string]float64),
	}
	for _, g := range games {
		if !decisive(g) || len(g.Moves) == 0 {
			continue
		}
		st.Games = append(st.Games, g)
		first := g.Moves[0]
		if _, seen := st.FirstMoves[first]; !seen {
			st.Order = append(st.Order, first)
		}
		st.FirstMoves[first]++
		if g.Winner == "white" {
			st.WhiteWins[first]++
		}
	}
	if len(st.Games) == 0 {
		return nil, ErrNoGames
	}

	threshold := float64(len(st.Games)) * MinShare
	best := -1.0
	for _, move := range st.Order {
		freq := st.FirstMoves[move]
		if float64(freq) < threshold {
			continue
		}
		ratio := float64(st.WhiteWins[move]) / float64(freq)
		st.WinRatio[move] = ratio
		if ratio > best || (ratio == best && move < st.Best) {
			best = ratio
			st.Best = move
		}
	}
	if st.Best == "" {
		return nil, ErrNoOpening
	}
	return st, nil
}

// Frequent returns the first moves that received a win ratio, sorted.
func (s *Stats) Frequent() []string {
	out := maps.Keys(s.WinRatio)
	slices.Sort(out)
	return out
}

// Counted is the number of games that contributed to the statistics.
func (s *Stats) Counted() int { return len(s.Games) }
