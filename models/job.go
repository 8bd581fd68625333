package models

import (
	"time"

	"github.com/jacokyle01/chess-insights/analysis"
)

// Job is one recorded game waiting for piece-value analysis. Moves are in
// SAN from the standard starting position unless FEN is set.
type Job struct {
	ID       string   `json:"id"`
	BatchID  string   `json:"batch_id,omitempty"`
	FEN      string   `json:"fen,omitempty"`
	Moves    []string `json:"moves"`
	Depth    int      `json:"depth"`
	TimeMS   int      `json:"time_ms"`
	Priority int      `json:"priority"`
}

func (j Job) Game() analysis.Game {
	return analysis.Game{ID: j.ID, StartFEN: j.FEN, Moves: j.Moves}
}

func (j Job) Limit() analysis.Limit {
	return analysis.Limit{Depth: j.Depth, MoveTime: time.Duration(j.TimeMS) * time.Millisecond}
}
