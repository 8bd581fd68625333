package models

import "github.com/jacokyle01/chess-insights/analysis"

// Result is the partial piece totals of one analysed game
type Result struct {
	JobID       string          `json:"job_id"`
	Pieces      analysis.Totals `json:"pieces"`
	Plies       int             `json:"plies"`
	Evaluations int             `json:"evaluations"`
	Skipped     bool            `json:"skipped,omitempty"` // game stopped at an illegal move
	Worker      string          `json:"worker,omitempty"`
	Error       string          `json:"error,omitempty"`
}
