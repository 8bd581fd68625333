package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jacokyle01/chess-insights/analysis"
)

func TestJobGame(t *testing.T) {
	job := Job{ID: "j1", FEN: "8/8/8/8/8/8/8/K6k w - - 0 1", Moves: []string{"Kb1"}, Depth: 8, TimeMS: 250}
	g := job.Game()
	if g.ID != "j1" || g.StartFEN != job.FEN || len(g.Moves) != 1 {
		t.Errorf("game = %+v", g)
	}
	if l := job.Limit(); l.Depth != 8 || l.MoveTime != 250*time.Millisecond {
		t.Errorf("limit = %+v", l)
	}
}

func TestResultJSON(t *testing.T) {
	in := `{"job_id":"j1","pieces":{"P":-70,"N":15},"plies":2,"evaluations":3}`
	var r Result
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatal(err)
	}
	if r.Pieces[analysis.Pawn] != -70 || r.Pieces[analysis.Knight] != 15 || r.Skipped {
		t.Errorf("result = %+v", r)
	}
}

func TestBatchDone(t *testing.T) {
	b := Batch{Total: 2}
	if b.Done() {
		t.Error("empty batch reported done")
	}
	b.Completed = 2
	if !b.Done() {
		t.Error("complete batch not done")
	}
}
