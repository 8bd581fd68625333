package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jacokyle01/chess-insights/analysis"
	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

// fakeEngine speaks just enough UCI over pipes. search returns the lines
// printed for a go command given the last position command.
type fakeEngine struct {
	commands []string
	done     chan struct{}
}

func startFake(t *testing.T, search func(position, goCmd string) []string) (*ChessEngine, *fakeEngine) {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	fake := &fakeEngine{done: make(chan struct{})}

	go func() {
		defer close(fake.done)
		defer outW.Close()
		sc := bufio.NewScanner(inR)
		var position string
		for sc.Scan() {
			cmd := sc.Text()
			fake.commands = append(fake.commands, cmd)
			var reply []string
			switch {
			case cmd == "uci":
				reply = []string{"id name Fake", "id author test", "uciok"}
			case cmd == "isready":
				reply = []string{"readyok"}
			case strings.HasPrefix(cmd, "position"):
				position = cmd
			case strings.HasPrefix(cmd, "go"):
				reply = search(position, cmd)
			case cmd == "quit":
				inR.Close()
				return
			}
			for _, l := range reply {
				if _, err := fmt.Fprintln(outW, l); err != nil {
					return
				}
			}
		}
	}()

	e, err := newChessEngine(outR, inW, inW, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return e, fake
}

func TestChessEngineEvaluate(t *testing.T) {
	e, fake := startFake(t, func(position, goCmd string) []string {
		if strings.Contains(position, " b ") {
			return []string{
				"info depth 1 seldepth 1 multipv 1 score cp 12 nodes 20 pv e7e5",
				"info depth 8 seldepth 10 multipv 1 score cp -31 lowerbound nodes 900",
				"info depth 8 seldepth 10 multipv 1 score cp -25 nodes 1000 nps 5000 pv e7e5 g1f3",
				"info depth 8 currmove e7e5 currmovenumber 1",
				"bestmove e7e5 ponder g1f3",
			}
		}
		return []string{
			"info string NNUE evaluation enabled",
			"info depth 12 multipv 1 score mate 3 nodes 400 pv d1h5",
			"info depth 12 multipv 2 score cp 10 nodes 400 pv e2e4",
			"bestmove d1h5",
		}
	})

	game := chess.NewGame()
	rep, err := e.Evaluate(context.Background(), game.Position(), analysis.Limit{MoveTime: 100 * time.Millisecond, Depth: 12})
	if err != nil {
		t.Fatal(err)
	}
	want := analysis.Report{Score: analysis.MateIn(3), POV: chess.White, Depth: 12, Nodes: 400, BestMove: "d1h5"}
	if rep != want {
		t.Errorf("white: got %+v, want %+v", rep, want)
	}

	if err := game.MoveStr("e4"); err != nil {
		t.Fatal(err)
	}
	rep, err = e.Evaluate(context.Background(), game.Position(), analysis.Limit{MoveTime: 100 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	want = analysis.Report{Score: analysis.Cp(-25), POV: chess.Black, Depth: 8, Nodes: 1000, BestMove: "e7e5"}
	if rep != want {
		t.Errorf("black: got %+v, want %+v", rep, want)
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	<-fake.done

	var gos []string
	for _, c := range fake.commands {
		if strings.HasPrefix(c, "go") {
			gos = append(gos, c)
		}
	}
	if len(gos) != 2 || gos[0] != "go depth 12 movetime 100" || gos[1] != "go movetime 100" {
		t.Errorf("go commands = %q", gos)
	}
	if last := fake.commands[len(fake.commands)-1]; last != "quit" {
		t.Errorf("last command %q, want quit", last)
	}
}

func TestChessEngineCheckmate(t *testing.T) {
	e, _ := startFake(t, func(string, string) []string {
		return []string{"info depth 0 score mate 0", "bestmove (none)"}
	})
	defer e.Close()

	game := chess.NewGame()
	for _, san := range []string{"e4", "e5", "Bc4", "Nc6", "Qh5", "Nf6", "Qxf7#"} {
		if err := game.MoveStr(san); err != nil {
			t.Fatal(err)
		}
	}
	rep, err := e.Evaluate(context.Background(), game.Position(), analysis.Limit{Depth: 1})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Score != analysis.Mated() || rep.POV != chess.Black || rep.BestMove != "" {
		t.Errorf("got %+v", rep)
	}
	// Black is mated, so the position is won for White.
	score, err := analysis.Normalize(rep.Score, rep.POV)
	if err != nil {
		t.Fatal(err)
	}
	if score != analysis.MateOffset {
		t.Errorf("normalized %d, want %d", score, analysis.MateOffset)
	}
}

func TestParseSearchMalformed(t *testing.T) {
	tests := map[string][]string{
		"no score":     {"info depth 3 nodes 10", "bestmove e2e4"},
		"unknown tag":  {"info depth 3 score wdl 500 300 200", "bestmove e2e4"},
		"missing":      {"info depth 3 score cp", "bestmove e2e4"},
		"not a number": {"info depth 3 score mate M5", "bestmove e2e4"},
	}
	for name, lines := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseSearch(lines)
			var perr *analysis.ParseError
			if !errors.As(err, &perr) {
				t.Errorf("got %v, want ParseError", err)
			}
		})
	}
}

func TestGoCommand(t *testing.T) {
	tests := []struct {
		limit analysis.Limit
		want  string
	}{
		{analysis.Limit{}, "go depth 1"},
		{analysis.Limit{Depth: 5}, "go depth 5"},
		{analysis.Limit{MoveTime: time.Second}, "go movetime 1000"},
		{analysis.Limit{Depth: 5, MoveTime: 250 * time.Millisecond}, "go depth 5 movetime 250"},
	}
	for _, tt := range tests {
		if got := goCommand(tt.limit); got != tt.want {
			t.Errorf("goCommand(%+v) = %q, want %q", tt.limit, got, tt.want)
		}
	}
}

func TestHandshakeFailure(t *testing.T) {
	_, err := newChessEngine(strings.NewReader("id name Broken\n"), io.Discard, nil, zerolog.Nop())
	if !errors.Is(err, ErrEngineStart) {
		t.Errorf("got %v, want ErrEngineStart", err)
	}
}

func TestOpenMissingBinary(t *testing.T) {
	_, err := Open(Config{Path: "/nonexistent/stockfish"}, zerolog.Nop())
	if !errors.Is(err, ErrEngineStart) {
		t.Errorf("got %v, want ErrEngineStart", err)
	}
	if _, err := Open(Config{Backend: "carrier-pigeon"}, zerolog.Nop()); err == nil {
		t.Error("unknown backend accepted")
	}
}
