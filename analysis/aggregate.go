package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

// Evaluator scores positions. Implementations are long-lived engine
// sessions and are not safe for concurrent use.
type Evaluator interface {
	Evaluate(ctx context.Context, pos *chess.Position, limit Limit) (Report, error)
}

// Session is an Evaluator that owns an external resource.
type Session interface {
	Evaluator
	Close() error
}

// Game is the move list of one recorded game in SAN. StartFEN is empty for
// games starting from the standard position.
type Game struct {
	ID       string
	StartFEN string
	Moves    []string
}

// IllegalMoveError reports a move that is not legal in the current position.
type IllegalMoveError struct {
	GameID string
	Ply    int
	Move   string
	FEN    string
	Err    error
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("game %s ply %d: illegal move %q in %s: %v", e.GameID, e.Ply, e.Move, e.FEN, e.Err)
}

func (e *IllegalMoveError) Unwrap() error { return e.Err }

type Options struct {
	Limit Limit
	// StrictMoves aborts the whole run on the first illegal move instead of
	// skipping the offending game.
	StrictMoves bool
}

// Stats describes a finished aggregation.
type Stats struct {
	Games       int
	Skipped     int
	Plies       int
	Evaluations int
}

func (s *Stats) merge(o Stats) {
	s.Games += o.Games
	s.Skipped += o.Skipped
	s.Plies += o.Plies
	s.Evaluations += o.Evaluations
}

// Aggregator replays games against an evaluator and credits every score
// change to the piece that caused it.
type Aggregator struct {
	eval Evaluator
	opts Options
	log  zerolog.Logger
}

func NewAggregator(eval Evaluator, opts Options, log zerolog.Logger) *Aggregator {
	return &Aggregator{eval: eval, opts: opts, log: log}
}

// Aggregate processes games in order and returns the per piece totals.
// Games with an illegal move keep the deltas accumulated before the bad
// move and are counted as skipped, unless StrictMoves is set.
func (a *Aggregator) Aggregate(ctx context.Context, games []Game) (Totals, Stats, error) {
	totals := NewTotals()
	var stats Stats
	for _, g := range games {
		if err := a.run(ctx, g, totals, &stats); err != nil {
			return totals, stats, err
		}
	}
	a.log.Info().
		Int("games", stats.Games).
		Int("skipped", stats.Skipped).
		Int("plies", stats.Plies).
		Int("evaluations", stats.Evaluations).
		Str("totals", totals.String()).
		Msg("aggregation finished")
	return totals, stats, nil
}

func (a *Aggregator) run(ctx context.Context, g Game, totals Totals, stats *Stats) error {
	plies, err := a.Game(ctx, g, totals)
	stats.Plies += plies
	stats.Evaluations += plies + 1

	var illegal *IllegalMoveError
	switch {
	case err == nil:
		stats.Games++
		return nil
	case errors.As(err, &illegal) && !a.opts.StrictMoves:
		stats.Skipped++
		a.log.Warn().
			Str("game_id", g.ID).
			Int("ply", illegal.Ply).
			Str("move", illegal.Move).
			Msg("skipping game with illegal move")
		return nil
	default:
		return fmt.Errorf("game %s: %w", g.ID, err)
	}
}

// Game replays a single game, adding its deltas to totals, and returns the
// number of plies applied. On an illegal move the deltas of the plies
// before it stay in totals.
//
// The delta of a move is negated when White made it and left as is when
// Black made it.
func (a *Aggregator) Game(ctx context.Context, g Game, totals Totals) (int, error) {
	pos, err := startPosition(g.StartFEN)
	if err != nil {
		return 0, err
	}
	log := a.log.With().Str("game_id", g.ID).Logger()

	running, err := a.score(ctx, pos)
	if err != nil {
		return 0, err
	}
	log.Debug().Int("score", running).Msg("start")

	for i, san := range g.Moves {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		move, err := chess.AlgebraicNotation{}.Decode(pos, san)
		if err != nil {
			return i, &IllegalMoveError{GameID: g.ID, Ply: i + 1, Move: san, FEN: pos.String(), Err: err}
		}
		pieces, err := Classify(move, pos)
		if err != nil {
			return i, err
		}
		mover := pos.Turn()
		pos = pos.Update(move)

		next, err := a.score(ctx, pos)
		if err != nil {
			return i, err
		}
		delta := next - running
		if mover == chess.White {
			delta = -delta
		}
		totals.Add(pieces, delta)
		log.Debug().
			Str("move", san).
			Int("score", next).
			Int("delta", delta).
			Msg("ply")
		running = next
	}
	return len(g.Moves), nil
}

func (a *Aggregator) score(ctx context.Context, pos *chess.Position) (int, error) {
	rep, err := a.eval.Evaluate(ctx, pos, a.opts.Limit)
	if err != nil {
		return 0, err
	}
	return Normalize(rep.Score, rep.POV)
}

func startPosition(fen string) (*chess.Position, error) {
	if fen == "" {
		return chess.NewGame().Position(), nil
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("start position: %w", err)
	}
	return chess.NewGame(opt).Position(), nil
}
