package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/freeeve/uci"
	"github.com/jacokyle01/chess-insights/analysis"
	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

// DefaultDepth is used by DepthEngine when a limit carries no depth.
const DefaultDepth = 12

// DepthEngine evaluates positions to a fixed depth through freeeve/uci. It
// ignores move time limits.
type DepthEngine struct {
	mu  sync.Mutex
	eng *uci.Engine
	log zerolog.Logger
}

func NewDepthEngine(enginePath string, hashMB, threads int, log zerolog.Logger) (*DepthEngine, error) {
	eng, err := uci.NewEngine(enginePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEngineStart, enginePath, err)
	}

	opts := uci.Options{
		Hash:    hashMB,
		Threads: threads,
		MultiPV: 1,
		Ponder:  false,
		OwnBook: false,
	}
	if err := eng.SetOptions(opts); err != nil {
		eng.Close()
		return nil, fmt.Errorf("%w: set options: %v", ErrEngineStart, err)
	}

	log = log.With().Str("engine", enginePath).Str("backend", "depth").Logger()
	log.Info().Int("hash_mb", hashMB).Int("threads", threads).Msg("engine ready")
	return &DepthEngine{eng: eng, log: log}, nil
}

func (d *DepthEngine) Evaluate(ctx context.Context, pos *chess.Position, limit analysis.Limit) (analysis.Report, error) {
	if err := ctx.Err(); err != nil {
		return analysis.Report{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	fen := pos.String()
	if err := d.eng.SetFEN(fen); err != nil {
		return analysis.Report{}, fmt.Errorf("set FEN: %w", err)
	}

	depth := limit.Depth
	if depth <= 0 {
		depth = DefaultDepth
	}
	results, err := d.eng.GoDepth(depth, uci.HighestDepthOnly)
	if err != nil {
		return analysis.Report{}, fmt.Errorf("go depth %d: %w", depth, err)
	}
	rep, err := depthReport(results.Results, pos.Turn(), fen)
	if err != nil {
		return analysis.Report{}, err
	}
	d.log.Debug().Str("fen", fen).Stringer("score", rep.Score).Int("depth", rep.Depth).Msg("evaluated")
	return rep, nil
}

// depthReport takes the deepest result. A mate score of 0 is a checkmated
// side to move.
func depthReport(results []uci.ScoreResult, pov chess.Color, fen string) (analysis.Report, error) {
	if len(results) == 0 {
		return analysis.Report{}, &analysis.ParseError{Input: fen, Reason: "no results from engine"}
	}

	best := results[0]
	for _, r := range results {
		if r.Depth > best.Depth {
			best = r
		}
	}

	score := analysis.Cp(best.Score)
	if best.Mate {
		score = analysis.MateIn(best.Score)
	}
	return analysis.Report{Score: score, POV: pov, Depth: best.Depth}, nil
}

func (d *DepthEngine) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.eng.Close()
	d.log.Info().Msg("engine closed")
	return nil
}
