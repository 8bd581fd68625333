package engine

import (
	"fmt"
	"strconv"

	"github.com/jacokyle01/chess-insights/analysis"
	"github.com/rs/zerolog"
)

const (
	BackendUCI   = "uci"
	BackendDepth = "depth"
)

type Config struct {
	Backend string
	Path    string
	HashMB  int
	Threads int
}

// Open starts an evaluator session for cfg.
func Open(cfg Config, log zerolog.Logger) (analysis.Session, error) {
	switch cfg.Backend {
	case "", BackendUCI:
		e, err := NewChessEngine(cfg.Path, log)
		if err != nil {
			return nil, err
		}
		if cfg.HashMB > 0 {
			if err := e.SetOption("Hash", strconv.Itoa(cfg.HashMB)); err != nil {
				e.Close()
				return nil, fmt.Errorf("%w: set Hash: %v", ErrEngineStart, err)
			}
		}
		if cfg.Threads > 0 {
			if err := e.SetOption("Threads", strconv.Itoa(cfg.Threads)); err != nil {
				e.Close()
				return nil, fmt.Errorf("%w: set Threads: %v", ErrEngineStart, err)
			}
		}
		return e, nil
	case BackendDepth:
		return NewDepthEngine(cfg.Path, cfg.HashMB, cfg.Threads, log)
	default:
		return nil, fmt.Errorf("unknown engine backend %q", cfg.Backend)
	}
}

// Opener binds cfg for analysis.ParallelAggregate.
func Opener(cfg Config, log zerolog.Logger) analysis.Opener {
	return func() (analysis.Session, error) {
		return Open(cfg, log)
	}
}
