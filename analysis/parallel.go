package analysis

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Opener starts a new evaluator session.
type Opener func() (Session, error)

// ParallelAggregate spreads games over workers, each with its own board and
// engine session, and merges the partial totals once every worker is done.
// All sessions are opened before the first game is handed out.
func ParallelAggregate(ctx context.Context, games []Game, workers int, open Opener, opts Options, log zerolog.Logger) (Totals, Stats, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(games) && len(games) > 0 {
		workers = len(games)
	}

	sessions := make([]Session, 0, workers)
	defer func() {
		for _, s := range sessions {
			if err := s.Close(); err != nil {
				log.Warn().Err(err).Msg("close engine session")
			}
		}
	}()
	for i := 0; i < workers; i++ {
		s, err := open()
		if err != nil {
			return nil, Stats{}, fmt.Errorf("open session %d: %w", i, err)
		}
		sessions = append(sessions, s)
	}

	g, ctx := errgroup.WithContext(ctx)
	queue := make(chan Game)
	partials := make([]Totals, workers)
	stats := make([]Stats, workers)

	g.Go(func() error {
		defer close(queue)
		for _, game := range games {
			select {
			case queue <- game:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := range sessions {
		i := i
		partials[i] = NewTotals()
		agg := NewAggregator(sessions[i], opts, log.With().Int("worker_id", i).Logger())
		g.Go(func() error {
			for game := range queue {
				if err := agg.run(ctx, game, partials[i], &stats[i]); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()

	totals := NewTotals()
	var total Stats
	for i := range partials {
		totals.Merge(partials[i])
		total.merge(stats[i])
	}
	if err != nil {
		return totals, total, err
	}
	log.Info().
		Int("workers", workers).
		Int("games", total.Games).
		Int("skipped", total.Skipped).
		Int("plies", total.Plies).
		Str("totals", totals.String()).
		Msg("parallel aggregation finished")
	return totals, total, nil
}
