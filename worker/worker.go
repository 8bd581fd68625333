package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jacokyle01/chess-insights/analysis"
	"github.com/jacokyle01/chess-insights/models"
	"github.com/rs/zerolog"
)

// Client represents a worker client
type Client struct {
	serverURL string
	name      string
	http      *http.Client
	engine    analysis.Session
	strict    bool
	retry     time.Duration
	log       zerolog.Logger
}

// NewClient creates a worker client that analyses jobs with engine. The
// client owns engine and closes it in Close.
func NewClient(serverURL, name string, engine analysis.Session, log zerolog.Logger) *Client {
	return &Client{
		serverURL: serverURL,
		name:      name,
		http:      &http.Client{Timeout: time.Minute},
		engine:    engine,
		retry:     5 * time.Second,
		log:       log.With().Str("worker", name).Logger(),
	}
}

// SetRetry sets how long the worker sleeps after the server is unreachable.
func (c *Client) SetRetry(d time.Duration) { c.retry = d }

// SetStrictMoves makes illegal moves fail the job instead of returning the
// partial totals.
func (c *Client) SetStrictMoves(strict bool) { c.strict = strict }

// WorkLoop runs the main worker loop until ctx is cancelled.
func (c *Client) WorkLoop(ctx context.Context) {
	c.log.Info().Str("server", c.serverURL).Msg("starting worker")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if _, err := c.ProcessJob(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn().Err(err).Msg("job round failed")
			sleep(ctx, c.retry)
		}
	}
}

// ProcessJob fetches one job, analyses it and submits the result. It
// reports false when the server had no work.
func (c *Client) ProcessJob(ctx context.Context) (bool, error) {
	// Get job from server
	job, ok, err := c.fetchJob(ctx)
	if err != nil || !ok {
		return false, err
	}

	log := c.log.With().Str("job_id", job.ID).Logger()
	log.Info().Int("plies", len(job.Moves)).Msg("processing job")

	result := c.analyze(ctx, job)
	if result.Error != "" {
		log.Warn().Str("error", result.Error).Msg("analysis failed")
	}

	// Submit result
	if err := c.submit(ctx, result); err != nil {
		return true, fmt.Errorf("submit result %s: %w", job.ID, err)
	}
	return true, nil
}

func (c *Client) fetchJob(ctx context.Context) (models.Job, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/job", nil)
	if err != nil {
		return models.Job{}, false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return models.Job{}, false, fmt.Errorf("get job: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		c.log.Debug().Msg("no jobs available")
		return models.Job{}, false, nil
	case http.StatusOK:
	default:
		return models.Job{}, false, fmt.Errorf("get job: status %d", resp.StatusCode)
	}

	var job models.Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return models.Job{}, false, fmt.Errorf("decode job: %w", err)
	}
	return job, true, nil
}

func (c *Client) analyze(ctx context.Context, job models.Job) models.Result {
	opts := analysis.Options{Limit: job.Limit(), StrictMoves: c.strict}
	agg := analysis.NewAggregator(c.engine, opts, c.log)

	totals := analysis.NewTotals()
	plies, err := agg.Game(ctx, job.Game(), totals)
	result := models.Result{
		JobID:       job.ID,
		Pieces:      totals,
		Plies:       plies,
		Evaluations: plies + 1,
		Worker:      c.name,
	}

	var illegal *analysis.IllegalMoveError
	switch {
	case err == nil:
	case errors.As(err, &illegal) && !c.strict:
		result.Skipped = true
		result.Error = err.Error()
	default:
		result.Pieces = nil
		result.Error = err.Error()
	}
	return result
}

func (c *Client) submit(ctx context.Context, result models.Result) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/result", bytes.NewReader(resultJSON))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// Close shuts the engine session down.
func (c *Client) Close() error {
	return c.engine.Close()
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
