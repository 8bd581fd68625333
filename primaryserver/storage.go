package primaryserver

import (
	"fmt"

	"github.com/jacokyle01/chess-insights/analysis"
	"github.com/jacokyle01/chess-insights/models"
)

// AddBatch registers a batch for jobs and queues every job. Jobs already
// queued stay queued if a later one is rejected.
func (s *Server) AddBatch(id string, jobs []models.Job) (*models.Batch, error) {
	batch := &models.Batch{
		ID:      id,
		Results: make(map[string]models.Result),
		Pieces:  analysis.NewTotals(),
	}
	s.mu.Lock()
	s.batches[id] = batch
	s.mu.Unlock()

	for _, job := range jobs {
		job.BatchID = id
		if err := s.AddJob(job); err != nil {
			return batch, fmt.Errorf("batch %s job %s: %w", id, job.ID, err)
		}
		s.mu.Lock()
		batch.JobIDs = append(batch.JobIDs, job.ID)
		batch.Total++
		s.mu.Unlock()
	}
	return batch, nil
}

// SubmitResult stores a completed analysis result and merges its totals
// into the batch and the server wide totals. Results for jobs that are not
// pending are stored but not merged.
func (s *Server) SubmitResult(result models.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Remove from pending jobs
	job, known := s.jobMap[result.JobID]
	delete(s.jobMap, result.JobID)
	s.results_store[result.JobID] = result

	log := s.log.With().Str("job_id", result.JobID).Logger()
	if !known {
		// duplicate or stale result, its totals would be counted twice
		log.Warn().Msg("result for unknown job")
		return
	}
	failed := result.Error != "" && !result.Skipped
	if !failed {
		s.totals.Merge(result.Pieces)
	}

	if batch, ok := s.batches[job.BatchID]; ok {
		batch.Results[result.JobID] = result
		if !failed {
			batch.Pieces.Merge(result.Pieces)
		}
		batch.Completed++

		log.Info().
			Str("batch_id", batch.ID).
			Int("completed", batch.Completed).
			Int("total", batch.Total).
			Msg("batch progress")
	}

	if failed {
		log.Warn().Str("error", result.Error).Msg("job failed")
		return
	}
	log.Info().
		Int("plies", result.Plies).
		Bool("skipped", result.Skipped).
		Str("pieces", result.Pieces.String()).
		Msg("received result")
}

// GetResult retrieves a result by job ID
func (s *Server) GetResult(jobID string) (models.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, exists := s.results_store[jobID]
	return result, exists
}

// GetBatch returns a copy of the batch with the given id.
func (s *Server) GetBatch(id string) (models.Batch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.batches[id]
	if !ok {
		return models.Batch{}, false
	}
	cp := *batch
	cp.JobIDs = append([]string(nil), batch.JobIDs...)
	cp.Results = make(map[string]models.Result, len(batch.Results))
	for k, v := range batch.Results {
		cp.Results[k] = v
	}
	cp.Pieces = analysis.NewTotals()
	cp.Pieces.Merge(batch.Pieces)
	return cp, true
}

// Totals returns the merged piece totals of every result received so far.
func (s *Server) Totals() analysis.Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := analysis.NewTotals()
	t.Merge(s.totals)
	return t
}
