package primaryserver

import (
	"context"
	"errors"
	"time"

	"github.com/jacokyle01/chess-insights/models"
)

// ErrQueueFull is returned by AddJob when no worker slot is free.
var ErrQueueFull = errors.New("job queue full")

// AddJob adds a new analysis job to the queue
func (s *Server) AddJob(job models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case s.jobs <- job:
		s.jobMap[job.ID] = job
		s.log.Debug().Str("job_id", job.ID).Msg("added job to queue")
		return nil
	default:
		s.log.Warn().Str("job_id", job.ID).Msg("job queue full, rejecting job")
		return ErrQueueFull
	}
}

// GetJob returns the next job for a worker, waiting up to the server's job
// wait for one to arrive.
func (s *Server) GetJob(ctx context.Context) (models.Job, bool) {
	timer := time.NewTimer(s.wait)
	defer timer.Stop()

	select {
	case job := <-s.jobs:
		return job, true
	case <-timer.C:
		return models.Job{}, false
	case <-ctx.Done():
		return models.Job{}, false
	}
}

// Pending returns the jobs handed out or queued that have no result yet.
func (s *Server) Pending() []models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pendingJobs := make([]models.Job, 0, len(s.jobMap))
	for _, job := range s.jobMap {
		pendingJobs = append(pendingJobs, job)
	}
	return pendingJobs
}
