package primaryserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/jacokyle01/chess-insights/analysis"
	"github.com/jacokyle01/chess-insights/models"
	"github.com/rs/zerolog"
)

// Defaults applied to submitted jobs that leave the limit empty.
const (
	DefaultDepth  = 15
	DefaultTimeMS = 100
)

// Server manages the job queue, hands games to workers and merges their
// partial piece totals.
type Server struct {
	jobs          chan models.Job
	mu            sync.RWMutex
	jobMap        map[string]models.Job
	results_store map[string]models.Result
	batches       map[string]*models.Batch
	totals        analysis.Totals
	wait          time.Duration
	log           zerolog.Logger
}

type Option func(*Server)

// WithQueueSize sets the number of jobs that can wait for a worker.
func WithQueueSize(n int) Option {
	return func(s *Server) { s.jobs = make(chan models.Job, n) }
}

// WithJobWait sets how long GET /job blocks before answering 204.
func WithJobWait(d time.Duration) Option {
	return func(s *Server) { s.wait = d }
}

// NewServer creates a new analysis server
func NewServer(log zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		jobs:          make(chan models.Job, 100),
		jobMap:        make(map[string]models.Job),
		results_store: make(map[string]models.Result),
		batches:       make(map[string]*models.Batch),
		totals:        analysis.NewTotals(),
		wait:          5 * time.Second,
		log:           log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/job", s.handleGetJob)
	mux.HandleFunc("/result", s.handleSubmitResult)
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/batch", s.handleBatch)
	mux.HandleFunc("/get_result", s.handleGetResult)
	mux.HandleFunc("/pieces", s.handlePieces)
	mux.HandleFunc("/queue", s.handleViewQueue)
	return mux
}

// StartServer starts the HTTP server
func (s *Server) StartServer(addr string) error {
	s.log.Info().Str("addr", addr).Msg("starting server")
	return http.ListenAndServe(addr, s.Handler())
}
