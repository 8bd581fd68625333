package primaryserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jacokyle01/chess-insights/models"
	"github.com/notnil/chess"
)

var jobSeq atomic.Int64

// analyzeRequest is a game submitted for analysis, either as a SAN move
// list or as PGN.
type analyzeRequest struct {
	ID     string   `json:"id"`
	FEN    string   `json:"fen"`
	Moves  []string `json:"moves"`
	Pgn    string   `json:"pgn"` // e.g. "1. e4 e5 2. Nf3 Nf6"
	Depth  int      `json:"depth"`
	TimeMS int      `json:"time_ms"`
}

type batchRequest struct {
	ID    string           `json:"id"`
	Games []analyzeRequest `json:"games"`
}

// HTTP handlers
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	job, ok := s.GetJob(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, job)
}

func (s *Server) handleSubmitResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var result models.Result
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if result.JobID == "" {
		http.Error(w, "Missing job_id", http.StatusBadRequest)
		return
	}

	s.SubmitResult(result)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	job, err := newJob(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.AddJob(job); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, map[string]string{"job_id": job.ID})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "Missing id parameter", http.StatusBadRequest)
			return
		}
		batch, ok := s.GetBatch(id)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, batch)

	case "POST":
		var req batchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.Games) == 0 {
			http.Error(w, "empty batch", http.StatusBadRequest)
			return
		}
		if req.ID == "" {
			req.ID = fmt.Sprintf("batch_%d", time.Now().UnixNano())
		}

		jobs := make([]models.Job, 0, len(req.Games))
		for i, g := range req.Games {
			job, err := newJob(g)
			if err != nil {
				http.Error(w, fmt.Sprintf("game %d: %v", i, err), http.StatusBadRequest)
				return
			}
			jobs = append(jobs, job)
		}

		batch, err := s.AddBatch(req.ID, jobs)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrQueueFull) {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, map[string]interface{}{"batch_id": batch.ID, "job_ids": batch.JobIDs})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		http.Error(w, "Missing job_id parameter", http.StatusBadRequest)
		return
	}

	result, exists := s.GetResult(jobID)
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(w, result)
}

func (s *Server) handlePieces(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.Totals())
}

func (s *Server) handleViewQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pendingJobs := s.Pending()
	status := map[string]interface{}{
		"queue_length": len(pendingJobs),
		"pending_jobs": pendingJobs,
	}

	writeJSON(w, status)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// newJob validates a submitted game against the rules and fills in the
// defaults.
func newJob(req analyzeRequest) (models.Job, error) {
	moves := req.Moves
	var err error
	if req.Pgn != "" {
		moves, err = pgnMoves(req.Pgn)
		if err != nil {
			return models.Job{}, fmt.Errorf("invalid PGN: %w", err)
		}
		req.FEN = ""
	} else if err := validateMoves(req.FEN, moves); err != nil {
		return models.Job{}, err
	}
	if len(moves) == 0 {
		return models.Job{}, errors.New("game has no moves")
	}

	job := models.Job{
		ID:     req.ID,
		FEN:    req.FEN,
		Moves:  moves,
		Depth:  req.Depth,
		TimeMS: req.TimeMS,
	}
	if job.ID == "" {
		job.ID = fmt.Sprintf("job_%d_%d", time.Now().UnixNano(), jobSeq.Add(1))
	}
	if job.Depth == 0 {
		job.Depth = DefaultDepth
	}
	if job.TimeMS == 0 {
		job.TimeMS = DefaultTimeMS
	}
	return job, nil
}

// pgnMoves parses PGN (pgn --> game) and returns its moves in SAN.
func pgnMoves(pgn string) ([]string, error) {
	opt, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		return nil, err
	}
	game := chess.NewGame(opt)
	positions := game.Positions()

	moves := make([]string, 0, len(game.Moves()))
	for i, m := range game.Moves() {
		moves = append(moves, chess.AlgebraicNotation{}.Encode(positions[i], m))
	}
	return moves, nil
}

func validateMoves(fen string, moves []string) error {
	game := chess.NewGame()
	if fen != "" {
		opt, err := chess.FEN(fen)
		if err != nil {
			return fmt.Errorf("invalid FEN: %w", err)
		}
		game = chess.NewGame(opt)
	}
	pos := game.Position()
	for i, san := range moves {
		m, err := chess.AlgebraicNotation{}.Decode(pos, san)
		if err != nil {
			return fmt.Errorf("ply %d: illegal move %q", i+1, san)
		}
		pos = pos.Update(m)
	}
	return nil
}
