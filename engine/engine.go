package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/jacokyle01/chess-insights/analysis"
	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

// ErrEngineStart is returned when the engine process cannot be started or
// does not complete the UCI handshake.
var ErrEngineStart = errors.New("engine start failed")

// ChessEngine wraps a UCI chess engine process. One engine serves one
// caller at a time.
type ChessEngine struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  *bufio.Writer
	stdout *bufio.Scanner
	closer io.Closer
	log    zerolog.Logger
}

// NewChessEngine starts the engine at enginePath and runs the UCI handshake.
func NewChessEngine(enginePath string, log zerolog.Logger) (*ChessEngine, error) {
	cmd := exec.Command(enginePath)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineStart, err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineStart, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEngineStart, enginePath, err)
	}

	engine, err := newChessEngine(stdout, stdin, stdin, log.With().Str("engine", enginePath).Logger())
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	engine.cmd = cmd
	return engine, nil
}

func newChessEngine(r io.Reader, w io.Writer, closer io.Closer, log zerolog.Logger) (*ChessEngine, error) {
	engine := &ChessEngine{
		stdin:  bufio.NewWriter(w),
		stdout: bufio.NewScanner(r),
		closer: closer,
		log:    log,
	}

	// Initialize UCI
	if err := engine.sendCommand("uci"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineStart, err)
	}
	if _, err := engine.waitForResponse("uciok"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineStart, err)
	}
	if err := engine.sendCommand("isready"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineStart, err)
	}
	if _, err := engine.waitForResponse("readyok"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineStart, err)
	}

	log.Info().Msg("engine ready")
	return engine, nil
}

// SetOption sends a setoption command, e.g. Hash or Threads.
func (e *ChessEngine) SetOption(name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.sendCommand(fmt.Sprintf("setoption name %s value %s", name, value)); err != nil {
		return err
	}
	if err := e.sendCommand("isready"); err != nil {
		return err
	}
	_, err := e.waitForResponse("readyok")
	return err
}

func (e *ChessEngine) sendCommand(cmd string) error {
	e.log.Debug().Str("cmd", cmd).Msg("send")
	if _, err := e.stdin.WriteString(cmd + "\n"); err != nil {
		return err
	}
	return e.stdin.Flush()
}

func (e *ChessEngine) waitForResponse(expected string) (string, error) {
	for e.stdout.Scan() {
		line := e.stdout.Text()
		if strings.Contains(line, expected) {
			return line, nil
		}
	}
	if err := e.stdout.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("engine closed before %q", expected)
}

func (e *ChessEngine) readUntilBestMove() ([]string, error) {
	var lines []string
	for e.stdout.Scan() {
		line := e.stdout.Text()
		lines = append(lines, line)
		if strings.HasPrefix(line, "bestmove") {
			return lines, nil
		}
	}
	if err := e.stdout.Err(); err != nil {
		return lines, err
	}
	return lines, errors.New("engine closed before bestmove")
}

// Evaluate analyses pos within limit. The score is relative to the side to
// move in pos.
func (e *ChessEngine) Evaluate(ctx context.Context, pos *chess.Position, limit analysis.Limit) (analysis.Report, error) {
	if err := ctx.Err(); err != nil {
		return analysis.Report{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	// Set position
	if err := e.sendCommand("position fen " + pos.String()); err != nil {
		return analysis.Report{}, err
	}

	// Start analysis
	if err := e.sendCommand(goCommand(limit)); err != nil {
		return analysis.Report{}, err
	}

	// Read engine output
	lines, err := e.readUntilBestMove()
	if err != nil {
		return analysis.Report{}, err
	}

	rep, err := parseSearch(lines)
	if err != nil {
		return analysis.Report{}, err
	}
	rep.POV = pos.Turn()
	return rep, nil
}

func goCommand(limit analysis.Limit) string {
	cmd := "go"
	if limit.Depth > 0 {
		cmd += fmt.Sprintf(" depth %d", limit.Depth)
	}
	if limit.MoveTime > 0 {
		cmd += fmt.Sprintf(" movetime %d", limit.MoveTime.Milliseconds())
	}
	if cmd == "go" {
		cmd += " depth 1"
	}
	return cmd
}

// parseSearch reads the last exact score of the principal line and the best
// move from the output of one search.
func parseSearch(lines []string) (analysis.Report, error) {
	var res analysis.Report
	var scored bool

	// Parse engine output
	for _, line := range lines {
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "info":
			info, ok, err := parseInfo(line, parts[1:])
			if err != nil {
				return analysis.Report{}, err
			}
			if ok {
				res.Score = info.Score
				res.Depth = info.Depth
				res.Nodes = info.Nodes
				scored = true
			}
		case "bestmove":
			if len(parts) > 1 && parts[1] != "(none)" {
				res.BestMove = parts[1]
			}
		}
	}

	if !scored {
		return analysis.Report{}, &analysis.ParseError{Input: strings.Join(lines, "\n"), Reason: "no score reported"}
	}
	return res, nil
}

// parseInfo returns the score of an info line. ok is false for lines that
// carry no exact score of the first principal variation.
func parseInfo(line string, parts []string) (res analysis.Report, ok bool, err error) {
	multipv := 1
	bound := false
	for i := 0; i < len(parts); i++ {
		switch parts[i] {
		case "string":
			return res, false, nil
		case "depth":
			if i+1 < len(parts) {
				res.Depth, _ = strconv.Atoi(parts[i+1])
				i++
			}
		case "nodes":
			if i+1 < len(parts) {
				res.Nodes, _ = strconv.ParseInt(parts[i+1], 10, 64)
				i++
			}
		case "multipv":
			if i+1 < len(parts) {
				multipv, _ = strconv.Atoi(parts[i+1])
				i++
			}
		case "score":
			if i+2 >= len(parts) {
				return res, false, &analysis.ParseError{Input: line, Reason: "score without value"}
			}
			v, convErr := strconv.Atoi(parts[i+2])
			if convErr != nil {
				return res, false, &analysis.ParseError{Input: line, Reason: "score value is not an integer"}
			}
			switch parts[i+1] {
			case "cp":
				res.Score = analysis.Cp(v)
			case "mate":
				res.Score = analysis.MateIn(v)
			default:
				return res, false, &analysis.ParseError{Input: line, Reason: fmt.Sprintf("unexpected score tag %q", parts[i+1])}
			}
			ok = true
			i += 2
		case "lowerbound", "upperbound":
			bound = true
		case "pv":
			// the rest of the line is the variation
			i = len(parts)
		}
	}
	return res, ok && !bound && multipv == 1, nil
}

// Close sends quit and waits for the process to exit.
func (e *ChessEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	sendErr := e.sendCommand("quit")
	var err error
	if e.cmd != nil {
		err = e.cmd.Wait()
	} else if e.closer != nil {
		err = e.closer.Close()
	}
	if err == nil && sendErr != nil && !errors.Is(sendErr, io.ErrClosedPipe) {
		err = sendErr
	}
	e.log.Info().Msg("engine closed")
	return err
}
