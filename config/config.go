// Package config holds the settings shared by every subcommand.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/jacokyle01/chess-insights/analysis"
	"github.com/jacokyle01/chess-insights/engine"
	"github.com/rs/zerolog"
)

type Settings struct {
	DataPath    string
	Skill       int
	MaxGames    int
	EnginePath  string
	Backend     string
	MoveTime    time.Duration
	Depth       int
	HashMB      int
	Threads     int
	Workers     int
	StrictMoves bool
	ServerAddr  string
	ServerURL   string
	ChartOut    string
	LogLevel    string
}

// Default returns the settings used when nothing overrides them.
func Default() Settings {
	return Settings{
		DataPath:   "datasets/chess_games_20k.csv",
		Skill:      1200,
		EnginePath: DefaultEnginePath(runtime.GOOS),
		Backend:    engine.BackendUCI,
		MoveTime:   100 * time.Millisecond,
		Workers:    1,
		ServerAddr: ":8080",
		ServerURL:  "http://localhost:8080",
		LogLevel:   "info",
	}
}

// DefaultEnginePath is the bundled stockfish binary for goos.
func DefaultEnginePath(goos string) string {
	switch goos {
	case "windows":
		return "../stockfish/stockfish-windows-x86-64-avx2.exe"
	case "linux":
		return "../stockfish/stockfish-ubuntu-x86-64-avx512"
	default:
		return "stockfish"
	}
}

// FromEnv applies CHESS_* environment overrides.
func (s *Settings) FromEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("CHESS_ENGINE"); ok && v != "" {
		s.EnginePath = v
	}
	if v, ok := lookup("CHESS_ENGINE_BACKEND"); ok && v != "" {
		s.Backend = v
	}
	if v, ok := lookup("CHESS_DATA"); ok && v != "" {
		s.DataPath = v
	}
	if v, ok := lookup("CHESS_LOG_LEVEL"); ok && v != "" {
		s.LogLevel = v
	}
	if v, ok := lookup("CHESS_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHESS_WORKERS: %w", err)
		}
		s.Workers = n
	}
	return nil
}

// Load returns the defaults with the process environment applied.
func Load() (Settings, error) {
	s := Default()
	err := s.FromEnv(os.LookupEnv)
	return s, err
}

// BindData registers the dataset flags.
func (s *Settings) BindData(fs *flag.FlagSet) {
	fs.StringVar(&s.DataPath, "data", s.DataPath, "Path to the games CSV")
	fs.IntVar(&s.Skill, "skill", s.Skill, "Minimum rating of both players")
	fs.IntVar(&s.MaxGames, "games", s.MaxGames, "Analyse at most this many games (0 for all)")
	fs.StringVar(&s.ChartOut, "out", s.ChartOut, "Write charts to this file instead of stdout")
}

// BindEngine registers the evaluation engine flags.
func (s *Settings) BindEngine(fs *flag.FlagSet) {
	fs.StringVar(&s.EnginePath, "engine", s.EnginePath, "Path to a UCI engine")
	fs.StringVar(&s.Backend, "backend", s.Backend, "Engine driver: uci or depth")
	fs.DurationVar(&s.MoveTime, "movetime", s.MoveTime, "Time budget per evaluation")
	fs.IntVar(&s.Depth, "depth", s.Depth, "Search depth per evaluation (0 for time only)")
	fs.IntVar(&s.HashMB, "hash", s.HashMB, "Engine hash size in MB (0 keeps the engine default)")
	fs.IntVar(&s.Threads, "threads", s.Threads, "Engine threads (0 keeps the engine default)")
	fs.IntVar(&s.Workers, "workers", s.Workers, "Concurrent engine sessions")
	fs.BoolVar(&s.StrictMoves, "strict", s.StrictMoves, "Abort on the first illegal move instead of skipping the game")
}

// BindCommon registers flags every subcommand accepts.
func (s *Settings) BindCommon(fs *flag.FlagSet) {
	fs.StringVar(&s.LogLevel, "log", s.LogLevel, "Log level: debug, info, warn, error")
}

func (s Settings) Engine() engine.Config {
	return engine.Config{
		Backend: s.Backend,
		Path:    s.EnginePath,
		HashMB:  s.HashMB,
		Threads: s.Threads,
	}
}

func (s Settings) AnalysisOptions() analysis.Options {
	return analysis.Options{
		Limit:       analysis.Limit{MoveTime: s.MoveTime, Depth: s.Depth},
		StrictMoves: s.StrictMoves,
	}
}

// Logger builds the console logger at the configured level.
func (s Settings) Logger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", s.LogLevel, err)
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// Log writes the settings at info level.
func (s Settings) Log(log zerolog.Logger) {
	log.Info().Str("settings", fmt.Sprintf("%+v", s)).Msg("configuration")
}
