package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jacokyle01/chess-insights/analysis"
	"github.com/jacokyle01/chess-insights/chart"
	"github.com/jacokyle01/chess-insights/config"
	"github.com/jacokyle01/chess-insights/dataset"
	"github.com/jacokyle01/chess-insights/engine"
	"github.com/jacokyle01/chess-insights/openings"
	"github.com/jacokyle01/chess-insights/primaryserver"
	"github.com/jacokyle01/chess-insights/prompt"
	"github.com/jacokyle01/chess-insights/recommend"
	"github.com/jacokyle01/chess-insights/worker"
	"github.com/rs/zerolog"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  chess-insights openings [flags]                   - Opening move statistics")
	fmt.Println("  chess-insights pieces [flags]                     - Engine-attributed piece values")
	fmt.Println("  chess-insights model [flags]                      - Train the opening recommender and ask for a game")
	fmt.Println("  chess-insights server [flags] [port]              - Run the analysis server")
	fmt.Println("  chess-insights client [flags] [server_url] [engine_path] - Run a worker")
	fmt.Println("  chess-insights example                            - Run a server and submit a game")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	s, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := os.Args[2:]
	switch os.Args[1] {
	case "openings":
		err = runOpenings(s, args)
	case "pieces":
		err = runPieces(ctx, s, args)
	case "model":
		err = runModel(s, args)
	case "server":
		err = runServer(s, args)
	case "client":
		err = runClient(ctx, s, args)
	case "example":
		err = runExample(ctx, s, args)
	default:
		fmt.Println("Unknown command:", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// setup parses the subcommand flags and builds the logger.
func setup(s *config.Settings, name string, args []string, bind ...func(*flag.FlagSet)) (*flag.FlagSet, zerolog.Logger, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	for _, b := range bind {
		b(fs)
	}
	s.BindCommon(fs)
	if err := fs.Parse(args); err != nil {
		return nil, zerolog.Nop(), err
	}
	log, err := s.Logger(os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log = log.With().Str("cmd", name).Logger()
	s.Log(log)
	return fs, log, nil
}

// output returns where charts go and a function to release it.
func output(s config.Settings) (io.Writer, func() error, error) {
	if s.ChartOut == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(s.ChartOut)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func runOpenings(s config.Settings, args []string) error {
	_, log, err := setup(&s, "openings", args, s.BindData)
	if err != nil {
		return err
	}

	_, games, err := dataset.Processing(s.DataPath, s.Skill)
	if err != nil {
		return err
	}
	st, err := openings.Analyze(games)
	if err != nil {
		return err
	}
	log.Info().
		Int("games", st.Counted()).
		Interface("first_moves", st.FirstMoves).
		Interface("white_wins", st.WhiteWins).
		Interface("win_ratio", st.WinRatio).
		Str("best", st.Best).
		Msg("opening statistics")

	w, done, err := output(s)
	if err != nil {
		return err
	}
	if err := chart.Openings(w, st); err != nil {
		done()
		return err
	}
	return done()
}

func runPieces(ctx context.Context, s config.Settings, args []string) error {
	s.Skill = 2200
	_, log, err := setup(&s, "pieces", args, s.BindData, s.BindEngine)
	if err != nil {
		return err
	}

	_, games, err := dataset.Processing(s.DataPath, s.Skill)
	if err != nil {
		return err
	}
	lines := dataset.Lines(games, s.MaxGames)
	log.Info().Int("games", len(lines)).Int("workers", s.Workers).Msg("evaluating games")

	start := time.Now()
	var (
		totals analysis.Totals
		stats  analysis.Stats
	)
	if s.Workers > 1 {
		totals, stats, err = analysis.ParallelAggregate(ctx, lines, s.Workers, engine.Opener(s.Engine(), log), s.AnalysisOptions(), log)
	} else {
		sess, oerr := engine.Open(s.Engine(), log)
		if oerr != nil {
			return oerr
		}
		defer sess.Close()
		totals, stats, err = analysis.NewAggregator(sess, s.AnalysisOptions(), log).Aggregate(ctx, lines)
	}
	if err != nil {
		return err
	}
	log.Info().
		Str("pieces", totals.String()).
		Int("games", stats.Games).
		Int("skipped", stats.Skipped).
		Int("evaluations", stats.Evaluations).
		Dur("elapsed", time.Since(start)).
		Msg("piece evaluation")

	w, done, err := output(s)
	if err != nil {
		return err
	}
	if err := chart.Pieces(w, totals); err != nil {
		done()
		return err
	}
	return done()
}

func runModel(s config.Settings, args []string) error {
	s.Skill = 800
	_, log, err := setup(&s, "model", args, s.BindData)
	if err != nil {
		return err
	}

	_, games, err := dataset.Processing(s.DataPath, s.Skill)
	if err != nil {
		return err
	}
	model, err := recommend.Train(games, recommend.DefaultGrid(), log)
	if err != nil {
		return err
	}
	fmt.Printf("Rule: %s, prune: %.2f, test accuracy: %.3f\n", model.Rule, model.Prune, model.TestAccuracy)

	q, err := prompt.Ask(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	name, err := model.Recommend(q)
	if err != nil {
		return err
	}
	fmt.Println("Best opening line to follow:", name)
	return nil
}

func runServer(s config.Settings, args []string) error {
	fs, log, err := setup(&s, "server", args)
	if err != nil {
		return err
	}
	addr := s.ServerAddr
	if fs.NArg() > 0 {
		addr = ":" + fs.Arg(0)
	}
	return primaryserver.NewServer(log).StartServer(addr)
}

func runClient(ctx context.Context, s config.Settings, args []string) error {
	name, _ := os.Hostname()
	fs, log, err := setup(&s, "client", args, s.BindEngine, func(fs *flag.FlagSet) {
		fs.StringVar(&name, "name", name, "Worker name reported with results")
	})
	if err != nil {
		return err
	}
	if fs.NArg() > 0 {
		s.ServerURL = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		s.EnginePath = fs.Arg(1)
	}

	sess, err := engine.Open(s.Engine(), log)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	client := worker.NewClient(s.ServerURL, name, sess, log)
	client.SetStrictMoves(s.StrictMoves)
	defer client.Close()

	client.WorkLoop(ctx)
	return nil
}

func runExample(ctx context.Context, s config.Settings, args []string) error {
	_, log, err := setup(&s, "example", args)
	if err != nil {
		return err
	}
	fmt.Println("Starting example server...")

	srv := primaryserver.NewServer(log)
	errc := make(chan error, 1)
	go func() { errc <- srv.StartServer(s.ServerAddr) }()

	select {
	case err := <-errc:
		return err
	case <-time.After(time.Second):
	}

	game := map[string]interface{}{
		"id":      "example_job",
		"moves":   []string{"e4", "e5", "Bc4", "Nc6", "Qh5", "Nf6", "Qxf7#"},
		"time_ms": 100,
	}
	body, err := json.Marshal(game)
	if err != nil {
		return err
	}
	resp, err := http.Post(s.ServerURL+"/analyze", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("submitting job: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("submitting job: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	var response map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return err
	}
	fmt.Printf("Submitted job, ID: %s\n", response["job_id"])
	fmt.Println("Now run a client to process the job:")
	fmt.Printf("chess-insights client %s /path/to/stockfish\n", s.ServerURL)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
