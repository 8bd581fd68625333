// Package dataset loads recorded games from the Lichess games CSV.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jacokyle01/chess-insights/analysis"
)

// DefaultSkill is the minimum rating Filter applies unless told otherwise.
const DefaultSkill = 1200

// Game is one row of the dataset.
type Game struct {
	ID            string
	Rated         bool
	Turns         int
	VictoryStatus string
	Winner        string
	WhiteRating   int
	BlackRating   int
	Moves         []string
	OpeningECO    string
	OpeningName   string
}

// Line is the game's move list as the piece-value aggregator reads it.
func (g Game) Line() analysis.Game {
	return analysis.Game{ID: g.ID, Moves: g.Moves}
}

var required = []string{
	"id", "rated", "turns", "victory_status", "winner",
	"white_rating", "black_rating", "moves", "opening_name",
}

// Read parses the CSV in r. Columns are found by header name.
func Read(r io.Reader) ([]Game, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	get := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var games []Game
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		g := Game{
			ID:            get(rec, "id"),
			VictoryStatus: get(rec, "victory_status"),
			Winner:        get(rec, "winner"),
			Moves:         strings.Fields(get(rec, "moves")),
			OpeningECO:    get(rec, "opening_eco"),
			OpeningName:   get(rec, "opening_name"),
		}
		if g.Rated, err = strconv.ParseBool(get(rec, "rated")); err != nil {
			return nil, fmt.Errorf("line %d: rated: %w", line, err)
		}
		if g.Turns, err = strconv.Atoi(get(rec, "turns")); err != nil {
			return nil, fmt.Errorf("line %d: turns: %w", line, err)
		}
		if g.WhiteRating, err = strconv.Atoi(get(rec, "white_rating")); err != nil {
			return nil, fmt.Errorf("line %d: white_rating: %w", line, err)
		}
		if g.BlackRating, err = strconv.Atoi(get(rec, "black_rating")); err != nil {
			return nil, fmt.Errorf("line %d: black_rating: %w", line, err)
		}
		games = append(games, g)
	}
	return games, nil
}

// Load reads the dataset file at path.
func Load(path string) ([]Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	games, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return games, nil
}

// Filter keeps rated games where both players are rated at least skill.
func Filter(games []Game, skill int) []Game {
	var out []Game
	for _, g := range games {
		if g.Rated && g.WhiteRating >= skill && g.BlackRating >= skill {
			out = append(out, g)
		}
	}
	return out
}

// Processing loads path and returns every game plus the filtered subset.
func Processing(path string, skill int) (all, filtered []Game, err error) {
	all, err = Load(path)
	if err != nil {
		return nil, nil, err
	}
	return all, Filter(all, skill), nil
}

// Lines converts games for the piece-value aggregator, keeping at most
// limit games when limit is positive.
func Lines(games []Game, limit int) []analysis.Game {
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	lines := make([]analysis.Game, len(games))
	for i, g := range games {
		lines[i] = g.Line()
	}
	return lines
}
