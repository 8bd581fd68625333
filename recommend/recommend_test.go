package recommend

import (
	"errors"
	"testing"

	"github.com/jacokyle01/chess-insights/dataset"
	"github.com/rs/zerolog"
)

func TestRank(t *testing.T) {
	tests := []struct {
		rating int
		want   string
	}{
		{800, "Novice"},
		{1199, "Novice"},
		{1200, "Class D"},
		{1450, "Class C"},
		{1600, "Class B"},
		{1999, "Class A"},
		{2000, "CM"},
		{2350, "FM"},
		{2400, "IM"},
		{2500, "GM"},
		{2850, "GM"},
	}
	for _, tt := range tests {
		if got := Rank(tt.rating); got != tt.want {
			t.Errorf("Rank(%d) = %q, want %q", tt.rating, got, tt.want)
		}
	}
}

func TestSimplifyOpening(t *testing.T) {
	tests := map[string]string{
		"Slav Defense: Exchange Variation":         "Slav Defense",
		"Italian Game | Hungarian Defense":         "Italian Game",
		"Queen's Pawn Game #2":                     "Queen's Pawn Game",
		"Sicilian Defense":                         "Sicilian Defense",
		"King's Pawn Game: Leonardis Variation":    "King's Pawn Game",
		"Scandinavian Defense: Mieses-Kotroc |  x": "Scandinavian Defense",
		"":                                         "",
	}
	for in, want := range tests {
		if got := SimplifyOpening(in); got != want {
			t.Errorf("SimplifyOpening(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHeaderMatchesRow(t *testing.T) {
	h := header()
	r := row("white", "GM", "Novice", "Italian Game")
	if len(h) != len(r) {
		t.Fatalf("header has %d columns, row has %d", len(h), len(r))
	}
	ones := 0
	for i, v := range r[:len(r)-1] {
		if v == "1" {
			ones++
			switch h[i] {
			case "winner_white", "white_rank_gm", "black_rank_novice":
			default:
				t.Errorf("unexpected hot column %s", h[i])
			}
		}
	}
	if ones != 3 {
		t.Errorf("%d hot columns, want 3", ones)
	}
}

func syntheticGames() []dataset.Game {
	openings := map[string]string{
		"white": "Italian Game: Two Knights Defense",
		"black": "Sicilian Defense: Najdorf Variation",
		"draw":  "French Defense #3",
	}
	var games []dataset.Game
	for i := 0; i < 90; i++ {
		winner := winners[i%3]
		games = append(games, dataset.Game{
			Winner:      winner,
			WhiteRating: 1000 + (i/3%9)*200,
			BlackRating: 1000 + (i/3%9)*200,
			OpeningName: openings[winner],
		})
	}
	return games
}

func TestTrainRecommend(t *testing.T) {
	grid := Grid{Prune: []float64{0}, Rules: []string{InformationGain}}
	m, err := Train(syntheticGames(), grid, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if m.TestAccuracy < 0.99 {
		t.Errorf("test accuracy %v", m.TestAccuracy)
	}
	if m.Rule != InformationGain {
		t.Errorf("rule %q", m.Rule)
	}

	got, err := m.Recommend(Query{OpponentRating: 1500, OpponentColor: "white", OwnRating: 1300})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Sicilian Defense" {
		t.Errorf("playing black got %q", got)
	}
	got, err = m.Recommend(Query{OpponentRating: 1500, OpponentColor: "Black", OwnRating: 2100})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Italian Game" {
		t.Errorf("playing white got %q", got)
	}

	if _, err := m.Recommend(Query{OpponentRating: 1500, OpponentColor: "green", OwnRating: 1500}); !errors.Is(err, ErrColor) {
		t.Errorf("colour err = %v", err)
	}
	if _, err := m.Recommend(Query{OpponentColor: "white", OwnRating: 1500}); !errors.Is(err, ErrRating) {
		t.Errorf("rating err = %v", err)
	}
}

func TestTrainErrors(t *testing.T) {
	if _, err := Train(syntheticGames()[:5], DefaultGrid(), zerolog.Nop()); !errors.Is(err, ErrTooFewGames) {
		t.Errorf("err = %v", err)
	}
	if _, err := Train(syntheticGames(), Grid{Prune: []float64{0}, Rules: []string{"coin_flip"}}, zerolog.Nop()); err == nil {
		t.Error("expected error for unknown rule")
	}
}

func TestRuleGenerators(t *testing.T) {
	for _, name := range DefaultGrid().Rules {
		if _, err := ruleGenerator(name); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}
