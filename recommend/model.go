package recommend

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/jacokyle01/chess-insights/dataset"
	"github.com/rs/zerolog"
	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/evaluation"
	"github.com/sjwhitworth/golearn/trees"
)

const (
	// TestShare is held back from training to report the final accuracy.
	TestShare = 0.2
	// DevShare of the remaining games scores each grid point.
	DevShare = 0.25
	// MinGames is the smallest dataset Train accepts.
	MinGames = 20
)

var (
	ErrTooFewGames = errors.New("not enough games to train a model")
	ErrColor       = errors.New("opponent colour must be white or black")
	ErrRating      = errors.New("ratings must be positive")
)

var winners = []string{"black", "draw", "white"}

// Rule generators selectable in a Grid.
const (
	InformationGain = "information_gain"
	GainRatio       = "gain_ratio"
	Gini            = "gini"
)

func ruleGenerator(name string) (trees.RuleGenerator, error) {
	switch name {
	case InformationGain:
		return new(trees.InformationGainRuleGenerator), nil
	case GainRatio:
		return new(trees.InformationGainRatioRuleGenerator), nil
	case Gini:
		return new(trees.GiniCoefficientRuleGenerator), nil
	}
	return nil, fmt.Errorf("unknown rule generator %q", name)
}

// Grid is the set of tree settings tried during training.
type Grid struct {
	Prune []float64
	Rules []string
}

func DefaultGrid() Grid {
	return Grid{
		Prune: []float64{0, 0.1, 0.2, 0.3},
		Rules: []string{InformationGain, GainRatio, Gini},
	}
}

type Model struct {
	tree  *trees.ID3DecisionTree
	label string

	Prune        float64
	Rule         string
	DevAccuracy  float64
	TestAccuracy float64
}

func column(prefix, value string) string {
	return prefix + strings.ToLower(strings.ReplaceAll(value, " ", "_"))
}

func header() []string {
	var h []string
	for _, w := range winners {
		h = append(h, column("winner_", w))
	}
	for _, r := range Ranks {
		h = append(h, column("white_rank_", r))
	}
	for _, r := range Ranks {
		h = append(h, column("black_rank_", r))
	}
	return append(h, "opening")
}

func oneHot(values []string, v string) []string {
	row := make([]string, len(values))
	for i, x := range values {
		row[i] = "0"
		if x == v {
			row[i] = "1"
		}
	}
	return row
}

func row(winner, whiteRank, blackRank, label string) []string {
	r := oneHot(winners, winner)
	r = append(r, oneHot(Ranks, whiteRank)...)
	r = append(r, oneHot(Ranks, blackRank)...)
	return append(r, label)
}

func instances(rows [][]string) (*base.DenseInstances, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header()); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return base.ParseCSVToInstancesFromReader(bytes.NewReader(buf.Bytes()), true)
}

func accuracy(tree *trees.ID3DecisionTree, data base.FixedDataGrid) (float64, error) {
	pred, err := tree.Predict(data)
	if err != nil {
		return 0, err
	}
	cm, err := evaluation.GetConfusionMatrix(data, pred)
	if err != nil {
		return 0, fmt.Errorf("confusion matrix: %w", err)
	}
	return evaluation.GetAccuracy(cm), nil
}

// Train fits one tree per grid point on a training split, keeps the one
// with the best development accuracy and reports its accuracy on games it
// never saw.
func Train(games []dataset.Game, grid Grid, log zerolog.Logger) (*Model, error) {
	var rows [][]string
	for _, g := range games {
		label := SimplifyOpening(g.OpeningName)
		if label == "" {
			continue
		}
		rows = append(rows, row(g.Winner, Rank(g.WhiteRating), Rank(g.BlackRating), label))
	}
	if len(rows) < MinGames {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewGames, len(rows), MinGames)
	}
	if len(grid.Prune) == 0 || len(grid.Rules) == 0 {
		return nil, errors.New("empty parameter grid")
	}

	data, err := instances(rows)
	if err != nil {
		return nil, fmt.Errorf("build instances: %w", err)
	}
	modelData, testData := base.InstancesTrainTestSplit(data, TestShare)
	trainData, devData := base.InstancesTrainTestSplit(modelData, DevShare)

	best := &Model{DevAccuracy: -1, label: rows[0][len(rows[0])-1]}
	for _, name := range grid.Rules {
		rule, err := ruleGenerator(name)
		if err != nil {
			return nil, err
		}
		for _, prune := range grid.Prune {
			tree := trees.NewID3DecisionTreeFromRule(prune, rule)
			if err := tree.Fit(trainData); err != nil {
				return nil, fmt.Errorf("fit %s/%.2f: %w", name, prune, err)
			}
			acc, err := accuracy(tree, devData)
			if err != nil {
				return nil, err
			}
			log.Debug().Str("rule", name).Float64("prune", prune).Float64("dev_accuracy", acc).Msg("grid point")
			if acc > best.DevAccuracy {
				best.tree, best.Rule, best.Prune, best.DevAccuracy = tree, name, prune, acc
			}
		}
	}

	if best.TestAccuracy, err = accuracy(best.tree, testData); err != nil {
		return nil, err
	}
	log.Info().
		Str("rule", best.Rule).
		Float64("prune", best.Prune).
		Float64("test_accuracy", best.TestAccuracy).
		Msg("model trained")
	return best, nil
}

// Query describes the game the player is about to play.
type Query struct {
	OpponentRating int
	OpponentColor  string
	OwnRating      int
}

// Recommend predicts the opening of a game in which the player beats the
// opponent described by q.
func (m *Model) Recommend(q Query) (string, error) {
	if q.OpponentRating <= 0 || q.OwnRating <= 0 {
		return "", ErrRating
	}
	opp, own := Rank(q.OpponentRating), Rank(q.OwnRating)

	var r []string
	switch strings.ToLower(q.OpponentColor) {
	case "white":
		r = row("black", opp, own, m.label)
	case "black":
		r = row("white", own, opp, m.label)
	default:
		return "", ErrColor
	}

	data, err := instances([][]string{r})
	if err != nil {
		return "", err
	}
	pred, err := m.tree.Predict(data)
	if err != nil {
		return "", err
	}
	return base.GetClass(pred, 0), nil
}
