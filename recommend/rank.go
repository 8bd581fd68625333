// Package recommend trains a decision tree that suggests an opening from the
// players' ranks and the hoped-for result.
package recommend

import "strings"

// Ranks lists the rating categories from weakest to strongest.
var Ranks = []string{"Novice", "Class D", "Class C", "Class B", "Class A", "CM", "FM", "IM", "GM"}

var rankFloors = []int{1200, 1400, 1600, 1800, 2000, 2300, 2400, 2500}

// Rank maps an Elo rating to its category.
func Rank(rating int) string {
	for i, floor := range rankFloors {
		if rating < floor {
			return Ranks[i]
		}
	}
	return Ranks[len(Ranks)-1]
}

// SimplifyOpening drops the variation from an opening name. Words are kept up
// to the first one ending in ':' (kept without the colon) or until a word
// starting with '#' or a '|' separator.
func SimplifyOpening(name string) string {
	var kept []string
	for _, word := range strings.Fields(name) {
		if strings.HasSuffix(word, ":") {
			kept = append(kept, strings.TrimSuffix(word, ":"))
			break
		}
		if strings.HasPrefix(word, "#") || word == "|" {
			break
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}
