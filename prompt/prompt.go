// Package prompt asks the player about their next game on the console.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jacokyle01/chess-insights/recommend"
)

const retry = "Input valid responses"

// Ask reads the opponent's rating, the opponent's colour and the player's
// own rating from r, asking again until all three are valid.
func Ask(r io.Reader, w io.Writer) (recommend.Query, error) {
	sc := bufio.NewScanner(r)
	read := func(question string) (string, error) {
		fmt.Fprint(w, question)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(sc.Text()), nil
	}

	for {
		oppRating, err := read("Opponent's ELO rating: ")
		if err != nil {
			return recommend.Query{}, err
		}
		oppColor, err := read("Opponent's starting color: ")
		if err != nil {
			return recommend.Query{}, err
		}
		ownRating, err := read("Your ELO rating: ")
		if err != nil {
			return recommend.Query{}, err
		}

		q, ok := parse(oppRating, strings.ToLower(oppColor), ownRating)
		if ok {
			return q, nil
		}
		fmt.Fprintln(w, retry)
	}
}

func digits(s string) (int, bool) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func parse(oppRating, oppColor, ownRating string) (recommend.Query, bool) {
	opp, ok1 := digits(oppRating)
	own, ok2 := digits(ownRating)
	if !ok1 || !ok2 || (oppColor != "white" && oppColor != "black") {
		return recommend.Query{}, false
	}
	return recommend.Query{OpponentRating: opp, OpponentColor: oppColor, OwnRating: own}, true
}
