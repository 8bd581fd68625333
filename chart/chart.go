// Package chart draws horizontal bar charts on a terminal.
package chart

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jacokyle01/chess-insights/analysis"
	"github.com/jacokyle01/chess-insights/openings"
	"github.com/muesli/termenv"
)

// Width is the number of cells the longest bar spans.
const Width = 40

type Bar struct {
	Label string
	Value float64
}

// Bars renders one chart. Bars are scaled against the largest magnitude;
// negative values are drawn with a lighter block behind a '-' marker.
func Bars(w io.Writer, title, xLabel, yLabel string, bars []Bar) error {
	out := termenv.NewOutput(w)
	var b strings.Builder

	b.WriteString(out.String(title).Bold().String())
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s / %s\n", yLabel, xLabel)

	labelWidth, peak := 0, 0.0
	for _, bar := range bars {
		labelWidth = max(labelWidth, len(bar.Label))
		peak = math.Max(peak, math.Abs(bar.Value))
	}

	for _, bar := range bars {
		cells := 0
		if peak > 0 {
			cells = int(math.Round(math.Abs(bar.Value) / peak * Width))
		}
		glyph, color, sign := "█", "4", " "
		if bar.Value < 0 {
			glyph, color, sign = "░", "1", "-"
		}
		fill := out.String(strings.Repeat(glyph, cells)).Foreground(out.Color(color))
		fmt.Fprintf(&b, "%-*s %s%s %s\n", labelWidth, bar.Label, sign, fill, formatValue(bar.Value))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// Openings renders times played, times won by White and the win percentage
// for every first move that was played often enough.
func Openings(w io.Writer, st *openings.Stats) error {
	moves := st.Frequent()
	played := make([]Bar, len(moves))
	won := make([]Bar, len(moves))
	pct := make([]Bar, len(moves))
	for i, m := range moves {
		played[i] = Bar{m, float64(st.FirstMoves[m])}
		won[i] = Bar{m, float64(st.WhiteWins[m])}
		pct[i] = Bar{m, math.Round(st.WinRatio[m]*10000) / 100}
	}
	if err := Bars(w, "Times Played", "Opening move", "Games", played); err != nil {
		return err
	}
	if err := Bars(w, "Times Won", "Opening move", "White wins", won); err != nil {
		return err
	}
	if err := Bars(w, "Win Percentage", "Opening move", "Percent", pct); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Best opening: %s\n", st.Best)
	return err
}

// Pieces renders the accumulated value of each piece.
func Pieces(w io.Writer, totals analysis.Totals) error {
	bars := make([]Bar, len(analysis.Pieces))
	for i, p := range analysis.Pieces {
		bars[i] = Bar{string(p), float64(totals[p])}
	}
	return Bars(w, "Piece Values", "Piece", "Centipawns", bars)
}
