package analysis

import (
	"errors"
	"sort"
	"testing"

	"github.com/notnil/chess"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		ev   Evaluation
		pov  chess.Color
		want int
	}{
		{"cp white", Cp(35), chess.White, 35},
		{"cp black", Cp(35), chess.Black, -35},
		{"negative cp white", Cp(-120), chess.White, -120},
		{"negative cp black", Cp(-120), chess.Black, 120},
		{"zero cp black", Cp(0), chess.Black, 0},
		{"mate in 5", MateIn(5), chess.White, 4995},
		{"mated in 3", MateIn(-3), chess.White, -4997},
		{"mate in 5 black", MateIn(5), chess.Black, -4995},
		{"mated in 3 black", MateIn(-3), chess.Black, 4997},
		{"white checkmated", Mated(), chess.White, -MateOffset},
		{"black checkmated", Mated(), chess.Black, MateOffset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.ev, tt.pov)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%v, %v) = %d, want %d", tt.ev, tt.pov, got, tt.want)
			}
		})
	}
}

func TestNormalizeMalformed(t *testing.T) {
	var perr *ParseError
	if _, err := Normalize(Evaluation{Value: 10}, chess.White); !errors.As(err, &perr) {
		t.Errorf("missing tag: got %v, want ParseError", err)
	}
	if _, err := Normalize(Cp(10), chess.NoColor); !errors.As(err, &perr) {
		t.Errorf("missing side: got %v, want ParseError", err)
	}
}

func TestMateDominatesCentipawns(t *testing.T) {
	for _, n := range []int{1, 2, 10, 50} {
		mate, _ := Normalize(MateIn(n), chess.White)
		mated, _ := Normalize(MateIn(-n), chess.White)
		if mate != MateOffset-n || mated != -(MateOffset-n) {
			t.Errorf("mate %d: got %d/%d", n, mate, mated)
		}
		for _, cp := range []int{-4000, -1, 0, 1, 4000} {
			v, _ := Normalize(Cp(cp), chess.White)
			if v >= mate || v <= mated {
				t.Errorf("cp %d = %d not inside mate %d range (%d, %d)", cp, v, n, mated, mate)
			}
		}
	}
}

func TestNormalizeOrdering(t *testing.T) {
	// Worst to best for White, all reported from White's side. Nearer
	// mates are more extreme in both directions.
	ordered := []Evaluation{
		Mated(), MateIn(-1), MateIn(-2), MateIn(-20),
		Cp(-2000), Cp(-50), Cp(0), Cp(50), Cp(2000),
		MateIn(12), MateIn(1),
	}
	scores := make([]int, len(ordered))
	for i, ev := range ordered {
		s, err := Normalize(ev, chess.White)
		if err != nil {
			t.Fatal(err)
		}
		scores[i] = s
	}
	if !sort.IntsAreSorted(scores) {
		t.Fatalf("scores not ascending: %v", scores)
	}
	for i := 1; i < len(scores); i++ {
		if scores[i] == scores[i-1] {
			t.Errorf("%v and %v normalize to the same score %d", ordered[i-1], ordered[i], scores[i])
		}
	}

	// The same evaluations reported from Black's side reverse the order, so
	// a checkmated Black is the best White can get.
	for i := 1; i < len(ordered); i++ {
		a, _ := Normalize(ordered[i-1], chess.Black)
		b, _ := Normalize(ordered[i], chess.Black)
		if a <= b {
			t.Errorf("black pov: %v=%d should be above %v=%d", ordered[i-1], a, ordered[i], b)
		}
	}
}
