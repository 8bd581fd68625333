package analysis

import (
	"reflect"
	"testing"

	"github.com/notnil/chess"
)

func position(t *testing.T, fen string) *chess.Position {
	t.Helper()
	pos, err := startPosition(fen)
	if err != nil {
		t.Fatal(err)
	}
	return pos
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		san  string
		want []Piece
	}{
		{"pawn", "", "e4", []Piece{Pawn}},
		{"knight", "", "Nf3", []Piece{Knight}},
		{"king side castle", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "O-O", []Piece{King, Rook}},
		{"queen side castle", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "O-O-O", []Piece{King, Rook}},
		{"king step", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "Kf1", []Piece{King}},
		{"promotion", "8/P7/8/8/8/8/7k/K7 w - - 0 1", "a8=Q", []Piece{Pawn}},
		{"under promotion", "8/P7/8/8/8/8/7k/K7 w - - 0 1", "a8=N", []Piece{Pawn}},
		{"queen", "4k3/8/8/8/8/8/8/3QK3 w - - 0 1", "Qd5", []Piece{Queen}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := position(t, tt.fen)
			m, err := chess.AlgebraicNotation{}.Decode(pos, tt.san)
			if err != nil {
				t.Fatal(err)
			}
			got, err := Classify(m, pos)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify(%s) = %v, want %v", tt.san, got, tt.want)
			}
		})
	}
}

func TestTotals(t *testing.T) {
	a := NewTotals()
	if len(a) != 6 || a.Sum() != 0 {
		t.Fatalf("NewTotals() = %v", a)
	}
	a.Add([]Piece{King, Rook}, 12)
	a.Add([]Piece{Pawn}, -5)

	b := NewTotals()
	b.Add([]Piece{Rook}, 3)
	a.Merge(b)

	want := Totals{Pawn: -5, Knight: 0, Bishop: 0, Rook: 15, Queen: 0, King: 12}
	if !reflect.DeepEqual(a, want) {
		t.Errorf("got %v, want %v", a, want)
	}
	if s := a.String(); s != "P:-5 N:0 B:0 R:15 Q:0 K:12" {
		t.Errorf("String() = %q", s)
	}
}
