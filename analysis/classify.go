package analysis

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// Piece is an upper-case piece symbol.
type Piece string

const (
	Pawn   Piece = "P"
	Knight Piece = "N"
	Bishop Piece = "B"
	Rook   Piece = "R"
	Queen  Piece = "Q"
	King   Piece = "K"
)

// Pieces lists the six symbols in reporting order.
var Pieces = []Piece{Pawn, Knight, Bishop, Rook, Queen, King}

func pieceOf(t chess.PieceType) (Piece, bool) {
	switch t {
	case chess.Pawn:
		return Pawn, true
	case chess.Knight:
		return Knight, true
	case chess.Bishop:
		return Bishop, true
	case chess.Rook:
		return Rook, true
	case chess.Queen:
		return Queen, true
	case chess.King:
		return King, true
	}
	return "", false
}

// IsCastling reports whether m is a king or queen side castle.
func IsCastling(m *chess.Move) bool {
	return m.HasTag(chess.KingSideCastle) || m.HasTag(chess.QueenSideCastle)
}

// Classify returns the pieces credited with move m played from pos. It must
// be called before m is applied.
func Classify(m *chess.Move, pos *chess.Position) ([]Piece, error) {
	if IsCastling(m) {
		return []Piece{King, Rook}, nil
	}
	if m.Promo() != chess.NoPieceType {
		return []Piece{Pawn}, nil
	}
	p, ok := pieceOf(pos.Board().Piece(m.S1()).Type())
	if !ok {
		return nil, fmt.Errorf("no piece on %s in %s", m.S1(), pos)
	}
	return []Piece{p}, nil
}

// Totals accumulates a signed score per piece symbol.
type Totals map[Piece]int

// NewTotals returns totals with every symbol present and zero.
func NewTotals() Totals {
	t := make(Totals, len(Pieces))
	for _, p := range Pieces {
		t[p] = 0
	}
	return t
}

// Add credits delta to each of pieces. Castling passes two pieces and both
// receive the full delta.
func (t Totals) Add(pieces []Piece, delta int) {
	for _, p := range pieces {
		t[p] += delta
	}
}

// Merge adds every entry of o into t.
func (t Totals) Merge(o Totals) {
	for p, v := range o {
		t[p] += v
	}
}

func (t Totals) Sum() int {
	var s int
	for _, v := range t {
		s += v
	}
	return s
}

func (t Totals) String() string {
	parts := make([]string, 0, len(Pieces))
	for _, p := range Pieces {
		parts = append(parts, fmt.Sprintf("%s:%d", p, t[p]))
	}
	return strings.Join(parts, " ")
}
