package engine

import (
	"errors"
)

var ErrIllegalMove = errors.New("illegal move")
var ErrOutOfBounds = errors.New("position off the board")
var ErrGameOver = errors.New("game already over")

type direction struct{ dx, dy int }

var directions = [8]direction{
	{0, -1},  // up
	{0, 1},   // down
	{-1, 0},  // left
	{1, 0},   // right
	{-1, -1}, // up-left
	{1, -1},  // up-right
	{-1, 1},  // down-left
	{1, 1},   // down-right
}

type Board struct {
	cells [cellCount]Cell
}

// New returns the standard opening position: white on d4 and e5, black on
// e4 and d5.
func New() *Board {
	b := &Board{}
	lo, hi := Size/2-1, Size/2
	b.cells[At(lo, lo)] = White
	b.cells[At(hi, lo)] = Black
	b.cells[At(lo, hi)] = Black
	b.cells[At(hi, hi)] = White
	return b
}

// Cell panics when x or y is off the board.
func (b *Board) Cell(x, y int) Cell {
	if !inside(x, y) {
		panic("engine: cell out of range")
	}
	return b.cells[At(x, y)]
}

func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// scan walks from a stone of the moving colour along d. It reports the empty
// cell that ends a run of opposing stones, and the run itself.
func (b *Board) scan(from Pos, d direction, opp Cell) (Pos, PosSet, bool) {
	x, y := from.X()+d.dx, from.Y()+d.dy
	if !inside(x, y) || b.cells[At(x, y)] != opp {
		return 0, 0, false
	}

	var run PosSet
	for inside(x, y) && b.cells[At(x, y)] == opp {
		run.Add(At(x, y))
		x, y = x+d.dx, y+d.dy
	}
	if !inside(x, y) || b.cells[At(x, y)] != Empty {
		return 0, 0, false
	}
	return At(x, y), run, true
}

func (b *Board) LegalMoves(color Cell) PosSet {
	moves, _ := b.LegalMovesWithCaptures(color, -1)
	return moves
}

// LegalMovesWithCaptures returns the legal destinations for color and, when
// candidate is one of them, every stone flipped by playing there including
// candidate itself. Pass a negative candidate to skip capture collection.
func (b *Board) LegalMovesWithCaptures(color Cell, candidate Pos) (PosSet, PosSet) {
	opp := color.Opposite()

	var moves, captured PosSet
	for i := Pos(0); i < cellCount; i++ {
		if b.cells[i] != color {
			continue
		}
		for _, d := range directions {
			dest, run, ok := b.scan(i, d, opp)
			if !ok {
				continue
			}
			moves.Add(dest)
			if dest == candidate {
				captured |= run
			}
		}
	}
	if candidate >= 0 && moves.Has(candidate) {
		captured.Add(candidate)
	} else {
		captured = 0
	}
	return moves, captured
}

func (b *Board) CanPlay(color Cell) bool {
	return !b.LegalMoves(color).Empty()
}

func (b *Board) Apply(x, y int, color Cell) error {
	_, err := b.Play(x, y, color)
	return err
}

// Play places a stone and returns the cells that changed colour, the new
// stone included. The board is untouched on error.
func (b *Board) Play(x, y int, color Cell) (PosSet, error) {
	if !inside(x, y) {
		return 0, ErrOutOfBounds
	}
	pos := At(x, y)
	moves, captured := b.LegalMovesWithCaptures(color, pos)
	if !moves.Has(pos) {
		return 0, ErrIllegalMove
	}
	for _, p := range captured.Slice() {
		b.cells[p] = color
	}
	return captured, nil
}

func (b *Board) Score() Score {
	var s Score
	for _, c := range b.cells {
		switch c {
		case Black:
			s.Black++
		case White:
			s.White++
		}
	}
	return s
}
