package engine

import (
	"fmt"
	"math/bits"
)

// Size is the side length of the board.
const Size = 8

const cellCount = Size * Size

type Cell uint8

const (
	Empty Cell = iota
	Black
	White
)

// Opposite returns the other player's colour. Empty has no opposite and
// calling it on Empty is a programming error.
func (c Cell) Opposite() Cell {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		panic(fmt.Sprintf("engine: no opposite for cell %v", c))
	}
}

func (c Cell) String() string {
	switch c {
	case Empty:
		return "empty"
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return fmt.Sprintf("cell(%d)", uint8(c))
	}
}

// Pos is a linear board index, x + y*Size.
type Pos int

func At(x, y int) Pos { return Pos(x + y*Size) }

func (p Pos) X() int { return int(p) % Size }
func (p Pos) Y() int { return int(p) / Size }

func (p Pos) String() string {
	return fmt.Sprintf("%c%d", 'a'+p.X(), p.Y()+1)
}

func inside(x, y int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size
}

// PosSet is a de-duplicated set of board positions.
type PosSet uint64

func (s PosSet) Has(p Pos) bool { return s&(1<<uint(p)) != 0 }

func (s *PosSet) Add(p Pos) { *s |= 1 << uint(p) }

func (s PosSet) Len() int { return bits.OnesCount64(uint64(s)) }

func (s PosSet) Empty() bool { return s == 0 }

// Slice lists the positions in ascending order.
func (s PosSet) Slice() []Pos {
	out := make([]Pos, 0, s.Len())
	for v := uint64(s); v != 0; v &= v - 1 {
		out = append(out, Pos(bits.TrailingZeros64(v)))
	}
	return out
}

type Score struct {
	Black int `json:"black"`
	White int `json:"white"`
}

func (s Score) For(c Cell) int {
	switch c {
	case Black:
		return s.Black
	case White:
		return s.White
	default:
		return 0
	}
}

// Winner is Empty on a draw.
func (s Score) Winner() Cell {
	switch {
	case s.Black > s.White:
		return Black
	case s.White > s.Black:
		return White
	default:
		return Empty
	}
}
