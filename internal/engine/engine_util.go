package engine

import (
	"fmt"
	"strings"
)

// ParseBoard reads a board drawn with B, W and '.', row by row from the top.
// Whitespace is ignored.
func ParseBoard(s string) (*Board, error) {
	b := &Board{}
	i := 0
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if i >= cellCount {
			return nil, fmt.Errorf("parse board: more than %d cells", cellCount)
		}
		switch r {
		case 'B', 'b':
			b.cells[i] = Black
		case 'W', 'w':
			b.cells[i] = White
		case '.':
		default:
			return nil, fmt.Errorf("parse board: unexpected %q at cell %d", r, i)
		}
		i++
	}
	if i != cellCount {
		return nil, fmt.Errorf("parse board: got %d cells, want %d", i, cellCount)
	}
	return b, nil
}

// MustParseBoard is ParseBoard for fixed test positions.
func MustParseBoard(s string) *Board {
	b, err := ParseBoard(s)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Board) String() string {
	var sb strings.Builder
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			if x > 0 {
				sb.WriteByte(' ')
			}
			switch b.cells[At(x, y)] {
			case Black:
				sb.WriteByte('B')
			case White:
				sb.WriteByte('W')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParsePos accepts "d3" style coordinates (column letter, row number).
func ParsePos(s string) (Pos, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return 0, fmt.Errorf("parse pos %q: want column letter and row digit", s)
	}
	x, y := int(s[0]-'a'), int(s[1]-'1')
	if !inside(x, y) {
		return 0, fmt.Errorf("parse pos %q: %w", s, ErrOutOfBounds)
	}
	return At(x, y), nil
}
