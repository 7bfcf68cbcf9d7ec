package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/othello-net/othello-server/internal/engine"
)

const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	white  = "\033[37m"
)

type palette struct{ on bool }

func (p palette) paint(color, s string) string {
	if !p.on {
		return s
	}
	return color + s + reset
}

// renderBoard draws the grid with a-h across and 1-8 down; hints are marked
// with '*'.
func renderBoard(b *engine.Board, hints engine.PosSet, p palette) string {
	var sb strings.Builder
	sb.WriteString("  ")
	for x := 0; x < engine.Size; x++ {
		sb.WriteString(" " + p.paint(cyan, string(rune('a'+x))))
	}
	sb.WriteByte('\n')
	for y := 0; y < engine.Size; y++ {
		sb.WriteString(p.paint(cyan, fmt.Sprintf("%2d", y+1)))
		for x := 0; x < engine.Size; x++ {
			sb.WriteByte(' ')
			switch b.Cell(x, y) {
			case engine.Black:
				sb.WriteString(p.paint(red, "B"))
			case engine.White:
				sb.WriteString(p.paint(white, "W"))
			default:
				if hints.Has(engine.At(x, y)) {
					sb.WriteString(p.paint(green, "*"))
				} else {
					sb.WriteByte('.')
				}
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// parseMove accepts "d3" or "x y" with zero-based coordinates.
func parseMove(args []string) (int, int, error) {
	switch len(args) {
	case 1:
		p, err := engine.ParsePos(args[0])
		if err != nil {
			return 0, 0, err
		}
		return p.X(), p.Y(), nil
	case 2:
		x, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, 0, fmt.Errorf("bad x %q", args[0])
		}
		y, err := strconv.Atoi(args[1])
		if err != nil {
			return 0, 0, fmt.Errorf("bad y %q", args[1])
		}
		return x, y, nil
	}
	return 0, 0, fmt.Errorf("usage: play d3 | play <x> <y>")
}

func formatMoves(set engine.PosSet) string {
	moves := set.Slice()
	if len(moves) == 0 {
		return "none"
	}
	names := make([]string, len(moves))
	for i, p := range moves {
		names[i] = p.String()
	}
	return strings.Join(names, " ")
}
