package engine

// Phase mirrors the two states of a game.
type Phase string

const (
	PhaseAwaitingMove Phase = "awaiting_move"
	PhaseGameOver     Phase = "game_over"
)

// Game is one board plus whose turn it is.
type Game struct {
	board *Board
	turn  Cell
	over  bool
}

// Outcome describes an accepted move.
type Outcome struct {
	Color   Cell
	Pos     Pos
	Flipped PosSet // includes Pos
	Next    Cell   // Empty once the game is over
	Passed  bool   // the opponent had no move and was skipped
	Over    bool
}

func NewGame() *Game {
	return &Game{board: New(), turn: Black}
}

// NewGameFrom starts a game from an arbitrary position with turn to move.
func NewGameFrom(b *Board, turn Cell) *Game {
	turn.Opposite() // turn must be a colour
	return &Game{board: b.Clone(), turn: turn}
}

func (g *Game) Turn() Cell {
	if g.over {
		return Empty
	}
	return g.turn
}

func (g *Game) Over() bool { return g.over }

func (g *Game) Phase() Phase {
	if g.over {
		return PhaseGameOver
	}
	return PhaseAwaitingMove
}

// Board returns a copy of the current position.
func (g *Game) Board() *Board { return g.board.Clone() }

func (g *Game) Score() Score { return g.board.Score() }

func (g *Game) LegalMoves() PosSet {
	if g.over {
		return 0
	}
	return g.board.LegalMoves(g.turn)
}

// Apply plays (x, y) for the player to move.
func (g *Game) Apply(x, y int) (Outcome, error) {
	if g.over {
		return Outcome{}, ErrGameOver
	}
	mover := g.turn
	flipped, err := g.board.Play(x, y, mover)
	if err != nil {
		return Outcome{}, err
	}

	next, passed, over := nextTurn(g.board, mover)
	if over {
		g.over = true
	} else {
		g.turn = next
	}
	return Outcome{
		Color:   mover,
		Pos:     At(x, y),
		Flipped: flipped,
		Next:    next,
		Passed:  passed,
		Over:    over,
	}, nil
}
