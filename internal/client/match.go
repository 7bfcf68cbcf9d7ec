package client

import (
	"errors"
	"fmt"

	"github.com/othello-net/othello-server/internal/engine"
	wire "github.com/othello-net/othello-server/pkg/types"
)

var (
	ErrNotPaired   = errors.New("waiting for an opponent")
	ErrNotYourTurn = errors.New("not your turn")
	ErrWrongBoard  = errors.New("message for another board or session")
	ErrAbandoned   = errors.New("opponent left the board")
)

// Match mirrors the server's game so moves can be checked before sending.
type Match struct {
	SessionID string
	BoardID   string
	Color     engine.Cell
	Opponent  string

	game      *engine.Game
	paired    bool
	abandoned bool
	reported  bool
}

func NewMatch(j wire.JoinedBoard) *Match {
	m := &Match{
		SessionID: j.SessionID,
		BoardID:   j.BoardID,
		Color:     engine.Black,
		game:      engine.NewGame(),
	}
	if j.Color == wire.ColorWhite {
		m.Color = engine.White
	}
	if j.Opponent != nil {
		m.Opponent = *j.Opponent
		m.paired = true
	}
	return m
}

func (m *Match) owns(session, board string) bool {
	return session == m.SessionID && board == m.BoardID
}

func (m *Match) OpponentJoined(o wire.OpponentJoinedBoard) error {
	if !m.owns(o.SessionID, o.BoardID) {
		return ErrWrongBoard
	}
	m.Opponent = o.Opponent
	m.paired = true
	return nil
}

// Play checks and applies one of our own moves, returning the request to send.
func (m *Match) Play(x, y int) (wire.PlayBoard, error) {
	if err := m.ready(m.Color); err != nil {
		return wire.PlayBoard{}, err
	}
	if _, err := m.game.Apply(x, y); err != nil {
		return wire.PlayBoard{}, err
	}
	return wire.PlayBoard{SessionID: m.SessionID, BoardID: m.BoardID, Pos: wire.Pos{x, y}}, nil
}

// Apply replays a move relayed from the opponent.
func (m *Match) Apply(p wire.PlayedBoard) (engine.Outcome, error) {
	if !m.owns(p.SessionID, p.BoardID) {
		return engine.Outcome{}, ErrWrongBoard
	}
	if err := m.ready(m.Color.Opposite()); err != nil {
		return engine.Outcome{}, err
	}
	out, err := m.game.Apply(p.Pos.X(), p.Pos.Y())
	if err != nil {
		// client and server disagree about the rules
		return out, fmt.Errorf("opponent move %v: %w", p.Pos, err)
	}
	return out, nil
}

func (m *Match) ready(mover engine.Cell) error {
	switch {
	case m.abandoned:
		return ErrAbandoned
	case !m.paired:
		return ErrNotPaired
	case m.game.Over():
		return engine.ErrGameOver
	case m.game.Turn() != mover:
		return ErrNotYourTurn
	}
	return nil
}

// Abandon handles OpponentDisconnected and reports whether it was ours.
func (m *Match) Abandon(d wire.OpponentDisconnected) bool {
	if !m.owns(d.SessionID, d.BoardID) {
		return false
	}
	m.abandoned = true
	return true
}

// GameOver returns the message to send once the local game has ended. It
// yields true only the first time.
func (m *Match) GameOver() (wire.GameOver, bool) {
	if !m.game.Over() || m.reported || m.abandoned {
		return wire.GameOver{}, false
	}
	m.reported = true
	s := m.game.Score()
	return wire.GameOver{
		SessionID: m.SessionID,
		BoardID:   m.BoardID,
		Score:     wire.Score{s.Black, s.White},
	}, true
}

func (m *Match) Paired() bool    { return m.paired }
func (m *Match) Abandoned() bool { return m.abandoned }
func (m *Match) Over() bool      { return m.game.Over() }
func (m *Match) MyTurn() bool    { return m.ready(m.Color) == nil }

func (m *Match) Turn() engine.Cell         { return m.game.Turn() }
func (m *Match) Board() *engine.Board      { return m.game.Board() }
func (m *Match) Score() engine.Score       { return m.game.Score() }
func (m *Match) LegalMoves() engine.PosSet { return m.game.LegalMoves() }
