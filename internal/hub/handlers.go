package hub

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/othello-net/othello-server/internal/engine"
	"github.com/othello-net/othello-server/internal/lobby"
	"github.com/othello-net/othello-server/internal/registry"
	"github.com/othello-net/othello-server/internal/storage"
	wire "github.com/othello-net/othello-server/pkg/types"
)

// Handlers below run on the hub goroutine only. Each either fails before
// touching state or completes every mutation it starts.

func (h *Hub) hello(id, nickname string) error {
	if err := h.sessions.SetNickname(id, nickname); err != nil {
		return err
	}
	h.sessions.Notify(id, wire.ConnectedParam{SessionID: id, UsersCount: h.sessions.Len()})
	h.log.Info("session connected", zap.String("session", id), zap.String("nickname", nickname))
	return nil
}

func (h *Hub) join(id string) error {
	s, ok := h.sessions.Lookup(id)
	if !ok {
		return registry.ErrUnknownSession
	}
	if !s.HasNickname() {
		return ErrNoNickname
	}
	if s.Board != "" {
		if head, ok := h.boards.Head(); ok && head.Black.Session == id {
			return ErrSelfPairing
		}
		return ErrAlreadySeated
	}

	if b, ok := h.boards.Pair(id); ok {
		s.Board = b.ID
		blackNick := h.nickname(b.Black.Session)
		h.sessions.Notify(b.Black.Session, wire.OpponentJoinedBoard{
			SessionID: b.Black.Session,
			BoardID:   b.ID,
			Opponent:  s.Nickname,
		})
		h.sessions.Notify(id, wire.JoinedBoard{
			SessionID: id,
			BoardID:   b.ID,
			Color:     wire.ColorWhite,
			Opponent:  &blackNick,
		})
		h.log.Info("board paired",
			zap.String("board", b.ID),
			zap.String("black", b.Black.Session),
			zap.String("white", id),
			zap.Duration("waited", b.Waited()),
		)
		return nil
	}

	boardID, err := h.ids.BoardID()
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}
	if _, taken := h.boards.Get(boardID); taken {
		return fmt.Errorf("join: board id %s already in use", boardID)
	}
	b := h.boards.Open(boardID, id)
	s.Board = b.ID
	h.sessions.Notify(id, wire.JoinedBoard{
		SessionID: id,
		BoardID:   b.ID,
		Color:     wire.ColorBlack,
	})
	h.log.Info("board waiting", zap.String("board", b.ID), zap.String("black", id))
	return nil
}

// seat resolves the board and the caller's colour on it.
func (h *Hub) seat(id, boardID string) (*lobby.Board, engine.Cell, error) {
	if _, ok := h.sessions.Lookup(id); !ok {
		return nil, engine.Empty, registry.ErrUnknownSession
	}
	b, ok := h.boards.Get(boardID)
	if !ok {
		return nil, engine.Empty, ErrUnknownBoard
	}
	color, ok := b.ColorOf(id)
	if !ok {
		return nil, engine.Empty, ErrNotSeated
	}
	if !b.Paired() {
		return nil, engine.Empty, ErrNotPaired
	}
	return b, color, nil
}

func (h *Hub) play(id, boardID string, pos wire.Pos) error {
	b, color, err := h.seat(id, boardID)
	if err != nil {
		return err
	}
	if b.Game.Over() {
		return engine.ErrGameOver
	}
	if b.Game.Turn() != color {
		return ErrWrongTurn
	}
	out, err := b.Game.Apply(pos.X(), pos.Y())
	if err != nil {
		return fmt.Errorf("play %s at %v: %w", color, pos, err)
	}

	peer := b.Peer(id)
	h.sessions.Notify(peer, wire.PlayedBoard{SessionID: peer, BoardID: b.ID, Pos: pos})

	switch {
	case out.Over:
		score := b.Game.Score()
		h.log.Info("game finished",
			zap.String("board", b.ID),
			zap.Int("black", score.Black),
			zap.Int("white", score.White),
		)
	case out.Passed:
		h.log.Debug("turn passed",
			zap.String("board", b.ID),
			zap.Stringer("keeps", out.Next),
		)
	}
	return nil
}

func (h *Hub) gameOver(id, boardID string, reported wire.Score) error {
	b, _, err := h.seat(id, boardID)
	if err != nil {
		return err
	}
	if !b.Game.Over() {
		return ErrGameNotOver
	}

	if !b.Recorded {
		b.Recorded = true
		h.record(b, reported)
	}

	if s, ok := h.sessions.Lookup(id); ok {
		s.Board = ""
	}
	if b.Vacate(id) {
		h.boards.Remove(b.ID)
		h.log.Debug("board closed", zap.String("board", b.ID))
	}
	return nil
}

func (h *Hub) record(b *lobby.Board, reported wire.Score) {
	score := b.Game.Score()
	if score.Black != reported.Black() || score.White != reported.White() {
		h.log.Warn("client score differs from server",
			zap.String("board", b.ID),
			zap.Ints("client", reported[:]),
			zap.Ints("server", []int{score.Black, score.White}),
		)
	}
	if h.rec == nil {
		return
	}
	h.rec.Record(storage.GameResult{
		BoardID:    b.ID,
		Black:      h.nickname(b.Black.Session),
		White:      h.nickname(b.White.Session),
		BlackScore: score.Black,
		WhiteScore: score.White,
		Winner:     storage.WinnerOf(score.Black, score.White),
		StartedAt:  b.PairedAt,
		FinishedAt: h.now(),
	})
}

// disconnect is idempotent: a second call for the same id finds nothing.
func (h *Hub) disconnect(id string) {
	s, ok := h.sessions.Unregister(id)
	if !ok {
		return
	}
	h.log.Info("session disconnected", zap.String("session", id))
	if s.Board == "" {
		return
	}

	b, ok := h.boards.Remove(s.Board)
	if !ok {
		return
	}
	peer := b.Peer(id)
	if _, seated := b.ColorOf(peer); !seated {
		return
	}
	if ps, ok := h.sessions.Lookup(peer); ok {
		ps.Board = ""
	}
	h.sessions.Notify(peer, wire.OpponentDisconnected{SessionID: peer, BoardID: b.ID})
	h.log.Info("board abandoned", zap.String("board", b.ID), zap.String("notified", peer))
}

func (h *Hub) nickname(id string) string {
	if s, ok := h.sessions.Lookup(id); ok {
		return s.Nickname
	}
	return ""
}
