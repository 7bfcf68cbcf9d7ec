// Package hub is the matchmaking broker. A single goroutine owns the session
// registry, the board table and the waiting queue; everything else talks to
// it through Inbox.
package hub

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/othello-net/othello-server/internal/ident"
	"github.com/othello-net/othello-server/internal/lobby"
	"github.com/othello-net/othello-server/internal/registry"
	"github.com/othello-net/othello-server/internal/storage"
	"github.com/othello-net/othello-server/internal/types"
	wire "github.com/othello-net/othello-server/pkg/types"
)

var (
	ErrClosed        = errors.New("hub closed")
	ErrNoNickname    = errors.New("nickname not set")
	ErrSelfPairing   = errors.New("cannot join own waiting board")
	ErrAlreadySeated = errors.New("already seated on a board")
	ErrUnknownBoard  = errors.New("unknown board")
	ErrNotSeated     = errors.New("not seated on board")
	ErrNotPaired     = errors.New("board has no opponent yet")
	ErrWrongTurn     = errors.New("not this player's turn")
	ErrGameNotOver   = errors.New("game is not over")
)

type HubMsg interface{ isHubMsg() }

// Connect registers a connection and replies with its session id.
type Connect struct {
	Handle types.Notifier
	Reply  chan ConnectResult
}

type ConnectResult struct {
	SessionID string
	Err       error
}

// Hello sets the nickname; the hub answers with ConnectedParam.
type Hello struct {
	Session  string
	Nickname string
	Reply    chan error
}

type JoinBoard struct {
	Session string
	Reply   chan error
}

type PlayBoard struct {
	Session string
	Board   string
	Pos     wire.Pos
	Reply   chan error
}

type GameOver struct {
	Session string
	Board   string
	Score   wire.Score // as reported by the client
	Reply   chan error
}

// Disconnect retires a session. Reply may be nil.
type Disconnect struct {
	Session string
	Reply   chan struct{}
}

type GetStats struct {
	Reply chan wire.Stats
}

type ShutdownHub struct{}

func (Connect) isHubMsg()     {}
func (Hello) isHubMsg()       {}
func (JoinBoard) isHubMsg()   {}
func (PlayBoard) isHubMsg()   {}
func (GameOver) isHubMsg()    {}
func (Disconnect) isHubMsg()  {}
func (GetStats) isHubMsg()    {}
func (ShutdownHub) isHubMsg() {}

// Recorder receives finished games. Record must not block.
type Recorder interface {
	Record(r storage.GameResult) bool
}

type Hub struct {
	inbox    chan HubMsg
	sessions *registry.Registry
	boards   *lobby.Lobby
	ids      *ident.Source
	rec      Recorder
	log      *zap.Logger
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewHub starts the broker. rec may be nil when results are not archived.
func NewHub(parent context.Context, log *zap.Logger, ids *ident.Source, rec Recorder) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: registry.New(ids),
		boards:   lobby.New(),
		ids:      ids,
		rec:      rec,
		log:      log.Named("hub"),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the loop has exited.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.log.Info("hub stopped",
				zap.Int("sessions", h.sessions.Len()),
				zap.Int("boards", h.boards.Len()),
			)
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Connect:
				id, err := h.sessions.Register(msg.Handle)
				if err != nil {
					h.log.Error("register session", zap.Error(err))
				} else {
					h.log.Debug("session registered", zap.String("session", id))
				}
				msg.Reply <- ConnectResult{SessionID: id, Err: err}

			case Hello:
				msg.Reply <- h.reject("hello", msg.Session, "", h.hello(msg.Session, msg.Nickname))

			case JoinBoard:
				msg.Reply <- h.reject("join", msg.Session, "", h.join(msg.Session))

			case PlayBoard:
				msg.Reply <- h.reject("play", msg.Session, msg.Board, h.play(msg.Session, msg.Board, msg.Pos))

			case GameOver:
				msg.Reply <- h.reject("game over", msg.Session, msg.Board, h.gameOver(msg.Session, msg.Board, msg.Score))

			case Disconnect:
				h.disconnect(msg.Session)
				if msg.Reply != nil {
					msg.Reply <- struct{}{}
				}

			case GetStats:
				msg.Reply <- wire.Stats{
					Users:   h.sessions.Len(),
					Boards:  h.boards.Len(),
					Waiting: h.boards.Waiting(),
				}

			case ShutdownHub:
				h.cancel()
			}
		}
	}
}

// reject logs a refused request and passes err through.
func (h *Hub) reject(op, session, board string, err error) error {
	if err != nil {
		h.log.Warn(op+" rejected",
			zap.String("session", session),
			zap.String("board", board),
			zap.Error(err),
		)
	}
	return err
}
