package hub

import (
	"context"

	"github.com/othello-net/othello-server/internal/types"
	wire "github.com/othello-net/othello-server/pkg/types"
)

// Request helpers for callers outside the hub goroutine. Each sends one
// message and waits for its reply, the caller's context or hub shutdown.

func (h *Hub) Connect(ctx context.Context, handle types.Notifier) (string, error) {
	reply := make(chan ConnectResult, 1)
	res, err := request(ctx, h, Connect{Handle: handle, Reply: reply}, reply)
	if err != nil {
		return "", err
	}
	return res.SessionID, res.Err
}

func (h *Hub) Hello(ctx context.Context, session, nickname string) error {
	reply := make(chan error, 1)
	return call(ctx, h, Hello{Session: session, Nickname: nickname, Reply: reply}, reply)
}

func (h *Hub) Join(ctx context.Context, session string) error {
	reply := make(chan error, 1)
	return call(ctx, h, JoinBoard{Session: session, Reply: reply}, reply)
}

func (h *Hub) Play(ctx context.Context, session, board string, pos wire.Pos) error {
	reply := make(chan error, 1)
	return call(ctx, h, PlayBoard{Session: session, Board: board, Pos: pos, Reply: reply}, reply)
}

func (h *Hub) GameOver(ctx context.Context, session, board string, score wire.Score) error {
	reply := make(chan error, 1)
	return call(ctx, h, GameOver{Session: session, Board: board, Score: score, Reply: reply}, reply)
}

// Disconnect returns once the session has been retired.
func (h *Hub) Disconnect(ctx context.Context, session string) error {
	reply := make(chan struct{}, 1)
	_, err := request(ctx, h, Disconnect{Session: session, Reply: reply}, reply)
	return err
}

func (h *Hub) Stats(ctx context.Context) (wire.Stats, error) {
	reply := make(chan wire.Stats, 1)
	return request(ctx, h, GetStats{Reply: reply}, reply)
}

// Shutdown stops the loop; it does not wait for it.
func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.done:
	}
}

func call(ctx context.Context, h *Hub, msg HubMsg, reply <-chan error) error {
	err, cerr := request(ctx, h, msg, reply)
	if cerr != nil {
		return cerr
	}
	return err
}

func request[T any](ctx context.Context, h *Hub, msg HubMsg, reply <-chan T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	select {
	case h.inbox <- msg:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-h.done:
		return zero, ErrClosed
	}

	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-h.done:
		// the reply may have been sent just before the loop exited
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrClosed
		}
	}
}
