package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/othello-net/othello-server/internal/hub"
	wire "github.com/othello-net/othello-server/pkg/types"
)

const (
	readLimit         = 4096
	disconnectTimeout = 5 * time.Second
)

var (
	errMalformed = errors.New("malformed request")
	errTooSlow   = errors.New("client too slow")
)

type Options struct {
	ReadTimeout    time.Duration // a ping must be answered within this
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	OutboxLimit    int
	OriginPatterns []string
}

// Handler upgrades the request and serves one session until the connection
// closes.
func Handler(h *hub.Hub, opts Options, log *zap.Logger) http.HandlerFunc {
	log = log.Named("ws")
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("accept", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		conn.SetReadLimit(readLimit)

		ctx, cancel := context.WithCancelCause(r.Context())
		defer cancel(nil)

		out := newOutbox(opts.OutboxLimit, func() { cancel(errTooSlow) })
		id, err := h.Connect(ctx, out)
		if err != nil {
			log.Warn("connect", zap.Error(err))
			conn.Close(websocket.StatusTryAgainLater, "server unavailable")
			return
		}
		c := &client{id: id, hub: h, conn: conn, out: out, opts: opts, log: log.With(zap.String("session", id))}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { defer cancel(nil); return c.readLoop(gctx) })
		g.Go(func() error { defer cancel(nil); return c.writeLoop(gctx) })
		g.Go(func() error { defer cancel(nil); return c.heartbeat(gctx) })
		err = g.Wait()

		// retire the session first: Close blocks until the peer answers
		c.disconnect()

		switch cause := context.Cause(ctx); {
		case errors.Is(cause, errTooSlow):
			c.log.Warn("dropping slow client", zap.Int("limit", opts.OutboxLimit))
			conn.Close(websocket.StatusPolicyViolation, "too slow")
		case errors.Is(err, errMalformed):
			conn.Close(websocket.StatusInvalidFramePayloadData, "malformed message")
		case errors.Is(err, hub.ErrClosed):
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
}

type client struct {
	id   string
	hub  *hub.Hub
	conn *websocket.Conn
	out  *outbox
	opts Options
	log  *zap.Logger
}

func (c *client) readLoop(ctx context.Context) error {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			c.log.Debug("read", zap.Error(err))
			return nil
		}
		if typ != websocket.MessageText {
			c.log.Warn("binary frame")
			return errMalformed
		}

		req, err := wire.DecodeRequest(data)
		if err != nil {
			c.log.Warn("malformed request", zap.Error(err))
			return errMalformed
		}
		if err := c.dispatch(ctx, req); err != nil {
			return err
		}
	}
}

// dispatch forwards req to the hub. Refusals were already logged by the hub
// and are not reported to the client.
func (c *client) dispatch(ctx context.Context, req wire.Request) error {
	var err error
	switch m := req.(type) {
	case wire.ConnectingParam:
		err = c.hub.Hello(ctx, c.id, m.Nickname)
	case wire.JoinBoard:
		if !c.own(m.SessionID, m.Kind()) {
			return nil
		}
		err = c.hub.Join(ctx, c.id)
	case wire.PlayBoard:
		if !c.own(m.SessionID, m.Kind()) {
			return nil
		}
		err = c.hub.Play(ctx, c.id, m.BoardID, m.Pos)
	case wire.GameOver:
		if !c.own(m.SessionID, m.Kind()) {
			return nil
		}
		err = c.hub.GameOver(ctx, c.id, m.BoardID, m.Score)
	}
	if errors.Is(err, hub.ErrClosed) || errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// own reports whether a request names this connection's session.
func (c *client) own(session, kind string) bool {
	if session == c.id {
		return true
	}
	c.log.Warn("request for another session dropped", zap.String("kind", kind))
	return false
}

func (c *client) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.out.ready:
			for _, resp := range c.out.drain() {
				if err := c.write(ctx, resp); err != nil {
					c.log.Debug("write", zap.String("kind", resp.Kind()), zap.Error(err))
					return nil
				}
			}
		}
	}
}

func (c *client) write(ctx context.Context, resp wire.Response) error {
	payload, err := wire.EncodeResponse(resp)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.opts.WriteTimeout)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, payload)
}

func (c *client) heartbeat(ctx context.Context) error {
	t := time.NewTicker(c.opts.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, c.opts.ReadTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					c.log.Info("peer stopped answering pings", zap.Error(err))
				}
				return nil
			}
		}
	}
}

// disconnect runs even when the request context is gone, so the session is
// always retired.
func (c *client) disconnect() {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := c.hub.Disconnect(ctx, c.id); err != nil && !errors.Is(err, hub.ErrClosed) {
		c.log.Warn("disconnect", zap.Error(err))
	}
}
