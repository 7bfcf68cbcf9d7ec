// Package client speaks the wire protocol from the player's side: a websocket
// connection and a local mirror of the game being played.
package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	wire "github.com/othello-net/othello-server/pkg/types"
)

// Conn is safe for one reader and any number of concurrent senders.
type Conn struct {
	ws  *websocket.Conn
	wmu sync.Mutex
}

func Dial(ctx context.Context, url string, header http.Header) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", url, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Conn{ws: ws}, nil
}

func (c *Conn) Send(req wire.Request) error {
	data, err := wire.EncodeRequest(req)
	if err != nil {
		return err
	}
	return c.SendRaw(data)
}

// SendRaw writes data as a text frame without encoding it.
func (c *Conn) SendRaw(data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Receive blocks for the next response. Pings are answered while waiting.
func (c *Conn) Receive() (wire.Response, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	return wire.DecodeResponse(data)
}

func (c *Conn) SetReadDeadline(t time.Time) error { return c.ws.SetReadDeadline(t) }

// Close sends a normal closure and closes the socket.
func (c *Conn) Close() error {
	c.wmu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.wmu.Unlock()
	return c.ws.Close()
}

// CloseCode extracts the close status from a Receive error, or -1.
func CloseCode(err error) int {
	if ce, ok := err.(*websocket.CloseError); ok {
		return ce.Code
	}
	return -1
}
