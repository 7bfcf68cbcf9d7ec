package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/othello-net/othello-server/internal/client"
	"github.com/othello-net/othello-server/internal/hub"
	"github.com/othello-net/othello-server/internal/ident"
	"github.com/othello-net/othello-server/internal/storage"
	"github.com/othello-net/othello-server/internal/ws"
	wire "github.com/othello-net/othello-server/pkg/types"
)

type fakeResults struct {
	list  []storage.GameResult
	err   error
	limit int
}

func (f *fakeResults) Recent(_ context.Context, limit int) ([]storage.GameResult, error) {
	f.limit = limit
	return f.list, f.err
}

func newServer(t *testing.T, results ResultLister) (*httptest.Server, *hub.Hub) {
	t.Helper()
	// handlers outlive the test body; keep them off t.Log
	log := zap.NewNop()
	ctx, cancel := context.WithCancel(context.Background())
	h := hub.NewHub(ctx, log, ident.New(rand.NewChaCha8([32]byte{9})), nil)

	srv := httptest.NewServer(SetupRoutes(h, Options{
		WS: ws.Options{
			ReadTimeout:  time.Minute,
			WriteTimeout: 2 * time.Second,
			PingInterval: 30 * time.Second,
			OutboxLimit:  64,
		},
		Results:      results,
		ResultsLimit: 5,
	}, log))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-h.Done()
	})
	return srv, h
}

func dial(t *testing.T, srv *httptest.Server) *client.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := client.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func recv(t *testing.T, c *client.Conn) wire.Response {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	resp, err := c.Receive()
	require.NoError(t, err)
	return resp
}

// hello connects and returns the session id the server minted.
func hello(t *testing.T, c *client.Conn, nick string) string {
	t.Helper()
	require.NoError(t, c.Send(wire.ConnectingParam{Nickname: nick}))
	cp, ok := recv(t, c).(wire.ConnectedParam)
	require.True(t, ok)
	require.Len(t, cp.SessionID, ident.SessionIDLength)
	return cp.SessionID
}

func fetchStats(srv *httptest.Server) (wire.Stats, error) {
	var s wire.Stats
	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		return s, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return s, errors.New(resp.Status)
	}
	err = json.NewDecoder(resp.Body).Decode(&s)
	return s, err
}

func getStats(t *testing.T, srv *httptest.Server) wire.Stats {
	t.Helper()
	s, err := fetchStats(srv)
	require.NoError(t, err)
	return s
}

func TestHealthz(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGame_EndToEnd(t *testing.T) {
	srv, _ := newServer(t, nil)
	alice, bob := dial(t, srv), dial(t, srv)

	aliceID := hello(t, alice, "alice")
	bobID := hello(t, bob, "bob")

	require.NoError(t, alice.Send(wire.JoinBoard{SessionID: aliceID}))
	jb, ok := recv(t, alice).(wire.JoinedBoard)
	require.True(t, ok)
	assert.Equal(t, wire.ColorBlack, jb.Color)
	assert.Nil(t, jb.Opponent)
	blackMatch := client.NewMatch(jb)

	require.NoError(t, bob.Send(wire.JoinBoard{SessionID: bobID}))
	jw, ok := recv(t, bob).(wire.JoinedBoard)
	require.True(t, ok)
	assert.Equal(t, wire.ColorWhite, jw.Color)
	require.NotNil(t, jw.Opponent)
	assert.Equal(t, "alice", *jw.Opponent)
	whiteMatch := client.NewMatch(jw)

	oj, ok := recv(t, alice).(wire.OpponentJoinedBoard)
	require.True(t, ok)
	assert.Equal(t, wire.OpponentJoinedBoard{SessionID: aliceID, BoardID: jb.BoardID, Opponent: "bob"}, oj)
	require.NoError(t, blackMatch.OpponentJoined(oj))

	assert.Equal(t, wire.Stats{Users: 2, Boards: 1, Waiting: 0}, getStats(t, srv))

	req, err := blackMatch.Play(2, 3)
	require.NoError(t, err)
	require.NoError(t, alice.Send(req))

	pb, ok := recv(t, bob).(wire.PlayedBoard)
	require.True(t, ok)
	assert.Equal(t, wire.PlayedBoard{SessionID: bobID, BoardID: jb.BoardID, Pos: wire.Pos{2, 3}}, pb)
	_, err = whiteMatch.Apply(pb)
	require.NoError(t, err)
	assert.True(t, whiteMatch.MyTurn())

	require.NoError(t, bob.Close())
	od, ok := recv(t, alice).(wire.OpponentDisconnected)
	require.True(t, ok)
	assert.Equal(t, wire.OpponentDisconnected{SessionID: aliceID, BoardID: jb.BoardID}, od)
	assert.True(t, blackMatch.Abandon(od))

	assert.Eventually(t, func() bool {
		s, err := fetchStats(srv)
		return err == nil && s == wire.Stats{Users: 1}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWS_ForeignSessionIsDropped(t *testing.T) {
	srv, _ := newServer(t, nil)
	alice, bob := dial(t, srv), dial(t, srv)
	aliceID := hello(t, alice, "alice")
	bobID := hello(t, bob, "bob")

	// requests are handled in order per connection, so the second join
	// proves the first one was dropped
	require.NoError(t, alice.Send(wire.JoinBoard{SessionID: bobID}))
	require.NoError(t, alice.Send(wire.JoinBoard{SessionID: aliceID}))

	jb, ok := recv(t, alice).(wire.JoinedBoard)
	require.True(t, ok)
	assert.Equal(t, aliceID, jb.SessionID)
	assert.Equal(t, wire.Stats{Users: 2, Boards: 1, Waiting: 1}, getStats(t, srv))
}

func TestWS_MalformedPayloadClosesConnection(t *testing.T) {
	tests := map[string]string{
		"not json":     `{"JoinBoard":`,
		"unknown kind": `{"Resign":{}}`,
		"bad position": `{"PlayBoard":{"session_id":"a","board_id":"b","pos":"d3"}}`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			srv, _ := newServer(t, nil)
			c := dial(t, srv)
			hello(t, c, "mallory")

			require.NoError(t, c.SendRaw([]byte(payload)))
			require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
			_, err := c.Receive()
			require.Error(t, err)
			assert.Equal(t, int(websocket.StatusInvalidFramePayloadData), client.CloseCode(err))

			assert.Eventually(t, func() bool {
				s, err := fetchStats(srv)
				return err == nil && s.Users == 0
			}, 2*time.Second, 10*time.Millisecond)
		})
	}
}

type seated struct {
	conn  *client.Conn
	id    string
	board string
}

// pairUp seats alice as black and bob as white on a fresh board.
func pairUp(t *testing.T, srv *httptest.Server) (alice, bob seated) {
	t.Helper()
	alice = seated{conn: dial(t, srv)}
	bob = seated{conn: dial(t, srv)}
	alice.id = hello(t, alice.conn, "alice")
	bob.id = hello(t, bob.conn, "bob")

	require.NoError(t, alice.conn.Send(wire.JoinBoard{SessionID: alice.id}))
	jb, ok := recv(t, alice.conn).(wire.JoinedBoard)
	require.True(t, ok)
	require.NoError(t, bob.conn.Send(wire.JoinBoard{SessionID: bob.id}))
	_, ok = recv(t, bob.conn).(wire.JoinedBoard)
	require.True(t, ok)
	_, ok = recv(t, alice.conn).(wire.OpponentJoinedBoard)
	require.True(t, ok)

	alice.board, bob.board = jb.BoardID, jb.BoardID
	return alice, bob
}

func TestWS_OffBoardMoveIsIgnored(t *testing.T) {
	srv, _ := newServer(t, nil)
	alice, bob := pairUp(t, srv)

	off := `{"PlayBoard":{"session_id":"` + alice.id + `","board_id":"` + alice.board + `","pos":[8,0]}}`
	require.NoError(t, alice.conn.SendRaw([]byte(off)))
	require.NoError(t, alice.conn.Send(wire.PlayBoard{SessionID: alice.id, BoardID: alice.board, Pos: wire.Pos{2, 3}}))

	pb, ok := recv(t, bob.conn).(wire.PlayedBoard)
	require.True(t, ok)
	assert.Equal(t, wire.Pos{2, 3}, pb.Pos)
	assert.Equal(t, wire.Stats{Users: 2, Boards: 1}, getStats(t, srv))
}

func TestWS_PeerNotifiedBeforeCloseHandshake(t *testing.T) {
	srv, _ := newServer(t, nil)
	alice, bob := pairUp(t, srv)

	// alice never reads again, so the server's close handshake stalls
	require.NoError(t, alice.conn.SendRaw([]byte(`{"Resign":{}}`)))

	require.NoError(t, bob.conn.SetReadDeadline(time.Now().Add(time.Second)))
	resp, err := bob.conn.Receive()
	require.NoError(t, err)
	assert.Equal(t, wire.OpponentDisconnected{SessionID: bob.id, BoardID: bob.board}, resp)
}

func TestResults(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := &fakeResults{list: []storage.GameResult{{
		BoardID: "b1", Black: "alice", White: "bob",
		BlackScore: 40, WhiteScore: 24, Winner: storage.WinnerBlack,
		StartedAt: at, FinishedAt: at.Add(time.Minute),
	}}}
	srv, _ := newServer(t, fake)

	resp, err := http.Get(srv.URL + "/results?limit=50")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, fake.limit, "limit is capped")

	var got []storage.GameResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "b1", got[0].BoardID)
	assert.Equal(t, 40, got[0].BlackScore)

	bad, err := http.Get(srv.URL + "/results?limit=zero")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestResults_Errors(t *testing.T) {
	srv, _ := newServer(t, &fakeResults{err: errors.New("db down")})
	resp, err := http.Get(srv.URL + "/results")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	unrouted, _ := newServer(t, nil)
	resp, err = http.Get(unrouted.URL + "/results")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
