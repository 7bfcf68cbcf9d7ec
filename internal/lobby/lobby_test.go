package lobby

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/othello-net/othello-server/internal/engine"
)

func newLobby() *Lobby {
	l := New()
	l.now = func() time.Time { return time.Unix(1700000000, 0) }
	return l
}

func TestLobby_FIFO(t *testing.T) {
	l := newLobby()
	l.Open("b1", "s1")
	l.Open("b2", "s2")
	require.Equal(t, 2, l.Waiting())

	head, ok := l.Head()
	require.True(t, ok)
	assert.Equal(t, "b1", head.ID)

	b, ok := l.Pair("s3")
	require.True(t, ok)
	assert.Equal(t, "b1", b.ID)
	assert.Equal(t, "s1", b.Black.Session)
	assert.Equal(t, "s3", b.White.Session)
	assert.True(t, b.Paired())
	assert.Equal(t, time.Unix(1700000000, 0), b.PairedAt)
	require.NotNil(t, b.Game)
	assert.Equal(t, engine.Black, b.Game.Turn())

	b, ok = l.Pair("s4")
	require.True(t, ok)
	assert.Equal(t, "b2", b.ID)

	_, ok = l.Pair("s5")
	assert.False(t, ok)
	assert.Equal(t, 0, l.Waiting())
	assert.Equal(t, 2, l.Len())
}

func TestLobby_OpenRecordsCreation(t *testing.T) {
	l := newLobby()
	b := l.Open("b1", "s1")

	assert.Equal(t, time.Unix(1700000000, 0), b.CreatedAt)
	assert.False(t, b.Paired())
	assert.Nil(t, b.Game)

	got, ok := l.Get("b1")
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestBoard_Waited(t *testing.T) {
	l := New()
	clock := time.Unix(1700000000, 0)
	l.now = func() time.Time { return clock }

	b := l.Open("b1", "s1")
	assert.Zero(t, b.Waited())

	clock = clock.Add(42 * time.Second)
	_, ok := l.Pair("s2")
	require.True(t, ok)
	assert.Equal(t, 42*time.Second, b.Waited())
}

func TestLobby_RemoveDropsQueueEntry(t *testing.T) {
	l := newLobby()
	l.Open("b1", "s1")
	l.Open("b2", "s2")
	l.Open("b3", "s3")

	_, ok := l.Remove("b2")
	require.True(t, ok)
	assert.Equal(t, 2, l.Waiting())
	assert.Equal(t, 2, l.Len())

	_, ok = l.Remove("b2")
	assert.False(t, ok)

	first, _ := l.Pair("x")
	second, _ := l.Pair("y")
	assert.Equal(t, "b1", first.ID)
	assert.Equal(t, "b3", second.ID)
}

func TestBoard_Slots(t *testing.T) {
	l := newLobby()
	l.Open("b1", "black")
	b, _ := l.Pair("white")

	c, ok := b.ColorOf("black")
	assert.True(t, ok)
	assert.Equal(t, engine.Black, c)

	c, ok = b.ColorOf("white")
	assert.True(t, ok)
	assert.Equal(t, engine.White, c)

	_, ok = b.ColorOf("stranger")
	assert.False(t, ok)
	_, ok = b.ColorOf("")
	assert.False(t, ok)

	assert.Equal(t, "white", b.Peer("black"))
	assert.Equal(t, "black", b.Peer("white"))
	assert.Equal(t, "", b.Peer("stranger"))
}

func TestBoard_Vacate(t *testing.T) {
	l := newLobby()
	l.Open("b1", "black")
	b, _ := l.Pair("white")

	assert.False(t, b.Vacate("white"))
	_, ok := b.ColorOf("white")
	assert.False(t, ok, "vacated slot is no longer seated")
	assert.Equal(t, "black", b.Peer("white"))

	assert.False(t, b.Vacate("stranger"))
	assert.True(t, b.Vacate("black"))
}
