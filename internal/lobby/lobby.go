// Package lobby holds the board table and the queue of boards waiting for a
// second player. Like the registry it is owned by the hub goroutine.
package lobby

import (
	"time"

	"github.com/othello-net/othello-server/internal/engine"
)

type Slot struct {
	Session string
	Vacated bool // left after game over
}

func (s Slot) Seated(session string) bool {
	return s.Session != "" && s.Session == session && !s.Vacated
}

type Board struct {
	ID        string
	Black     Slot
	White     Slot
	Game      *engine.Game // nil until paired
	CreatedAt time.Time
	PairedAt  time.Time
	Recorded  bool // a result was submitted for this board
}

func (b *Board) Paired() bool { return b.White.Session != "" }

// Waited is how long black sat in the queue; zero until paired.
func (b *Board) Waited() time.Duration {
	if !b.Paired() {
		return 0
	}
	return b.PairedAt.Sub(b.CreatedAt)
}

// ColorOf reports the colour of a seated session.
func (b *Board) ColorOf(session string) (engine.Cell, bool) {
	switch {
	case b.Black.Seated(session):
		return engine.Black, true
	case b.White.Seated(session):
		return engine.White, true
	}
	return engine.Empty, false
}

// Peer returns the session in the other slot, empty if none.
func (b *Board) Peer(session string) string {
	switch session {
	case b.Black.Session:
		return b.White.Session
	case b.White.Session:
		return b.Black.Session
	}
	return ""
}

// Vacate marks session's slot as left and reports whether both slots are
// now empty.
func (b *Board) Vacate(session string) bool {
	switch session {
	case b.Black.Session:
		b.Black.Vacated = true
	case b.White.Session:
		b.White.Vacated = true
	}
	return b.Black.Vacated && (b.White.Vacated || !b.Paired())
}

type Lobby struct {
	boards map[string]*Board
	queue  []string // waiting board ids, oldest first
	now    func() time.Time
}

func New() *Lobby {
	return &Lobby{
		boards: make(map[string]*Board),
		now:    time.Now,
	}
}

// Open creates a board with black seated and appends it to the queue.
func (l *Lobby) Open(id, black string) *Board {
	b := &Board{ID: id, Black: Slot{Session: black}, CreatedAt: l.now()}
	l.boards[id] = b
	l.queue = append(l.queue, id)
	return b
}

// Head returns the oldest waiting board without removing it.
func (l *Lobby) Head() (*Board, bool) {
	if len(l.queue) == 0 {
		return nil, false
	}
	return l.boards[l.queue[0]], true
}

// Pair pops the oldest waiting board, seats white and starts the game.
func (l *Lobby) Pair(white string) (*Board, bool) {
	b, ok := l.Head()
	if !ok {
		return nil, false
	}
	l.queue = l.queue[1:]
	b.White = Slot{Session: white}
	b.Game = engine.NewGame()
	b.PairedAt = l.now()
	return b, true
}

func (l *Lobby) Get(id string) (*Board, bool) {
	b, ok := l.boards[id]
	return b, ok
}

// Remove drops the board and its queue entry, if any.
func (l *Lobby) Remove(id string) (*Board, bool) {
	b, ok := l.boards[id]
	if !ok {
		return nil, false
	}
	delete(l.boards, id)
	for i, qid := range l.queue {
		if qid == id {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			break
		}
	}
	return b, true
}

// Len is the number of boards in the table.
func (l *Lobby) Len() int { return len(l.boards) }

// Waiting is the number of boards in the queue.
func (l *Lobby) Waiting() int { return len(l.queue) }
