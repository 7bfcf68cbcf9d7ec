// Package registry tracks connected sessions. It is not safe for concurrent
// use; the hub goroutine owns it.
package registry

import (
	"errors"
	"fmt"

	"github.com/othello-net/othello-server/internal/ident"
	"github.com/othello-net/othello-server/internal/types"
	wire "github.com/othello-net/othello-server/pkg/types"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrNicknameSet    = errors.New("nickname already set")
	ErrEmptyNickname  = errors.New("empty nickname")
)

// maxMintAttempts bounds retries on an id collision.
const maxMintAttempts = 4

type Session struct {
	ID       string
	Nickname string
	Board    string // bound board id, empty when not seated
	handle   types.Notifier
}

func (s *Session) HasNickname() bool { return s.Nickname != "" }

type Registry struct {
	ids      *ident.Source
	sessions map[string]*Session
}

func New(ids *ident.Source) *Registry {
	return &Registry{
		ids:      ids,
		sessions: make(map[string]*Session),
	}
}

// Register mints a session id for handle.
func (r *Registry) Register(handle types.Notifier) (string, error) {
	for i := 0; i < maxMintAttempts; i++ {
		id, err := r.ids.SessionID()
		if err != nil {
			return "", fmt.Errorf("register: %w", err)
		}
		if _, taken := r.sessions[id]; taken {
			continue
		}
		r.sessions[id] = &Session{ID: id, handle: handle}
		return id, nil
	}
	return "", fmt.Errorf("register: no free id after %d attempts", maxMintAttempts)
}

// SetNickname binds a nickname once per session.
func (r *Registry) SetNickname(id, nickname string) error {
	s, ok := r.sessions[id]
	if !ok {
		return ErrUnknownSession
	}
	if s.HasNickname() {
		return ErrNicknameSet
	}
	if nickname == "" {
		return ErrEmptyNickname
	}
	s.Nickname = nickname
	return nil
}

func (r *Registry) Lookup(id string) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// Unregister removes and returns the session; the id is never reused.
func (r *Registry) Unregister(id string) (*Session, bool) {
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return s, ok
}

func (r *Registry) Len() int { return len(r.sessions) }

// Notify delivers resp to the session's handle. It reports false for an
// unknown id.
func (r *Registry) Notify(id string, resp wire.Response) bool {
	s, ok := r.sessions[id]
	if !ok || s.handle == nil {
		return false
	}
	s.handle.Notify(resp)
	return true
}
