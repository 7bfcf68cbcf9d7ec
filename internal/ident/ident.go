// Package ident mints the opaque identifiers handed out by the server.
package ident

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const (
	charset         = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	SessionIDLength = 40

	// largest multiple of len(charset) below 256, for unbiased sampling
	sampleLimit = 256 - 256%len(charset)
)

// Source draws identifiers from a random reader. It is not safe for
// concurrent use; the hub is its only caller.
type Source struct {
	r   io.Reader
	buf [64]byte
}

// New returns a Source reading from r, or from crypto/rand when r is nil.
func New(r io.Reader) *Source {
	if r == nil {
		r = rand.Reader
	}
	return &Source{r: r}
}

// SessionID returns SessionIDLength alphanumeric characters.
func (s *Source) SessionID() (string, error) {
	return s.alnum(SessionIDLength)
}

// BoardID returns a random (version 4) UUID string.
func (s *Source) BoardID() (string, error) {
	id, err := uuid.NewRandomFromReader(s.r)
	if err != nil {
		return "", fmt.Errorf("board id: %w", err)
	}
	return id.String(), nil
}

func (s *Source) alnum(n int) (string, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
			return "", fmt.Errorf("session id: %w", err)
		}
		for _, c := range s.buf {
			if int(c) >= sampleLimit {
				continue
			}
			out = append(out, charset[int(c)%len(charset)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
