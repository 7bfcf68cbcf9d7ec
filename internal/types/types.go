package types

import wire "github.com/othello-net/othello-server/pkg/types"

// Notifier is anything that can receive a one-way response for a session.
// Notify must not block; the hub calls it from its own goroutine.
type Notifier interface {
	Notify(resp wire.Response)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(resp wire.Response)

func (f NotifierFunc) Notify(resp wire.Response) { f(resp) }
