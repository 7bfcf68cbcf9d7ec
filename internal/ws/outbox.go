package ws

import (
	"sync"

	wire "github.com/othello-net/othello-server/pkg/types"
)

// outbox buffers responses for one connection so the hub never waits on a
// socket. Past limit queued responses the client is considered too slow and
// overflow is called once.
type outbox struct {
	mu       sync.Mutex
	queue    []wire.Response
	limit    int
	dropped  bool
	ready    chan struct{}
	overflow func()
}

func newOutbox(limit int, overflow func()) *outbox {
	return &outbox{
		limit:    limit,
		ready:    make(chan struct{}, 1),
		overflow: overflow,
	}
}

func (o *outbox) Notify(resp wire.Response) {
	o.mu.Lock()
	if o.dropped {
		o.mu.Unlock()
		return
	}
	if len(o.queue) >= o.limit {
		o.dropped = true
		o.queue = nil
		o.mu.Unlock()
		o.overflow()
		return
	}
	o.queue = append(o.queue, resp)
	o.mu.Unlock()

	select {
	case o.ready <- struct{}{}:
	default:
	}
}

// drain takes everything queued so far, oldest first.
func (o *outbox) drain() []wire.Response {
	o.mu.Lock()
	defer o.mu.Unlock()
	q := o.queue
	o.queue = nil
	return q
}
