package storage

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrShutdownTimeout = errors.New("recorder shutdown timeout exceeded")

const (
	defaultQueue = 64
	saveTimeout  = 5 * time.Second
)

type Saver interface {
	Save(ctx context.Context, r GameResult) error
}

// Recorder persists results off the caller's goroutine. Record never blocks.
type Recorder struct {
	saver Saver
	log   *zap.Logger
	tasks chan GameResult
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewRecorder starts a single worker draining a queue of the given size.
func NewRecorder(saver Saver, queue int, log *zap.Logger) *Recorder {
	if queue < 1 {
		queue = defaultQueue
	}
	r := &Recorder{
		saver: saver,
		log:   log.Named("recorder"),
		tasks: make(chan GameResult, queue),
	}
	r.wg.Add(1)
	go r.worker()
	return r
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for res := range r.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		err := r.saver.Save(ctx, res)
		cancel()
		if err != nil {
			r.log.Error("save result", zap.String("board", res.BoardID), zap.Error(err))
			continue
		}
		r.log.Debug("result saved",
			zap.String("board", res.BoardID),
			zap.String("winner", res.Winner),
		)
	}
}

// Record queues res. It reports false when the queue is full or closed.
func (r *Recorder) Record(res GameResult) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	select {
	case r.tasks <- res:
		return true
	default:
		r.log.Warn("result queue full, dropping", zap.String("board", res.BoardID))
		return false
	}
}

// Shutdown stops accepting results, drains the queue and closes the saver
// when it is an io.Closer. On timeout the saver is left open, since the
// worker may still be inside Save.
func (r *Recorder) Shutdown(timeout time.Duration) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.tasks)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		r.log.Warn("results still pending, leaving store open", zap.Int("queued", len(r.tasks)))
		return ErrShutdownTimeout
	}

	if c, ok := r.saver.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
