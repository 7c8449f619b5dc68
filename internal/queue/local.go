package queue

import (
	"context"
	"fmt"
	"sync"

	"shortgen/internal/infra"
)

// Local is the in-process dispatch backend: an unbounded FIFO drained by a
// single background worker goroutine. The worker is lazily started on the
// first Enqueue and at most once per process lifetime.
type Local struct {
	runner Runner
	logger infra.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	items   []Payload
	closed  bool
	startWk sync.Once
	done    chan struct{}
}

// NewLocal constructs a local dispatcher that hands payloads to runner.
func NewLocal(runner Runner, logger infra.Logger) *Local {
	l := &Local{
		runner: runner,
		logger: logger,
		done:   make(chan struct{}),
	}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Enqueue pushes the payload onto the FIFO and starts the worker if it is
// not yet running. It never blocks on queue capacity.
func (l *Local) Enqueue(ctx context.Context, p Payload) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return fmt.Errorf("queue: local dispatcher closed")
	}
	l.items = append(l.items, p)
	l.mu.Unlock()
	l.cond.Signal()

	l.startWk.Do(func() {
		go l.work()
	})
	return nil
}

// Close stops the worker loop once the current item finishes. Pending items
// are dropped.
func (l *Local) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()
	l.cond.Broadcast()
	// The worker may never have started.
	l.startWk.Do(func() { close(l.done) })
	<-l.done
}

func (l *Local) work() {
	defer close(l.done)
	l.logger.Info().Msg("queue: local worker started")
	for {
		p, ok := l.next()
		if !ok {
			l.logger.Info().Msg("queue: local worker stopped")
			return
		}
		l.runOne(p)
	}
}

func (l *Local) next() (Payload, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.items) == 0 && !l.closed {
		l.cond.Wait()
	}
	if l.closed {
		return Payload{}, false
	}
	p := l.items[0]
	l.items = l.items[1:]
	return p, true
}

// runOne executes a single payload, containing any error or panic so one
// failing job never kills the worker loop.
func (l *Local) runOne(p Payload) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Str("job_id", p.JobID).Interface("panic", r).Msg("queue: pipeline panicked")
		}
	}()
	if err := l.runner(context.Background(), p); err != nil {
		l.logger.Error().Err(err).Str("job_id", p.JobID).Msg("queue: pipeline failed")
	}
}

var _ Dispatcher = (*Local)(nil)
