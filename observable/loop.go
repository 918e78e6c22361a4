package observable

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

var ErrLoopClosed = errors.New("observable: loop closed")

// Loop owns a Runtime and runs tasks on one goroutine. Notifications raised
// by a task are flushed right after it returns, so a burst of writes in one
// task costs one re-evaluation per consumer.
type Loop struct {
	rt     *Runtime
	tasks  chan func()
	done   chan struct{}
	closed atomic.Bool

	inTask      atomic.Bool
	flushWanted atomic.Bool
}

// NewLoop installs the loop as rt's trigger. From then on rt must only be
// touched from tasks posted to the loop.
func NewLoop(rt *Runtime, queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = 64
	}
	l := &Loop{
		rt:    rt,
		tasks: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
	rt.sched.trigger = l
	return l
}

func (l *Loop) Runtime() *Runtime {
	return l.rt
}

func (l *Loop) Request(func()) {
	l.flushWanted.Store(true)
	if l.inTask.Load() {
		return
	}
	select {
	case l.tasks <- func() {}:
	default:
	}
}

// Run processes tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		if l.closed.CompareAndSwap(false, true) {
			close(l.done)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	l.inTask.Store(true)
	func() {
		defer func() {
			if r := recover(); r != nil {
				l.rt.logger.Error("loop task panicked", "err", errorFromPanic(r))
			}
		}()
		fn()
	}()
	l.inTask.Store(false)
	if l.flushWanted.CompareAndSwap(true, false) {
		l.rt.Flush()
	}
}

// Post queues fn. It blocks while the queue is full.
func (l *Loop) Post(fn func()) error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

// Do runs fn on the loop and waits until it and the flush it caused are
// done.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	var taskErr error
	err := l.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				taskErr = errorFromPanic(r)
			}
		}()
		taskErr = fn()
	})
	if err != nil {
		return err
	}

	barrier := make(chan struct{})
	if err := l.Post(func() { close(barrier) }); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopClosed
	case <-barrier:
		return taskErr
	}
}

// FrameTrigger flushes at most once per interval, on the loop. It is the
// timer-based alternative to flushing after every task.
type FrameTrigger struct {
	loop     *Loop
	interval time.Duration
	armed    atomic.Bool
}

// NewFrameTrigger replaces the loop's per-task flushing on its runtime.
func NewFrameTrigger(loop *Loop, interval time.Duration) *FrameTrigger {
	f := &FrameTrigger{loop: loop, interval: interval}
	loop.rt.sched.trigger = f
	return f
}

func (f *FrameTrigger) Request(flush func()) {
	if !f.armed.CompareAndSwap(false, true) {
		return
	}
	time.AfterFunc(f.interval, func() {
		err := f.loop.Post(func() {
			f.armed.Store(false)
			flush()
		})
		if err != nil {
			f.armed.Store(false)
		}
	})
}
