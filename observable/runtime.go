// Package observable turns plain Go containers (map[string]any, []any,
// map[any]any and map[any]struct{}) into observable objects, arrays, maps
// and sets. Reads made while a consumer evaluates are recorded per
// property, writes invalidate cached getters and schedule exactly the
// consumers that read what changed.
//
// A Runtime is driven from a single goroutine, the way an event loop
// drives a UI. Use a Loop when work arrives from other goroutines.
package observable

import (
	"io"
	"log/slog"
	"time"
)

type OnErrorFunc func(from *Consumer, err error)

type Option func(*Runtime)

func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithTrigger sets the policy deciding when notifications raised outside a
// batch are flushed. The default is a ManualTrigger.
func WithTrigger(trigger Trigger) Option {
	return func(rt *Runtime) {
		if trigger != nil {
			rt.sched.trigger = trigger
		}
	}
}

// WithErrorHandler is called for every failed scheduled re-evaluation, in
// addition to the error being logged.
func WithErrorHandler(onError OnErrorFunc) Option {
	return func(rt *Runtime) {
		rt.onError = onError
	}
}

// WithMaxFlushPasses bounds how many times a single Flush may loop while
// consumers keep dirtying each other.
func WithMaxFlushPasses(n int) Option {
	return func(rt *Runtime) {
		if n > 0 {
			rt.sched.maxPasses = n
		}
	}
}

// frame is one entry of the active tracking stack. A frame with neither a
// consumer nor a computed entry pauses tracking.
type frame struct {
	consumer *Consumer
	computed *computedEntry
}

type Runtime struct {
	logger  *slog.Logger
	onError OnErrorFunc

	ids      *registry
	ledger   *ledger
	computed *computedCache
	sched    *scheduler

	frames    []frame
	consumers map[uint64]*Consumer
}

func New(opts ...Option) *Runtime {
	rt := &Runtime{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:       newRegistry(),
		ledger:    newLedger(),
		consumers: map[uint64]*Consumer{},
	}
	rt.computed = newComputedCache()
	rt.sched = newScheduler(rt)
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

func (rt *Runtime) pushFrame(f frame) {
	rt.frames = append(rt.frames, f)
}

func (rt *Runtime) popFrame() {
	rt.frames = rt.frames[:len(rt.frames)-1]
}

func (rt *Runtime) top() (frame, bool) {
	if len(rt.frames) == 0 {
		return frame{}, false
	}
	return rt.frames[len(rt.frames)-1], true
}

// Tracking reports whether a read right now would be recorded somewhere.
func (rt *Runtime) Tracking() bool {
	f, ok := rt.top()
	return ok && (f.consumer != nil || f.computed != nil)
}

func (rt *Runtime) PauseTracking() {
	rt.pushFrame(frame{})
}

func (rt *Runtime) ResumeTracking() {
	rt.popFrame()
}

// Untracked runs fn without recording any of its reads.
func (rt *Runtime) Untracked(fn func()) {
	rt.PauseTracking()
	defer rt.ResumeTracking()
	fn()
}

// track records a read of prop on src into the innermost frame. value is
// what the read returned, kept by precise trackers to filter notifications
// that do not change anything they saw.
func (rt *Runtime) track(src Container, prop any, value any) {
	f, ok := rt.top()
	if !ok {
		return
	}
	key := PropertyKey{ID: src.ID(), Prop: prop}
	switch {
	case f.computed != nil:
		rt.computed.depend(f.computed, key)
	case f.consumer != nil:
		f.consumer.record(key, src, value)
	}
}

// notify is called after a write to key has been applied.
func (rt *Runtime) notify(key PropertyKey) {
	for _, getter := range rt.computed.invalidate(key) {
		rt.notifySubscribers(getter)
	}
	rt.notifySubscribers(key)
}

func (rt *Runtime) notifySubscribers(key PropertyKey) {
	for _, c := range rt.ledger.subscribers(key) {
		switch {
		case c.dead:
			rt.ledger.remove(key, c)
		case !c.live:
		case !c.changed(key):
		default:
			rt.sched.enqueue(c)
		}
	}
}

func (rt *Runtime) StartBatch() {
	rt.sched.depth++
}

func (rt *Runtime) EndBatch() {
	rt.sched.depth--
	if rt.sched.depth > 0 || !rt.sched.hasPending() {
		return
	}
	if len(rt.frames) > 0 {
		// closing a batch inside an evaluation must not re-enter consumers
		rt.sched.request()
		return
	}
	rt.Flush()
}

// Batch runs fn with notifications deferred until the outermost batch
// closes. Writes are visible immediately; only re-evaluation waits. Errors
// and panics from fn propagate, and whatever was collected is still flushed.
func (rt *Runtime) Batch(fn func() error) error {
	rt.StartBatch()
	defer rt.EndBatch()
	return fn()
}

func (rt *Runtime) BatchNamed(name string, fn func() error) error {
	start := time.Now()
	rt.logger.Debug("batch start", "name", name, "depth", rt.sched.depth)
	err := rt.Batch(fn)
	rt.logger.Debug("batch end", "name", name, "took", time.Since(start), "err", err)
	return err
}

// Batched is Batch for functions that return a value.
func Batched[T any](rt *Runtime, fn func() (T, error)) (T, error) {
	rt.StartBatch()
	defer rt.EndBatch()
	return fn()
}
