package observable

import (
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

type ConsumerOption func(*Consumer)

func WithName(name string) ConsumerOption {
	return func(c *Consumer) {
		c.name = name
	}
}

// snapshot is what a precise tracker saw when it read a key.
type snapshot struct {
	src   Container
	value any
	path  string
}

// unset marks reads whose value cannot be compared later (iteration,
// membership, getters), so any notification for them counts as a change.
type unset struct{}

// Consumer is one evaluation unit owned by the host: a component instance,
// a subscription, an effect. The host supplies the rerun callback, reports
// mount and teardown with MarkLive and MarkDead, and brackets each
// evaluation with Begin and End (or Evaluate).
type Consumer struct {
	rt    *Runtime
	id    uint64
	name  string
	rerun func() error

	precise    bool
	live       bool
	dead       bool
	evaluating bool

	deps      mapset.Set[PropertyKey]
	prev      mapset.Set[PropertyKey]
	snapshots map[PropertyKey]*snapshot
	readPath  string

	generation int
	renders    int
	failures   int
	started    time.Time
	lastRender time.Duration
}

// NewConsumer registers a consumer using the whole-object strategy: it
// subscribes to whatever it reads, typically everything reachable from a
// root handed to Observe.
func (rt *Runtime) NewConsumer(rerun func() error, opts ...ConsumerOption) *Consumer {
	return rt.newConsumer(rerun, false, opts)
}

func (rt *Runtime) newConsumer(rerun func() error, precise bool, opts []ConsumerOption) *Consumer {
	c := &Consumer{
		rt:      rt,
		id:      rt.ids.nextID(),
		rerun:   rerun,
		precise: precise,
		deps:    mapset.NewThreadUnsafeSet[PropertyKey](),
	}
	if precise {
		c.snapshots = map[PropertyKey]*snapshot{}
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.name == "" {
		c.name = fmt.Sprintf("consumer-%d", c.id)
	}
	if c.rerun == nil {
		c.rerun = func() error { return nil }
	}
	rt.consumers[c.id] = c
	return c
}

func (c *Consumer) ID() uint64 {
	return c.id
}

func (c *Consumer) Name() string {
	return c.name
}

func (c *Consumer) Alive() bool {
	return c.live && !c.dead
}

func (c *Consumer) Dead() bool {
	return c.dead
}

func (c *Consumer) Evaluating() bool {
	return c.evaluating
}

func (c *Consumer) Renders() int {
	return c.renders
}

// Generation counts started evaluations, including ones that failed.
func (c *Consumer) Generation() int {
	return c.generation
}

func (c *Consumer) LastRender() time.Duration {
	return c.lastRender
}

// Failures counts scheduled re-evaluations that returned an error or
// panicked.
func (c *Consumer) Failures() int {
	return c.failures
}

// MarkLive lets notifications reach the consumer. Until then its reads are
// recorded but writes do not schedule it.
func (c *Consumer) MarkLive() {
	if c.dead {
		return
	}
	c.live = true
}

// MarkDead is final. The consumer leaves the ledger and the pending queue
// and its rerun callback is never invoked again.
func (c *Consumer) MarkDead() {
	if c.dead {
		return
	}
	c.dead = true
	c.live = false
	c.rt.ledger.purge(c, c.deps)
	c.deps.Clear()
	c.rt.sched.drop(c)
	delete(c.rt.consumers, c.id)
	if c.precise {
		clear(c.snapshots)
	}
	c.rt.logger.Debug("consumer dead", "consumer", c.name, "id", c.id)
}

// Begin makes c the active reader. Every read until End replaces what c
// read during its previous evaluation.
func (c *Consumer) Begin() error {
	if c.dead {
		return fmt.Errorf("%w: %s", ErrConsumerDead, c.name)
	}
	if c.evaluating {
		return fmt.Errorf("%w: %s", ErrReentrantEvaluation, c.name)
	}
	c.evaluating = true
	c.generation++
	c.started = time.Now()
	c.prev = c.deps
	c.deps = mapset.NewThreadUnsafeSet[PropertyKey]()
	if c.precise {
		c.snapshots = map[PropertyKey]*snapshot{}
	}
	c.rt.pushFrame(frame{consumer: c})
	return nil
}

func (c *Consumer) End() {
	if !c.evaluating {
		return
	}
	c.evaluating = false
	for i := len(c.rt.frames) - 1; i >= 0; i-- {
		if c.rt.frames[i].consumer == c {
			c.rt.frames = c.rt.frames[:i]
			break
		}
	}

	if c.prev != nil {
		c.rt.ledger.purge(c, c.prev.Difference(c.deps))
		c.prev = nil
	}
	if c.dead {
		c.rt.ledger.purge(c, c.deps)
		c.deps.Clear()
	}
	c.renders++
	c.lastRender = time.Since(c.started)
}

// Evaluate brackets fn with Begin and End. Errors and panics from fn reach
// the caller unchanged.
func (c *Consumer) Evaluate(fn func() error) error {
	if err := c.Begin(); err != nil {
		return err
	}
	defer c.End()
	return fn()
}

// Observe subscribes c to everything reachable from root. It does nothing
// outside an evaluation, and nothing when a precise tracker is already
// rendering, since that tracker records the exact reads itself.
func (c *Consumer) Observe(root any) {
	if !c.evaluating || c.dead || c.precise || c.rt.preciseRendering() {
		return
	}
	c.rt.pushFrame(frame{consumer: c})
	defer c.rt.popFrame()
	c.rt.walk(root)
}

func (rt *Runtime) preciseRendering() bool {
	for _, f := range rt.frames {
		if f.consumer != nil && f.consumer.precise && f.consumer.evaluating {
			return true
		}
	}
	return false
}

// Dependencies returns the keys read during the last evaluation.
func (c *Consumer) Dependencies() []PropertyKey {
	return c.deps.ToSlice()
}

func (c *Consumer) record(key PropertyKey, src Container, value any) {
	if !c.evaluating || c.dead {
		return
	}
	if c.deps.Add(key) {
		c.rt.ledger.add(key, c)
	}
	if !c.precise {
		return
	}
	if s, ok := c.snapshots[key]; ok {
		s.value = value
		if c.readPath != "" {
			s.path = c.readPath
		}
		return
	}
	c.snapshots[key] = &snapshot{src: src, value: value, path: c.readPath}
}

// changed filters notifications for precise trackers: a write that leaves
// the slot holding what the tracker last saw does not schedule it.
func (c *Consumer) changed(key PropertyKey) bool {
	if !c.precise {
		return true
	}
	s, ok := c.snapshots[key]
	if !ok {
		return true
	}
	if _, ok := s.value.(unset); ok {
		return true
	}
	cur, _ := s.src.peek(key.Prop)
	if identical(cur, s.value) {
		return false
	}
	s.value = cur
	return true
}
