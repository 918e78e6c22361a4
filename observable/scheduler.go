package observable

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// Trigger decides when notifications raised outside a batch get flushed.
// Request is called at most once per outstanding flush.
type Trigger interface {
	Request(flush func())
}

type TriggerFunc func(flush func())

func (f TriggerFunc) Request(flush func()) {
	f(flush)
}

// ManualTrigger never flushes by itself; the host calls Runtime.Flush.
type ManualTrigger struct{}

func (ManualTrigger) Request(func()) {}

type scheduler struct {
	rt        *Runtime
	trigger   Trigger
	maxPasses int

	depth     int
	pending   []*Consumer
	queued    mapset.Set[*Consumer]
	requested bool
	flushing  bool
}

func newScheduler(rt *Runtime) *scheduler {
	return &scheduler{
		rt:        rt,
		trigger:   ManualTrigger{},
		maxPasses: 100,
		queued:    mapset.NewThreadUnsafeSet[*Consumer](),
	}
}

// enqueue adds c unless it is already waiting, either for the next pass or
// for its turn in the running one.
func (s *scheduler) enqueue(c *Consumer) {
	if !s.queued.Add(c) {
		return
	}
	s.pending = append(s.pending, c)
	if s.depth == 0 && !s.flushing {
		s.request()
	}
}

func (s *scheduler) request() {
	if s.requested {
		return
	}
	s.requested = true
	s.trigger.Request(func() { s.rt.Flush() })
}

func (s *scheduler) hasPending() bool {
	return len(s.pending) > 0
}

func (s *scheduler) drop(c *Consumer) {
	if !s.queued.Contains(c) {
		return
	}
	s.queued.Remove(c)
	for i, p := range s.pending {
		if p == c {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
}

// Pending reports how many consumers wait for the next flush.
func (rt *Runtime) Pending() int {
	return len(rt.sched.pending)
}

// Flush re-evaluates every pending consumer and keeps going while those
// re-evaluations dirty more consumers. A consumer runs at most once per
// pass. Failures are isolated per consumer. Flush is a no-op inside a batch
// or when already flushing, and returns how many consumers ran.
func (rt *Runtime) Flush() int {
	s := rt.sched
	s.requested = false
	if s.flushing || s.depth > 0 {
		return 0
	}
	s.flushing = true
	defer func() { s.flushing = false }()

	ran := 0
	for pass := 0; len(s.pending) > 0; pass++ {
		if pass == s.maxPasses {
			err := fmt.Errorf("%w: %d consumers still pending after %d passes", ErrFlushLimit, len(s.pending), pass)
			rt.logger.Error("flush aborted", "err", err)
			if rt.onError != nil {
				rt.onError(nil, err)
			}
			s.pending = nil
			s.queued.Clear()
			break
		}

		current := s.pending
		s.pending = nil
		for _, c := range current {
			s.queued.Remove(c)
			if c.dead || !c.live {
				continue
			}
			ran++
			rt.rerun(c)
		}
		rt.logger.Debug("flush pass", "pass", pass, "consumers", len(current))
	}
	return ran
}

func (rt *Runtime) rerun(c *Consumer) {
	depth := len(rt.frames)
	defer func() {
		if r := recover(); r != nil {
			rt.frames = rt.frames[:depth]
			c.evaluating = false
			rt.fail(c, errorFromPanic(r))
		}
	}()
	if err := c.rerun(); err != nil {
		rt.fail(c, err)
	}
}

func (rt *Runtime) fail(c *Consumer, err error) {
	c.failures++
	evalErr := &EvaluationError{ConsumerID: c.id, Name: c.name, Err: err}
	rt.logger.Error("re-evaluation failed", "consumer", c.name, "id", c.id, "err", err)
	if rt.onError != nil {
		rt.onError(c, evalErr)
	}
}
