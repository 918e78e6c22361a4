// Package inspect renders runtime diagnostics. Nothing here changes how a
// runtime behaves.
package inspect

import (
	"context"
	"time"

	"github.com/delaneyj/deepstate/observable"
)

type Render struct {
	ID    uint64
	Name  string
	Took  time.Duration
	Count int
}

type Report struct {
	Stats observable.Stats
	Slow  []Render
}

// Collect snapshots rt. Consumers whose last evaluation took at least slow
// are listed; a zero threshold lists none.
func Collect(rt *observable.Runtime, slow time.Duration) Report {
	r := Report{Stats: rt.Stats()}
	if slow <= 0 {
		return r
	}
	for _, c := range rt.Consumers() {
		if c.LastRender() >= slow {
			r.Slow = append(r.Slow, Render{ID: c.ID(), Name: c.Name(), Took: c.LastRender(), Count: c.Renders()})
		}
	}
	return r
}

// Poll samples the loop's runtime every interval until ctx is done. The
// sample is taken on the loop, fn runs on the caller's goroutine.
func Poll(ctx context.Context, loop *observable.Loop, interval, slow time.Duration, fn func(Report)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		var report Report
		err := loop.Do(ctx, func() error {
			report = Collect(loop.Runtime(), slow)
			return nil
		})
		if err != nil {
			return err
		}
		fn(report)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
