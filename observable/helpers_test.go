package observable_test

import (
	"testing"

	"github.com/delaneyj/deepstate/observable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuntime(t *testing.T, opts ...observable.Option) *observable.Runtime {
	t.Helper()
	opts = append([]observable.Option{
		observable.WithErrorHandler(func(from *observable.Consumer, err error) {
			assert.FailNow(t, err.Error())
		}),
	}, opts...)
	return observable.New(opts...)
}

// watcher is a live consumer that re-reads on every scheduled run.
type watcher struct {
	*observable.Consumer
	runs int
}

func watch(t *testing.T, rt *observable.Runtime, read func()) *watcher {
	t.Helper()
	w := &watcher{}
	eval := func() error {
		read()
		return nil
	}
	w.Consumer = rt.NewConsumer(func() error {
		w.runs++
		return w.Evaluate(eval)
	})
	require.NoError(t, w.Evaluate(eval))
	w.MarkLive()
	return w
}
