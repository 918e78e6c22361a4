package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/deepstate/inspect"
	"github.com/delaneyj/deepstate/observable"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	itersKey   = "iters"
	maxSizeKey = "max"
	profileKey = "profile"
	statsKey   = "stats"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure write-to-flush latency of observable graphs",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Writes measured per graph",
				Value: 100,
			},
			&cli.UintFlag{
				Name:  maxSizeKey,
				Usage: "Largest width and height to build",
				Value: 1_000,
			},
			&cli.BoolFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to default.pgo",
			},
			&cli.BoolFlag{
				Name:  statsKey,
				Usage: "Print runtime stats of the largest graph",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool(profileKey) {
		f, err := os.Create("default.pgo")
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	var sizes []int
	for s := 1; s <= int(cmd.Uint(maxSizeKey)); s *= 10 {
		sizes = append(sizes, s)
	}
	iters := int(cmd.Uint(itersKey))

	log.Printf("warming up")
	benchmarkPropagate(sizes, iters, false, false)

	benchmarkPropagate(sizes, iters, true, cmd.Bool(statsKey))
	benchmarkFanOut(sizes, iters)
	return nil
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendResult(tbl table.Writer, name string, tach *tachymeter.Tachymeter) {
	calc := tach.Calc()
	tbl.AppendRows([]table.Row{
		{name, calc.Time.Avg, calc.Time.Min, calc.Time.P75, calc.Time.P99, calc.Time.Max},
	})
}

// benchmarkPropagate builds w chains of h getters hanging off one source
// field, with a tracker at the end of every chain, and times a write plus
// the flush that re-runs all w trackers.
func benchmarkPropagate(sizes []int, iters int, shouldRender, printStats bool) {
	tbl := newTable("Propagate")
	var last *observable.Runtime

	for _, w := range sizes {
		for _, h := range sizes {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rt := observable.New(observable.WithErrorHandler(func(from *observable.Consumer, err error) {
				log.Panic(err)
			}))
			src := rt.Object(map[string]any{"value": 1})
			for i := 0; i < w; i++ {
				prev := src
				prevName := "value"
				for j := 0; j < h; j++ {
					p, name := prev, prevName
					next := rt.NewObject()
					next.Define("v", observable.Accessor{Get: func(*observable.Object) any {
						return p.Get(name).(int) + 1
					}})
					prev, prevName = next, "v"
				}

				tail := prev
				var tr *observable.Tracker
				render := func() error {
					tail.Get("v")
					return nil
				}
				tr = rt.NewTracker(func() error { return tr.Render(render) })
				if err := tr.Render(render); err != nil {
					log.Panic(err)
				}
				tr.MarkLive()
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Set("value", src.Peek("value").(int)+1)
				rt.Flush()
				tach.AddTime(time.Since(start))
			}
			appendResult(tbl, fmt.Sprintf("propagate: %d * %d", w, h), tach)
			last = rt
		}
	}

	if shouldRender {
		tbl.Render()
	}
	if printStats && last != nil {
		inspect.WriteTable(os.Stdout, inspect.Collect(last, 0))
	}
}

// benchmarkFanOut puts one tracker on every index of an array of width w
// and times rewriting a single index, which must only re-run one tracker.
func benchmarkFanOut(sizes []int, iters int) {
	tbl := newTable("Array fan-out")

	for _, w := range sizes {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		rt := observable.New()
		items := make([]any, w)
		for i := range items {
			items[i] = map[string]any{"n": i}
		}
		arr := rt.Array(items)

		for i := 0; i < w; i++ {
			idx := i
			var tr *observable.Tracker
			render := func() error {
				tr.Lens(arr).At(idx).Get("n")
				return nil
			}
			tr = rt.NewTracker(func() error { return tr.Render(render) })
			if err := tr.Render(render); err != nil {
				log.Panic(err)
			}
			tr.MarkLive()
		}

		for i := 0; i < iters; i++ {
			start := time.Now()
			item := arr.Peek(i % w).(*observable.Object)
			item.Set("n", item.Peek("n").(int)+1)
			rt.Flush()
			tach.AddTime(time.Since(start))
		}
		appendResult(tbl, fmt.Sprintf("fan-out: %d", w), tach)
	}
	tbl.Render()
}
