package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/delaneyj/deepstate/observable"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	repeatsKey = "repeats"
	quickKey   = "quick"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark_computed",
		Usage: "Benchmark layered computed properties over observable objects",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  repeatsKey,
				Usage: "Timed runs per config, the best one is reported",
				Value: 5,
			},
			&cli.BoolFlag{
				Name:  quickKey,
				Usage: "Run a hundredth of the iterations",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	log.Print("Starting computed benchmark, please wait...")
	defer log.Print("Finished computed benchmark")

	perfTestCfgs := []benchmarkTestConfig{
		{name: "simple component", width: 10, staticFraction: 1, nSources: 2, totalLayers: 5, readFraction: 0.2, iterations: 600000},
		{name: "dynamic component", width: 10, totalLayers: 10, staticFraction: 0.75, nSources: 6, readFraction: 0.2, iterations: 15000},
		{name: "large web app", width: 1000, totalLayers: 12, staticFraction: 0.95, nSources: 4, readFraction: 1, iterations: 7000},
		{name: "wide dense", width: 1000, totalLayers: 5, staticFraction: 1, nSources: 25, readFraction: 1, iterations: 3000},
		{name: "deep", width: 5, totalLayers: 500, staticFraction: 1, nSources: 3, readFraction: 1, iterations: 500},
		{name: "very dynamic", width: 100, totalLayers: 15, staticFraction: 0.5, nSources: 6, readFraction: 1, iterations: 2000},
	}

	testRepeats := int(cmd.Uint(repeatsKey))
	if testRepeats < 1 {
		testRepeats = 1
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"size", "nSources", "read%", "static%",
		"nTimes", "test", "time", "evaluations", "updateRate", "title",
	})

	for _, cfg := range perfTestCfgs {
		if cmd.Bool(quickKey) {
			cfg.iterations = max(cfg.iterations/100, 1)
		}
		log.Printf("Running '%s' config", cfg.name)

		counter := new(int64)
		graph := makeGraph(cfg, counter)
		runOnce := func() int {
			return runGraph(graph, cfg.iterations, cfg.readFraction)
		}
		runOnce()

		var best struct {
			sum      int
			count    int64
			duration time.Duration
		}
		best.duration = time.Hour
		for i := 0; i < testRepeats; i++ {
			log.Printf("Running '%s' config, iteration %d/%d %d%%", cfg.name, i+1, testRepeats, (i+1)*100/testRepeats)
			*counter = 0
			start := time.Now()
			sum := runOnce()
			duration := time.Since(start)
			if duration < best.duration {
				best.duration = duration
				best.sum = sum
				best.count = *counter
			}
		}

		updateRate := float64(best.count) / (float64(best.duration) / float64(time.Millisecond))
		table.Append([]string{
			fmt.Sprintf("%dx%d", cfg.width, cfg.totalLayers),
			fmt.Sprint(cfg.nSources),
			fmt.Sprint(cfg.readFraction),
			fmt.Sprint(cfg.staticFraction),
			humanize.Comma(cfg.iterations),
			cfg.name,
			fmt.Sprint(best.duration),
			humanize.Comma(best.count),
			humanize.Comma(int64(updateRate)),
			cfg.title(),
		})
	}
	table.Render()
	return nil
}

type benchmarkTestConfig struct {
	name           string
	width          int64   // nodes per layer
	totalLayers    int64   // layers including the sources
	staticFraction float64 // fraction of nodes that always read all their sources
	nSources       int64   // sources read by each node
	readFraction   float64 // fraction of leaves read after every write
	iterations     int64
}

func (cfg benchmarkTestConfig) title() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%dx%d %d sources", cfg.width, cfg.totalLayers, cfg.nSources))
	if cfg.staticFraction < 1 {
		sb.WriteString(" dynamic")
	}
	if cfg.readFraction < 1 {
		sb.WriteString(fmt.Sprintf(" read %0.2f%%", 100*cfg.readFraction))
	}
	return sb.String()
}

// node is one readable slot: a plain field on the source object or a
// getter on a layer object.
type node struct {
	obj  *observable.Object
	name string
}

func (n node) read() int {
	return n.obj.Get(n.name).(int)
}

type graph struct {
	rt      *observable.Runtime
	sources []node
	leaves  []node
}

func makeGraph(cfg benchmarkTestConfig, counter *int64) *graph {
	rt := observable.New()
	src := rt.NewObject()
	prev := make([]node, cfg.width)
	for i := range prev {
		name := fmt.Sprintf("s%d", i)
		src.Set(name, i)
		prev[i] = node{obj: src, name: name}
	}
	g := &graph{rt: rt, sources: prev}

	random := rand.New(rand.NewSource(0))
	for l := int64(0); l < cfg.totalLayers-1; l++ {
		layer := rt.NewObject()
		row := make([]node, len(prev))
		for myDex := range prev {
			mine := make([]node, 0, cfg.nSources)
			for sourceDex := 0; sourceDex < int(cfg.nSources); sourceDex++ {
				mine = append(mine, prev[(myDex+sourceDex)%len(prev)])
			}
			name := fmt.Sprintf("n%d", myDex)
			if random.Float64() < cfg.staticFraction {
				layer.Define(name, observable.Accessor{Get: func(*observable.Object) any {
					*counter++
					sum := 0
					for _, s := range mine {
						sum += s.read()
					}
					return sum
				}})
			} else {
				first, tail := mine[0], mine[1:]
				layer.Define(name, observable.Accessor{Get: func(*observable.Object) any {
					*counter++
					sum := first.read()
					shouldDrop := sum&0x1 > 0
					dropDex := sum % len(tail)
					for i := range tail {
						if shouldDrop && i == dropDex {
							continue
						}
						sum += tail[i].read()
					}
					return sum
				}})
			}
			row[myDex] = node{obj: layer, name: name}
		}
		prev = row
	}
	g.leaves = prev
	return g
}

// runGraph writes one source per iteration and reads a fixed subset of the
// leaves, returning the sum of the final leaf values.
func runGraph(g *graph, iterations int64, readFraction float64) int {
	random := rand.New(rand.NewSource(0))
	skipCount := int(math.Round(float64(len(g.leaves)) * (1 - readFraction)))
	readLeaves := removeElems(g.leaves, skipCount, random)

	for i := 0; i < int(iterations); i++ {
		g.rt.Batch(func() error {
			sourceDex := i % len(g.sources)
			s := g.sources[sourceDex]
			s.obj.Set(s.name, i+sourceDex)
			return nil
		})
		for _, leaf := range readLeaves {
			leaf.read()
		}
	}

	sum := 0
	for _, leaf := range readLeaves {
		sum += leaf.read()
	}
	return sum
}

func removeElems[T any](src []T, rmCount int, rand *rand.Rand) []T {
	out := make([]T, len(src))
	copy(out, src)
	for i := 0; i < rmCount; i++ {
		rmDex := rand.Intn(len(out))
		out[rmDex] = out[len(out)-1]
		out = out[:len(out)-1]
	}
	return out
}
