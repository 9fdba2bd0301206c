package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spindlekit/spindle"
	"github.com/urfave/cli/v3"
)

const (
	iterationsKey = "iterations"
	profileKey    = "profile"
)

var (
	ww = []int{1, 10, 100}
	hh = []int{1, 10, 100}
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure write propagation through keyed computed chains",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  iterationsKey,
				Usage: "Writes per graph shape",
				Value: 100,
			},
			&cli.BoolFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to default.pgo",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	iters := int(cmd.Uint(iterationsKey))

	if cmd.Bool(profileKey) {
		f, err := os.Create("default.pgo")
		if err != nil {
			return err
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	tbl := table.NewWriter()
	tbl.SetTitle("spindle keyed store")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "notifies", "avg", "min", "p75", "p99", "max", "checksum"})

	for _, w := range ww {
		for _, h := range hh {
			row, err := benchmarkShape(w, h, iters)
			if err != nil {
				return err
			}
			tbl.AppendRows([]table.Row{row})
		}
	}

	tbl.Render()
	return nil
}

// benchmarkShape builds w parallel chains of h computed keys hanging off
// one source key, then times iters writes to the source. The checksum is
// over the final store snapshot; runs with the same shape and iterations
// must agree on it if propagation reached every key.
func benchmarkShape(w, h, iters int) (table.Row, error) {
	rt := spindle.New(map[string]any{"src": 1})
	defer rt.Destroy()
	store := rt.Store()

	var notified int64
	for i := 0; i < w; i++ {
		prev := "src"
		for j := 0; j < h; j++ {
			name := fmt.Sprintf("c%d_%d", i, j)
			src := prev
			if err := rt.RegisterComputed(name, func() (any, error) {
				v, _ := store.Get(src).(int)
				return v + 1, nil
			}); err != nil {
				return nil, err
			}
			prev = name
		}
		rt.RegisterWatcher(prev, func(any) error {
			notified++
			return nil
		})
	}

	tach := tachymeter.New(&tachymeter.Config{Size: iters})
	for i := 0; i < iters; i++ {
		next := store.Get("src").(int) + 1
		start := time.Now()
		if err := store.Set("src", next); err != nil {
			return nil, err
		}
		tach.AddTime(time.Since(start))
	}

	sb := &strings.Builder{}
	if err := rt.DumpYAML(sb); err != nil {
		return nil, err
	}

	calc := tach.Calc()
	return table.Row{
		fmt.Sprintf("propagate: %d * %d", w, h),
		humanize.Comma(notified),
		calc.Time.Avg,
		calc.Time.Min,
		calc.Time.P75,
		calc.Time.P99,
		calc.Time.Max,
		fmt.Sprintf("%016x", xxhash.Sum64String(sb.String())),
	}, nil
}
