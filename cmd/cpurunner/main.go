// Command cpurunner runs CPU conformance suites headlessly: blargg style
// test ROMs reporting over the serial port, and per-opcode JSON state
// vectors. Every ROM and vector file runs in its own machine, several at a
// time.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/emu"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/log"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/vectors"
)

type CLI struct {
	Roms    Roms    `cmd:"" help:"Run test ROMs until they report Passed or Failed over serial."`
	Vectors Vectors `cmd:"" help:"Replay sm83 JSON state vectors."`

	Log  string `help:"Enable logging for specified modules." placeholder:"mod0,mod1,..."`
	Jobs int    `short:"j" help:"Number of ROMs or files run in parallel. (default: number of CPUs)"`
}

type Roms struct {
	Paths     []string `arg:"" name:"path" help:"ROM files or directories containing .gb files." type:"path"`
	MaxFrames int      `name:"max-frames" help:"Frames to run before giving up on a ROM." default:"3600"`
	Verbose   bool     `short:"v" help:"Print the serial output of every ROM."`
}

type Vectors struct {
	Dir       string `arg:"" help:"Directory of <opcode>.json files." type:"existingdir"`
	Only      string `help:"Only run files whose name starts with this prefix (e.g. cb)."`
	MaxErrors int    `name:"max-errors" help:"Failures printed per file." default:"5"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("cpurunner"),
		kong.Description("Run SM83 conformance suites."),
		kong.UsageOnError())

	if cli.Log != "" {
		mask, unknown := log.ParseModules(cli.Log)
		if len(unknown) > 0 {
			kctx.Fatalf("unknown log modules: %s", strings.Join(unknown, ","))
		}
		log.EnableDebugModules(mask)
	}
	if cli.Jobs <= 0 {
		cli.Jobs = runtime.NumCPU()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		ok  bool
		err error
	)
	switch kctx.Command() {
	case "roms <path>":
		ok, err = runROMs(ctx, cli.Jobs, &cli.Roms)
	case "vectors <dir>":
		ok, err = runVectors(ctx, cli.Jobs, &cli.Vectors)
	}
	kctx.FatalIfErrorf(err)
	if !ok {
		os.Exit(1)
	}
}

// collectROMs expands directories into the .gb files they contain.
func collectROMs(paths []string) ([]string, error) {
	var roms []string
	for _, p := range paths {
		err := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && (path == p || strings.EqualFold(filepath.Ext(path), ".gb")) {
				roms = append(roms, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(roms)
	return roms, nil
}

type romResult struct {
	verdict emu.Verdict
	output  string
	err     error
	elapsed time.Duration
}

func runROMs(ctx context.Context, jobs int, args *Roms) (bool, error) {
	roms, err := collectROMs(args.Paths)
	if err != nil {
		return false, err
	}
	if len(roms) == 0 {
		return false, errors.New("no ROM found")
	}

	results := make([]romResult, len(roms))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range roms {
		g.Go(func() error {
			start := time.Now()
			m := emu.New()
			if err := m.LoadROMFile(path); err != nil {
				results[i] = romResult{err: err}
				return nil
			}
			v, mon, err := emu.RunTestROM(ctx, m, args.MaxFrames)
			results[i] = romResult{verdict: v, output: mon.String(), err: err, elapsed: time.Since(start)}
			if errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	passed := 0
	for i, r := range results {
		status := r.verdict.String()
		if r.err != nil {
			status = r.err.Error()
		}
		fmt.Printf("%-50s %-10s %s\n", filepath.Base(roms[i]), status, r.elapsed.Truncate(time.Millisecond))
		if r.verdict == emu.Passed && r.err == nil {
			passed++
		}
		if out := indent(r.output); out != "" && (args.Verbose || r.verdict != emu.Passed) {
			fmt.Println(out)
		}
	}
	fmt.Printf("\n%d/%d ROMs passed\n", passed, len(roms))
	return passed == len(roms), nil
}

func runVectors(ctx context.Context, jobs int, args *Vectors) (bool, error) {
	files, err := filepath.Glob(filepath.Join(args.Dir, args.Only+"*.json"))
	if err != nil {
		return false, err
	}
	if len(files) == 0 {
		return false, errors.Errorf("no vector file in %s", args.Dir)
	}
	slices.Sort(files)

	results := make([]vectors.Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := vectors.RunFile(path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	var passed, total int
	for _, res := range results {
		n := res.Passed + len(res.Errors)
		passed += res.Passed
		total += n
		if len(res.Errors) == 0 {
			continue
		}
		fmt.Printf("%s: %d/%d passed\n", filepath.Base(res.Path), res.Passed, n)
		for i, err := range res.Errors {
			if i == args.MaxErrors {
				fmt.Printf("\t... and %d more\n", len(res.Errors)-i)
				break
			}
			fmt.Println(indent(err.Error()))
		}
	}
	fmt.Printf("\n%d/%d tests passed in %d files\n", passed, total, len(files))
	return passed == total, nil
}

func indent(s string) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	return "\t" + strings.ReplaceAll(s, "\n", "\n\t")
}
