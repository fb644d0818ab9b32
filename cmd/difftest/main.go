// Package main provides the difftest command. It checks LA32R programs by
// running them on the emulated hardware core against the reference model,
// or replays a recorded boundary trace.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/difftest/difftest"
	"github.com/sarchlab/difftest/dut"
	"github.com/sarchlab/difftest/loader"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the parsed command line.
type options struct {
	config    *difftest.Config
	timing    *dut.TimingConfig
	width     int
	snapshots bool
	skipTimer bool
	faults    []dut.Fault
	base      uint32
	maxCycles uint64
	record    string
	replay    string
	cpuProf   string
	memProf   string
	jobs      int
	programs  []string
	log       logr.Logger
	stdout    io.Writer
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if opts.cpuProf != "" {
		stop, err := startCPUProfile(opts.cpuProf)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		defer stop()
	}

	runner := runCheck
	if opts.replay != "" {
		runner = runReplay
	}
	status := runner(opts)

	if opts.memProf != "" {
		if err := writeHeapProfile(opts.memProf); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
	}

	return status
}

func parseFlags(args []string, stdout, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("difftest", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath = fs.String("config", "", "Path to difftest configuration (JSON or YAML)")
		timingPath = fs.String("timing", "", "Path to core timing configuration JSON file")
		cores      = fs.Int("cores", 0, "Number of cores, each running the program (overrides config)")
		width      = fs.Int("width", 1, "Commit width of the emulated core")
		snapshots  = fs.Bool("snapshots", false, "Report register and CSR snapshots every cycle")
		skipTimer  = fs.Bool("skip-timer", false, "Report timer CSR reads as skipped")
		base       = fs.Uint("base", loader.DefaultBase, "Load address of raw images")
		maxCycles  = fs.Uint64("max-cycles", 10_000_000, "Cycle limit per program (0 for none)")
		record     = fs.String("record", "", "Write the boundary trace of the run to this file")
		replay     = fs.String("replay", "", "Replay a recorded trace against the program")
		cpuProf    = fs.String("cpuprofile", "", "Write a CPU profile to this file")
		memProf    = fs.String("memprofile", "", "Write a memory profile to this file")
		jobs       = fs.Int("j", runtime.NumCPU(), "Programs checked in parallel")
		verbosity  = fs.Int("v", 0, "Log verbosity")
		faults     faultList
	)
	fs.Var(&faults, "fault", "Inject a fault on core 0, as kind@seq[:bit] (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: difftest [options] <program>...\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return nil, fmt.Errorf("no program given")
	}

	opts := &options{
		width:     *width,
		snapshots: *snapshots,
		skipTimer: *skipTimer,
		faults:    faults,
		base:      uint32(*base),
		maxCycles: *maxCycles,
		record:    *record,
		replay:    *replay,
		cpuProf:   *cpuProf,
		memProf:   *memProf,
		jobs:      *jobs,
		programs:  fs.Args(),
		stdout:    stdout,
	}

	opts.config = difftest.DefaultConfig()
	if *configPath != "" {
		config, err := difftest.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
		opts.config = config
	}
	if *cores > 0 {
		opts.config.NumCores = *cores
	}
	if err := opts.config.Validate(); err != nil {
		return nil, err
	}

	opts.timing = dut.DefaultTimingConfig()
	if *timingPath != "" {
		timing, err := dut.LoadConfig(*timingPath)
		if err != nil {
			return nil, err
		}
		opts.timing = timing
	}
	if err := opts.timing.Validate(); err != nil {
		return nil, err
	}

	if opts.width < 1 || opts.width > opts.config.CommitWidth {
		return nil, fmt.Errorf("width must be in [1, %d]", opts.config.CommitWidth)
	}
	if (opts.record != "" || opts.replay != "") && len(opts.programs) != 1 {
		return nil, fmt.Errorf("-record and -replay take a single program")
	}
	if opts.jobs < 1 {
		opts.jobs = 1
	}

	var mu sync.Mutex
	opts.log = funcr.New(func(prefix, args string) {
		mu.Lock()
		defer mu.Unlock()
		if prefix != "" {
			fmt.Fprintf(stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(stderr, args)
	}, funcr.Options{Verbosity: *verbosity})

	return opts, nil
}
