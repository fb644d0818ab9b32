package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/difftest/difftest"
	"github.com/sarchlab/difftest/dpic"
	"github.com/sarchlab/difftest/dut"
	"github.com/sarchlab/difftest/loader"
	"github.com/sarchlab/difftest/trace"
)

// result is the outcome of checking one program.
type result struct {
	program      string
	status       difftest.Status
	err          error
	exitCode     uint8
	cycles       uint64
	instructions uint64
}

// passed reports a completed run that hit the good trap on every core.
func (r result) passed() bool {
	return r.err == nil && r.status == difftest.StatusCompleted && r.exitCode == 0
}

func runCheck(opts *options) int {
	results := make([]result, len(opts.programs))

	var g errgroup.Group
	g.SetLimit(opts.jobs)
	for i, path := range opts.programs {
		g.Go(func() error {
			results[i] = checkProgram(opts, path)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		printResult(opts.stdout, r)
		if !r.passed() {
			failed++
		}
	}

	if failed > 0 {
		fmt.Fprintf(opts.stdout, "%d of %d programs failed\n", failed, len(results))
		return 1
	}
	return 0
}

// checkProgram runs path on the emulated cores against the reference model.
func checkProgram(opts *options, path string) (res result) {
	res.program = path
	log := opts.log.WithValues("program", path)

	prog, err := loader.LoadFile(path, opts.base)
	if err != nil {
		res.err = err
		return res
	}

	session := difftest.NewSession(
		func(difftest.CoreID) (difftest.Oracle, error) {
			return prog.NewEmulator(), nil
		},
		difftest.WithConfig(opts.config),
		difftest.WithLogger(log),
	)

	var port dpic.Port = dpic.NewBoundary(session)
	if opts.record != "" {
		f, err := os.Create(opts.record)
		if err != nil {
			res.err = fmt.Errorf("failed to create trace: %w", err)
			return res
		}
		defer func() { _ = f.Close() }()

		rec := trace.NewRecorder(f, port)
		defer func() {
			if rec.Err() != nil && res.err == nil {
				res.err = fmt.Errorf("failed to write trace: %w", rec.Err())
			}
		}()
		port = rec
	}

	cores := make([]*dut.Core, opts.config.NumCores)
	for i := range cores {
		coreOpts := []dut.CoreOption{
			dut.WithCommitConfig(dut.CommitConfig{Width: opts.width}),
			dut.WithTimingConfig(opts.timing),
			dut.WithLogger(log),
		}
		if opts.snapshots {
			coreOpts = append(coreOpts, dut.WithSnapshots())
		}
		if opts.skipTimer {
			coreOpts = append(coreOpts, dut.WithSkip(dut.SkipTimerReads))
		}
		if i == 0 {
			coreOpts = append(coreOpts, dut.WithFaults(opts.faults...))
		}
		cores[i] = dut.NewCore(uint8(i), prog.NewEmulator(), port, coreOpts...)
	}

	status, err := dut.NewSystem(port, cores...).Run(opts.maxCycles)

	res.status = difftest.Status(status)
	res.cycles = session.Cycle()
	for _, c := range cores {
		res.instructions += c.Stats().Instructions
	}
	for i := range cores {
		if code, ok := session.ExitCode(difftest.CoreID(i)); ok && code != 0 {
			res.exitCode = code
			break
		}
	}

	switch {
	case err != nil:
		res.err = err
	case res.status != difftest.StatusCompleted:
		res.err = session.Err()
	}

	return res
}

func printResult(w io.Writer, r result) {
	switch {
	case r.err != nil:
		fmt.Fprintf(w, "FAIL %s: %v\n", r.program, r.err)
	case r.exitCode != 0:
		fmt.Fprintf(w, "FAIL %s: HIT BAD TRAP (code %d) after %d instructions, %d cycles\n",
			r.program, r.exitCode, r.instructions, r.cycles)
	default:
		fmt.Fprintf(w, "PASS %s: HIT GOOD TRAP after %d instructions, %d cycles\n",
			r.program, r.instructions, r.cycles)
	}
}
