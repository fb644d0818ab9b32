package main

import (
	"fmt"
	"os"

	"github.com/sarchlab/difftest/difftest"
	"github.com/sarchlab/difftest/dpic"
	"github.com/sarchlab/difftest/loader"
	"github.com/sarchlab/difftest/trace"
)

// runReplay feeds a recorded trace to a fresh session whose reference
// model runs the program.
func runReplay(opts *options) int {
	path := opts.programs[0]
	log := opts.log.WithValues("program", path, "trace", opts.replay)

	prog, err := loader.LoadFile(path, opts.base)
	if err != nil {
		fmt.Fprintf(opts.stdout, "FAIL %s: %v\n", path, err)
		return 1
	}

	f, err := os.Open(opts.replay)
	if err != nil {
		fmt.Fprintf(opts.stdout, "FAIL %s: %v\n", path, err)
		return 1
	}
	defer func() { _ = f.Close() }()

	session := difftest.NewSession(
		func(difftest.CoreID) (difftest.Oracle, error) {
			return prog.NewEmulator(), nil
		},
		difftest.WithConfig(opts.config),
		difftest.WithLogger(log),
	)

	res, err := trace.NewPlayer(f, dpic.NewBoundary(session), trace.WithLogger(log)).Run()
	if err != nil {
		fmt.Fprintf(opts.stdout, "FAIL %s: %v\n", path, err)
		return 1
	}

	status := difftest.Status(res.Status)
	note := ""
	if !res.Matches() {
		note = fmt.Sprintf(" (recorded %s)", difftest.Status(res.Recorded))
	}

	if status != difftest.StatusCompleted {
		fmt.Fprintf(opts.stdout, "FAIL %s: replayed %d records, %d cycles: %s%s: %v\n",
			path, res.Records, res.Cycles, status, note, session.Err())
		return 1
	}

	fmt.Fprintf(opts.stdout, "PASS %s: replayed %d records, %d cycles%s\n",
		path, res.Records, res.Cycles, note)
	return 0
}
