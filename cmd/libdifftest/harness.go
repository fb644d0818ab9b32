package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/difftest/difftest"
	"github.com/sarchlab/difftest/dpic"
	"github.com/sarchlab/difftest/loader"
)

// Environment variables read by v_difftest_init.
const (
	EnvImage     = "DIFFTEST_IMAGE"
	EnvBase      = "DIFFTEST_BASE"
	EnvConfig    = "DIFFTEST_CONFIG"
	EnvVerbosity = "DIFFTEST_VERBOSE"
)

// newLogger creates a logger writing to w.
func newLogger(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "difftest: %s: %s\n", prefix, args)
			return
		}
		fmt.Fprintf(w, "difftest: %s\n", args)
	}, funcr.Options{Verbosity: verbosity})
}

// newBoundary builds the session the exported calls feed, configured from
// the environment. The reference model of every core runs the image named
// by DIFFTEST_IMAGE.
func newBoundary(getenv func(string) string, log logr.Logger) (*dpic.Boundary, error) {
	path := getenv(EnvImage)
	if path == "" {
		return nil, fmt.Errorf("%s is not set", EnvImage)
	}

	base := uint64(loader.DefaultBase)
	if s := getenv(EnvBase); s != "" {
		var err error
		base, err = strconv.ParseUint(s, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvBase, err)
		}
	}

	prog, err := loader.LoadFile(path, uint32(base))
	if err != nil {
		return nil, err
	}

	config := difftest.DefaultConfig()
	if p := getenv(EnvConfig); p != "" {
		config, err = difftest.LoadConfig(p)
		if err != nil {
			return nil, err
		}
	}

	session := difftest.NewSession(
		func(difftest.CoreID) (difftest.Oracle, error) {
			return prog.NewEmulator(), nil
		},
		difftest.WithConfig(config),
		difftest.WithLogger(log.WithValues("image", path)),
	)

	return dpic.NewBoundary(session), nil
}

// verbosity parses DIFFTEST_VERBOSE, defaulting to 0.
func verbosity(getenv func(string) string) int {
	v, err := strconv.Atoi(getenv(EnvVerbosity))
	if err != nil {
		return 0
	}
	return v
}
