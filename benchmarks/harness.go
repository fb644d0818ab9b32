// Package benchmarks runs LA32R microbenchmarks on the emulated core with
// every commit checked against the reference model, and reports timing
// and checker throughput.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/difftest/difftest"
	"github.com/sarchlab/difftest/dpic"
	"github.com/sarchlab/difftest/dut"
	"github.com/sarchlab/difftest/emu"
)

// ProgramBase is where benchmark programs are loaded and entered.
const ProgramBase = uint32(0x1C000000)

// BenchmarkResult holds the results of a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// Status is the final session status
	Status string `json:"status"`

	// Passed is set when the run completed without divergence and exited
	// with the expected code
	Passed bool `json:"passed"`

	// SimulatedCycles is the total cycle count of the emulated core
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of committed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// StallCycles is the number of cycles without a commit
	StallCycles uint64 `json:"stall_cycles"`

	// CacheMisses is the number of data cache misses (0 without a cache)
	CacheMisses uint64 `json:"cache_misses,omitempty"`

	// CheckedCommits is the number of commits compared against the
	// reference model
	CheckedCommits uint64 `json:"checked_commits"`

	// ExitCode is the program's exit code
	ExitCode int64 `json:"exit_code"`

	// WallTime is the actual time taken to run the checked simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Program holds the instruction words, loaded at ProgramBase
	Program []uint32

	// ExpectedExit is the expected exit code (for validation)
	ExpectedExit int64
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Width is the commit width of the emulated core
	Width int

	// Timing holds the retirement latencies of the emulated core
	Timing *dut.TimingConfig

	// DataCache, when set, times loads and stores through an L1 data cache
	DataCache *dut.CacheConfig

	// Snapshots makes the core report register and CSR snapshots
	Snapshots bool

	// MaxCycles bounds each run (0 for no limit)
	MaxCycles uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Width:     1,
		Timing:    dut.DefaultTimingConfig(),
		MaxCycles: 1_000_000,
		Output:    os.Stdout,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Timing == nil {
		config.Timing = dut.DefaultTimingConfig()
	}
	if config.Width < 1 {
		config.Width = 1
	}
	return &Harness{config: config}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))
	for _, bench := range h.benchmarks {
		results = append(results, h.runBenchmark(bench))
	}
	return results
}

func newEmulator(program []uint32) *emu.Emulator {
	e := emu.NewEmulator()
	e.Memory().LoadWords(ProgramBase, program...)
	e.LoadProgram(ProgramBase, e.Memory())
	return e
}

// runBenchmark executes a single benchmark under the checker.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	config := difftest.DefaultConfig()
	if h.config.Width > config.CommitWidth {
		config.CommitWidth = h.config.Width
	}

	session := difftest.NewSession(
		func(difftest.CoreID) (difftest.Oracle, error) {
			return newEmulator(bench.Program), nil
		},
		difftest.WithConfig(config),
	)
	boundary := dpic.NewBoundary(session)

	opts := []dut.CoreOption{
		dut.WithCommitConfig(dut.CommitConfig{Width: h.config.Width}),
		dut.WithTimingConfig(h.config.Timing),
	}
	if h.config.Snapshots {
		opts = append(opts, dut.WithSnapshots())
	}
	if h.config.DataCache != nil {
		opts = append(opts, dut.WithDataCache(*h.config.DataCache))
	}
	core := dut.NewCore(0, newEmulator(bench.Program), boundary, opts...)

	start := time.Now()
	status, err := dut.NewSystem(boundary, core).Run(h.config.MaxCycles)
	wallTime := time.Since(start)

	stats := core.Stats()
	result := BenchmarkResult{
		Name:                bench.Name,
		Description:         bench.Description,
		Status:              difftest.Status(status).String(),
		SimulatedCycles:     stats.Cycles,
		InstructionsRetired: stats.Instructions,
		StallCycles:         stats.Stalls,
		CacheMisses:         stats.Cache.Misses,
		CheckedCommits:      session.Stats(0).Checked,
		ExitCode:            core.ExitCode(),
		WallTime:            wallTime,
	}
	if err != nil {
		result.Status = err.Error()
	}
	if stats.Instructions > 0 {
		result.CPI = float64(stats.Cycles) / float64(stats.Instructions)
	}
	result.Passed = err == nil &&
		difftest.Status(status) == difftest.StatusCompleted &&
		result.ExitCode == bench.ExpectedExit

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	w := h.config.Output
	_, _ = fmt.Fprintln(w, "=== Checked Benchmark Results ===")
	_, _ = fmt.Fprintln(w, "")

	for _, r := range results {
		verdict := "PASS"
		if !r.Passed {
			verdict = "FAIL"
		}
		_, _ = fmt.Fprintf(w, "Benchmark: %s [%s]\n", r.Name, verdict)
		_, _ = fmt.Fprintf(w, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(w, "  Status: %s\n", r.Status)
		_, _ = fmt.Fprintf(w, "  Exit Code: %d\n", r.ExitCode)
		_, _ = fmt.Fprintf(w, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(w, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(w, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(w, "  Stall Cycles:         %d\n", r.StallCycles)
		_, _ = fmt.Fprintf(w, "  Checked Commits:      %d\n", r.CheckedCommits)
		_, _ = fmt.Fprintf(w, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(w, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	w := h.config.Output
	_, _ = fmt.Fprintln(w, "name,passed,cycles,instructions,cpi,stalls,checked,exit_code")

	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%s,%t,%d,%d,%.3f,%d,%d,%d\n",
			r.Name,
			r.Passed,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.StallCycles,
			r.CheckedCommits,
			r.ExitCode,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Config describes the benchmark configuration
	Config BenchmarkConfig `json:"config"`
}

// BenchmarkConfig describes the harness configuration used.
type BenchmarkConfig struct {
	Width     int               `json:"width"`
	Snapshots bool              `json:"snapshots"`
	Timing    *dut.TimingConfig `json:"timing"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// Passed is the number of benchmarks that passed
	Passed int `json:"passed"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// CommitsPerSecond is the checker throughput over all runs
	CommitsPerSecond float64 `json:"commits_per_second"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Summarize computes aggregate statistics.
func Summarize(results []BenchmarkResult) ReportSummary {
	s := ReportSummary{TotalBenchmarks: len(results)}
	var checked uint64
	for _, r := range results {
		s.TotalCycles += r.SimulatedCycles
		s.TotalInstructions += r.InstructionsRetired
		s.TotalWallTime += r.WallTime
		checked += r.CheckedCommits
		if r.Passed {
			s.Passed++
		}
	}

	if s.TotalInstructions > 0 {
		s.AverageCPI = float64(s.TotalCycles) / float64(s.TotalInstructions)
	}
	if s.TotalWallTime > 0 {
		s.CommitsPerSecond = float64(checked) / s.TotalWallTime.Seconds()
	}
	return s
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Config: BenchmarkConfig{
				Width:     h.config.Width,
				Snapshots: h.config.Snapshots,
				Timing:    h.config.Timing,
			},
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
