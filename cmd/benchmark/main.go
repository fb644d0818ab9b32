// Command benchmark runs the LA32R microbenchmarks on the emulated core
// with every commit checked against the reference model.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output a JSON report
//	-width      Commit width of the emulated core
//	-snapshots  Report register and CSR snapshots every cycle
//	-timing     Path to a core timing configuration JSON file
//	-dcache     Time loads and stores through the default L1 data cache
//	-core       Run only the core benchmark subset
//
// The exit status is non-zero when any benchmark diverges or exits with an
// unexpected code.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/difftest/benchmarks"
	"github.com/sarchlab/difftest/dut"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output a JSON report")
	width := flag.Int("width", 1, "Commit width of the emulated core")
	snapshots := flag.Bool("snapshots", false, "Report register and CSR snapshots every cycle")
	timingPath := flag.String("timing", "", "Path to core timing configuration JSON file")
	dcache := flag.Bool("dcache", false, "Time loads and stores through the default L1 data cache")
	coreOnly := flag.Bool("core", false, "Run only the core benchmark subset")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	config.Width = *width
	config.Snapshots = *snapshots
	config.Output = os.Stdout
	if *dcache {
		l1d := dut.DefaultL1DConfig()
		config.DataCache = &l1d
	}

	if *timingPath != "" {
		timing, err := dut.LoadConfig(*timingPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			os.Exit(1)
		}
		config.Timing = timing
	}

	harness := benchmarks.NewHarness(config)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		fmt.Println("Checked Benchmark Harness")
		fmt.Println("=========================")
		fmt.Printf("Commit width: %d\n", config.Width)
		fmt.Printf("Snapshots:    %v\n", config.Snapshots)
		fmt.Println("")
		harness.PrintResults(results)

		s := benchmarks.Summarize(results)
		fmt.Println("=== Summary ===")
		fmt.Printf("Passed:       %d/%d\n", s.Passed, s.TotalBenchmarks)
		fmt.Printf("Average CPI:  %.3f\n", s.AverageCPI)
		fmt.Printf("Commits/sec:  %.0f\n", s.CommitsPerSecond)
	}

	if benchmarks.Summarize(results).Passed != len(results) {
		os.Exit(1)
	}
}
