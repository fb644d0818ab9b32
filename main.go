// Package main provides the entry point for difftest, a differential
// testing engine that checks an LA32R hardware simulation commit by commit
// against a reference model.
//
// For the full CLI, use: go run ./cmd/difftest
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("difftest - LA32R differential testing engine")
	fmt.Println("")
	fmt.Println("Usage: difftest [options] <program>...")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to difftest configuration (JSON or YAML)")
	fmt.Println("  -width     Commit width of the emulated core")
	fmt.Println("  -fault     Inject a fault, as kind@seq[:bit]")
	fmt.Println("  -record    Write the boundary trace of the run")
	fmt.Println("  -replay    Replay a recorded trace")
	fmt.Println("  -v         Log verbosity")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/difftest' for the full CLI.")
	fmt.Println("Build the Verilator DPI-C library with:")
	fmt.Println("  go build -buildmode=c-shared -o libdifftest.so ./cmd/libdifftest")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/difftest' instead.")
	}
}
