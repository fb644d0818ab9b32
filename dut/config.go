package dut

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds retirement latencies for the instruction classes of
// the emulated core.
type TimingConfig struct {
	// ALULatency is the latency of arithmetic, logic, shift and compare
	// instructions. Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// BranchLatency is the base latency of branches and jumps.
	// Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`

	// TakenBranchPenalty is the number of cycles lost redirecting fetch
	// after a taken branch. Default: 2 cycles.
	TakenBranchPenalty uint64 `json:"taken_branch_penalty"`

	// LoadLatency is the latency of loads. Default: 4 cycles.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the latency of stores. Default: 1 cycle.
	StoreLatency uint64 `json:"store_latency"`

	// MultiplyLatency is the latency of mul.w and mulh.w[u].
	// Default: 3 cycles.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// DivideLatencyMin is the latency of a division by zero or by one.
	// Default: 10 cycles.
	DivideLatencyMin uint64 `json:"divide_latency_min"`

	// DivideLatencyMax is the latency of any other division.
	// Default: 15 cycles.
	DivideLatencyMax uint64 `json:"divide_latency_max"`

	// SystemLatency is the latency of CSR accesses, ertn, syscall and break.
	// Default: 2 cycles.
	SystemLatency uint64 `json:"system_latency"`
}

// DefaultTimingConfig returns the default TimingConfig.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:         1,
		BranchLatency:      1,
		TakenBranchPenalty: 2,
		LoadLatency:        4,
		StoreLatency:       1,
		MultiplyLatency:    3,
		DivideLatencyMin:   10,
		DivideLatencyMax:   15,
		SystemLatency:      2,
	}
}

// LoadConfig loads a TimingConfig from a JSON file.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.LoadLatency == 0 {
		return fmt.Errorf("load_latency must be > 0")
	}
	if c.StoreLatency == 0 {
		return fmt.Errorf("store_latency must be > 0")
	}
	if c.MultiplyLatency == 0 {
		return fmt.Errorf("multiply_latency must be > 0")
	}
	if c.SystemLatency == 0 {
		return fmt.Errorf("system_latency must be > 0")
	}
	if c.DivideLatencyMin == 0 || c.DivideLatencyMin > c.DivideLatencyMax {
		return fmt.Errorf("divide_latency_min must be in [1, divide_latency_max]")
	}
	return nil
}

// Clone returns a copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
