package dut

import "github.com/sarchlab/difftest/insts"

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a latency table with the default timing values.
func NewTable() *Table {
	return &Table{config: DefaultTimingConfig()}
}

// NewTableWithConfig creates a latency table with a custom configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{config: config}
}

// GetLatency returns the retirement latency in cycles of an instruction.
// Divisions return the minimum latency; use DivideLatency when the divisor
// is known.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	switch inst.Op {
	case insts.OpMULW, insts.OpMULHW, insts.OpMULHWU:
		return t.config.MultiplyLatency
	case insts.OpCSRRD, insts.OpCSRWR, insts.OpCSRXCHG, insts.OpERTN,
		insts.OpSYSCALL, insts.OpBREAK:
		return t.config.SystemLatency
	}

	switch {
	case isDivide(inst.Op):
		return t.config.DivideLatencyMin
	case inst.IsLoad():
		return t.config.LoadLatency
	case inst.IsStore():
		return t.config.StoreLatency
	case inst.IsBranch():
		return t.config.BranchLatency
	default:
		return t.config.ALULatency
	}
}

// DivideLatency returns the latency of a division by divisor. Trivial
// divisors finish early.
func (t *Table) DivideLatency(divisor uint32) uint64 {
	if divisor <= 1 {
		return t.config.DivideLatencyMin
	}
	return t.config.DivideLatencyMax
}

// GetMaxLatency returns the maximum latency of an instruction.
func (t *Table) GetMaxLatency(inst *insts.Instruction) uint64 {
	if inst != nil && isDivide(inst.Op) {
		return t.config.DivideLatencyMax
	}
	return t.GetLatency(inst)
}

func isDivide(op insts.Op) bool {
	switch op {
	case insts.OpDIVW, insts.OpMODW, insts.OpDIVWU, insts.OpMODWU:
		return true
	}
	return false
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	return inst != nil && (inst.IsLoad() || inst.IsStore())
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
