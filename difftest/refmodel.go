package difftest

import "github.com/sarchlab/difftest/arch"

// Oracle is the reference implementation of the instruction set. It is
// stepped one instruction at a time and only redirected on explicit
// synchronization.
type Oracle interface {
	// Exec executes the instruction at the oracle's PC.
	Exec() (arch.Retired, error)

	PC() uint64
	SetPC(pc uint64)
	SetGPR(reg uint8, value uint64)

	// Snapshot returns the current architectural state.
	Snapshot() arch.State

	// RaiseInterrupt takes an external interrupt at the current PC.
	RaiseInterrupt(irq uint32)
}

// OracleFactory creates the reference model of one core. It is called for
// every core on each Init.
type OracleFactory func(core CoreID) (Oracle, error)

// refModel drives one core's oracle.
type refModel struct {
	oracle Oracle
	steps  uint64
	skips  uint64
}

func newRefModel(o Oracle) *refModel {
	return &refModel{oracle: o}
}

// StepOne executes exactly one instruction from the oracle's own PC.
func (r *refModel) StepOne() (arch.Retired, error) {
	r.steps++
	return r.oracle.Exec()
}

// PC returns the oracle's PC.
func (r *refModel) PC() uint64 {
	return r.oracle.PC()
}

// SyncPC redirects the oracle.
func (r *refModel) SyncPC(pc uint64) {
	r.oracle.SetPC(pc)
}

// Skip moves the oracle past an instruction the hardware marked as skipped,
// adopting the hardware's register write. The caller checks that slot.PC is
// the oracle's PC.
func (r *refModel) Skip(slot InstrCommit) {
	r.skips++
	r.SyncPC(slot.PC + arch.InstrLen)
	if slot.Wen && slot.Wdest != 0 {
		r.oracle.SetGPR(slot.Wdest, slot.Wdata)
	}
}

// RaiseInterrupt delivers an interrupt the hardware took at pc.
func (r *refModel) RaiseInterrupt(pc uint64, irq uint32) {
	r.SyncPC(pc)
	r.oracle.RaiseInterrupt(irq)
}

// State returns the oracle's architectural state.
func (r *refModel) State() arch.State {
	return r.oracle.Snapshot()
}
