// Package emu provides functional LA32R emulation.
package emu

import "github.com/sarchlab/difftest/arch"

// The methods in this file let the Emulator serve as the reference model of
// the differential-testing engine.

// Exec executes one instruction and returns its retirement record including
// the resulting architectural state.
func (e *Emulator) Exec() (arch.Retired, error) {
	result := e.Step()
	if result.Err != nil {
		return result.Retired, result.Err
	}

	result.Retired.State = e.Snapshot()
	return result.Retired, nil
}

// PC returns the address of the next instruction to execute.
func (e *Emulator) PC() uint64 {
	return uint64(e.regFile.PC)
}

// SetPC redirects execution.
func (e *Emulator) SetPC(pc uint64) {
	e.regFile.PC = uint32(pc)
}

// SetGPR overwrites a general register. Writes to r0 are ignored.
func (e *Emulator) SetGPR(reg uint8, value uint64) {
	e.regFile.WriteReg(reg, uint32(value))
}

// Snapshot returns the architectural state.
func (e *Emulator) Snapshot() arch.State {
	var s arch.State

	s.PC = uint64(e.regFile.PC)
	for i := 0; i < arch.NumGPRs; i++ {
		s.GPR[i] = uint64(e.regFile.ReadReg(uint8(i)))
	}
	for i := 0; i < arch.NumFPRs; i++ {
		s.FPR[i] = uint64(e.regFile.F[i])
	}
	for i := arch.CSR(0); i < arch.NumCSRs; i++ {
		s.CSR[i] = uint64(e.csrFile.Get(i))
	}

	return s
}

// Restore overwrites the architectural state from a snapshot.
func (e *Emulator) Restore(s arch.State) {
	e.regFile.PC = uint32(s.PC)
	for i := 1; i < arch.NumGPRs; i++ {
		e.regFile.R[i] = uint32(s.GPR[i])
	}
	for i := 0; i < arch.NumFPRs; i++ {
		e.regFile.F[i] = uint32(s.FPR[i])
	}
	for i := arch.CSR(0); i < arch.NumCSRs; i++ {
		e.csrFile.Set(i, uint32(s.CSR[i]))
	}
}
