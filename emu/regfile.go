// Package emu provides functional LA32R emulation.
package emu

// RegFile represents the LA32R register file.
// It contains 32 general-purpose registers (r0-r31), 32 floating-point
// registers and the program counter (PC).
type RegFile struct {
	// R holds general-purpose registers. R[0] always reads as 0.
	R [32]uint32

	// F holds the raw bits of the floating-point registers.
	F [32]uint32

	// PC is the program counter.
	PC uint32

	lastWen  bool
	lastDest uint8
}

// ABI register numbers used by the emulator.
const (
	RegRA uint8 = 1  // return address
	RegSP uint8 = 3  // stack pointer
	RegA0 uint8 = 4  // first argument / return value
	RegA7 uint8 = 11 // syscall number
)

// ReadReg reads a register value. Register 0 and out-of-range registers
// return 0.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.R[reg]
}

// WriteReg writes a value to a register. Writes to r0 are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.R[reg] = value
	r.lastWen = true
	r.lastDest = reg
}

// WriteTrace returns the destination of the last register write since the
// trace was cleared. ok is false when no register other than r0 was written.
func (r *RegFile) WriteTrace() (reg uint8, ok bool) {
	return r.lastDest, r.lastWen
}

// ClearWriteTrace forgets the last register write.
func (r *RegFile) ClearWriteTrace() {
	r.lastWen = false
	r.lastDest = 0
}
