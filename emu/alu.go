// Package emu provides functional LA32R emulation.
package emu

import "github.com/sarchlab/difftest/insts"

// ALU implements LA32R integer arithmetic, logic, shift, multiply and
// divide operations.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// Exec3R executes a three-register operation: rd = rj op rk.
func (a *ALU) Exec3R(op insts.Op, rd, rj, rk uint8) {
	a.regFile.WriteReg(rd, Compute(op, a.regFile.ReadReg(rj), a.regFile.ReadReg(rk)))
}

// ExecImm executes a register-immediate operation: rd = rj op imm.
func (a *ALU) ExecImm(op insts.Op, rd, rj uint8, imm int32) {
	var base insts.Op
	switch op {
	case insts.OpADDIW:
		base = insts.OpADDW
	case insts.OpSLTI:
		base = insts.OpSLT
	case insts.OpSLTUI:
		base = insts.OpSLTU
	case insts.OpANDI:
		base = insts.OpAND
	case insts.OpORI:
		base = insts.OpOR
	case insts.OpXORI:
		base = insts.OpXOR
	case insts.OpSLLIW:
		base = insts.OpSLLW
	case insts.OpSRLIW:
		base = insts.OpSRLW
	case insts.OpSRAIW:
		base = insts.OpSRAW
	default:
		return
	}
	a.regFile.WriteReg(rd, Compute(base, a.regFile.ReadReg(rj), uint32(imm)))
}

// Compute evaluates a 3R operation on two 32-bit operands.
//
// Division by zero yields 0 for both quotient and remainder; the
// architecture leaves the result unspecified and the reference model pins
// it so that runs are reproducible.
func Compute(op insts.Op, a, b uint32) uint32 {
	switch op {
	case insts.OpADDW:
		return a + b
	case insts.OpSUBW:
		return a - b
	case insts.OpSLT:
		return boolToWord(int32(a) < int32(b))
	case insts.OpSLTU:
		return boolToWord(a < b)
	case insts.OpNOR:
		return ^(a | b)
	case insts.OpAND:
		return a & b
	case insts.OpOR:
		return a | b
	case insts.OpXOR:
		return a ^ b
	case insts.OpSLLW:
		return a << (b & 0x1F)
	case insts.OpSRLW:
		return a >> (b & 0x1F)
	case insts.OpSRAW:
		return uint32(int32(a) >> (b & 0x1F))
	case insts.OpMULW:
		return a * b
	case insts.OpMULHW:
		return uint32(uint64(int64(int32(a))*int64(int32(b))) >> 32)
	case insts.OpMULHWU:
		return uint32((uint64(a) * uint64(b)) >> 32)
	case insts.OpDIVW:
		if b == 0 {
			return 0
		}
		return uint32(int32(a) / int32(b))
	case insts.OpMODW:
		if b == 0 {
			return 0
		}
		return uint32(int32(a) % int32(b))
	case insts.OpDIVWU:
		if b == 0 {
			return 0
		}
		return a / b
	case insts.OpMODWU:
		if b == 0 {
			return 0
		}
		return a % b
	}
	return 0
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
