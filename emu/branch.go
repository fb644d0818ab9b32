// Package emu provides functional LA32R emulation.
package emu

import "github.com/sarchlab/difftest/insts"

// BranchUnit implements LA32R control-flow operations. Every method leaves
// the register file's PC pointing at the next instruction to execute.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// B performs an unconditional PC-relative branch.
func (b *BranchUnit) B(offset int32) {
	b.regFile.PC = uint32(int32(b.regFile.PC) + offset)
}

// BL saves PC+4 to $ra, then branches to PC + offset.
func (b *BranchUnit) BL(offset int32) {
	b.regFile.WriteReg(RegRA, b.regFile.PC+4)
	b.B(offset)
}

// JIRL branches to rj + offset and writes PC+4 to rd. The target is
// computed before rd is written so that rd == rj works.
func (b *BranchUnit) JIRL(rd, rj uint8, offset int32) {
	target := uint32(int32(b.regFile.ReadReg(rj)) + offset)
	b.regFile.WriteReg(rd, b.regFile.PC+4)
	b.regFile.PC = target
}

// CondBranch evaluates a conditional branch comparing rj with rd.
// Returns true if the branch was taken.
func (b *BranchUnit) CondBranch(op insts.Op, rj, rd uint8, offset int32) bool {
	x := b.regFile.ReadReg(rj)
	y := b.regFile.ReadReg(rd)

	if !CheckCondition(op, x, y) {
		b.regFile.PC += 4
		return false
	}
	b.B(offset)
	return true
}

// CheckCondition evaluates the condition of beq/bne/blt/bge/bltu/bgeu.
func CheckCondition(op insts.Op, x, y uint32) bool {
	switch op {
	case insts.OpBEQ:
		return x == y
	case insts.OpBNE:
		return x != y
	case insts.OpBLT:
		return int32(x) < int32(y)
	case insts.OpBGE:
		return int32(x) >= int32(y)
	case insts.OpBLTU:
		return x < y
	case insts.OpBGEU:
		return x >= y
	}
	return false
}
