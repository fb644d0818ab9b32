package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/difftest/emu"
	"github.com/sarchlab/difftest/insts"
)

var _ = Describe("BranchUnit", func() {
	var (
		regFile    *emu.RegFile
		branchUnit *emu.BranchUnit
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		regFile.PC = 0x1000 // Start at address 0x1000
		branchUnit = emu.NewBranchUnit(regFile)
	})

	Describe("B (unconditional branch)", func() {
		It("should branch forward", func() {
			branchUnit.B(100)

			Expect(regFile.PC).To(Equal(uint32(0x1000 + 100)))
		})

		It("should branch backward", func() {
			branchUnit.B(-100)

			Expect(regFile.PC).To(Equal(uint32(0x1000 - 100)))
		})
	})

	Describe("BL", func() {
		It("should save the return address in $ra", func() {
			branchUnit.BL(0x40)

			Expect(regFile.ReadReg(emu.RegRA)).To(Equal(uint32(0x1004)))
			Expect(regFile.PC).To(Equal(uint32(0x1040)))
		})
	})

	Describe("JIRL", func() {
		It("should jump to rj + offset and link into rd", func() {
			regFile.WriteReg(12, 0x2000)

			branchUnit.JIRL(1, 12, 8)

			Expect(regFile.PC).To(Equal(uint32(0x2008)))
			Expect(regFile.ReadReg(1)).To(Equal(uint32(0x1004)))
		})

		It("should use the old rj value when rd == rj", func() {
			regFile.WriteReg(5, 0x3000)

			branchUnit.JIRL(5, 5, 0)

			Expect(regFile.PC).To(Equal(uint32(0x3000)))
			Expect(regFile.ReadReg(5)).To(Equal(uint32(0x1004)))
		})

		It("should not link when rd is r0", func() {
			regFile.WriteReg(1, 0x4000)

			branchUnit.JIRL(0, 1, 0)

			Expect(regFile.PC).To(Equal(uint32(0x4000)))
			Expect(regFile.ReadReg(0)).To(Equal(uint32(0)))
		})
	})

	Describe("Conditional branches", func() {
		It("should take beq when equal", func() {
			regFile.WriteReg(4, 7)
			regFile.WriteReg(5, 7)

			Expect(branchUnit.CondBranch(insts.OpBEQ, 4, 5, 16)).To(BeTrue())
			Expect(regFile.PC).To(Equal(uint32(0x1010)))
		})

		It("should fall through bne when equal", func() {
			regFile.WriteReg(4, 7)
			regFile.WriteReg(5, 7)

			Expect(branchUnit.CondBranch(insts.OpBNE, 4, 5, 16)).To(BeFalse())
			Expect(regFile.PC).To(Equal(uint32(0x1004)))
		})

		It("should distinguish signed and unsigned comparisons", func() {
			Expect(emu.CheckCondition(insts.OpBLT, 0xFFFFFFFF, 1)).To(BeTrue())
			Expect(emu.CheckCondition(insts.OpBLTU, 0xFFFFFFFF, 1)).To(BeFalse())
			Expect(emu.CheckCondition(insts.OpBGE, 1, 0xFFFFFFFF)).To(BeTrue())
			Expect(emu.CheckCondition(insts.OpBGEU, 1, 0xFFFFFFFF)).To(BeFalse())
		})
	})
})
