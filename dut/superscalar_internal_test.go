package dut

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/difftest/insts"
)

var _ = Describe("canCommitTogether", func() {
	decoder := insts.NewDecoder()
	decode := func(word uint32) *insts.Instruction {
		return decoder.Decode(word)
	}

	It("should pair independent ALU instructions", func() {
		group := []*insts.Instruction{decode(insts.EncodeADDIW(4, 0, 1))}

		Expect(canCommitTogether(group, decode(insts.EncodeADDIW(5, 0, 2)))).To(BeTrue())
	})

	It("should reject a read of a result produced in the same group", func() {
		group := []*insts.Instruction{decode(insts.EncodeADDIW(4, 0, 1))}

		Expect(canCommitTogether(group, decode(insts.Encode3R(insts.OpADDW, 6, 4, 5)))).To(BeFalse())
		Expect(canCommitTogether(group, decode(insts.EncodeStore(insts.OpSTW, 4, 7, 0)))).To(BeFalse())
	})

	It("should reject two writes of the same register", func() {
		group := []*insts.Instruction{decode(insts.EncodeADDIW(4, 0, 1))}

		Expect(canCommitTogether(group, decode(insts.EncodeLU12IW(4, 1)))).To(BeFalse())
	})

	It("should allow writes to r0 to overlap", func() {
		group := []*insts.Instruction{decode(insts.EncodeADDIW(0, 0, 1))}

		Expect(canCommitTogether(group, decode(insts.Encode3R(insts.OpADDW, 6, 0, 0)))).To(BeTrue())
	})

	It("should allow a single memory access per group", func() {
		group := []*insts.Instruction{decode(insts.EncodeLoad(insts.OpLDW, 4, 7, 0))}

		Expect(canCommitTogether(group, decode(insts.EncodeStore(insts.OpSTW, 5, 7, 4)))).To(BeFalse())
		Expect(canCommitTogether(group, decode(insts.EncodeADDIW(5, 0, 1)))).To(BeTrue())
	})

	It("should end the group after a branch", func() {
		group := []*insts.Instruction{decode(insts.EncodeBranch(insts.OpBEQ, 4, 5, 8))}

		Expect(canCommitTogether(group, decode(insts.EncodeADDIW(6, 0, 1)))).To(BeFalse())
	})

	It("should retire system instructions alone", func() {
		csr := decode(insts.EncodeCSR(4, 0, 0x6))
		alu := decode(insts.EncodeADDIW(6, 0, 1))

		Expect(canCommitTogether([]*insts.Instruction{alu}, csr)).To(BeFalse())
		Expect(canCommitTogether([]*insts.Instruction{csr}, alu)).To(BeFalse())
		Expect(canCommitTogether([]*insts.Instruction{alu}, decode(insts.WordHALT))).To(BeFalse())
	})

	It("should not pair undecodable words", func() {
		group := []*insts.Instruction{decode(insts.EncodeADDIW(4, 0, 1))}

		Expect(canCommitTogether(group, decode(0xFFFFFFFF))).To(BeFalse())
	})
})
