package arch_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/difftest/arch"
)

var _ = Describe("CSR", func() {
	It("should keep the declaration order", func() {
		Expect(arch.CRMD.String()).To(Equal("crmd"))
		Expect(arch.TVAL.String()).To(Equal("tval"))
		Expect(arch.DMW1.String()).To(Equal("dmw1"))
		Expect(int(arch.NumCSRs)).To(Equal(27))
	})

	It("should map names and numbers both ways", func() {
		c, ok := arch.CSRByName(" ESTAT ")
		Expect(ok).To(BeTrue())
		Expect(c).To(Equal(arch.ESTAT))
		Expect(c.Number()).To(Equal(uint16(0x5)))

		c, ok = arch.CSRByNumber(0x88)
		Expect(ok).To(BeTrue())
		Expect(c).To(Equal(arch.TLBRENTRY))
	})

	It("should reject unknown CSRs", func() {
		_, ok := arch.CSRByName("mstatus")
		Expect(ok).To(BeFalse())

		_, ok = arch.CSRByNumber(0x3)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Byte lanes", func() {
	It("should compute lane masks", func() {
		Expect(arch.LaneMask(0x1000, 4)).To(Equal(uint8(0xF)))
		Expect(arch.LaneMask(0x1002, 2)).To(Equal(uint8(0xC)))
		Expect(arch.LaneMask(0x1003, 1)).To(Equal(uint8(0x8)))
	})

	It("should expand lane masks into bit masks", func() {
		Expect(arch.ExpandMask(0x5)).To(Equal(uint64(0x00FF00FF)))
		Expect(arch.ExpandMask(0)).To(Equal(uint64(0)))
	})
})

var _ = Describe("Retired", func() {
	It("should find the store and load accesses", func() {
		r := arch.Retired{Mem: []arch.MemAccess{
			{Kind: arch.AccessLoad, Addr: 0x10},
			{Kind: arch.AccessStore, Addr: 0x20},
		}}

		st, ok := r.Store()
		Expect(ok).To(BeTrue())
		Expect(st.Addr).To(Equal(uint64(0x20)))

		ld, ok := r.Load()
		Expect(ok).To(BeTrue())
		Expect(ld.Addr).To(Equal(uint64(0x10)))
		Expect(ld.Kind.String()).To(Equal("load"))
	})

	It("should report missing accesses", func() {
		r := arch.Retired{}

		_, ok := r.Store()
		Expect(ok).To(BeFalse())
	})
})
