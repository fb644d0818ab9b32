package dpic_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/difftest/arch"
	"github.com/sarchlab/difftest/difftest"
	"github.com/sarchlab/difftest/dpic"
	"github.com/sarchlab/difftest/emu"
	"github.com/sarchlab/difftest/insts"
)

const base = uint32(0x1c000000)

var program = []uint32{
	insts.EncodeADDIW(4, 0, 5),
	insts.EncodeLU12IW(6, 0x8),
	insts.EncodeStore(insts.OpSTB, 4, 6, 2),
	insts.WordHALT,
}

func newEmulator() *emu.Emulator {
	e := emu.NewEmulator()
	e.Memory().LoadWords(base, program...)
	e.LoadProgram(base, e.Memory())
	return e
}

func newBoundary(config *difftest.Config) *dpic.Boundary {
	return dpic.NewBoundary(difftest.NewSession(
		func(difftest.CoreID) (difftest.Oracle, error) {
			return newEmulator(), nil
		},
		difftest.WithConfig(config),
	))
}

// commit executes one instruction on e and reports it on port 0.
func commit(p dpic.Port, e *emu.Emulator) arch.Retired {
	r := e.Step().Retired
	wen := uint8(0)
	if r.Wen {
		wen = 1
	}
	p.InstrCommit(0, 0, 1, dpic.Narrow(r.PC), dpic.Word(r.Instr), 0, wen, r.Wdest, dpic.Narrow(r.Wdata))
	return r
}

// recorder captures the positional CSR call.
type recorder struct {
	dpic.Port
	csr []dpic.Word
}

func (r *recorder) CSRState(_ uint8,
	crmd, prmd, euen, ecfg, estat, era, badv, eentry,
	tlbidx, tlbehi, tlbelo0, tlbelo1, asid, pgdl, pgdh,
	save0, save1, save2, save3, tid, tcfg, tval, ticlr,
	llbctl, tlbrentry, dmw0, dmw1 dpic.Word,
) {
	r.csr = []dpic.Word{
		crmd, prmd, euen, ecfg, estat, era, badv, eentry,
		tlbidx, tlbehi, tlbelo0, tlbelo1, asid, pgdl, pgdh,
		save0, save1, save2, save3, tid, tcfg, tval, ticlr,
		llbctl, tlbrentry, dmw0, dmw1,
	}
}

var _ = Describe("Boundary", func() {
	var (
		b  *dpic.Boundary
		hw *emu.Emulator
	)

	BeforeEach(func() {
		b = newBoundary(difftest.DefaultConfig())
		hw = newEmulator()
		Expect(b.Init()).To(Equal(0))
	})

	It("should run a program to completion", func() {
		commit(b, hw)
		Expect(b.Step()).To(Equal(int(difftest.StatusRunning)))

		commit(b, hw)
		Expect(b.Step()).To(Equal(int(difftest.StatusRunning)))

		r := commit(b, hw)
		st, ok := r.Store()
		Expect(ok).To(BeTrue())
		b.StoreEvent(0, 0, 1, dpic.Narrow(st.Addr), dpic.Narrow(st.Data), st.Mask)
		Expect(b.Step()).To(Equal(int(difftest.StatusRunning)))

		r = commit(b, hw)
		b.TrapEvent(0, 1, uint8(r.ExitCode), dpic.Narrow(r.PC), 4, 4)
		Expect(b.Step()).To(Equal(int(difftest.StatusCompleted)))

		code, ok := b.Session().ExitCode(0)
		Expect(ok).To(BeTrue())
		Expect(code).To(Equal(uint8(5)))
	})

	It("should map register snapshots by position", func() {
		commit(b, hw)
		gpr, fpr, csr := dpic.NarrowState(hw.Snapshot())
		b.ArchIntRegState(0, gpr)
		b.ArchFpRegState(0, fpr)
		dpic.SendCSRs(b, 0, csr)

		Expect(b.Step()).To(Equal(int(difftest.StatusRunning)))
	})

	It("should report a CSR mismatch by name", func() {
		commit(b, hw)
		_, _, csr := dpic.NarrowState(hw.Snapshot())
		csr[arch.ERA] = 0x1234
		dpic.SendCSRs(b, 0, csr)

		Expect(b.Step()).To(Equal(int(difftest.StatusDiverged)))
		r := b.Session().Report()
		Expect(r.Field).To(Equal("csr.era"))
		Expect(r.Actual).To(Equal(uint64(0x1234)))
	})

	It("should report a GPR mismatch in a snapshot", func() {
		commit(b, hw)
		gpr, _, _ := dpic.NarrowState(hw.Snapshot())
		gpr[9] = 1
		b.ArchIntRegState(0, gpr)

		Expect(b.Step()).To(Equal(int(difftest.StatusDiverged)))
		Expect(b.Session().Report().Field).To(Equal("gpr[9]"))
	})

	It("should stop on a protocol error at the next step", func() {
		b.InstrCommit(0, 200, 1, dpic.Word(base), 0, 0, 0, 0, 0)

		Expect(b.Step()).To(Equal(int(difftest.StatusAborted)))
		Expect(b.Session().Err()).To(MatchError(difftest.ErrIndexOutOfRange))
	})

	It("should stop on a core outside the configuration", func() {
		b.LoadEvent(3, 0, 1, 0x8000, 0, 0)

		Expect(b.Step()).To(Equal(int(difftest.StatusAborted)))
		Expect(b.Session().Err()).To(MatchError(difftest.ErrCoreOutOfRange))
	})

	It("should diverge on a mismatched store lane", func() {
		commit(b, hw)
		commit(b, hw)
		Expect(b.Step()).To(Equal(int(difftest.StatusRunning)))

		commit(b, hw)
		b.StoreEvent(0, 0, 1, 0x8002, 0x00050000, 0x8)

		Expect(b.Step()).To(Equal(int(difftest.StatusDiverged)))
		Expect(b.Session().Report().Field).To(Equal("store.mask"))
	})

	It("should raise interrupts on the reference model", func() {
		b.ArchEvent(0, 11, 0, dpic.Word(base))

		Expect(b.Step()).To(Equal(int(difftest.StatusRunning)))
		ref, ok := b.Session().RefState(0)
		Expect(ok).To(BeTrue())
		Expect(ref.CSR[arch.ERA]).To(Equal(uint64(base)))
	})
})

var _ = Describe("Init", func() {
	It("should fail on an invalid configuration", func() {
		config := difftest.DefaultConfig()
		config.NumCores = 0

		Expect(newBoundary(config).Init()).To(Equal(1))
	})

	It("should abort a step before init", func() {
		b := newBoundary(difftest.DefaultConfig())

		Expect(b.Step()).To(Equal(int(difftest.StatusAborted)))
	})
})

var _ = Describe("SendCSRs", func() {
	It("should spread the CSR file in declaration order", func() {
		var csr [arch.NumCSRs]dpic.Word
		for i := range csr {
			csr[i] = dpic.Word(i + 1)
		}
		r := &recorder{}

		dpic.SendCSRs(r, 2, csr)

		Expect(r.csr).To(HaveLen(int(arch.NumCSRs)))
		for i, v := range r.csr {
			Expect(v).To(Equal(dpic.Word(i + 1)))
		}
	})
})

var _ = Describe("Narrow", func() {
	It("should keep the bits a word can hold", func() {
		Expect(uint64(dpic.Narrow(0x1234))).To(Equal(uint64(0x1234)))
		if dpic.WordBits == 32 {
			Expect(uint64(dpic.Narrow(0x1_0000_0001))).To(Equal(uint64(1)))
		}
	})
})
