package dut_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/difftest/difftest"
	"github.com/sarchlab/difftest/dpic"
	"github.com/sarchlab/difftest/dut"
	"github.com/sarchlab/difftest/emu"
	"github.com/sarchlab/difftest/insts"
)

const base = uint32(0x1c000000)

// sumProgram adds 1..5 in a loop, stores and reloads the sum, then halts
// with it.
func sumProgram() []uint32 {
	return []uint32{
		insts.EncodeADDIW(5, 0, 5),                // r5 = 5
		insts.EncodeADDIW(4, 0, 0),                // r4 = 0
		insts.Encode3R(insts.OpADDW, 4, 4, 5),     // loop: r4 += r5
		insts.EncodeADDIW(5, 5, -1),               // r5--
		insts.EncodeBranch(insts.OpBNE, 5, 0, -8), // bne r5, r0, loop
		insts.EncodeLU12IW(6, 0x8),                // r6 = 0x8000
		insts.EncodeStore(insts.OpSTW, 4, 6, 4),   // mem[0x8004] = r4
		insts.EncodeLoad(insts.OpLDW, 7, 6, 4),    // r7 = mem[0x8004]
		insts.Encode3R(insts.OpDIVW, 8, 7, 5),     // r8 = r7 / 0 = 0
		insts.Encode3R(insts.OpMULW, 9, 7, 7),     // r9 = r7 * r7
		insts.WordHALT,                            // exit r4
	}
}

func newEmulator(words []uint32) *emu.Emulator {
	e := emu.NewEmulator()
	e.Memory().LoadWords(base, words...)
	e.LoadProgram(base, e.Memory())
	return e
}

func newSession(words []uint32, config *difftest.Config) *difftest.Session {
	return difftest.NewSession(func(difftest.CoreID) (difftest.Oracle, error) {
		return newEmulator(words), nil
	}, difftest.WithConfig(config))
}

var _ = Describe("Core", func() {
	var (
		prog     []uint32
		session  *difftest.Session
		boundary *dpic.Boundary
	)

	BeforeEach(func() {
		prog = sumProgram()
		session = newSession(prog, difftest.DefaultConfig())
		boundary = dpic.NewBoundary(session)
	})

	run := func(opts ...dut.CoreOption) (*dut.Core, int) {
		core := dut.NewCore(0, newEmulator(prog), boundary, opts...)
		status, err := dut.NewSystem(boundary, core).Run(10000)
		Expect(err).NotTo(HaveOccurred())
		return core, status
	}

	It("should pass the checker when executing correctly", func() {
		core, status := run()

		Expect(status).To(Equal(int(difftest.StatusCompleted)))
		Expect(core.Halted()).To(BeTrue())
		Expect(core.ExitCode()).To(Equal(int64(15)))

		stats := core.Stats()
		Expect(stats.Instructions).To(Equal(uint64(23)))
		Expect(stats.Cycles).To(BeNumerically(">", stats.Instructions))
		Expect(stats.Stalls).To(Equal(stats.Cycles - 23))

		code, ok := session.ExitCode(0)
		Expect(ok).To(BeTrue())
		Expect(code).To(Equal(uint8(15)))
		Expect(session.InstrCount(0)).To(Equal(uint64(23)))
	})

	It("should retire in fewer cycles with a wider commit", func() {
		narrow, _ := run()

		session = newSession(prog, difftest.DefaultConfig())
		boundary = dpic.NewBoundary(session)
		wide, status := run(dut.WithCommitConfig(dut.DualCommitConfig()))

		Expect(status).To(Equal(int(difftest.StatusCompleted)))
		Expect(wide.Stats().Cycles).To(BeNumerically("<", narrow.Stats().Cycles))
	})

	It("should pass with full state snapshots", func() {
		_, status := run(dut.WithSnapshots(), dut.WithCommitConfig(dut.DualCommitConfig()))

		Expect(status).To(Equal(int(difftest.StatusCompleted)))
	})

	It("should follow the timing configuration", func() {
		fast := dut.DefaultTimingConfig()
		fast.LoadLatency = 1
		fast.MultiplyLatency = 1
		fast.DivideLatencyMin = 1
		fast.DivideLatencyMax = 1
		fast.TakenBranchPenalty = 0
		core, _ := run(dut.WithTimingConfig(fast))

		Expect(core.Stats().Stalls).To(BeZero())
	})

	It("should charge memory accesses through the data cache", func() {
		core, status := run(dut.WithDataCache(dut.DefaultL1DConfig()))

		Expect(status).To(Equal(int(difftest.StatusCompleted)))
		cache := core.Stats().Cache
		Expect(cache.Misses).To(Equal(uint64(1)))
		Expect(cache.Hits).To(Equal(uint64(1)))
	})

	It("should report skipped instructions", func() {
		core, status := run(dut.WithSkip(func(inst *insts.Instruction) bool {
			return inst.Op == insts.OpADDIW
		}))

		Expect(status).To(Equal(int(difftest.StatusCompleted)))
		Expect(core.Stats().Skipped).To(Equal(uint64(7)))
		Expect(session.Stats(0).Skipped).To(Equal(uint64(7)))
	})

	DescribeTable("should be caught when a fault is injected",
		func(fault dut.Fault, kind difftest.DivergenceKind, field string) {
			core, status := run(dut.WithFaults(fault))

			Expect(status).To(Equal(int(difftest.StatusDiverged)))
			Expect(core.Stats().Faults).To(Equal(uint64(1)))

			r := session.Report()
			Expect(r.Kind).To(Equal(kind))
			Expect(r.Field).To(Equal(field))
		},
		Entry("flipped write value",
			dut.Fault{Kind: dut.FaultWdata, At: 3, Bit: 2}, difftest.ArchDivergence, "gpr[4]"),
		Entry("flipped PC",
			dut.Fault{Kind: dut.FaultPC, At: 2, Bit: 4}, difftest.ArchDivergence, "pc"),
		Entry("flipped store data",
			dut.Fault{Kind: dut.FaultStoreData, At: 19, Bit: 0}, difftest.MemoryDivergence, "store.data"),
		Entry("flipped store address",
			dut.Fault{Kind: dut.FaultStoreAddr, At: 19, Bit: 3}, difftest.MemoryDivergence, "store.addr"),
		Entry("dropped commit",
			dut.Fault{Kind: dut.FaultDropCommit, At: 2}, difftest.ArchDivergence, "pc"),
	)

	It("should stop at the cycle limit", func() {
		core := dut.NewCore(0, newEmulator(prog), boundary)

		_, err := dut.NewSystem(boundary, core).Run(3)

		Expect(err).To(MatchError(dut.ErrCycleLimit))
	})

	It("should fail when the session cannot start", func() {
		config := difftest.DefaultConfig()
		config.NumCores = 0
		boundary = dpic.NewBoundary(newSession(prog, config))
		core := dut.NewCore(0, newEmulator(prog), boundary)

		_, err := dut.NewSystem(boundary, core).Run(0)

		Expect(err).To(MatchError(dut.ErrInitFailed))
	})

	It("should run several cores in lockstep", func() {
		config := difftest.DefaultConfig()
		config.NumCores = 2
		session = newSession(prog, config)
		boundary = dpic.NewBoundary(session)

		c0 := dut.NewCore(0, newEmulator(prog), boundary)
		c1 := dut.NewCore(1, newEmulator(prog), boundary,
			dut.WithCommitConfig(dut.DualCommitConfig()))
		status, err := dut.NewSystem(boundary, c0, c1).Run(10000)

		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(int(difftest.StatusCompleted)))
		Expect(session.Trap(0).Valid).To(BeTrue())
		Expect(session.Trap(1).Valid).To(BeTrue())
	})
})
