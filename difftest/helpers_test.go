package difftest_test

import (
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/difftest/arch"
	"github.com/sarchlab/difftest/difftest"
	"github.com/sarchlab/difftest/emu"
	"github.com/sarchlab/difftest/insts"
)

const base = uint32(0x1c000000)

// sampleProgram computes 5+7, stores and reloads it, then halts with 5.
func sampleProgram() []uint32 {
	return []uint32{
		insts.EncodeADDIW(4, 0, 5),
		insts.EncodeADDIW(5, 0, 7),
		insts.Encode3R(insts.OpADDW, 6, 4, 5),
		insts.EncodeLU12IW(7, 0x8),
		insts.EncodeStore(insts.OpSTW, 6, 7, 0),
		insts.EncodeLoad(insts.OpLDW, 8, 7, 0),
		insts.WordHALT,
	}
}

func newEmulator(words []uint32) *emu.Emulator {
	e := emu.NewEmulator()
	e.Memory().LoadWords(base, words...)
	e.LoadProgram(base, e.Memory())
	return e
}

func oracleFactory(words []uint32) difftest.OracleFactory {
	return func(difftest.CoreID) (difftest.Oracle, error) {
		return newEmulator(words), nil
	}
}

// hardware stands in for the simulated core: it runs its own emulator and
// reports what it retires.
type hardware struct {
	core  difftest.CoreID
	e     *emu.Emulator
	cycle uint64
}

func newHardware(core difftest.CoreID, words []uint32) *hardware {
	return &hardware{core: core, e: newEmulator(words)}
}

// retire executes one instruction and returns its events on commit port
// index.
func (h *hardware) retire(index uint8) (difftest.InstrCommit, []difftest.Event, arch.Retired) {
	h.cycle++
	r := h.e.Step().Retired
	c := difftest.InstrCommit{
		Core:  h.core,
		Index: index,
		Valid: true,
		PC:    r.PC,
		Instr: r.Instr,
		Wen:   r.Wen,
		Wdest: r.Wdest,
		Wdata: r.Wdata,
	}

	var events []difftest.Event
	if st, ok := r.Store(); ok {
		events = append(events, difftest.StoreEvent{
			Core: h.core, Index: index, Valid: true,
			Addr: st.Addr, Data: st.Data, Mask: st.Mask,
		})
	}
	if ld, ok := r.Load(); ok {
		events = append(events, difftest.LoadEvent{
			Core: h.core, Index: index, Valid: true, PAddr: ld.Addr,
		})
	}
	if r.Halted {
		events = append(events, difftest.TrapEvent{
			Core: h.core, Valid: true, Code: uint8(r.ExitCode), PC: r.PC,
			CycleCnt: h.cycle, InstrCnt: h.e.InstructionCount(),
		})
	}

	return c, events, r
}

func submitAll(s *difftest.Session, c difftest.InstrCommit, events []difftest.Event) {
	Expect(s.Submit(c)).To(Succeed())
	for _, ev := range events {
		Expect(s.Submit(ev)).To(Succeed())
	}
}

type hookRecorder struct {
	checked []difftest.InstrCommit
	skipped []difftest.InstrCommit
	reports []*difftest.DivergenceReport
	traps   []difftest.TrapRecord
}

func (h *hookRecorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case difftest.HookPosCommitChecked:
		h.checked = append(h.checked, ctx.Item.(difftest.InstrCommit))
	case difftest.HookPosCommitSkipped:
		h.skipped = append(h.skipped, ctx.Item.(difftest.InstrCommit))
	case difftest.HookPosDivergence:
		h.reports = append(h.reports, ctx.Item.(*difftest.DivergenceReport))
	case difftest.HookPosTrap:
		h.traps = append(h.traps, ctx.Item.(difftest.TrapRecord))
	}
}
