// Package dpic is the flat, positional call boundary between a hardware
// simulator and a difftest session. Every call mirrors one DPI-C function:
// single-bit flags are widened to uint8, data and address fields are Word.
// Build with -tags difftest_wide for 64-bit words.
package dpic

import (
	"github.com/sarchlab/difftest/arch"
	"github.com/sarchlab/difftest/difftest"
)

// Port is the set of calls a hardware simulator issues each cycle. Event
// calls return nothing; errors surface as a non-zero status from Step.
type Port interface {
	Init() int
	Step() int

	InstrCommit(coreid, index, valid uint8, pc, instr Word, skip, wen, wdest uint8, wdata Word)
	TrapEvent(coreid, valid, code uint8, pc, cycleCnt, instrCnt Word)
	CSRState(coreid uint8,
		crmd, prmd, euen, ecfg, estat, era, badv, eentry,
		tlbidx, tlbehi, tlbelo0, tlbelo1, asid, pgdl, pgdh,
		save0, save1, save2, save3, tid, tcfg, tval, ticlr,
		llbctl, tlbrentry, dmw0, dmw1 Word)
	ArchIntRegState(coreid uint8, gpr [arch.NumGPRs]Word)
	ArchFpRegState(coreid uint8, fpr [arch.NumFPRs]Word)
	StoreEvent(coreid, index, valid uint8, addr, data Word, mask uint8)
	LoadEvent(coreid, index, valid uint8, paddr Word, opType, fuType uint8)
	ArchEvent(coreid uint8, intrNo, cause, exceptionPC Word)
}

// Boundary adapts the flat calls to a Session.
type Boundary struct {
	session *difftest.Session
}

// NewBoundary creates a boundary feeding s.
func NewBoundary(s *difftest.Session) *Boundary {
	return &Boundary{session: s}
}

// Session returns the session behind the boundary.
func (b *Boundary) Session() *difftest.Session {
	return b.session
}

// Init starts the session. It returns 0 on success.
func (b *Boundary) Init() int {
	if err := b.session.Init(); err != nil {
		return 1
	}
	return 0
}

// Step ends the current cycle. A non-zero result asks the simulator to
// stop.
func (b *Boundary) Step() int {
	return int(b.session.Step())
}

func (b *Boundary) submit(ev difftest.Event) {
	// A protocol error aborts the session; the next Step reports it.
	_ = b.session.Submit(ev)
}

// InstrCommit reports a committed instruction.
func (b *Boundary) InstrCommit(
	coreid, index, valid uint8,
	pc, instr Word,
	skip, wen, wdest uint8,
	wdata Word,
) {
	b.submit(difftest.InstrCommit{
		Core:  difftest.CoreID(coreid),
		Index: index,
		Valid: valid != 0,
		PC:    uint64(pc),
		Instr: uint32(instr),
		Skip:  skip != 0,
		Wen:   wen != 0,
		Wdest: wdest,
		Wdata: uint64(wdata),
	})
}

// TrapEvent reports the terminating trap of a core.
func (b *Boundary) TrapEvent(coreid, valid, code uint8, pc, cycleCnt, instrCnt Word) {
	b.submit(difftest.TrapEvent{
		Core:     difftest.CoreID(coreid),
		Valid:    valid != 0,
		Code:     code,
		PC:       uint64(pc),
		CycleCnt: uint64(cycleCnt),
		InstrCnt: uint64(instrCnt),
	})
}

// CSRState reports the CSR file in declaration order.
func (b *Boundary) CSRState(coreid uint8,
	crmd, prmd, euen, ecfg, estat, era, badv, eentry,
	tlbidx, tlbehi, tlbelo0, tlbelo1, asid, pgdl, pgdh,
	save0, save1, save2, save3, tid, tcfg, tval, ticlr,
	llbctl, tlbrentry, dmw0, dmw1 Word,
) {
	fields := [arch.NumCSRs]Word{
		crmd, prmd, euen, ecfg, estat, era, badv, eentry,
		tlbidx, tlbehi, tlbelo0, tlbelo1, asid, pgdl, pgdh,
		save0, save1, save2, save3, tid, tcfg, tval, ticlr,
		llbctl, tlbrentry, dmw0, dmw1,
	}

	ev := difftest.CSRState{Core: difftest.CoreID(coreid)}
	for i, v := range fields {
		ev.CSR[i] = uint64(v)
	}
	b.submit(ev)
}

// ArchIntRegState reports the general register file.
func (b *Boundary) ArchIntRegState(coreid uint8, gpr [arch.NumGPRs]Word) {
	ev := difftest.IntRegState{Core: difftest.CoreID(coreid)}
	for i, v := range gpr {
		ev.GPR[i] = uint64(v)
	}
	b.submit(ev)
}

// ArchFpRegState reports the floating-point register file.
func (b *Boundary) ArchFpRegState(coreid uint8, fpr [arch.NumFPRs]Word) {
	ev := difftest.FpRegState{Core: difftest.CoreID(coreid)}
	for i, v := range fpr {
		ev.FPR[i] = uint64(v)
	}
	b.submit(ev)
}

// StoreEvent reports the store of the commit on port index.
func (b *Boundary) StoreEvent(coreid, index, valid uint8, addr, data Word, mask uint8) {
	b.submit(difftest.StoreEvent{
		Core:  difftest.CoreID(coreid),
		Index: index,
		Valid: valid != 0,
		Addr:  uint64(addr),
		Data:  uint64(data),
		Mask:  mask,
	})
}

// LoadEvent reports the load of the commit on port index.
func (b *Boundary) LoadEvent(coreid, index, valid uint8, paddr Word, opType, fuType uint8) {
	b.submit(difftest.LoadEvent{
		Core:   difftest.CoreID(coreid),
		Index:  index,
		Valid:  valid != 0,
		PAddr:  uint64(paddr),
		OpType: opType,
		FuType: fuType,
	})
}

// ArchEvent reports an interrupt taken at exceptionPC.
func (b *Boundary) ArchEvent(coreid uint8, intrNo, cause, exceptionPC Word) {
	b.submit(difftest.ArchEvent{
		Core:        difftest.CoreID(coreid),
		IntrNo:      uint64(intrNo),
		Cause:       uint64(cause),
		ExceptionPC: uint64(exceptionPC),
	})
}
