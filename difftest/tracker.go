package difftest

import (
	"sort"

	"github.com/sarchlab/difftest/arch"
)

// TrapRecord is the terminal marker of a core.
type TrapRecord struct {
	Valid    bool
	Code     uint8
	PC       uint64
	CycleCnt uint64
	InstrCnt uint64
}

// staging buffers the events of one core until the cycle boundary.
type staging struct {
	commits  []InstrCommit
	occupied []bool
	stores   []StoreEvent
	loads    []LoadEvent
	intrs    []ArchEvent

	csr, gpr, fpr bool
	csrSnap       CSRState
	gprSnap       IntRegState
	fprSnap       FpRegState
	trap          *TrapEvent
}

func newStaging(width int) staging {
	return staging{occupied: make([]bool, width)}
}

func (s *staging) reset() {
	s.commits = s.commits[:0]
	for i := range s.occupied {
		s.occupied[i] = false
	}
	s.stores = s.stores[:0]
	s.loads = s.loads[:0]
	s.intrs = s.intrs[:0]
	s.csr, s.gpr, s.fpr = false, false, false
	s.trap = nil
}

// cycleWork is what a core's tracker hands to the comparator after applying
// one cycle of events.
type cycleWork struct {
	intrs   []ArchEvent
	commits []InstrCommit
	stores  []StoreEvent
	loads   []LoadEvent

	csr, gpr, fpr bool
	trapped       bool
}

// slot returns the commit on port index.
func (w *cycleWork) slot(index uint8) InstrCommit {
	for _, c := range w.commits {
		if c.Index == index {
			return c
		}
	}
	return InstrCommit{Index: index}
}

// coreTracker owns the architectural state reported by one hardware core.
type coreTracker struct {
	id     CoreID
	state  arch.State
	staged staging
	ref    *refModel

	frozen     bool
	trap       TrapRecord
	instrCount uint64
	idle       uint64

	// extension events received and not compared
	extEvents uint64
}

func newCoreTracker(id CoreID, width int, ref *refModel) *coreTracker {
	return &coreTracker{
		id:     id,
		staged: newStaging(width),
		ref:    ref,
	}
}

// apply consumes the staged events in a fixed order: snapshots, commits in
// ascending index, memory events, trap. The tracker state takes the
// hardware's reported values. The returned work is compared afterwards.
func (t *coreTracker) apply() (cycleWork, error) {
	st := &t.staged
	defer st.reset()

	if t.frozen {
		return cycleWork{}, nil
	}

	w := cycleWork{csr: st.csr, gpr: st.gpr, fpr: st.fpr}

	if st.gpr {
		t.state.GPR = st.gprSnap.GPR
	}
	if st.fpr {
		t.state.FPR = st.fprSnap.FPR
	}
	if st.csr {
		t.state.CSR = st.csrSnap.CSR
	}

	w.intrs = append(w.intrs, st.intrs...)

	commits := append([]InstrCommit(nil), st.commits...)
	sort.Slice(commits, func(i, j int) bool {
		return commits[i].Index < commits[j].Index
	})
	for _, c := range commits {
		if c.Wen && c.Wdest != 0 && int(c.Wdest) < arch.NumGPRs {
			t.state.GPR[c.Wdest] = c.Wdata
		}
		t.state.PC = c.PC
	}
	w.commits = commits

	for _, ev := range st.stores {
		if !st.occupied[ev.Index] {
			return cycleWork{}, &ProtocolError{Event: ev.kind(), Core: t.id, Err: ErrOrphanMemoryEvent}
		}
	}
	for _, ev := range st.loads {
		if !st.occupied[ev.Index] {
			return cycleWork{}, &ProtocolError{Event: ev.kind(), Core: t.id, Err: ErrOrphanMemoryEvent}
		}
	}
	w.stores = append(w.stores, st.stores...)
	sort.SliceStable(w.stores, func(i, j int) bool {
		return w.stores[i].Index < w.stores[j].Index
	})
	w.loads = append(w.loads, st.loads...)
	sort.SliceStable(w.loads, func(i, j int) bool {
		return w.loads[i].Index < w.loads[j].Index
	})

	if len(commits) > 0 {
		t.idle = 0
	} else {
		t.idle++
	}

	if st.trap != nil {
		t.trap = TrapRecord{
			Valid:    true,
			Code:     st.trap.Code,
			PC:       st.trap.PC,
			CycleCnt: st.trap.CycleCnt,
			InstrCnt: st.trap.InstrCnt,
		}
		t.frozen = true
		w.trapped = true
	}

	return w, nil
}
