package difftest

import "github.com/sarchlab/difftest/arch"

// checkStore cross-checks a hardware store against the store the reference
// model performed for the same instruction.
func checkStore(ev StoreEvent, r arch.Retired) *mismatch {
	ref, ok := r.Store()
	if !ok {
		return &mismatch{
			kind:   MemoryDivergence,
			field:  "store.addr",
			actual: ev.Addr,
			detail: "reference model performed no store",
		}
	}

	if ev.Addr != ref.Addr {
		return &mismatch{kind: MemoryDivergence, field: "store.addr", expected: ref.Addr, actual: ev.Addr}
	}
	if ev.Mask != ref.Mask {
		return &mismatch{
			kind:     MemoryDivergence,
			field:    "store.mask",
			expected: uint64(ref.Mask),
			actual:   uint64(ev.Mask),
		}
	}

	bits := arch.ExpandMask(ev.Mask)
	if ev.Data&bits != ref.Data&bits {
		return &mismatch{
			kind:     MemoryDivergence,
			field:    "store.data",
			expected: ref.Data & bits,
			actual:   ev.Data & bits,
		}
	}

	return nil
}

// checkStoreReported fails when the reference model stored for the commit on
// port index but the hardware reported no store for it.
func checkStoreReported(stores []StoreEvent, index uint8, r arch.Retired) *mismatch {
	ref, ok := r.Store()
	if !ok {
		return nil
	}
	for _, ev := range stores {
		if ev.Index == index {
			return nil
		}
	}
	return &mismatch{
		kind:     MemoryDivergence,
		field:    "store.addr",
		expected: ref.Addr,
		detail:   "hardware reported no store",
	}
}

// checkTrap cross-checks a hardware trap against the reference model's halt
// in the same cycle. halt is nil when no checked commit halted.
func checkTrap(trap TrapRecord, halt *arch.Retired) *mismatch {
	if halt == nil {
		return &mismatch{
			kind:   ReferenceModelError,
			field:  "halt",
			actual: uint64(trap.Code),
			detail: "hardware trapped but the reference model did not halt",
		}
	}
	if code := uint8(halt.ExitCode); trap.Code != code {
		return &mismatch{
			kind:     ArchDivergence,
			field:    "trap.code",
			expected: uint64(code),
			actual:   uint64(trap.Code),
		}
	}
	return nil
}

// checkLoad cross-checks the physical address of a hardware load. Address
// translation is direct, so it must equal the reference model's address.
func checkLoad(ev LoadEvent, r arch.Retired) *mismatch {
	ref, ok := r.Load()
	if !ok {
		return &mismatch{
			kind:   MemoryDivergence,
			field:  "load.paddr",
			actual: ev.PAddr,
			detail: "reference model performed no load",
		}
	}

	if ev.PAddr != ref.Addr {
		return &mismatch{kind: MemoryDivergence, field: "load.paddr", expected: ref.Addr, actual: ev.PAddr}
	}

	return nil
}
