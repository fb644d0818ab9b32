package difftest

import (
	"fmt"

	"github.com/sarchlab/difftest/arch"
)

// comparator checks hardware-reported effects against the reference model.
// Equality is exact.
type comparator struct {
	checkCSR    bool
	checkGPR    bool
	checkFPR    bool
	ignoredCSRs [arch.NumCSRs]bool
}

func newComparator(c *Config) comparator {
	return comparator{
		checkCSR:    c.CheckCSR,
		checkGPR:    c.CheckRegSnapshot,
		checkFPR:    c.EnableFPU,
		ignoredCSRs: c.ignoredCSRs(),
	}
}

// mismatch is a located difference, completed into a DivergenceReport by the
// session.
type mismatch struct {
	kind     DivergenceKind
	field    string
	expected uint64
	actual   uint64
	detail   string
}

// compare checks one committed instruction against the reference model's
// execution of it: PC first, then the written register. A write to r0
// counts as no write.
func (c *comparator) compare(slot InstrCommit, r arch.Retired) *mismatch {
	if slot.PC != r.PC {
		return &mismatch{kind: ArchDivergence, field: "pc", expected: r.PC, actual: slot.PC}
	}

	hwDest := writtenReg(slot.Wen, slot.Wdest)
	refDest := writtenReg(r.Wen, r.Wdest)
	if hwDest != refDest {
		return &mismatch{
			kind:     ArchDivergence,
			field:    "wdest",
			expected: uint64(refDest),
			actual:   uint64(hwDest),
		}
	}
	if hwDest == 0 {
		return nil
	}

	if r.Wdata != slot.Wdata {
		return &mismatch{
			kind:     ArchDivergence,
			field:    gprField(slot.Wdest),
			expected: r.Wdata,
			actual:   slot.Wdata,
		}
	}

	return nil
}

// compareSnapshots checks the snapshots staged this cycle against the
// reference model's state: CSRs in declaration order, then general
// registers, then floating-point registers.
func (c *comparator) compareSnapshots(w *cycleWork, hw, ref *arch.State) *mismatch {
	if c.checkCSR && w.csr {
		for i := arch.CSR(0); i < arch.NumCSRs; i++ {
			if c.ignoredCSRs[i] {
				continue
			}
			if hw.CSR[i] != ref.CSR[i] {
				return &mismatch{
					kind:     ArchDivergence,
					field:    "csr." + i.String(),
					expected: ref.CSR[i],
					actual:   hw.CSR[i],
				}
			}
		}
	}

	if c.checkGPR && w.gpr {
		for i := 0; i < arch.NumGPRs; i++ {
			if hw.GPR[i] != ref.GPR[i] {
				return &mismatch{
					kind:     ArchDivergence,
					field:    gprField(uint8(i)),
					expected: ref.GPR[i],
					actual:   hw.GPR[i],
				}
			}
		}
	}

	if c.checkFPR && w.fpr {
		for i := 0; i < arch.NumFPRs; i++ {
			if hw.FPR[i] != ref.FPR[i] {
				return &mismatch{
					kind:     ArchDivergence,
					field:    fmt.Sprintf("fpr[%d]", i),
					expected: ref.FPR[i],
					actual:   hw.FPR[i],
				}
			}
		}
	}

	return nil
}

// writtenReg returns the destination register of a write, or 0 for none.
func writtenReg(wen bool, dest uint8) uint8 {
	if !wen {
		return 0
	}
	return dest
}

func gprField(reg uint8) string {
	return fmt.Sprintf("gpr[%d]", reg)
}
