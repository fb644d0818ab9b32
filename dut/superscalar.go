package dut

import "github.com/sarchlab/difftest/insts"

// CommitConfig controls how many instructions retire per cycle.
type CommitConfig struct {
	// Width is the maximum number of instructions committed per cycle.
	// Default is 1 (single commit). It must not exceed the session's
	// commit width.
	Width int
}

// DefaultCommitConfig returns the default commit configuration (single
// commit).
func DefaultCommitConfig() CommitConfig {
	return CommitConfig{Width: 1}
}

// DualCommitConfig returns a dual-commit configuration.
func DualCommitConfig() CommitConfig {
	return CommitConfig{Width: 2}
}

// canCommitTogether checks whether next can retire in the same cycle as the
// instructions already in group. The core has one memory port, and an
// instruction cannot consume a result produced in the same cycle.
func canCommitTogether(group []*insts.Instruction, next *insts.Instruction) bool {
	if next == nil || next.Op == insts.OpUnknown || next.Op == insts.OpHALT {
		return false
	}

	// System instructions retire alone.
	if isSystem(next) {
		return false
	}

	for _, prev := range group {
		if isSystem(prev) || prev.IsBranch() {
			return false
		}

		if isMemory(prev) && isMemory(next) {
			return false
		}

		if rd, ok := destination(prev); ok {
			// RAW: next reads what prev writes.
			for _, src := range sources(next) {
				if src == rd {
					return false
				}
			}
			// WAW: both write the same register.
			if nrd, ok := destination(next); ok && nrd == rd {
				return false
			}
		}
	}

	return true
}

func isSystem(inst *insts.Instruction) bool {
	switch inst.Op {
	case insts.OpCSRRD, insts.OpCSRWR, insts.OpCSRXCHG, insts.OpERTN,
		insts.OpSYSCALL, insts.OpBREAK, insts.OpHALT:
		return true
	}
	return false
}

func isMemory(inst *insts.Instruction) bool {
	return inst.IsLoad() || inst.IsStore()
}

// destination returns the general register written by inst.
func destination(inst *insts.Instruction) (uint8, bool) {
	var rd uint8
	switch inst.Format {
	case insts.Format3R, insts.Format2RI5, insts.Format1RI20, insts.FormatCSR:
		rd = inst.Rd
	case insts.Format2RI12:
		if inst.IsStore() {
			return 0, false
		}
		rd = inst.Rd
	case insts.FormatBranch:
		if inst.Op != insts.OpJIRL {
			return 0, false
		}
		rd = inst.Rd
	case insts.FormatJump:
		if inst.Op != insts.OpBL {
			return 0, false
		}
		rd = 1
	default:
		return 0, false
	}
	return rd, rd != 0
}

// sources returns the general registers read by inst.
func sources(inst *insts.Instruction) []uint8 {
	switch inst.Format {
	case insts.Format3R:
		return []uint8{inst.Rj, inst.Rk}
	case insts.Format2RI5:
		return []uint8{inst.Rj}
	case insts.Format2RI12:
		if inst.IsStore() {
			return []uint8{inst.Rj, inst.Rd}
		}
		return []uint8{inst.Rj}
	case insts.FormatBranch:
		if inst.Op == insts.OpJIRL {
			return []uint8{inst.Rj}
		}
		return []uint8{inst.Rj, inst.Rd}
	case insts.FormatCSR:
		return []uint8{inst.Rj, inst.Rd}
	}
	return nil
}
