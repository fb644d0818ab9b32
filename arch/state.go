// Package arch defines the LA32R architectural state shared by the reference
// model and the differential-testing engine.
package arch

// Register file sizes.
const (
	NumGPRs = 32
	NumFPRs = 32
)

// InstrLen is the length in bytes of every LA32R instruction.
const InstrLen = 4

// State is a snapshot of one core's architectural state.
// Values are held as uint64 regardless of the boundary width; LA32R values are
// zero-extended.
type State struct {
	PC  uint64
	GPR [NumGPRs]uint64
	FPR [NumFPRs]uint64
	CSR [NumCSRs]uint64
}

// AccessKind distinguishes loads from stores in a memory trace.
type AccessKind uint8

// Memory access kinds.
const (
	AccessLoad AccessKind = iota
	AccessStore
)

func (k AccessKind) String() string {
	if k == AccessStore {
		return "store"
	}
	return "load"
}

// MemAccess describes one data memory access performed by an instruction.
//
// Addr is the byte address issued by the instruction. Mask selects the byte
// lanes touched within the naturally aligned 32-bit word containing Addr, and
// Data holds the stored value already shifted into those lanes. For loads Data
// is the value read, unshifted.
type MemAccess struct {
	Kind AccessKind
	Addr uint64
	Size uint8
	Data uint64
	Mask uint8
}

// LaneMask returns the byte-lane mask of a size-byte access at addr.
func LaneMask(addr uint64, size int) uint8 {
	var lanes uint8
	switch size {
	case 1:
		lanes = 0x1
	case 2:
		lanes = 0x3
	default:
		lanes = 0xF
	}
	return lanes << (addr & 0x3)
}

// ExpandMask turns a byte-lane mask into a bit mask.
func ExpandMask(mask uint8) uint64 {
	var bits uint64
	for i := 0; i < 8; i++ {
		if mask&(1<<i) != 0 {
			bits |= uint64(0xFF) << (8 * i)
		}
	}
	return bits
}

// Retired describes one instruction executed by the reference model.
type Retired struct {
	// PC and Instr identify the executed instruction.
	PC    uint64
	Instr uint32

	// NextPC is the oracle's PC after execution.
	NextPC uint64

	// Wen is set when the instruction wrote a general register other than r0.
	Wen   bool
	Wdest uint8
	Wdata uint64

	// Exception is set when the instruction raised a synchronous exception
	// instead of completing.
	Exception bool
	Ecode     uint8

	// Mem lists the data accesses performed, in program order.
	Mem []MemAccess

	// Halted is set when the oracle reached its halt instruction.
	Halted   bool
	ExitCode uint64

	// State is the oracle's architectural state after execution.
	State State
}

// Store returns the first store access of the instruction, if any.
func (r *Retired) Store() (MemAccess, bool) {
	return r.find(AccessStore)
}

// Load returns the first load access of the instruction, if any.
func (r *Retired) Load() (MemAccess, bool) {
	return r.find(AccessLoad)
}

func (r *Retired) find(kind AccessKind) (MemAccess, bool) {
	for _, m := range r.Mem {
		if m.Kind == kind {
			return m, true
		}
	}
	return MemAccess{}, false
}
