package dut

import "fmt"

// FaultKind selects what an injected fault corrupts.
type FaultKind int

// Fault kinds.
const (
	// FaultWdata flips a bit of the reported register write value.
	FaultWdata FaultKind = iota
	// FaultPC flips a bit of the reported PC.
	FaultPC
	// FaultStoreData flips a bit of the reported store data.
	FaultStoreData
	// FaultStoreAddr flips a bit of the reported store address.
	FaultStoreAddr
	// FaultDropCommit hides the commit from the checker.
	FaultDropCommit
)

func (k FaultKind) String() string {
	switch k {
	case FaultWdata:
		return "wdata"
	case FaultPC:
		return "pc"
	case FaultStoreData:
		return "store-data"
	case FaultStoreAddr:
		return "store-addr"
	case FaultDropCommit:
		return "drop-commit"
	default:
		return fmt.Sprintf("FaultKind(%d)", int(k))
	}
}

// ParseFaultKind parses the String form of a FaultKind.
func ParseFaultKind(s string) (FaultKind, error) {
	for k := FaultWdata; k <= FaultDropCommit; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown fault kind %q", s)
}

// Fault corrupts what the core reports for one retired instruction. The
// core's own execution is unaffected.
type Fault struct {
	Kind FaultKind

	// At is the 1-based sequence number of the retired instruction.
	At uint64

	// Bit is the bit to flip.
	Bit uint
}

// flip returns v with the fault's bit inverted.
func (f Fault) flip(v uint64) uint64 {
	return v ^ 1<<(f.Bit%64)
}
