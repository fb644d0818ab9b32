// Package arch defines the LA32R architectural state shared by the reference
// model and the differential-testing engine.
package arch

import "strings"

// CSR indexes the control/status registers in declaration order. The order
// is the order of the CSRState boundary call and the order of comparison.
type CSR uint8

// Control/status registers.
const (
	CRMD CSR = iota
	PRMD
	EUEN
	ECFG
	ESTAT
	ERA
	BADV
	EENTRY
	TLBIDX
	TLBEHI
	TLBELO0
	TLBELO1
	ASID
	PGDL
	PGDH
	SAVE0
	SAVE1
	SAVE2
	SAVE3
	TID
	TCFG
	TVAL
	TICLR
	LLBCTL
	TLBRENTRY
	DMW0
	DMW1

	// NumCSRs is the number of CSRs carried by a snapshot.
	NumCSRs
)

var csrNames = [NumCSRs]string{
	"crmd", "prmd", "euen", "ecfg", "estat", "era", "badv", "eentry",
	"tlbidx", "tlbehi", "tlbelo0", "tlbelo1", "asid", "pgdl", "pgdh",
	"save0", "save1", "save2", "save3",
	"tid", "tcfg", "tval", "ticlr", "llbctl", "tlbrentry", "dmw0", "dmw1",
}

// csrNumbers are the architectural CSR addresses used by csrrd/csrwr/csrxchg.
var csrNumbers = [NumCSRs]uint16{
	0x000, 0x001, 0x002, 0x004, 0x005, 0x006, 0x007, 0x00c,
	0x010, 0x011, 0x012, 0x013, 0x018, 0x019, 0x01a,
	0x030, 0x031, 0x032, 0x033,
	0x040, 0x041, 0x042, 0x044, 0x060, 0x088, 0x180, 0x181,
}

// String returns the lower-case CSR name.
func (c CSR) String() string {
	if c >= NumCSRs {
		return "csr?"
	}
	return csrNames[c]
}

// Number returns the architectural CSR address.
func (c CSR) Number() uint16 {
	if c >= NumCSRs {
		return 0xFFFF
	}
	return csrNumbers[c]
}

// CSRByNumber maps an architectural CSR address to its index.
func CSRByNumber(num uint16) (CSR, bool) {
	for i, n := range csrNumbers {
		if n == num {
			return CSR(i), true
		}
	}
	return 0, false
}

// CSRByName maps a CSR name (case-insensitive) to its index.
func CSRByName(name string) (CSR, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range csrNames {
		if n == name {
			return CSR(i), true
		}
	}
	return 0, false
}

// Field bits used by the reference model.
const (
	CRMDPLVMask uint64 = 0x3
	CRMDIE      uint64 = 1 << 2
	CRMDDA      uint64 = 1 << 3
	CRMDPG      uint64 = 1 << 4

	PRMDPPLVMask uint64 = 0x3
	PRMDPIE      uint64 = 1 << 2

	ESTATISMask     uint64 = 0x1FFF
	ESTATEcodeShift        = 16
	ESTATEcodeMask  uint64 = 0x3F << ESTATEcodeShift
	ESTATSubShift          = 22
	ESTATSubMask    uint64 = 0x1FF << ESTATSubShift

	ECFGLIEMask uint64 = 0x1FFF

	EENTRYMask  uint64 = 0xFFFFFFC0
	LLBCTLROLLB uint64 = 1 << 0
)

// Exception codes written to ESTAT.Ecode.
const (
	EcodeINT uint8 = 0x0
	EcodeADE uint8 = 0x8
	EcodeALE uint8 = 0x9
	EcodeSYS uint8 = 0xB
	EcodeBRK uint8 = 0xC
	EcodeINE uint8 = 0xD
)
