// Package insts provides LA32R instruction definitions and decoding.
package insts

// Op represents an LA32R opcode.
type Op uint16

// LA32R opcodes.
const (
	OpUnknown Op = iota
	OpADDW
	OpSUBW
	OpSLT
	OpSLTU
	OpNOR
	OpAND
	OpOR
	OpXOR
	OpSLLW
	OpSRLW
	OpSRAW
	OpMULW
	OpMULHW
	OpMULHWU
	OpDIVW
	OpMODW
	OpDIVWU
	OpMODWU
	OpBREAK
	OpSYSCALL
	OpSLLIW
	OpSRLIW
	OpSRAIW
	OpSLTI
	OpSLTUI
	OpADDIW
	OpANDI
	OpORI
	OpXORI
	OpLU12IW
	OpPCADDU12I
	OpCSRRD
	OpCSRWR
	OpCSRXCHG
	OpERTN
	OpLDB
	OpLDH
	OpLDW
	OpSTB
	OpSTH
	OpSTW
	OpLDBU
	OpLDHU
	OpJIRL
	OpB
	OpBL
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	// OpHALT is the simulator trap (0x80000000). It ends the program with the
	// value of $a0 as exit code.
	OpHALT
)

var opNames = map[Op]string{
	OpADDW: "add.w", OpSUBW: "sub.w", OpSLT: "slt", OpSLTU: "sltu",
	OpNOR: "nor", OpAND: "and", OpOR: "or", OpXOR: "xor",
	OpSLLW: "sll.w", OpSRLW: "srl.w", OpSRAW: "sra.w",
	OpMULW: "mul.w", OpMULHW: "mulh.w", OpMULHWU: "mulh.wu",
	OpDIVW: "div.w", OpMODW: "mod.w", OpDIVWU: "div.wu", OpMODWU: "mod.wu",
	OpBREAK: "break", OpSYSCALL: "syscall",
	OpSLLIW: "slli.w", OpSRLIW: "srli.w", OpSRAIW: "srai.w",
	OpSLTI: "slti", OpSLTUI: "sltui", OpADDIW: "addi.w",
	OpANDI: "andi", OpORI: "ori", OpXORI: "xori",
	OpLU12IW: "lu12i.w", OpPCADDU12I: "pcaddu12i",
	OpCSRRD: "csrrd", OpCSRWR: "csrwr", OpCSRXCHG: "csrxchg", OpERTN: "ertn",
	OpLDB: "ld.b", OpLDH: "ld.h", OpLDW: "ld.w", OpSTB: "st.b", OpSTH: "st.h",
	OpSTW: "st.w", OpLDBU: "ld.bu", OpLDHU: "ld.hu",
	OpJIRL: "jirl", OpB: "b", OpBL: "bl", OpBEQ: "beq", OpBNE: "bne",
	OpBLT: "blt", OpBGE: "bge", OpBLTU: "bltu", OpBGEU: "bgeu",
	OpHALT: "halt",
}

// String returns the assembler mnemonic.
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "unknown"
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	Format3R             // opcode[31:15] rk rj rd
	Format2RI5           // opcode[31:15] ui5 rj rd
	Format2RI12          // opcode[31:22] si12/ui12 rj rd
	Format1RI20          // opcode[31:25] si20 rd
	FormatCSR            // opcode[31:24] csr rj rd
	FormatBranch         // opcode[31:26] offs16 rj rd
	FormatJump           // opcode[31:26] offs26
	FormatCode           // opcode[31:15] code15
	FormatNone           // fixed encoding (ertn, halt)
)

// Instruction represents a decoded LA32R instruction.
type Instruction struct {
	Op     Op     // Operation code
	Format Format // Encoding format
	Word   uint32 // Raw instruction word

	Rd uint8 // Destination register (also second source for branches/stores)
	Rj uint8 // First source register
	Rk uint8 // Second source register (3R format)

	// Imm is the sign- or zero-extended immediate, already shifted where the
	// encoding implies a shift (lu12i.w, pcaddu12i).
	Imm int32

	// Offset is the signed branch offset in bytes.
	Offset int32

	// CSR is the architectural CSR number for csrrd/csrwr/csrxchg.
	CSR uint16

	// Code is the 15-bit code of break/syscall.
	Code uint32
}

// IsLoad reports whether the instruction reads data memory.
func (i *Instruction) IsLoad() bool {
	switch i.Op {
	case OpLDB, OpLDH, OpLDW, OpLDBU, OpLDHU:
		return true
	}
	return false
}

// IsStore reports whether the instruction writes data memory.
func (i *Instruction) IsStore() bool {
	return i.Op == OpSTB || i.Op == OpSTH || i.Op == OpSTW
}

// IsBranch reports whether the instruction may redirect control flow.
func (i *Instruction) IsBranch() bool {
	return i.Format == FormatBranch || i.Format == FormatJump || i.Op == OpERTN
}

// IsMulDiv reports whether the instruction uses the multiply/divide unit.
func (i *Instruction) IsMulDiv() bool {
	return i.Op >= OpMULW && i.Op <= OpMODWU
}

// AccessSize returns the data memory access size in bytes, or 0.
func (i *Instruction) AccessSize() int {
	switch i.Op {
	case OpLDB, OpLDBU, OpSTB:
		return 1
	case OpLDH, OpLDHU, OpSTH:
		return 2
	case OpLDW, OpSTW:
		return 4
	}
	return 0
}

// Fixed encodings.
const (
	WordERTN uint32 = 0x06483800
	WordHALT uint32 = 0x80000000
	WordNOP  uint32 = 0x03400000 // andi $r0, $r0, 0
)

var ops3R = map[uint32]Op{
	0x20: OpADDW, 0x22: OpSUBW, 0x24: OpSLT, 0x25: OpSLTU,
	0x28: OpNOR, 0x29: OpAND, 0x2A: OpOR, 0x2B: OpXOR,
	0x2E: OpSLLW, 0x2F: OpSRLW, 0x30: OpSRAW,
	0x38: OpMULW, 0x39: OpMULHW, 0x3A: OpMULHWU,
	0x40: OpDIVW, 0x41: OpMODW, 0x42: OpDIVWU, 0x43: OpMODWU,
}

var ops2RI5 = map[uint32]Op{0x81: OpSLLIW, 0x89: OpSRLIW, 0x91: OpSRAIW}

var ops2RI12 = map[uint32]Op{
	0x008: OpSLTI, 0x009: OpSLTUI, 0x00A: OpADDIW,
	0x00D: OpANDI, 0x00E: OpORI, 0x00F: OpXORI,
	0x0A0: OpLDB, 0x0A1: OpLDH, 0x0A2: OpLDW,
	0x0A4: OpSTB, 0x0A5: OpSTH, 0x0A6: OpSTW,
	0x0A8: OpLDBU, 0x0A9: OpLDHU,
}

var opsBranch = map[uint32]Op{
	0x13: OpJIRL, 0x16: OpBEQ, 0x17: OpBNE, 0x18: OpBLT,
	0x19: OpBGE, 0x1A: OpBLTU, 0x1B: OpBGEU,
}

// Decoder decodes LA32R machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new LA32R instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit LA32R instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Op: OpUnknown, Format: FormatUnknown, Word: word}

	switch {
	case word == WordHALT:
		inst.Op = OpHALT
		inst.Format = FormatNone
	case word == WordERTN:
		inst.Op = OpERTN
		inst.Format = FormatNone
	case d.isJump(word):
		d.decodeJump(word, inst)
	case d.isBranch(word):
		d.decodeBranch(word, inst)
	case d.is1RI20(word):
		d.decode1RI20(word, inst)
	case word>>24 == 0x04:
		d.decodeCSR(word, inst)
	case d.is2RI12(word):
		d.decode2RI12(word, inst)
	default:
		d.decodeOp17(word, inst)
	}

	return inst
}

func (d *Decoder) isJump(word uint32) bool {
	op := word >> 26
	return op == 0x14 || op == 0x15
}

// decodeJump decodes B and BL.
// Format: op[31:26] | offs[15:0] at [25:10] | offs[25:16] at [9:0]
func (d *Decoder) decodeJump(word uint32, inst *Instruction) {
	inst.Format = FormatJump
	if word>>26 == 0x14 {
		inst.Op = OpB
	} else {
		inst.Op = OpBL
	}

	offs := ((word & 0x3FF) << 16) | ((word >> 10) & 0xFFFF)
	inst.Offset = signExtend(offs, 26) << 2
	inst.Imm = inst.Offset
}

func (d *Decoder) isBranch(word uint32) bool {
	_, ok := opsBranch[word>>26]
	return ok
}

// decodeBranch decodes JIRL and the conditional branches.
// Format: op[31:26] | offs16[25:10] | rj[9:5] | rd[4:0]
func (d *Decoder) decodeBranch(word uint32, inst *Instruction) {
	inst.Format = FormatBranch
	inst.Op = opsBranch[word>>26]
	inst.Rj = uint8((word >> 5) & 0x1F)
	inst.Rd = uint8(word & 0x1F)
	inst.Offset = signExtend((word>>10)&0xFFFF, 16) << 2
	inst.Imm = inst.Offset
}

func (d *Decoder) is1RI20(word uint32) bool {
	op := word >> 25
	return op == 0x0A || op == 0x0E
}

// decode1RI20 decodes LU12I.W and PCADDU12I.
// Format: op[31:25] | si20[24:5] | rd[4:0]
func (d *Decoder) decode1RI20(word uint32, inst *Instruction) {
	inst.Format = Format1RI20
	if word>>25 == 0x0A {
		inst.Op = OpLU12IW
	} else {
		inst.Op = OpPCADDU12I
	}
	inst.Rd = uint8(word & 0x1F)
	inst.Imm = int32(((word >> 5) & 0xFFFFF) << 12)
}

// decodeCSR decodes the CSR access family. rj selects the operation:
// 0 is csrrd, 1 is csrwr, anything else is csrxchg with rj as mask.
func (d *Decoder) decodeCSR(word uint32, inst *Instruction) {
	inst.Format = FormatCSR
	inst.Rd = uint8(word & 0x1F)
	inst.Rj = uint8((word >> 5) & 0x1F)
	inst.CSR = uint16((word >> 10) & 0x3FFF)

	switch inst.Rj {
	case 0:
		inst.Op = OpCSRRD
	case 1:
		inst.Op = OpCSRWR
	default:
		inst.Op = OpCSRXCHG
	}
}

func (d *Decoder) is2RI12(word uint32) bool {
	_, ok := ops2RI12[word>>22]
	return ok
}

// decode2RI12 decodes immediate arithmetic, loads and stores.
// Format: op[31:22] | imm12[21:10] | rj[9:5] | rd[4:0]
func (d *Decoder) decode2RI12(word uint32, inst *Instruction) {
	inst.Format = Format2RI12
	inst.Op = ops2RI12[word>>22]
	inst.Rj = uint8((word >> 5) & 0x1F)
	inst.Rd = uint8(word & 0x1F)

	imm12 := (word >> 10) & 0xFFF
	switch inst.Op {
	case OpANDI, OpORI, OpXORI:
		inst.Imm = int32(imm12)
	default:
		inst.Imm = signExtend(imm12, 12)
	}
}

// decodeOp17 decodes the formats keyed by bits [31:15].
func (d *Decoder) decodeOp17(word uint32, inst *Instruction) {
	op17 := word >> 15

	if op, ok := ops3R[op17]; ok {
		inst.Format = Format3R
		inst.Op = op
		inst.Rk = uint8((word >> 10) & 0x1F)
		inst.Rj = uint8((word >> 5) & 0x1F)
		inst.Rd = uint8(word & 0x1F)
		return
	}

	if op, ok := ops2RI5[op17]; ok {
		inst.Format = Format2RI5
		inst.Op = op
		inst.Imm = int32((word >> 10) & 0x1F)
		inst.Rj = uint8((word >> 5) & 0x1F)
		inst.Rd = uint8(word & 0x1F)
		return
	}

	switch op17 {
	case 0x54:
		inst.Op = OpBREAK
		inst.Format = FormatCode
		inst.Code = word & 0x7FFF
	case 0x56:
		inst.Op = OpSYSCALL
		inst.Format = FormatCode
		inst.Code = word & 0x7FFF
	}
}

// signExtend sign-extends the low width bits of v.
func signExtend(v uint32, width uint) int32 {
	shift := 32 - width
	return int32(v<<shift) >> shift
}
