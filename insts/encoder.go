// Package insts provides LA32R instruction definitions and decoding.
package insts

// The encoders below produce raw instruction words. They are used to build
// small programs for the reference model and the emulated hardware core.

// Encode3R encodes a three-register instruction.
func Encode3R(op Op, rd, rj, rk uint8) uint32 {
	for code, o := range ops3R {
		if o == op {
			return code<<15 | uint32(rk&0x1F)<<10 | uint32(rj&0x1F)<<5 | uint32(rd&0x1F)
		}
	}
	return 0
}

// EncodeShiftImm encodes slli.w, srli.w or srai.w.
func EncodeShiftImm(op Op, rd, rj, ui5 uint8) uint32 {
	for code, o := range ops2RI5 {
		if o == op {
			return code<<15 | uint32(ui5&0x1F)<<10 | uint32(rj&0x1F)<<5 | uint32(rd&0x1F)
		}
	}
	return 0
}

// Encode2RI12 encodes an immediate arithmetic, load or store instruction.
func Encode2RI12(op Op, rd, rj uint8, imm int32) uint32 {
	for code, o := range ops2RI12 {
		if o == op {
			return code<<22 | (uint32(imm)&0xFFF)<<10 | uint32(rj&0x1F)<<5 | uint32(rd&0x1F)
		}
	}
	return 0
}

// EncodeADDIW encodes addi.w rd, rj, si12.
func EncodeADDIW(rd, rj uint8, si12 int32) uint32 {
	return Encode2RI12(OpADDIW, rd, rj, si12)
}

// EncodeLU12IW encodes lu12i.w rd, si20.
func EncodeLU12IW(rd uint8, si20 int32) uint32 {
	return 0x0A<<25 | (uint32(si20)&0xFFFFF)<<5 | uint32(rd&0x1F)
}

// EncodePCADDU12I encodes pcaddu12i rd, si20.
func EncodePCADDU12I(rd uint8, si20 int32) uint32 {
	return 0x0E<<25 | (uint32(si20)&0xFFFFF)<<5 | uint32(rd&0x1F)
}

// EncodeLoad encodes ld.{b,h,w,bu,hu} rd, rj, si12.
func EncodeLoad(op Op, rd, rj uint8, si12 int32) uint32 {
	return Encode2RI12(op, rd, rj, si12)
}

// EncodeStore encodes st.{b,h,w} rd, rj, si12.
func EncodeStore(op Op, rd, rj uint8, si12 int32) uint32 {
	return Encode2RI12(op, rd, rj, si12)
}

// EncodeBranch encodes jirl or a conditional branch with a byte offset.
func EncodeBranch(op Op, rj, rd uint8, offset int32) uint32 {
	for code, o := range opsBranch {
		if o == op {
			offs16 := uint32(offset>>2) & 0xFFFF
			return code<<26 | offs16<<10 | uint32(rj&0x1F)<<5 | uint32(rd&0x1F)
		}
	}
	return 0
}

// EncodeB encodes b (or bl when link is set) with a byte offset.
func EncodeB(offset int32, link bool) uint32 {
	offs := uint32(offset>>2) & 0x3FFFFFF
	op := uint32(0x14)
	if link {
		op = 0x15
	}
	return op<<26 | (offs&0xFFFF)<<10 | (offs >> 16)
}

// EncodeCSR encodes csrrd (rj=0), csrwr (rj=1) or csrxchg.
func EncodeCSR(rd, rj uint8, csr uint16) uint32 {
	return 0x04<<24 | uint32(csr&0x3FFF)<<10 | uint32(rj&0x1F)<<5 | uint32(rd&0x1F)
}

// EncodeBREAK encodes break code.
func EncodeBREAK(code uint32) uint32 {
	return 0x54<<15 | code&0x7FFF
}

// EncodeSYSCALL encodes syscall code.
func EncodeSYSCALL(code uint32) uint32 {
	return 0x56<<15 | code&0x7FFF
}
