// Package emu provides functional LA32R emulation.
package emu

import "github.com/sarchlab/difftest/arch"

// csrWriteMask lists the software-writable bits of each CSR. Bits outside
// the mask keep their value on csrwr/csrxchg.
var csrWriteMask = [arch.NumCSRs]uint32{
	arch.CRMD:      0x000001FF,
	arch.PRMD:      0x00000007,
	arch.EUEN:      0x00000001,
	arch.ECFG:      0x00001BFF,
	arch.ESTAT:     0x00000003,
	arch.ERA:       0xFFFFFFFF,
	arch.BADV:      0xFFFFFFFF,
	arch.EENTRY:    0xFFFFFFC0,
	arch.TLBIDX:    0xBF00000F,
	arch.TLBEHI:    0xFFFFE000,
	arch.TLBELO0:   0xFFFFFF7F,
	arch.TLBELO1:   0xFFFFFF7F,
	arch.ASID:      0x000003FF,
	arch.PGDL:      0xFFFFF000,
	arch.PGDH:      0xFFFFF000,
	arch.SAVE0:     0xFFFFFFFF,
	arch.SAVE1:     0xFFFFFFFF,
	arch.SAVE2:     0xFFFFFFFF,
	arch.SAVE3:     0xFFFFFFFF,
	arch.TID:       0xFFFFFFFF,
	arch.TCFG:      0xFFFFFFFF,
	arch.TVAL:      0x00000000,
	arch.TICLR:     0x00000000,
	arch.LLBCTL:    0x00000004,
	arch.TLBRENTRY: 0xFFFFFFC0,
	arch.DMW0:      0xEE000039,
	arch.DMW1:      0xEE000039,
}

// crmdReset is CRMD after reset: direct address translation, PLV0,
// interrupts disabled.
const crmdReset = uint32(arch.CRMDDA)

// CSRFile holds the control/status registers.
type CSRFile struct {
	regs [arch.NumCSRs]uint32
}

// NewCSRFile creates a CSR file in its reset state.
func NewCSRFile() *CSRFile {
	c := &CSRFile{}
	c.Reset()
	return c
}

// Reset restores the reset values.
func (c *CSRFile) Reset() {
	c.regs = [arch.NumCSRs]uint32{}
	c.regs[arch.CRMD] = crmdReset
	c.regs[arch.ASID] = 0xA << 16 // ASIDBITS
}

// Get returns a CSR by index.
func (c *CSRFile) Get(csr arch.CSR) uint32 {
	return c.regs[csr]
}

// Set stores a CSR by index without applying the write mask.
func (c *CSRFile) Set(csr arch.CSR, value uint32) {
	c.regs[csr] = value
}

// Read returns the CSR with architectural number num. Unimplemented CSRs
// read as zero.
func (c *CSRFile) Read(num uint16) uint32 {
	csr, ok := arch.CSRByNumber(num)
	if !ok {
		return 0
	}
	return c.regs[csr]
}

// Write applies a software write to the CSR with architectural number num,
// under mask. csrwr uses an all-ones mask.
func (c *CSRFile) Write(num uint16, value, mask uint32) {
	csr, ok := arch.CSRByNumber(num)
	if !ok {
		return
	}

	if csr == arch.TICLR {
		if value&mask&0x1 != 0 {
			c.regs[arch.ESTAT] &^= 1 << 11
		}
		return
	}

	wmask := csrWriteMask[csr] & mask
	c.regs[csr] = c.regs[csr]&^wmask | value&wmask
}
