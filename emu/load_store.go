// Package emu provides functional LA32R emulation.
package emu

import (
	"github.com/sarchlab/difftest/arch"
	"github.com/sarchlab/difftest/insts"
)

// LoadStoreUnit implements LA32R load and store operations and records
// every data access of the current instruction.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  *Memory
	trace   []arch.MemAccess
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// Trace returns the accesses recorded since the last ResetTrace.
func (lsu *LoadStoreUnit) Trace() []arch.MemAccess {
	if len(lsu.trace) == 0 {
		return nil
	}
	out := make([]arch.MemAccess, len(lsu.trace))
	copy(out, lsu.trace)
	return out
}

// ResetTrace clears the access trace.
func (lsu *LoadStoreUnit) ResetTrace() {
	lsu.trace = lsu.trace[:0]
}

// Aligned reports whether a size-byte access at addr is naturally aligned.
func Aligned(addr uint32, size int) bool {
	return addr&uint32(size-1) == 0
}

// Load performs ld.{b,h,w,bu,hu}: rd = mem[addr], extended per op.
func (lsu *LoadStoreUnit) Load(op insts.Op, rd uint8, addr uint32) {
	var value uint32
	size := 4

	switch op {
	case insts.OpLDB:
		size = 1
		value = uint32(int32(int8(lsu.memory.Read8(addr))))
	case insts.OpLDBU:
		size = 1
		value = uint32(lsu.memory.Read8(addr))
	case insts.OpLDH:
		size = 2
		value = uint32(int32(int16(lsu.memory.Read16(addr))))
	case insts.OpLDHU:
		size = 2
		value = uint32(lsu.memory.Read16(addr))
	default:
		value = lsu.memory.Read32(addr)
	}

	lsu.trace = append(lsu.trace, arch.MemAccess{
		Kind: arch.AccessLoad,
		Addr: uint64(addr),
		Size: uint8(size),
		Data: uint64(value),
		Mask: arch.LaneMask(uint64(addr), size),
	})
	lsu.regFile.WriteReg(rd, value)
}

// Store performs st.{b,h,w}: mem[addr] = rd (low size bytes).
func (lsu *LoadStoreUnit) Store(op insts.Op, rd uint8, addr uint32) {
	value := lsu.regFile.ReadReg(rd)
	size := 4

	switch op {
	case insts.OpSTB:
		size = 1
		value &= 0xFF
		lsu.memory.Write8(addr, uint8(value))
	case insts.OpSTH:
		size = 2
		value &= 0xFFFF
		lsu.memory.Write16(addr, uint16(value))
	default:
		lsu.memory.Write32(addr, value)
	}

	lane := uint64(addr&0x3) * 8
	lsu.trace = append(lsu.trace, arch.MemAccess{
		Kind: arch.AccessStore,
		Addr: uint64(addr),
		Size: uint8(size),
		Data: (uint64(value) << lane) & 0xFFFFFFFF,
		Mask: arch.LaneMask(uint64(addr), size),
	})
}
