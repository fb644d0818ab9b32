// Package loader loads LA32R programs, from ELF32 LoongArch executables or
// raw binary images, into emulator memory.
package loader

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/difftest/emu"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// DefaultStackTop is the initial stack pointer of a loaded program.
const DefaultStackTop = 0x7FFFF000

// DefaultBase is the load address and entry point of raw images. It is
// where LA32R cores start fetching after reset.
const DefaultBase = 0x1C000000

// Segment represents a loadable segment.
type Segment struct {
	// VirtAddr is the address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded program ready for execution.
type Program struct {
	// EntryPoint is the address where execution should begin.
	EntryPoint uint32
	// Segments contains all loadable segments.
	Segments []Segment
	// InitialSP is the initial stack pointer value.
	InitialSP uint32
}

var elfMagic = []byte{0x7F, 'E', 'L', 'F'}

// LoadFile loads an ELF executable, or a raw image at base when the file
// does not start with the ELF magic.
func LoadFile(path string, base uint32) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}

	if bytes.HasPrefix(data, elfMagic) {
		return Load(path)
	}
	return Raw(data, base), nil
}

// Raw wraps a raw image as a single segment loaded and entered at base.
func Raw(image []byte, base uint32) *Program {
	return &Program{
		EntryPoint: base,
		InitialSP:  DefaultStackTop,
		Segments: []Segment{{
			VirtAddr: base,
			Data:     image,
			MemSize:  uint32(len(image)),
			Flags:    SegmentFlagRead | SegmentFlagWrite | SegmentFlagExecute,
		}},
	}
}

// Load parses an ELF32 LoongArch executable and returns a Program ready for
// loading into the emulator's memory.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}

	if f.Machine != elf.EM_LOONGARCH {
		return nil, fmt.Errorf("not a LoongArch ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
		InitialSP:  DefaultStackTop,
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	return prog, nil
}

// LoadIntoMemory copies the segments into m, zero-filling the part of each
// segment past its file data.
func (p *Program) LoadIntoMemory(m *emu.Memory) {
	for _, seg := range p.Segments {
		m.LoadProgram(seg.VirtAddr, seg.Data)
		for off := uint32(len(seg.Data)); off < seg.MemSize; off++ {
			m.Write8(seg.VirtAddr+off, 0)
		}
	}
}

// NewEmulator creates an emulator with the program loaded, PC at the entry
// point and the stack pointer set.
func (p *Program) NewEmulator(opts ...emu.EmulatorOption) *emu.Emulator {
	opts = append([]emu.EmulatorOption{emu.WithStackPointer(p.InitialSP)}, opts...)
	e := emu.NewEmulator(opts...)

	m := emu.NewMemory()
	p.LoadIntoMemory(m)
	e.LoadProgram(p.EntryPoint, m)

	return e
}
