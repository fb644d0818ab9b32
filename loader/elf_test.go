package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/difftest/emu"
	"github.com/sarchlab/difftest/insts"
	"github.com/sarchlab/difftest/loader"
)

const (
	machineLoongArch = 258
	machineX86       = 3
)

type segment struct {
	addr   uint32
	data   []byte
	memSz  uint32
	flags  uint32
	ptType uint32
}

// writeELF32 writes a little-endian ELF32 executable with one program
// header per segment.
func writeELF32(path string, machine uint16, entry uint32, segs ...segment) {
	const ehsize, phentsize = 52, 32

	header := make([]byte, ehsize)
	copy(header[0:4], []byte{0x7F, 'E', 'L', 'F'})
	header[4] = 1 // 32-bit
	header[5] = 1 // little endian
	header[6] = 1 // version

	binary.LittleEndian.PutUint16(header[16:18], 2) // ET_EXEC
	binary.LittleEndian.PutUint16(header[18:20], machine)
	binary.LittleEndian.PutUint32(header[20:24], 1)
	binary.LittleEndian.PutUint32(header[24:28], entry)
	binary.LittleEndian.PutUint32(header[28:32], ehsize)
	binary.LittleEndian.PutUint16(header[40:42], ehsize)
	binary.LittleEndian.PutUint16(header[42:44], phentsize)
	binary.LittleEndian.PutUint16(header[44:46], uint16(len(segs)))
	binary.LittleEndian.PutUint16(header[46:48], 40)

	offset := uint32(ehsize + phentsize*len(segs))
	var phdrs, body []byte
	for _, s := range segs {
		ph := make([]byte, phentsize)
		ptType := s.ptType
		if ptType == 0 {
			ptType = 1 // PT_LOAD
		}
		memSz := s.memSz
		if memSz == 0 {
			memSz = uint32(len(s.data))
		}
		binary.LittleEndian.PutUint32(ph[0:4], ptType)
		binary.LittleEndian.PutUint32(ph[4:8], offset)
		binary.LittleEndian.PutUint32(ph[8:12], s.addr)
		binary.LittleEndian.PutUint32(ph[12:16], s.addr)
		binary.LittleEndian.PutUint32(ph[16:20], uint32(len(s.data)))
		binary.LittleEndian.PutUint32(ph[20:24], memSz)
		binary.LittleEndian.PutUint32(ph[24:28], s.flags)
		binary.LittleEndian.PutUint32(ph[28:32], 0x1000)

		phdrs = append(phdrs, ph...)
		body = append(body, s.data...)
		offset += uint32(len(s.data))
	}

	out := append(append(header, phdrs...), body...)
	Expect(os.WriteFile(path, out, 0644)).To(Succeed())
}

func code(words ...uint32) []byte {
	out := make([]byte, 0, 4*len(words))
	for _, w := range words {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	return out
}

var _ = Describe("ELF Loader", func() {
	var (
		dir  string
		text []byte
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		text = code(insts.EncodeADDIW(4, 0, 42), insts.WordHALT)
	})

	Context("with a valid LoongArch executable", func() {
		var path string

		BeforeEach(func() {
			path = filepath.Join(dir, "prog.elf")
			writeELF32(path, machineLoongArch, 0x1C000000,
				segment{addr: 0x1C000000, data: text, flags: 0x5},
				segment{addr: 0x1C001000, data: []byte{1, 2}, memSz: 8, flags: 0x6},
			)
		})

		It("should extract the entry point and stack", func() {
			prog, err := loader.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x1C000000)))
			Expect(prog.InitialSP).To(Equal(uint32(loader.DefaultStackTop)))
		})

		It("should load every PT_LOAD segment with its permissions", func() {
			prog, err := loader.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(2))

			Expect(prog.Segments[0].VirtAddr).To(Equal(uint32(0x1C000000)))
			Expect(prog.Segments[0].Data).To(Equal(text))
			Expect(prog.Segments[0].Flags).To(Equal(loader.SegmentFlagExecute | loader.SegmentFlagRead))

			Expect(prog.Segments[1].MemSize).To(Equal(uint32(8)))
			Expect(prog.Segments[1].Flags).To(Equal(loader.SegmentFlagWrite | loader.SegmentFlagRead))
		})

		It("should zero-fill BSS when loading into memory", func() {
			prog, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())

			m := emu.NewMemory()
			m.Write32(0x1C001004, 0xFFFFFFFF)
			prog.LoadIntoMemory(m)

			Expect(m.Read32(0x1C000000)).To(Equal(insts.EncodeADDIW(4, 0, 42)))
			Expect(m.Read16(0x1C001000)).To(Equal(uint16(0x0201)))
			Expect(m.Read32(0x1C001004)).To(BeZero())
		})

		It("should create a runnable emulator", func() {
			prog, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())

			e := prog.NewEmulator()

			Expect(e.PC()).To(Equal(uint64(0x1C000000)))
			Expect(e.RegFile().ReadReg(emu.RegSP)).To(Equal(uint32(loader.DefaultStackTop)))
			Expect(e.Run()).To(Equal(int64(42)))
		})

		It("should be detected by LoadFile", func() {
			prog, err := loader.LoadFile(path, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(2))
		})
	})

	It("should skip segments that are not PT_LOAD", func() {
		path := filepath.Join(dir, "note.elf")
		writeELF32(path, machineLoongArch, 0x1C000000,
			segment{addr: 0, data: []byte{0, 0, 0, 0}, ptType: 4})

		prog, err := loader.Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(prog.Segments).To(BeEmpty())
	})

	It("should reject other machines", func() {
		path := filepath.Join(dir, "x86.elf")
		writeELF32(path, machineX86, 0)

		_, err := loader.Load(path)

		Expect(err).To(MatchError(ContainSubstring("not a LoongArch")))
	})

	It("should reject 64-bit files", func() {
		path := filepath.Join(dir, "wide.elf")
		header := make([]byte, 64)
		copy(header, []byte{0x7F, 'E', 'L', 'F', 2, 1, 1})
		binary.LittleEndian.PutUint16(header[16:18], 2)
		binary.LittleEndian.PutUint16(header[18:20], machineLoongArch)
		binary.LittleEndian.PutUint32(header[20:24], 1)
		binary.LittleEndian.PutUint16(header[52:54], 64)
		Expect(os.WriteFile(path, header, 0644)).To(Succeed())

		_, err := loader.Load(path)

		Expect(err).To(MatchError(ContainSubstring("not a 32-bit")))
	})

	It("should fail on missing and non-ELF files", func() {
		_, err := loader.Load(filepath.Join(dir, "missing"))
		Expect(err).To(HaveOccurred())

		path := filepath.Join(dir, "text")
		Expect(os.WriteFile(path, []byte("hello"), 0644)).To(Succeed())
		_, err = loader.Load(path)
		Expect(err).To(HaveOccurred())
	})

	It("should load raw images at the given base", func() {
		path := filepath.Join(dir, "prog.bin")
		Expect(os.WriteFile(path, text, 0644)).To(Succeed())

		prog, err := loader.LoadFile(path, loader.DefaultBase)

		Expect(err).NotTo(HaveOccurred())
		Expect(prog.EntryPoint).To(Equal(uint32(loader.DefaultBase)))
		Expect(prog.NewEmulator().Run()).To(Equal(int64(42)))
	})
})
