package emu_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/difftest/arch"
	"github.com/sarchlab/difftest/emu"
	"github.com/sarchlab/difftest/insts"
)

const entry = uint32(0x1c000000)

var _ = Describe("Emulator", func() {
	var (
		e         *emu.Emulator
		stdoutBuf *bytes.Buffer
	)

	load := func(words ...uint32) {
		e.Memory().LoadWords(entry, words...)
		e.LoadProgram(entry, e.Memory())
	}

	BeforeEach(func() {
		stdoutBuf = &bytes.Buffer{}
		e = emu.NewEmulator(
			emu.WithStdout(stdoutBuf),
		)
	})

	Describe("NewEmulator", func() {
		It("should create an emulator with initialized components", func() {
			Expect(e).NotTo(BeNil())
			Expect(e.RegFile()).NotTo(BeNil())
			Expect(e.CSRFile()).NotTo(BeNil())
			Expect(e.Memory()).NotTo(BeNil())
		})

		It("should reset CRMD to direct address translation", func() {
			Expect(e.CSRFile().Get(arch.CRMD)).To(Equal(uint32(arch.CRMDDA)))
		})

		It("should apply the stack pointer option", func() {
			e = emu.NewEmulator(emu.WithStackPointer(0x8000))

			Expect(e.RegFile().ReadReg(emu.RegSP)).To(Equal(uint32(0x8000)))
		})
	})

	Describe("LoadProgram", func() {
		It("should set the PC to the entry point", func() {
			e.LoadProgram(0x1000, []byte{0x00, 0x00, 0x40, 0x03})

			Expect(e.RegFile().PC).To(Equal(uint32(0x1000)))
			Expect(e.Memory().Read32(0x1000)).To(Equal(insts.WordNOP))
		})
	})

	Describe("Step", func() {
		It("should execute arithmetic and report the register write", func() {
			load(
				insts.EncodeADDIW(4, 0, 5),
				insts.EncodeADDIW(5, 0, 7),
				insts.Encode3R(insts.OpADDW, 6, 4, 5),
			)

			e.Step()
			e.Step()
			result := e.Step()

			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Retired.PC).To(Equal(uint64(entry + 8)))
			Expect(result.Retired.NextPC).To(Equal(uint64(entry + 12)))
			Expect(result.Retired.Wen).To(BeTrue())
			Expect(result.Retired.Wdest).To(Equal(uint8(6)))
			Expect(result.Retired.Wdata).To(Equal(uint64(12)))
			Expect(e.InstructionCount()).To(Equal(uint64(3)))
		})

		It("should not report a write to r0", func() {
			load(insts.EncodeADDIW(0, 0, 5))

			result := e.Step()

			Expect(result.Retired.Wen).To(BeFalse())
			Expect(e.RegFile().ReadReg(0)).To(Equal(uint32(0)))
		})

		It("should build constants with lu12i.w and ori", func() {
			load(
				insts.EncodeLU12IW(4, 0x12345),
				insts.Encode2RI12(insts.OpORI, 4, 4, 0x678),
			)

			e.Step()
			e.Step()

			Expect(e.RegFile().ReadReg(4)).To(Equal(uint32(0x12345678)))
		})

		It("should compute pc-relative addresses", func() {
			load(insts.EncodePCADDU12I(4, 1))

			e.Step()

			Expect(e.RegFile().ReadReg(4)).To(Equal(entry + 0x1000))
		})

		It("should record stores shifted into their byte lanes", func() {
			load(
				insts.EncodeADDIW(4, 0, 0xAB),
				insts.EncodeLU12IW(5, 0x8),
				insts.EncodeStore(insts.OpSTB, 4, 5, 2),
			)

			e.Step()
			e.Step()
			result := e.Step()

			st, ok := result.Retired.Store()
			Expect(ok).To(BeTrue())
			Expect(st.Addr).To(Equal(uint64(0x8002)))
			Expect(st.Mask).To(Equal(uint8(0x4)))
			Expect(st.Data).To(Equal(uint64(0xAB0000)))
			Expect(e.Memory().Read8(0x8002)).To(Equal(uint8(0xAB)))
		})

		It("should sign-extend ld.b and zero-extend ld.bu", func() {
			e.Memory().Write8(0x8000, 0x80)
			load(
				insts.EncodeLU12IW(5, 0x8),
				insts.EncodeLoad(insts.OpLDB, 4, 5, 0),
				insts.EncodeLoad(insts.OpLDBU, 6, 5, 0),
			)

			e.Step()
			result := e.Step()
			e.Step()

			ld, ok := result.Retired.Load()
			Expect(ok).To(BeTrue())
			Expect(ld.Addr).To(Equal(uint64(0x8000)))
			Expect(e.RegFile().ReadReg(4)).To(Equal(uint32(0xFFFFFF80)))
			Expect(e.RegFile().ReadReg(6)).To(Equal(uint32(0x80)))
		})

		It("should follow a taken branch", func() {
			load(
				insts.EncodeBranch(insts.OpBEQ, 0, 0, 8),
				insts.EncodeADDIW(4, 0, 1),
				insts.EncodeADDIW(4, 0, 2),
			)

			result := e.Step()
			e.Step()

			Expect(result.Retired.NextPC).To(Equal(uint64(entry + 8)))
			Expect(e.RegFile().ReadReg(4)).To(Equal(uint32(2)))
		})

		It("should return zero on division by zero", func() {
			load(
				insts.EncodeADDIW(4, 0, 9),
				insts.Encode3R(insts.OpDIVW, 5, 4, 0),
			)

			e.Step()
			e.Step()

			Expect(e.RegFile().ReadReg(5)).To(Equal(uint32(0)))
		})

		It("should halt with the exit code in $a0", func() {
			load(insts.EncodeADDIW(4, 0, 3), insts.WordHALT)

			e.Step()
			result := e.Step()

			Expect(result.Exited).To(BeTrue())
			Expect(result.ExitCode).To(Equal(int64(3)))
			Expect(result.Retired.Halted).To(BeTrue())
			Expect(e.Halted()).To(BeTrue())
			Expect(e.Step().Err).To(MatchError(emu.ErrHalted))
		})

		It("should stop at the instruction limit", func() {
			e = emu.NewEmulator(emu.WithMaxInstructions(1))
			load(insts.WordNOP, insts.WordNOP)

			Expect(e.Step().Err).NotTo(HaveOccurred())
			Expect(e.Step().Err).To(HaveOccurred())
		})
	})

	Describe("Exceptions", func() {
		BeforeEach(func() {
			e.CSRFile().Set(arch.EENTRY, 0x1c008000)
		})

		It("should raise INE on an unknown encoding", func() {
			load(0xFFFFFFFF)

			result := e.Step()

			Expect(result.Retired.Exception).To(BeTrue())
			Expect(result.Retired.Ecode).To(Equal(uint8(arch.EcodeINE)))
			Expect(e.RegFile().PC).To(Equal(uint32(0x1c008000)))
			Expect(e.CSRFile().Get(arch.ERA)).To(Equal(entry))
		})

		It("should raise ALE and set BADV on a misaligned load", func() {
			load(
				insts.EncodeADDIW(5, 0, 0x101),
				insts.EncodeLoad(insts.OpLDW, 4, 5, 0),
			)

			e.Step()
			result := e.Step()

			Expect(result.Retired.Ecode).To(Equal(uint8(arch.EcodeALE)))
			Expect(e.CSRFile().Get(arch.BADV)).To(Equal(uint32(0x101)))
			Expect(result.Retired.Mem).To(BeEmpty())
		})

		It("should raise SYS without a host syscall handler", func() {
			load(insts.EncodeSYSCALL(0))

			result := e.Step()

			Expect(result.Retired.Ecode).To(Equal(uint8(arch.EcodeSYS)))
			estat := e.CSRFile().Get(arch.ESTAT)
			Expect((estat & uint32(arch.ESTATEcodeMask)) >> arch.ESTATEcodeShift).
				To(Equal(uint32(arch.EcodeSYS)))
		})

		It("should save and restore privilege state through ertn", func() {
			e.CSRFile().Set(arch.CRMD, uint32(arch.CRMDDA|arch.CRMDIE|arch.CRMDPLVMask))
			e.Memory().LoadWords(0x1c008000, insts.WordERTN)
			load(insts.EncodeBREAK(0))

			e.Step()
			Expect(e.CSRFile().Get(arch.CRMD) & uint32(arch.CRMDPLVMask|arch.CRMDIE)).
				To(Equal(uint32(0)))
			Expect(e.CSRFile().Get(arch.PRMD)).To(Equal(uint32(0x7)))

			e.Step()
			Expect(e.RegFile().PC).To(Equal(entry))
			Expect(e.CSRFile().Get(arch.CRMD) & 0x7).To(Equal(uint32(0x7)))
		})

		It("should enter the handler on an injected interrupt", func() {
			e.LoadProgram(entry, []byte{0x00, 0x00, 0x40, 0x03})

			e.RaiseInterrupt(2)

			Expect(e.RegFile().PC).To(Equal(uint32(0x1c008000)))
			Expect(e.CSRFile().Get(arch.ESTAT) & 0x4).To(Equal(uint32(0x4)))
			Expect(e.CSRFile().Get(arch.ERA)).To(Equal(entry))
		})
	})

	Describe("CSR instructions", func() {
		It("should swap values with csrwr", func() {
			load(
				insts.EncodeADDIW(4, 0, 0x55),
				insts.EncodeCSR(4, 1, uint16(arch.SAVE0.Number())),
			)

			e.Step()
			result := e.Step()

			Expect(e.CSRFile().Get(arch.SAVE0)).To(Equal(uint32(0x55)))
			Expect(result.Retired.Wen).To(BeTrue())
			Expect(result.Retired.Wdata).To(Equal(uint64(0)))
			Expect(e.RegFile().ReadReg(4)).To(Equal(uint32(0)))
		})

		It("should write only masked bits with csrxchg", func() {
			e.CSRFile().Set(arch.SAVE1, 0xF0F0)
			load(
				insts.EncodeADDIW(4, 0, 0x0FF),
				insts.EncodeADDIW(5, 0, 0x00F),
				insts.EncodeCSR(4, 5, uint16(arch.SAVE1.Number())),
			)

			e.Step()
			e.Step()
			e.Step()

			Expect(e.CSRFile().Get(arch.SAVE1)).To(Equal(uint32(0xF0FF)))
			Expect(e.RegFile().ReadReg(4)).To(Equal(uint32(0xF0F0)))
		})
	})

	Describe("Host syscalls", func() {
		It("should print through write and exit", func() {
			e = emu.NewEmulator(emu.WithStdout(stdoutBuf), emu.WithHostSyscalls())
			e.Memory().LoadProgram(0x8000, []byte("ok\n"))
			load(
				insts.EncodeADDIW(emu.RegA7, 0, int32(emu.SyscallWrite)),
				insts.EncodeADDIW(emu.RegA0, 0, 1),
				insts.EncodeLU12IW(emu.RegA0+1, 0x8),
				insts.EncodeADDIW(emu.RegA0+2, 0, 3),
				insts.EncodeSYSCALL(0),
				insts.EncodeADDIW(emu.RegA7, 0, int32(emu.SyscallExit)),
				insts.EncodeADDIW(emu.RegA0, 0, 0),
				insts.EncodeSYSCALL(0),
			)

			Expect(e.Run()).To(Equal(int64(0)))
			Expect(stdoutBuf.String()).To(Equal("ok\n"))
		})
	})

	Describe("Reference model interface", func() {
		It("should snapshot and restore state", func() {
			load(insts.EncodeADDIW(4, 0, 9))
			r, err := e.Exec()
			Expect(err).NotTo(HaveOccurred())
			Expect(r.State.GPR[4]).To(Equal(uint64(9)))
			Expect(r.State.PC).To(Equal(uint64(entry + 4)))

			other := emu.NewEmulator()
			other.Restore(r.State)

			Expect(other.Snapshot()).To(Equal(r.State))
		})

		It("should redirect and patch registers", func() {
			e.SetPC(0x2000)
			e.SetGPR(7, 0x1_0000_0001)
			e.SetGPR(0, 5)

			Expect(e.PC()).To(Equal(uint64(0x2000)))
			Expect(e.RegFile().ReadReg(7)).To(Equal(uint32(1)))
			Expect(e.RegFile().ReadReg(0)).To(Equal(uint32(0)))
		})
	})
})
