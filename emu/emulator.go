// Package emu provides functional LA32R emulation.
package emu

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/difftest/arch"
	"github.com/sarchlab/difftest/insts"
)

// ErrHalted is returned when stepping an emulator that already executed its
// halt instruction.
var ErrHalted = errors.New("emulator halted")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if the program terminated (halt trap or exit syscall).
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64

	// Err is set if an error occurred during execution.
	Err error

	// Retired describes the executed instruction.
	Retired arch.Retired
}

// Emulator executes LA32R instructions functionally.
type Emulator struct {
	regFile        *RegFile
	csrFile        *CSRFile
	memory         *Memory
	decoder        *insts.Decoder
	syscallHandler SyscallHandler

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit

	// I/O
	stdout io.Writer
	stderr io.Writer

	// Execution state
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
	hostSyscalls     bool
	halted           bool
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stdout = w
	}
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stderr = w
	}
}

// WithSyscallHandler services syscall instructions with a custom handler
// instead of raising the SYS exception.
func WithSyscallHandler(handler SyscallHandler) EmulatorOption {
	return func(e *Emulator) {
		e.syscallHandler = handler
		e.hostSyscalls = true
	}
}

// WithHostSyscalls services syscall instructions with the default
// read/write/exit handler instead of raising the SYS exception.
func WithHostSyscalls() EmulatorOption {
	return func(e *Emulator) {
		e.hostSyscalls = true
	}
}

// WithStackPointer sets the initial stack pointer value.
func WithStackPointer(sp uint32) EmulatorOption {
	return func(e *Emulator) {
		e.regFile.WriteReg(RegSP, sp)
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a new LA32R emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		csrFile: NewCSRFile(),
		memory:  NewMemory(),
		decoder: insts.NewDecoder(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.wireUnits()
	e.regFile.ClearWriteTrace()

	return e
}

// wireUnits (re)creates the execution units around the current register
// file and memory.
func (e *Emulator) wireUnits() {
	e.alu = NewALU(e.regFile)
	e.lsu = NewLoadStoreUnit(e.regFile, e.memory)
	e.branchUnit = NewBranchUnit(e.regFile)

	if e.hostSyscalls {
		if _, isDefault := e.syscallHandler.(*DefaultSyscallHandler); isDefault || e.syscallHandler == nil {
			e.syscallHandler = NewDefaultSyscallHandler(e.regFile, e.memory, e.stdout, e.stderr)
		}
	}
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// CSRFile returns the emulator's control/status registers.
func (e *Emulator) CSRFile() *CSRFile {
	return e.csrFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Halted reports whether the halt instruction was executed.
func (e *Emulator) Halted() bool {
	return e.halted
}

// LoadProgram loads a program into memory and sets the entry point.
// The program can be either a []byte or a *Memory.
func (e *Emulator) LoadProgram(entry uint32, program interface{}) {
	switch p := program.(type) {
	case []byte:
		e.memory.LoadProgram(entry, p)
	case *Memory:
		e.memory = p
		e.wireUnits()
	}
	e.regFile.PC = entry
}

// Reset resets the emulator to its initial state.
func (e *Emulator) Reset() {
	e.regFile = &RegFile{}
	e.csrFile.Reset()
	e.memory = NewMemory()
	e.instructionCount = 0
	e.halted = false
	e.wireUnits()
}

// Step executes a single instruction.
// Returns a StepResult indicating whether execution should continue.
func (e *Emulator) Step() StepResult {
	if e.halted {
		return StepResult{Err: ErrHalted}
	}

	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{
			Err: fmt.Errorf("max instructions reached"),
		}
	}

	pc := e.regFile.PC
	e.regFile.ClearWriteTrace()
	e.lsu.ResetTrace()

	var (
		word   uint32
		result StepResult
	)

	if !Aligned(pc, 4) {
		e.raiseException(arch.EcodeADE, pc, true)
		result.Retired.Exception = true
		result.Retired.Ecode = arch.EcodeADE
	} else {
		// 1. Fetch
		word = e.memory.Read32(pc)

		// 2. Decode
		inst := e.decoder.Decode(word)

		// 3. Execute
		result = e.execute(inst)
	}

	e.instructionCount++

	result.Retired.PC = uint64(pc)
	result.Retired.Instr = word
	result.Retired.NextPC = uint64(e.regFile.PC)
	result.Retired.Mem = e.lsu.Trace()
	if dest, ok := e.regFile.WriteTrace(); ok {
		result.Retired.Wen = true
		result.Retired.Wdest = dest
		result.Retired.Wdata = uint64(e.regFile.ReadReg(dest))
	}
	if result.Exited {
		result.Retired.Halted = true
		result.Retired.ExitCode = uint64(result.ExitCode)
	}

	return result
}

// Run executes instructions until the program exits or an error occurs.
// Returns the exit code (-1 if error).
func (e *Emulator) Run() int64 {
	for {
		result := e.Step()
		if result.Exited {
			return result.ExitCode
		}
		if result.Err != nil {
			_, _ = fmt.Fprintf(e.stderr, "Emulation error: %v\n", result.Err)
			return -1
		}
	}
}

// execute dispatches and executes a decoded instruction.
func (e *Emulator) execute(inst *insts.Instruction) StepResult {
	switch inst.Op {
	case insts.OpUnknown:
		return e.exception(arch.EcodeINE)
	case insts.OpHALT:
		e.halted = true
		return StepResult{
			Exited:   true,
			ExitCode: int64(int32(e.regFile.ReadReg(RegA0))),
		}
	case insts.OpSYSCALL:
		return e.executeSyscall()
	case insts.OpBREAK:
		return e.exception(arch.EcodeBRK)
	case insts.OpERTN:
		e.returnFromException()
		return StepResult{}
	}

	switch inst.Format {
	case insts.Format3R:
		e.alu.Exec3R(inst.Op, inst.Rd, inst.Rj, inst.Rk)
	case insts.Format2RI5:
		e.alu.ExecImm(inst.Op, inst.Rd, inst.Rj, inst.Imm)
	case insts.Format2RI12:
		if inst.IsLoad() || inst.IsStore() {
			return e.executeLoadStore(inst)
		}
		e.alu.ExecImm(inst.Op, inst.Rd, inst.Rj, inst.Imm)
	case insts.Format1RI20:
		e.execute1RI20(inst)
	case insts.FormatCSR:
		e.executeCSR(inst)
	case insts.FormatJump:
		if inst.Op == insts.OpBL {
			e.branchUnit.BL(inst.Offset)
		} else {
			e.branchUnit.B(inst.Offset)
		}
		return StepResult{} // PC already updated by branch
	case insts.FormatBranch:
		if inst.Op == insts.OpJIRL {
			e.branchUnit.JIRL(inst.Rd, inst.Rj, inst.Offset)
		} else {
			e.branchUnit.CondBranch(inst.Op, inst.Rj, inst.Rd, inst.Offset)
		}
		return StepResult{} // PC already updated by branch
	default:
		return StepResult{
			Err: fmt.Errorf("unimplemented format %d at PC=0x%X", inst.Format, e.regFile.PC),
		}
	}

	// Advance PC by 4 (for non-branch instructions)
	e.regFile.PC += 4

	return StepResult{}
}

func (e *Emulator) executeLoadStore(inst *insts.Instruction) StepResult {
	addr := uint32(int32(e.regFile.ReadReg(inst.Rj)) + inst.Imm)
	if !Aligned(addr, inst.AccessSize()) {
		e.raiseException(arch.EcodeALE, addr, true)
		return StepResult{Retired: arch.Retired{Exception: true, Ecode: arch.EcodeALE}}
	}

	if inst.IsLoad() {
		e.lsu.Load(inst.Op, inst.Rd, addr)
	} else {
		e.lsu.Store(inst.Op, inst.Rd, addr)
	}
	e.regFile.PC += 4
	return StepResult{}
}

func (e *Emulator) execute1RI20(inst *insts.Instruction) {
	switch inst.Op {
	case insts.OpLU12IW:
		e.regFile.WriteReg(inst.Rd, uint32(inst.Imm))
	case insts.OpPCADDU12I:
		e.regFile.WriteReg(inst.Rd, e.regFile.PC+uint32(inst.Imm))
	}
}

// executeCSR implements csrrd, csrwr and csrxchg. The old CSR value is
// always returned in rd.
func (e *Emulator) executeCSR(inst *insts.Instruction) {
	old := e.csrFile.Read(inst.CSR)

	switch inst.Op {
	case insts.OpCSRWR:
		e.csrFile.Write(inst.CSR, e.regFile.ReadReg(inst.Rd), 0xFFFFFFFF)
	case insts.OpCSRXCHG:
		e.csrFile.Write(inst.CSR, e.regFile.ReadReg(inst.Rd), e.regFile.ReadReg(inst.Rj))
	}

	e.regFile.WriteReg(inst.Rd, old)
}

func (e *Emulator) executeSyscall() StepResult {
	if !e.hostSyscalls || e.syscallHandler == nil {
		return e.exception(arch.EcodeSYS)
	}

	// Advance PC first (syscall return address is next instruction)
	e.regFile.PC += 4

	syscallResult := e.syscallHandler.Handle()
	if syscallResult.Exited {
		e.halted = true
	}

	return StepResult{
		Exited:   syscallResult.Exited,
		ExitCode: syscallResult.ExitCode,
	}
}

func (e *Emulator) exception(ecode uint8) StepResult {
	e.raiseException(ecode, 0, false)
	return StepResult{Retired: arch.Retired{Exception: true, Ecode: ecode}}
}
