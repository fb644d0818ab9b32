// Package emu provides functional LA32R emulation.
package emu

import "io"

// LoongArch Linux syscall numbers (generic table).
const (
	SyscallRead  uint32 = 63 // read(fd, buf, count)
	SyscallWrite uint32 = 64 // write(fd, buf, count)
	SyscallExit  uint32 = 93 // exit(status)
)

// Linux error codes.
const (
	EBADF  = 9  // Bad file descriptor
	ENOSYS = 38 // Function not implemented
	EIO    = 5  // I/O error
)

// SyscallResult represents the result of a syscall execution.
type SyscallResult struct {
	// Exited is true if the syscall caused program termination.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64
}

// SyscallHandler services syscall instructions on the host instead of
// raising the architectural SYS exception. It is used to run user-level
// programs without an operating system.
type SyscallHandler interface {
	// Handle executes the syscall indicated by the register file state.
	// LoongArch Linux syscall convention:
	//   - Syscall number in $a7 (r11)
	//   - Arguments in $a0-$a5 (r4-r9)
	//   - Return value in $a0
	Handle() SyscallResult
}

// DefaultSyscallHandler provides read, write and exit.
type DefaultSyscallHandler struct {
	regFile *RegFile
	memory  *Memory
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// NewDefaultSyscallHandler creates a default syscall handler.
func NewDefaultSyscallHandler(regFile *RegFile, memory *Memory, stdout, stderr io.Writer) *DefaultSyscallHandler {
	return &DefaultSyscallHandler{
		regFile: regFile,
		memory:  memory,
		stdout:  stdout,
		stderr:  stderr,
	}
}

// SetStdin sets the stdin reader for the syscall handler.
func (h *DefaultSyscallHandler) SetStdin(stdin io.Reader) {
	h.stdin = stdin
}

// Handle executes the syscall indicated by the register file state.
func (h *DefaultSyscallHandler) Handle() SyscallResult {
	switch h.regFile.ReadReg(RegA7) {
	case SyscallRead:
		return h.handleRead()
	case SyscallWrite:
		return h.handleWrite()
	case SyscallExit:
		return SyscallResult{
			Exited:   true,
			ExitCode: int64(int32(h.regFile.ReadReg(RegA0))),
		}
	default:
		h.setError(ENOSYS)
		return SyscallResult{}
	}
}

// handleRead handles the read syscall (63). Only stdin is supported.
func (h *DefaultSyscallHandler) handleRead() SyscallResult {
	fd := h.regFile.ReadReg(RegA0)
	bufPtr := h.regFile.ReadReg(RegA0 + 1)
	count := h.regFile.ReadReg(RegA0 + 2)

	if fd != 0 {
		h.setError(EBADF)
		return SyscallResult{}
	}

	if h.stdin == nil {
		h.regFile.WriteReg(RegA0, 0)
		return SyscallResult{}
	}

	buf := make([]byte, count)
	n, err := h.stdin.Read(buf)
	if err != nil && n == 0 {
		h.regFile.WriteReg(RegA0, 0)
		return SyscallResult{}
	}

	for i := 0; i < n; i++ {
		h.memory.Write8(bufPtr+uint32(i), buf[i])
	}

	h.regFile.WriteReg(RegA0, uint32(n))
	return SyscallResult{}
}

// handleWrite handles the write syscall (64).
func (h *DefaultSyscallHandler) handleWrite() SyscallResult {
	fd := h.regFile.ReadReg(RegA0)
	bufPtr := h.regFile.ReadReg(RegA0 + 1)
	count := h.regFile.ReadReg(RegA0 + 2)

	var writer io.Writer
	switch fd {
	case 1:
		writer = h.stdout
	case 2:
		writer = h.stderr
	default:
		h.setError(EBADF)
		return SyscallResult{}
	}

	buf := make([]byte, count)
	for i := uint32(0); i < count; i++ {
		buf[i] = h.memory.Read8(bufPtr + i)
	}

	n, err := writer.Write(buf)
	if err != nil {
		h.setError(EIO)
		return SyscallResult{}
	}

	h.regFile.WriteReg(RegA0, uint32(n))
	return SyscallResult{}
}

// setError sets $a0 to -errno (as two's complement).
func (h *DefaultSyscallHandler) setError(errno int) {
	h.regFile.WriteReg(RegA0, uint32(-int32(errno)))
}
