package difftest

import (
	"errors"
	"fmt"
)

// Protocol violations. They are wrapped in a *ProtocolError.
var (
	ErrNotInitialized    = errors.New("session not initialized")
	ErrCoreOutOfRange    = errors.New("core id out of range")
	ErrIndexOutOfRange   = errors.New("commit index out of range")
	ErrDuplicateIndex    = errors.New("duplicate commit index in cycle")
	ErrOrphanMemoryEvent = errors.New("memory event without a valid commit")
)

// ProtocolError reports a malformed call sequence from the harness. It aborts
// the session.
type ProtocolError struct {
	Event string
	Core  CoreID
	Cycle uint64
	Err   error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s on core %d at cycle %d: %v",
		e.Event, e.Core, e.Cycle, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// DivergenceKind classifies a DivergenceReport.
type DivergenceKind uint8

// Divergence kinds.
const (
	// ArchDivergence is a PC, register or CSR mismatch.
	ArchDivergence DivergenceKind = iota
	// MemoryDivergence is a store or load mismatch against the reference
	// model's memory trace.
	MemoryDivergence
	// ReferenceModelError means the reference model faulted where the
	// hardware committed normally.
	ReferenceModelError
)

func (k DivergenceKind) String() string {
	switch k {
	case ArchDivergence:
		return "ArchDivergence"
	case MemoryDivergence:
		return "MemoryDivergence"
	case ReferenceModelError:
		return "ReferenceModelError"
	default:
		return fmt.Sprintf("DivergenceKind(%d)", uint8(k))
	}
}

// DivergenceReport locates the first mismatch of a session. Expected is the
// reference model's value, Actual the hardware's.
type DivergenceReport struct {
	Kind       DivergenceKind
	Core       CoreID
	Cycle      uint64
	InstrCount uint64
	PC         uint64
	Instr      uint32
	Field      string
	Expected   uint64
	Actual     uint64
	Detail     string
}

func (r *DivergenceReport) Error() string {
	msg := fmt.Sprintf("%s on core %d at cycle %d (instr #%d, pc 0x%x, instr 0x%08x): %s expected 0x%x, got 0x%x",
		r.Kind, r.Core, r.Cycle, r.InstrCount, r.PC, r.Instr, r.Field, r.Expected, r.Actual)
	if r.Detail != "" {
		msg += ": " + r.Detail
	}
	return msg
}
