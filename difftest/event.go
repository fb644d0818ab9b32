package difftest

import "github.com/sarchlab/difftest/arch"

// CoreID identifies a simulated core.
type CoreID uint8

// Event is one per-cycle, per-core event reported by the hardware simulator.
// The set of variants is closed; every variant carries the core it belongs
// to.
type Event interface {
	eventCore() CoreID
	kind() string
}

// InstrCommit reports one committed instruction on one commit port.
type InstrCommit struct {
	Core  CoreID
	Index uint8
	Valid bool
	PC    uint64
	Instr uint32

	// Skip excludes the instruction from comparison. The reference model
	// still moves past it.
	Skip bool

	Wen   bool
	Wdest uint8
	Wdata uint64
}

// TrapEvent reports that a core reached its terminating trap.
type TrapEvent struct {
	Core     CoreID
	Valid    bool
	Code     uint8
	PC       uint64
	CycleCnt uint64
	InstrCnt uint64
}

// CSRState is a full control/status register snapshot, indexed by arch.CSR.
type CSRState struct {
	Core CoreID
	CSR  [arch.NumCSRs]uint64
}

// IntRegState is a full general register snapshot.
type IntRegState struct {
	Core CoreID
	GPR  [arch.NumGPRs]uint64
}

// FpRegState is a full floating-point register snapshot.
type FpRegState struct {
	Core CoreID
	FPR  [arch.NumFPRs]uint64
}

// StoreEvent reports the store performed by the commit on port Index. Data
// is already shifted into the byte lanes selected by Mask.
type StoreEvent struct {
	Core  CoreID
	Index uint8
	Valid bool
	Addr  uint64
	Data  uint64
	Mask  uint8
}

// LoadEvent reports the physical address read by the commit on port Index.
type LoadEvent struct {
	Core   CoreID
	Index  uint8
	Valid  bool
	PAddr  uint64
	OpType uint8
	FuType uint8
}

// ArchEvent reports an asynchronous event taken by the hardware. A non-zero
// IntrNo is an external interrupt taken at ExceptionPC.
type ArchEvent struct {
	Core        CoreID
	IntrNo      uint64
	Cause       uint64
	ExceptionPC uint64
}

// SbufferEvent reports a store-buffer drain to the memory system.
type SbufferEvent struct {
	Core CoreID
	Resp bool
	Addr uint64
	Data [64]uint8
	Mask uint64
}

// AtomicEvent reports an atomic memory operation.
type AtomicEvent struct {
	Core CoreID
	Resp bool
	Addr uint64
	Data uint64
	Mask uint8
	FuOp uint8
	Out  uint64
}

// PtwEvent reports a page-table-walk refill.
type PtwEvent struct {
	Core CoreID
	Resp bool
	Addr uint64
	Data [4]uint64
}

func (e InstrCommit) eventCore() CoreID  { return e.Core }
func (e TrapEvent) eventCore() CoreID    { return e.Core }
func (e CSRState) eventCore() CoreID     { return e.Core }
func (e IntRegState) eventCore() CoreID  { return e.Core }
func (e FpRegState) eventCore() CoreID   { return e.Core }
func (e StoreEvent) eventCore() CoreID   { return e.Core }
func (e LoadEvent) eventCore() CoreID    { return e.Core }
func (e ArchEvent) eventCore() CoreID    { return e.Core }
func (e SbufferEvent) eventCore() CoreID { return e.Core }
func (e AtomicEvent) eventCore() CoreID  { return e.Core }
func (e PtwEvent) eventCore() CoreID     { return e.Core }

func (InstrCommit) kind() string  { return "InstrCommit" }
func (TrapEvent) kind() string    { return "TrapEvent" }
func (CSRState) kind() string     { return "CSRState" }
func (IntRegState) kind() string  { return "ArchIntRegState" }
func (FpRegState) kind() string   { return "ArchFpRegState" }
func (StoreEvent) kind() string   { return "StoreEvent" }
func (LoadEvent) kind() string    { return "LoadEvent" }
func (ArchEvent) kind() string    { return "ArchEvent" }
func (SbufferEvent) kind() string { return "SbufferEvent" }
func (AtomicEvent) kind() string  { return "AtomicEvent" }
func (PtwEvent) kind() string     { return "PtwEvent" }
