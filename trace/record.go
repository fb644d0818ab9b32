// Package trace records the calls crossing the difftest boundary as JSON
// lines and replays them into another boundary. A recording taken from a
// failing simulation reproduces the divergence without the simulator.
package trace

import (
	"encoding/json"
	"io"

	"github.com/sarchlab/difftest/arch"
	"github.com/sarchlab/difftest/dpic"
)

// Call names one boundary call.
type Call string

// Boundary calls.
const (
	CallInit        Call = "init"
	CallStep        Call = "step"
	CallInstrCommit Call = "instr_commit"
	CallTrapEvent   Call = "trap_event"
	CallCSRState    Call = "csr_state"
	CallIntRegState Call = "int_reg_state"
	CallFpRegState  Call = "fp_reg_state"
	CallStoreEvent  Call = "store_event"
	CallLoadEvent   Call = "load_event"
	CallArchEvent   Call = "arch_event"
)

// Record is one line of a trace. Only the fields of its call are set.
type Record struct {
	Call Call  `json:"call"`
	Core uint8 `json:"core,omitempty"`

	Index  uint8 `json:"index,omitempty"`
	Valid  uint8 `json:"valid,omitempty"`
	Skip   uint8 `json:"skip,omitempty"`
	Wen    uint8 `json:"wen,omitempty"`
	Wdest  uint8 `json:"wdest,omitempty"`
	Code   uint8 `json:"code,omitempty"`
	Mask   uint8 `json:"mask,omitempty"`
	OpType uint8 `json:"op_type,omitempty"`
	FuType uint8 `json:"fu_type,omitempty"`

	PC       uint64 `json:"pc,omitempty"`
	Instr    uint64 `json:"instr,omitempty"`
	Wdata    uint64 `json:"wdata,omitempty"`
	Addr     uint64 `json:"addr,omitempty"`
	Data     uint64 `json:"data,omitempty"`
	CycleCnt uint64 `json:"cycle_cnt,omitempty"`
	InstrCnt uint64 `json:"instr_cnt,omitempty"`
	IntrNo   uint64 `json:"intr_no,omitempty"`
	Cause    uint64 `json:"cause,omitempty"`

	// Regs holds the register or CSR file of a snapshot call, in
	// declaration order.
	Regs []uint64 `json:"regs,omitempty"`

	// Status is the value returned by init or step.
	Status int `json:"status,omitempty"`
}

// Recorder is a dpic.Port that writes every call to a trace before
// forwarding it.
type Recorder struct {
	next dpic.Port
	enc  *json.Encoder
	err  error
	n    int
}

// NewRecorder creates a recorder writing to w and forwarding to next.
func NewRecorder(w io.Writer, next dpic.Port) *Recorder {
	return &Recorder{next: next, enc: json.NewEncoder(w)}
}

// Err returns the first write error. Calls keep being forwarded after a
// write fails.
func (r *Recorder) Err() error {
	return r.err
}

// Records returns the number of records written.
func (r *Recorder) Records() int {
	return r.n
}

func (r *Recorder) write(rec Record) {
	if r.err != nil {
		return
	}
	if r.err = r.enc.Encode(rec); r.err == nil {
		r.n++
	}
}

func words[T ~uint32 | ~uint64](regs []T) []uint64 {
	out := make([]uint64, len(regs))
	for i, v := range regs {
		out[i] = uint64(v)
	}
	return out
}

// Init forwards and records Init.
func (r *Recorder) Init() int {
	status := r.next.Init()
	r.write(Record{Call: CallInit, Status: status})
	return status
}

// Step forwards and records Step.
func (r *Recorder) Step() int {
	status := r.next.Step()
	r.write(Record{Call: CallStep, Status: status})
	return status
}

// InstrCommit forwards and records InstrCommit.
func (r *Recorder) InstrCommit(
	coreid, index, valid uint8,
	pc, instr dpic.Word,
	skip, wen, wdest uint8,
	wdata dpic.Word,
) {
	r.write(Record{
		Call: CallInstrCommit, Core: coreid, Index: index, Valid: valid,
		PC: uint64(pc), Instr: uint64(instr),
		Skip: skip, Wen: wen, Wdest: wdest, Wdata: uint64(wdata),
	})
	r.next.InstrCommit(coreid, index, valid, pc, instr, skip, wen, wdest, wdata)
}

// TrapEvent forwards and records TrapEvent.
func (r *Recorder) TrapEvent(coreid, valid, code uint8, pc, cycleCnt, instrCnt dpic.Word) {
	r.write(Record{
		Call: CallTrapEvent, Core: coreid, Valid: valid, Code: code,
		PC: uint64(pc), CycleCnt: uint64(cycleCnt), InstrCnt: uint64(instrCnt),
	})
	r.next.TrapEvent(coreid, valid, code, pc, cycleCnt, instrCnt)
}

// CSRState forwards and records CSRState.
func (r *Recorder) CSRState(coreid uint8,
	crmd, prmd, euen, ecfg, estat, era, badv, eentry,
	tlbidx, tlbehi, tlbelo0, tlbelo1, asid, pgdl, pgdh,
	save0, save1, save2, save3, tid, tcfg, tval, ticlr,
	llbctl, tlbrentry, dmw0, dmw1 dpic.Word,
) {
	csr := [arch.NumCSRs]dpic.Word{
		crmd, prmd, euen, ecfg, estat, era, badv, eentry,
		tlbidx, tlbehi, tlbelo0, tlbelo1, asid, pgdl, pgdh,
		save0, save1, save2, save3, tid, tcfg, tval, ticlr,
		llbctl, tlbrentry, dmw0, dmw1,
	}
	r.write(Record{Call: CallCSRState, Core: coreid, Regs: words(csr[:])})
	dpic.SendCSRs(r.next, coreid, csr)
}

// ArchIntRegState forwards and records ArchIntRegState.
func (r *Recorder) ArchIntRegState(coreid uint8, gpr [arch.NumGPRs]dpic.Word) {
	r.write(Record{Call: CallIntRegState, Core: coreid, Regs: words(gpr[:])})
	r.next.ArchIntRegState(coreid, gpr)
}

// ArchFpRegState forwards and records ArchFpRegState.
func (r *Recorder) ArchFpRegState(coreid uint8, fpr [arch.NumFPRs]dpic.Word) {
	r.write(Record{Call: CallFpRegState, Core: coreid, Regs: words(fpr[:])})
	r.next.ArchFpRegState(coreid, fpr)
}

// StoreEvent forwards and records StoreEvent.
func (r *Recorder) StoreEvent(coreid, index, valid uint8, addr, data dpic.Word, mask uint8) {
	r.write(Record{
		Call: CallStoreEvent, Core: coreid, Index: index, Valid: valid,
		Addr: uint64(addr), Data: uint64(data), Mask: mask,
	})
	r.next.StoreEvent(coreid, index, valid, addr, data, mask)
}

// LoadEvent forwards and records LoadEvent.
func (r *Recorder) LoadEvent(coreid, index, valid uint8, paddr dpic.Word, opType, fuType uint8) {
	r.write(Record{
		Call: CallLoadEvent, Core: coreid, Index: index, Valid: valid,
		Addr: uint64(paddr), OpType: opType, FuType: fuType,
	})
	r.next.LoadEvent(coreid, index, valid, paddr, opType, fuType)
}

// ArchEvent forwards and records ArchEvent.
func (r *Recorder) ArchEvent(coreid uint8, intrNo, cause, exceptionPC dpic.Word) {
	r.write(Record{
		Call: CallArchEvent, Core: coreid,
		IntrNo: uint64(intrNo), Cause: uint64(cause), PC: uint64(exceptionPC),
	})
	r.next.ArchEvent(coreid, intrNo, cause, exceptionPC)
}
