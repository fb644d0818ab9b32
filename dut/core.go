// Package dut provides an emulated hardware core that reports its
// execution through the difftest call boundary. It stands in for an RTL
// simulation: instructions retire in commit groups with per-class latency,
// and faults can be injected into what the core reports.
package dut

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/difftest/arch"
	"github.com/sarchlab/difftest/dpic"
	"github.com/sarchlab/difftest/emu"
	"github.com/sarchlab/difftest/insts"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Stalls is the number of cycles without a commit.
	Stalls uint64
	// Skipped is the number of commits reported with the skip flag.
	Skipped uint64
	// Faults is the number of injected faults that fired.
	Faults uint64

	// Cache holds data cache statistics when a data cache is attached.
	Cache CacheStats
}

// SkipFunc decides whether a retired instruction is reported as skipped.
type SkipFunc func(inst *insts.Instruction) bool

// SkipTimerReads marks reads of the timer CSRs as skipped. Their values
// depend on the core's timing.
func SkipTimerReads(inst *insts.Instruction) bool {
	if inst.Op != insts.OpCSRRD {
		return false
	}
	csr, ok := arch.CSRByNumber(inst.CSR)
	return ok && (csr == arch.TVAL || csr == arch.TCFG)
}

// Core is an emulated hardware core.
type Core struct {
	id      uint8
	emu     *emu.Emulator
	decoder *insts.Decoder
	port    dpic.Port
	latency *Table
	dcache  *DataCache
	width   int
	log     logr.Logger

	skip      SkipFunc
	faults    []Fault
	snapshots bool

	stall    uint64
	halted   bool
	exitCode int64
	err      error
	stats    Stats
}

// CoreOption is a functional option for configuring the Core.
type CoreOption func(*Core)

// WithCommitConfig sets the commit width.
func WithCommitConfig(config CommitConfig) CoreOption {
	return func(c *Core) {
		c.width = config.Width
	}
}

// WithTimingConfig sets the retirement latencies.
func WithTimingConfig(config *TimingConfig) CoreOption {
	return func(c *Core) {
		c.latency = NewTableWithConfig(config)
	}
}

// WithDataCache charges loads and stores with the hit/miss latency of a
// data cache instead of the flat load/store latency.
func WithDataCache(config CacheConfig) CoreOption {
	return func(c *Core) {
		c.dcache = NewDataCache(config)
	}
}

// WithSkip sets the skip predicate.
func WithSkip(skip SkipFunc) CoreOption {
	return func(c *Core) {
		c.skip = skip
	}
}

// WithFaults injects faults into the reported events.
func WithFaults(faults ...Fault) CoreOption {
	return func(c *Core) {
		c.faults = append(c.faults, faults...)
	}
}

// WithSnapshots makes the core report its register and CSR files after
// every cycle with a commit.
func WithSnapshots() CoreOption {
	return func(c *Core) {
		c.snapshots = true
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) CoreOption {
	return func(c *Core) {
		c.log = log
	}
}

// NewCore creates a core that executes on e and reports to port as core id.
func NewCore(id uint8, e *emu.Emulator, port dpic.Port, opts ...CoreOption) *Core {
	c := &Core{
		id:      id,
		emu:     e,
		decoder: insts.NewDecoder(),
		port:    port,
		latency: NewTable(),
		width:   DefaultCommitConfig().Width,
		log:     logr.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithValues("core", id)

	return c
}

// ID returns the core id.
func (c *Core) ID() uint8 {
	return c.id
}

// Halted returns true if the core has halted.
func (c *Core) Halted() bool {
	return c.halted
}

// ExitCode returns the exit code if the core has halted.
func (c *Core) ExitCode() int64 {
	return c.exitCode
}

// Err returns the execution error that stopped the core, if any.
func (c *Core) Err() error {
	return c.err
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	stats := c.stats
	if c.dcache != nil {
		stats.Cache = c.dcache.Stats()
	}
	return stats
}

// Tick simulates one cycle: it retires the next commit group, if the core
// is not stalled, and reports it through the port. The caller ends the
// cycle with Port.Step.
func (c *Core) Tick() {
	if c.halted {
		return
	}

	c.stats.Cycles++
	if c.stall > 0 {
		c.stall--
		c.stats.Stalls++
		return
	}

	var (
		group   []*insts.Instruction
		latency uint64 = 1
	)

	for index := 0; index < c.width; index++ {
		inst := c.peek()
		if index > 0 && !canCommitTogether(group, inst) {
			break
		}

		divisor := c.emu.RegFile().ReadReg(inst.Rk)
		res := c.emu.Step()
		if res.Err != nil {
			c.err = fmt.Errorf("core %d: %w", c.id, res.Err)
			c.halted = true
			c.log.Error(res.Err, "execution stopped")
			break
		}

		c.stats.Instructions++
		c.report(uint8(index), inst, res)
		group = append(group, inst)

		if l := c.retireLatency(inst, res.Retired, divisor); l > latency {
			latency = l
		}

		if res.Exited {
			c.halted = true
			c.exitCode = res.ExitCode
			c.log.V(1).Info("halted", "exitCode", res.ExitCode, "cycles", c.stats.Cycles)
			break
		}
		if inst.IsBranch() || res.Retired.Exception {
			break
		}
	}

	if c.snapshots && len(group) > 0 {
		gpr, fpr, csr := dpic.NarrowState(c.emu.Snapshot())
		c.port.ArchIntRegState(c.id, gpr)
		c.port.ArchFpRegState(c.id, fpr)
		dpic.SendCSRs(c.port, c.id, csr)
	}

	c.stall = latency - 1
}

// peek decodes the instruction at the current PC without executing it.
func (c *Core) peek() *insts.Instruction {
	return c.decoder.Decode(c.emu.Memory().Read32(uint32(c.emu.PC())))
}

func (c *Core) retireLatency(inst *insts.Instruction, r arch.Retired, divisor uint32) uint64 {
	l := c.latency.GetLatency(inst)
	if isDivide(inst.Op) {
		l = c.latency.DivideLatency(divisor)
	}
	if c.dcache != nil && len(r.Mem) > 0 {
		l = 0
		for _, m := range r.Mem {
			if a := c.dcache.Access(m.Addr, m.Kind == arch.AccessStore); a > l {
				l = a
			}
		}
	}
	if inst.IsBranch() && r.NextPC != r.PC+arch.InstrLen {
		l += c.latency.Config().TakenBranchPenalty
	}
	return l
}

// report issues the boundary calls for one retired instruction.
func (c *Core) report(index uint8, inst *insts.Instruction, res emu.StepResult) {
	r := res.Retired
	seq := c.stats.Instructions

	pc := r.PC
	wdata := r.Wdata
	store, hasStore := r.Store()
	load, hasLoad := r.Load()

	for _, f := range c.faults {
		if f.At != seq {
			continue
		}
		c.stats.Faults++
		c.log.V(1).Info("injecting fault", "kind", f.Kind.String(), "seq", seq, "pc", r.PC)

		switch f.Kind {
		case FaultWdata:
			wdata = f.flip(wdata)
		case FaultPC:
			pc = f.flip(pc)
		case FaultStoreData:
			store.Data = f.flip(store.Data)
		case FaultStoreAddr:
			store.Addr = f.flip(store.Addr)
		case FaultDropCommit:
			return
		}
	}

	skip := c.skip != nil && c.skip(inst)
	if skip {
		c.stats.Skipped++
	}

	c.port.InstrCommit(c.id, index, 1,
		dpic.Narrow(pc), dpic.Word(r.Instr),
		flag(skip), flag(r.Wen), r.Wdest, dpic.Narrow(wdata))

	if hasStore {
		c.port.StoreEvent(c.id, index, 1,
			dpic.Narrow(store.Addr), dpic.Narrow(store.Data), store.Mask)
	}
	if hasLoad {
		c.port.LoadEvent(c.id, index, 1, dpic.Narrow(load.Addr), uint8(inst.Op), 0)
	}

	if res.Exited {
		c.port.TrapEvent(c.id, 1, uint8(res.ExitCode), dpic.Narrow(r.PC),
			dpic.Narrow(c.stats.Cycles), dpic.Narrow(c.stats.Instructions))
	}
}

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
