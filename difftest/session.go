package difftest

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/difftest/arch"
)

// SessionState is the state of a Session.
type SessionState int

// Session states. Completed, Diverged and Aborted are sticky until the next
// Init.
const (
	StateUninit SessionState = iota
	StateRunning
	StateCompleted
	StateDiverged
	StateAborted
)

func (s SessionState) String() string {
	switch s {
	case StateUninit:
		return "Uninit"
	case StateRunning:
		return "Running"
	case StateCompleted:
		return "Completed"
	case StateDiverged:
		return "Diverged"
	case StateAborted:
		return "Aborted"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Status is returned by Step. Any non-zero status asks the simulator to halt.
type Status int

// Step results.
const (
	StatusRunning Status = iota
	StatusDiverged
	StatusCompleted
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusDiverged:
		return "diverged"
	case StatusCompleted:
		return "completed"
	case StatusAborted:
		return "aborted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Hook positions invoked by a Session.
var (
	// HookPosCommitChecked is invoked after a commit matched the reference
	// model. Item is the InstrCommit, Detail the arch.Retired.
	HookPosCommitChecked = &sim.HookPos{Name: "Difftest Commit Checked"}

	// HookPosCommitSkipped is invoked for a commit excluded from comparison.
	HookPosCommitSkipped = &sim.HookPos{Name: "Difftest Commit Skipped"}

	// HookPosDivergence is invoked once with the *DivergenceReport.
	HookPosDivergence = &sim.HookPos{Name: "Difftest Divergence"}

	// HookPosTrap is invoked when a core traps. Item is the TrapRecord.
	HookPosTrap = &sim.HookPos{Name: "Difftest Trap"}
)

// CoreStats holds per-core counters.
type CoreStats struct {
	Checked         uint64
	Skipped         uint64
	ExtensionEvents uint64
}

// Session checks the event stream of a hardware simulation against one
// reference model per core. It is driven by a single caller: Submit for
// each event of a cycle, then Step at the cycle boundary.
type Session struct {
	*sim.HookableBase

	id        string
	config    *Config
	newOracle OracleFactory
	log       logr.Logger

	state  SessionState
	cycle  uint64
	cores  []*coreTracker
	cmp    comparator
	report *DivergenceReport
	err    error
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithConfig sets the session configuration.
func WithConfig(c *Config) SessionOption {
	return func(s *Session) {
		s.config = c.Clone()
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logr.Logger) SessionOption {
	return func(s *Session) {
		s.log = log
	}
}

// NewSession creates an uninitialized session. newOracle builds the
// reference model of each core on Init.
func NewSession(newOracle OracleFactory, opts ...SessionOption) *Session {
	s := &Session{
		HookableBase: sim.NewHookableBase(),
		id:           sim.GetIDGenerator().Generate(),
		config:       DefaultConfig(),
		newOracle:    newOracle,
		log:          logr.Discard(),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithValues("session", s.id)

	return s
}

// Init (re)starts the session: it creates the trackers and reference models
// of all cores and clears any previous result.
func (s *Session) Init() error {
	s.state = StateUninit
	s.cycle = 0
	s.cores = nil
	s.report = nil
	s.err = nil

	if err := s.config.Validate(); err != nil {
		s.err = fmt.Errorf("invalid difftest config: %w", err)
		return s.err
	}

	cores := make([]*coreTracker, s.config.NumCores)
	for i := range cores {
		o, err := s.newOracle(CoreID(i))
		if err != nil {
			s.err = fmt.Errorf("failed to create reference model for core %d: %w", i, err)
			return s.err
		}

		t := newCoreTracker(CoreID(i), s.config.CommitWidth, newRefModel(o))
		t.state = o.Snapshot()
		cores[i] = t
	}

	s.cores = cores
	s.cmp = newComparator(s.config)
	s.state = StateRunning
	s.log.V(1).Info("session initialized",
		"cores", s.config.NumCores, "commitWidth", s.config.CommitWidth)

	return nil
}

// Step processes the cycle boundary. All cores' staged events are applied
// before any core is compared.
func (s *Session) Step() Status {
	switch s.state {
	case StateRunning:
	case StateUninit:
		_ = s.abort(&ProtocolError{Event: "step", Err: ErrNotInitialized})
		return StatusAborted
	default:
		return s.status()
	}

	s.cycle++

	works := make([]cycleWork, len(s.cores))
	for i, t := range s.cores {
		w, err := t.apply()
		if err != nil {
			var pe *ProtocolError
			if errors.As(err, &pe) {
				pe.Cycle = s.cycle
			}
			_ = s.abort(err)
			return StatusAborted
		}
		works[i] = w
	}

	for i, t := range s.cores {
		if r := s.check(t, &works[i]); r != nil {
			s.diverge(t, r)
			return StatusDiverged
		}
	}

	if r := s.checkTimeout(); r != nil {
		s.diverge(s.cores[r.Core], r)
		return StatusDiverged
	}

	for _, t := range s.cores {
		if !t.frozen {
			return StatusRunning
		}
	}

	s.state = StateCompleted
	s.log.Info("all cores trapped", "cycle", s.cycle)
	return StatusCompleted
}

// check runs the comparisons of one core for one cycle.
func (s *Session) check(t *coreTracker, w *cycleWork) *DivergenceReport {
	for _, intr := range w.intrs {
		s.log.V(2).Info("interrupt", "core", t.id, "irq", intr.IntrNo, "pc", intr.ExceptionPC)
		t.ref.RaiseInterrupt(intr.ExceptionPC, uint32(intr.IntrNo))
	}

	var (
		retired = make(map[uint8]arch.Retired, len(w.commits))
		halt    *arch.Retired
	)
	for _, slot := range w.commits {
		t.instrCount++

		if slot.Skip {
			if pc := t.ref.PC(); slot.PC != pc {
				return s.newReport(t, slot, &mismatch{
					kind:     ArchDivergence,
					field:    "pc",
					expected: pc,
					actual:   slot.PC,
					detail:   "skipped instruction",
				})
			}
			t.ref.Skip(slot)
			s.invoke(HookPosCommitSkipped, slot, nil)
			continue
		}

		r, err := t.ref.StepOne()
		if err != nil {
			return s.newReport(t, slot, &mismatch{
				kind:     ReferenceModelError,
				field:    "oracle",
				expected: t.ref.oracle.PC(),
				actual:   slot.PC,
				detail:   err.Error(),
			})
		}
		if r.Halted && !w.trapped {
			return s.newReport(t, slot, &mismatch{
				kind:     ReferenceModelError,
				field:    "halt",
				expected: r.ExitCode,
				detail:   "reference model halted on a committed instruction",
			})
		}

		if m := s.cmp.compare(slot, r); m != nil {
			return s.newReport(t, slot, m)
		}

		retired[slot.Index] = r
		if r.Halted {
			halt = &r
		}
		s.invoke(HookPosCommitChecked, slot, r)
	}

	if w.trapped {
		if m := checkTrap(t.trap, halt); m != nil {
			return s.newReport(t, s.trapSlot(t, w), m)
		}
	}

	if r := s.checkMemory(t, w, retired); r != nil {
		return r
	}

	if len(w.commits) > 0 {
		ref := t.ref.State()
		if m := s.cmp.compareSnapshots(w, &t.state, &ref); m != nil {
			return s.newReport(t, w.commits[len(w.commits)-1], m)
		}
	}

	if w.trapped {
		s.log.Info("core trapped",
			"core", t.id, "code", t.trap.Code, "pc", t.trap.PC,
			"cycles", t.trap.CycleCnt, "instrs", t.trap.InstrCnt)
		s.invoke(HookPosTrap, t.trap, t.id)
	}

	return nil
}

// checkMemory cross-checks the cycle's memory events against the reference
// model's trace of the matching commit. Skipped commits are not checked.
func (s *Session) checkMemory(
	t *coreTracker,
	w *cycleWork,
	retired map[uint8]arch.Retired,
) *DivergenceReport {
	if !s.config.CheckMemory {
		return nil
	}

	for _, ev := range w.stores {
		r, ok := retired[ev.Index]
		if !ok {
			continue
		}
		if m := checkStore(ev, r); m != nil {
			return s.newReport(t, w.slot(ev.Index), m)
		}
	}

	for _, slot := range w.commits {
		r, ok := retired[slot.Index]
		if !ok {
			continue
		}
		if m := checkStoreReported(w.stores, slot.Index, r); m != nil {
			return s.newReport(t, slot, m)
		}
	}

	for _, ev := range w.loads {
		r, ok := retired[ev.Index]
		if !ok {
			continue
		}
		if m := checkLoad(ev, r); m != nil {
			return s.newReport(t, w.slot(ev.Index), m)
		}
	}

	return nil
}

func (s *Session) checkTimeout() *DivergenceReport {
	timeout := s.config.CommitTimeout
	if timeout == 0 {
		return nil
	}

	for _, t := range s.cores {
		if t.frozen || t.idle < timeout {
			continue
		}
		return &DivergenceReport{
			Kind:       ArchDivergence,
			Core:       t.id,
			Cycle:      s.cycle,
			InstrCount: t.instrCount,
			PC:         t.state.PC,
			Field:      "commit.timeout",
			Expected:   timeout,
			Actual:     t.idle,
			Detail:     fmt.Sprintf("no commit for %d cycles", t.idle),
		}
	}

	return nil
}

// trapSlot names the commit a trap mismatch is reported against: the last
// commit of the cycle, or the trapping PC when the cycle had none.
func (s *Session) trapSlot(t *coreTracker, w *cycleWork) InstrCommit {
	if n := len(w.commits); n > 0 {
		return w.commits[n-1]
	}
	return InstrCommit{Core: t.id, Valid: true, PC: t.trap.PC}
}

func (s *Session) newReport(t *coreTracker, slot InstrCommit, m *mismatch) *DivergenceReport {
	return &DivergenceReport{
		Kind:       m.kind,
		Core:       t.id,
		Cycle:      s.cycle,
		InstrCount: t.instrCount,
		PC:         slot.PC,
		Instr:      slot.Instr,
		Field:      m.field,
		Expected:   m.expected,
		Actual:     m.actual,
		Detail:     m.detail,
	}
}

func (s *Session) diverge(t *coreTracker, r *DivergenceReport) {
	s.state = StateDiverged
	s.report = r

	ref := t.ref.State()
	s.log.Error(r, "divergence detected",
		"core", r.Core, "field", r.Field,
		"state", cmp.Diff(ref, t.state))
	s.invoke(HookPosDivergence, r, nil)
}

func (s *Session) abort(err error) error {
	s.state = StateAborted
	s.err = err
	s.log.Error(err, "session aborted")
	return err
}

func (s *Session) invoke(pos *sim.HookPos, item, detail interface{}) {
	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(sim.HookCtx{
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}

func (s *Session) status() Status {
	switch s.state {
	case StateRunning:
		return StatusRunning
	case StateDiverged:
		return StatusDiverged
	case StateCompleted:
		return StatusCompleted
	default:
		return StatusAborted
	}
}

// ID returns the unique session ID.
func (s *Session) ID() string {
	return s.id
}

// Config returns the session configuration.
func (s *Session) Config() *Config {
	return s.config
}

// State returns the session state.
func (s *Session) State() SessionState {
	return s.state
}

// Report returns the divergence report, or nil.
func (s *Session) Report() *DivergenceReport {
	return s.report
}

// Err returns the error that ended the session: the divergence report, the
// protocol error or the Init failure.
func (s *Session) Err() error {
	if s.report != nil {
		return s.report
	}
	return s.err
}

// Cycle returns the number of processed cycle boundaries.
func (s *Session) Cycle() uint64 {
	return s.cycle
}

// NumCores returns the number of tracked cores.
func (s *Session) NumCores() int {
	return len(s.cores)
}

func (s *Session) core(core CoreID) (*coreTracker, bool) {
	if int(core) >= len(s.cores) {
		return nil, false
	}
	return s.cores[core], true
}

// ArchState returns the hardware-reported architectural state of a core.
// Its PC is that of the last committed instruction.
func (s *Session) ArchState(core CoreID) (arch.State, bool) {
	t, ok := s.core(core)
	if !ok {
		return arch.State{}, false
	}
	return t.state, true
}

// RefState returns the reference model state of a core.
func (s *Session) RefState(core CoreID) (arch.State, bool) {
	t, ok := s.core(core)
	if !ok {
		return arch.State{}, false
	}
	return t.ref.State(), true
}

// Trap returns the trap record of a core. Valid is false until it traps.
func (s *Session) Trap(core CoreID) TrapRecord {
	t, ok := s.core(core)
	if !ok {
		return TrapRecord{}
	}
	return t.trap
}

// ExitCode returns the trap code of a core that trapped.
func (s *Session) ExitCode(core CoreID) (uint8, bool) {
	trap := s.Trap(core)
	return trap.Code, trap.Valid
}

// InstrCount returns the number of commits processed for a core, skipped
// ones included.
func (s *Session) InstrCount(core CoreID) uint64 {
	t, ok := s.core(core)
	if !ok {
		return 0
	}
	return t.instrCount
}

// Stats returns the counters of a core.
func (s *Session) Stats(core CoreID) CoreStats {
	t, ok := s.core(core)
	if !ok {
		return CoreStats{}
	}
	return CoreStats{
		Checked:         t.ref.steps,
		Skipped:         t.ref.skips,
		ExtensionEvents: t.extEvents,
	}
}
