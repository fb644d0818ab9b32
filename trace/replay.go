package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-logr/logr"

	"github.com/sarchlab/difftest/arch"
	"github.com/sarchlab/difftest/dpic"
)

// ErrBadRecord is returned for a record that cannot be replayed.
var ErrBadRecord = errors.New("bad trace record")

// Result summarizes a replay.
type Result struct {
	// Status is the last status returned by the replayed port.
	Status int
	// Recorded is the status the recording saw at the same call.
	Recorded int
	// Cycles is the number of steps replayed.
	Cycles uint64
	// Records is the number of records replayed.
	Records int
}

// Matches reports whether the replay ended with the recorded status.
func (r Result) Matches() bool {
	return r.Status == r.Recorded
}

// Player replays a trace into a port.
type Player struct {
	dec  *json.Decoder
	port dpic.Port
	log  logr.Logger
}

// PlayerOption is a functional option for configuring the Player.
type PlayerOption func(*Player)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) PlayerOption {
	return func(p *Player) {
		p.log = log
	}
}

// NewPlayer creates a player reading records from r.
func NewPlayer(r io.Reader, port dpic.Port, opts ...PlayerOption) *Player {
	p := &Player{
		dec:  json.NewDecoder(r),
		port: port,
		log:  logr.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run replays records until the trace ends or the port returns a non-zero
// status from Init or Step.
func (p *Player) Run() (Result, error) {
	var res Result

	for {
		var rec Record
		err := p.dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("record %d: %w", res.Records+1, err)
		}
		res.Records++

		status, returned, err := p.play(rec)
		if err != nil {
			return res, fmt.Errorf("record %d: %w", res.Records, err)
		}
		if !returned {
			continue
		}

		res.Status = status
		res.Recorded = rec.Status
		if rec.Call == CallStep {
			res.Cycles++
		}
		if status != rec.Status {
			p.log.Info("status differs from recording",
				"call", string(rec.Call), "cycle", res.Cycles,
				"recorded", rec.Status, "replayed", status)
		}
		if status != 0 {
			return res, nil
		}
	}
}

// play issues one record. returned is set for calls that return a status.
func (p *Player) play(rec Record) (status int, returned bool, err error) {
	w := dpic.Narrow

	switch rec.Call {
	case CallInit:
		return p.port.Init(), true, nil
	case CallStep:
		return p.port.Step(), true, nil
	case CallInstrCommit:
		p.port.InstrCommit(rec.Core, rec.Index, rec.Valid, w(rec.PC), w(rec.Instr),
			rec.Skip, rec.Wen, rec.Wdest, w(rec.Wdata))
	case CallTrapEvent:
		p.port.TrapEvent(rec.Core, rec.Valid, rec.Code, w(rec.PC), w(rec.CycleCnt), w(rec.InstrCnt))
	case CallCSRState:
		var csr [arch.NumCSRs]dpic.Word
		if err := fill(csr[:], rec.Regs); err != nil {
			return 0, false, err
		}
		dpic.SendCSRs(p.port, rec.Core, csr)
	case CallIntRegState:
		var gpr [arch.NumGPRs]dpic.Word
		if err := fill(gpr[:], rec.Regs); err != nil {
			return 0, false, err
		}
		p.port.ArchIntRegState(rec.Core, gpr)
	case CallFpRegState:
		var fpr [arch.NumFPRs]dpic.Word
		if err := fill(fpr[:], rec.Regs); err != nil {
			return 0, false, err
		}
		p.port.ArchFpRegState(rec.Core, fpr)
	case CallStoreEvent:
		p.port.StoreEvent(rec.Core, rec.Index, rec.Valid, w(rec.Addr), w(rec.Data), rec.Mask)
	case CallLoadEvent:
		p.port.LoadEvent(rec.Core, rec.Index, rec.Valid, w(rec.Addr), rec.OpType, rec.FuType)
	case CallArchEvent:
		p.port.ArchEvent(rec.Core, w(rec.IntrNo), w(rec.Cause), w(rec.PC))
	default:
		return 0, false, fmt.Errorf("%w: unknown call %q", ErrBadRecord, rec.Call)
	}

	return 0, false, nil
}

func fill(dst []dpic.Word, regs []uint64) error {
	if len(regs) != len(dst) {
		return fmt.Errorf("%w: %d registers, want %d", ErrBadRecord, len(regs), len(dst))
	}
	for i, v := range regs {
		dst[i] = dpic.Narrow(v)
	}
	return nil
}
