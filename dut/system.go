package dut

import (
	"errors"

	"github.com/sarchlab/difftest/dpic"
)

// Errors returned by System.Run.
var (
	ErrInitFailed = errors.New("difftest init failed")
	ErrCycleLimit = errors.New("cycle limit reached")
)

// System drives a set of cores against one port. Every cycle ticks all
// cores, then calls Step.
type System struct {
	port  dpic.Port
	cores []*Core
}

// NewSystem creates a system.
func NewSystem(port dpic.Port, cores ...*Core) *System {
	return &System{port: port, cores: cores}
}

// Cores returns the cores of the system.
func (s *System) Cores() []*Core {
	return s.cores
}

// Run initializes the port and simulates until Step returns a non-zero
// status, which is returned. maxCycles of 0 means no limit.
func (s *System) Run(maxCycles uint64) (int, error) {
	if s.port.Init() != 0 {
		return 0, ErrInitFailed
	}

	for cycle := uint64(0); maxCycles == 0 || cycle < maxCycles; cycle++ {
		for _, c := range s.cores {
			c.Tick()
		}

		if status := s.port.Step(); status != 0 {
			return status, nil
		}

		for _, c := range s.cores {
			if c.Err() != nil {
				return 0, c.Err()
			}
		}
	}

	return 0, ErrCycleLimit
}
