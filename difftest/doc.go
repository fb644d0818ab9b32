// Package difftest checks a cycle-accurate hardware simulation of an LA32R
// core against a reference model, one committed instruction at a time.
//
// The simulator reports per-cycle events for each core (commits, register
// and CSR snapshots, memory accesses, traps) through Session.Submit and ends
// every cycle with Session.Step. At the cycle boundary the events of all
// cores are applied to per-core trackers, then each checkable commit steps
// that core's reference model once and is compared field by field. The first
// mismatch ends the session with a DivergenceReport.
//
//	s := difftest.NewSession(func(difftest.CoreID) (difftest.Oracle, error) {
//		return newReferenceModel(), nil
//	})
//	if err := s.Init(); err != nil {
//		return err
//	}
//	for {
//		for _, ev := range nextCycleEvents() {
//			_ = s.Submit(ev)
//		}
//		if s.Step() != difftest.StatusRunning {
//			break
//		}
//	}
//	return s.Err()
package difftest
