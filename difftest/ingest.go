package difftest

// Submit stages one event for the current cycle. Events take effect at the
// next Step. Events for a frozen core and events after the session ended are
// dropped. A protocol violation aborts the session and is returned.
func (s *Session) Submit(ev Event) error {
	switch s.state {
	case StateUninit:
		return s.abort(&ProtocolError{Event: ev.kind(), Core: ev.eventCore(), Err: ErrNotInitialized})
	case StateAborted:
		return s.err
	case StateDiverged, StateCompleted:
		return nil
	}

	core := ev.eventCore()
	if int(core) >= len(s.cores) {
		return s.abort(s.protocolError(ev, ErrCoreOutOfRange))
	}

	t := s.cores[core]
	if t.frozen {
		return nil
	}
	st := &t.staged

	switch e := ev.(type) {
	case InstrCommit:
		if err := s.checkIndex(ev, e.Index); err != nil {
			return err
		}
		if !e.Valid {
			return nil
		}
		if st.occupied[e.Index] {
			return s.abort(s.protocolError(ev, ErrDuplicateIndex))
		}
		st.occupied[e.Index] = true
		st.commits = append(st.commits, e)
	case StoreEvent:
		if err := s.checkIndex(ev, e.Index); err != nil {
			return err
		}
		if e.Valid {
			st.stores = append(st.stores, e)
		}
	case LoadEvent:
		if err := s.checkIndex(ev, e.Index); err != nil {
			return err
		}
		if e.Valid {
			st.loads = append(st.loads, e)
		}
	case TrapEvent:
		if e.Valid {
			st.trap = &e
		}
	case CSRState:
		st.csr, st.csrSnap = true, e
	case IntRegState:
		st.gpr, st.gprSnap = true, e
	case FpRegState:
		st.fpr, st.fprSnap = true, e
	case ArchEvent:
		if e.IntrNo != 0 {
			st.intrs = append(st.intrs, e)
		} else {
			t.extEvents++
		}
	case SbufferEvent, AtomicEvent, PtwEvent:
		t.extEvents++
	}

	return nil
}

func (s *Session) checkIndex(ev Event, index uint8) error {
	if int(index) >= s.config.CommitWidth {
		return s.abort(s.protocolError(ev, ErrIndexOutOfRange))
	}
	return nil
}

func (s *Session) protocolError(ev Event, err error) *ProtocolError {
	return &ProtocolError{
		Event: ev.kind(),
		Core:  ev.eventCore(),
		Cycle: s.cycle,
		Err:   err,
	}
}
