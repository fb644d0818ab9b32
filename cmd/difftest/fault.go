package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/difftest/dut"
)

// faultList collects -fault flags.
type faultList []dut.Fault

func (l *faultList) String() string {
	parts := make([]string, len(*l))
	for i, f := range *l {
		parts[i] = fmt.Sprintf("%s@%d:%d", f.Kind, f.At, f.Bit)
	}
	return strings.Join(parts, ",")
}

func (l *faultList) Set(s string) error {
	f, err := parseFault(s)
	if err != nil {
		return err
	}
	*l = append(*l, f)
	return nil
}

// parseFault parses kind@seq[:bit], for example wdata@12:3.
func parseFault(s string) (dut.Fault, error) {
	kind, rest, ok := strings.Cut(s, "@")
	if !ok {
		return dut.Fault{}, fmt.Errorf("fault %q: want kind@seq[:bit]", s)
	}

	k, err := dut.ParseFaultKind(kind)
	if err != nil {
		return dut.Fault{}, err
	}

	seq, bit, hasBit := strings.Cut(rest, ":")
	at, err := strconv.ParseUint(seq, 10, 64)
	if err != nil || at == 0 {
		return dut.Fault{}, fmt.Errorf("fault %q: bad sequence number", s)
	}

	f := dut.Fault{Kind: k, At: at}
	if hasBit {
		b, err := strconv.ParseUint(bit, 10, 8)
		if err != nil || b > 63 {
			return dut.Fault{}, fmt.Errorf("fault %q: bad bit", s)
		}
		f.Bit = uint(b)
	}

	return f, nil
}
