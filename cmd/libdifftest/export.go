// Package main builds libdifftest, a C shared library exporting the
// v_difftest_* DPI-C functions for Verilator testbenches:
//
//	go build -buildmode=c-shared -o libdifftest.so ./cmd/libdifftest
//
// The reference model image and configuration come from the environment
// (DIFFTEST_IMAGE, DIFFTEST_BASE, DIFFTEST_CONFIG, DIFFTEST_VERBOSE).
package main

import "C"

import (
	"os"

	"github.com/sarchlab/difftest/dpic"
)

var (
	port dpic.Port
	log  = newLogger(os.Stderr, verbosity(os.Getenv))
)

func main() {}

// v_difftest_init builds the session and starts it. It returns 0 on
// success.
//
//export v_difftest_init
func v_difftest_init() C.int {
	b, err := newBoundary(os.Getenv, log)
	if err != nil {
		log.Error(err, "init failed")
		return 1
	}
	port = b
	return C.int(port.Init())
}

// v_difftest_step ends the cycle. A non-zero result asks the testbench to
// stop.
//
//export v_difftest_step
func v_difftest_step() C.int {
	if port == nil {
		return 3
	}
	return C.int(port.Step())
}

//export v_difftest_InstrCommit
func v_difftest_InstrCommit(
	coreid, index, valid uint8,
	pc, instr dpic.Word,
	skip, wen, wdest uint8,
	wdata dpic.Word,
) {
	if port != nil {
		port.InstrCommit(coreid, index, valid, pc, instr, skip, wen, wdest, wdata)
	}
}

//export v_difftest_TrapEvent
func v_difftest_TrapEvent(coreid, valid, code uint8, pc, cycleCnt, instrCnt dpic.Word) {
	if port != nil {
		port.TrapEvent(coreid, valid, code, pc, cycleCnt, instrCnt)
	}
}

//export v_difftest_CSRState
func v_difftest_CSRState(coreid uint8,
	crmd, prmd, euen, ecfg, estat, era, badv, eentry,
	tlbidx, tlbehi, tlbelo0, tlbelo1, asid, pgdl, pgdh, save0,
	save1, save2, save3, tid, tcfg, tval, ticlr, llbctl,
	tlbrentry, dmw0, dmw1 dpic.Word,
) {
	if port != nil {
		port.CSRState(coreid,
			crmd, prmd, euen, ecfg, estat, era, badv, eentry,
			tlbidx, tlbehi, tlbelo0, tlbelo1, asid, pgdl, pgdh, save0,
			save1, save2, save3, tid, tcfg, tval, ticlr, llbctl,
			tlbrentry, dmw0, dmw1)
	}
}

//export v_difftest_ArchIntRegState
func v_difftest_ArchIntRegState(coreid uint8,
	gpr_0, gpr_1, gpr_2, gpr_3, gpr_4, gpr_5, gpr_6, gpr_7,
	gpr_8, gpr_9, gpr_10, gpr_11, gpr_12, gpr_13, gpr_14, gpr_15,
	gpr_16, gpr_17, gpr_18, gpr_19, gpr_20, gpr_21, gpr_22, gpr_23,
	gpr_24, gpr_25, gpr_26, gpr_27, gpr_28, gpr_29, gpr_30, gpr_31 dpic.Word,
) {
	if port != nil {
		port.ArchIntRegState(coreid, [32]dpic.Word{
			gpr_0, gpr_1, gpr_2, gpr_3, gpr_4, gpr_5, gpr_6, gpr_7,
			gpr_8, gpr_9, gpr_10, gpr_11, gpr_12, gpr_13, gpr_14, gpr_15,
			gpr_16, gpr_17, gpr_18, gpr_19, gpr_20, gpr_21, gpr_22, gpr_23,
			gpr_24, gpr_25, gpr_26, gpr_27, gpr_28, gpr_29, gpr_30, gpr_31,
		})
	}
}

//export v_difftest_ArchFpRegState
func v_difftest_ArchFpRegState(coreid uint8,
	fpr_0, fpr_1, fpr_2, fpr_3, fpr_4, fpr_5, fpr_6, fpr_7,
	fpr_8, fpr_9, fpr_10, fpr_11, fpr_12, fpr_13, fpr_14, fpr_15,
	fpr_16, fpr_17, fpr_18, fpr_19, fpr_20, fpr_21, fpr_22, fpr_23,
	fpr_24, fpr_25, fpr_26, fpr_27, fpr_28, fpr_29, fpr_30, fpr_31 dpic.Word,
) {
	if port != nil {
		port.ArchFpRegState(coreid, [32]dpic.Word{
			fpr_0, fpr_1, fpr_2, fpr_3, fpr_4, fpr_5, fpr_6, fpr_7,
			fpr_8, fpr_9, fpr_10, fpr_11, fpr_12, fpr_13, fpr_14, fpr_15,
			fpr_16, fpr_17, fpr_18, fpr_19, fpr_20, fpr_21, fpr_22, fpr_23,
			fpr_24, fpr_25, fpr_26, fpr_27, fpr_28, fpr_29, fpr_30, fpr_31,
		})
	}
}

//export v_difftest_StoreEvent
func v_difftest_StoreEvent(coreid, index, valid uint8, storeAddr, storeData dpic.Word, storeMask uint8) {
	if port != nil {
		port.StoreEvent(coreid, index, valid, storeAddr, storeData, storeMask)
	}
}

//export v_difftest_LoadEvent
func v_difftest_LoadEvent(coreid, index, valid uint8, paddr dpic.Word, opType, fuType uint8) {
	if port != nil {
		port.LoadEvent(coreid, index, valid, paddr, opType, fuType)
	}
}

//export v_difftest_ArchEvent
func v_difftest_ArchEvent(coreid uint8, intrNo, cause, exceptionPC dpic.Word) {
	if port != nil {
		port.ArchEvent(coreid, intrNo, cause, exceptionPC)
	}
}
