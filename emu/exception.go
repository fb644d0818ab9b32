// Package emu provides functional LA32R emulation.
package emu

import "github.com/sarchlab/difftest/arch"

// raiseException performs exception entry: the current privilege level and
// interrupt enable are saved to PRMD, the core enters PLV0 with interrupts
// disabled, ERA records the faulting PC and execution continues at EENTRY.
func (e *Emulator) raiseException(ecode uint8, badv uint32, setBadv bool) {
	c := e.csrFile
	crmd := c.Get(arch.CRMD)

	prmd := c.Get(arch.PRMD) &^ uint32(arch.PRMDPPLVMask|arch.PRMDPIE)
	prmd |= crmd & uint32(arch.CRMDPLVMask|arch.CRMDIE)
	c.Set(arch.PRMD, prmd)

	c.Set(arch.CRMD, crmd&^uint32(arch.CRMDPLVMask|arch.CRMDIE))
	c.Set(arch.ERA, e.regFile.PC)

	estat := c.Get(arch.ESTAT) &^ uint32(arch.ESTATEcodeMask|arch.ESTATSubMask)
	estat |= uint32(ecode) << arch.ESTATEcodeShift
	c.Set(arch.ESTAT, estat)

	if setBadv {
		c.Set(arch.BADV, badv)
	}

	e.regFile.PC = c.Get(arch.EENTRY)
}

// returnFromException implements ertn.
func (e *Emulator) returnFromException() {
	c := e.csrFile
	prmd := c.Get(arch.PRMD)

	crmd := c.Get(arch.CRMD) &^ uint32(arch.CRMDPLVMask|arch.CRMDIE)
	crmd |= prmd & uint32(arch.PRMDPPLVMask|arch.PRMDPIE)
	c.Set(arch.CRMD, crmd)

	// ertn clears the LL bit unless KLO is set.
	llbctl := c.Get(arch.LLBCTL)
	if llbctl&0x4 == 0 {
		c.Set(arch.LLBCTL, llbctl&^uint32(arch.LLBCTLROLLB))
	}

	e.regFile.PC = c.Get(arch.ERA)
}

// RaiseInterrupt delivers an externally injected interrupt at the current
// PC. irq selects the ESTAT.IS bit to set (0-12); larger values only take
// the interrupt.
func (e *Emulator) RaiseInterrupt(irq uint32) {
	if irq < 13 {
		e.csrFile.Set(arch.ESTAT, e.csrFile.Get(arch.ESTAT)|1<<irq)
	}
	e.raiseException(arch.EcodeINT, 0, false)
}
