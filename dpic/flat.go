package dpic

import "github.com/sarchlab/difftest/arch"

// SendCSRs issues CSRState with the fields of csr spread positionally.
func SendCSRs(p Port, coreid uint8, csr [arch.NumCSRs]Word) {
	p.CSRState(coreid,
		csr[arch.CRMD], csr[arch.PRMD], csr[arch.EUEN], csr[arch.ECFG],
		csr[arch.ESTAT], csr[arch.ERA], csr[arch.BADV], csr[arch.EENTRY],
		csr[arch.TLBIDX], csr[arch.TLBEHI], csr[arch.TLBELO0], csr[arch.TLBELO1],
		csr[arch.ASID], csr[arch.PGDL], csr[arch.PGDH],
		csr[arch.SAVE0], csr[arch.SAVE1], csr[arch.SAVE2], csr[arch.SAVE3],
		csr[arch.TID], csr[arch.TCFG], csr[arch.TVAL], csr[arch.TICLR],
		csr[arch.LLBCTL], csr[arch.TLBRENTRY], csr[arch.DMW0], csr[arch.DMW1])
}

// Narrow converts a value to a boundary Word, dropping bits Word cannot
// hold.
func Narrow(v uint64) Word {
	return Word(v)
}

// NarrowState converts the register and CSR files of s to boundary Words.
func NarrowState(s arch.State) (gpr [arch.NumGPRs]Word, fpr [arch.NumFPRs]Word, csr [arch.NumCSRs]Word) {
	for i, v := range s.GPR {
		gpr[i] = Word(v)
	}
	for i, v := range s.FPR {
		fpr[i] = Word(v)
	}
	for i, v := range s.CSR {
		csr[i] = Word(v)
	}
	return gpr, fpr, csr
}
