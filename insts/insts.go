// Package insts provides LA32R instruction definitions and decoding.
//
// This package implements decoding of LoongArch32 Reduced machine code into
// structured instruction representations. It supports:
//   - 3R and 2RI12 integer arithmetic and logic: ADD.W, SUB.W, ADDI.W, ANDI, ...
//   - Shifts, multiply and divide: SLLI.W, SRA.W, MUL.W, DIV.WU, ...
//   - Loads and stores: LD.B/H/W/BU/HU, ST.B/H/W
//   - Control flow: B, BL, JIRL, BEQ, BNE, BLT, BGE, BLTU, BGEU
//   - Privileged: CSRRD, CSRWR, CSRXCHG, ERTN, SYSCALL, BREAK
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x02802884) // ADDI.W $a0, $a0, 10
//	fmt.Printf("Op: %v, Rd: %d, Rj: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rj, inst.Imm)
package insts
